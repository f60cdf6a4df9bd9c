package rocktree

import (
	"errors"
	"math"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"rocktree/pkg/decode"
)

// Envelope builders for synthetic wire data.

func appendMessage(dst []byte, num protowire.Number, body []byte) []byte {
	dst = protowire.AppendTag(dst, num, protowire.BytesType)
	return protowire.AppendBytes(dst, body)
}

func appendUint32(dst []byte, num protowire.Number, v uint32) []byte {
	dst = protowire.AppendTag(dst, num, protowire.VarintType)
	return protowire.AppendVarint(dst, uint64(v))
}

func appendFloat(dst []byte, num protowire.Number, v float32) []byte {
	dst = protowire.AppendTag(dst, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(dst, math.Float32bits(v))
}

func appendDouble(dst []byte, num protowire.Number, v float64) []byte {
	dst = protowire.AppendTag(dst, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(dst, math.Float64bits(v))
}

func createTestPlanetoid(radius float32, rootEpoch uint32) []byte {
	rootMeta := appendUint32(nil, 2, rootEpoch)

	buf := appendMessage(nil, 1, rootMeta)
	return appendFloat(buf, 2, radius)
}

// packedOBB is a centered unit box with identity orientation.
func packedOBB() []byte {
	obb := make([]byte, 15)
	obb[6], obb[7], obb[8] = 1, 1, 1
	return obb
}

func appendTestNodeMeta(dst []byte, path string, flags uint32, withOBB bool) []byte {
	body := appendUint32(nil, 1, decode.PackPathAndFlags(path, flags))
	if withOBB {
		body = appendMessage(body, 3, packedOBB())
	}
	return appendMessage(dst, 2, body)
}

func createTestBulk(epoch uint32, build func([]byte) []byte) []byte {
	head := appendUint32(nil, 2, epoch)
	buf := appendMessage(nil, 1, head)

	for _, c := range [3]float64{1000, 2000, 3000} {
		buf = appendDouble(buf, 5, c)
	}
	for level := 0; level < 4; level++ {
		buf = appendFloat(buf, 6, float32(int(100)>>level))
	}
	return build(buf)
}

func TestDecodePlanetoid(t *testing.T) {
	data := createTestPlanetoid(6371010, 42)

	p, err := DecodePlanetoid(data)
	if err != nil {
		t.Fatalf("DecodePlanetoid failed: %v", err)
	}
	if math.Abs(p.Radius-6371010) > 1 {
		t.Errorf("expected radius 6371010, got %f", p.Radius)
	}
	if p.RootEpoch != 42 {
		t.Errorf("expected root epoch 42, got %d", p.RootEpoch)
	}
}

func TestDecodePlanetoid_ZeroRadius(t *testing.T) {
	_, err := DecodePlanetoid(createTestPlanetoid(0, 1))
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("expected ErrInvalidData, got %v", err)
	}
}

func TestDecodePlanetoid_Malformed(t *testing.T) {
	_, err := DecodePlanetoid([]byte{0xff, 0xff, 0xff})
	if !errors.Is(err, ErrProtobuf) {
		t.Errorf("expected ErrProtobuf, got %v", err)
	}
}

func TestDecodeBulk_Nodes(t *testing.T) {
	data := createTestBulk(7, func(buf []byte) []byte {
		buf = appendTestNodeMeta(buf, "0", 0, true)
		buf = appendTestNodeMeta(buf, "03", FlagLeaf, true)
		return buf
	})

	bulk, err := DecodeBulk(data, "")
	if err != nil {
		t.Fatalf("DecodeBulk failed: %v", err)
	}

	if bulk.Epoch != 7 {
		t.Errorf("expected epoch 7, got %d", bulk.Epoch)
	}
	if bulk.HeadNodeCenter != [3]float32{1000, 2000, 3000} {
		t.Errorf("unexpected head node center %v", bulk.HeadNodeCenter)
	}
	if len(bulk.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(bulk.Nodes))
	}

	n0 := bulk.Nodes[0]
	if n0.Path != "0" {
		t.Errorf("expected path \"0\", got %q", n0.Path)
	}
	if !n0.HasData {
		t.Error("expected node to have data")
	}
	if n0.Epoch != 7 {
		t.Errorf("expected inherited epoch 7, got %d", n0.Epoch)
	}
	// Level 1 falls back to the bulk's per-level resolution table.
	if n0.MetersPerTexel != 100 {
		t.Errorf("expected meters per texel 100, got %f", n0.MetersPerTexel)
	}

	n1 := bulk.Nodes[1]
	if n1.Path != "03" {
		t.Errorf("expected path \"03\", got %q", n1.Path)
	}
	if n1.MetersPerTexel != 50 {
		t.Errorf("expected meters per texel 50, got %f", n1.MetersPerTexel)
	}
}

func TestDecodeBulk_ChildBulks(t *testing.T) {
	data := createTestBulk(7, func(buf []byte) []byte {
		// Non-leaf level-4 entry without data: pure child bulk reference.
		body := appendUint32(nil, 1, decode.PackPathAndFlags("0123", FlagNoData))
		body = appendUint32(body, 8, 99) // bulk_metadata_epoch
		buf = appendMessage(buf, 2, body)

		// Leaf at level 4: a real node, not a child bulk.
		buf = appendTestNodeMeta(buf, "4567", FlagLeaf, true)
		return buf
	})

	bulk, err := DecodeBulk(data, "")
	if err != nil {
		t.Fatalf("DecodeBulk failed: %v", err)
	}

	if len(bulk.ChildBulkPaths) != 1 {
		t.Fatalf("expected 1 child bulk, got %d", len(bulk.ChildBulkPaths))
	}
	if epoch, ok := bulk.ChildBulkPaths["0123"]; !ok || epoch != 99 {
		t.Errorf("expected child bulk 0123 with epoch 99, got %v (present %v)", epoch, ok)
	}

	// The NODATA boundary entry is not listed as a fetchable node.
	if len(bulk.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(bulk.Nodes))
	}
	if bulk.Nodes[0].Path != "4567" {
		t.Errorf("expected node 4567, got %q", bulk.Nodes[0].Path)
	}
}

func TestDecodeBulk_QualifiesPaths(t *testing.T) {
	data := createTestBulk(3, func(buf []byte) []byte {
		return appendTestNodeMeta(buf, "25", 0, true)
	})

	bulk, err := DecodeBulk(data, "0123")
	if err != nil {
		t.Fatalf("DecodeBulk failed: %v", err)
	}
	if bulk.Nodes[0].Path != "012325" {
		t.Errorf("expected qualified path 012325, got %q", bulk.Nodes[0].Path)
	}
	if got := bulk.NodeByRelativePath("25"); got == nil || got.Path != "012325" {
		t.Errorf("NodeByRelativePath failed: %v", got)
	}
}

func TestDecodeBulk_MissingCenter(t *testing.T) {
	head := appendUint32(nil, 2, uint32(1))
	data := appendMessage(nil, 1, head)

	_, err := DecodeBulk(data, "")
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("expected ErrInvalidData, got %v", err)
	}
}

func TestPreferredTextureFormat(t *testing.T) {
	if got := preferredTextureFormat(1 << (TexFormatCRNDXT1 - 1)); got != TexFormatCRNDXT1 {
		t.Errorf("expected CRN_DXT1, got %d", got)
	}
	if got := preferredTextureFormat(1 << (TexFormatJPG - 1)); got != TexFormatJPG {
		t.Errorf("expected JPG, got %d", got)
	}
	if got := preferredTextureFormat(0); got != TexFormatJPG {
		t.Errorf("expected JPG fallback, got %d", got)
	}
}

// createTestNodeData builds a NodeData envelope with one mesh of the given
// triangle strip over n vertices.
func createTestNodeData(nVerts int, strip []uint16, uvOverride []float32) []byte {
	// Vertex planes: absolute positions i, delta encoded trivially.
	verts := make([]byte, 3*nVerts)
	for axis := 0; axis < 3; axis++ {
		verts[axis*nVerts] = 0
		for i := 1; i < nVerts; i++ {
			verts[axis*nVerts+i] = 1
		}
	}

	// Texture coordinates: everything zero, moduli 256.
	tex := make([]byte, 4+4*nVerts)
	tex[0] = 255
	tex[2] = 255

	// Strip in the zeros-counter encoding.
	idx := decode.AppendVarint(nil, uint32(len(strip)))
	var zeros uint32
	for _, s := range strip {
		v := zeros - uint32(s)
		idx = decode.AppendVarint(idx, v)
		if v == 0 {
			zeros++
		}
	}

	mesh := appendMessage(nil, 1, verts)
	mesh = appendMessage(mesh, 3, tex)
	mesh = appendMessage(mesh, 4, idx)
	for i := 0; i < len(uvOverride); i++ {
		mesh = appendFloat(mesh, 7, uvOverride[i])
	}

	var buf []byte
	for i := 0; i < 16; i++ {
		v := 0.0
		if i%5 == 0 {
			v = 1 // identity matrix
		}
		buf = appendDouble(buf, 2, v)
	}
	return appendMessage(buf, 3, mesh)
}

func TestDecodeNode_Basic(t *testing.T) {
	data := createTestNodeData(4, []uint16{0, 1, 2, 3}, nil)
	meta := &NodeMetadata{Path: "021", MetersPerTexel: 8}

	node, err := DecodeNode(data, meta)
	if err != nil {
		t.Fatalf("DecodeNode failed: %v", err)
	}

	if node.Path != "021" {
		t.Errorf("expected path 021, got %q", node.Path)
	}
	if node.MetersPerTexel != 8 {
		t.Errorf("expected meters per texel 8, got %f", node.MetersPerTexel)
	}
	if node.MatrixGlobeFromMesh[0] != 1 || node.MatrixGlobeFromMesh[5] != 1 {
		t.Errorf("expected identity matrix, got %v", node.MatrixGlobeFromMesh)
	}

	if len(node.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(node.Meshes))
	}
	mesh := node.Meshes[0]
	if len(mesh.Vertices) != 4 {
		t.Errorf("expected 4 vertices, got %d", len(mesh.Vertices))
	}
	// Strip 0,1,2,3 expands to two triangles.
	if len(mesh.Indices) != 6 {
		t.Errorf("expected 6 indices, got %d", len(mesh.Indices))
	}
	// No normal data: placeholder normals, 4 bytes per vertex.
	if len(mesh.Normals) != 16 {
		t.Errorf("expected 16 normal bytes, got %d", len(mesh.Normals))
	}
	if mesh.Normals[0] != 127 {
		t.Errorf("expected placeholder normal 127, got %d", mesh.Normals[0])
	}
}

func TestDecodeNode_UvFlip(t *testing.T) {
	// Without an explicit uv_offset_and_scale the V axis is flipped.
	data := createTestNodeData(3, []uint16{0, 1, 2}, nil)
	node, err := DecodeNode(data, &NodeMetadata{Path: "0"})
	if err != nil {
		t.Fatalf("DecodeNode failed: %v", err)
	}

	uv := node.Meshes[0].UvTransform
	if uv.ScaleV >= 0 {
		t.Errorf("expected negative V scale after flip, got %f", uv.ScaleV)
	}

	// With an override the four floats are taken verbatim.
	data = createTestNodeData(3, []uint16{0, 1, 2}, []float32{1, 2, 3, 4})
	node, err = DecodeNode(data, &NodeMetadata{Path: "0"})
	if err != nil {
		t.Fatalf("DecodeNode failed: %v", err)
	}
	uv = node.Meshes[0].UvTransform
	if uv.OffsetU != 1 || uv.OffsetV != 2 || uv.ScaleU != 3 || uv.ScaleV != 4 {
		t.Errorf("unexpected UV transform %+v", uv)
	}
}

func TestDecodeNode_BadMatrix(t *testing.T) {
	var buf []byte
	for i := 0; i < 7; i++ {
		buf = appendDouble(buf, 2, 1)
	}

	_, err := DecodeNode(buf, &NodeMetadata{Path: "0"})
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("expected ErrInvalidData, got %v", err)
	}
}
