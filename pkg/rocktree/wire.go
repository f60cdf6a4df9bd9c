package rocktree

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Envelope errors.
var (
	ErrProtobuf    = errors.New("malformed protobuf envelope")
	ErrInvalidData = errors.New("invalid node data")
)

// Wire message layouts. The envelopes are plain proto2 messages; they are
// consumed field by field with protowire rather than generated code, since
// only a handful of fields matter and the schema is frozen.
//
//	PlanetoidMetadata: 1 root_node_metadata (NodeMetadata), 2 radius (float)
//	NodeKey:           1 path (string), 2 epoch (uint32)
//	NodeMetadata:      1 path_and_flags (uint32), 2 epoch (uint32),
//	                   3 oriented_bounding_box (bytes),
//	                   5 meters_per_texel (float), 6 imagery_epoch (uint32),
//	                   7 available_texture_formats (uint32),
//	                   8 bulk_metadata_epoch (uint32)
//	BulkMetadata:      1 head_node_key (NodeKey),
//	                   2 node_metadata (repeated NodeMetadata),
//	                   3 default_imagery_epoch (uint32),
//	                   4 default_available_texture_formats (uint32),
//	                   5 head_node_center (repeated double, 3 entries),
//	                   6 meters_per_texel (repeated float, per level)
//	Texture:           1 data (repeated bytes), 2 format (enum),
//	                   3 width (uint32), 4 height (uint32)
//	Mesh:              1 vertices (bytes), 2 vertex_alphas (bytes),
//	                   3 texture_coordinates (bytes), 4 indices (bytes),
//	                   5 layer_and_octant_counts (bytes),
//	                   6 texture (repeated Texture),
//	                   7 uv_offset_and_scale (repeated float, 4 entries),
//	                   8 normals (bytes), 9 mesh_id (uint32)
//	NodeData:          1 node_key (NodeKey),
//	                   2 matrix_globe_from_mesh (repeated double, 16),
//	                   3 meshes (repeated Mesh), 4 for_normals (bytes)
type wireNodeKey struct {
	Path  string
	Epoch uint32
}

type wireNodeMetadata struct {
	PathAndFlags       uint32
	HasPathAndFlags    bool
	Epoch              uint32
	HasEpoch           bool
	OBB                []byte
	MetersPerTexel     float32
	HasMetersPerTexel  bool
	ImageryEpoch       uint32
	HasImageryEpoch    bool
	AvailableFormats   uint32
	HasAvailable       bool
	BulkMetadataEpoch  uint32
	HasBulkMetadataEpo bool
}

type wireBulkMetadata struct {
	HeadNodeKey      wireNodeKey
	Nodes            []wireNodeMetadata
	DefaultImagery   uint32
	DefaultAvailable uint32
	HeadNodeCenter   []float64
	MetersPerTexel   []float32
}

type wireTexture struct {
	Data   [][]byte
	Format int32
	Width  uint32
	Height uint32
}

type wireMesh struct {
	Vertices             []byte
	TextureCoordinates   []byte
	Indices              []byte
	LayerAndOctantCounts []byte
	Textures             []wireTexture
	UvOffsetAndScale     []float32
	Normals              []byte
}

type wireNodeData struct {
	NodeKey             wireNodeKey
	MatrixGlobeFromMesh []float64
	Meshes              []wireMesh
	ForNormals          []byte
}

type wirePlanetoid struct {
	RootEpoch uint32
	Radius    float64
}

// fieldIter walks the top-level fields of one message.
func fieldIter(data []byte, visit func(num protowire.Number, typ protowire.Type, payload []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: tag", ErrProtobuf)
		}
		data = data[n:]

		var payload []byte
		switch typ {
		case protowire.VarintType:
			_, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return fmt.Errorf("%w: varint field %d", ErrProtobuf, num)
			}
			payload, data = data[:m], data[m:]
		case protowire.Fixed32Type:
			if len(data) < 4 {
				return fmt.Errorf("%w: fixed32 field %d", ErrProtobuf, num)
			}
			payload, data = data[:4], data[4:]
		case protowire.Fixed64Type:
			if len(data) < 8 {
				return fmt.Errorf("%w: fixed64 field %d", ErrProtobuf, num)
			}
			payload, data = data[:8], data[8:]
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return fmt.Errorf("%w: bytes field %d", ErrProtobuf, num)
			}
			payload, data = v, data[m:]
		default:
			return fmt.Errorf("%w: wire type %d", ErrProtobuf, typ)
		}

		if err := visit(num, typ, payload); err != nil {
			return err
		}
	}
	return nil
}

func asVarint(payload []byte) uint64 {
	v, _ := protowire.ConsumeVarint(payload)
	return v
}

func asFloat(payload []byte) float32 {
	v, _ := protowire.ConsumeFixed32(payload)
	return math.Float32frombits(v)
}

func asDouble(payload []byte) float64 {
	v, _ := protowire.ConsumeFixed64(payload)
	return math.Float64frombits(v)
}

// floats32 appends a float field that may arrive packed or unpacked.
func floats32(dst []float32, typ protowire.Type, payload []byte) []float32 {
	if typ == protowire.Fixed32Type {
		return append(dst, asFloat(payload))
	}
	for len(payload) >= 4 {
		dst = append(dst, asFloat(payload[:4]))
		payload = payload[4:]
	}
	return dst
}

func floats64(dst []float64, typ protowire.Type, payload []byte) []float64 {
	if typ == protowire.Fixed64Type {
		return append(dst, asDouble(payload))
	}
	for len(payload) >= 8 {
		dst = append(dst, asDouble(payload[:8]))
		payload = payload[8:]
	}
	return dst
}

func parseNodeKey(data []byte) (wireNodeKey, error) {
	var key wireNodeKey
	err := fieldIter(data, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch num {
		case 1:
			key.Path = string(payload)
		case 2:
			key.Epoch = uint32(asVarint(payload))
		}
		return nil
	})
	return key, err
}

func parseNodeMetadata(data []byte) (wireNodeMetadata, error) {
	var m wireNodeMetadata
	err := fieldIter(data, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch num {
		case 1:
			m.PathAndFlags = uint32(asVarint(payload))
			m.HasPathAndFlags = true
		case 2:
			m.Epoch = uint32(asVarint(payload))
			m.HasEpoch = true
		case 3:
			m.OBB = payload
		case 5:
			m.MetersPerTexel = asFloat(payload)
			m.HasMetersPerTexel = true
		case 6:
			m.ImageryEpoch = uint32(asVarint(payload))
			m.HasImageryEpoch = true
		case 7:
			m.AvailableFormats = uint32(asVarint(payload))
			m.HasAvailable = true
		case 8:
			m.BulkMetadataEpoch = uint32(asVarint(payload))
			m.HasBulkMetadataEpo = true
		}
		return nil
	})
	return m, err
}

func parseBulkMetadata(data []byte) (*wireBulkMetadata, error) {
	var b wireBulkMetadata
	err := fieldIter(data, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch num {
		case 1:
			key, err := parseNodeKey(payload)
			if err != nil {
				return err
			}
			b.HeadNodeKey = key
		case 2:
			node, err := parseNodeMetadata(payload)
			if err != nil {
				return err
			}
			b.Nodes = append(b.Nodes, node)
		case 3:
			b.DefaultImagery = uint32(asVarint(payload))
		case 4:
			b.DefaultAvailable = uint32(asVarint(payload))
		case 5:
			b.HeadNodeCenter = floats64(b.HeadNodeCenter, typ, payload)
		case 6:
			b.MetersPerTexel = floats32(b.MetersPerTexel, typ, payload)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func parseTexture(data []byte) (wireTexture, error) {
	var t wireTexture
	err := fieldIter(data, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch num {
		case 1:
			t.Data = append(t.Data, payload)
		case 2:
			t.Format = int32(asVarint(payload))
		case 3:
			t.Width = uint32(asVarint(payload))
		case 4:
			t.Height = uint32(asVarint(payload))
		}
		return nil
	})
	return t, err
}

func parseMesh(data []byte) (wireMesh, error) {
	var m wireMesh
	err := fieldIter(data, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch num {
		case 1:
			m.Vertices = payload
		case 3:
			m.TextureCoordinates = payload
		case 4:
			m.Indices = payload
		case 5:
			m.LayerAndOctantCounts = payload
		case 6:
			tex, err := parseTexture(payload)
			if err != nil {
				return err
			}
			m.Textures = append(m.Textures, tex)
		case 7:
			m.UvOffsetAndScale = floats32(m.UvOffsetAndScale, typ, payload)
		case 8:
			m.Normals = payload
		}
		return nil
	})
	return m, err
}

func parseNodeData(data []byte) (*wireNodeData, error) {
	var n wireNodeData
	err := fieldIter(data, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch num {
		case 1:
			key, err := parseNodeKey(payload)
			if err != nil {
				return err
			}
			n.NodeKey = key
		case 2:
			n.MatrixGlobeFromMesh = floats64(n.MatrixGlobeFromMesh, typ, payload)
		case 3:
			mesh, err := parseMesh(payload)
			if err != nil {
				return err
			}
			n.Meshes = append(n.Meshes, mesh)
		case 4:
			n.ForNormals = payload
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parsePlanetoid(data []byte) (*wirePlanetoid, error) {
	var p wirePlanetoid
	err := fieldIter(data, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch num {
		case 1:
			// Only the root node's epoch matters from the embedded metadata.
			meta, err := parseNodeMetadata(payload)
			if err != nil {
				return err
			}
			p.RootEpoch = meta.Epoch
		case 2:
			p.Radius = float64(asFloat(payload))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
