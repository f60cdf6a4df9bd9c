package rocktree

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"rocktree/pkg/decode"
)

// DecodePlanetoid decodes a PlanetoidMetadata envelope.
func DecodePlanetoid(data []byte) (*Planetoid, error) {
	wire, err := parsePlanetoid(data)
	if err != nil {
		return nil, err
	}
	if wire.Radius <= 0 {
		return nil, fmt.Errorf("%w: planetoid radius %v", ErrInvalidData, wire.Radius)
	}
	return &Planetoid{Radius: wire.Radius, RootEpoch: wire.RootEpoch}, nil
}

// DecodeBulk decodes a BulkMetadata envelope for the bulk rooted at path.
// Node paths come back fully qualified; child bulk references stay relative
// (4-digit suffixes keyed to their epoch).
func DecodeBulk(data []byte, path string) (*BulkMetadata, error) {
	wire, err := parseBulkMetadata(data)
	if err != nil {
		return nil, err
	}
	if len(wire.HeadNodeCenter) != 3 {
		return nil, fmt.Errorf("%w: head node center has %d components", ErrInvalidData, len(wire.HeadNodeCenter))
	}

	bulk := &BulkMetadata{
		Path:           path,
		Epoch:          wire.HeadNodeKey.Epoch,
		MetersPerTexel: wire.MetersPerTexel,
		ChildBulkPaths: make(map[string]uint32),
	}
	for i := 0; i < 3; i++ {
		bulk.HeadNodeCenter[i] = float32(wire.HeadNodeCenter[i])
	}

	for i := range wire.Nodes {
		wn := &wire.Nodes[i]
		if !wn.HasPathAndFlags {
			return nil, fmt.Errorf("%w: node metadata without path", ErrInvalidData)
		}
		pf := decode.UnpackPathAndFlags(wn.PathAndFlags)

		// A non-leaf entry at the bulk boundary names a child bulk.
		if pf.Level == 4 && pf.Flags&FlagLeaf == 0 {
			epoch := bulk.Epoch
			if wn.HasBulkMetadataEpo {
				epoch = wn.BulkMetadataEpoch
			}
			bulk.ChildBulkPaths[pf.Path] = epoch
		}

		// Boundary entries without data exist only to reference the child
		// bulk; they are not fetchable nodes.
		if pf.Flags&FlagNoData != 0 && pf.Level == 4 {
			continue
		}

		meta := NodeMetadata{
			Path:    path + pf.Path,
			HasData: pf.Flags&FlagNoData == 0,
		}

		meta.Epoch = bulk.Epoch
		if wn.HasEpoch {
			meta.Epoch = wn.Epoch
		}

		if wn.HasMetersPerTexel {
			meta.MetersPerTexel = wn.MetersPerTexel
		} else if pf.Level-1 < len(wire.MetersPerTexel) {
			meta.MetersPerTexel = wire.MetersPerTexel[pf.Level-1]
		}

		available := wire.DefaultAvailable
		if wn.HasAvailable {
			available = wn.AvailableFormats
		}
		meta.TextureFormat = preferredTextureFormat(available)

		if pf.Flags&FlagUseImageryEpoch != 0 {
			meta.ImageryEpoch = wire.DefaultImagery
			if wn.HasImageryEpoch {
				meta.ImageryEpoch = wn.ImageryEpoch
			}
			meta.HasImageryEpoch = true
		}

		obb, err := decode.UnpackOBB(wn.OBB, bulk.HeadNodeCenter, meta.MetersPerTexel)
		if err != nil {
			return nil, fmt.Errorf("node %q bounding box: %w", meta.Path, err)
		}
		meta.OBB = obb

		bulk.Nodes = append(bulk.Nodes, meta)
	}

	return bulk, nil
}

// preferredTextureFormat picks the fetch format from the server-advertised
// availability bitmask, preferring the compressed block format over JPEG.
func preferredTextureFormat(available uint32) int32 {
	if available&(1<<(TexFormatCRNDXT1-1)) != 0 {
		return TexFormatCRNDXT1
	}
	return TexFormatJPG
}

// DecodeNode decodes a NodeData envelope into a Node, running the full mesh
// pipeline: vertex and texture-coordinate delta decode, strip unpack,
// octant mask assignment, truncation to the visible layer, strip expansion,
// normal resolution and texture decode.
func DecodeNode(data []byte, meta *NodeMetadata) (*Node, error) {
	wire, err := parseNodeData(data)
	if err != nil {
		return nil, err
	}
	if len(wire.MatrixGlobeFromMesh) != 16 {
		return nil, fmt.Errorf("%w: globe-from-mesh matrix has %d entries", ErrInvalidData, len(wire.MatrixGlobeFromMesh))
	}

	node := &Node{
		Path:           meta.Path,
		MetersPerTexel: meta.MetersPerTexel,
		OBB:            meta.OBB,
	}
	var matrix mgl64.Mat4
	copy(matrix[:], wire.MatrixGlobeFromMesh)
	node.MatrixGlobeFromMesh = matrix

	var normalTable []byte
	if len(wire.ForNormals) > 0 {
		normalTable, err = decode.UnpackForNormals(wire.ForNormals)
		if err != nil {
			return nil, fmt.Errorf("%w: normal table: %v", ErrInvalidData, err)
		}
	}

	for i := range wire.Meshes {
		mesh, err := decodeMesh(&wire.Meshes[i], normalTable)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		node.Meshes = append(node.Meshes, mesh)
	}

	return node, nil
}

func decodeMesh(wm *wireMesh, normalTable []byte) (Mesh, error) {
	var mesh Mesh

	vertices, err := decode.UnpackVertices(wm.Vertices)
	if err != nil {
		return mesh, fmt.Errorf("%w: vertices: %v", ErrInvalidData, err)
	}

	uv, err := decode.UnpackTexCoords(wm.TextureCoordinates, vertices)
	if err != nil {
		return mesh, fmt.Errorf("%w: texture coordinates: %v", ErrInvalidData, err)
	}

	strip, err := decode.UnpackIndices(wm.Indices)
	if err != nil {
		return mesh, fmt.Errorf("%w: indices: %v", ErrInvalidData, err)
	}

	if len(wm.LayerAndOctantCounts) > 0 {
		bounds, err := decode.UnpackOctantMaskAndLayerBounds(wm.LayerAndOctantCounts, strip, vertices)
		if err != nil {
			return mesh, fmt.Errorf("%w: octant mask: %v", ErrInvalidData, err)
		}
		// Layer bound 3 ends the directly rendered geometry; later layers
		// carry auxiliary octant groupings.
		if bounds[3] <= len(strip) {
			strip = strip[:bounds[3]]
		}
		mesh.HasOctantData = true
	}

	mesh.Vertices = vertices
	mesh.Indices = decode.StripToTriangles(strip)

	if len(wm.UvOffsetAndScale) == 4 {
		uv = decode.UvTransform{
			OffsetU: wm.UvOffsetAndScale[0],
			OffsetV: wm.UvOffsetAndScale[1],
			ScaleU:  wm.UvOffsetAndScale[2],
			ScaleV:  wm.UvOffsetAndScale[3],
		}
	} else {
		// No explicit override: flip V.
		uv.OffsetV -= 1 / uv.ScaleV
		uv.ScaleV *= -1
	}
	mesh.UvTransform = uv

	if len(wm.Normals) > 0 && normalTable != nil {
		mesh.Normals, err = decode.UnpackNormals(wm.Normals, normalTable)
		if err != nil {
			return mesh, fmt.Errorf("%w: normals: %v", ErrInvalidData, err)
		}
	} else {
		mesh.Normals = decode.PlaceholderNormals(len(vertices))
	}

	if len(wm.Textures) > 0 && len(wm.Textures[0].Data) > 0 {
		pixels, format, w, h, err := decode.DecodeTexture(wm.Textures[0].Data[0])
		if err != nil {
			return mesh, fmt.Errorf("%w: texture: %v", ErrInvalidData, err)
		}
		mesh.TextureData = pixels
		mesh.TextureFormat = format
		mesh.TextureWidth = uint32(w)
		mesh.TextureHeight = uint32(h)
	}

	return mesh, nil
}
