// Package rocktree defines the domain model of the streamed terrain octree
// (planetoid, bulk metadata, nodes and meshes) and the mapping from the wire
// protocol's protobuf envelopes and packed payloads into it.
package rocktree

import (
	"github.com/go-gl/mathgl/mgl64"

	"rocktree/pkg/decode"
	"rocktree/pkg/geom"
)

// Vertex is the 8-byte mesh vertex produced by the decode layer.
type Vertex = decode.Vertex

// UvTransform maps raw vertex UVs to float texture coordinates.
type UvTransform = decode.UvTransform

// Node flags carried in the packed path_and_flags word.
const (
	FlagRich3D          uint32 = 1
	FlagNoData          uint32 = 2
	FlagLeaf            uint32 = 4
	FlagUseImageryEpoch uint32 = 16
)

// Wire texture format identifiers advertised by the server.
const (
	TexFormatJPG     int32 = 1
	TexFormatDXT1    int32 = 2
	TexFormatETC1    int32 = 3
	TexFormatPVRTC2  int32 = 4
	TexFormatPVRTC4  int32 = 5
	TexFormatCRNDXT1 int32 = 6
)

// Planetoid is the root object bootstrapping the octree.
type Planetoid struct {
	Radius    float64
	RootEpoch uint32
}

// NodeMetadata describes one octree node as advertised by its owning bulk:
// enough to cull, order and fetch the node without touching its payload.
type NodeMetadata struct {
	Path            string
	Epoch           uint32
	TextureFormat   int32
	ImageryEpoch    uint32
	HasImageryEpoch bool
	MetersPerTexel  float32
	OBB             geom.OBB
	HasData         bool
}

// BulkMetadata groups the metadata of a contiguous octree region (up to four
// levels below its head node). Child bulks are referenced by their 4-digit
// relative paths, not embedded.
type BulkMetadata struct {
	Path           string
	Epoch          uint32
	HeadNodeCenter [3]float32
	MetersPerTexel []float32 // per depth level within the bulk
	Nodes          []NodeMetadata
	ChildBulkPaths map[string]uint32 // relative 4-digit path -> epoch
}

// NodeByRelativePath returns the node whose path is bulk.Path + rel, or nil.
func (b *BulkMetadata) NodeByRelativePath(rel string) *NodeMetadata {
	full := b.Path + rel
	for i := range b.Nodes {
		if b.Nodes[i].Path == full {
			return &b.Nodes[i]
		}
	}
	return nil
}

// Mesh is one decoded render mesh of a node: a triangle list over the 8-byte
// vertices, the UV transform, per-vertex normals (4 bytes each) and the
// decoded texture.
type Mesh struct {
	Vertices      []Vertex
	Indices       []uint16 // triangle list, truncated to the visible layer
	UvTransform   UvTransform
	Normals       []byte
	TextureData   []byte
	TextureFormat decode.TextureFormat
	TextureWidth  uint32
	TextureHeight uint32
	HasOctantData bool
}

// Node is the decoded mesh payload of one octree path.
type Node struct {
	Path                string
	MatrixGlobeFromMesh mgl64.Mat4
	MetersPerTexel      float32
	OBB                 geom.OBB
	Meshes              []Mesh
}
