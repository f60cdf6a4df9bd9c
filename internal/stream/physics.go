package stream

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"rocktree/pkg/rocktree"
)

// updateColliders reconciles the physics collider set against the cached
// payloads at the physics depth: new colliders are baked for nodes that
// entered the interest radius, stale ones are destroyed. Colliders are
// independent of the frustum; terrain behind the camera still collides.
func (e *Engine) updateColliders(cam Camera) {
	if e.physics == nil {
		return
	}

	depth := e.cfg.physicsDepth()
	eligible := make(map[string]struct{})
	for path, entry := range e.nodeData {
		if len(path) != depth || len(entry.node.Meshes) == 0 {
			continue
		}
		if entry.worldPos.Sub(cam.Position).Len() > e.cfg.PhysicsRadius {
			continue
		}
		eligible[path] = struct{}{}
	}

	for path := range e.colliders {
		if _, ok := eligible[path]; ok {
			continue
		}
		delete(e.colliders, path)
		e.physics.DestroyCollider(path)
	}

	for path := range eligible {
		if _, ok := e.colliders[path]; ok {
			continue
		}
		e.colliders[path] = struct{}{}
		e.physics.CreateCollider(bakeCollider(e.nodeData[path].node))
		e.log.Debug("collider created", zap.String("path", path))
	}
}

// bakeCollider builds collision geometry from a node's first mesh with the
// rotation and scale of the globe-from-mesh matrix applied to each vertex,
// leaving the body transform a pure translation.
func bakeCollider(node *rocktree.Node) *Collider {
	mesh := &node.Meshes[0]
	rot := node.MatrixGlobeFromMesh.Mat3()

	verts := make([]mgl64.Vec3, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		verts[i] = rot.Mul3x1(mgl64.Vec3{float64(v.X), float64(v.Y), float64(v.Z)})
	}

	indices := make([]uint16, len(mesh.Indices))
	copy(indices, mesh.Indices)

	return &Collider{
		Path:        node.Path,
		Vertices:    verts,
		Indices:     indices,
		Translation: translationOf(node),
	}
}

// translationOf extracts the world-space origin of a node's mesh frame.
func translationOf(node *rocktree.Node) mgl64.Vec3 {
	return node.MatrixGlobeFromMesh.Col(3).Vec3()
}
