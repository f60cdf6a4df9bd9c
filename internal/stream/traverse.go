package stream

import (
	"rocktree/pkg/geom"
	"rocktree/pkg/rocktree"
)

// bulkRequest queues one bulk metadata fetch.
type bulkRequest struct {
	path  string
	epoch uint32
}

// traversal is the read-only result of one frame's breadth-first walk. It is
// merged into engine state only after the walk completes.
type traversal struct {
	// renderNodes are potentially visible nodes with data, in BFS order
	// (coarse before fine). physicsNodes are wanted only for colliders.
	renderNodes  []string
	physicsNodes []string
	wantedMeta   map[string]*rocktree.NodeMetadata

	// potentialBulks are bulk paths still interesting this frame; cached
	// bulks outside this set are evicted.
	potentialBulks map[string]struct{}
	bulkQueue      []bulkRequest

	// obbs are bounding boxes discovered this frame, cached even for
	// frustum-pruned nodes.
	obbs map[string]geom.OBB
}

type frontierEntry struct {
	path    string
	bulkKey string
}

// traverse walks the octree breadth-first from the root, bounded by the
// frustum and the screen-space-error refinement test, collecting nodes and
// bulks to load. It reads engine state but never mutates it.
func (e *Engine) traverse(cam Camera) *traversal {
	tr := &traversal{
		wantedMeta:     make(map[string]*rocktree.NodeMetadata),
		potentialBulks: make(map[string]struct{}),
		obbs:           make(map[string]geom.OBB),
	}

	tr.potentialBulks[""] = struct{}{}
	if _, ok := e.bulks[""]; !ok {
		// Root bulk is seeded lazily on first traversal.
		if !e.bulkQueuedOrFailed("") {
			tr.bulkQueue = append(tr.bulkQueue, bulkRequest{path: "", epoch: e.planetoid.RootEpoch})
		}
		return tr
	}

	frustum := geom.FrustumFromMatrix(cam.ViewProjection)
	lod := geom.LodMetrics{
		CameraPos:    cam.Position,
		FovY:         cam.FovY,
		ScreenHeight: cam.ScreenHeight,
	}
	physicsDepth := e.cfg.physicsDepth()

	frontier := []frontierEntry{{path: "", bulkKey: ""}}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		bulkKey := cur.bulkKey
		bulk := e.bulks[bulkKey]

		// A path four levels below its bulk head crosses into a child bulk.
		if n := len(cur.path); n > 0 && n%4 == 0 {
			rel := cur.path[n-4:]
			epoch, isChild := bulk.meta.ChildBulkPaths[rel]
			if !isChild {
				continue
			}
			bulkKey = cur.path
			tr.potentialBulks[bulkKey] = struct{}{}

			child, cached := e.bulks[bulkKey]
			if !cached {
				if !e.bulkQueuedOrFailed(bulkKey) {
					tr.bulkQueue = append(tr.bulkQueue, bulkRequest{path: bulkKey, epoch: epoch})
				}
				continue // expand no further until the bulk arrives
			}
			bulk = child
		}

		for digit := byte('0'); digit <= '7'; digit++ {
			childPath := cur.path + string(digit)
			meta, ok := bulk.nodes[childPath]
			if !ok {
				continue
			}

			// Discovered bounds are cached even for pruned nodes; the
			// renderer uses them for its own visibility toggling.
			tr.obbs[childPath] = meta.OBB

			// Collider interest ignores the frustum and the refine test:
			// terrain behind the camera still needs collision.
			if e.physics != nil && meta.HasData && len(childPath) == physicsDepth &&
				meta.OBB.DistanceTo(cam.Position) <= e.cfg.PhysicsRadius {
				tr.physicsNodes = append(tr.physicsNodes, childPath)
				tr.wantedMeta[childPath] = meta
			}

			if !frustum.IntersectsOBB(&meta.OBB) {
				continue
			}

			if meta.HasData {
				tr.renderNodes = append(tr.renderNodes, childPath)
				tr.wantedMeta[childPath] = meta
			}

			// Refinement gates descent only; coarser ancestors stay
			// potentially visible as fallback while children stream in.
			if lod.ShouldRefine(&meta.OBB, float64(meta.MetersPerTexel)) {
				frontier = append(frontier, frontierEntry{path: childPath, bulkKey: bulkKey})
			}
		}
	}

	return tr
}

func (e *Engine) bulkQueuedOrFailed(path string) bool {
	if _, loading := e.loadingBulks[path]; loading {
		return true
	}
	_, failed := e.failedBulks[path]
	return failed
}
