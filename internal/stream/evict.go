package stream

import (
	"strings"

	"go.uber.org/zap"
)

// unloadObsolete releases state the current traversal no longer wants: nodes
// leave the renderer as soon as they drop out of the potentially visible set,
// cached payloads are swept unless a collider still needs them, and bulks
// outside the interest set are evicted together with the bounds they
// contributed. The root bulk is never evicted.
func (e *Engine) unloadObsolete(cam Camera, tr *traversal) {
	rendered := make(map[string]struct{}, len(tr.renderNodes))
	for _, path := range tr.renderNodes {
		rendered[path] = struct{}{}
	}

	for path := range e.loadedNodes {
		if _, ok := rendered[path]; ok {
			continue
		}
		delete(e.loadedNodes, path)
		if e.renderer != nil {
			e.renderer.NodeUnloaded(path)
		}
	}

	retained := e.physicsRetained(cam)
	for path := range e.nodeData {
		if _, ok := e.loadedNodes[path]; ok {
			continue
		}
		if _, ok := retained[path]; ok {
			continue
		}
		delete(e.nodeData, path)
	}

	for path := range e.bulks {
		if path == "" {
			continue
		}
		if _, ok := tr.potentialBulks[path]; ok {
			continue
		}
		e.evictBulk(path)
	}

	// A failed bulk becomes retryable once interest in it lapses.
	for path := range e.failedBulks {
		if _, ok := tr.potentialBulks[path]; !ok {
			delete(e.failedBulks, path)
		}
	}
}

// physicsRetained returns the cached payloads a collider may still be built
// from: nodes at the physics depth whose origin lies within the interest
// radius of the camera.
func (e *Engine) physicsRetained(cam Camera) map[string]struct{} {
	if e.physics == nil {
		return nil
	}
	depth := e.cfg.physicsDepth()
	retained := make(map[string]struct{})
	for path, entry := range e.nodeData {
		if len(path) != depth {
			continue
		}
		if entry.worldPos.Sub(cam.Position).Len() <= e.cfg.PhysicsRadius {
			retained[path] = struct{}{}
		}
	}
	return retained
}

// evictBulk drops a cached bulk and every bound it discovered. Bounds are
// matched by path prefix: the bulk owns the four levels below its head.
func (e *Engine) evictBulk(path string) {
	bulk := e.bulks[path]
	delete(e.bulks, path)

	for nodePath := range e.obbCache {
		if len(nodePath) > len(path) && strings.HasPrefix(nodePath, path) {
			delete(e.obbCache, nodePath)
		}
	}

	e.log.Debug("bulk evicted",
		zap.String("path", path),
		zap.Int("nodes", len(bulk.nodes)))
}
