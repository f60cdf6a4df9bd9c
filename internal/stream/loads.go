package stream

import (
	"go.uber.org/zap"

	"rocktree/pkg/rocktree"
)

// issueLoads starts fetch tasks for this frame's queued nodes and bulks,
// bounded by the two independent concurrency caps. Render-wanted nodes are
// issued before physics-only nodes; whatever misses the cap is simply
// reconsidered next frame.
func (e *Engine) issueLoads(tr *traversal) {
	e.queueNodes(tr, tr.renderNodes, false)
	e.queueNodes(tr, tr.physicsNodes, true)

	for _, req := range tr.bulkQueue {
		if len(e.loadingBulks) >= e.cfg.MaxBulkFetches {
			break
		}
		if _, ok := e.loadingBulks[req.path]; ok {
			continue
		}

		req := req
		e.loadingBulks[req.path] = struct{}{}
		e.spawn(func() {
			bulk, err := e.fetcher.Bulk(e.ctx, req.path, req.epoch)
			e.bulkResults <- bulkResult{path: req.path, bulk: bulk, err: err}
		})
	}
}

// queueNodes starts node fetches until the cap is hit. Physics-only nodes
// additionally skip paths whose payload is already cached.
func (e *Engine) queueNodes(tr *traversal, paths []string, physicsOnly bool) {
	for _, path := range paths {
		if len(e.loadingNodes) >= e.cfg.MaxNodeFetches {
			break
		}
		if _, ok := e.loadedNodes[path]; ok {
			continue
		}
		if _, ok := e.loadingNodes[path]; ok {
			continue
		}
		if _, ok := e.nodeData[path]; ok && physicsOnly {
			continue
		}

		path := path
		meta := tr.wantedMeta[path]
		e.loadingNodes[path] = struct{}{}
		e.spawn(func() {
			node, err := e.fetcher.Node(e.ctx, meta)
			e.nodeResults <- nodeResult{path: path, node: node, err: err}
		})
	}
}

// drainResults applies every currently available fetch result without
// blocking. Results may arrive in any completion order, possibly frames
// after they were issued.
func (e *Engine) drainResults() {
	for {
		select {
		case res := <-e.bulkResults:
			e.applyBulkResult(res)
		default:
			goto nodes
		}
	}

nodes:
	for {
		select {
		case res := <-e.nodeResults:
			e.applyNodeResult(res)
		default:
			return
		}
	}
}

func (e *Engine) applyBulkResult(res bulkResult) {
	delete(e.loadingBulks, res.path)

	if res.err != nil {
		// Sticky: a failed bulk is not retried until it is evicted from
		// interest and re-discovered.
		e.failedBulks[res.path] = struct{}{}
		e.log.Warn("bulk load failed",
			zap.String("path", res.path),
			zap.Error(res.err))
		return
	}

	e.bulks[res.path] = newBulkEntry(res.bulk)
	e.log.Debug("bulk loaded",
		zap.String("path", res.path),
		zap.Int("nodes", len(res.bulk.Nodes)),
		zap.Int("child_bulks", len(res.bulk.ChildBulkPaths)))
}

func (e *Engine) applyNodeResult(res nodeResult) {
	delete(e.loadingNodes, res.path)

	if res.err != nil {
		// Not sticky: the path stays eligible for the next traversal that
		// still wants it.
		e.log.Debug("node load failed",
			zap.String("path", res.path),
			zap.Error(res.err))
		return
	}

	e.loadedNodes[res.path] = struct{}{}
	e.nodeData[res.path] = &nodeEntry{
		node:     res.node,
		worldPos: translationOf(res.node),
	}
	if e.renderer != nil {
		e.renderer.NodeLoaded(res.node)
	}
	e.log.Debug("node loaded",
		zap.String("path", res.path),
		zap.Int("meshes", len(res.node.Meshes)))
}

func newBulkEntry(bulk *rocktree.BulkMetadata) *bulkEntry {
	entry := &bulkEntry{
		meta:  bulk,
		nodes: make(map[string]*rocktree.NodeMetadata, len(bulk.Nodes)),
	}
	for i := range bulk.Nodes {
		entry.nodes[bulk.Nodes[i].Path] = &bulk.Nodes[i]
	}
	return entry
}
