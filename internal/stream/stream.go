// Package stream implements the level-of-detail streaming engine: a
// single-threaded per-frame update that traverses the octree breadth-first
// under frustum and screen-space-error constraints, schedules bounded
// concurrent fetches, evicts stale data and maintains the physics collider
// subset.
//
// All engine state is owned by the frame loop. Fetch tasks run as goroutines
// and report back exclusively through buffered result channels; they never
// touch engine state.
package stream

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"rocktree/internal/metrics"
	"rocktree/pkg/geom"
	"rocktree/pkg/rocktree"
)

// Camera is the per-frame camera state the engine consumes.
type Camera struct {
	Position       mgl64.Vec3
	ViewProjection mgl64.Mat4
	FovY           float64 // vertical field of view, radians
	ScreenHeight   float64 // pixels
}

// Fetcher is the transport the engine schedules loads against.
type Fetcher interface {
	Bulk(ctx context.Context, path string, epoch uint32) (*rocktree.BulkMetadata, error)
	Node(ctx context.Context, meta *rocktree.NodeMetadata) (*rocktree.Node, error)
}

// Renderer consumes node load/unload events. The engine is the sole owner of
// the bookkeeping; renderers only react.
type Renderer interface {
	NodeLoaded(node *rocktree.Node)
	NodeUnloaded(path string)
}

// Collider is the data handed to the physics collaborator for one terrain
// node: vertex positions with the node's rotation and scale baked in, so the
// body transform is a pure translation.
type Collider struct {
	Path        string
	Vertices    []mgl64.Vec3
	Indices     []uint16
	Translation mgl64.Vec3
}

// Physics consumes collider create/destroy events at the fixed physics depth.
type Physics interface {
	CreateCollider(c *Collider)
	DestroyCollider(path string)
}

// Spawner starts a fire-and-forget task. The default spawns a goroutine;
// tests may run tasks synchronously.
type Spawner func(func())

// Config bounds the engine's fetch concurrency and physics interest window.
type Config struct {
	MaxNodeFetches int     // concurrent node fetch cap
	MaxBulkFetches int     // concurrent bulk fetch cap
	MaxDepth       int     // deepest octree level the protocol serves
	PhysicsOffset  int     // collider depth = MaxDepth - PhysicsOffset
	PhysicsRadius  float64 // meters from camera within which colliders exist
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		MaxNodeFetches: 20,
		MaxBulkFetches: 10,
		MaxDepth:       21,
		PhysicsOffset:  2,
		PhysicsRadius:  500,
	}
}

func (c Config) physicsDepth() int {
	return c.MaxDepth - c.PhysicsOffset
}

type bulkResult struct {
	path string
	bulk *rocktree.BulkMetadata
	err  error
}

type nodeResult struct {
	path string
	node *rocktree.Node
	err  error
}

// bulkEntry pairs cached bulk metadata with its per-path node index.
type bulkEntry struct {
	meta  *rocktree.BulkMetadata
	nodes map[string]*rocktree.NodeMetadata // full path -> metadata
}

// nodeEntry is a cached node payload plus the derived world translation.
type nodeEntry struct {
	node     *rocktree.Node
	worldPos mgl64.Vec3
}

// Engine is the streaming engine. Not safe for concurrent use: Update must
// be called from a single frame loop.
type Engine struct {
	cfg       Config
	fetcher   Fetcher
	renderer  Renderer
	physics   Physics
	planetoid *rocktree.Planetoid
	log       *zap.Logger
	spawn     Spawner
	ctx       context.Context

	bulks        map[string]*bulkEntry
	loadingBulks map[string]struct{}
	failedBulks  map[string]struct{}

	loadedNodes  map[string]struct{}
	loadingNodes map[string]struct{}
	nodeData     map[string]*nodeEntry
	obbCache     map[string]geom.OBB

	colliders map[string]struct{}

	bulkResults chan bulkResult
	nodeResults chan nodeResult
}

// New returns an engine rooted at the given planetoid. renderer and physics
// may be nil when the respective collaborator is absent.
func New(ctx context.Context, cfg Config, fetcher Fetcher, planetoid *rocktree.Planetoid, renderer Renderer, physics Physics, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		fetcher:   fetcher,
		renderer:  renderer,
		physics:   physics,
		planetoid: planetoid,
		log:       log,
		spawn:     func(f func()) { go f() },
		ctx:       ctx,

		bulks:        make(map[string]*bulkEntry),
		loadingBulks: make(map[string]struct{}),
		failedBulks:  make(map[string]struct{}),
		loadedNodes:  make(map[string]struct{}),
		loadingNodes: make(map[string]struct{}),
		nodeData:     make(map[string]*nodeEntry),
		obbCache:     make(map[string]geom.OBB),
		colliders:    make(map[string]struct{}),

		bulkResults: make(chan bulkResult, cfg.MaxBulkFetches),
		nodeResults: make(chan nodeResult, cfg.MaxNodeFetches),
	}
}

// SetSpawner overrides how fetch tasks are started.
func (e *Engine) SetSpawner(s Spawner) {
	e.spawn = s
}

// Stats is a point-in-time snapshot of engine occupancy.
type Stats struct {
	LoadedNodes  int
	LoadingNodes int
	CachedBulks  int
	LoadingBulks int
	FailedBulks  int
	CachedNodes  int
	Colliders    int
}

// Stats returns current engine occupancy.
func (e *Engine) Stats() Stats {
	return Stats{
		LoadedNodes:  len(e.loadedNodes),
		LoadingNodes: len(e.loadingNodes),
		CachedBulks:  len(e.bulks),
		LoadingBulks: len(e.loadingBulks),
		FailedBulks:  len(e.failedBulks),
		CachedNodes:  len(e.nodeData),
		Colliders:    len(e.colliders),
	}
}

// OBB returns the cached bounding box for a path, if discovered.
func (e *Engine) OBB(path string) (geom.OBB, bool) {
	obb, ok := e.obbCache[path]
	return obb, ok
}

// Node returns the cached payload for a path, if retained.
func (e *Engine) Node(path string) (*rocktree.Node, bool) {
	entry, ok := e.nodeData[path]
	if !ok {
		return nil, false
	}
	return entry.node, true
}

// Update runs one frame: poll completed fetches, traverse the octree from
// the camera, merge discovered bounds, evict stale data, maintain physics
// colliders and issue new loads. The order is fixed; see the package doc.
func (e *Engine) Update(cam Camera) {
	e.drainResults()

	tr := e.traverse(cam)

	for path, obb := range tr.obbs {
		e.obbCache[path] = obb
	}

	e.unloadObsolete(cam, tr)
	e.updateColliders(cam)
	e.issueLoads(tr)

	e.publishMetrics()
}

func (e *Engine) publishMetrics() {
	metrics.LoadedNodes.Set(float64(len(e.loadedNodes)))
	metrics.LoadingNodes.Set(float64(len(e.loadingNodes)))
	metrics.CachedBulks.Set(float64(len(e.bulks)))
	metrics.FailedBulks.Set(float64(len(e.failedBulks)))
	metrics.PhysicsColliders.Set(float64(len(e.colliders)))
}
