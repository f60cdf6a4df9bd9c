package client

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"rocktree/internal/cache"
	"rocktree/pkg/decode"
	"rocktree/pkg/rocktree"
)

func TestPlanetoidURL(t *testing.T) {
	got := PlanetoidURL("https://example.com/rt/earth/")
	assert.Equal(t, "https://example.com/rt/earth/PlanetoidMetadata", got)
}

func TestBulkURL(t *testing.T) {
	got := BulkURL(DefaultBaseURL, "", 897)
	assert.Equal(t, "https://kh.google.com/rt/earth/BulkMetadata/pb=!1m2!1s!2u897", got)

	got = BulkURL(DefaultBaseURL, "0123", 42)
	assert.Equal(t, "https://kh.google.com/rt/earth/BulkMetadata/pb=!1m2!1s0123!2u42", got)
}

func TestNodeURL(t *testing.T) {
	got := NodeURL(DefaultBaseURL, "02", 7, 6, 0, false)
	assert.Equal(t, "https://kh.google.com/rt/earth/NodeData/pb=!1m2!1s02!2u7!2e6!4b0", got)

	got = NodeURL(DefaultBaseURL, "02", 7, 1, 334, true)
	assert.Equal(t, "https://kh.google.com/rt/earth/NodeData/pb=!1m2!1s02!2u7!2e1!3u334!4b0", got)
}

// Payload builders mirroring the frozen wire schema.

func msgField(dst []byte, num protowire.Number, body []byte) []byte {
	dst = protowire.AppendTag(dst, num, protowire.BytesType)
	return protowire.AppendBytes(dst, body)
}

func varintField(dst []byte, num protowire.Number, v uint64) []byte {
	dst = protowire.AppendTag(dst, num, protowire.VarintType)
	return protowire.AppendVarint(dst, v)
}

func floatField(dst []byte, num protowire.Number, v float32) []byte {
	dst = protowire.AppendTag(dst, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(dst, math.Float32bits(v))
}

func doubleField(dst []byte, num protowire.Number, v float64) []byte {
	dst = protowire.AppendTag(dst, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(dst, math.Float64bits(v))
}

func planetoidPayload(radius float32, rootEpoch uint32) []byte {
	meta := varintField(nil, 2, uint64(rootEpoch))
	buf := msgField(nil, 1, meta)
	return floatField(buf, 2, radius)
}

func bulkPayload(epoch uint32) []byte {
	head := varintField(nil, 2, uint64(epoch))
	buf := msgField(nil, 1, head)
	for _, c := range [3]float64{1, 2, 3} {
		buf = doubleField(buf, 5, c)
	}
	buf = floatField(buf, 6, 100)

	obb := make([]byte, 15)
	obb[6], obb[7], obb[8] = 1, 1, 1
	node := varintField(nil, 1, uint64(decode.PackPathAndFlags("2", 0)))
	node = msgField(node, 3, obb)
	return msgField(buf, 2, node)
}

func nodePayload() []byte {
	// One mesh over three vertices forming a single triangle.
	verts := make([]byte, 9)
	verts[1], verts[2] = 1, 1
	verts[4], verts[5] = 1, 1
	verts[7], verts[8] = 1, 1

	tex := make([]byte, 4+12)
	tex[0], tex[2] = 255, 255

	idx := decode.AppendVarint(nil, 3)
	for i := 0; i < 3; i++ {
		idx = decode.AppendVarint(idx, 0)
	}

	mesh := msgField(nil, 1, verts)
	mesh = msgField(mesh, 3, tex)
	mesh = msgField(mesh, 4, idx)

	var buf []byte
	for i := 0; i < 16; i++ {
		v := 0.0
		if i%5 == 0 {
			v = 1
		}
		buf = doubleField(buf, 2, v)
	}
	return msgField(buf, 3, mesh)
}

// newTestServer serves canned payloads for every resource kind and counts
// requests per endpoint.
func newTestServer(t *testing.T, hits *int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		switch {
		case r.URL.Path == "/PlanetoidMetadata":
			w.Write(planetoidPayload(6371010, 897))
		case strings.HasPrefix(r.URL.Path, "/BulkMetadata/"):
			w.Write(bulkPayload(897))
		case strings.HasPrefix(r.URL.Path, "/NodeData/"):
			w.Write(nodePayload())
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientPlanetoid(t *testing.T) {
	var hits int64
	srv := newTestServer(t, &hits)
	cl := New(Options{BaseURL: srv.URL + "/"})

	p, err := cl.Planetoid(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 6371010, p.Radius, 1)
	assert.Equal(t, uint32(897), p.RootEpoch)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

func TestClientBulk(t *testing.T) {
	var hits int64
	srv := newTestServer(t, &hits)
	cl := New(Options{BaseURL: srv.URL + "/"})

	bulk, err := cl.Bulk(context.Background(), "", 897)
	require.NoError(t, err)
	assert.Equal(t, uint32(897), bulk.Epoch)
	require.Len(t, bulk.Nodes, 1)
	assert.Equal(t, "2", bulk.Nodes[0].Path)
	assert.True(t, bulk.Nodes[0].HasData)
}

func TestClientNode(t *testing.T) {
	var hits int64
	srv := newTestServer(t, &hits)
	cl := New(Options{BaseURL: srv.URL + "/"})

	meta := &rocktree.NodeMetadata{Path: "2", Epoch: 897, TextureFormat: 6}
	node, err := cl.Node(context.Background(), meta)
	require.NoError(t, err)
	assert.Equal(t, "2", node.Path)
	require.Len(t, node.Meshes, 1)
	assert.Len(t, node.Meshes[0].Vertices, 3)
	assert.Len(t, node.Meshes[0].Indices, 3)
}

func TestClientCacheThrough(t *testing.T) {
	var hits int64
	srv := newTestServer(t, &hits)
	cl := New(Options{
		BaseURL: srv.URL + "/",
		Cache:   cache.NewMemory(0),
	})

	ctx := context.Background()
	_, err := cl.Planetoid(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), atomic.LoadInt64(&hits))

	// Second fetch is served from the cache.
	p, err := cl.Planetoid(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(897), p.RootEpoch)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

func TestClientHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	cl := New(Options{BaseURL: srv.URL + "/"})

	_, err := cl.Planetoid(context.Background())
	assert.ErrorIs(t, err, ErrHTTPStatus)
}

func TestClientTransportError(t *testing.T) {
	// A server that is already closed refuses connections.
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	cl := New(Options{BaseURL: srv.URL + "/"})

	_, err := cl.Planetoid(context.Background())
	assert.ErrorIs(t, err, ErrHTTP)
}
