// rocktool is a CLI utility for inspecting rocktree protocol data: planetoid
// bootstrap, bulk metadata listings, node payload stats and OBJ export.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"rocktree/internal/client"
	"rocktree/pkg/rocktree"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "planetoid":
		cmdPlanetoid(args)
	case "bulk":
		cmdBulk(args)
	case "node":
		cmdNode(args)
	case "dump":
		cmdDump(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`rocktool - rocktree protocol inspection utility

Usage:
  rocktool <command> [options]

Commands:
  planetoid                    Show planetoid bootstrap metadata
  bulk [path]                  List the nodes of a bulk (root bulk by default)
  node <path>                  Show mesh statistics for a node
  dump <path> <output.obj>     Export a node's meshes as Wavefront OBJ

Options:
  -base-url <url>              Override the server base URL

Examples:
  rocktool planetoid
  rocktool bulk
  rocktool bulk 02040615
  rocktool node 020406150761
  rocktool dump 020406150761 node.obj`)
}

func newClient(fs *flag.FlagSet) *client.Client {
	baseURL := fs.Lookup("base-url").Value.String()
	return client.New(client.Options{BaseURL: baseURL})
}

func baseURLFlag(fs *flag.FlagSet) {
	fs.String("base-url", client.DefaultBaseURL, "Server base URL")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func cmdPlanetoid(args []string) {
	fs := flag.NewFlagSet("planetoid", flag.ExitOnError)
	baseURLFlag(fs)
	fs.Parse(args)

	cl := newClient(fs)
	planetoid, err := cl.Planetoid(context.Background())
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("Radius:     %.1f m\n", planetoid.Radius)
	fmt.Printf("Root epoch: %d\n", planetoid.RootEpoch)
}

func cmdBulk(args []string) {
	fs := flag.NewFlagSet("bulk", flag.ExitOnError)
	baseURLFlag(fs)
	limit := fs.Int("n", 0, "Limit output to N nodes (0 = all)")
	fs.Parse(args)

	path := ""
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	cl := newClient(fs)
	ctx := context.Background()

	planetoid, err := cl.Planetoid(ctx)
	if err != nil {
		fatalf("%v", err)
	}

	bulk, err := fetchBulk(ctx, cl, planetoid, path)
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("Bulk:        %q (epoch %d)\n", bulk.Path, bulk.Epoch)
	fmt.Printf("Nodes:       %d\n", len(bulk.Nodes))
	fmt.Printf("Child bulks: %d\n", len(bulk.ChildBulkPaths))
	fmt.Println()

	for i := range bulk.Nodes {
		if *limit > 0 && i >= *limit {
			fmt.Printf("... (%d more)\n", len(bulk.Nodes)-i)
			break
		}
		n := &bulk.Nodes[i]
		data := "-"
		if n.HasData {
			data = "data"
		}
		fmt.Printf("  %-16s epoch=%-6d mpt=%-10.2f fmt=%d %s\n",
			n.Path, n.Epoch, n.MetersPerTexel, n.TextureFormat, data)
	}
}

func cmdNode(args []string) {
	fs := flag.NewFlagSet("node", flag.ExitOnError)
	baseURLFlag(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rocktool node <path>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cl := newClient(fs)
	node, err := fetchNode(context.Background(), cl, path)
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("Node:   %s\n", node.Path)
	fmt.Printf("Meshes: %d\n", len(node.Meshes))
	for i := range node.Meshes {
		m := &node.Meshes[i]
		fmt.Printf("  mesh %d: %d vertices, %d triangles, texture %s %dx%d\n",
			i, len(m.Vertices), len(m.Indices)/3,
			m.TextureFormat, m.TextureWidth, m.TextureHeight)
	}
}

func cmdDump(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	baseURLFlag(fs)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: rocktool dump <path> <output.obj>")
		os.Exit(1)
	}
	path, out := fs.Arg(0), fs.Arg(1)

	cl := newClient(fs)
	node, err := fetchNode(context.Background(), cl, path)
	if err != nil {
		fatalf("%v", err)
	}

	if err := writeOBJ(out, node); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Wrote %s\n", out)
}

// fetchBulk walks the bulk chain from the root down to the bulk rooted at
// path, which must be a multiple of four levels deep.
func fetchBulk(ctx context.Context, cl *client.Client, planetoid *rocktree.Planetoid, path string) (*rocktree.BulkMetadata, error) {
	if len(path)%4 != 0 {
		return nil, fmt.Errorf("bulk path %q: length must be a multiple of 4", path)
	}

	bulk, err := cl.Bulk(ctx, "", planetoid.RootEpoch)
	if err != nil {
		return nil, err
	}

	for depth := 4; depth <= len(path); depth += 4 {
		prefix := path[:depth]
		rel := prefix[depth-4:]
		epoch, ok := bulk.ChildBulkPaths[rel]
		if !ok {
			return nil, fmt.Errorf("bulk %q has no child bulk %q", bulk.Path, rel)
		}
		bulk, err = cl.Bulk(ctx, prefix, epoch)
		if err != nil {
			return nil, err
		}
	}
	return bulk, nil
}

// fetchNode resolves the node's metadata through its owning bulk, then
// fetches and decodes the payload.
func fetchNode(ctx context.Context, cl *client.Client, path string) (*rocktree.Node, error) {
	if path == "" {
		return nil, fmt.Errorf("node path must not be empty")
	}

	planetoid, err := cl.Planetoid(ctx)
	if err != nil {
		return nil, err
	}

	bulkPath := path[:len(path)-len(path)%4]
	if len(path)%4 == 0 {
		// A node whose depth is a bulk boundary lives in its parent's bulk.
		bulkPath = path[:len(path)-4]
	}

	bulk, err := fetchBulk(ctx, cl, planetoid, bulkPath)
	if err != nil {
		return nil, err
	}

	meta := bulk.NodeByRelativePath(path[len(bulkPath):])
	if meta == nil {
		return nil, fmt.Errorf("bulk %q does not list node %q", bulkPath, path)
	}
	if !meta.HasData {
		return nil, fmt.Errorf("node %q has no mesh data", path)
	}

	return cl.Node(ctx, meta)
}
