package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"rocktree/pkg/rocktree"
)

// writeOBJ exports every mesh of a node as one Wavefront OBJ object, with
// vertex positions in world space and texture coordinates mapped through
// each mesh's UV transform.
func writeOBJ(path string, node *rocktree.Node) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# rocktree node %s\n", node.Path)

	offset := 1 // OBJ indices are 1-based
	for mi := range node.Meshes {
		mesh := &node.Meshes[mi]
		fmt.Fprintf(w, "o node_%s_mesh_%d\n", node.Path, mi)

		for _, v := range mesh.Vertices {
			pos := node.MatrixGlobeFromMesh.Mul4x1(mgl64.Vec4{
				float64(v.X), float64(v.Y), float64(v.Z), 1,
			})
			fmt.Fprintf(w, "v %.6f %.6f %.6f\n", pos.X(), pos.Y(), pos.Z())
		}

		uv := mesh.UvTransform
		for _, v := range mesh.Vertices {
			u := (float64(v.U) + float64(uv.OffsetU)) * float64(uv.ScaleU)
			t := (float64(v.V) + float64(uv.OffsetV)) * float64(uv.ScaleV)
			fmt.Fprintf(w, "vt %.6f %.6f\n", u, t)
		}

		for i := 0; i+2 < len(mesh.Indices); i += 3 {
			a := int(mesh.Indices[i]) + offset
			b := int(mesh.Indices[i+1]) + offset
			c := int(mesh.Indices[i+2]) + offset
			fmt.Fprintf(w, "f %d/%d %d/%d %d/%d\n", a, a, b, b, c, c)
		}

		offset += len(mesh.Vertices)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
