package main

import (
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"rocktree/internal/stream"
)

// waypoint is one keyframe of a camera script: where the camera sits, what it
// looks at, and how many frames the flight to the next waypoint takes.
type waypoint struct {
	Position [3]float64 `yaml:"position"`
	Target   [3]float64 `yaml:"target"`
	Frames   int        `yaml:"frames"`
}

// flight drives the camera along a waypoint script, looping when it runs out.
type flight struct {
	waypoints []waypoint
	fovY      float64
	screenH   float64
	nearFar   [2]float64

	segment int
	frame   int
}

// loadFlight reads a YAML waypoint script. An empty path yields a default
// descent over the prime meridian from high orbit.
func loadFlight(path string, fovYDegrees, screenHeight float64) (*flight, error) {
	f := &flight{
		fovY:    fovYDegrees * math.Pi / 180,
		screenH: screenHeight,
		nearFar: [2]float64{1, 1e8},
	}

	if path == "" {
		f.waypoints = defaultDescent()
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading camera script %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f.waypoints); err != nil {
		return nil, fmt.Errorf("parsing camera script %s: %w", path, err)
	}
	if len(f.waypoints) < 2 {
		return nil, fmt.Errorf("camera script %s: need at least 2 waypoints", path)
	}
	for i := range f.waypoints {
		if f.waypoints[i].Frames <= 0 {
			f.waypoints[i].Frames = 60
		}
	}
	return f, nil
}

// defaultDescent flies from 20000 km above the equator down to 10 km.
func defaultDescent() []waypoint {
	const r = 6371010 // mean Earth radius, meters
	return []waypoint{
		{Position: [3]float64{r + 2e7, 0, 0}, Target: [3]float64{0, 0, 0}, Frames: 300},
		{Position: [3]float64{r + 1e6, 0, 0}, Target: [3]float64{0, 0, 0}, Frames: 300},
		{Position: [3]float64{r + 1e4, 0, 0}, Target: [3]float64{r, 0, 1e4}, Frames: 300},
	}
}

// Step advances one frame and returns the camera for it.
func (f *flight) Step() stream.Camera {
	a := f.waypoints[f.segment]
	b := f.waypoints[(f.segment+1)%len(f.waypoints)]

	t := float64(f.frame) / float64(a.Frames)
	pos := lerp3(a.Position, b.Position, t)
	target := lerp3(a.Target, b.Target, t)

	f.frame++
	if f.frame >= a.Frames {
		f.frame = 0
		f.segment = (f.segment + 1) % len(f.waypoints)
	}

	return f.camera(pos, target)
}

func (f *flight) camera(pos, target mgl64.Vec3) stream.Camera {
	up := pos.Normalize()
	forward := target.Sub(pos)
	// Degenerate up/forward pairs fall back to a fixed up axis.
	if forward.Len() < 1e-9 || forward.Normalize().Cross(up).Len() < 1e-9 {
		up = mgl64.Vec3{0, 0, 1}
	}

	view := mgl64.LookAtV(pos, target, up)
	proj := mgl64.Perspective(f.fovY, 16.0/9.0, f.nearFar[0], f.nearFar[1])

	return stream.Camera{
		Position:       pos,
		ViewProjection: proj.Mul4(view),
		FovY:           f.fovY,
		ScreenHeight:   f.screenH,
	}
}

func lerp3(a, b [3]float64, t float64) mgl64.Vec3 {
	return mgl64.Vec3{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}
