// Package client fetches and decodes rocktree protocol resources over HTTPS,
// consulting a pluggable byte cache before touching the network.
package client

import "fmt"

// DefaultBaseURL is the production rocktree endpoint.
const DefaultBaseURL = "https://kh.google.com/rt/earth/"

// PlanetoidURL returns the planetoid metadata URL (no parameters).
func PlanetoidURL(base string) string {
	return base + "PlanetoidMetadata"
}

// BulkURL returns the bulk metadata URL for a path and epoch. The root bulk
// has the empty path.
func BulkURL(base, path string, epoch uint32) string {
	return fmt.Sprintf("%sBulkMetadata/pb=!1m2!1s%s!2u%d", base, path, epoch)
}

// NodeURL returns the node data URL for a path, epoch and texture format,
// with an optional imagery epoch segment.
func NodeURL(base, path string, epoch uint32, textureFormat int32, imageryEpoch uint32, hasImageryEpoch bool) string {
	if hasImageryEpoch {
		return fmt.Sprintf("%sNodeData/pb=!1m2!1s%s!2u%d!2e%d!3u%d!4b0", base, path, epoch, textureFormat, imageryEpoch)
	}
	return fmt.Sprintf("%sNodeData/pb=!1m2!1s%s!2u%d!2e%d!4b0", base, path, epoch, textureFormat)
}
