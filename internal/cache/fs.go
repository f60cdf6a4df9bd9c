package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// FS is a filesystem-backed Cache. Entries are stored one file per key,
// named by the SHA-256 of the key, optionally gzip-compressed.
type FS struct {
	dir      string
	compress bool
}

// NewFS returns a filesystem cache rooted at dir, creating it if needed.
func NewFS(dir string, compress bool) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrCache, dir, err)
	}
	return &FS{dir: dir, compress: compress}, nil
}

func (f *FS) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	ext := ".bin"
	if f.compress {
		ext = ".gz"
	}
	return filepath.Join(f.dir, hex.EncodeToString(sum[:])+ext)
}

// Get reads, and if needed decompresses, the entry for key.
func (f *FS) Get(_ context.Context, key string) ([]byte, bool, error) {
	raw, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %v", ErrCache, key, err)
	}
	if !f.compress {
		return raw, true, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %v", ErrCache, key, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %v", ErrCache, key, err)
	}
	return data, true, nil
}

// Put writes the entry for key.
func (f *FS) Put(_ context.Context, key string, data []byte) error {
	var buf bytes.Buffer
	if f.compress {
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("%w: put %s: %v", ErrCache, key, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("%w: put %s: %v", ErrCache, key, err)
		}
	} else {
		buf.Write(data)
	}

	// Write-then-rename keeps concurrent readers from seeing partial files.
	tmp, err := os.CreateTemp(f.dir, "put-*")
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrCache, key, err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: put %s: %v", ErrCache, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: put %s: %v", ErrCache, key, err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: put %s: %v", ErrCache, key, err)
	}
	return nil
}

// Contains reports whether an entry file exists for key.
func (f *FS) Contains(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(f.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: contains %s: %v", ErrCache, key, err)
	}
	return true, nil
}

// Remove deletes the entry file for key.
func (f *FS) Remove(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove %s: %v", ErrCache, key, err)
	}
	return nil
}

// Clear deletes every entry file in the cache directory.
func (f *FS) Clear(context.Context) error {
	for _, pattern := range []string{"*.gz", "*.bin"} {
		matches, err := filepath.Glob(filepath.Join(f.dir, pattern))
		if err != nil {
			return fmt.Errorf("%w: clear: %v", ErrCache, err)
		}
		for _, m := range matches {
			if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("%w: clear: %v", ErrCache, err)
			}
		}
	}
	return nil
}
