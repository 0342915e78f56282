package core

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// Bundle packs the artifacts into a ZIP archive, one deflated entry per
// artifact under its name. Names must already be unique.
func Bundle(artifacts []ExportArtifact) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	modified := time.Now()
	for _, a := range artifacts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     a.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("bundle %q: %w", a.Name, err)
		}
		if _, err := w.Write(a.Data); err != nil {
			return nil, fmt.Errorf("bundle %q: %w", a.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

// UniqueNames renames artifacts whose names collide by adding _2, _3, ...
// before the extension. The first occurrence keeps its name.
func UniqueNames(artifacts []ExportArtifact) []ExportArtifact {
	out := make([]ExportArtifact, len(artifacts))
	used := make(map[string]bool, len(artifacts))
	for i, a := range artifacts {
		name := a.Name
		for n := 2; used[name]; n++ {
			name = suffixName(a.Name, n)
		}
		used[name] = true
		a.Name = name
		out[i] = a
	}
	return out
}

func suffixName(name string, n int) string {
	ext := path.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
}
