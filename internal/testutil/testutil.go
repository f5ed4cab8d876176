// Package testutil builds on-disk fixtures for tests: encrypted packages,
// loose files, and encoded images.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/meigma/assetpack/anim"
	"github.com/meigma/assetpack/apng"
	"github.com/meigma/assetpack/archive"
)

// File is one named payload for a fixture package.
type File struct {
	Name string
	Data []byte
}

// WritePackage writes files as a package at dir/rel, creating parent
// directories, and returns its path.
func WritePackage(tb testing.TB, dir, rel string, files ...File) string {
	tb.Helper()

	var buf bytes.Buffer
	w := archive.NewWriter(&buf)
	for _, f := range files {
		if err := w.Add(f.Name, f.Data); err != nil {
			tb.Fatalf("add %s: %v", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		tb.Fatalf("close package: %v", err)
	}

	path := filepath.Join(dir, filepath.FromSlash(rel))
	WriteFile(tb, path, buf.Bytes())
	return path
}

// WriteLoose writes data as a loose file named name under root.
func WriteLoose(tb testing.TB, root, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	WriteFile(tb, path, data)
	return path
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(tb testing.TB, path string, data []byte) {
	tb.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
}

// SolidPNG encodes a w x h PNG filled with c.
func SolidPNG(tb testing.TB, w, h int, c color.NRGBA) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, imaging.New(w, h, c)); err != nil {
		tb.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// Frame describes a solid-colored animation frame for APNG fixtures.
type Frame struct {
	Bounds  image.Rectangle
	Color   color.NRGBA
	Delay   time.Duration
	Dispose anim.DisposeOp
	Blend   anim.BlendOp
}

// APNG encodes frames on a w x h canvas. The first frame must cover the
// canvas.
func APNG(tb testing.TB, w, h int, loops uint, frames ...Frame) []byte {
	tb.Helper()
	out := make([]anim.Frame, len(frames))
	for i, f := range frames {
		out[i] = anim.Frame{
			Bounds:  f.Bounds,
			Delay:   f.Delay,
			Dispose: f.Dispose,
			Blend:   f.Blend,
			Image:   imaging.New(f.Bounds.Dx(), f.Bounds.Dy(), f.Color),
		}
	}
	var buf bytes.Buffer
	if err := apng.Encode(&buf, w, h, out, loops); err != nil {
		tb.Fatalf("encode apng: %v", err)
	}
	return buf.Bytes()
}
