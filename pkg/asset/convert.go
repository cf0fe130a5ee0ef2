// Package asset turns binary glTF models into compressed, self-contained
// glTF documents ready for the storefront.
//
// A Pipeline runs two steps per file. The Converter rewrites x.glb as
// x.gltf with every buffer embedded. A Compressor then writes x-draco.gltf;
// if it fails, the converted file is copied there unchanged and the result
// is marked as a Fallback rather than an error.
package asset

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
)

const (
	glbMagic   = 0x46546C67 // "glTF"
	glbVersion = 2
	glbHeader  = 12
)

// Converter rewrites binary glTF containers as embedded glTF documents.
type Converter struct{}

// ConvertedPath is the sibling .gltf path for in.
func ConvertedPath(in string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + ".gltf"
}

// Convert writes the .gltf equivalent of the GLB at in and returns its path.
// A missing or malformed input yields a *ParseError and writes nothing.
func (Converter) Convert(ctx context.Context, in string) (string, error) {
	if err := checkGLB(in); err != nil {
		return "", &ParseError{Path: in, Err: err}
	}
	doc, err := gltf.Open(in)
	if err != nil {
		return "", &ParseError{Path: in, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	embedBuffers(doc)

	out := ConvertedPath(in)
	if err := writeDocument(out, doc); err != nil {
		return "", err
	}
	return out, nil
}

func checkGLB(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var hdr [glbHeader]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return fmt.Errorf("%w: short header", ErrNotGLB)
	}
	if binary.LittleEndian.Uint32(hdr[0:]) != glbMagic {
		return fmt.Errorf("%w: bad magic", ErrNotGLB)
	}
	if v := binary.LittleEndian.Uint32(hdr[4:]); v != glbVersion {
		return fmt.Errorf("%w: version %d", ErrNotGLB, v)
	}

	st, err := f.Stat()
	if err != nil {
		return err
	}
	if n := int64(binary.LittleEndian.Uint32(hdr[8:])); n > st.Size() {
		return fmt.Errorf("%w: declared length %d exceeds file size %d", ErrNotGLB, n, st.Size())
	}
	return nil
}

// writeDocument encodes doc as JSON glTF into a temp file next to path and
// renames it into place.
func writeDocument(path string, doc *gltf.Document) error {
	return writeAtomic(path, func(w io.Writer) error {
		enc := gltf.NewEncoder(w)
		enc.AsBinary = false
		return enc.Encode(doc)
	})
}

func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("asset: create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("asset: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("asset: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("asset: rename %s: %w", path, err)
	}
	return nil
}
