// Package dsl extracts property-declaration facts from resolved Ruby files.
//
// For every class or module the walk records its qualified name, statically
// known ancestors, declared properties (prop, token_prop, created_prop, ...),
// an optional model reference and the locations of recognized declarations
// that could not be interpreted. Analysis never fails: unusual declarations
// become problem locations.
package dsl

import (
	"hash/crc32"

	"github.com/mvp-joe/propscan/internal/autogen/tree"
)

// Checksummer computes the checksum recorded for a file's source bytes.
type Checksummer interface {
	Checksum(src []byte) uint32
}

// CRC32 checksums with the IEEE polynomial.
type CRC32 struct{}

func (CRC32) Checksum(src []byte) uint32 {
	return crc32.ChecksumIEEE(src)
}

// Options configures Generate.
type Options struct {
	ScopeMode ScopeMode
}

// Generate walks pf and returns its FileRecord. A nil checksummer uses CRC32.
func Generate(pf *tree.ParsedFile, checksummer Checksummer, opts Options) FileRecord {
	if checksummer == nil {
		checksummer = CRC32{}
	}
	mode := opts.ScopeMode
	if mode == "" {
		mode = ScopeFrames
	}

	w := newWalker(pf.Symbols, pf.File, mode)
	tree.Walk(pf.Tree, w)

	return FileRecord{
		Classes:    w.classes,
		SourceFile: pf.File,
		Checksum:   checksummer.Checksum(pf.Source),
	}
}
