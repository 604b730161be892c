// Package ruby builds resolved trees from Ruby source using tree-sitter.
package ruby

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sitter "github.com/tree-sitter/go-tree-sitter"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"

	"github.com/mvp-joe/propscan/internal/autogen/tree"
)

// PackageFileName is the file whose top-level classes belong to the package
// registry rather than to the program's namespace.
const PackageFileName = "__package.rb"

// ErrParseFailed is returned when tree-sitter produces no tree at all.
var ErrParseFailed = errors.New("failed to parse ruby source")

// Parser converts Ruby files into tree.ParsedFile values. It is safe for
// concurrent use; each call creates its own tree-sitter parser.
type Parser struct {
	language *sitter.Language
}

// NewParser creates a Ruby parser.
func NewParser() *Parser {
	return &Parser{
		language: sitter.NewLanguage(ruby.Language()),
	}
}

// ParseFile reads and parses a Ruby source file.
func (p *Parser) ParseFile(ctx context.Context, filePath string) (*tree.ParsedFile, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, filePath, source)
}

// Parse parses source as the contents of filePath. Syntax errors inside an
// otherwise parsed file are tolerated; the affected region becomes opaque
// expressions.
func (p *Parser) Parse(ctx context.Context, filePath string, source []byte) (*tree.ParsedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to set ruby language: %w", err)
	}

	st := parser.Parse(source, nil)
	if st == nil {
		return nil, fmt.Errorf("%w: %s", ErrParseFailed, filePath)
	}
	defer st.Close()

	c := newConverter(filePath, source, filepath.Base(filePath) == PackageFileName)
	root := st.RootNode()

	c.name(root, c.topLexical())
	nodes := c.statements(root, c.topEnv())

	return &tree.ParsedFile{
		File:    filePath,
		Source:  source,
		Tree:    nodes,
		Symbols: c.symbols,
	}, nil
}
