package dsl

import (
	"sort"
	"strings"

	"github.com/mvp-joe/propscan/internal/autogen/tree"
)

// QualifiedName is a constant path ordered from outermost to innermost.
type QualifiedName []string

// ParseQualifiedName splits "A::B::C" into its segments. A leading "::" is
// ignored since every qualified name is already rooted.
func ParseQualifiedName(s string) QualifiedName {
	s = strings.TrimPrefix(strings.TrimSpace(s), "::")
	if s == "" {
		return QualifiedName{}
	}
	return QualifiedName(strings.Split(s, "::"))
}

// String renders the name as a scoped constant path, e.g. "A::B".
func (q QualifiedName) String() string {
	return strings.Join(q, "::")
}

// Equal reports whether both names have the same segments in the same order.
func (q QualifiedName) Equal(other QualifiedName) bool {
	if len(q) != len(other) {
		return false
	}
	for i := range q {
		if q[i] != other[i] {
			return false
		}
	}
	return true
}

// Key returns the map key used for q. Distinct names have distinct keys.
func (q QualifiedName) Key() string {
	return q.String()
}

// PropertyDeclaration is one declared attribute. Type, when set, is the
// verbatim source text of the type expression.
type PropertyDeclaration struct {
	Name string  `json:"name" yaml:"name"`
	Type *string `json:"type,omitempty" yaml:"type,omitempty"`
}

// TypeOrEmpty returns the declared type text or "".
func (p PropertyDeclaration) TypeOrEmpty() string {
	if p.Type == nil {
		return ""
	}
	return *p.Type
}

// ProblemLocation marks a recognized macro call that could not be attributed
// statically.
type ProblemLocation = tree.Loc

// ClassRecord holds the facts extracted for one class or module.
type ClassRecord struct {
	Name             QualifiedName         `json:"name" yaml:"name"`
	Properties       []PropertyDeclaration `json:"properties" yaml:"properties"`
	Ancestors        []QualifiedName       `json:"ancestors" yaml:"ancestors"`
	SourceFile       string                `json:"source_file" yaml:"source_file"`
	ModelReference   QualifiedName         `json:"model,omitempty" yaml:"model,omitempty"`
	ProblemLocations []ProblemLocation     `json:"problem_locations" yaml:"problem_locations"`
}

// HasModel reports whether a model reference was declared.
func (r *ClassRecord) HasModel() bool {
	return r.ModelReference != nil
}

// FileRecord is the analysis result for one source file. Classes is keyed by
// QualifiedName.Key.
type FileRecord struct {
	Classes    map[string]*ClassRecord `json:"classes" yaml:"classes"`
	SourceFile string                  `json:"source_file" yaml:"source_file"`
	Checksum   uint32                  `json:"checksum" yaml:"checksum"`
}

// Class looks up the record for name.
func (f *FileRecord) Class(name QualifiedName) (*ClassRecord, bool) {
	rec, ok := f.Classes[name.Key()]
	return rec, ok
}

// SortedClasses returns the records ordered by qualified name.
func (f *FileRecord) SortedClasses() []*ClassRecord {
	keys := make([]string, 0, len(f.Classes))
	for k := range f.Classes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*ClassRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, f.Classes[k])
	}
	return out
}

// ProblemCount returns the number of problem locations across all classes.
func (f *FileRecord) ProblemCount() int {
	n := 0
	for _, rec := range f.Classes {
		n += len(rec.ProblemLocations)
	}
	return n
}
