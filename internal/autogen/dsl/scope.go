package dsl

import "fmt"

// ScopeMode selects how class nesting and method suppression are tracked.
type ScopeMode string

const (
	// ScopeFrames keeps one frame per class or method. A class exit always
	// pops its own frame and method suppression nests.
	ScopeFrames ScopeMode = "frames"

	// ScopeLegacy keeps a class stack plus a single validity flag. A class is
	// not popped when it exits while the flag is cleared, and nested method
	// definitions collapse into one toggle. Kept for compatibility with
	// records generated by earlier autogen runs.
	ScopeLegacy ScopeMode = "legacy"
)

// ParseScopeMode validates a configured mode. An empty string selects frames.
func ParseScopeMode(s string) (ScopeMode, error) {
	switch ScopeMode(s) {
	case "", ScopeFrames:
		return ScopeFrames, nil
	case ScopeLegacy:
		return ScopeLegacy, nil
	}
	return "", fmt.Errorf("unknown scope mode %q", s)
}

// ScopeTracker follows the class nesting of a walk and whether the walk is
// currently inside a method body.
type ScopeTracker interface {
	EnterClass(name QualifiedName)
	ExitClass()
	EnterMethod()
	ExitMethod()

	// Current returns the innermost class scope.
	Current() (QualifiedName, bool)

	// Valid is false while declarations cannot be attributed to the class.
	Valid() bool

	// Depth is the number of class scopes currently entered.
	Depth() int
}

// NewScopeTracker returns the tracker for mode.
func NewScopeTracker(mode ScopeMode) ScopeTracker {
	if mode == ScopeLegacy {
		return &flagScopes{valid: true}
	}
	return &frameScopes{}
}

type flagScopes struct {
	stack []QualifiedName
	valid bool
}

func (s *flagScopes) EnterClass(name QualifiedName) {
	s.stack = append(s.stack, name)
}

func (s *flagScopes) ExitClass() {
	if len(s.stack) == 0 || !s.valid {
		return
	}
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *flagScopes) EnterMethod() {
	if len(s.stack) == 0 || !s.valid {
		return
	}
	s.valid = false
}

func (s *flagScopes) ExitMethod() {
	if len(s.stack) == 0 || s.valid {
		return
	}
	s.valid = true
}

func (s *flagScopes) Current() (QualifiedName, bool) {
	if len(s.stack) == 0 {
		return nil, false
	}
	return s.stack[len(s.stack)-1], true
}

func (s *flagScopes) Valid() bool { return s.valid }

func (s *flagScopes) Depth() int { return len(s.stack) }

type frameKind int

const (
	frameClass frameKind = iota
	frameMethod
)

type frame struct {
	kind frameKind
	name QualifiedName
}

type frameScopes struct {
	frames  []frame
	classes int
	methods int
}

func (s *frameScopes) EnterClass(name QualifiedName) {
	s.frames = append(s.frames, frame{kind: frameClass, name: name})
	s.classes++
}

// ExitClass pops through the innermost class frame.
func (s *frameScopes) ExitClass() {
	if s.classes == 0 {
		return
	}
	for len(s.frames) > 0 {
		top := s.pop()
		if top.kind == frameClass {
			return
		}
	}
}

// EnterMethod is a no-op outside any class.
func (s *frameScopes) EnterMethod() {
	if s.classes == 0 {
		return
	}
	s.frames = append(s.frames, frame{kind: frameMethod})
	s.methods++
}

func (s *frameScopes) ExitMethod() {
	if len(s.frames) == 0 || s.frames[len(s.frames)-1].kind != frameMethod {
		return
	}
	s.pop()
}

func (s *frameScopes) pop() frame {
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	if top.kind == frameClass {
		s.classes--
	} else {
		s.methods--
	}
	return top
}

func (s *frameScopes) Current() (QualifiedName, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].kind == frameClass {
			return s.frames[i].name, true
		}
	}
	return nil, false
}

func (s *frameScopes) Valid() bool { return s.methods == 0 }

func (s *frameScopes) Depth() int { return s.classes }
