package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for scope tracking:
// - Both modes start outside any scope and valid
// - Method bodies suppress validity only inside a class scope, in both modes
// - Frames: a method outside any class pushes no frame
// - Legacy: nested methods collapse into one toggle
// - Legacy: a class exiting while suppressed is not popped
// - Frames: nested methods keep suppression until the outermost exits
// - Frames: a class exit always pops its own frame
// - ParseScopeMode accepts the known modes and rejects others

func TestParseScopeMode(t *testing.T) {
	t.Parallel()

	mode, err := ParseScopeMode("")
	require.NoError(t, err)
	assert.Equal(t, ScopeFrames, mode)

	mode, err = ParseScopeMode("legacy")
	require.NoError(t, err)
	assert.Equal(t, ScopeLegacy, mode)

	_, err = ParseScopeMode("counter")
	assert.Error(t, err)
}

func TestScopes_Basic(t *testing.T) {
	t.Parallel()

	for _, mode := range []ScopeMode{ScopeFrames, ScopeLegacy} {
		s := NewScopeTracker(mode)
		_, ok := s.Current()
		assert.False(t, ok, mode)
		assert.True(t, s.Valid(), mode)

		s.EnterClass(QualifiedName{"A"})
		s.EnterClass(QualifiedName{"A", "B"})
		cur, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, QualifiedName{"A", "B"}, cur)
		assert.Equal(t, 2, s.Depth())

		s.EnterMethod()
		assert.False(t, s.Valid(), mode)
		s.ExitMethod()
		assert.True(t, s.Valid(), mode)

		s.ExitClass()
		cur, _ = s.Current()
		assert.Equal(t, QualifiedName{"A"}, cur)
		s.ExitClass()
		assert.Equal(t, 0, s.Depth(), mode)

		s.ExitClass()
		assert.Equal(t, 0, s.Depth(), "exit at top level is a no-op")
	}
}

func TestLegacyScopes_NestedMethodsCollapse(t *testing.T) {
	t.Parallel()

	s := NewScopeTracker(ScopeLegacy)
	s.EnterClass(QualifiedName{"A"})
	s.EnterMethod()
	s.EnterMethod()
	assert.False(t, s.Valid())
	s.ExitMethod()
	assert.True(t, s.Valid(), "inner exit restores validity while the outer method is still open")
	s.ExitMethod()
	assert.True(t, s.Valid())
}

func TestLegacyScopes_MethodOutsideClass(t *testing.T) {
	t.Parallel()

	s := NewScopeTracker(ScopeLegacy)
	s.EnterMethod()
	assert.True(t, s.Valid(), "no scope means no suppression")
	s.EnterClass(QualifiedName{"A"})
	assert.True(t, s.Valid())
}

func TestLegacyScopes_ExitWhileSuppressed(t *testing.T) {
	t.Parallel()

	s := NewScopeTracker(ScopeLegacy)
	s.EnterClass(QualifiedName{"Outer"})
	s.EnterMethod()
	s.EnterClass(QualifiedName{"Inner"})
	s.ExitClass()

	cur, _ := s.Current()
	assert.Equal(t, QualifiedName{"Inner"}, cur, "class exited while suppressed stays on the stack")
	assert.Equal(t, 2, s.Depth())

	s.ExitMethod()
	cur, _ = s.Current()
	assert.Equal(t, QualifiedName{"Inner"}, cur)
}

func TestFrameScopes_NestedMethods(t *testing.T) {
	t.Parallel()

	s := NewScopeTracker(ScopeFrames)
	s.EnterClass(QualifiedName{"A"})
	s.EnterMethod()
	s.EnterMethod()
	s.ExitMethod()
	assert.False(t, s.Valid(), "outer method is still open")
	s.ExitMethod()
	assert.True(t, s.Valid())
}

func TestFrameScopes_ExitWhileSuppressed(t *testing.T) {
	t.Parallel()

	s := NewScopeTracker(ScopeFrames)
	s.EnterClass(QualifiedName{"Outer"})
	s.EnterMethod()
	s.EnterClass(QualifiedName{"Inner"})
	s.ExitClass()

	cur, _ := s.Current()
	assert.Equal(t, QualifiedName{"Outer"}, cur)
	assert.False(t, s.Valid())

	s.ExitMethod()
	assert.True(t, s.Valid())
	s.ExitClass()
	assert.Equal(t, 0, s.Depth())
}

func TestFrameScopes_MethodOutsideClass(t *testing.T) {
	t.Parallel()

	s := NewScopeTracker(ScopeFrames)
	s.EnterMethod()
	assert.True(t, s.Valid(), "no scope means no suppression")

	s.EnterClass(QualifiedName{"A"})
	assert.True(t, s.Valid())
	s.ExitClass()

	s.ExitMethod()
	assert.True(t, s.Valid())
	assert.Equal(t, 0, s.Depth())
}

func TestFrameScopes_UnbalancedExitMethod(t *testing.T) {
	t.Parallel()

	s := NewScopeTracker(ScopeFrames)
	s.EnterClass(QualifiedName{"A"})
	s.ExitMethod()
	assert.Equal(t, 1, s.Depth(), "exiting a method never pops a class")
}
