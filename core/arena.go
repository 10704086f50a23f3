package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Arena is a reusable pool of fields for per-step scratch work, so transport
// and diffusion passes don't churn the allocator. Checkouts are grouped under
// named scopes: a routine opens a scope, takes the temporaries it needs, and
// closes the scope to return them to the pool.
//
// An arena is single-threaded, matching the engines that use it. Opening a
// scope name that is already open is a contract violation (it would alias
// live temporaries) and fails fast, as does closing a scope twice.
type Arena struct {
	grid    *Grid
	scalars []*ScalarField
	vectors []*VectorField
	open    map[string]bool
}

// Scope is a live checkout of scratch fields. Fields taken from a scope are
// valid until the scope closes.
type Scope struct {
	arena   *Arena
	name    string
	scalars []*ScalarField
	vectors []*VectorField
	closed  bool
}

// NewArena creates an empty arena over a grid.
func NewArena(g *Grid) *Arena {
	return &Arena{grid: g, open: make(map[string]bool)}
}

// Grid returns the topology the arena's fields are defined over.
func (a *Arena) Grid() *Grid { return a.grid }

// OpenScope starts a named checkout. The name must not already be open.
func (a *Arena) OpenScope(name string) (*Scope, error) {
	if a.open[name] {
		return nil, fmt.Errorf("arena: scope %q already open", name)
	}
	a.open[name] = true
	return &Scope{arena: a, name: name}, nil
}

// Scalar checks out a zeroed scalar field for the lifetime of the scope.
func (s *Scope) Scalar() *ScalarField {
	if s.closed {
		panic(fmt.Sprintf("arena: scope %q used after close", s.name))
	}
	a := s.arena
	var f *ScalarField
	if n := len(a.scalars); n > 0 {
		f = a.scalars[n-1]
		a.scalars = a.scalars[:n-1]
		f.Fill(0)
	} else {
		f = NewScalarField(a.grid)
	}
	s.scalars = append(s.scalars, f)
	return f
}

// Vector checks out a zeroed vector field for the lifetime of the scope.
func (s *Scope) Vector() *VectorField {
	if s.closed {
		panic(fmt.Sprintf("arena: scope %q used after close", s.name))
	}
	a := s.arena
	var f *VectorField
	if n := len(a.vectors); n > 0 {
		f = a.vectors[n-1]
		a.vectors = a.vectors[:n-1]
		f.Fill(mgl64.Vec3{})
	} else {
		f = NewVectorField(a.grid)
	}
	s.vectors = append(s.vectors, f)
	return f
}

// Close returns the scope's fields to the pool. Closing twice panics.
func (s *Scope) Close() {
	if s.closed {
		panic(fmt.Sprintf("arena: scope %q closed twice", s.name))
	}
	s.closed = true
	a := s.arena
	a.scalars = append(a.scalars, s.scalars...)
	a.vectors = append(a.vectors, s.vectors...)
	s.scalars = nil
	s.vectors = nil
	delete(a.open, s.name)
}
