package symbols

import (
	"errors"
	"maps"
	"strings"

	"github.com/xplshn/impc/pkg/types"
)

type FrameKind int

const (
	GlobalFrame FrameKind = iota
	FuncFrame
	BlockFrame
)

// Var is anything a name can resolve to: a variable, a parameter, a flattened
// struct field or an enum constant.
type Var struct {
	Name  string
	Type  types.Type
	Const bool
	Flat  bool   // namespaced name, flattened for emission
	Value string // folded literal value of a constant, if known
}

// Frame holds every visible name. A pushed frame starts as a full copy of its
// parent; own records which names were declared in this frame itself.
type Frame struct {
	Vars  map[string]Var
	Kind  FrameKind
	own   map[string]bool
	order []string
}

func newFrame(kind FrameKind) *Frame {
	return &Frame{Vars: make(map[string]Var), Kind: kind, own: make(map[string]bool)}
}

// Declared returns the frame's own declarations in order.
func (f *Frame) Declared() []Var {
	out := make([]Var, len(f.order))
	for i, name := range f.order {
		out[i] = f.Vars[name]
	}
	return out
}

var ErrRedeclared = errors.New("redeclared in this block")

// ScopeStack is the per-function stack of copy-down frames. Lookups only ever
// read the top frame.
type ScopeStack struct {
	frames []*Frame
}

func NewScopeStack() *ScopeStack {
	return &ScopeStack{frames: []*Frame{newFrame(GlobalFrame)}}
}

func (s *ScopeStack) Top() *Frame { return s.frames[len(s.frames)-1] }

// Depth is the number of frames above the global one.
func (s *ScopeStack) Depth() int { return len(s.frames) - 1 }

func (s *ScopeStack) Push(kind FrameKind) {
	f := newFrame(kind)
	maps.Copy(f.Vars, s.Top().Vars)
	s.frames = append(s.frames, f)
}

func (s *ScopeStack) Pop() {
	if len(s.frames) == 1 {
		panic("cannot pop global frame")
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// Declare adds v to the top frame. Shadowing a copied-down name is allowed and
// reported through shadowed; declaring a name the frame already owns fails.
func (s *ScopeStack) Declare(v Var) (shadowed bool, err error) {
	top := s.Top()
	if top.own[v.Name] {
		return false, ErrRedeclared
	}
	_, shadowed = top.Vars[v.Name]
	top.Vars[v.Name] = v
	top.own[v.Name] = true
	top.order = append(top.order, v.Name)
	return shadowed, nil
}

func (s *ScopeStack) Lookup(name string) (Var, bool) {
	v, ok := s.Top().Vars[name]
	return v, ok
}

// Canonical rewrites a dotted access path so that every link through a pointer
// uses "->": with q: ^Point, "q.x" becomes "q->x". Unknown prefixes are left
// dotted.
func Canonical(name string, lookup func(string) (Var, bool)) string {
	if !strings.Contains(name, ".") {
		return name
	}
	if v, ok := lookup(name); ok {
		return v.Name
	}
	parts := strings.Split(name, ".")
	cur := parts[0]
	for _, part := range parts[1:] {
		sep := "."
		if v, ok := lookup(cur); ok && types.IsPointer(v.Type) {
			sep = "->"
		}
		cur += sep + part
	}
	return cur
}
