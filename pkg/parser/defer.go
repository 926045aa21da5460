package parser

import "github.com/xplshn/impc/pkg/ast"

// deferScheduler holds deferred statement groups until the block they were
// deferred in closes. Groups are keyed by the block depth that encloses the
// defer; each depth keeps its groups in recording order.
type deferScheduler struct {
	open   bool
	buf    []*ast.Node
	groups map[int][][]*ast.Node
}

func newDeferScheduler() deferScheduler {
	return deferScheduler{groups: make(map[int][][]*ast.Node)}
}

func (d *deferScheduler) active() bool { return d.open }

func (d *deferScheduler) begin() {
	d.open = true
	d.buf = nil
}

func (d *deferScheduler) record(n *ast.Node) { d.buf = append(d.buf, n) }

// end files the buffered group under depth.
func (d *deferScheduler) end(depth int) {
	d.open = false
	if len(d.buf) > 0 {
		d.groups[depth] = append(d.groups[depth], d.buf)
	}
	d.buf = nil
}

// flush removes the groups of depth and returns their statements, last
// deferred first.
func (d *deferScheduler) flush(depth int) []*ast.Node {
	groups := d.groups[depth]
	delete(d.groups, depth)
	var out []*ast.Node
	for i := len(groups) - 1; i >= 0; i-- {
		out = append(out, groups[i]...)
	}
	return out
}

// pending returns copies of every group between depth and floor, innermost
// depth first, for replay before a return. Nothing is consumed.
func (d *deferScheduler) pending(depth, floor int) []*ast.Node {
	var out []*ast.Node
	for dep := depth; dep >= floor; dep-- {
		groups := d.groups[dep]
		for i := len(groups) - 1; i >= 0; i-- {
			for _, n := range groups[i] {
				c := *n
				out = append(out, &c)
			}
		}
	}
	return out
}

// drop forgets groups at depth and deeper; used when a function body closes.
func (d *deferScheduler) drop(depth int) {
	for dep := range d.groups {
		if dep >= depth {
			delete(d.groups, dep)
		}
	}
}
