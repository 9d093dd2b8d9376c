package gen

import (
	"github.com/dilcheck/aergo/internal/diag"
	"github.com/dilcheck/aergo/internal/ir"
	"github.com/dilcheck/aergo/internal/wasmenc"
)

// This file turns a function's CFG (basic blocks plus ordered guarded
// branches, spec.md §3.3) into WebAssembly's structured control flow:
// nested Block/Loop/If constructs addressed by relative branch depth
// (spec.md §4.G). trans only ever produces branch shapes with one of two
// forms — a single unconditional branch (straight-line code, a loop
// back-edge, break, continue, goto) or a priority chain of guarded branches
// ending in one unconditional fallback (if/elif/else, switch) — and every
// one of those shapes is structured (no irreducible CFGs), so a single
// recursive scheduler handles the whole function without ever falling back
// to a br_table dispatch loop. fn.ReloopIdx is reserved for that fallback by
// ir.NewFn but unused: the goto-derived CFGs this compiler actually
// produces are reducible.
//
// frame is a stack entry for one structurally-nested Block/Loop/If. Every
// such construct pushes exactly one frame for the duration of rendering its
// body (or Then/Else arms), whether or not the construct is ever targeted
// by a branch, because WebAssembly's br/br_if/br_table depth counts every
// enclosing construct, named or not. id is the basic block a Br/BrIf
// targeting this frame should resolve to; id 0 (no real block ever gets
// that id, ids start at 1) marks an anonymous frame pushed purely to keep
// nesting depth correct for an if/elif/else cascade.
type frame struct {
	id     uint64
	isLoop bool
}

func cloneScope(scope []frame) []frame {
	out := make([]frame, len(scope), len(scope)+1)
	copy(out, scope)
	return out
}

func depthOf(scope []frame, id uint64) uint32 {
	for i := len(scope) - 1; i >= 0; i-- {
		if scope[i].id == id {
			return uint32(len(scope) - 1 - i)
		}
	}
	diag.Fatal("gen: branch target escapes every enclosing structured-control-flow scope")
	return 0
}

type funcGen struct {
	fn       *ir.Fn
	resolver *Resolver

	order     []*ir.BasicBlock
	pos       map[uint64]int
	loopHeads map[uint64]bool
	backEdges map[uint64][]int
}

// buildFunctionBody runs the relooper over fn and returns its WebAssembly
// instruction body.
func buildFunctionBody(fn *ir.Fn, r *Resolver) []wasmenc.Expr {
	order, pos := computeOrder(fn.EntryBB, fn.ExitBB)
	heads, backEdges := computeLoopHeads(order, pos)
	g := &funcGen{fn: fn, resolver: r, order: order, pos: pos, loopHeads: heads, backEdges: backEdges}
	body := g.renderFrom(0, len(order), nil)
	if fn.Abi.HasResult {
		// A body whose last construct is a Block (an if/else whose arms both
		// return) leaves the validator expecting a result value at the end
		// of the function; a trailing Unreachable satisfies it.
		body = append(body, wasmenc.Unreachable{})
	}
	return body
}

// computeOrder schedules every block reachable from entry (excluding exit,
// which never carries code of its own — a branch to it always lowers to an
// explicit Return instead of being scheduled) into reverse postorder. RPO
// over a reducible CFG guarantees every non-back edge goes strictly forward
// in the resulting sequence and every back edge goes strictly backward,
// which is exactly the property the nesting construction below relies on.
func computeOrder(entry, exit *ir.BasicBlock) ([]*ir.BasicBlock, map[uint64]int) {
	visited := map[uint64]bool{}
	var postorder []*ir.BasicBlock

	var visit func(b *ir.BasicBlock)
	visit = func(b *ir.BasicBlock) {
		if b == exit || visited[b.ID()] {
			return
		}
		visited[b.ID()] = true
		for _, br := range b.Branches {
			visit(br.Target)
		}
		postorder = append(postorder, b)
	}
	visit(entry)

	n := len(postorder)
	order := make([]*ir.BasicBlock, n)
	pos := make(map[uint64]int, n)
	for i, b := range postorder {
		j := n - 1 - i
		order[j] = b
		pos[b.ID()] = j
	}
	return order, pos
}

// computeLoopHeads scans every branch once, classifying any edge whose
// target's RPO position is at or before its source as a back edge. The
// target of a back edge is a loop header; backEdges records, per header,
// every position a back edge into it originates from, which loopEnd below
// uses to find where the loop body ends.
func computeLoopHeads(order []*ir.BasicBlock, pos map[uint64]int) (map[uint64]bool, map[uint64][]int) {
	heads := map[uint64]bool{}
	backEdges := map[uint64][]int{}

	for i, b := range order {
		for _, br := range b.Branches {
			tpos, ok := pos[br.Target.ID()]
			if !ok {
				continue // branch to the exit block
			}
			if tpos <= i {
				heads[br.Target.ID()] = true
				backEdges[br.Target.ID()] = append(backEdges[br.Target.ID()], i)
			}
		}
	}
	return heads, backEdges
}

func (g *funcGen) isExit(b *ir.BasicBlock) bool { return b == g.fn.ExitBB }

// idAt returns the id of the block scheduled at position p, or 0 when p
// runs off the end of the region being rendered (no real block ever has id
// 0, so this never collides with a genuine target).
func idAt(order []*ir.BasicBlock, p int) uint64 {
	if p < 0 || p >= len(order) {
		return 0
	}
	return order[p].ID()
}

// loopEnd finds where a loop header's body ends: one past the latest back
// edge targeting it within [lo, hi).
func (g *funcGen) loopEnd(lo, hi int) int {
	end := lo + 1
	for _, src := range g.backEdges[g.order[lo].ID()] {
		if src+1 > end {
			end = src + 1
		}
	}
	if end > hi {
		end = hi
	}
	return end
}

// renderFrom emits the instructions for [lo, hi) of the schedule under the
// given enclosing scope. It is the single entry point every construct below
// recurses through.
func (g *funcGen) renderFrom(lo, hi int, scope []frame) []wasmenc.Expr {
	if lo >= hi {
		return nil
	}

	b := g.order[lo]

	if g.loopHeads[b.ID()] {
		return g.renderLoop(lo, hi, scope)
	}

	return g.renderBlock(lo, hi, scope)
}

// renderBlock renders the block at lo's own content (straight-line or guard
// chain) plus whatever follows, without the loop-head check renderFrom does.
// renderLoop calls this directly for the header's own position, since the
// header was already recognized as a loop head by the caller that dispatched
// into renderLoop in the first place — routing back through renderFrom for
// the same position would see the same header, see the same loopHeads entry,
// and call renderLoop again without ever making progress.
func (g *funcGen) renderBlock(lo, hi int, scope []frame) []wasmenc.Expr {
	b := g.order[lo]

	switch len(b.Branches) {
	case 0:
		diag.Fatal("gen: basic block %d has no terminator", b.ID())
		return nil

	case 1:
		return g.renderStraightLine(lo, hi, scope)

	default:
		return g.renderGuardChain(lo, hi, scope)
	}
}

// renderLoop wraps the loop body in Block{ Loop{ ... } }: the outer Block
// gives "break" (a forward jump out of the loop entirely) a valid branch
// target, the inner Loop gives "continue" (a jump back to the header, which
// is exactly what a back edge to the header means) its own, matching the
// standard WebAssembly loop idiom.
func (g *funcGen) renderLoop(lo, hi int, scope []frame) []wasmenc.Expr {
	b := g.order[lo]
	end := g.loopEnd(lo, hi)

	inner := append(cloneScope(scope),
		frame{id: idAt(g.order, end)},
		frame{id: b.ID(), isLoop: true},
	)
	body := g.renderBlock(lo, end, inner)
	wrapped := wasmenc.Block{Body: []wasmenc.Expr{wasmenc.Loop{Body: body}}}

	rest := g.renderFrom(end, hi, scope)
	return append([]wasmenc.Expr{wrapped}, rest...)
}

// renderStraightLine handles a block with exactly one branch: plain
// sequential flow, a loop back-edge/continue, a break, or a goto. Forward
// branches to the immediately following block need no instruction at all —
// that is simply what falling off the end of this block's code already
// does.
func (g *funcGen) renderStraightLine(lo, hi int, scope []frame) []wasmenc.Expr {
	b := g.order[lo]
	br := b.Branches[0]

	out := g.stmtsFor(b)
	switch {
	case g.isExit(br.Target):
		out = append(out, wasmenc.Return{})
	case g.pos[br.Target.ID()] == lo+1:
		// fallthrough
	default:
		out = append(out, wasmenc.Br{Depth: depthOf(scope, br.Target.ID())})
	}

	return append(out, g.renderFrom(lo+1, hi, scope)...)
}

// renderGuardChain handles a block with two or more branches: a guard
// priority chain (if/elif/else, switch) ending in one unconditional
// fallback. Each guarded entry becomes a nested If whose Then arm renders
// that entry's own subtree (bounded by where the previous entry's subtree
// starts, see boundBefore) and whose Else arm continues the chain; the final unconditional
// entry's subtree is rendered inline, with no wrapping If, since by then
// every earlier guard has already been checked and found false. The whole
// cascade is wrapped in one real wasmenc.Block whose id is the point the
// chain converges to, so a break or goto originating anywhere inside —
// including a switch case that exits past its siblings — has an actual
// enclosing construct to branch out of; without it, the computed branch
// depth would count a scope entry with nothing physically built to match,
// aiming the br at the wrong ancestor. A plain if/elif/else with nothing
// branching past it pays for an extra, harmless transparent Block.
func (g *funcGen) renderGuardChain(lo, hi int, scope []frame) []wasmenc.Expr {
	b := g.order[lo]
	joinScope := append(cloneScope(scope), frame{id: idAt(g.order, hi)})

	out := g.stmtsFor(b)
	chain := g.buildChain(b.Branches, 0, hi, joinScope)
	return append(out, wasmenc.Block{Body: chain})
}

// boundBefore returns the upper bound for inlining branches[k]'s own
// target. computeOrder visits a block's branches in declared order, and
// DFS-postorder-then-reverse always schedules the LAST-visited subtree
// first: branches[k]'s target therefore lands immediately before
// branches[k-1]'s target in the final order, not after branches[k+1]'s as
// the declaration order alone would suggest. branches[0], visited first and
// so scheduled last among its siblings, is bounded by the chain's own hi.
func (g *funcGen) boundBefore(branches []ir.Branch, k int, hi int) int {
	if k == 0 {
		return hi
	}
	prev := branches[k-1].Target
	if g.isExit(prev) {
		return hi
	}
	return g.pos[prev.ID()]
}

// branchTarget renders where br leads. When br.Target is scheduled inside
// the arm's own window [pos(br.Target), bound) it is inlined directly;
// otherwise it is content some already-open enclosing construct owns (a
// conditional break's guard reaching past this chain to the loop's exit,
// say), and the only valid way to reach it from here is an explicit branch
// to that enclosing scope's depth.
func (g *funcGen) branchTarget(br ir.Branch, bound int, scope []frame) []wasmenc.Expr {
	if g.isExit(br.Target) {
		return []wasmenc.Expr{wasmenc.Return{}}
	}
	pos := g.pos[br.Target.ID()]
	if pos < bound {
		return g.renderFrom(pos, bound, scope)
	}
	return []wasmenc.Expr{wasmenc.Br{Depth: depthOf(scope, br.Target.ID())}}
}

func (g *funcGen) buildChain(branches []ir.Branch, k int, hi int, scope []frame) []wasmenc.Expr {
	br := branches[k]
	bound := g.boundBefore(branches, k, hi)

	if k == len(branches)-1 {
		return g.branchTarget(br, bound, scope)
	}

	inner := append(cloneScope(scope), frame{})

	thenBody := g.branchTarget(br, bound, inner)
	elseBody := g.buildChain(branches, k+1, hi, inner)

	return []wasmenc.Expr{wasmenc.If{
		Cond: g.exprGen(br.Guard),
		Then: thenBody,
		Else: elseBody,
	}}
}
