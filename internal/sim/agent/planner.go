package agent

import (
	"container/heap"
	"math"
	"math/rand"
)

// The movement planner is a strict ordered cascade: exact shortest
// path first, then bounded lookahead, then axis greedy, then a random
// valid step. Every tier is stateless across calls and may report "no
// result", which hands over to the next tier. All transient search
// nodes live in per-call slice arenas; nothing survives the call.

// NextStep runs the cascade for the configured tier and returns one
// step toward target, or false when even the random tier has no valid
// move.
func (c *Controller) NextStep(grid Grid, start, target Pos, rng *rand.Rand) (Dir, bool) {
	if c.params.UseSearch {
		if d, ok := planAStar(grid, start, target, c.params.AStarIterCap); ok {
			return d, true
		}
		if d, ok := planLookahead(grid, start, target, c.params.LookaheadDepth); ok {
			return d, true
		}
		if d, ok := planGreedy(grid, start, target); ok {
			return d, true
		}
		return planRandom(grid, start, rng)
	}

	// Reflex tier: biased coin between a toward-target step and a
	// random one, the legacy behavior of the lowest difficulty.
	if rng.Float64() < c.params.GreedyBias {
		if d, ok := planGreedy(grid, start, target); ok {
			return d, true
		}
	}
	return planRandom(grid, start, rng)
}

// searchNode is one frontier entry of the A* search. Nodes are arena
// values indexed by the heap; they are rebuilt from scratch each call.
type searchNode struct {
	pos   Pos
	g     float64 // accumulated traversal cost
	f     float64 // g + manhattan heuristic
	first Dir     // first step taken from start on this path
	seq   int     // insertion order, breaks f ties deterministically
}

type nodeHeap struct {
	arena []searchNode
	order []int
}

func (h *nodeHeap) Len() int { return len(h.order) }
func (h *nodeHeap) Less(i, j int) bool {
	a, b := h.arena[h.order[i]], h.arena[h.order[j]]
	if a.f != b.f {
		return a.f < b.f
	}
	return a.seq < b.seq
}
func (h *nodeHeap) Swap(i, j int) { h.order[i], h.order[j] = h.order[j], h.order[i] }
func (h *nodeHeap) Push(x any)    { h.order = append(h.order, x.(int)) }
func (h *nodeHeap) Pop() any {
	n := len(h.order)
	v := h.order[n-1]
	h.order = h.order[:n-1]
	return v
}

// planAStar is the exact tier: best-first search ordered by f = g + h
// with the Manhattan heuristic, which is admissible here because every
// step is an axis-aligned unit move with cost >= 1. Each node carries
// the first step of its path so reaching the goal immediately yields
// the answer without path reconstruction. The expansion cap bounds
// worst-case per-tick cost; hitting it is a normal "no result".
func planAStar(grid Grid, start, goal Pos, iterCap int) (Dir, bool) {
	if iterCap <= 0 {
		return Dir{}, false
	}
	if start == goal {
		return Dir{}, false
	}

	h := &nodeHeap{arena: make([]searchNode, 0, 64), order: make([]int, 0, 64)}

	// Cheapest accumulated cost seen per tile. A tile closes only when
	// popped; a cheaper path found later re-pushes it, so non-uniform
	// surface costs cannot lock in a detour's first step.
	bestG := make(map[Pos]float64, 64)
	bestG[start] = 0

	push := func(n searchNode) {
		n.seq = len(h.arena)
		h.arena = append(h.arena, n)
		heap.Push(h, n.seq)
	}

	for _, d := range dirs {
		np := start.Add(d)
		cost := grid.TraversalCost(np.X, np.Y)
		if math.IsInf(cost, 1) {
			continue
		}
		if g, seen := bestG[np]; seen && g <= cost {
			continue
		}
		bestG[np] = cost
		push(searchNode{
			pos:   np,
			g:     cost,
			f:     cost + float64(manhattan(np, goal)),
			first: d,
		})
	}

	for iter := 0; h.Len() > 0 && iter < iterCap; iter++ {
		n := h.arena[heap.Pop(h).(int)]
		if n.g > bestG[n.pos] {
			continue // superseded by a cheaper entry
		}
		if n.pos == goal {
			return n.first, true
		}
		for _, d := range dirs {
			np := n.pos.Add(d)
			cost := grid.TraversalCost(np.X, np.Y)
			if math.IsInf(cost, 1) {
				continue
			}
			g := n.g + cost
			if old, seen := bestG[np]; seen && old <= g {
				continue
			}
			bestG[np] = g
			push(searchNode{
				pos:   np,
				g:     g,
				f:     g + float64(manhattan(np, goal)),
				first: n.first,
			})
		}
	}
	return Dir{}, false
}

// treeNode is one node of the lookahead tree, arena-allocated and
// parent-linked by index.
type treeNode struct {
	pos    Pos
	depth  int
	score  float64 // accumulated approach score along the path
	parent int     // arena index, -1 at the root
	first  Dir
}

// planLookahead is the bounded tree tier: expand every valid step up
// to maxDepth, summing approach scores along each path. The winning
// first-level direction belongs to the path with the highest sum.
// Branches whose running sum drops below zero are kept as candidates
// but never expanded further. This is a greedy best-path-sum search,
// not minimax; the opponent is not modeled.
func planLookahead(grid Grid, start, goal Pos, maxDepth int) (Dir, bool) {
	if maxDepth <= 0 || start == goal {
		return Dir{}, false
	}

	arena := make([]treeNode, 0, 32)
	arena = append(arena, treeNode{pos: start, parent: -1})

	onPath := func(idx int, p Pos) bool {
		for i := idx; i >= 0; i = arena[i].parent {
			if arena[i].pos == p {
				return true
			}
		}
		return false
	}

	best := -1
	for head := 0; head < len(arena); head++ {
		n := arena[head]
		if n.depth >= maxDepth {
			continue
		}
		if n.depth > 0 && n.score < 0 {
			continue
		}
		for _, d := range dirs {
			np := n.pos.Add(d)
			if !grid.IsValid(np.X, np.Y) || grid.IsBlocked(np.X, np.Y) {
				continue
			}
			if onPath(head, np) {
				continue
			}
			child := treeNode{
				pos:    np,
				depth:  n.depth + 1,
				score:  n.score + ApproachScore(np, goal),
				parent: head,
				first:  n.first,
			}
			if n.depth == 0 {
				child.first = d
			}
			arena = append(arena, child)
			idx := len(arena) - 1
			if best < 0 || arena[idx].score > arena[best].score {
				best = idx
			}
		}
	}

	if best < 0 {
		return Dir{}, false
	}
	return arena[best].first, true
}

// planGreedy is the trivial final-approach tier: split the delta into
// its axes and take the first unblocked axis step, X before Y.
func planGreedy(grid Grid, start, goal Pos) (Dir, bool) {
	step := func(d Dir) bool {
		np := start.Add(d)
		return grid.IsValid(np.X, np.Y) && !grid.IsBlocked(np.X, np.Y)
	}

	if goal.X != start.X {
		d := Dir{DX: 1}
		if goal.X < start.X {
			d.DX = -1
		}
		if step(d) {
			return d, true
		}
	}
	if goal.Y != start.Y {
		d := Dir{DY: 1}
		if goal.Y < start.Y {
			d.DY = -1
		}
		if step(d) {
			return d, true
		}
	}
	return Dir{}, false
}

// planRandom picks uniformly among the currently valid steps using the
// agent-local generator. No valid step means idle.
func planRandom(grid Grid, start Pos, rng *rand.Rand) (Dir, bool) {
	valid := make([]Dir, 0, 4)
	for _, d := range dirs {
		np := start.Add(d)
		if grid.IsValid(np.X, np.Y) && !grid.IsBlocked(np.X, np.Y) {
			valid = append(valid, d)
		}
	}
	if len(valid) == 0 {
		return Dir{}, false
	}
	return valid[rng.Intn(len(valid))], true
}
