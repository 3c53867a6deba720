package world

import (
	"container/heap"
	"slices"

	"github.com/talgya/hexwar/internal/hex"
)

// MoveRules are the tunable numbers behind DefaultPolicy.
type MoveRules struct {
	MoraleStep  uint32 // Morale points per extra movement point
	MaxBudget   int    // Upper bound on movement points per turn
	ForeignCost int    // Cost of entering a tile the player does not own
	Airlift     bool   // Owned airports connect to each other
}

// DefaultMoveRules returns the rules used when no config overrides them.
func DefaultMoveRules() MoveRules {
	return MoveRules{
		MoraleStep:  5,
		MaxBudget:   3,
		ForeignCost: 2,
		Airlift:     true,
	}
}

// MovePolicy plugs the game's movement economy into the search.
// Cost must be non-negative; negative values are treated as zero.
type MovePolicy struct {
	Budget   func(a Army) int
	Cost     func(from, to hex.Cube, dest Tile, player PlayerIndex) int
	Passable func(t Tile, player PlayerIndex) bool
	Airlift  bool
}

// DefaultPolicy turns MoveRules into a MovePolicy. An army gets one movement
// point plus one per MoraleStep morale; own territory costs one point per
// step and anything else costs ForeignCost. Tiles are passable when their
// terrain holds armies and no hostile army stands there.
func DefaultPolicy(rules MoveRules) MovePolicy {
	return MovePolicy{
		Budget: func(a Army) int {
			b := 1
			if rules.MoraleStep > 0 {
				b += int(a.Morale / rules.MoraleStep)
			}
			if rules.MaxBudget > 0 && b > rules.MaxBudget {
				b = rules.MaxBudget
			}
			return b
		},
		Cost: func(_, _ hex.Cube, dest Tile, player PlayerIndex) int {
			if dest.OwnedBy(player) {
				return 1
			}
			return max(rules.ForeignCost, 1)
		},
		Passable: func(t Tile, player PlayerIndex) bool {
			return t.Terrain.AllowsArmy() && !hostile(t, player)
		},
		Airlift: rules.Airlift,
	}
}

func hostile(t Tile, player PlayerIndex) bool {
	return t.Army != nil && t.Army.Owner != player
}

// LegalMoves returns the coordinates the army at src may move to this turn,
// ordered and without duplicates. Tiles holding any army are never
// destinations; hostile ones are reported by AttackTargets instead. The
// result is empty when src has no army of player's, or the army cannot move.
func (w *World) LegalMoves(src hex.Cube, player PlayerIndex, p MovePolicy) []hex.Cube {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.s.legalMoves(src, player, p)
}

// LegalMoves is World.LegalMoves seen from inside an Update.
func (b *Batch) LegalMoves(src hex.Cube, player PlayerIndex, p MovePolicy) []hex.Cube {
	return b.s.legalMoves(src, player, p)
}

func (s *store) legalMoves(src hex.Cube, player PlayerIndex, p MovePolicy) []hex.Cube {
	r := s.reach(src, player, p)
	if r == nil {
		return nil
	}

	dest := make(map[hex.Cube]struct{})
	for c := range r.settled {
		if c == src || s.tiles[c].Army != nil {
			continue
		}
		dest[c] = struct{}{}
	}
	if p.Airlift {
		for c := range s.airlift(src, player, p) {
			dest[c] = struct{}{}
		}
	}
	return sortedKeys(dest)
}

// AttackTargets returns hostile armies the army at src could strike this
// turn: tiles adjacent to a reachable tile, within budget.
func (w *World) AttackTargets(src hex.Cube, player PlayerIndex, p MovePolicy) []hex.Cube {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.s.attackTargets(src, player, p)
}

// AttackTargets is World.AttackTargets seen from inside an Update.
func (b *Batch) AttackTargets(src hex.Cube, player PlayerIndex, p MovePolicy) []hex.Cube {
	return b.s.attackTargets(src, player, p)
}

func (s *store) attackTargets(src hex.Cube, player PlayerIndex, p MovePolicy) []hex.Cube {
	r := s.reach(src, player, p)
	if r == nil {
		return nil
	}

	targets := make(map[hex.Cube]struct{})
	for c, cost := range r.settled {
		for _, n := range c.Neighbors() {
			t, ok := s.tiles[n]
			if !ok || !hostile(*t, player) || !t.Terrain.AllowsArmy() {
				continue
			}
			if cost+edgeCost(p, c, n, *t, player) <= r.budget {
				targets[n] = struct{}{}
			}
		}
	}
	return sortedKeys(targets)
}

type reachResult struct {
	budget  int
	settled map[hex.Cube]int // coordinate → minimum cost
}

// reach runs a uniform-cost expansion from src. Each coordinate is settled
// once, at its minimum cost, and nothing beyond the budget is expanded.
// Returns nil when src holds no movable army of player's.
func (s *store) reach(src hex.Cube, player PlayerIndex, p MovePolicy) *reachResult {
	t, ok := s.tiles[src]
	if !ok || t.Army == nil || t.Army.Owner != player || !t.Army.CanMove {
		return nil
	}
	budget := 1
	if p.Budget != nil {
		budget = p.Budget(*t.Army)
	}
	if budget <= 0 {
		return nil
	}

	r := &reachResult{budget: budget, settled: make(map[hex.Cube]int)}
	best := map[hex.Cube]int{src: 0}
	frontier := &costQueue{{coord: src, cost: 0}}

	for frontier.Len() > 0 {
		cur := heap.Pop(frontier).(costItem)
		if _, done := r.settled[cur.coord]; done {
			continue
		}
		r.settled[cur.coord] = cur.cost

		for _, n := range cur.coord.Neighbors() {
			if _, done := r.settled[n]; done {
				continue
			}
			nt, ok := s.tiles[n]
			if !ok {
				continue
			}
			if !nt.Terrain.AllowsArmy() || !passable(p, *nt, player) {
				continue
			}
			cost := cur.cost + edgeCost(p, cur.coord, n, *nt, player)
			if cost > budget {
				continue
			}
			if prev, seen := best[n]; seen && prev <= cost {
				continue
			}
			best[n] = cost
			heap.Push(frontier, costItem{coord: n, cost: cost})
		}
	}
	return r
}

// airlift returns owned, empty airports reachable from an owned airport at src.
func (s *store) airlift(src hex.Cube, player PlayerIndex, p MovePolicy) map[hex.Cube]struct{} {
	t := s.tiles[src]
	if !t.HasLocality(Airport) || !t.OwnedBy(player) {
		return nil
	}
	out := make(map[hex.Cube]struct{})
	for c := range s.localities[Airport] {
		if c == src {
			continue
		}
		at := s.tiles[c]
		if !at.OwnedBy(player) || at.Army != nil {
			continue
		}
		if !at.Terrain.AllowsArmy() || !passable(p, *at, player) {
			continue
		}
		out[c] = struct{}{}
	}
	return out
}

func passable(p MovePolicy, t Tile, player PlayerIndex) bool {
	if p.Passable == nil {
		return !hostile(t, player)
	}
	return p.Passable(t, player)
}

func edgeCost(p MovePolicy, from, to hex.Cube, dest Tile, player PlayerIndex) int {
	if p.Cost == nil {
		return 1
	}
	return max(p.Cost(from, to, dest, player), 0)
}

type costItem struct {
	coord hex.Cube
	cost  int
}

// costQueue is a min-heap on cost, ties broken by coordinate so the
// expansion order is reproducible.
type costQueue []costItem

func (q costQueue) Len() int {
	return len(q)
}

func (q costQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].coord.Less(q[j].coord)
}

func (q costQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *costQueue) Push(x any) {
	*q = append(*q, x.(costItem))
}

func (q *costQueue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// Movable returns the armies of player that can still move this turn.
func (w *World) Movable(player PlayerIndex) []hex.Cube {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []hex.Cube
	for c, t := range w.s.tiles {
		if t.Army != nil && t.Army.Owner == player && t.Army.CanMove {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, hex.Compare)
	return out
}
