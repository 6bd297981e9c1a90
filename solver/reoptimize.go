package solver

import (
	"context"
	"maps"
	"slices"
	"time"
)

// Delta is a small edit to the constraint set: constraints added and removed
// since the previous solve. Removals match the first equal constraint.
type Delta struct {
	Add    []Constraint
	Remove []Constraint
}

func (cs ConstraintSet) apply(delta Delta) ConstraintSet {
	out := ConstraintSet{
		Hard: slices.Clone(cs.Hard),
		Soft: slices.Clone(cs.Soft),
	}
	for _, c := range delta.Remove {
		if c.Hard() {
			out.Hard = removeFirst(out.Hard, c)
		} else {
			out.Soft = removeFirst(out.Soft, c)
		}
	}
	for _, c := range delta.Add {
		if c.Hard() {
			out.Hard = append(out.Hard, c)
		} else {
			if c.Weight <= 0 {
				c.Weight = DefaultSoftWeight
			}
			out.Soft = append(out.Soft, c)
		}
	}
	return out
}

func removeFirst(list []Constraint, target Constraint) []Constraint {
	for i, c := range list {
		if c == target {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// Reoptimize handles a constraint edit without a full re-search when
// possible. If the previous assignment still satisfies every hard constraint
// under the edited set, its soft cost is recomputed and it is returned as-is
// (Result.Reused). Otherwise a full search runs, warm-started with the
// previous seats as each student's first candidate so interactive edits
// tend to move as few students as possible.
func Reoptimize(ctx context.Context, layout *Layout, roster Roster, cs ConstraintSet, prev Solution, delta Delta, opts Options) (*Result, error) {
	start := time.Now()
	next := cs.apply(delta)

	if coversRoster(layout, roster, prev.Assignment) &&
		len(HardViolations(layout, next, prev.Assignment)) == 0 {
		sol := Solution{
			Assignment: maps.Clone(prev.Assignment),
			Cost:       SoftCost(layout, next.Soft, prev.Assignment),
			Feasible:   true,
		}
		return &Result{
			Status:    StatusFeasible,
			Solutions: []Solution{sol},
			Reused:    true,
			Elapsed:   time.Since(start),
		}, nil
	}

	opts.warmStart = warmSeats(layout, roster, prev.Assignment)
	return Optimize(ctx, layout, roster, next, opts)
}

// coversRoster reports whether the assignment seats every roster student in a
// distinct in-grid seat.
func coversRoster(l *Layout, roster Roster, a Assignment) bool {
	taken := make(map[int]bool, len(roster))
	for _, st := range roster {
		seat, ok := a[st.ID]
		if !ok {
			return false
		}
		i, ok := l.Index(seat)
		if !ok || taken[i] {
			return false
		}
		taken[i] = true
	}
	return true
}

func warmSeats(l *Layout, roster Roster, a Assignment) []int {
	warm := make([]int, len(roster))
	for i, st := range roster {
		warm[i] = -1
		if seat, ok := a[st.ID]; ok {
			if idx, in := l.Index(seat); in {
				warm[i] = idx
			}
		}
	}
	return warm
}
