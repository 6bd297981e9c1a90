package solver

import "slices"

// Rank orders solutions by ascending cost, ties broken by discovery order.
// The input is left untouched; ranking an already-ranked sequence returns an
// identical sequence.
func Rank(sols []Solution) []Solution {
	ranked := slices.Clone(sols)
	slices.SortStableFunc(ranked, func(a, b Solution) int {
		if a.Cost != b.Cost {
			return a.Cost - b.Cost
		}
		return a.rank - b.rank
	})
	return ranked
}

// ConstraintReport states how one constraint fared under a solution. Weight
// and Cost are zero for hard constraints; Distance is the Chebyshev seat
// distance for pair constraints with both students seated.
type ConstraintReport struct {
	Constraint Constraint `json:"constraint"`
	Satisfied  bool       `json:"satisfied"`
	Weight     int        `json:"weight,omitempty"`
	Cost       int        `json:"cost,omitempty"`
	Distance   int        `json:"distance,omitempty"`
}

// Explanation is the structured rationale for a solution: which constraints
// hold and what each violated soft constraint contributes to the cost. It is
// data for a presentation layer to render, not prose.
type Explanation struct {
	Feasible bool               `json:"feasible"`
	Cost     int                `json:"cost"`
	Hard     []ConstraintReport `json:"hard"`
	Soft     []ConstraintReport `json:"soft"`
}

// Explain reports constraint-by-constraint, in constraint order, how the
// solution satisfies the hard set and where the soft cost comes from.
func Explain(l *Layout, sol Solution, cs ConstraintSet) Explanation {
	ex := Explanation{
		Feasible: sol.Feasible,
		Cost:     sol.Cost,
		Hard:     make([]ConstraintReport, 0, len(cs.Hard)),
		Soft:     make([]ConstraintReport, 0, len(cs.Soft)),
	}
	for _, c := range cs.Hard {
		ex.Hard = append(ex.Hard, ConstraintReport{
			Constraint: c,
			Satisfied:  !HardViolated(l, c, sol.Assignment),
			Distance:   pairDistance(c, sol.Assignment),
		})
	}
	for _, c := range cs.Soft {
		report := ConstraintReport{
			Constraint: c,
			Satisfied:  SoftSatisfied(l, c, sol.Assignment),
			Weight:     c.Weight,
			Distance:   pairDistance(c, sol.Assignment),
		}
		if !report.Satisfied {
			report.Cost = c.Weight
		}
		ex.Soft = append(ex.Soft, report)
	}
	return ex
}

func pairDistance(c Constraint, a Assignment) int {
	if !c.Pair() {
		return 0
	}
	sa, okA := a[c.StudentA]
	sb, okB := a[c.StudentB]
	if !okA || !okB {
		return 0
	}
	return max(abs(sa.Row-sb.Row), abs(sa.Col-sb.Col))
}

// Chart renders the assignment as a row-major grid, nil for empty seats.
func (sol Solution) Chart(l *Layout, roster Roster) [][]*Student {
	byID := make(map[string]*Student, len(roster))
	for i := range roster {
		byID[roster[i].ID] = &roster[i]
	}
	chart := make([][]*Student, l.Rows())
	for r := range chart {
		chart[r] = make([]*Student, l.Cols())
	}
	for id, seat := range sol.Assignment {
		if st, ok := byID[id]; ok && l.Contains(seat) {
			chart[seat.Row][seat.Col] = st
		}
	}
	return chart
}
