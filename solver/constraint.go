package solver

import (
	"errors"
	"fmt"
)

// Constraint kinds. Hard kinds must hold in every feasible solution; soft
// kinds carry a weight added to a solution's cost when violated.
const (
	KindCannotSitAdjacent = "cannot_sit_adjacent"
	KindMustFrontRow      = "must_front_row"
	KindMustNearDoor      = "must_near_door"
	KindMustNearWindow    = "must_near_window"
	KindCannotNearWindow  = "cannot_near_window"
	KindCannotNearDoor    = "cannot_near_door"
	KindCannotBackRow     = "cannot_back_row"

	KindPrefersQuiet          = "prefers_quiet"
	KindWorksWellWith         = "works_well_with"
	KindNeedsTeacherProximity = "needs_teacher_proximity"
)

// DefaultSoftWeight applies to soft constraint records with no weight.
const DefaultSoftWeight = 1

var hardKinds = map[string]bool{
	KindCannotSitAdjacent: true,
	KindMustFrontRow:      true,
	KindMustNearDoor:      true,
	KindMustNearWindow:    true,
	KindCannotNearWindow:  true,
	KindCannotNearDoor:    true,
	KindCannotBackRow:     true,
}

var softKinds = map[string]bool{
	KindPrefersQuiet:          true,
	KindWorksWellWith:         true,
	KindNeedsTeacherProximity: true,
}

var pairKinds = map[string]bool{
	KindCannotSitAdjacent: true,
	KindWorksWellWith:     true,
}

type Student struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Roster []Student

func (r Roster) index() map[string]int {
	idx := make(map[string]int, len(r))
	for i, s := range r {
		idx[s.ID] = i
	}
	return idx
}

func (r Roster) Contains(id string) bool {
	for _, s := range r {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Record is the wire form of a constraint as produced by the upstream
// extraction layer. Single-student kinds use Student; pair kinds use
// StudentA/StudentB.
type Record struct {
	Kind     string `json:"kind"`
	Student  string `json:"student,omitempty"`
	StudentA string `json:"student_a,omitempty"`
	StudentB string `json:"student_b,omitempty"`
	Weight   int    `json:"weight,omitempty"`
}

// Constraint is a validated constraint referencing roster students. StudentB
// is empty for single-student kinds. Weight is zero for hard kinds.
type Constraint struct {
	Kind     string `json:"kind"`
	StudentA string `json:"student_a"`
	StudentB string `json:"student_b,omitempty"`
	Weight   int    `json:"weight,omitempty"`
}

func (c Constraint) Hard() bool { return hardKinds[c.Kind] }
func (c Constraint) Pair() bool { return pairKinds[c.Kind] }

func (c Constraint) String() string {
	if c.Pair() {
		return fmt.Sprintf("%s(%s,%s)", c.Kind, c.StudentA, c.StudentB)
	}
	return fmt.Sprintf("%s(%s)", c.Kind, c.StudentA)
}

// ConstraintSet holds hard and soft constraints in insertion order. Ordering
// is load-bearing: it drives tie-breaking and explanation ordering.
type ConstraintSet struct {
	Hard []Constraint
	Soft []Constraint
}

func (cs ConstraintSet) All() []Constraint {
	all := make([]Constraint, 0, len(cs.Hard)+len(cs.Soft))
	all = append(all, cs.Hard...)
	all = append(all, cs.Soft...)
	return all
}

var (
	ErrUnknownConstraintKind = errors.New("unknown constraint kind")
	ErrUnknownStudent        = errors.New("unknown student")
)

// ParseConstraint validates a record against the roster.
func ParseConstraint(rec Record, roster Roster) (Constraint, error) {
	if !hardKinds[rec.Kind] && !softKinds[rec.Kind] {
		return Constraint{}, fmt.Errorf("%w: %q", ErrUnknownConstraintKind, rec.Kind)
	}

	c := Constraint{Kind: rec.Kind}
	if pairKinds[rec.Kind] {
		c.StudentA = rec.StudentA
		c.StudentB = rec.StudentB
	} else {
		c.StudentA = rec.Student
		if c.StudentA == "" {
			c.StudentA = rec.StudentA
		}
	}

	if !roster.Contains(c.StudentA) {
		return Constraint{}, fmt.Errorf("%w: %q in %s", ErrUnknownStudent, c.StudentA, rec.Kind)
	}
	if c.Pair() && !roster.Contains(c.StudentB) {
		return Constraint{}, fmt.Errorf("%w: %q in %s", ErrUnknownStudent, c.StudentB, rec.Kind)
	}

	if softKinds[rec.Kind] {
		c.Weight = rec.Weight
		if c.Weight <= 0 {
			c.Weight = DefaultSoftWeight
		}
	}
	return c, nil
}

// ParseConstraints validates records in order, preserving insertion order
// within the hard and soft sequences.
func ParseConstraints(recs []Record, roster Roster) (ConstraintSet, error) {
	var cs ConstraintSet
	for _, rec := range recs {
		c, err := ParseConstraint(rec, roster)
		if err != nil {
			return ConstraintSet{}, err
		}
		if c.Hard() {
			cs.Hard = append(cs.Hard, c)
		} else {
			cs.Soft = append(cs.Soft, c)
		}
	}
	return cs, nil
}

// ValidationReport is the outcome of ValidateConstraints. Errors make the
// input unusable; warnings flag likely-infeasible or degenerate setups
// without running the solver.
type ValidationReport struct {
	Valid    bool           `json:"valid"`
	Errors   []string       `json:"errors"`
	Warnings []string       `json:"warnings"`
	Info     ValidationInfo `json:"info"`
}

type ValidationInfo struct {
	TotalSeats       int            `json:"total_seats"`
	Students         int            `json:"students"`
	SpareSeats       int            `json:"spare_seats"`
	ConstraintCounts map[string]int `json:"constraint_counts"`
}

// ValidateConstraints checks referential integrity of the records and reports
// capacity problems the layout makes apparent. It never runs the solver.
func ValidateConstraints(layout *Layout, roster Roster, recs []Record) ValidationReport {
	report := ValidationReport{
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
		Info: ValidationInfo{
			TotalSeats:       layout.NumSeats(),
			Students:         len(roster),
			SpareSeats:       layout.NumSeats() - len(roster),
			ConstraintCounts: map[string]int{},
		},
	}

	if len(roster) > layout.NumSeats() {
		report.Valid = false
		report.Errors = append(report.Errors, fmt.Sprintf(
			"not enough seats: %d students, %d seats", len(roster), layout.NumSeats()))
	}

	frontRowDemand := 0
	backRowExclusions := 0
	for _, rec := range recs {
		c, err := ParseConstraint(rec, roster)
		if err != nil {
			report.Valid = false
			report.Errors = append(report.Errors, err.Error())
			continue
		}
		report.Info.ConstraintCounts[c.Kind]++

		switch c.Kind {
		case KindMustFrontRow:
			frontRowDemand++
		case KindCannotBackRow:
			backRowExclusions++
		case KindMustNearDoor:
			if !hasAttr(layout.door) {
				report.Warnings = append(report.Warnings, fmt.Sprintf(
					"%s: no seat in this layout is near a door", c))
			}
		case KindMustNearWindow:
			if !hasAttr(layout.window) {
				report.Warnings = append(report.Warnings, fmt.Sprintf(
					"%s: no seat in this layout is near a window", c))
			}
		case KindCannotSitAdjacent, KindWorksWellWith:
			if c.StudentA == c.StudentB {
				report.Valid = false
				report.Errors = append(report.Errors, fmt.Sprintf(
					"%s references the same student twice", c))
			}
		case KindNeedsTeacherProximity:
			if !hasAttr(layout.teacher) {
				report.Warnings = append(report.Warnings, fmt.Sprintf(
					"%s: no seat in this layout is teacher-proximate", c))
			}
		}
	}

	if frontRowDemand > layout.Cols() {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"front row has %d seats but %d students require it", layout.Cols(), frontRowDemand))
	}
	nonBackSeats := (layout.Rows() - 1) * layout.Cols()
	if backRowExclusions+frontRowDemand > nonBackSeats {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"%d students avoid the back row but only %d non-back seats exist",
			backRowExclusions+frontRowDemand, nonBackSeats))
	}

	return report
}
