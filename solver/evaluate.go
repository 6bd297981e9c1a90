package solver

// Assignment maps student IDs to seats. During search the engine works on a
// denser index-based form; this is the form callers see.
type Assignment map[string]Seat

// violatesHardSeats evaluates one hard constraint against a possibly partial
// assignment expressed as seat indices (-1 for unseated). A constraint is
// only evaluable once every student it references is seated; undetermined
// constraints never count as violated.
func violatesHardSeats(l *Layout, c compiled, assign []int) bool {
	sa := assign[c.a]
	if sa < 0 {
		return false
	}
	switch c.kind {
	case KindCannotSitAdjacent:
		sb := assign[c.b]
		if sb < 0 {
			return false
		}
		return l.adjacentIdx(sa, sb)
	case KindMustFrontRow:
		return !l.front[sa]
	case KindMustNearDoor:
		return !l.door[sa]
	case KindMustNearWindow:
		return !l.window[sa]
	case KindCannotNearWindow:
		return l.window[sa]
	case KindCannotNearDoor:
		return l.door[sa]
	case KindCannotBackRow:
		return l.back[sa]
	}
	return false
}

// softViolatedSeats evaluates one soft constraint against a complete
// assignment in seat-index form.
func softViolatedSeats(l *Layout, c compiled, assign []int) bool {
	sa := assign[c.a]
	if sa < 0 {
		return false
	}
	switch c.kind {
	case KindPrefersQuiet:
		return !l.quiet[sa]
	case KindWorksWellWith:
		sb := assign[c.b]
		if sb < 0 {
			return false
		}
		return !l.adjacentIdx(sa, sb)
	case KindNeedsTeacherProximity:
		return !l.teacher[sa]
	}
	return false
}

func softCostSeats(l *Layout, soft []compiled, assign []int) int {
	cost := 0
	for _, c := range soft {
		if softViolatedSeats(l, c, assign) {
			cost += c.weight
		}
	}
	return cost
}

// HardViolated evaluates one hard constraint against an assignment. Pair
// constraints are undetermined (and so not violated) unless both students are
// seated; single-student constraints unless that student is seated.
func HardViolated(l *Layout, c Constraint, a Assignment) bool {
	sa, ok := a[c.StudentA]
	if !ok {
		return false
	}
	switch c.Kind {
	case KindCannotSitAdjacent:
		sb, ok := a[c.StudentB]
		if !ok {
			return false
		}
		return l.Adjacent(sa, sb)
	case KindMustFrontRow:
		return !l.IsFrontRow(sa)
	case KindMustNearDoor:
		return !l.NearDoor(sa)
	case KindMustNearWindow:
		return !l.NearWindow(sa)
	case KindCannotNearWindow:
		return l.NearWindow(sa)
	case KindCannotNearDoor:
		return l.NearDoor(sa)
	case KindCannotBackRow:
		return l.IsBackRow(sa)
	}
	return false
}

// HardViolations returns every hard constraint the assignment violates, in
// constraint order.
func HardViolations(l *Layout, cs ConstraintSet, a Assignment) []Constraint {
	var violated []Constraint
	for _, c := range cs.Hard {
		if HardViolated(l, c, a) {
			violated = append(violated, c)
		}
	}
	return violated
}

// SoftSatisfied reports whether a soft constraint holds under a complete
// assignment.
func SoftSatisfied(l *Layout, c Constraint, a Assignment) bool {
	sa, ok := a[c.StudentA]
	if !ok {
		return false
	}
	switch c.Kind {
	case KindPrefersQuiet:
		return l.Quiet(sa)
	case KindWorksWellWith:
		sb, ok := a[c.StudentB]
		return ok && l.Adjacent(sa, sb)
	case KindNeedsTeacherProximity:
		return l.TeacherProximate(sa)
	}
	return false
}

// SoftCost sums the weights of soft constraints the complete assignment does
// not satisfy.
func SoftCost(l *Layout, soft []Constraint, a Assignment) int {
	cost := 0
	for _, c := range soft {
		if !SoftSatisfied(l, c, a) {
			cost += c.Weight
		}
	}
	return cost
}
