package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func assignKey(a Assignment) string {
	// Stable enough for set membership in tests.
	out := ""
	for _, id := range []string{"a", "b", "c", "x", "y", "z"} {
		if seat, ok := a[id]; ok {
			out += id + seat.String() + ";"
		}
	}
	return out
}

func TestOptimizeDeterministic(t *testing.T) {
	l := mustLayout(t, 2, 3, LayoutConfig{})
	roster := testRoster("a", "b", "c")
	cs := ConstraintSet{
		Hard: []Constraint{{Kind: KindMustFrontRow, StudentA: "a"}},
		Soft: []Constraint{{Kind: KindWorksWellWith, StudentA: "b", StudentB: "c", Weight: 2}},
	}

	first, err := Optimize(context.Background(), l, roster, cs, Options{})
	require.NoError(t, err)
	second, err := Optimize(context.Background(), l, roster, cs, Options{})
	require.NoError(t, err)

	require.Equal(t, first.Status, second.Status)
	require.Equal(t, first.Solutions, second.Solutions)
	require.Equal(t, first.Nodes, second.Nodes)
}

func TestOptimizeSolutionsAreFeasible(t *testing.T) {
	l := mustLayout(t, 2, 3, LayoutConfig{})
	roster := testRoster("a", "b", "c")
	cs := ConstraintSet{
		Hard: []Constraint{
			{Kind: KindCannotSitAdjacent, StudentA: "a", StudentB: "b"},
			{Kind: KindCannotBackRow, StudentA: "c"},
		},
		Soft: []Constraint{{Kind: KindPrefersQuiet, StudentA: "a", Weight: 1}},
	}

	res, err := Optimize(context.Background(), l, roster, cs, Options{MaxSolutions: 5})
	require.NoError(t, err)
	require.Equal(t, StatusFeasible, res.Status)
	require.True(t, res.Complete)
	require.NotEmpty(t, res.Solutions)

	for i, sol := range res.Solutions {
		require.True(t, sol.Feasible)
		require.Empty(t, HardViolations(l, cs, sol.Assignment), "solution %d", i)
		require.Equal(t, SoftCost(l, cs.Soft, sol.Assignment), sol.Cost)
		if i > 0 {
			require.GreaterOrEqual(t, sol.Cost, res.Solutions[i-1].Cost)
		}
	}
}

func TestOptimizeSingleRowFrontAndBack(t *testing.T) {
	// A single row is both the front and the back row.
	l := mustLayout(t, 1, 2, LayoutConfig{})
	roster := testRoster("a", "b")
	cs := ConstraintSet{Hard: []Constraint{
		{Kind: KindMustFrontRow, StudentA: "a"},
		{Kind: KindMustFrontRow, StudentA: "b"},
	}}

	res, err := Optimize(context.Background(), l, roster, cs, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusFeasible, res.Status)
}

func TestOptimizeInfeasible(t *testing.T) {
	l := mustLayout(t, 1, 2, LayoutConfig{})
	roster := testRoster("a", "b")
	cs := ConstraintSet{Hard: []Constraint{
		{Kind: KindCannotSitAdjacent, StudentA: "a", StudentB: "b"},
	}}

	res, err := Optimize(context.Background(), l, roster, cs, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusInfeasible, res.Status)
	require.True(t, res.Complete)
	require.Empty(t, res.Solutions)
}

func TestOptimizeInfeasibleNoDoor(t *testing.T) {
	l := mustLayout(t, 2, 2, LayoutConfig{DoorColumns: []int{}})
	roster := testRoster("a")
	cs := ConstraintSet{Hard: []Constraint{
		{Kind: KindMustNearDoor, StudentA: "a"},
	}}

	res, err := Optimize(context.Background(), l, roster, cs, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusInfeasible, res.Status)
	require.True(t, res.Complete)
}

func TestOptimizeRosterLargerThanGrid(t *testing.T) {
	l := mustLayout(t, 1, 2, LayoutConfig{})
	roster := testRoster("a", "b", "c")

	res, err := Optimize(context.Background(), l, roster, ConstraintSet{}, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusInfeasible, res.Status)
	require.True(t, res.Complete)
	require.Zero(t, res.Nodes)
}

func TestOptimizeEmptyRoster(t *testing.T) {
	l := mustLayout(t, 2, 2, LayoutConfig{})

	res, err := Optimize(context.Background(), l, nil, ConstraintSet{}, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusFeasible, res.Status)
	require.Len(t, res.Solutions, 1)
	require.Empty(t, res.Solutions[0].Assignment)
	require.Zero(t, res.Solutions[0].Cost)
}

func TestOptimizeSoftGuidesSearch(t *testing.T) {
	l := mustLayout(t, 1, 3, LayoutConfig{TeacherSeats: []Seat{{Row: 0, Col: 0}}})
	roster := testRoster("x", "y", "z")
	cs := ConstraintSet{Soft: []Constraint{
		{Kind: KindNeedsTeacherProximity, StudentA: "x", Weight: 1},
	}}

	res, err := Optimize(context.Background(), l, roster, cs, Options{MaxSolutions: 6})
	require.NoError(t, err)
	require.Equal(t, StatusFeasible, res.Status)
	require.Equal(t, Seat{Row: 0, Col: 0}, res.Solutions[0].Assignment["x"])
	require.Zero(t, res.Solutions[0].Cost)

	// 3! arrangements total, of which 2 put x at the teacher seat.
	require.Len(t, res.Solutions, 6)
	require.Zero(t, res.Solutions[1].Cost)
	require.Equal(t, 1, res.Solutions[2].Cost)
}

func TestOptimizeBudgetExhausted(t *testing.T) {
	l := mustLayout(t, 2, 2, LayoutConfig{})
	roster := testRoster("a", "b")

	res, err := Optimize(context.Background(), l, roster, ConstraintSet{}, Options{NodeBudget: 1})
	require.NoError(t, err)
	require.Equal(t, StatusBudgetExhausted, res.Status)
	require.False(t, res.Complete)
	require.Empty(t, res.Solutions)
	require.Equal(t, 1, res.Nodes)
}

func TestOptimizeCanceledContext(t *testing.T) {
	l := mustLayout(t, 2, 2, LayoutConfig{})
	roster := testRoster("a", "b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Optimize(ctx, l, roster, ConstraintSet{}, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusBudgetExhausted, res.Status)
	require.False(t, res.Complete)
}

func TestOptimizeHardConstraintsPrune(t *testing.T) {
	l := mustLayout(t, 2, 2, LayoutConfig{})
	roster := testRoster("a", "b", "c")

	free, err := Optimize(context.Background(), l, roster, ConstraintSet{}, Options{MaxSolutions: 100})
	require.NoError(t, err)
	require.Len(t, free.Solutions, 24)

	cs := ConstraintSet{Hard: []Constraint{
		{Kind: KindCannotBackRow, StudentA: "a"},
	}}
	bound, err := Optimize(context.Background(), l, roster, cs, Options{MaxSolutions: 100})
	require.NoError(t, err)
	require.Len(t, bound.Solutions, 12)

	// Adding a hard constraint only removes arrangements.
	freeKeys := map[string]bool{}
	for _, sol := range free.Solutions {
		freeKeys[assignKey(sol.Assignment)] = true
	}
	seen := map[string]bool{}
	for _, sol := range bound.Solutions {
		key := assignKey(sol.Assignment)
		require.True(t, freeKeys[key])
		require.False(t, seen[key], "duplicate arrangement")
		seen[key] = true
		require.NotEqual(t, 1, sol.Assignment["a"].Row)
	}
}

func TestOptimizeParallelMatchesSequential(t *testing.T) {
	l := mustLayout(t, 2, 3, LayoutConfig{})
	roster := testRoster("a", "b", "c")
	cs := ConstraintSet{
		Hard: []Constraint{{Kind: KindCannotSitAdjacent, StudentA: "a", StudentB: "b"}},
		Soft: []Constraint{
			{Kind: KindPrefersQuiet, StudentA: "a", Weight: 2},
			{Kind: KindWorksWellWith, StudentA: "b", StudentB: "c", Weight: 1},
		},
	}

	seq, err := Optimize(context.Background(), l, roster, cs, Options{MaxSolutions: 5, Workers: 1})
	require.NoError(t, err)
	par, err := Optimize(context.Background(), l, roster, cs, Options{MaxSolutions: 5, Workers: 3})
	require.NoError(t, err)

	require.Equal(t, seq.Status, par.Status)
	require.Equal(t, seq.Solutions, par.Solutions)
}
