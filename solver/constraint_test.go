package solver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testRoster(ids ...string) Roster {
	r := make(Roster, len(ids))
	for i, id := range ids {
		r[i] = Student{ID: id, Name: id}
	}
	return r
}

func TestParseConstraint(t *testing.T) {
	roster := testRoster("a", "b")

	c, err := ParseConstraint(Record{Kind: KindMustFrontRow, Student: "a"}, roster)
	require.NoError(t, err)
	require.Equal(t, Constraint{Kind: KindMustFrontRow, StudentA: "a"}, c)
	require.True(t, c.Hard())
	require.False(t, c.Pair())

	c, err = ParseConstraint(Record{Kind: KindCannotSitAdjacent, StudentA: "a", StudentB: "b"}, roster)
	require.NoError(t, err)
	require.True(t, c.Hard())
	require.True(t, c.Pair())
	require.Equal(t, "b", c.StudentB)

	c, err = ParseConstraint(Record{Kind: KindPrefersQuiet, Student: "b"}, roster)
	require.NoError(t, err)
	require.False(t, c.Hard())
	require.Equal(t, DefaultSoftWeight, c.Weight)

	c, err = ParseConstraint(Record{Kind: KindWorksWellWith, StudentA: "a", StudentB: "b", Weight: 5}, roster)
	require.NoError(t, err)
	require.Equal(t, 5, c.Weight)
}

func TestParseConstraintErrors(t *testing.T) {
	roster := testRoster("a", "b")

	_, err := ParseConstraint(Record{Kind: "must_sit_quietly", Student: "a"}, roster)
	require.ErrorIs(t, err, ErrUnknownConstraintKind)

	_, err = ParseConstraint(Record{Kind: KindMustFrontRow, Student: "zz"}, roster)
	require.ErrorIs(t, err, ErrUnknownStudent)

	_, err = ParseConstraint(Record{Kind: KindCannotSitAdjacent, StudentA: "a", StudentB: "zz"}, roster)
	require.ErrorIs(t, err, ErrUnknownStudent)
}

func TestParseConstraintsPreservesOrder(t *testing.T) {
	roster := testRoster("a", "b", "c")
	cs, err := ParseConstraints([]Record{
		{Kind: KindPrefersQuiet, Student: "c"},
		{Kind: KindMustFrontRow, Student: "a"},
		{Kind: KindWorksWellWith, StudentA: "a", StudentB: "b"},
		{Kind: KindCannotBackRow, Student: "b"},
	}, roster)
	require.NoError(t, err)

	require.Len(t, cs.Hard, 2)
	require.Equal(t, KindMustFrontRow, cs.Hard[0].Kind)
	require.Equal(t, KindCannotBackRow, cs.Hard[1].Kind)

	require.Len(t, cs.Soft, 2)
	require.Equal(t, KindPrefersQuiet, cs.Soft[0].Kind)
	require.Equal(t, KindWorksWellWith, cs.Soft[1].Kind)

	require.Len(t, cs.All(), 4)
}

func TestValidateConstraintsReferentialIntegrity(t *testing.T) {
	layout := mustLayout(t, 2, 2, LayoutConfig{})
	roster := testRoster("a", "b")

	report := ValidateConstraints(layout, roster, []Record{
		{Kind: KindMustFrontRow, Student: "ghost"},
		{Kind: "sit_wherever", Student: "a"},
		{Kind: KindCannotSitAdjacent, StudentA: "a", StudentB: "a"},
	})
	require.False(t, report.Valid)
	require.Len(t, report.Errors, 3)
}

func TestValidateConstraintsCapacity(t *testing.T) {
	layout := mustLayout(t, 2, 1, LayoutConfig{})
	roster := testRoster("a", "b", "c")

	report := ValidateConstraints(layout, roster, nil)
	require.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	require.Equal(t, 2, report.Info.TotalSeats)
	require.Equal(t, 3, report.Info.Students)
	require.Equal(t, -1, report.Info.SpareSeats)
}

func TestValidateConstraintsWarnings(t *testing.T) {
	layout := mustLayout(t, 2, 1, LayoutConfig{})
	roster := testRoster("a", "b")

	report := ValidateConstraints(layout, roster, []Record{
		{Kind: KindMustFrontRow, Student: "a"},
		{Kind: KindMustFrontRow, Student: "b"},
	})
	require.True(t, report.Valid)
	require.NotEmpty(t, report.Warnings)
	require.Equal(t, 2, report.Info.ConstraintCounts[KindMustFrontRow])

	noDoor := mustLayout(t, 2, 2, LayoutConfig{DoorColumns: []int{}})
	report = ValidateConstraints(noDoor, roster, []Record{
		{Kind: KindMustNearDoor, Student: "a"},
	})
	require.True(t, report.Valid)
	require.Len(t, report.Warnings, 1)
}
