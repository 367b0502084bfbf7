package ccljson

import (
	"testing"

	"github.com/alecthomas/repr"
	"github.com/stretchr/testify/require"
)

// requireRepairs checks repairs against the expected kinds in order,
// dumping the full record list with repr on mismatch (grounded on
// vippsas-sqlcode's sqltest/querydump.go use of repr.String for readable
// failure output).
func requireRepairs(t *testing.T, repairs []RepairRecord, want ...RepairKind) {
	t.Helper()
	if len(repairs) != len(want) {
		t.Fatalf("expected %d repairs, got %d:\n%s", len(want), len(repairs), repr.String(repairs))
	}
	for i, k := range want {
		if repairs[i].Kind != k {
			t.Fatalf("repair %d: want %s, got %s:\n%s", i, k, repairs[i].Kind, repr.String(repairs))
		}
	}
}

func TestRepairMissingSeparator(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.EnableRepair = true
	opts.ReportRepairs = true

	v, repairs, err := ParseWithRepairs([]byte(`[1 2]`), opts)
	require.NoError(t, err)
	require.Len(t, v.Array(), 2)
	requireRepairs(t, repairs, RepairMissingSeparator)
}

func TestRepairMissingClose(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.EnableRepair = true
	opts.ReportRepairs = true

	v, repairs, err := ParseWithRepairs([]byte(`[1, 2`), opts)
	require.NoError(t, err)
	require.Len(t, v.Array(), 2)
	requireRepairs(t, repairs, RepairMissingClose)
}

func TestRepairUnterminatedString(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.EnableRepair = true
	opts.ReportRepairs = true

	v, repairs, err := ParseWithRepairs([]byte(`"abc`), opts)
	require.NoError(t, err)
	require.Equal(t, "abc", v.Str())
	requireRepairs(t, repairs, RepairUnterminatedString)
}

func TestRepairMissingColon(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.EnableRepair = true
	opts.ReportRepairs = true

	v, repairs, err := ParseWithRepairs([]byte(`{"a" 1}`), opts)
	require.NoError(t, err)
	got, ok := v.Object().Get("a")
	require.True(t, ok)
	require.Equal(t, int64(1), got.Number().Int64())
	requireRepairs(t, repairs, RepairMissingColon)
}

func TestRepairStrayClosingBracket(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.EnableRepair = true
	opts.ReportRepairs = true

	v, repairs, err := ParseWithRepairs([]byte(`]1`), opts)
	require.NoError(t, err)
	require.Equal(t, int64(1), v.Number().Int64())
	requireRepairs(t, repairs, RepairStrayClosingBracket)
}

func TestRepairBarewordAsValue(t *testing.T) {
	t.Parallel()

	opts := Options{ImplicitTopLevel: true, EnableRepair: true, ReportRepairs: true}

	v, repairs, err := ParseWithRepairs([]byte(`foo`), opts)
	require.NoError(t, err)
	require.Equal(t, "foo", v.Str())
	requireRepairs(t, repairs, RepairBarewordAsValue)
}

func TestRepairFastRepairRestrictsToLocalFixes(t *testing.T) {
	t.Parallel()

	opts := Options{ImplicitTopLevel: true, EnableRepair: true, FastRepair: true}

	_, _, err := ParseWithRepairs([]byte(`foo`), opts)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrUnexpectedToken, perr.Kind)

	opts2 := Strict()
	opts2.EnableRepair = true
	opts2.FastRepair = true
	v, _, err := ParseWithRepairs([]byte(`[1 2]`), opts2)
	require.NoError(t, err)
	require.Len(t, v.Array(), 2)
}

func TestRepairMaxRepairsAllowsExactCount(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.EnableRepair = true
	opts.MaxRepairs = 2
	opts.ReportRepairs = true

	v, repairs, err := ParseWithRepairs([]byte(`[1 2 3]`), opts)
	require.NoError(t, err)
	require.Len(t, v.Array(), 3)
	requireRepairs(t, repairs, RepairMissingSeparator, RepairMissingSeparator)
}

func TestRepairMaxRepairsExceeded(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.EnableRepair = true
	opts.MaxRepairs = 2

	_, _, err := ParseWithRepairs([]byte(`[1 2 3 4]`), opts)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrUnexpectedToken, perr.Kind)
}

func TestRepairDisabledReturnsOriginalError(t *testing.T) {
	t.Parallel()

	_, _, err := ParseWithRepairs([]byte(`[1 2]`), Strict())
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrUnexpectedToken, perr.Kind)
}

func TestRepairKindString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "MissingSeparator", RepairMissingSeparator.String())
	require.Contains(t, RepairKind(99).String(), "RepairKind(99)")
}

func TestRepairStateNilIsSafe(t *testing.T) {
	t.Parallel()

	var r *repairState
	require.False(t, r.apply(RepairMissingSeparator, 0, "noop"))
}
