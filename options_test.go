package ccljson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsEnablesRelaxations(t *testing.T) {
	t.Parallel()

	o := DefaultOptions()
	require.True(t, o.AllowComments)
	require.True(t, o.AllowTrailingCommas)
	require.True(t, o.AllowUnquotedKeys)
	require.True(t, o.AllowSingleQuotes)
	require.True(t, o.ImplicitTopLevel)
	require.True(t, o.NewlineAsComma)
	require.True(t, o.AllowExtendedNumbers)
	require.Equal(t, 128, o.MaxDepth)
	require.False(t, o.EnableRepair)
}

func TestStrictDisablesEveryRelaxation(t *testing.T) {
	t.Parallel()

	o := Strict()
	require.False(t, o.AllowComments)
	require.False(t, o.AllowTrailingCommas)
	require.False(t, o.AllowUnquotedKeys)
	require.False(t, o.AllowSingleQuotes)
	require.False(t, o.ImplicitTopLevel)
	require.False(t, o.NewlineAsComma)
	require.False(t, o.AllowExtendedNumbers)
	require.Equal(t, 128, o.MaxDepth)
}

func TestDepthLimitedZeroMeansUnlimited(t *testing.T) {
	t.Parallel()

	o := Options{MaxDepth: 0}
	require.False(t, o.depthLimited(1))
	require.False(t, o.depthLimited(10_000))
}

func TestDepthLimitedRespectsMax(t *testing.T) {
	t.Parallel()

	o := Options{MaxDepth: 3}
	require.False(t, o.depthLimited(3))
	require.True(t, o.depthLimited(4))
}
