package ccljson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesOffsetAndKind(t *testing.T) {
	t.Parallel()

	err := newError(ErrInvalidNumber, 12, "bad digit %q", 'x')
	require.Equal(t, `offset 12: InvalidNumber: bad digit 'x'`, err.Error())
	require.Equal(t, 12, err.Offset)
	require.Equal(t, ErrInvalidNumber, err.Kind)
}

func TestErrKindStringUnknown(t *testing.T) {
	t.Parallel()

	require.Contains(t, ErrKind(999).String(), "ErrKind(999)")
}

func TestErrorSatisfiesErrorInterface(t *testing.T) {
	t.Parallel()

	var err error = newError(ErrUnexpectedChar, 0, "boom")
	require.EqualError(t, err, "offset 0: UnexpectedChar: boom")
}
