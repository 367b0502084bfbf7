package ccljson

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseStrictObjectAndArray(t *testing.T) {
	t.Parallel()

	v, err := ParseWithOptions([]byte(`{"a": 1, "b": [true, false, null]}`), Strict())
	require.NoError(t, err)

	obj := NewObject()
	obj.Set("a", NumberValue(IntNumber(1)))
	obj.Set("b", ArrayValue([]Value{BoolValue(true), BoolValue(false), NullValue()}))
	want := ObjectValue(obj)

	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsTrailingDataUnderStrict(t *testing.T) {
	t.Parallel()

	_, err := ParseWithOptions([]byte(`1 2`), Strict())
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrUnexpectedToken, perr.Kind)
}

func TestParseDuplicateKeysLastWins(t *testing.T) {
	t.Parallel()

	v, err := ParseWithOptions([]byte(`{"a": 1, "a": 2}`), Strict())
	require.NoError(t, err)
	got, ok := v.Object().Get("a")
	require.True(t, ok)
	require.Equal(t, int64(2), got.Number().Int64())
	require.Equal(t, 1, v.Object().Len())
}

func TestParseTrailingCommaRequiresOption(t *testing.T) {
	t.Parallel()

	_, err := ParseWithOptions([]byte(`[1, 2,]`), Strict())
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrTrailingComma, perr.Kind)

	opts := Strict()
	opts.AllowTrailingCommas = true
	v, err := ParseWithOptions([]byte(`[1, 2,]`), opts)
	require.NoError(t, err)
	require.Len(t, v.Array(), 2)
}

func TestParseImplicitTopLevelObject(t *testing.T) {
	t.Parallel()

	v, err := ParseWithOptions([]byte(`a: 1, b: 2`), DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, KindObject, v.Kind())
	got, ok := v.Object().Get("a")
	require.True(t, ok)
	require.Equal(t, int64(1), got.Number().Int64())
}

func TestParseImplicitTopLevelArray(t *testing.T) {
	t.Parallel()

	v, err := ParseWithOptions([]byte(`1, 2, 3`), DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, KindArray, v.Kind())
	require.Len(t, v.Array(), 3)
}

func TestParseImplicitTopLevelSingleValueNotWrapped(t *testing.T) {
	t.Parallel()

	v, err := ParseWithOptions([]byte(`42`), DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, KindNumber, v.Kind())
}

func TestParseImplicitTopLevelEmptyInputIsEmptyObject(t *testing.T) {
	t.Parallel()

	v, err := ParseWithOptions([]byte(``), DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, KindObject, v.Kind())
	require.Equal(t, 0, v.Object().Len())
}

func TestParseAmbiguousKeyTokenFollowedByColonIsObject(t *testing.T) {
	t.Parallel()

	v, err := ParseWithOptions([]byte(`"a": 1`), DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, KindObject, v.Kind())
}

func TestParseAmbiguousKeyTokenNotFollowedByColonIsSequence(t *testing.T) {
	t.Parallel()

	v, err := ParseWithOptions([]byte(`1, 2`), DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, KindArray, v.Kind())
	require.Len(t, v.Array(), 2)
}

func TestParseSingleQuotedStrings(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.AllowSingleQuotes = true
	v, err := ParseWithOptions([]byte(`'hi'`), opts)
	require.NoError(t, err)
	require.Equal(t, "hi", v.Str())
}

func TestParseUnquotedKeys(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.AllowUnquotedKeys = true
	v, err := ParseWithOptions([]byte(`{foo: 1}`), opts)
	require.NoError(t, err)
	got, ok := v.Object().Get("foo")
	require.True(t, ok)
	require.Equal(t, int64(1), got.Number().Int64())
}

func TestParseNewlineAsComma(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.NewlineAsComma = true
	v, err := ParseWithOptions([]byte("[1\n2\n3]"), opts)
	require.NoError(t, err)
	require.Len(t, v.Array(), 3)
}

func TestParseComments(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.AllowComments = true
	v, err := ParseWithOptions([]byte("{\n  // a comment\n  \"a\": 1 /* inline */\n}"), opts)
	require.NoError(t, err)
	got, ok := v.Object().Get("a")
	require.True(t, ok)
	require.Equal(t, int64(1), got.Number().Int64())
}

func TestParseDepthExceeded(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.MaxDepth = 2
	_, err := ParseWithOptions([]byte(`[[[1]]]`), opts)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrDepthExceeded, perr.Kind)
}

func TestParseDepthZeroIsUnlimited(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.MaxDepth = 0
	deeplyNested := "[[[[[[[[[[1]]]]]]]]]]"
	_, err := ParseWithOptions([]byte(deeplyNested), opts)
	require.NoError(t, err)
}

func TestParseInvalidUTF8(t *testing.T) {
	t.Parallel()

	_, err := ParseWithOptions([]byte{'"', 0xff, '"'}, Strict())
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrInvalidUTF8, perr.Kind)
}

func TestParseUTF8StringPassthrough(t *testing.T) {
	t.Parallel()

	v, err := ParseWithOptions([]byte(`"😀"`), Strict())
	require.NoError(t, err)
	require.Equal(t, "\U0001F600", v.Str())
}

func TestParseSurrogatePairEscape(t *testing.T) {
	t.Parallel()

	v, err := ParseWithOptions([]byte(`"\uD83D\uDE00"`), Strict())
	require.NoError(t, err)
	require.Equal(t, "\U0001F600", v.Str())
}

func TestParseUnpairedSurrogateErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseWithOptions([]byte(`"\uD800"`), Strict())
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrInvalidUnicode, perr.Kind)
}

func TestParseFloatVsIntegerNumbers(t *testing.T) {
	t.Parallel()

	v, err := ParseWithOptions([]byte(`[1, 1.5, 1e10, -3]`), Strict())
	require.NoError(t, err)
	arr := v.Array()
	require.Equal(t, NumberInteger, arr[0].Number().Kind())
	require.Equal(t, NumberFloat, arr[1].Number().Kind())
	require.Equal(t, NumberFloat, arr[2].Number().Kind())
	require.Equal(t, NumberInteger, arr[3].Number().Kind())
	require.Equal(t, int64(-3), arr[3].Number().Int64())
}

func TestParseRadixExtendedNumbers(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.AllowExtendedNumbers = true
	v, err := ParseWithOptions([]byte(`0xFF`), opts)
	require.NoError(t, err)
	require.Equal(t, int64(255), v.Number().Int64())
}

func TestParseExpectColonError(t *testing.T) {
	t.Parallel()

	_, err := ParseWithOptions([]byte(`{"a" 1}`), Strict())
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrExpectedColon, perr.Kind)
}
