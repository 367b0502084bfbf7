package ccljson

// Options is a plain configuration record controlling which relaxations
// beyond strict RFC 8259 JSON the lexer and parser accept. An Options
// value is built once (typically via DefaultOptions or Strict) and
// threaded down through lexer and parser constructors — grounded on
// vippsas-sqlcode's per-document pragma structs (sqlparser/pragma.go),
// not a package-level global.
//
// The informative, out-of-core CLI surface described by the forgiving
// JSON specification maps one flag per field below, e.g.:
//
//	--no-comments          -> AllowComments = false
//	--no-trailing-commas   -> AllowTrailingCommas = false
//	--no-unquoted-keys     -> AllowUnquotedKeys = false
//	--no-single-quotes     -> AllowSingleQuotes = false
//	--no-implicit-top      -> ImplicitTopLevel = false
//	--no-newline-comma     -> NewlineAsComma = false
//	--no-extended-numbers  -> AllowExtendedNumbers = false
//	--max-depth=N          -> MaxDepth = N
//	--repair               -> EnableRepair = true
//	--max-repairs=N        -> MaxRepairs = N
//	--fast-repair          -> FastRepair = true
//	--report-repairs       -> ReportRepairs = true
//
// This module does not ship that CLI: spec.md places command-line
// drivers out of scope as an external collaborator.
type Options struct {
	// AllowComments accepts "// ...\n", "# ...\n" and "/* ... */" as
	// whitespace-equivalent.
	AllowComments bool

	// AllowTrailingCommas accepts a comma immediately before '}' or ']'.
	AllowTrailingCommas bool

	// AllowUnquotedKeys lets identifier-like object keys go unquoted.
	AllowUnquotedKeys bool

	// AllowSingleQuotes treats '...' as a string literal with the same
	// escape rules as "...".
	AllowSingleQuotes bool

	// ImplicitTopLevel lets the top-level document omit its wrapping
	// '{...}' or '[...]'.
	ImplicitTopLevel bool

	// NewlineAsComma treats a bare newline outside strings/comments as
	// an array/object element separator.
	NewlineAsComma bool

	// AllowExtendedNumbers accepts leading '.', trailing '.', an
	// explicit leading '+', '_' digit separators, and 0x/0o/0b radix
	// prefixes. Spec.md bundles these as a single relaxation (see
	// SPEC_FULL.md §6.1, Open Question #4) rather than naming one flag apiece.
	AllowExtendedNumbers bool

	// MaxDepth is a hard cap on nested container depth; exceeding it
	// fails with ErrDepthExceeded. Zero means unlimited.
	MaxDepth int

	// EnableRepair attempts bounded recovery on otherwise-fatal errors.
	EnableRepair bool

	// MaxRepairs caps the number of repair operations applied to a
	// single document. Zero means unlimited (subject only to input size).
	MaxRepairs int

	// FastRepair restricts repair to the four O(1) local fixes,
	// skipping the remaining heuristics.
	FastRepair bool

	// ReportRepairs makes the parser return the ordered list of applied
	// repairs alongside the parsed value.
	ReportRepairs bool
}

// DefaultOptions returns the library default: every relaxation on,
// MaxDepth 128, repair off — spec.md §4.1's defaults table.
func DefaultOptions() Options {
	return Options{
		AllowComments:         true,
		AllowTrailingCommas:   true,
		AllowUnquotedKeys:     true,
		AllowSingleQuotes:     true,
		ImplicitTopLevel:      true,
		NewlineAsComma:        true,
		AllowExtendedNumbers:  true,
		MaxDepth:              128,
		EnableRepair:          false,
		MaxRepairs:            0,
		FastRepair:            false,
		ReportRepairs:         false,
	}
}

// Strict returns an Options with every relaxation disabled: the lexer and
// parser then accept only RFC 8259 JSON, with MaxDepth still capped at
// 128. This is the baseline used by the strict-JSON equivalence property
// (spec.md §8, property 1).
func Strict() Options {
	return Options{MaxDepth: 128}
}

// depthLimited reports whether d exceeds the configured MaxDepth. A
// MaxDepth of zero disables the check.
func (o Options) depthLimited(d int) bool {
	return o.MaxDepth > 0 && d > o.MaxDepth
}
