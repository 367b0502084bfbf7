package ccljson

import "fmt"

// RepairKind enumerates the bounded repair sites of spec §4.5.
type RepairKind int

const (
	// RepairMissingSeparator covers a missing ',' or newline between two
	// entries or elements.
	RepairMissingSeparator RepairKind = iota
	// RepairMissingClose covers one or more missing closing brackets at EOF.
	RepairMissingClose
	// RepairUnterminatedString covers a string literal never closed
	// before EOF; it is closed with whatever content preceded EOF.
	RepairUnterminatedString
	// RepairMissingColon covers a missing ':' between a key and its value.
	RepairMissingColon
	// RepairStrayClosingBracket covers an extra '}' or ']' appearing
	// where a value was expected.
	RepairStrayClosingBracket
	// RepairBarewordAsValue covers an unquoted identifier used as a value
	// where AllowUnquotedKeys would otherwise forbid it.
	RepairBarewordAsValue
)

func (k RepairKind) String() string {
	switch k {
	case RepairMissingSeparator:
		return "MissingSeparator"
	case RepairMissingClose:
		return "MissingClose"
	case RepairUnterminatedString:
		return "UnterminatedString"
	case RepairMissingColon:
		return "MissingColon"
	case RepairStrayClosingBracket:
		return "StrayClosingBracket"
	case RepairBarewordAsValue:
		return "BarewordAsValue"
	default:
		return fmt.Sprintf("RepairKind(%d)", int(k))
	}
}

// fast reports whether k is one of the four O(1) local repairs FastRepair
// restricts itself to, per spec §4.5.
func (k RepairKind) fast() bool {
	switch k {
	case RepairMissingSeparator, RepairMissingClose, RepairUnterminatedString, RepairMissingColon:
		return true
	default:
		return false
	}
}

// RepairRecord describes one repair applied to a document.
type RepairRecord struct {
	Offset      int
	Kind        RepairKind
	Description string
}

// repairState tracks repair budget and, when requested, the ordered log
// of repairs applied to a single parse. A nil *repairState means repair
// is disabled; apply always returns false on a nil receiver so call sites
// can write `if p.repair.apply(...)` unconditionally.
type repairState struct {
	opts    Options
	records []RepairRecord
	count   int
}

func newRepairState(opts Options) *repairState {
	return &repairState{opts: opts}
}

// apply reports whether a repair of kind may be applied at offset, and if
// so records it (when ReportRepairs is set) and counts it against
// MaxRepairs.
func (r *repairState) apply(kind RepairKind, offset int, desc string) bool {
	if r == nil {
		return false
	}
	if r.opts.FastRepair && !kind.fast() {
		return false
	}
	if r.opts.MaxRepairs > 0 && r.count >= r.opts.MaxRepairs {
		return false
	}
	r.count++
	if r.opts.ReportRepairs {
		r.records = append(r.records, RepairRecord{Offset: offset, Kind: kind, Description: desc})
	}
	return true
}
