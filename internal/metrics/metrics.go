// Package metrics records splitter activity.
package metrics

// Split attempt outcomes.
const (
	ResultHandled    = "handled"
	ResultNoop       = "noop"
	ResultPartial    = "partial"
	ResultNotHandled = "not_handled"
	ResultBlocked    = "blocked"
)

// Collector receives splitter measurements.
type Collector interface {
	// RecordSplit records one deposit attempt. slots and moved are zero for
	// attempts that were not handled.
	RecordSplit(result string, slots int, moved int)
	// RecordEstimate records one estimate recompute.
	RecordEstimate()
}

// Nop discards all measurements.
type Nop struct{}

var _ Collector = Nop{}

func NewNop() Nop { return Nop{} }

func (Nop) RecordSplit(string, int, int) {}
func (Nop) RecordEstimate()              {}
