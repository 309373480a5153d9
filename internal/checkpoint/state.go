package checkpoint

// TimestampFormat is the layout of RunState.Timestamp.
const TimestampFormat = "2006-01-02 15:04:05"

// RunState is the persisted progress of a batch run. Only CharsGenerated
// and Cursor drive a resume; BudgetUsed is informational and recomputed.
type RunState struct {
	ItemsGenerated int     `json:"items_generated"`
	CharsGenerated int64   `json:"chars_generated"`
	Cursor         int     `json:"cursor"`
	BudgetUsed     float64 `json:"budget_used"`
	Timestamp      string  `json:"timestamp"`

	// Seed fixes the topic order so a resumed cursor points at the same item.
	Seed    uint64 `json:"seed,omitempty"`
	Catalog string `json:"catalog,omitempty"`
}

// Generated returns the state after an entry of chars characters was appended.
func (s RunState) Generated(chars int64) RunState {
	s.ItemsGenerated++
	s.CharsGenerated += chars
	s.Cursor++
	return s
}

// Attempted returns the state after a topic was tried without producing
// an entry.
func (s RunState) Attempted() RunState {
	s.Cursor++
	return s
}
