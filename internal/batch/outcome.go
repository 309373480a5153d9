package batch

// Outcome is the result of one generation step.
type Outcome int

const (
	// OutcomeGenerated means an entry was appended to the corpus.
	OutcomeGenerated Outcome = iota
	// OutcomeFailed means the request failed or returned nothing. The
	// topic counts as attempted unless the error is fatal.
	OutcomeFailed
	// OutcomeBudgetExhausted means the text would pass the cap. It is
	// discarded and the cursor stays put.
	OutcomeBudgetExhausted
	// OutcomeCancelled means ctx was cancelled before a result arrived.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGenerated:
		return "generated"
	case OutcomeFailed:
		return "failed"
	case OutcomeBudgetExhausted:
		return "budget_exhausted"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// StopReason explains why a run ended.
type StopReason string

const (
	StopBudgetExhausted StopReason = "budget_exhausted"
	StopCancelled       StopReason = "cancelled"
	StopMaxItems        StopReason = "max_items"
	StopError           StopReason = "error"
)

// Summary reports the state of the corpus when a run ends.
type Summary struct {
	StopReason StopReason

	// ItemsGenerated and CharsGenerated are totals across all runs.
	ItemsGenerated int
	CharsGenerated int64

	// ItemsThisRun and Failures count only the run that just ended.
	ItemsThisRun int
	Failures     int

	Cost           float64
	AverageChars   float64
	CorpusEntries  int
	RemainingChars int64
	Cap            int64
	Cursor         int
}
