package checkpoint

import "testing"

func TestRunStateTransitions(t *testing.T) {
	s := RunState{ItemsGenerated: 1, CharsGenerated: 60, Cursor: 1}

	next := s.Generated(40)
	if next.ItemsGenerated != 2 || next.CharsGenerated != 100 || next.Cursor != 2 {
		t.Fatalf("Generated: unexpected state %+v", next)
	}
	if s.ItemsGenerated != 1 || s.CharsGenerated != 60 || s.Cursor != 1 {
		t.Fatalf("Generated mutated receiver: %+v", s)
	}

	tried := next.Attempted()
	if tried.ItemsGenerated != 2 || tried.CharsGenerated != 100 || tried.Cursor != 3 {
		t.Fatalf("Attempted: unexpected state %+v", tried)
	}
}

func TestCorpusRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
	}{
		{"empty", []string{}},
		{"single", []string{"only"}},
		{"multi", []string{"one", "two\n\nparagraph", "three EOS"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitCorpus(JoinCorpus(tt.entries))
			if len(got) != len(tt.entries) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.entries))
			}
			for i := range got {
				if got[i] != tt.entries[i] {
					t.Fatalf("entry %d = %q, want %q", i, got[i], tt.entries[i])
				}
			}
		})
	}
}

func TestSplitCorpus_SeparatorInsideEntryOverSplits(t *testing.T) {
	got := SplitCorpus(JoinCorpus([]string{"a" + Separator + "b"}))
	if len(got) != 2 {
		t.Fatalf("expected the documented over-split into 2 entries, got %d", len(got))
	}
}
