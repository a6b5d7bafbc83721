package domain

import "testing"

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to JobStatus
		allowed  bool
	}{
		{StatusQueued, StatusInProgress, true},
		{StatusQueued, StatusFailed, true},
		{StatusQueued, StatusDone, false},
		{StatusInProgress, StatusDone, true},
		{StatusInProgress, StatusFailed, true},
		{StatusInProgress, StatusQueued, false},
		{StatusDone, StatusFailed, false},
		{StatusDone, StatusInProgress, false},
		{StatusFailed, StatusDone, false},
		{StatusFailed, StatusQueued, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestTerminal(t *testing.T) {
	if StatusQueued.Terminal() || StatusInProgress.Terminal() {
		t.Fatalf("non-terminal status reported terminal")
	}
	if !StatusDone.Terminal() || !StatusFailed.Terminal() {
		t.Fatalf("terminal status not reported terminal")
	}
}

func TestCloneIsDeep(t *testing.T) {
	job := &Job{
		ID:         "job-1",
		Status:     StatusDone,
		SavedPaths: []string{"a.pdf"},
		Results: &JobResults{
			Found: []Finding{{File: "a.pdf", Type: LabelW2, Reasons: []string{"form w-2"}}},
			Summary: JobSummary{
				FoundTypes: []Label{LabelW2},
				FileCount:  1,
				Counts:     map[Label]int{LabelW2: 1},
			},
		},
	}

	clone := job.Clone()
	clone.SavedPaths[0] = "b.pdf"
	clone.Results.Found[0].Reasons[0] = "changed"
	clone.Results.Summary.Counts[LabelW2] = 99
	clone.Results.Summary.FoundTypes[0] = LabelURLA

	if job.SavedPaths[0] != "a.pdf" {
		t.Errorf("clone shares saved paths")
	}
	if job.Results.Found[0].Reasons[0] != "form w-2" {
		t.Errorf("clone shares finding reasons")
	}
	if job.Results.Summary.Counts[LabelW2] != 1 {
		t.Errorf("clone shares summary counts")
	}
	if job.Results.Summary.FoundTypes[0] != LabelW2 {
		t.Errorf("clone shares found types")
	}
}

func TestSignatureOrderMatchesLabels(t *testing.T) {
	sigs := DefaultSignatures()
	labels := Labels()
	if len(sigs) != len(labels) {
		t.Fatalf("signature count = %d, label count = %d", len(sigs), len(labels))
	}
	for i, sig := range sigs {
		if sig.Label != labels[i] {
			t.Errorf("signature[%d] = %s, want %s", i, sig.Label, labels[i])
		}
		if len(sig.Keywords) == 0 {
			t.Errorf("signature %s has no keywords", sig.Label)
		}
	}
	protos := DefaultPrototypes()
	for _, label := range labels {
		if len(protos[label]) == 0 {
			t.Errorf("label %s has no prototype texts", label)
		}
	}
}
