package usecase

import (
	"context"
	"errors"
	"testing"

	"voicetask/internal/domain"
)

func TestTranscriptSubmitterAttachesSelection(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{result: domain.SubmissionResult{OK: true, CreatedItemID: "1"}}
	selection := &fakeSelection{selection: domain.Selection{
		Assignee: &domain.Assignee{ID: "43918785", Name: "Peter Ippolito"},
		Sprint:   &domain.Sprint{ID: "s1"},
		Group:    &domain.Group{ID: "g1"},
	}}

	submitter := newTranscriptSubmitter(gateway, selection)
	result, err := submitter.Submit(context.Background(), "Fix login bug, priority high")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.CreatedItemID != "1" {
		t.Fatalf("unexpected result: %+v", result)
	}

	subs := gateway.snapshot()
	if len(subs) != 1 {
		t.Fatalf("expected one gateway call, got %d", len(subs))
	}
	want := domain.Submission{Text: "Fix login bug, priority high", UserID: "43918785", Username: "Peter Ippolito", Sprint: "s1", GroupID: "g1"}
	if subs[0] != want {
		t.Fatalf("unexpected submission: %+v", subs[0])
	}
}

func TestTranscriptSubmitterRejectsEmptyText(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{}
	submitter := newTranscriptSubmitter(gateway, nil)

	_, err := submitter.Submit(context.Background(), "  ")
	if !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected missing field error, got %v", err)
	}
	if len(gateway.snapshot()) != 0 {
		t.Fatalf("gateway must not be called for empty text")
	}
}
