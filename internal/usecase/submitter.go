package usecase

import (
	"context"
	"strings"

	"voicetask/internal/domain"
	"voicetask/internal/ports"
)

// transcriptSubmitter pairs a frozen transcript with the current selection
// and hands it to the gateway.
type transcriptSubmitter struct {
	gateway   ports.SubmissionGateway
	selection ports.SelectionProvider
}

func newTranscriptSubmitter(gateway ports.SubmissionGateway, selection ports.SelectionProvider) transcriptSubmitter {
	return transcriptSubmitter{gateway: gateway, selection: selection}
}

func (s transcriptSubmitter) Submit(ctx context.Context, text string) (domain.SubmissionResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.SubmissionResult{}, domain.ValidationError("Missing text field")
	}

	var current domain.Selection
	if s.selection != nil {
		current = s.selection.Current()
	}
	return s.gateway.Submit(ctx, domain.NewSubmission(text, current))
}
