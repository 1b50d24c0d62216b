package speech

import (
	"strings"

	"voicetask/internal/domain"
)

// resultSet tracks the ordered recognition results of one capture: every
// finalized segment plus the segment still being spoken.
type resultSet struct {
	finals  []string
	interim string
}

func newResultSet() *resultSet {
	return &resultSet{}
}

// Add folds one provider event into the set and reports whether it changed.
func (r *resultSet) Add(event domain.TranscriptEvent) bool {
	text := strings.TrimSpace(event.Text)
	if event.Kind == domain.TranscriptKindFinal {
		hadInterim := r.interim != ""
		r.interim = ""
		if text == "" {
			return hadInterim
		}
		r.finals = append(r.finals, text)
		return true
	}
	if text == r.interim {
		return false
	}
	r.interim = text
	return true
}

// Snapshot returns every segment observed so far. Segments after the first
// carry their leading separator so plain concatenation reads naturally.
func (r *resultSet) Snapshot() domain.RecognitionEvent {
	segments := make([]string, 0, len(r.finals)+1)
	for _, final := range r.finals {
		segments = appendSegment(segments, final)
	}
	if r.interim != "" {
		segments = appendSegment(segments, r.interim)
	}
	return domain.RecognitionEvent{Segments: segments}
}

func appendSegment(segments []string, text string) []string {
	if len(segments) > 0 {
		text = " " + text
	}
	return append(segments, text)
}
