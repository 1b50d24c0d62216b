package speech

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"voicetask/internal/domain"
	"voicetask/internal/ports"
)

func TestRecognizerPublishesCumulativeResults(t *testing.T) {
	t.Parallel()

	audio := newLiveAudio()
	stream := newLiveStream()
	rec := NewRecognizer(&fakeCapture{session: audio}, &fakeProvider{stream: stream}, Config{})

	session, err := rec.Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	stream.events <- domain.TranscriptEvent{Kind: domain.TranscriptKindFinal, Text: "create a task"}
	first := <-session.Results()
	if first.Transcript() != "create a task" {
		t.Fatalf("unexpected first result: %q", first.Transcript())
	}

	stream.events <- domain.TranscriptEvent{Kind: domain.TranscriptKindPartial, Text: "for sprint"}
	second := <-session.Results()
	if second.Transcript() != "create a task for sprint" {
		t.Fatalf("unexpected second result: %q", second.Transcript())
	}
	if len(second.Segments) != 2 {
		t.Fatalf("expected full result set, got %v", second.Segments)
	}

	if err := session.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if _, ok := <-session.Results(); ok {
		t.Fatalf("expected results to close after stop")
	}
	if !audio.stopped() {
		t.Fatalf("expected microphone to be released")
	}
	if !stream.sendClosed() {
		t.Fatalf("expected stream to be half-closed")
	}
}

func TestRecognizerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	audio := newLiveAudio()
	stream := newLiveStream()
	rec := NewRecognizer(&fakeCapture{session: audio}, &fakeProvider{stream: stream}, Config{StreamingGrace: 20 * time.Millisecond})

	session, err := rec.Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := session.Stop(); err != nil {
		t.Fatalf("first stop failed: %v", err)
	}
	if err := session.Stop(); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
	if audio.stopCount() != 1 {
		t.Fatalf("expected one audio stop, got %d", audio.stopCount())
	}
}

func TestRecognizerStopDoesNotBlockOnUnreadResults(t *testing.T) {
	t.Parallel()

	audio := newLiveAudio()
	stream := newLiveStream()
	rec := NewRecognizer(&fakeCapture{session: audio}, &fakeProvider{stream: stream}, Config{})

	session, err := rec.Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	// One more than the results buffer leaves the converter blocked on send.
	for i := 0; i < 17; i++ {
		stream.events <- domain.TranscriptEvent{Kind: domain.TranscriptKindPartial, Text: string(rune('a' + i))}
	}

	done := make(chan error, 1)
	go func() { done <- session.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stop failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("stop blocked on unread results")
	}
}

func TestRecognizerMapsMicrophoneFailure(t *testing.T) {
	t.Parallel()

	stream := newLiveStream()
	rec := NewRecognizer(&fakeCapture{err: errors.New("no device")}, &fakeProvider{stream: stream}, Config{})

	_, err := rec.Start(context.Background())
	if domain.KindOf(err) != domain.ErrKindPermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if !stream.closed() {
		t.Fatalf("expected stream to be closed after microphone failure")
	}
}

func TestRecognizerMapsStreamFailure(t *testing.T) {
	t.Parallel()

	capture := &fakeCapture{session: newLiveAudio()}
	rec := NewRecognizer(capture, &fakeProvider{err: errors.New("dial failed")}, Config{})

	_, err := rec.Start(context.Background())
	if domain.KindOf(err) != domain.ErrKindUpstreamCallFailure {
		t.Fatalf("expected upstream failure, got %v", err)
	}
	if capture.starts != 0 {
		t.Fatalf("microphone should not open when the stream fails")
	}
}

type fakeCapture struct {
	session ports.AudioSession
	err     error
	starts  int
}

func (f *fakeCapture) Start(_ context.Context, _ ports.AudioConfig) (ports.AudioSession, error) {
	f.starts++
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

type fakeProvider struct {
	stream ports.StreamingSession
	err    error
}

func (f *fakeProvider) StartStreaming(_ context.Context, _ ports.StreamingConfig) (ports.StreamingSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

// liveAudio blocks reads until stopped, like a real microphone.
type liveAudio struct {
	mu    sync.Mutex
	stops int
	stop  chan struct{}
}

func newLiveAudio() *liveAudio {
	return &liveAudio{stop: make(chan struct{})}
}

func (a *liveAudio) Read(_ []byte) (int, error) {
	<-a.stop
	return 0, io.EOF
}

func (a *liveAudio) Close() error { return a.Stop() }

func (a *liveAudio) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stops++
	if a.stops == 1 {
		close(a.stop)
	}
	return nil
}

func (a *liveAudio) stopped() bool { return a.stopCount() > 0 }

func (a *liveAudio) stopCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stops
}

type liveStream struct {
	events chan domain.TranscriptEvent

	mu         sync.Mutex
	halfClosed bool
	isClosed   bool
	finished   chan struct{}
}

func newLiveStream() *liveStream {
	return &liveStream{
		events:   make(chan domain.TranscriptEvent),
		finished: make(chan struct{}),
	}
}

func (s *liveStream) SendAudio(_ []byte) error { return nil }

func (s *liveStream) CloseSend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.halfClosed {
		s.halfClosed = true
		close(s.events)
		close(s.finished)
	}
	return nil
}

func (s *liveStream) Events() <-chan domain.TranscriptEvent { return s.events }

func (s *liveStream) Wait() error {
	<-s.finished
	return nil
}

func (s *liveStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isClosed = true
	return nil
}

func (s *liveStream) sendClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halfClosed
}

func (s *liveStream) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isClosed
}
