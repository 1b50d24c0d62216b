package speech

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"voicetask/internal/domain"
	"voicetask/internal/ports"
)

// Config controls microphone capture and streaming recognition.
type Config struct {
	Audio          ports.AudioConfig
	Streaming      ports.StreamingConfig
	ChunkSize      int
	StreamingGrace time.Duration
	Logger         *slog.Logger
}

// Recognizer pipes microphone audio into a streaming transcription
// provider and republishes the cumulative result set on every update.
type Recognizer struct {
	audio    ports.AudioCapture
	provider ports.TranscriptionProvider
	cfg      Config
	logger   *slog.Logger
}

func NewRecognizer(audio ports.AudioCapture, provider ports.TranscriptionProvider, cfg Config) *Recognizer {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	if cfg.StreamingGrace <= 0 {
		cfg.StreamingGrace = 500 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{audio: audio, provider: provider, cfg: cfg, logger: logger}
}

// Start opens the recognition stream and then the microphone. Both are held
// until the returned session is stopped.
func (r *Recognizer) Start(ctx context.Context) (ports.CaptureSession, error) {
	sessionCtx, cancel := context.WithCancel(ctx)

	stream, err := r.provider.StartStreaming(sessionCtx, r.cfg.Streaming)
	if err != nil {
		cancel()
		if domain.KindOf(err) != "" {
			return nil, err
		}
		return nil, domain.UpstreamCallFailure("failed to open recognition stream", "", err)
	}

	audio, err := r.audio.Start(sessionCtx, r.cfg.Audio)
	if err != nil {
		_ = stream.Close()
		cancel()
		return nil, domain.PermissionDenied("Microphone access denied or unavailable.", err)
	}

	session := &captureSession{
		cancel:      cancel,
		audio:       audio,
		stream:      stream,
		grace:       r.cfg.StreamingGrace,
		logger:      r.logger,
		results:     make(chan domain.RecognitionEvent, 16),
		stopping:    make(chan struct{}),
		audioDone:   make(chan struct{}),
		convertDone: make(chan struct{}),
	}

	pump := newAudioPump(audio, stream, r.cfg.ChunkSize)
	go func() {
		defer close(session.audioDone)
		if err := pump.run(); err != nil {
			session.report(err)
		}
	}()
	go session.convert()

	return session, nil
}

type captureSession struct {
	cancel context.CancelFunc
	audio  ports.AudioSession
	stream ports.StreamingSession
	grace  time.Duration
	logger *slog.Logger

	results     chan domain.RecognitionEvent
	stopping    chan struct{}
	audioDone   chan struct{}
	convertDone chan struct{}

	stopOnce sync.Once
	stopErr  error
}

func (s *captureSession) Results() <-chan domain.RecognitionEvent {
	return s.results
}

// Stop releases the microphone and the recognition stream. It is safe to
// call more than once and from any goroutine.
func (s *captureSession) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopping)

		if err := s.audio.Stop(); err != nil {
			s.stopErr = fmt.Errorf("failed to stop audio capture: %w", err)
		}
		<-s.audioDone

		_ = s.stream.CloseSend()
		if err := settle(s.stream, s.grace); err != nil {
			s.logger.Debug("recognition stream closed with error", "error", err)
		}
		<-s.convertDone
		s.cancel()
	})
	return s.stopErr
}

func (s *captureSession) convert() {
	defer close(s.convertDone)
	defer close(s.results)

	set := newResultSet()
	for event := range s.stream.Events() {
		if !set.Add(event) {
			continue
		}
		select {
		case s.results <- set.Snapshot():
		case <-s.stopping:
		}
	}
}

func (s *captureSession) report(err error) {
	select {
	case <-s.stopping:
		return
	default:
	}
	s.logger.Warn("audio pump stopped", "error", err)
}
