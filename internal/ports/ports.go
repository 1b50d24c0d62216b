package ports

import (
	"context"
	"io"

	"voicetask/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// StreamingConfig describes provider-agnostic streaming settings.
type StreamingConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	InterimResults bool
}

// StreamingSession is an active provider websocket session.
type StreamingSession interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.TranscriptEvent
	Wait() error
	Close() error
}

// TranscriptionProvider starts streaming transcription sessions.
type TranscriptionProvider interface {
	StartStreaming(ctx context.Context, cfg StreamingConfig) (StreamingSession, error)
}

// CaptureSession holds the audio input and recognition engine between
// Start and Stop. Results has a single subscriber and is closed once the
// session has released its resources.
type CaptureSession interface {
	Results() <-chan domain.RecognitionEvent
	Stop() error
}

// Recognizer turns microphone audio into cumulative recognition events.
type Recognizer interface {
	Start(ctx context.Context) (CaptureSession, error)
}

// SubmissionGateway files a transcript with the current selection.
type SubmissionGateway interface {
	Submit(ctx context.Context, sub domain.Submission) (domain.SubmissionResult, error)
}

// CatalogSource lists the remote sprint and group catalogs.
type CatalogSource interface {
	Sprints(ctx context.Context) ([]domain.Sprint, error)
	Groups(ctx context.Context) ([]domain.Group, error)
}

// SelectionProvider returns the choices to attach to a submission.
type SelectionProvider interface {
	Current() domain.Selection
}

// Preferences is durable key/value storage for selections.
type Preferences interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// Enricher normalizes free text into a structured task. The raw model
// output is returned alongside the task.
type Enricher interface {
	Enrich(ctx context.Context, text string) (domain.Task, string, error)
}

// BoardItem is the data needed to file one item on the task board.
type BoardItem struct {
	GroupID       string
	Name          string
	PriorityLabel string
	SprintID      string
	UserID        string
	CreatedDate   string
}

// Board reads catalogs from and writes items to the project board.
type Board interface {
	Groups(ctx context.Context) ([]domain.Group, error)
	Sprints(ctx context.Context) ([]domain.Sprint, error)
	CreateItem(ctx context.Context, item BoardItem) (string, error)
}

// Notifier posts a message to the team chat.
type Notifier interface {
	Configured() bool
	Notify(ctx context.Context, text string) error
}

// TextRules transforms transcripts using deterministic rules.
type TextRules interface {
	Apply(text string) (string, error)
}

// EventSink emits session state and events to the UI.
type EventSink interface {
	SessionStateChanged(status domain.Status)
	TranscriptChanged(text string)
	CountdownTick(remaining int)
	SubmissionFinished(result domain.SubmissionResult)
	SessionError(code domain.ErrorCode, detail string)
}
