package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"voicetask/internal/domain"
	"voicetask/internal/ports"
)

var (
	ErrNoActiveSession   = errors.New("no active recording session")
	ErrInvalidTransition = errors.New("operation not allowed in current state")
)

// Config controls capture, countdown and display timings.
type Config struct {
	Inactivity     time.Duration
	CountdownStart int
	Tick           time.Duration
	DispatchDelay  time.Duration
	SuccessDisplay time.Duration
	Logger         *slog.Logger
}

// SessionController orchestrates capture, countdown confirmation, editing and
// submission of one transcript at a time.
type SessionController struct {
	recognizer ports.Recognizer
	submitter  transcriptSubmitter
	events     ports.EventSink
	logger     *slog.Logger
	cfg        Config

	lifetime context.Context
	shutdown context.CancelFunc

	mu         sync.Mutex
	state      domain.SessionState
	reason     domain.SessionStateReason
	transcript string
	counter    int
	starting   bool
	capture    *activeCapture

	countdown  timerSlot
	inactivity timerSlot
	pending    timerSlot
	nextToken  uint64

	submitSeq    uint64
	cancelSubmit context.CancelFunc
}

func NewSessionController(
	recognizer ports.Recognizer,
	gateway ports.SubmissionGateway,
	selection ports.SelectionProvider,
	events ports.EventSink,
	cfg Config,
) *SessionController {
	if cfg.Inactivity <= 0 {
		cfg.Inactivity = 2 * time.Second
	}
	if cfg.CountdownStart <= 0 {
		cfg.CountdownStart = 5
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.DispatchDelay < 0 {
		cfg.DispatchDelay = 0
	}
	if cfg.SuccessDisplay < 0 {
		cfg.SuccessDisplay = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lifetime, shutdown := context.WithCancel(context.Background())
	return &SessionController{
		recognizer: recognizer,
		submitter:  newTranscriptSubmitter(gateway, selection),
		events:     events,
		logger:     logger,
		cfg:        cfg,
		lifetime:   lifetime,
		shutdown:   shutdown,
		state:      domain.SessionStateIdle,
		reason:     domain.SessionReasonReady,
		counter:    cfg.CountdownStart,
	}
}

// Start acquires the recognizer and begins a capture (idle -> recording).
func (c *SessionController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.SessionStateIdle || c.starting {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("start from %s: %w", state, ErrInvalidTransition)
	}
	c.starting = true
	c.mu.Unlock()

	session, err := c.recognizer.Start(ctx)

	c.mu.Lock()
	c.starting = false
	if err != nil {
		if c.state == domain.SessionStateIdle {
			c.setStateLocked(domain.SessionStateIdle, domain.SessionReasonCaptureFailed)
		}
		c.mu.Unlock()
		code := domain.ErrorCodeTranscription
		if domain.KindOf(err) == domain.ErrKindPermissionDenied {
			code = domain.ErrorCodePermission
		}
		c.logger.Warn("capture start failed", "error", err)
		c.events.SessionError(code, err.Error())
		return err
	}
	if c.state != domain.SessionStateIdle {
		state := c.state
		c.mu.Unlock()
		_ = session.Stop()
		return fmt.Errorf("start from %s: %w", state, ErrInvalidTransition)
	}

	active := &activeCapture{session: session, done: make(chan struct{})}
	c.capture = active
	c.transcript = ""
	c.setStateLocked(domain.SessionStateRecording, domain.SessionReasonRecordingStarted)
	c.mu.Unlock()

	go c.consume(active)
	return nil
}

// Stop ends the capture. A non-empty transcript moves the session to
// preparing and starts the countdown; otherwise the session returns to idle.
func (c *SessionController) Stop() error {
	c.mu.Lock()
	if c.capture == nil || c.state != domain.SessionStateRecording {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	active := c.endCaptureLocked(domain.SessionReasonRecordingStopped)
	c.mu.Unlock()

	c.release(active)
	return nil
}

// Abort discards an in-progress capture without preparing a submission.
func (c *SessionController) Abort() error {
	c.mu.Lock()
	if c.capture == nil {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	active := c.capture
	c.capture = nil
	c.transcript = ""
	c.setStateLocked(domain.SessionStateIdle, domain.SessionReasonCancelled)
	c.mu.Unlock()

	c.release(active)
	return nil
}

// Edit stops the countdown and makes the transcript editable.
func (c *SessionController) Edit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.SessionStatePreparing {
		return fmt.Errorf("edit from %s: %w", c.state, ErrInvalidTransition)
	}
	c.counter = c.cfg.CountdownStart
	c.setStateLocked(domain.SessionStateEditing, domain.SessionReasonEditing)
	return nil
}

// UpdateTranscript replaces the transcript while editing.
func (c *SessionController) UpdateTranscript(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.SessionStateEditing {
		return fmt.Errorf("update transcript from %s: %w", c.state, ErrInvalidTransition)
	}
	c.transcript = text
	c.events.TranscriptChanged(text)
	return nil
}

// Confirm submits the edited transcript immediately (editing -> sending).
func (c *SessionController) Confirm() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.SessionStateEditing {
		return fmt.Errorf("confirm from %s: %w", c.state, ErrInvalidTransition)
	}
	c.setStateLocked(domain.SessionStateSending, domain.SessionReasonConfirmed)
	c.dispatchLocked()
	return nil
}

// Cancel drops the pending transcript (preparing|editing -> idle).
func (c *SessionController) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.SessionStatePreparing && c.state != domain.SessionStateEditing {
		return fmt.Errorf("cancel from %s: %w", c.state, ErrInvalidTransition)
	}
	c.transcript = ""
	c.counter = c.cfg.CountdownStart
	c.setStateLocked(domain.SessionStateIdle, domain.SessionReasonCancelled)
	return nil
}

// Reload resets the whole session, the manual recovery from error.
func (c *SessionController) Reload() {
	c.mu.Lock()
	active := c.capture
	c.capture = nil
	c.abandonSubmissionLocked()
	c.transcript = ""
	c.counter = c.cfg.CountdownStart
	c.setStateLocked(domain.SessionStateIdle, domain.SessionReasonReloaded)
	c.mu.Unlock()

	if active != nil {
		c.release(active)
	}
}

// Close releases the capture, timers and any in-flight submission, and
// returns once the result consumer has exited.
func (c *SessionController) Close() {
	c.mu.Lock()
	active := c.capture
	c.capture = nil
	c.countdown.cancel()
	c.inactivity.cancel()
	c.pending.cancel()
	c.abandonSubmissionLocked()
	c.mu.Unlock()

	c.shutdown()
	if active != nil {
		c.release(active)
		<-active.done
	}
}

// Status returns a snapshot of the session.
func (c *SessionController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *SessionController) statusLocked() domain.Status {
	return domain.Status{
		State:      c.state,
		Reason:     c.reason,
		Active:     c.state != domain.SessionStateIdle,
		Transcript: c.transcript,
		Counter:    c.counter,
	}
}

// setStateLocked moves to state and cancels every timer the new state does
// not own. Callers arm the new state's timers afterwards.
func (c *SessionController) setStateLocked(state domain.SessionState, reason domain.SessionStateReason) {
	if state != domain.SessionStatePreparing {
		c.countdown.cancel()
	}
	if state != domain.SessionStateRecording {
		c.inactivity.cancel()
	}
	c.pending.cancel()

	c.state = state
	c.reason = reason
	c.logger.Debug("session state changed", "state", state, "reason", reason)
	c.events.SessionStateChanged(c.statusLocked())
}

func (c *SessionController) consume(active *activeCapture) {
	defer close(active.done)

	for event := range active.session.Results() {
		c.mu.Lock()
		if c.capture != active {
			c.mu.Unlock()
			continue
		}
		c.transcript = event.Transcript()
		c.arm(&c.inactivity, c.cfg.Inactivity, c.inactivityElapsed(active))
		c.events.TranscriptChanged(c.transcript)
		c.mu.Unlock()
	}

	// The recognizer ended the stream on its own.
	c.mu.Lock()
	if c.capture != active {
		c.mu.Unlock()
		return
	}
	c.endCaptureLocked(domain.SessionReasonRecordingStopped)
	c.mu.Unlock()
	go c.release(active)
}

func (c *SessionController) inactivityElapsed(active *activeCapture) func() func() {
	return func() func() {
		if c.capture != active || c.state != domain.SessionStateRecording {
			return nil
		}
		c.endCaptureLocked(domain.SessionReasonInactivity)
		return func() { c.release(active) }
	}
}

func (c *SessionController) endCaptureLocked(reason domain.SessionStateReason) *activeCapture {
	active := c.capture
	c.capture = nil

	if strings.TrimSpace(c.transcript) == "" {
		c.transcript = ""
		c.setStateLocked(domain.SessionStateIdle, domain.SessionReasonNoTranscript)
		return active
	}

	c.counter = c.cfg.CountdownStart
	c.setStateLocked(domain.SessionStatePreparing, reason)
	c.events.CountdownTick(c.counter)
	c.arm(&c.countdown, c.cfg.Tick, c.tick)
	return active
}

func (c *SessionController) tick() func() {
	if c.state != domain.SessionStatePreparing {
		return nil
	}

	c.counter--
	c.events.CountdownTick(c.counter)
	if c.counter > 0 {
		c.arm(&c.countdown, c.cfg.Tick, c.tick)
		return nil
	}

	c.counter = c.cfg.CountdownStart
	c.setStateLocked(domain.SessionStateSending, domain.SessionReasonCountdownElapsed)
	c.arm(&c.pending, c.cfg.DispatchDelay, func() func() {
		if c.state == domain.SessionStateSending {
			c.dispatchLocked()
		}
		return nil
	})
	return nil
}

func (c *SessionController) dispatchLocked() {
	c.abandonSubmissionLocked()
	c.submitSeq++
	seq := c.submitSeq

	ctx, cancel := context.WithCancel(c.lifetime)
	c.cancelSubmit = cancel
	text := c.transcript

	go func() {
		defer cancel()
		result, err := c.submitter.Submit(ctx, text)
		c.finishSubmission(seq, result, err)
	}()
}

func (c *SessionController) finishSubmission(seq uint64, result domain.SubmissionResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.submitSeq || c.state != domain.SessionStateSending {
		return
	}
	c.cancelSubmit = nil

	if err != nil {
		c.logger.Warn("submission failed", "error", err, "kind", domain.KindOf(err))
		c.setStateLocked(domain.SessionStateError, domain.SessionReasonSubmissionFailed)
		c.events.SessionError(domain.ErrorCodeSubmission, err.Error())
		return
	}

	c.logger.Info("task filed", "item_id", result.CreatedItemID)
	c.setStateLocked(domain.SessionStateSuccess, domain.SessionReasonTaskFiled)
	c.events.SubmissionFinished(result)
	c.arm(&c.pending, c.cfg.SuccessDisplay, func() func() {
		if c.state != domain.SessionStateSuccess {
			return nil
		}
		c.transcript = ""
		c.setStateLocked(domain.SessionStateIdle, domain.SessionReasonSuccessDisplayDone)
		return nil
	})
}

func (c *SessionController) abandonSubmissionLocked() {
	if c.cancelSubmit != nil {
		c.cancelSubmit()
		c.cancelSubmit = nil
	}
	c.submitSeq++
}

func (c *SessionController) release(active *activeCapture) {
	if err := active.session.Stop(); err != nil {
		c.logger.Warn("capture release failed", "error", err)
		c.events.SessionError(domain.ErrorCodeAudioStop, fmt.Sprintf("failed to release audio capture: %v", err))
	}
}
