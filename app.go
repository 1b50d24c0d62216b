package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"voicetask/internal/bootstrap"
	"voicetask/internal/domain"
	"voicetask/internal/selection"
	"voicetask/internal/usecase"
)

const (
	eventSession    = "voicetask:session"
	eventTranscript = "voicetask:transcript"
	eventCountdown  = "voicetask:countdown"
	eventResult     = "voicetask:result"
	eventError      = "voicetask:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	services bootstrap.DesktopServices
	bootErr  error

	// catalogs serializes selection restores and catalog loads.
	catalogs sync.Mutex
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.BuildDesktop(a)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.services = services
	a.SessionStateChanged(services.Controller.Status())
	go a.refreshSelection()
}

func (a *App) shutdown(_ context.Context) {
	if err := a.services.Close(); err != nil && a.services.Logger != nil {
		a.services.Logger.Warn("shutdown failed", "error", err)
	}
}

// refreshSelection restores saved choices and reloads the remote catalogs.
func (a *App) refreshSelection() {
	a.catalogs.Lock()
	defer a.catalogs.Unlock()

	store := a.services.Selection
	store.Restore(a.ctx)
	if err := store.LoadCatalogs(a.ctx); err != nil {
		a.services.Logger.Warn("catalog load failed", "error", err)
		a.SessionError(domain.ErrorCodeCatalog, err.Error())
	}
}

// StartRecording opens the microphone and starts live transcription.
func (a *App) StartRecording() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	// Recognizer failures are reported by the controller itself.
	if err := a.services.Controller.Start(a.ctx); err != nil {
		a.reportInvalid(err)
		return a.services.Controller.Status(), err
	}
	return a.services.Controller.Status(), nil
}

// StopRecording ends the capture and starts the confirmation countdown.
func (a *App) StopRecording() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.services.Controller.Stop(); err != nil && !errors.Is(err, usecase.ErrNoActiveSession) {
		a.SessionError(domain.ErrorCodeAudioStop, err.Error())
		return a.services.Controller.Status(), err
	}
	return a.services.Controller.Status(), nil
}

// AbortRecording discards an in-progress recording.
func (a *App) AbortRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.Controller.Abort(); err != nil {
		if errors.Is(err, usecase.ErrNoActiveSession) {
			return nil
		}
		a.SessionError(domain.ErrorCodeAudioStop, err.Error())
		return err
	}
	return nil
}

// Edit pauses the countdown so the transcript can be corrected.
func (a *App) Edit() (domain.Status, error) {
	return a.transition(a.services.Controller.Edit)
}

// UpdateTranscript replaces the transcript while editing.
func (a *App) UpdateTranscript(text string) (domain.Status, error) {
	return a.transition(func() error {
		return a.services.Controller.UpdateTranscript(text)
	})
}

// Confirm sends the edited transcript immediately.
func (a *App) Confirm() (domain.Status, error) {
	return a.transition(a.services.Controller.Confirm)
}

// Cancel drops the pending transcript.
func (a *App) Cancel() (domain.Status, error) {
	return a.transition(a.services.Controller.Cancel)
}

// Reload resets the session and refreshes selections and catalogs.
func (a *App) Reload() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	a.services.Controller.Reload()
	go a.refreshSelection()
	return a.services.Controller.Status(), nil
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.services.Controller == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.SessionStateError, Active: false, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.SessionStateIdle, Active: false}
	}
	return a.services.Controller.Status()
}

// GetAssignees returns the built-in roster.
func (a *App) GetAssignees() []domain.Assignee {
	if a.services.Selection == nil {
		return nil
	}
	return a.services.Selection.Roster()
}

// GetSprints returns the loaded sprint catalog.
func (a *App) GetSprints() []domain.Sprint {
	if a.services.Selection == nil {
		return nil
	}
	return a.services.Selection.Sprints()
}

// GetGroups returns the loaded group catalog.
func (a *App) GetGroups() []domain.Group {
	if a.services.Selection == nil {
		return nil
	}
	return a.services.Selection.Groups()
}

// GetSelection returns the choices attached to the next submission.
func (a *App) GetSelection() domain.Selection {
	if a.services.Selection == nil {
		return domain.Selection{}
	}
	return a.services.Selection.Current()
}

// SelectAssignee picks and persists the assignee.
func (a *App) SelectAssignee(id string) (domain.Selection, error) {
	return a.selectWith(func(store *selection.Store) error {
		return store.SelectAssignee(a.ctx, id)
	})
}

// SelectSprint overrides the sprint picked from the calendar.
func (a *App) SelectSprint(id string) (domain.Selection, error) {
	return a.selectWith(func(store *selection.Store) error {
		return store.SelectSprint(id)
	})
}

// SelectGroup picks and persists the group.
func (a *App) SelectGroup(id string) (domain.Selection, error) {
	return a.selectWith(func(store *selection.Store) error {
		return store.SelectGroup(a.ctx, id)
	})
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	cfg := a.services.Config
	return map[string]string{
		"provider":         "Deepgram",
		"model":            cfg.Deepgram.Model,
		"language":         cfg.Deepgram.Language,
		"apiBase":          cfg.Client.APIBaseURL,
		"audioInput":       cfg.Audio.InputDevice,
		"audioInputFormat": cfg.Audio.InputFormat,
		"preferences":      cfg.Storage.Path,
	}
}

func (a *App) transition(op func() error) (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := op(); err != nil {
		a.reportInvalid(err)
		return a.services.Controller.Status(), err
	}
	return a.services.Controller.Status(), nil
}

func (a *App) selectWith(op func(store *selection.Store) error) (domain.Selection, error) {
	if err := a.requireReady(); err != nil {
		return domain.Selection{}, err
	}
	if err := op(a.services.Selection); err != nil {
		a.SessionError(selectionErrorCode(err), err.Error())
		return a.services.Selection.Current(), err
	}
	return a.services.Selection.Current(), nil
}

// selectionErrorCode separates unsaved choices, which still apply, from
// rejected ones.
func selectionErrorCode(err error) domain.ErrorCode {
	if errors.Is(err, selection.ErrNotSaved) {
		return domain.ErrorCodePreferences
	}
	return domain.ErrorCodeInvalidOperation
}

func (a *App) reportInvalid(err error) {
	if errors.Is(err, usecase.ErrInvalidTransition) {
		a.SessionError(domain.ErrorCodeInvalidOperation, err.Error())
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.services.Controller == nil || a.services.Selection == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// SessionStateChanged emits session lifecycle updates to the frontend.
func (a *App) SessionStateChanged(status domain.Status) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSession, map[string]any{
		"state":      string(status.State),
		"reason":     string(status.Reason),
		"active":     status.Active,
		"transcript": status.Transcript,
		"counter":    status.Counter,
		"message":    sessionReasonMessage(status.Reason),
	})
}

// TranscriptChanged emits the live transcript.
func (a *App) TranscriptChanged(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]string{"text": text})
}

// CountdownTick emits the seconds left before the transcript is sent.
func (a *App) CountdownTick(remaining int) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventCountdown, map[string]int{"remaining": remaining})
}

// SubmissionFinished emits the filing result.
func (a *App) SubmissionFinished(result domain.SubmissionResult) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventResult, result)
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func sessionReasonMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonReady:
		return "Tap to record"
	case domain.SessionReasonRecordingStarted:
		return "Listening..."
	case domain.SessionReasonInactivity:
		return "Stopped after silence"
	case domain.SessionReasonRecordingStopped:
		return "Recording stopped"
	case domain.SessionReasonNoTranscript:
		return "No transcript captured"
	case domain.SessionReasonEditing:
		return "Editing"
	case domain.SessionReasonCountdownElapsed, domain.SessionReasonConfirmed:
		return "Sending..."
	case domain.SessionReasonCancelled:
		return "Cancelled"
	case domain.SessionReasonTaskFiled:
		return "Task created"
	case domain.SessionReasonSubmissionFailed:
		return "Sending failed"
	case domain.SessionReasonSuccessDisplayDone:
		return "Ready for the next task"
	case domain.SessionReasonReloaded:
		return "Reloaded"
	case domain.SessionReasonCaptureFailed:
		return "Capture failed"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodePermission:
		return "Microphone access denied or unavailable."
	case domain.ErrorCodeAudioStop:
		return "Audio stop issue"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	case domain.ErrorCodeSubmission:
		return "Sending failed"
	case domain.ErrorCodeCatalog:
		return "Could not load sprints or groups"
	case domain.ErrorCodePreferences:
		return "Could not save preferences"
	case domain.ErrorCodeInvalidOperation:
		return "Not available right now"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
