package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"voicetask/internal/domain"
	"voicetask/internal/selection"
)

func TestSessionReasonMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.SessionStateReason]string{
		domain.SessionReasonReady:              "Tap to record",
		domain.SessionReasonRecordingStarted:   "Listening...",
		domain.SessionReasonInactivity:         "Stopped after silence",
		domain.SessionReasonNoTranscript:       "No transcript captured",
		domain.SessionReasonEditing:            "Editing",
		domain.SessionReasonCountdownElapsed:   "Sending...",
		domain.SessionReasonConfirmed:          "Sending...",
		domain.SessionReasonCancelled:          "Cancelled",
		domain.SessionReasonTaskFiled:          "Task created",
		domain.SessionReasonSubmissionFailed:   "Sending failed",
		domain.SessionReasonSuccessDisplayDone: "Ready for the next task",
		domain.SessionReasonReloaded:           "Reloaded",
		domain.SessionReasonCaptureFailed:      "Capture failed",
	}

	for reason, want := range cases {
		reason := reason
		want := want
		t.Run(string(reason), func(t *testing.T) {
			t.Parallel()
			if got := sessionReasonMessage(reason); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := sessionReasonMessage("unknown"); got != "" {
		t.Fatalf("expected empty unknown reason message, got %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:          "Startup failed",
		domain.ErrorCodePermission:       "Microphone access denied or unavailable.",
		domain.ErrorCodeAudioStop:        "Audio stop issue",
		domain.ErrorCodeTranscription:    "Transcription error",
		domain.ErrorCodeSubmission:       "Sending failed",
		domain.ErrorCodeCatalog:          "Could not load sprints or groups",
		domain.ErrorCodePreferences:      "Could not save preferences",
		domain.ErrorCodeInvalidOperation: "Not available right now",
	}
	for code, want := range cases {
		code := code
		want := want
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if got := errorMessage(code, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := errorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := errorMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestSelectionErrorCode(t *testing.T) {
	t.Parallel()

	unsaved := fmt.Errorf("%w: disk full", selection.ErrNotSaved)
	if got := selectionErrorCode(unsaved); got != domain.ErrorCodePreferences {
		t.Fatalf("expected preferences code for unsaved choice, got %q", got)
	}
	unknown := fmt.Errorf("%w: nobody", selection.ErrUnknownAssignee)
	if got := selectionErrorCode(unknown); got != domain.ErrorCodeInvalidOperation {
		t.Fatalf("expected invalid operation for unknown id, got %q", got)
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatalf("expected uninitialized error")
	}

	bootErr := errors.New("boot")
	app.bootErr = bootErr
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
}

func TestGetStatusWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	status := app.GetStatus()
	if status.State != domain.SessionStateIdle || status.Active {
		t.Fatalf("unexpected status: %+v", status)
	}

	app.bootErr = errors.New("boot")
	status = app.GetStatus()
	if status.State != domain.SessionStateError || status.Active != false || status.Message != "boot" {
		t.Fatalf("unexpected boot status: %+v", status)
	}
}

func TestBindingsFailBeforeStartup(t *testing.T) {
	t.Parallel()

	app := &App{}
	if _, err := app.StartRecording(); err == nil {
		t.Fatalf("expected start to fail before startup")
	}
	if _, err := app.Confirm(); err == nil {
		t.Fatalf("expected confirm to fail before startup")
	}
	if _, err := app.SelectGroup("topics"); err == nil {
		t.Fatalf("expected selection to fail before startup")
	}
	if got := app.GetAssignees(); got != nil {
		t.Fatalf("expected no roster before startup, got %v", got)
	}
	if sel := app.GetSelection(); sel.Assignee != nil || sel.Group != nil || sel.Sprint != nil {
		t.Fatalf("expected empty selection, got %+v", sel)
	}
}

func TestFrontendSelectsStartUnchosen(t *testing.T) {
	t.Parallel()

	page, err := assets.ReadFile("frontend/dist/index.html")
	if err != nil {
		t.Fatalf("embedded page missing: %v", err)
	}
	for _, want := range []string{
		`placeholder.value = "";`,
		`placeholder.selected = !selected;`,
		`el.appendChild(placeholder);`,
	} {
		if !strings.Contains(string(page), want) {
			t.Fatalf("selection lists must lead with an unchosen entry; missing %q", want)
		}
	}
}
