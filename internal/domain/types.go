package domain

import "strings"

// SessionState models the capture-confirm-submit lifecycle.
type SessionState string

const (
	SessionStateIdle      SessionState = "idle"
	SessionStateRecording SessionState = "recording"
	SessionStatePreparing SessionState = "preparing"
	SessionStateEditing   SessionState = "editing"
	SessionStateSending   SessionState = "sending"
	SessionStateSuccess   SessionState = "success"
	SessionStateError     SessionState = "error"
	SessionStateCancel    SessionState = "cancel"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonReady              SessionStateReason = "ready"
	SessionReasonRecordingStarted   SessionStateReason = "recording_started"
	SessionReasonInactivity         SessionStateReason = "inactivity"
	SessionReasonRecordingStopped   SessionStateReason = "recording_stopped"
	SessionReasonNoTranscript       SessionStateReason = "no_transcript"
	SessionReasonEditing            SessionStateReason = "editing"
	SessionReasonCountdownElapsed   SessionStateReason = "countdown_elapsed"
	SessionReasonConfirmed          SessionStateReason = "confirmed"
	SessionReasonCancelled          SessionStateReason = "cancelled"
	SessionReasonTaskFiled          SessionStateReason = "task_filed"
	SessionReasonSubmissionFailed   SessionStateReason = "submission_failed"
	SessionReasonSuccessDisplayDone SessionStateReason = "success_display_done"
	SessionReasonReloaded           SessionStateReason = "reloaded"
	SessionReasonCaptureFailed      SessionStateReason = "capture_failed"
)

// ErrorCode identifies errors surfaced to the UI.
type ErrorCode string

const (
	ErrorCodeStartup          ErrorCode = "startup"
	ErrorCodePermission       ErrorCode = "permission_denied"
	ErrorCodeAudioStop        ErrorCode = "audio_stop"
	ErrorCodeTranscription    ErrorCode = "transcription"
	ErrorCodeSubmission       ErrorCode = "submission"
	ErrorCodeCatalog          ErrorCode = "catalog"
	ErrorCodePreferences      ErrorCode = "preferences"
	ErrorCodeInvalidOperation ErrorCode = "invalid_operation"
)

// TranscriptKind identifies whether a stream event is partial or final text.
type TranscriptKind string

const (
	TranscriptKindPartial TranscriptKind = "partial"
	TranscriptKindFinal   TranscriptKind = "final"
)

// TranscriptEvent is one provider-level transcription update.
type TranscriptEvent struct {
	Kind          TranscriptKind `json:"kind"`
	Text          string         `json:"text"`
	IsSpeechFinal bool           `json:"isSpeechFinal"`
}

// RecognitionEvent carries every result segment observed so far in one capture.
type RecognitionEvent struct {
	Segments []string `json:"segments"`
}

// Transcript returns the concatenation of all segments.
func (e RecognitionEvent) Transcript() string {
	return strings.Join(e.Segments, "")
}

// Status summarizes the current session for the UI.
type Status struct {
	State      SessionState       `json:"state"`
	Reason     SessionStateReason `json:"reason,omitempty"`
	Active     bool               `json:"active"`
	Transcript string             `json:"transcript"`
	Counter    int                `json:"counter"`
	Message    string             `json:"message,omitempty"`
}

// Assignee is a person tasks can be filed for.
type Assignee struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Sprint is a time-boxed work period whose name encodes a week range.
type Sprint struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Group is a board group (column/category) items are filed into.
type Group struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Color    string `json:"color,omitempty"`
	Position string `json:"position,omitempty"`
}

// Selection is the set of choices attached to every submission.
type Selection struct {
	Assignee *Assignee `json:"assignee,omitempty"`
	Sprint   *Sprint   `json:"sprint,omitempty"`
	Group    *Group    `json:"group,omitempty"`
}

// Submission is the payload sent to the filing endpoint.
type Submission struct {
	Text     string `json:"text"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Sprint   string `json:"sprint"`
	GroupID  string `json:"groupId"`
}

// NewSubmission combines a transcript with the current selection.
func NewSubmission(text string, selection Selection) Submission {
	sub := Submission{Text: text}
	if selection.Assignee != nil {
		sub.UserID = selection.Assignee.ID
		sub.Username = selection.Assignee.Name
	}
	if selection.Sprint != nil {
		sub.Sprint = selection.Sprint.ID
	}
	if selection.Group != nil {
		sub.GroupID = selection.Group.ID
	}
	return sub
}

// SubmissionResult is the success payload of the filing endpoint.
type SubmissionResult struct {
	OK            bool   `json:"ok"`
	CreatedItemID string `json:"createdItemId"`
	SentToTeams   bool   `json:"sentToTeams"`
	EnrichedText  string `json:"enrichedText"`
}

// Task is the structured form of a transcript produced by enrichment.
type Task struct {
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
}

// ItemName is the board item title for the task.
func (t Task) ItemName() string {
	return t.Type + ": " + t.Description
}
