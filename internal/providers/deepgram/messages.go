package deepgram

import (
	"encoding/json"
	"errors"
	"strings"

	"voicetask/internal/domain"
)

type alternative struct {
	Transcript string `json:"transcript"`
}

type message struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	Description string `json:"description"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []alternative `json:"alternatives"`
	} `json:"channel"`
}

// decodeMessage maps one server frame to a transcript event. ok is false
// for frames that carry no words (metadata, utterance markers, silence).
func decodeMessage(payload []byte) (domain.TranscriptEvent, bool, error) {
	var msg message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return domain.TranscriptEvent{}, false, nil
	}

	if strings.EqualFold(msg.Type, "Error") {
		text := strings.TrimSpace(msg.Description)
		if text == "" {
			text = strings.TrimSpace(msg.Message)
		}
		if text == "" {
			text = "speech recognition returned an unknown error"
		}
		return domain.TranscriptEvent{}, false, errors.New(text)
	}

	if msg.Type != "" && !strings.EqualFold(msg.Type, "Results") {
		return domain.TranscriptEvent{}, false, nil
	}
	if len(msg.Channel.Alternatives) == 0 {
		return domain.TranscriptEvent{}, false, nil
	}

	text := strings.TrimSpace(msg.Channel.Alternatives[0].Transcript)
	final := msg.IsFinal || msg.SpeechFinal
	// An empty partial carries nothing, but an empty final still closes the
	// pending interim result.
	if text == "" && !final {
		return domain.TranscriptEvent{}, false, nil
	}

	event := domain.TranscriptEvent{Kind: domain.TranscriptKindPartial, Text: text, IsSpeechFinal: msg.SpeechFinal}
	if final {
		event.Kind = domain.TranscriptKindFinal
	}
	return event, true, nil
}
