package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Section string

const (
	SectionReading   Section = "reading"
	SectionListening Section = "listening"
	SectionWriting   Section = "writing"
	SectionSpeaking  Section = "speaking"
)

// Sections lists the four exam sections in report order.
var Sections = []Section{SectionReading, SectionListening, SectionWriting, SectionSpeaking}

func ValidSection(s Section) bool {
	switch s {
	case SectionReading, SectionListening, SectionWriting, SectionSpeaking:
		return true
	}
	return false
}

type AnswerKind string

const (
	AnswerKindText  AnswerKind = "text"
	AnswerKindAudio AnswerKind = "audio"
)

// AudioRecording is the structured payload submitted for speaking prompts.
// Size is the encoded byte count and serves as a duration proxy for scoring.
type AudioRecording struct {
	Data       string `json:"audioData"`
	Size       int64  `json:"size"`
	RecordedAt string `json:"recordedAt,omitempty"`
}

// AnswerValue is the tagged union stored in a TestAnswer. On the wire a text
// answer is a bare JSON string and an audio answer is an object carrying
// audioData, so the custom (un)marshalling resolves the variant by shape once,
// here, instead of every consumer probing the payload.
type AnswerValue struct {
	Kind  AnswerKind
	Text  string
	Audio *AudioRecording
}

func TextAnswer(s string) AnswerValue {
	return AnswerValue{Kind: AnswerKindText, Text: s}
}

func AudioAnswer(rec AudioRecording) AnswerValue {
	return AnswerValue{Kind: AnswerKindAudio, Audio: &rec}
}

func (v AnswerValue) IsEmpty() bool {
	switch v.Kind {
	case AnswerKindText:
		return v.Text == ""
	case AnswerKindAudio:
		return v.Audio == nil
	}
	return true
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AnswerKindAudio:
		return json.Marshal(v.Audio)
	default:
		return json.Marshal(v.Text)
	}
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = AnswerValue{Kind: AnswerKindText}
		return nil
	}

	if trimmed[0] == '{' {
		var rec AudioRecording
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return fmt.Errorf("invalid audio answer: %w", err)
		}
		if rec.Data == "" {
			return fmt.Errorf("invalid audio answer: missing audioData")
		}
		*v = AnswerValue{Kind: AnswerKindAudio, Audio: &rec}
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return fmt.Errorf("invalid text answer: %w", err)
	}
	*v = AnswerValue{Kind: AnswerKindText, Text: s}
	return nil
}

// TestAnswer is keyed by (session, section, question) and written as an
// upsert: a later write for the same key replaces the stored value.
type TestAnswer struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SessionID  uuid.UUID      `json:"sessionId" gorm:"type:uuid;not null;uniqueIndex:idx_answer_key"`
	Section    Section        `json:"section" gorm:"not null;uniqueIndex:idx_answer_key"`
	QuestionID string         `json:"questionId" gorm:"not null;uniqueIndex:idx_answer_key"`
	Answer     datatypes.JSON `json:"answer"`
	IsCorrect  *bool          `json:"isCorrect"`
	Score      *int           `json:"score"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Value decodes the stored JSONB payload into the tagged union.
func (a *TestAnswer) Value() (AnswerValue, error) {
	var v AnswerValue
	if len(a.Answer) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(a.Answer, &v); err != nil {
		return AnswerValue{}, err
	}
	return v, nil
}

// SetValue encodes the tagged union into the stored JSONB payload.
func (a *TestAnswer) SetValue(v AnswerValue) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	a.Answer = datatypes.JSON(raw)
	return nil
}
