package service

import (
	"strings"
	"testing"

	"github.com/dom/english-proficiency-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateObjective(t *testing.T) {
	tests := []struct {
		name       string
		questionID string
		userAnswer string
		key        string
		want       bool
	}{
		{
			name:       "exact match multiple choice",
			questionID: "reading_1",
			userAnswer: "b",
			key:        "b",
			want:       true,
		},
		{
			name:       "case and whitespace insensitive",
			questionID: "reading_1",
			userAnswer: "  B ",
			key:        "b",
			want:       true,
		},
		{
			name:       "wrong multiple choice",
			questionID: "reading_2",
			userAnswer: "a",
			key:        "b",
			want:       false,
		},
		{
			name:       "fill credits key word substring",
			questionID: "reading_fill_1",
			userAnswer: "they mention the greenhouse effect here",
			key:        "greenhouse effect",
			want:       true,
		},
		{
			name:       "fill ignores short key words",
			questionID: "reading_fill_2",
			userAnswer: "it",
			key:        "in the lab",
			want:       false,
		},
		{
			name:       "matching passes at 60 percent overlap",
			questionID: "listening_matching_1",
			userAnswer: "a, b, c",
			key:        "a, b, d",
			want:       true,
		},
		{
			name:       "matching fails below 60 percent overlap",
			questionID: "listening_matching_1",
			userAnswer: "a, x, y",
			key:        "a, b, d",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evaluateObjective(tt.questionID, tt.userAnswer, tt.key)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBandObjectiveScore(t *testing.T) {
	tests := []struct {
		name     string
		correct  int
		answered int
		want     int
	}{
		{"no answers scores zero", 0, 0, 0},
		{"all correct", 10, 10, 100}, // 95 + sustained bonus
		{"eighty percent", 8, 10, 100},
		{"one of two", 1, 2, 75},
		{"sixty percent short section", 3, 5, 85},
		{"twenty percent", 1, 5, 65},
		{"below twenty percent", 0, 5, 60},
		{"bonus needs ten answers", 3, 4, 85},
		{"bonus at threshold", 9, 12, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bandObjectiveScore(tt.correct, tt.answered))
		})
	}
}

func TestWritingItemScore(t *testing.T) {
	longEssay := strings.Repeat("word ", 260) + "I agree that this has advantages for society, for example better communication, and in conclusion the benefits outweigh the problems."

	tests := []struct {
		name       string
		questionID string
		text       string
		wantMin    int
		wantMax    int
	}{
		{
			name:       "short report gets base tier only",
			questionID: "writing_1",
			text:       "A short report.",
			wantMin:    10,
			wantMax:    10,
		},
		{
			name:       "full report with markers",
			questionID: "writing_1",
			text:       strings.Repeat("word ", 160) + "Executive summary: the wellness program benefits employees and our recommendation is to implement it.",
			wantMin:    90,
			wantMax:    100,
		},
		{
			name:       "full essay capped at 100",
			questionID: "writing_2",
			text:       longEssay,
			wantMin:    90,
			wantMax:    100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := writingItemScore(tt.questionID, tt.text)
			assert.GreaterOrEqual(t, got, tt.wantMin)
			assert.LessOrEqual(t, got, tt.wantMax)
		})
	}
}

func TestSpeakingItemScore(t *testing.T) {
	tests := []struct {
		name  string
		value domain.AnswerValue
		want  int
	}{
		{
			name:  "text in a speaking slot gets minimal default",
			value: domain.TextAnswer("I would answer out loud"),
			want:  40,
		},
		{
			name: "tiny recording",
			value: domain.AudioAnswer(domain.AudioRecording{
				Data: "aGVsbG8=",
				Size: 5000,
			}),
			want: 65, // 60 base + 5 smallest tier
		},
		{
			name: "long recording with timestamp caps at 95",
			value: domain.AudioAnswer(domain.AudioRecording{
				Data:       "aGVsbG8=",
				Size:       150000,
				RecordedAt: "2026-09-01T10:00:00Z",
			}),
			want: 95, // 60 + 20 + 15
		},
		{
			name: "mid size recording with timestamp",
			value: domain.AudioAnswer(domain.AudioRecording{
				Data:       "aGVsbG8=",
				Size:       60000,
				RecordedAt: "2026-09-01T10:00:00Z",
			}),
			want: 90, // 60 + 15 + 15
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, speakingItemScore(tt.value))
		})
	}
}

func TestOpenEndedSectionScore(t *testing.T) {
	tests := []struct {
		name     string
		rawTotal int
		count    int
		want     int
	}{
		{"no items scores zero", 0, 0, 0},
		{"single weak item floors at 65", 20, 1, 65},
		{"two weak items get floor plus completion bonus", 40, 2, 70},
		{"two strong items cap at 100", 190, 2, 100},
		{"single average item", 60, 1, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, openEndedSectionScore(tt.rawTotal, tt.count))
		})
	}
}

func TestCompositeScore(t *testing.T) {
	assert.Equal(t, 80, compositeScore(75, 85, 80, 80))
	assert.Equal(t, 0, compositeScore(0, 0, 0, 0))
	// Rounds half up
	assert.Equal(t, 79, compositeScore(75, 80, 80, 79))
}

func TestGradeAnswersDeterministic(t *testing.T) {
	build := func() []*domain.TestAnswer {
		answers := []*domain.TestAnswer{
			{Section: domain.SectionReading, QuestionID: "reading_1"},
			{Section: domain.SectionReading, QuestionID: "reading_2"},
		}
		answers[0].SetValue(domain.TextAnswer("b"))  // correct
		answers[1].SetValue(domain.TextAnswer("zz")) // incorrect
		return answers
	}

	_, first := gradeAnswers(build())
	_, second := gradeAnswers(build())

	assert.Equal(t, first, second)
	// One of two reading answers correct bands to 75.
	assert.Equal(t, 75, first[domain.SectionReading])
}
