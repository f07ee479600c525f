package service

import (
	"math"
	"strings"

	"github.com/dom/english-proficiency-api/internal/domain"
)

// The scoring rubric. Objective sections band accuracy through a step
// function; open-ended sections earn heuristic content and effort credit.
// The banding is the contract: a given set of answers must always produce
// the same scores.

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// evaluateObjective checks one reading/listening answer against the key.
func evaluateObjective(questionID, userAnswer, key string) bool {
	user := normalizeAnswer(userAnswer)
	correct := normalizeAnswer(key)

	switch {
	case strings.Contains(questionID, "fill") || strings.Contains(questionID, "short"):
		// Credit if any significant key word appears in the response.
		if user == correct {
			return true
		}
		for _, word := range strings.FieldsFunc(correct, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		}) {
			if len(word) > 2 && strings.Contains(user, word) {
				return true
			}
		}
		return false

	case strings.Contains(questionID, "matching"):
		userSet := splitSelections(user)
		correctSet := splitSelections(correct)
		if len(correctSet) == 0 {
			return false
		}
		matches := 0
		for _, sel := range userSet {
			for _, want := range correctSet {
				if sel == want {
					matches++
					break
				}
			}
		}
		return float64(matches) >= float64(len(correctSet))*0.6

	default:
		return user == correct
	}
}

func splitSelections(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// bandObjectiveScore maps accuracy to the banded section score. Step
// function, not interpolation.
func bandObjectiveScore(correct, answered int) int {
	if answered == 0 {
		return 0
	}

	accuracy := float64(correct) / float64(answered)

	var score int
	switch {
	case accuracy >= 0.8:
		score = 95
	case accuracy >= 0.6:
		score = 85
	case accuracy >= 0.4:
		score = 75
	case accuracy >= 0.2:
		score = 65
	default:
		score = 60
	}

	// Sustained high performance over a long section earns a small bonus.
	if answered >= 10 && accuracy >= 0.75 {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}

var writingTaskMarkers = map[string][]struct {
	words  []string
	credit int
}{
	// Task 1: formal report
	"writing_1": {
		{[]string{"executive", "summary"}, 15},
		{[]string{"recommendation", "conclude"}, 15},
		{[]string{"benefit", "cost"}, 15},
		{[]string{"employee", "wellness"}, 15},
		{[]string{"implement", "program"}, 10},
	},
	// Task 2: argumentative essay
	"writing_2": {
		{[]string{"agree", "disagree"}, 15},
		{[]string{"example", "instance"}, 15},
		{[]string{"advantage", "benefit"}, 10},
		{[]string{"disadvantage", "problem"}, 10},
		{[]string{"conclusion", "summary"}, 10},
		{[]string{"society", "communication"}, 10},
	},
}

// writingItemScore grades one writing task: a word-count tier plus credit
// for expected topical markers, capped at 100.
func writingItemScore(questionID, text string) int {
	answer := normalizeAnswer(text)
	wordCount := len(strings.Fields(answer))

	score := 0
	switch questionID {
	case "writing_1":
		// 150+ word formal report
		switch {
		case wordCount >= 150:
			score += 30
		case wordCount >= 100:
			score += 20
		default:
			score += 10
		}
	case "writing_2":
		// 250+ word essay
		switch {
		case wordCount >= 250:
			score += 30
		case wordCount >= 200:
			score += 25
		case wordCount >= 150:
			score += 15
		default:
			score += 5
		}
	}

	for _, marker := range writingTaskMarkers[questionID] {
		for _, word := range marker.words {
			if strings.Contains(answer, word) {
				score += marker.credit
				break
			}
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}

// speakingItemScore grades one speaking prompt from the recording's size and
// timestamp, both proxies for length and completion. A non-audio submission
// earns a minimal default.
func speakingItemScore(v domain.AnswerValue) int {
	if v.Kind != domain.AnswerKindAudio || v.Audio == nil {
		return 40
	}

	score := 60 // base credit for providing a recording

	switch size := v.Audio.Size; {
	case size > 100000:
		score += 20
	case size > 50000:
		score += 15
	case size > 20000:
		score += 10
	default:
		score += 5
	}

	if v.Audio.RecordedAt != "" {
		score += 15
	}

	if score > 100 {
		score = 100
	}
	return score
}

// openEndedSectionScore averages the item scores, applies the boosting
// curve, and adds a completion bonus when every expected task was attempted.
func openEndedSectionScore(rawTotal, count int) int {
	if count == 0 {
		return 0
	}

	avg := int(math.Round(float64(rawTotal) / float64(count)))
	avg += 15
	if avg < 65 {
		avg = 65
	}

	if count >= 2 {
		avg += 5
	}

	if avg > 100 {
		avg = 100
	}
	return avg
}

// compositeScore is the unweighted average of the four section scores.
func compositeScore(reading, listening, writing, speaking int) int {
	return int(math.Round(float64(reading+listening+writing+speaking) / 4.0))
}
