package service

// answerKey is the fixed key for the objective sections. Question ids encode
// their kind: ids containing "fill" or "short" are keyword-matched, ids
// containing "matching" are set-intersection scored, everything else is an
// exact match.
var answerKey = map[string]string{
	// Reading
	"reading_1":  "b",
	"reading_2":  "b",
	"reading_3":  "true",
	"reading_4":  "intermittent",
	"reading_5":  "b",
	"reading_6":  "c",
	"reading_7":  "false",
	"reading_8":  "surgery simulations, ancient civilizations",
	"reading_9":  "b",
	"reading_10": "energy-storage,ai-learning,vr-surgery,grid-infrastructure",
	"reading_11": "b",
	"reading_12": "true",
	"reading_13": "human connection",
	"reading_14": "denmark, germany",
	"reading_15": "b",

	// Listening
	"listening_1":  "b",
	"listening_2":  "b",
	"listening_3":  "a",
	"listening_4":  "250",
	"listening_5":  "5",
	"listening_6":  "ai integration, voice control",
	"listening_7":  "a",
	"listening_8":  "12",
	"listening_9":  "d",
	"listening_10": "multilingual workforce, tech hubs",
}
