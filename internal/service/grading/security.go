package grading

import "strings"

// Phrases that indicate an attempt to steer the grader through the
// transcript. Matched case-insensitively as substrings.
var suspiciousPhrases = []string{
	"ignore previous",
	"ignore all",
	"ignore above",
	"disregard previous",
	"disregard all",
	"forget previous",
	"forget all",
	"new instructions",
	"new instruction",
	"you are now",
	"act as",
	"pretend you are",
	"pretend to be",
	"roleplay as",
	"simulate being",
	"behave as",
	"system prompt",
	"system message",
	"your instructions",
	"reveal your",
	"show your prompt",
	"what are your instructions",
	"give me 10",
	"give me a 10",
	"score of 10",
	"perfect score",
	"maximum score",
	"all 10s",
}

const invalidationSummary = "Potential security violation detected. Interview invalidated. " +
	"Transcript contained suspicious keywords that violate interview guidelines."

// DetectPromptInjection reports the first suspicious phrase found in the
// transcript, if any.
func DetectPromptInjection(transcript string) (string, bool) {
	lower := strings.ToLower(transcript)
	for _, phrase := range suspiciousPhrases {
		if strings.Contains(lower, phrase) {
			return phrase, true
		}
	}
	return "", false
}
