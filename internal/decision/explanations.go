package decision

import "fmt"

// challengeLabels maps liveness challenge direction keys to the labels shown
// to the user during the capture step.
var challengeLabels = map[string]string{
	"up":    "Look up",
	"left":  "Look left",
	"right": "Look right",
}

// ChallengeLabel returns the human-readable label for a challenge direction,
// falling back to the raw key for directions the UI never issued.
func ChallengeLabel(direction string) string {
	if label, ok := challengeLabels[direction]; ok {
		return label
	}
	return direction
}

// buildExplanations assembles the review explanations in their fixed order:
// face, document, liveness threshold, phrase mismatch, anti-spoof, transcript
// echo, then the analyzers' own free-form explanations. Empty entries are
// skipped.
func (e *Engine) buildExplanations(input ChannelResults, livenessScore, antispoofScore float64, phraseFailed bool) []string {
	notes := make([]string, 0, 8)
	appendNote := func(note string) {
		if note != "" {
			notes = append(notes, note)
		}
	}

	if input.Face.Matched {
		appendNote(faceSuccessNote)
	} else if input.Face.Reason != "" {
		appendNote(input.Face.Reason)
	} else {
		appendNote(faceFallbackReason)
	}

	if input.Document.Matched {
		appendNote(docSuccessNote)
	} else if input.Document.Reason != "" {
		appendNote(input.Document.Reason)
	} else {
		appendNote(docFallbackReason)
	}

	if livenessScore < e.policy.LivenessThreshold {
		appendNote(fmt.Sprintf(lowLivenessTemplate, ChallengeLabel(input.Liveness.ChallengeDirection)))
	}

	if phraseFailed {
		appendNote(phraseMismatchNote)
	}

	if antispoofScore < e.policy.AntispoofThreshold {
		appendNote(fmt.Sprintf("%s (%.2f).", lowAntispoofPrefix, antispoofScore))
	}

	if input.Voice.Transcript != "" {
		appendNote(fmt.Sprintf("Heard: %q", input.Voice.Transcript))
	}

	for _, note := range input.Liveness.Explanations {
		appendNote(note)
	}
	for _, note := range input.Voice.Explanations {
		appendNote(note)
	}

	return notes
}
