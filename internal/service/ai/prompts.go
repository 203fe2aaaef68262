package ai

import (
	"fmt"

	"github.com/havenlabs/haven/backend/internal/model/mood"
)

// SystemPrompt frames the companion for every conversational request.
const SystemPrompt = `You are a warm, supportive mental health companion. Listen closely, validate the user's feelings, and respond with empathy and practical encouragement. Keep replies conversational and grounded. You are not a therapist and never diagnose; when a user appears to be in crisis, gently suggest professional help or a crisis line.`

// AugmentedUserMessage wraps raw user text with the detected mood so the
// backend answers with matching empathy. The exact wording is part of the
// prompt contract with the model.
func AugmentedUserMessage(label mood.Label, userText string) string {
	return fmt.Sprintf("User mood detected as %s. Respond with empathy and emotional support.\nUser: %s", label.Display(), userText)
}

// AffirmationPrompt builds the single-turn affirmation request for the
// session's current mood.
func AffirmationPrompt(label mood.Label) string {
	return fmt.Sprintf("Provide a positive affirmation for someone feeling %s", label.Display())
}

// MeditationPrompt builds the single-turn guided meditation request for the
// session's current mood.
func MeditationPrompt(label mood.Label) string {
	return fmt.Sprintf("Create a 5-minute guided meditation script for someone feeling %s", label.Display())
}
