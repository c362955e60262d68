package conversation

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Persona is the assistant's base system instruction.
const Persona = "You are JARVIS, an advanced, voice-enabled AI assistant inspired by Tony Stark’s digital companion. " +
	"You combine the intelligence and capability of Alexa, Google Assistant, and Siri — with a futuristic, glowing yellow aesthetic, " +
	"and a friendly, emotionally intelligent personality. Your voice should be smooth, calm, and confident. " +
	"Greet the user based on the time of day when they first connect. Be helpful and proactive, with a touch of wit and charm. " +
	"Always confirm user actions clearly. Your responses should be concise and conversational."

// PromptDateLayout renders the current time in the long form given to the model,
// e.g. "Saturday, March 14, 2026 at 09:26 AM".
const PromptDateLayout = "Monday, January 2, 2006 at 03:04 PM"

// BuildSystemPrompt composes the persona, the user's time context and, when
// memory is non-empty, the summary of the previous conversation.
func BuildSystemPrompt(persona string, now time.Time, memory string) string {
	var b strings.Builder
	b.WriteString(persona)

	b.WriteString("\n\n--- USER CONTEXT ---\n")
	b.WriteString("The user's current timezone is ")
	b.WriteString(Timezone(now.Location()))
	b.WriteString(". The current date and time is ")
	b.WriteString(now.Format(PromptDateLayout))
	b.WriteString(". You must use this information to accurately answer any questions related to time and date.")

	if memory != "" {
		b.WriteString("\n\n--- PREVIOUS CONVERSATION SUMMARY ---\n")
		b.WriteString("You should use this summary to inform your responses and maintain context. The user is continuing the conversation.\n")
		b.WriteString(memory)
	}
	return b.String()
}

// Timezone returns the IANA name of loc. For time.Local it consults $TZ and
// then the /etc/localtime link, falling back to "UTC".
func Timezone(loc *time.Location) string {
	if loc == nil {
		return "UTC"
	}
	if name := loc.String(); name != "Local" {
		return name
	}
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		return tz
	}
	if target, err := os.Readlink("/etc/localtime"); err == nil {
		if i := strings.Index(target, "zoneinfo/"); i >= 0 {
			return filepath.ToSlash(target[i+len("zoneinfo/"):])
		}
	}
	return "UTC"
}
