package service

import (
	"fmt"
	"time"
)

// DefaultPersona is the assistant identity presented to the provider.
const DefaultPersona = "Lumina"

// BuildSystemPrompt assembles the instruction block sent ahead of every user
// prompt. Pure function of its inputs so it can be tested without the provider.
func BuildSystemPrompt(persona, userName string, now time.Time) string {
	return fmt.Sprintf(`You are %s, a friendly and knowledgeable AI assistant built into a chat application.
Today's date is %s.
You are talking to %s. Address them by name when it feels natural.
Answer clearly and concisely. Use markdown formatting for code and lists.
If you are asked to do something harmful or outside your abilities, decline politely.`,
		persona, now.Format("Monday, 2 January 2006"), userName)
}
