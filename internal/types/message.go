package types

import "strings"

// MessageRole is the author of a chat message
type MessageRole string

// Message roles
const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one turn of a session's chat log.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// ErrorPrefix starts every user-visible failure string.
const ErrorPrefix = "Error:"

// RenderReply converts a tagged (text, err) result into the string shown to users.
func RenderReply(text string, err error) string {
	if err != nil {
		return ErrorPrefix + " " + err.Error()
	}
	return text
}

// IsErrorReply reports whether a rendered reply is a failure.
func IsErrorReply(reply string) bool {
	return strings.HasPrefix(reply, ErrorPrefix)
}
