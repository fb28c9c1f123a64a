// Package proto defines the line-oriented text protocol spoken with clients.
package proto

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// CommandPrefix marks a line as a server command.
	CommandPrefix = "/"

	CommandRegister = "/register"
	CommandNick     = "/nick"
	CommandExit     = "/exit"
	// CommandRemove is accepted as an alias of CommandExit.
	CommandRemove = "/remove"
)

// Fixed replies sent to clients.
const (
	ReplyRegisterUsage       = "Usage: /register <nickname>"
	ReplyNickUsage           = "Usage: /nick <new_nickname>"
	ReplyAlreadyRegistered   = "You are already registered"
	ReplyNotRegistered       = "You are not registered. Use /register <nickname>"
	ReplyRegistrationNeeded  = "You must register with /register <nickname> before sending messages"
	ReplyBadFormat           = "Invalid message format. Use '<nickname> <message>'"
	ReplyMessageSent         = "Message sent successfully"
	ReplySendFailed          = "Failed to send message"
	ReplyRemoved             = "You have been removed from the server."
	ReplyInternalServerError = "Internal server error"
)

// ErrInvalidEncoding is returned by DecodeLine for bytes that are not UTF-8.
var ErrInvalidEncoding = errors.New("message is not valid UTF-8")

// NicknameSet confirms a registration.
func NicknameSet(nick string) string {
	return fmt.Sprintf("Nickname set to %s", nick)
}

// NicknameChanged confirms a rename.
func NicknameChanged(from, to string) string {
	return fmt.Sprintf("Nickname changed from %s to %s", from, to)
}

// NicknameTaken rejects a nickname held by another connection.
func NicknameTaken(nick string) string {
	return fmt.Sprintf("Nickname %s is already taken", nick)
}

// UnknownCommand rejects an unrecognized command word.
func UnknownCommand(name string) string {
	return fmt.Sprintf("Unknown command: %s", name)
}

// UserNotFound rejects a message to a nickname nobody holds.
func UserNotFound(nick string) string {
	return fmt.Sprintf("User %s not found", nick)
}

// ChatLine is what the recipient of a direct message receives.
func ChatLine(from, body string) string {
	return from + ": " + body
}

// DecodeLine turns the bytes of one read into one message, trimming
// trailing whitespace and newlines.
func DecodeLine(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}
	return strings.TrimRightFunc(string(data), unicode.IsSpace), nil
}

// EncodeLine frames an outbound reply.
func EncodeLine(text string) []byte {
	return []byte(text + "\n")
}
