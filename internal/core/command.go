package core

import (
	"strings"

	"github.com/vovakirdan/tcpchat/internal/proto"
)

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandUnknown is any prefixed word not in the command table.
	CommandUnknown CommandKind = iota
	// CommandRegister binds a first nickname.
	CommandRegister
	// CommandNick renames a registered client.
	CommandNick
	// CommandExit closes the connection from the server side.
	CommandExit
)

var commandTable = map[string]CommandKind{
	proto.CommandRegister: CommandRegister,
	proto.CommandNick:     CommandNick,
	proto.CommandExit:     CommandExit,
	proto.CommandRemove:   CommandExit,
}

// Command represents a parsed command line.
type Command struct {
	Kind CommandKind
	Name string
	Arg  string
}

// IsCommand reports whether a decoded line is a command rather than chat.
func IsCommand(line string) bool {
	return strings.HasPrefix(line, proto.CommandPrefix)
}

// ParseCommand splits "/<command>[ <argument>]" on the first space only.
func ParseCommand(line string) Command {
	name, arg, _ := strings.Cut(line, " ")
	kind, ok := commandTable[name]
	if !ok {
		kind = CommandUnknown
	}
	return Command{Kind: kind, Name: name, Arg: arg}
}

// DirectMessage is a parsed "<recipient> <body>" chat line.
type DirectMessage struct {
	To   string
	Body string
}

// ParseDirectMessage splits a chat line on the first space. It fails when
// the line has no body.
func ParseDirectMessage(line string) (DirectMessage, bool) {
	to, body, ok := strings.Cut(line, " ")
	if !ok {
		return DirectMessage{}, false
	}
	return DirectMessage{To: to, Body: body}, true
}
