package core

import (
	"errors"

	"github.com/vovakirdan/tcpchat/internal/proto"
)

// dispatch classifies one decoded line and answers it. Every path ends in at
// most one reply to the sender; client must not be used after a path that
// may disconnect it.
func (h *Hub) dispatch(client *Client, line string) {
	if IsCommand(line) {
		h.handleCommand(client, ParseCommand(line))
		return
	}
	h.routeMessage(client, line)
}

func (h *Hub) handleCommand(client *Client, cmd Command) {
	switch cmd.Kind {
	case CommandRegister:
		text, cerr := h.register(client, cmd.Arg)
		h.respond(client, text, cerr)
	case CommandNick:
		text, cerr := h.rename(client, cmd.Arg)
		h.respond(client, text, cerr)
	case CommandExit:
		h.exit(client)
	default:
		h.respond(client, "", coreError(ErrCodeUnknownCommand, proto.UnknownCommand(cmd.Name)))
	}
}

func (h *Hub) register(client *Client, nick string) (string, *CoreError) {
	if nick == "" {
		return "", coreError(ErrCodeUsage, proto.ReplyRegisterUsage)
	}

	err := h.registry.SetNickname(client.ID, nick)
	switch {
	case errors.Is(err, ErrAlreadyRegistered):
		return "", coreError(ErrCodeAlreadyRegistered, proto.ReplyAlreadyRegistered)
	case errors.Is(err, ErrNicknameTaken):
		return "", coreError(ErrCodeNicknameTaken, proto.NicknameTaken(nick))
	case err != nil:
		h.log.Error().Err(err).Str("conn_id", client.ID).Msg("register nickname")
		return "", coreError(ErrCodeInternal, proto.ReplyInternalServerError)
	}

	h.log.Info().Str("conn_id", client.ID).Str("nickname", nick).Msg("nickname registered")
	return proto.NicknameSet(nick), nil
}

func (h *Hub) rename(client *Client, nick string) (string, *CoreError) {
	if nick == "" {
		return "", coreError(ErrCodeUsage, proto.ReplyNickUsage)
	}

	old, err := h.registry.RenameNickname(client.ID, nick)
	switch {
	case errors.Is(err, ErrNotRegistered):
		return "", coreError(ErrCodeNotRegistered, proto.ReplyNotRegistered)
	case errors.Is(err, ErrNicknameTaken):
		return "", coreError(ErrCodeNicknameTaken, proto.NicknameTaken(nick))
	case err != nil:
		h.log.Error().Err(err).Str("conn_id", client.ID).Msg("rename nickname")
		return "", coreError(ErrCodeInternal, proto.ReplyInternalServerError)
	}

	h.log.Info().Str("conn_id", client.ID).Str("from", old).Str("to", nick).Msg("nickname changed")
	return proto.NicknameChanged(old, nick), nil
}

func (h *Hub) exit(client *Client) {
	if client.Registered() {
		h.log.Info().Str("nickname", client.Nickname).Msg("user removed themselves")
	}
	id := client.ID
	h.reply(client, proto.ReplyRemoved)
	h.disconnect(id, "exit")
}

// routeMessage delivers "<recipient> <body>" to exactly one recipient, at most once.
func (h *Hub) routeMessage(sender *Client, line string) {
	if !sender.Registered() {
		h.respond(sender, "", coreError(ErrCodeRegistrationRequired, proto.ReplyRegistrationNeeded))
		return
	}

	msg, ok := ParseDirectMessage(line)
	if !ok {
		h.respond(sender, "", coreError(ErrCodeBadFormat, proto.ReplyBadFormat))
		return
	}

	recipientID, found := h.registry.FindByNickname(msg.To)
	if !found {
		h.respond(sender, "", coreError(ErrCodeUserNotFound, proto.UserNotFound(msg.To)))
		return
	}
	recipient, found := h.registry.Get(recipientID)
	if !found {
		h.log.Error().Str("conn_id", recipientID).Str("nickname", msg.To).Msg("nickname index points at missing client")
		h.respond(sender, "", coreError(ErrCodeInternal, proto.ReplyInternalServerError))
		return
	}

	if err := recipient.send(proto.ChatLine(sender.Nickname, msg.Body), h.writeTimeout); err != nil {
		h.log.Error().Err(err).Str("from", sender.Nickname).Str("to", msg.To).Msg("failed to send message")
		h.disconnect(recipient.ID, "write error")
		if recipient.ID == sender.ID {
			return
		}
		h.respond(sender, "", coreError(ErrCodeSendFailed, proto.ReplySendFailed))
		return
	}

	h.log.Debug().Str("from", sender.Nickname).Str("to", msg.To).Msg("message delivered")
	h.reply(sender, proto.ReplyMessageSent)
}

func (h *Hub) respond(client *Client, text string, cerr *CoreError) {
	if cerr != nil {
		h.log.Debug().Str("conn_id", client.ID).Str("code", cerr.Code).Msg("rejected request")
		text = cerr.Message
	}
	h.reply(client, text)
}

// reply writes one line to client and disconnects it when the write fails.
func (h *Hub) reply(client *Client, text string) {
	if err := client.send(text, h.writeTimeout); err != nil {
		h.log.Error().Err(err).Str("conn_id", client.ID).Msg("reply failed")
		h.disconnect(client.ID, "write error")
	}
}
