package core

import "errors"

// Error codes for protocol errors answered to clients.
const (
	ErrCodeUsage                = "usage"
	ErrCodeNicknameTaken        = "nickname_taken"
	ErrCodeAlreadyRegistered    = "already_registered"
	ErrCodeNotRegistered        = "not_registered"
	ErrCodeRegistrationRequired = "registration_required"
	ErrCodeUnknownCommand       = "unknown_command"
	ErrCodeBadFormat            = "bad_format"
	ErrCodeUserNotFound         = "user_not_found"
	ErrCodeSendFailed           = "send_failed"
	ErrCodeInternal             = "internal"
)

var (
	// ErrDuplicateHandle means a handle was added twice.
	ErrDuplicateHandle = errors.New("duplicate handle")
	// ErrNotFound means the handle is not in the registry.
	ErrNotFound = errors.New("handle not found")
	// ErrNicknameTaken means another live client holds the nickname.
	ErrNicknameTaken = errors.New("nickname taken")
	// ErrAlreadyRegistered means the client already holds a nickname.
	ErrAlreadyRegistered = errors.New("already registered")
	// ErrNotRegistered means the client has no nickname yet.
	ErrNotRegistered = errors.New("not registered")
)

// CoreError wraps a code and the reply line shown to the client.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
