//go:build windows || plan9

package log

import "github.com/rs/zerolog"

// NewWithSyslog always fails here; use New.
func NewWithSyslog(string) (*zerolog.Logger, error) {
	return nil, ErrSyslogUnsupported
}
