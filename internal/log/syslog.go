//go:build !windows && !plan9

package log

import (
	"fmt"
	"log/syslog"
	"os"

	"github.com/rs/zerolog"
)

const syslogTag = "tcpchat"

// NewWithSyslog is New plus a copy of every event sent to the local syslog daemon.
func NewWithSyslog(level string) (*zerolog.Logger, error) {
	sw, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, syslogTag)
	if err != nil {
		return nil, fmt.Errorf("connect syslog: %w", err)
	}
	out := zerolog.MultiLevelWriter(consoleWriter(os.Stdout), zerolog.SyslogLevelWriter(sw))
	return newLogger(out, level), nil
}
