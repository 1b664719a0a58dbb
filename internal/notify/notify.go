// Package notify delivers best-effort operator reports: large-loss alerts and
// periodic summaries. Failures are swallowed; alerting never blocks trading.
package notify

import "github.com/rs/zerolog"

// Notifier is the alerting boundary.
type Notifier interface {
	Send(subject, body string)
}

// Log writes reports to the process log; the fallback when no channel is
// configured.
type Log struct {
	log zerolog.Logger
}

// NewLog builds the logging notifier.
func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log}
}

// Send records the report at warn level so it stands out in the stream.
func (l *Log) Send(subject, body string) {
	l.log.Warn().Str("subject", subject).Msg(body)
}

// Noop discards reports entirely.
type Noop struct{}

func (Noop) Send(string, string) {}
