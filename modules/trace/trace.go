// Package trace wires the three-tier terminal color degradation that
// modules/term detects into a logrus formatter, so every log line in the
// tool (not just ad-hoc debug prints) respects NO_COLOR / 256 / truecolor.
package trace

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/minhkhoango/p4-stack-go/modules/term"
)

// Formatter is a logrus.Formatter that colors the level prefix according to
// the detected stderr color mode. Plain NO_COLOR terminals (and non-tty
// redirects, e.g. CI logs piped to a file) get undecorated lines.
type Formatter struct {
	// DisableTimestamp omits the leading timestamp field, useful for CLI
	// output where the time adds no value.
	DisableTimestamp bool
}

func (f *Formatter) Format(e *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer
	if !f.DisableTimestamp {
		buf.WriteString(e.Time.Format("15:04:05") + " ")
	}
	buf.WriteString(f.colorLevel(e.Level))
	buf.WriteByte(' ')
	buf.WriteString(e.Message)
	for k, v := range e.Data {
		fmt.Fprintf(&buf, " %s=%v", k, v)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (f *Formatter) colorLevel(lvl logrus.Level) string {
	text := strings.ToUpper(lvl.String())
	switch term.StderrMode {
	case term.HAS_TRUECOLOR:
		return f.truecolor(lvl) + text + "\x1b[0m"
	case term.HAS_256COLOR:
		return f.ansi256(lvl) + text + "\x1b[0m"
	default:
		return text
	}
}

func (f *Formatter) truecolor(lvl logrus.Level) string {
	switch lvl {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return "\x1b[38;2;244;59;71m" // #f43b47
	case logrus.WarnLevel:
		return "\x1b[38;2;254;225;64m" // #fee140
	case logrus.DebugLevel, logrus.TraceLevel:
		return "\x1b[38;2;0;201;255m" // #00c9ff
	default:
		return "\x1b[38;2;67;233;123m" // #43e97b
	}
}

func (f *Formatter) ansi256(lvl logrus.Level) string {
	switch lvl {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return "\x1b[31m"
	case logrus.WarnLevel:
		return "\x1b[33m"
	case logrus.DebugLevel, logrus.TraceLevel:
		return "\x1b[34m"
	default:
		return "\x1b[32m"
	}
}

var _ logrus.Formatter = &Formatter{}

// NewLogger builds the package-wide logger used throughout the CLI and
// engine, wired to Formatter and gated by verbose.
func NewLogger(verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&Formatter{})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}
