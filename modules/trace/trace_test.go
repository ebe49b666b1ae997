package trace

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/minhkhoango/p4-stack-go/modules/term"
)

func TestNewLoggerLevel(t *testing.T) {
	quiet := NewLogger(false)
	if quiet.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level by default, got %v", quiet.GetLevel())
	}

	verbose := NewLogger(true)
	if verbose.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level when verbose, got %v", verbose.GetLevel())
	}
}

func TestFormatterNoColorPlain(t *testing.T) {
	prev := term.StderrMode
	term.StderrMode = term.NO_COLOR
	defer func() { term.StderrMode = prev }()

	f := &Formatter{DisableTimestamp: true}
	out, err := f.Format(&logrus.Entry{Level: logrus.InfoLevel, Message: "hello"})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if bytes.Contains(out, []byte("\x1b[")) {
		t.Fatalf("expected no escape sequences under NO_COLOR, got %q", out)
	}
	if !bytes.Contains(out, []byte("hello")) {
		t.Fatalf("expected message to appear in output, got %q", out)
	}
}

func TestFormatterTruecolorWrapsEscapes(t *testing.T) {
	prev := term.StderrMode
	term.StderrMode = term.HAS_TRUECOLOR
	defer func() { term.StderrMode = prev }()

	f := &Formatter{DisableTimestamp: true}
	out, err := f.Format(&logrus.Entry{Level: logrus.ErrorLevel, Message: "boom"})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if !bytes.Contains(out, []byte("\x1b[38;2;244;59;71m")) {
		t.Fatalf("expected truecolor error prefix, got %q", out)
	}
}
