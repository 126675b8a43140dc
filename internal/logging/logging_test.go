package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "defaults", opts: Options{}},
		{name: "text debug", opts: Options{Level: "debug", Format: "text"}},
		{name: "json warning alias", opts: Options{Level: "WARNING", Format: "json"}},
		{name: "unknown level", opts: Options{Level: "verbose"}, wantErr: true},
		{name: "unknown format", opts: Options{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Writer = &buf

			logger, err := New(tt.opts)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidOption) {
					t.Errorf("expected ErrInvalidOption, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if logger == nil {
				t.Fatal("expected logger instance")
			}
		})
	}
}

func TestNew_AutoFormatIsJSONOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "auto", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("hello", "channel", "volume")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" || entry["channel"] != "volume" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info message should be filtered: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base, _ := New(Options{Format: "json", Writer: &buf})

	Component(base, "orchestrator").Info("started")

	if !strings.Contains(buf.String(), `"component":"orchestrator"`) {
		t.Errorf("expected component attribute, got %q", buf.String())
	}

	// nil base must not panic
	Component(nil, "x").Info("discarded")
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"", "auto", "TEXT", "json"} {
		if !ValidFormat(f) {
			t.Errorf("ValidFormat(%q) = false", f)
		}
	}
	if ValidFormat("logfmt") {
		t.Error("ValidFormat(logfmt) = true")
	}
}

func TestLimiter(t *testing.T) {
	now := time.Unix(1000, 0)
	l := NewLimiter(time.Second)
	l.now = func() time.Time { return now }

	if !l.Allow("camera") {
		t.Fatal("first message should pass")
	}
	if l.Allow("camera") {
		t.Error("repeat within interval should be suppressed")
	}
	if !l.Allow("detector") {
		t.Error("a different key should pass")
	}

	now = now.Add(time.Second)
	if !l.Allow("camera") {
		t.Error("message should pass once the interval elapsed")
	}
}

func TestLimiter_Warn(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Options{Format: "text", Writer: &buf})

	l := NewLimiter(time.Hour)
	err := errors.New("read failed")
	for i := 0; i < 5; i++ {
		l.Warn(logger, "frame skipped", err)
	}

	if got := strings.Count(buf.String(), "frame skipped"); got != 1 {
		t.Errorf("expected 1 log line, got %d: %q", got, buf.String())
	}
}
