package logging

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// testLogger creates a logger that writes to a buffer for testing
func testLogger() (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := bolt.NewJSONHandler(buf)
	logger := bolt.New(handler).SetLevel(bolt.TRACE)
	return logger, buf
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()

	if config.Level != "info" {
		t.Errorf("Level = %s, want info", config.Level)
	}
	if config.Format != "console" {
		t.Errorf("Format = %s, want console", config.Format)
	}
	if config.Output != os.Stderr {
		t.Errorf("Output = %v, want os.Stderr", config.Output)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"INFO", bolt.INFO},
		{"warn", bolt.WARN},
		{"WARNING", bolt.WARN},
		{"error", bolt.ERROR},
		{" Debug ", bolt.DEBUG},
		{"unknown", bolt.INFO},
		{"", bolt.INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewJSONWritesToOutput(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := New(Config{Level: "debug", Format: "json", Output: buf})
	logger.Info().Str("k", "v").Msg("hello")

	if !bytes.Contains(buf.Bytes(), []byte(`"k":"v"`)) {
		t.Errorf("expected field in output: %s", buf.String())
	}
}

func TestNewRespectsLevel(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := New(Config{Level: "error", Format: "json", Output: buf})
	logger.Info().Msg("dropped")

	if buf.Len() != 0 {
		t.Errorf("info event should be filtered at error level, got %s", buf.String())
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{"component", Component("router"), `"component":"router"`},
		{"session", SessionID("abc"), `"session_id":"abc"`},
		{"provider", Provider("claude"), `"provider":"claude"`},
		{"attempt", Attempt(2), `"attempt":2`},
		{"proposal", ProposalID(3), `"proposal_id":3`},
		{"chart", ChartType("bar"), `"chart_type":"bar"`},
		{"column", Column("genre"), `"column":"genre"`},
		{"rows", Rows(42), `"rows":42`},
		{"count", Count("dropped", 1), `"dropped":1`},
		{"duration", Duration(150 * time.Millisecond), `"duration_ms":150`},
		{"reason", Reason("placeholder key"), `"reason":"placeholder key"`},
		{"str", Str("sheet", "Sheet1"), `"sheet":"Sheet1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, buf := testLogger()
			tt.field(logger.Info()).Msg("test")

			if !bytes.Contains(buf.Bytes(), []byte(tt.want)) {
				t.Errorf("expected %s in output: %s", tt.want, buf.String())
			}
		})
	}
}

func TestErrField(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	Err(errors.New("boom"))(logger.Error()).Msg("failed")
	if !bytes.Contains(buf.Bytes(), []byte("boom")) {
		t.Errorf("expected error text in output: %s", buf.String())
	}

	logger, buf = testLogger()
	Err(nil)(logger.Info()).Msg("ok")
	if bytes.Contains(buf.Bytes(), []byte(`"error"`)) {
		t.Errorf("nil error should not add a field: %s", buf.String())
	}
}

func TestLogEventChaining(t *testing.T) {
	logger, buf := testLogger()
	SetLogger(logger)
	t.Cleanup(func() { SetLogger(New(DefaultConfig())) })

	Info().Add(Provider("gemini")).Add(Attempt(1)).Msg("calling provider")

	out := buf.String()
	for _, want := range []string{`"provider":"gemini"`, `"attempt":1`, "calling provider"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("expected %s in output: %s", want, out)
		}
	}
}
