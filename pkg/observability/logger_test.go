package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logLine struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
	Component string `json:"component"`
}

func decodeLine(t *testing.T, buf *bytes.Buffer) logLine {
	t.Helper()
	var line logLine
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	t.Run("debug not logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		assert.Zero(t, buf.Len())
	})

	t.Run("info logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Info("info message")
		line := decodeLine(t, &buf)
		assert.Equal(t, "info", line.Level)
		assert.Equal(t, "info message", line.Message)
	})

	t.Run("warn and error logged", func(t *testing.T) {
		buf.Reset()
		logger.Warn("SECRET_KEY is not set")
		assert.Equal(t, "warning", decodeLine(t, &buf).Level)

		buf.Reset()
		logger.Infof("listening on %s", ":8000")
		assert.Equal(t, "listening on :8000", decodeLine(t, &buf).Message)

		buf.Reset()
		logger.Error("template render failed")
		line := decodeLine(t, &buf)
		assert.Equal(t, "error", line.Level)
		assert.Equal(t, "template render failed", line.Message)
	})
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(DebugLevel, &buf)

	logger.WithField("component", "router").
		WithError(errors.New("boom")).
		Debug("with fields")

	line := decodeLine(t, &buf)
	assert.Equal(t, "router", line.Component)
	assert.Equal(t, "boom", line.Error)
	assert.Equal(t, "debug", line.Level)

	assert.Same(t, logger, logger.WithError(nil))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"", InfoLevel},
		{"warning", WarnLevel},
		{"Warn", WarnLevel},
		{"error", ErrorLevel},
		{"CRITICAL", ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-123")

	FromContext(ctx).Info("tagged")

	line := decodeLine(t, &buf)
	assert.Equal(t, "req-123", line.RequestID)
	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
	assert.NotNil(t, FromContext(context.Background()))
}

// lockedBuffer is written from the logrus pipe goroutine
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

func TestLogger_StdLogger(t *testing.T) {
	out := &lockedBuffer{}
	logger := NewLogger(InfoLevel, out)

	logger.StdLogger("http").Print("http: TLS handshake error from 10.0.0.1:5000: EOF")

	assert.Eventually(t, func() bool { return len(out.Bytes()) > 0 }, time.Second, 5*time.Millisecond)
	line := decodeLine(t, bytes.NewBuffer(out.Bytes()))
	assert.Equal(t, "error", line.Level)
	assert.Equal(t, "http", line.Component)
	assert.Contains(t, line.Message, "TLS handshake error")
}
