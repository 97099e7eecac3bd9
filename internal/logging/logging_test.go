package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/lborres/assessgate/internal/config"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"", logrus.InfoLevel},
		{"loud", logrus.InfoLevel},
	}

	for _, test := range tests {
		test := test
		t.Run(test.level, func(t *testing.T) {
			logger := New(config.LogConfig{Level: test.level}, &bytes.Buffer{})

			if logger.GetLevel() != test.want {
				t.Errorf("level = %v, want %v", logger.GetLevel(), test.want)
			}
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LogConfig{Level: "info", Format: "json"}, &buf)

	logger.WithField("user_email", "a@b.com").Info("login succeeded")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["user_email"] != "a@b.com" || entry["msg"] != "login succeeded" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LogConfig{Level: "info", Format: "text"}, &buf)

	logger.Debug("hidden")
	logger.Info("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("output = %q", buf.String())
	}
}
