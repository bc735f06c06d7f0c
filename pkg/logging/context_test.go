package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogFields(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetLogFields(ctx))

	ctx = WithMessageID(ctx, "m-1")
	ctx = WithStage(ctx, "Audit")
	ctx = WithUniqueMessageID(ctx, "u-1")

	assert.Equal(t, []interface{}{
		"message_id", "m-1",
		"unique_message_id", "u-1",
		"stage", "Audit",
	}, GetLogFields(ctx))
}

func TestGetters_IgnoreForeignKeys(t *testing.T) {
	ctx := context.WithValue(context.Background(), "message_id", "plain-string-key")
	assert.Equal(t, "", GetMessageID(ctx))
}

func TestEarlyLog_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	exitCode := -1
	l := &EarlyLog{service: "audit-service", out: &buf, exit: func(code int) { exitCode = code }}

	l.Warn("failed to load %s", "config.yaml")
	l.Fatal("giving up")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "warn", first["level"])
	assert.Equal(t, "failed to load config.yaml", first["message"])
	assert.Equal(t, "audit-service", first["service_name"])
	assert.NotEmpty(t, first["timestamp"])

	assert.Contains(t, lines[1], `"level":"fatal"`)
	assert.Equal(t, 1, exitCode)
}
