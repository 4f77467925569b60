package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/savelyev/securesms/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSink_RecordsEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(logging.NewJSONLogger(&buf))

	sink.Record(context.Background(), "otp_issued", map[string]any{"username": "alice"})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "audit", rec["channel"])
	assert.Equal(t, "otp_issued", rec["event"])
	assert.Equal(t, "alice", rec["username"])
}
