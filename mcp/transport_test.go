package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grparry/mcpinvoke/jsonrpc"
)

func runTransport(t *testing.T, input string) string {
	t.Helper()
	server := setupTestServer(t)

	var out, errOut bytes.Buffer
	transport := NewStdioTransport(server, strings.NewReader(input), &out, &errOut)
	require.NoError(t, transport.Run(context.Background()))
	assert.Empty(t, errOut.String())
	return out.String()
}

func decodeFrames(t *testing.T, output string) []map[string]any {
	t.Helper()
	var frames []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}
		var frame map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &frame))
		frames = append(frames, frame)
	}
	return frames
}

func TestTransportRoundTrip(t *testing.T) {
	input := `{"jsonrpc":"2.0","method":"initialize","params":{"protocolVersion":"2025-06-18"},"id":1}
{"jsonrpc":"2.0","method":"tools/call","params":{"name":"Calc_Add","arguments":{"a":10,"b":5}},"id":2}
`
	frames := decodeFrames(t, runTransport(t, input))
	require.Len(t, frames, 2)

	result := frames[0]["result"].(map[string]any)
	assert.Equal(t, Version, result["protocolVersion"])

	result = frames[1]["result"].(map[string]any)
	content := result["content"].([]any)
	require.Len(t, content, 1)
	assert.Equal(t, "15", content[0].(map[string]any)["text"])
}

func TestTransportNotificationProducesNoFrame(t *testing.T) {
	input := `{"jsonrpc":"2.0","method":"notifications/initialized"}
{"jsonrpc":"2.0","method":"ping","id":1}
`
	frames := decodeFrames(t, runTransport(t, input))
	// Only the ping gets a response.
	require.Len(t, frames, 1)
	assert.Equal(t, float64(1), frames[0]["id"])
}

func TestTransportParseErrorNullID(t *testing.T) {
	frames := decodeFrames(t, runTransport(t, "{not json}\n"))
	require.Len(t, frames, 1)

	// The id member must be present and null when the request is unparseable.
	id, present := frames[0]["id"]
	assert.True(t, present)
	assert.Nil(t, id)

	errObj := frames[0]["error"].(map[string]any)
	assert.Equal(t, float64(jsonrpc.ErrParse), errObj["code"])
}

func TestTransportSkipsBlankLines(t *testing.T) {
	input := "\n\n" + `{"jsonrpc":"2.0","method":"ping","id":7}` + "\n\n"
	frames := decodeFrames(t, runTransport(t, input))
	require.Len(t, frames, 1)
	assert.Equal(t, float64(7), frames[0]["id"])
}
