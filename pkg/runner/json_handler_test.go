package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHandler_Output(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), buf)

	require.NoError(t, handler.Output(context.Background(), "Hello"))
	require.NoError(t, handler.SystemOutput(context.Background(), "saved"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, Event{Type: EventMessage, Text: "Hello"}, first)
	assert.Equal(t, Event{Type: EventSystem, Text: "saved"}, second)
}

func TestJSONHandler_Input(t *testing.T) {
	handler := NewJSONHandler(strings.NewReader("\"5 lakh\"\nraw text\nlast"), io.Discard)
	ctx := context.Background()

	val, err := handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5 lakh", val)

	val, err = handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "raw text", val)

	val, err = handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "last", val)

	_, err = handler.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}
