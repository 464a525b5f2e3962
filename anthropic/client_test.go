package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalStream = "event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"id\":\"msg_1\",\"type\":\"message\",\"role\":\"assistant\",\"content\":[],\"model\":\"m\",\"stop_reason\":null,\"stop_sequence\":null,\"usage\":{\"input_tokens\":0,\"output_tokens\":0}}}\n\nevent: message_stop\ndata: {\"type\":\"message_stop\"}\n\n"

func TestClient_RequestFormat(t *testing.T) {
	t.Parallel()

	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)

		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-api-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("Anthropic-Version"))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(minimalStream))
	}))
	defer srv.Close()

	cfg := relay.PlainPreset()
	cfg.Model = "claude-opus-4-20250514"
	cfg.SystemInstruction = "You are helpful."
	client := anthropic.New("test-api-key", anthropic.WithBaseURL(srv.URL))

	res := relay.NewBridge(client, cfg, relay.WithPersona("P: ")).Deliver(context.Background(), "Hello")
	require.NoError(t, res.Err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured, &body))

	assert.Equal(t, "claude-opus-4-20250514", body["model"])
	assert.Equal(t, float64(1024), body["max_tokens"])
	assert.Equal(t, true, body["stream"])
	assert.Equal(t, 0.7, body["temperature"])
	assert.Equal(t, 0.8, body["top_p"])
	assert.Equal(t, float64(40), body["top_k"])

	system := body["system"].([]any)
	require.Len(t, system, 1)
	assert.Equal(t, "You are helpful.", system[0].(map[string]any)["text"])

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	msg0 := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg0["role"])
	content0 := msg0["content"].([]any)
	require.Len(t, content0, 1)
	block0 := content0[0].(map[string]any)
	assert.Equal(t, "text", block0["type"])
	assert.Equal(t, "P: Hello", block0["text"])
}

func TestClient_DefaultMaxTokens(t *testing.T) {
	t.Parallel()
	resp := &sseResponse{events: []sseEvent{{"message_stop", `{"type":"message_stop"}`}}}
	client := newClient(t, resp)

	res := relay.NewBridge(client, relay.ModelConfig{Model: "m"}).Deliver(context.Background(), "Hi")
	require.NoError(t, res.Err)

	bodies := resp.bodies()
	require.Len(t, bodies, 1)
	var body map[string]any
	require.NoError(t, json.Unmarshal(bodies[0], &body))
	assert.Equal(t, float64(8192), body["max_tokens"])
	assert.NotContains(t, body, "temperature")
	assert.NotContains(t, body, "system")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	client := anthropic.New("bad", anthropic.WithBaseURL(srv.URL))
	res := relay.NewBridge(client, relay.ModelConfig{Model: "m"}).Deliver(context.Background(), "Hi")

	require.Error(t, res.Err)
	assert.Equal(t, "anthropic: authentication_error: invalid x-api-key", res.Text)
}

func TestClient_HTTPErrorNonJSON(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	client := anthropic.New("k", anthropic.WithBaseURL(srv.URL))
	res := relay.NewBridge(client, relay.ModelConfig{Model: "m"}).Deliver(context.Background(), "Hi")

	require.Error(t, res.Err)
	assert.Equal(t, "anthropic: HTTP 502: upstream down", res.Text)
}

func TestClient_ConnectValidates(t *testing.T) {
	t.Parallel()
	_, err := anthropic.New("k").Connect(context.Background(), relay.ModelConfig{})
	assert.ErrorIs(t, err, relay.ErrValidation)
}
