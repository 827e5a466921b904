package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raphaelgruber/promptpad/internal/config"
	"github.com/raphaelgruber/promptpad/internal/metrics"
	"github.com/raphaelgruber/promptpad/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSelection() models.ModelSelection {
	return models.ModelSelection{
		Model:    &models.ModelConfig{ModelID: "ep-test", ModelName: "test"},
		APIToken: "secret",
	}
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]byte) {
	t.Helper()
	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestCompleteRequestShape(t *testing.T) {
	var gotReq *http.Request
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithLogger(config.DiscardLogger()))
	history := []models.Turn{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
	}
	_, err := client.Complete(context.Background(), testSelection(), "be brief", "again", history)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotReq.Method)
	assert.Equal(t, "application/json", gotReq.Header.Get("Content-Type"))
	assert.Equal(t, "Bearer secret", gotReq.Header.Get("Authorization"))

	assert.Equal(t, "ep-test", gotBody.Model)
	require.Len(t, gotBody.Messages, 4)
	roles := []string{}
	for _, m := range gotBody.Messages {
		require.Len(t, m.Content, 1)
		assert.Equal(t, "text", m.Content[0].Type)
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles)
	assert.Equal(t, "be brief", gotBody.Messages[0].Content[0].Text)
	assert.Equal(t, "again", gotBody.Messages[3].Content[0].Text)
}

func TestCompleteConfigurationError(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK, `{}`)
	client := NewClient(srv.URL, WithLogger(config.DiscardLogger()))

	tests := []struct {
		name string
		sel  models.ModelSelection
	}{
		{"no model", models.ModelSelection{APIToken: "secret"}},
		{"no token", models.ModelSelection{Model: &models.ModelConfig{ModelID: "m"}}},
		{"empty model id", models.ModelSelection{Model: &models.ModelConfig{}, APIToken: "secret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Complete(context.Background(), tt.sel, "s", "u", nil)
			assert.Same(t, ErrConfiguration, err, "configuration errors are surfaced unwrapped")
			assert.Equal(t, "Missing model configuration. Please set up your model ID and API token.", err.Error())
		})
	}
	assert.Nil(t, *captured, "no request should be sent")
}

func TestCompleteResponses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
		errText string
	}{
		{name: "string content", status: 200, body: `{"choices":[{"message":{"content":"hello"}}]}`, want: "hello"},
		{name: "block list", status: 200, body: `{"choices":[{"message":{"content":[{"type":"text","text":"from block"}]}}]}`, want: "from block"},
		{name: "single block", status: 200, body: `{"choices":[{"message":{"content":{"type":"text","text":"single"}}}]}`, want: "single"},
		{name: "legacy string element", status: 200, body: `{"choices":[{"message":{"content":["legacy"]}}]}`, want: "legacy"},
		{name: "empty string content", status: 200, body: `{"choices":[{"message":{"content":""}}]}`, want: ""},
		{name: "201 is success", status: 201, body: `{"choices":[{"message":{"content":"created"}}]}`, want: "created"},

		{name: "empty body", status: 200, body: ``, wantErr: ErrEmptyResponse},
		{name: "null body", status: 200, body: `null`, wantErr: ErrEmptyResponse},
		{name: "missing choices", status: 200, body: `{}`, wantErr: ErrMissingChoices},
		{name: "empty choices", status: 200, body: `{"choices":[]}`, wantErr: ErrMissingChoices},
		{name: "choices not array", status: 200, body: `{"choices":"nope"}`, wantErr: ErrMissingChoices},
		{name: "body is array", status: 200, body: `[1,2]`, wantErr: ErrMissingChoices},
		{name: "missing message", status: 200, body: `{"choices":[{}]}`, wantErr: ErrMissingMessage},
		{name: "null message", status: 200, body: `{"choices":[{"message":null}]}`, wantErr: ErrMissingMessage},
		{name: "numeric content", status: 200, body: `{"choices":[{"message":{"content":42}}]}`, wantErr: ErrInvalidContentFormat},
		{name: "absent content", status: 200, body: `{"choices":[{"message":{"role":"assistant"}}]}`, wantErr: ErrInvalidContentFormat},
		{name: "block without text", status: 200, body: `{"choices":[{"message":{"content":[{"type":"image"}]}}]}`, wantErr: ErrMissingText},
		{name: "non-string text", status: 200, body: `{"choices":[{"message":{"content":{"text":7}}}]}`, wantErr: ErrMissingText},
		{name: "empty block list", status: 200, body: `{"choices":[{"message":{"content":[]}}]}`, wantErr: ErrMissingText},

		{name: "server message", status: 400, body: `{"message":"bad token"}`, errText: "API Error: bad token"},
		{name: "nested error message", status: 401, body: `{"error":{"message":"invalid key"}}`, errText: "API Error: invalid key"},
		{name: "no server message", status: 500, body: `{}`, errText: "API Error: 500 - Internal Server Error"},
		{name: "non-JSON error body", status: 502, body: `<html>bad gateway</html>`, errText: "API Error: 502 - Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			client := NewClient(srv.URL, WithLogger(config.DiscardLogger()))

			got, err := client.Complete(context.Background(), testSelection(), "s", "u", nil)
			if tt.wantErr == nil && tt.errText == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			require.Error(t, err)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "failures must be wrapped in APIError, got %T", err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "API Error: "+tt.wantErr.Error(), err.Error())
			}
			if tt.errText != "" {
				assert.Equal(t, tt.errText, err.Error())
				var httpErr *HTTPError
				require.True(t, errors.As(err, &httpErr))
				assert.Equal(t, tt.status, httpErr.StatusCode)
			}
		})
	}
}

func TestCompleteInvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"choices":`)
	client := NewClient(srv.URL, WithLogger(config.DiscardLogger()))

	_, err := client.Complete(context.Background(), testSelection(), "s", "u", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API Error: decode response")
}

func TestCompleteNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, WithLogger(config.DiscardLogger()))
	_, err := client.Complete(context.Background(), testSelection(), "s", "u", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, err.Error(), "send request")
}

func TestCompleteRecordsUsage(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK,
		`{"choices":[{"message":{"content":"hi"}}],"usage":{"prompt_tokens":12,"completion_tokens":3}}`)
	m := metrics.NewCollector()
	client := NewClient(srv.URL, WithLogger(config.DiscardLogger()), WithMetrics(m))

	_, err := client.Complete(context.Background(), testSelection(), "s", "u", nil)
	require.NoError(t, err)

	snap := m.Snapshot()
	require.NotNil(t, snap.Completion)
	assert.Equal(t, int64(1), snap.Completion.Count)
	require.NotNil(t, snap.Completion.TotalInputTokens)
	assert.Equal(t, int64(12), *snap.Completion.TotalInputTokens)
	assert.Equal(t, int64(3), *snap.Completion.TotalOutputTokens)
}

func TestCompleteRecordsFailure(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest, `{"message":"bad token"}`)
	m := metrics.NewCollector()
	client := NewClient(srv.URL, WithLogger(config.DiscardLogger()), WithMetrics(m))

	_, err := client.Complete(context.Background(), testSelection(), "s", "u", nil)
	require.Error(t, err)
	assert.Equal(t, int64(1), m.Snapshot().Failures[metrics.OpCompletion])
}
