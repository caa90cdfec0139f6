// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/newsdesk/internal/httputil"
	"github.com/pdiddy/newsdesk/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

var (
	summarizer = types.ModelSpec{ID: "facebook/bart-large-cnn", Kind: types.KindSummarization}
	writer     = types.ModelSpec{ID: "mistralai/Mixtral-8x7B-Instruct-v0.1", Kind: types.KindGenerative}
)

// captured records what the test server saw.
type captured struct {
	path   string
	auth   string
	ctype  string
	body   map[string]any
	called bool
}

// newServer returns a server that records the request and answers with
// status and body.
func newServer(t *testing.T, status int, body string, c *captured) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c != nil {
			c.called = true
			c.path = r.URL.Path
			c.auth = r.Header.Get("Authorization")
			c.ctype = r.Header.Get("Content-Type")
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &c.body)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testAdapter(ts *httptest.Server) *Adapter {
	return NewAdapter(types.InferenceConfig{
		Endpoint:     ts.URL + "/models",
		APIToken:     "hf_test",
		MaxNewTokens: 1024,
	}, ts.Client(), nil)
}

func TestInvokeSummarization(t *testing.T) {
	var c captured
	ts := newServer(t, http.StatusOK, `[{"summary_text":"Inflation eased."}]`, &c)

	reply := testAdapter(ts).Invoke(context.Background(), summarizer, "Iran inflation eased in March.")

	require.True(t, reply.OK(), "unexpected error: %v", reply.Err)
	assert.Equal(t, "Inflation eased.", reply.Text)
	assert.Equal(t, summarizer.ID, reply.Model)
	assert.Equal(t, "/models/facebook/bart-large-cnn", c.path)
	assert.Equal(t, "Bearer hf_test", c.auth)
	assert.Equal(t, "application/json", c.ctype)
}

func TestInvokeGenerative(t *testing.T) {
	ts := newServer(t, http.StatusOK, `[{"generated_text":"Iran's inflation rate fell in March, offering relief."}]`, nil)

	reply := testAdapter(ts).Invoke(context.Background(), writer, "write")

	require.True(t, reply.OK())
	assert.Equal(t, "Iran's inflation rate fell in March, offering relief.", reply.Text)
}

func TestInvokePayloadShape(t *testing.T) {
	tests := []struct {
		name           string
		spec           types.ModelSpec
		wantParameters bool
		wantOptions    bool
	}{
		{"explicit summarization", summarizer, false, true},
		{"explicit generative", writer, true, false},
		{"classified summarization", types.ModelSpec{ID: "sshleifer/distilbart-cnn-12-6"}, false, true},
		{"classified generative", types.ModelSpec{ID: "gpt2"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c captured
			ts := newServer(t, http.StatusOK, `[{"generated_text":"ok"}]`, &c)

			testAdapter(ts).Invoke(context.Background(), tt.spec, "the prompt")

			assert.Equal(t, "the prompt", c.body["inputs"])

			params, hasParams := c.body["parameters"].(map[string]any)
			assert.Equal(t, tt.wantParameters, hasParams)
			if hasParams {
				assert.Equal(t, false, params["return_full_text"])
				assert.Equal(t, float64(1024), params["max_new_tokens"])
			}

			opts, hasOpts := c.body["options"].(map[string]any)
			assert.Equal(t, tt.wantOptions, hasOpts)
			if hasOpts {
				assert.Equal(t, true, opts["wait_for_model"])
			}
		})
	}
}

func TestInvokeMaxNewTokensDefault(t *testing.T) {
	var c captured
	ts := newServer(t, http.StatusOK, `[{"generated_text":"ok"}]`, &c)

	a := NewAdapter(types.InferenceConfig{Endpoint: ts.URL}, ts.Client(), nil)
	a.Invoke(context.Background(), writer, "p")

	params := c.body["parameters"].(map[string]any)
	assert.Equal(t, float64(DefaultMaxNewTokens), params["max_new_tokens"])
}

func TestInvokeNoTokenOmitsAuthorization(t *testing.T) {
	var c captured
	ts := newServer(t, http.StatusOK, `[{"generated_text":"ok"}]`, &c)

	a := NewAdapter(types.InferenceConfig{Endpoint: ts.URL}, ts.Client(), nil)
	a.Invoke(context.Background(), writer, "p")

	assert.Empty(t, c.auth)
}

func TestInvokeFailureModesNeverRaise(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantText string
		wantErr  bool
		noResp   bool
	}{
		{"http 500", http.StatusInternalServerError, `{"error":"boom"}`, ErrorPlaceholder(writer.ID), true, false},
		{"http 400", http.StatusBadRequest, `{"error":"bad input"}`, ErrorPlaceholder(writer.ID), true, false},
		{"http 401", http.StatusUnauthorized, ``, ErrorPlaceholder(writer.ID), true, false},
		{"malformed json", http.StatusOK, `[{"generated_text":`, ErrorPlaceholder(writer.ID), true, false},
		{"html body", http.StatusOK, `<html>gateway</html>`, ErrorPlaceholder(writer.ID), true, false},
		{"empty list", http.StatusOK, `[]`, NoResponsePlaceholder, true, true},
		{"object body", http.StatusOK, `{"error":"loading"}`, NoResponsePlaceholder, true, true},
		{"missing expected field", http.StatusOK, `[{"label":"POSITIVE","score":0.9}]`, `[{"label":"POSITIVE","score":0.9}]`, false, false},
		{"non-object element", http.StatusOK, `["plain"]`, `["plain"]`, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newServer(t, tt.status, tt.body, nil)

			reply := testAdapter(ts).Invoke(context.Background(), writer, "p")

			assert.Equal(t, tt.wantText, reply.Text)
			assert.Equal(t, tt.wantErr, reply.Err != nil)
			if tt.noResp {
				assert.ErrorIs(t, reply.Err, ErrNoResponse)
			}
		})
	}
}

func TestInvokeNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	a := testAdapter(ts)
	ts.Close()

	reply := a.Invoke(context.Background(), summarizer, "p")

	assert.Error(t, reply.Err)
	assert.Equal(t, ErrorPlaceholder(summarizer.ID), reply.Text)
}

func TestInvokeTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	client := ts.Client()
	client.Timeout = 50 * time.Millisecond
	a := NewAdapter(types.InferenceConfig{Endpoint: ts.URL}, client, nil)

	reply := a.Invoke(context.Background(), writer, "p")

	assert.Error(t, reply.Err)
	assert.Equal(t, ErrorPlaceholder(writer.ID), reply.Text)
}

func TestInvokeDefaultConfigSinglePost(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	a := NewAdapter(types.InferenceConfig{Endpoint: ts.URL}, ts.Client(), nil)
	reply := a.Invoke(context.Background(), summarizer, "p")

	assert.Error(t, reply.Err)
	assert.Equal(t, ErrorPlaceholder(summarizer.ID), reply.Text)
	assert.Equal(t, int32(1), calls.Load())
}

func TestInvokeTimeoutBoundsRetries(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	a := NewAdapter(types.InferenceConfig{
		Endpoint:   ts.URL,
		MaxRetries: 5,
		HTTPConfig: types.HTTPConfig{Timeout: 100 * time.Millisecond},
	}, ts.Client(), nil)

	start := time.Now()
	reply := a.Invoke(context.Background(), writer, "p")
	elapsed := time.Since(start)

	assert.Error(t, reply.Err)
	assert.Equal(t, ErrorPlaceholder(writer.ID), reply.Text)
	assert.Less(t, elapsed, time.Second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestInvokeEmptyModelID(t *testing.T) {
	a := NewAdapter(types.InferenceConfig{Endpoint: "http://127.0.0.1:0"}, nil, nil)

	reply := a.Invoke(context.Background(), types.ModelSpec{}, "p")

	assert.Error(t, reply.Err)
	assert.Equal(t, ErrorPlaceholder(""), reply.Text)
}

func TestInvokeLogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ts := newServer(t, http.StatusInternalServerError, `oops`, nil)
	a := NewAdapter(types.InferenceConfig{Endpoint: ts.URL}, ts.Client(), zap.New(core))

	a.Invoke(context.Background(), summarizer, "p")

	failed := logs.FilterMessage("model call failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, summarizer.ID, failed[0].ContextMap()["model"])
}

func TestExtractFieldPrecedence(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "summary wins over generated", body: `[{"generated_text":"gen","summary_text":"sum"}]`, want: "sum"},
		{name: "summary only", body: `[{"summary_text":"sum"}]`, want: "sum"},
		{name: "generated only", body: `[{"generated_text":"gen"}]`, want: "gen"},
		{name: "neither re-encoded", body: `[{"label":"x"}]`, want: `[{"label":"x"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extract([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInvokeGenerativeReplyWithBothFields(t *testing.T) {
	ts := newServer(t, http.StatusOK, `[{"generated_text":"gen","summary_text":"sum"}]`, nil)

	reply := testAdapter(ts).Invoke(context.Background(), writer, "write")

	require.True(t, reply.OK())
	assert.Equal(t, "sum", reply.Text)
}

func TestSnippetKeepsRunesWhole(t *testing.T) {
	body := strings.Repeat("خ", 250)

	got := snippet([]byte(body))

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("خ", 200)+"...", got)
}

func TestInvokeErrorBodyIsValidUTF8(t *testing.T) {
	ts := newServer(t, http.StatusInternalServerError, strings.Repeat("خطا", 100), nil)

	reply := testAdapter(ts).Invoke(context.Background(), summarizer, "p")

	require.Error(t, reply.Err)
	assert.True(t, utf8.ValidString(reply.Err.Error()))
}
