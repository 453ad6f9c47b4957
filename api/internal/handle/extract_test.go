package handle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiz-relay/api/internal/gemini"
)

type fakeGenerator struct {
	calls  int
	apiKey string
	got    gemini.Request
	resp   *gemini.Response
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, apiKey string, in gemini.Request) (*gemini.Response, error) {
	f.calls++
	f.apiKey = apiKey
	f.got = in
	return f.resp, f.err
}

func staticKey(k string) func() string { return func() string { return k } }

func do(h *Handle, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/gemini", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Extract(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("body %q is not JSON: %v", rec.Body.String(), err)
	}
	return out["error"]
}

func TestExtractMethodNotAllowed(t *testing.T) {
	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions} {
		t.Run(m, func(t *testing.T) {
			gen := &fakeGenerator{}
			rec := do(New(gen, staticKey("")), m, `{"image_base64":"abcd"}`)
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", rec.Code)
			}
			if got := errorBody(t, rec); got != "Method not allowed" {
				t.Errorf("error = %q", got)
			}
			if gen.calls != 0 {
				t.Error("upstream must not be called")
			}
		})
	}
}

func TestExtractMissingAPIKey(t *testing.T) {
	gen := &fakeGenerator{}
	rec := do(New(gen, staticKey("")), http.MethodPost, `{"image_base64":"abcd"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if got := errorBody(t, rec); got != "GEMINI_API_KEY is not set" {
		t.Errorf("error = %q", got)
	}
	if gen.calls != 0 {
		t.Error("upstream must not be called")
	}
}

func TestExtractImageRequired(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"empty object", `{}`},
		{"empty image", `{"image_base64":""}`},
		{"only mime", `{"mime_type":"image/jpeg"}`},
		{"not json", `image=abcd`},
		{"wrong type", `{"image_base64":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			rec := do(New(gen, staticKey("k")), http.MethodPost, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if got := errorBody(t, rec); got != "image_base64 is required" {
				t.Errorf("error = %q", got)
			}
			if gen.calls != 0 {
				t.Error("upstream must not be called")
			}
		})
	}
}

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantData string
		wantMime string
	}{
		{"jpeg", `{"image_base64":"abcd","mime_type":"image/jpeg"}`, "abcd", "image/jpeg"},
		{"default mime", `{"image_base64":"iVBORw0KGgo="}`, "iVBORw0KGgo=", "image/png"},
		{"empty mime", `{"image_base64":"abcd","mime_type":""}`, "abcd", "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{resp: &gemini.Response{Status: 200, Body: []byte("{}")}}
			rec := do(New(gen, staticKey("secret")), http.MethodPost, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if gen.calls != 1 {
				t.Fatalf("calls = %d, want 1", gen.calls)
			}
			if gen.apiKey != "secret" {
				t.Errorf("apiKey = %q", gen.apiKey)
			}
			parts := gen.got.Contents[0].Parts
			if len(parts) != 2 {
				t.Fatalf("parts = %d, want 2", len(parts))
			}
			if parts[0].InlineData.Data != tt.wantData || parts[0].InlineData.MimeType != tt.wantMime {
				t.Errorf("inline_data = %+v", parts[0].InlineData)
			}
			if parts[1].Text != gemini.BuildPrompt() {
				t.Errorf("text part = %q", parts[1].Text)
			}
		})
	}
}

func TestExtractPassthrough(t *testing.T) {
	tests := []struct {
		status int
		body   string
	}{
		{200, `{"question":"Q","options":["A","B"],"correct_answer":"A"}`},
		{201, "plain text, not json"},
		{400, `{"error":{"code":400,"message":"API key not valid"}}`},
		{429, `{"error":{"code":429}}`},
		{503, ""},
		{599, "<html>oops</html>"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			gen := &fakeGenerator{resp: &gemini.Response{Status: tt.status, Body: []byte(tt.body)}}
			rec := do(New(gen, staticKey("k")), http.MethodPost, `{"image_base64":"abcd"}`)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestExtractForwardsContentType(t *testing.T) {
	gen := &fakeGenerator{resp: &gemini.Response{Status: 200, ContentType: "application/json; charset=UTF-8", Body: []byte("{}")}}
	rec := do(New(gen, staticKey("k")), http.MethodPost, `{"image_base64":"abcd"}`)
	if got := rec.Header().Get("Content-Type"); got != "application/json; charset=UTF-8" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestExtractUpstreamError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("dial tcp: connection refused")}
	rec := do(New(gen, staticKey("k")), http.MethodPost, `{"image_base64":"abcd"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if got := errorBody(t, rec); got != "dial tcp: connection refused" {
		t.Errorf("error = %q", got)
	}
}

// Сценарий целиком: настоящий клиент против тестового Gemini.
func TestExtractEndToEnd(t *testing.T) {
	const answer = `{"question":"Q","options":["A","B"],"correct_answer":"A"}`
	var got gemini.Request
	var gotKey string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(answer))
	}))
	defer upstream.Close()

	h := New(gemini.New(upstream.URL, 5*time.Second), staticKey("secret"))
	rec := do(h, http.MethodPost, `{"image_base64":"abcd","mime_type":"image/jpeg"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != answer {
		t.Errorf("body = %q", rec.Body.String())
	}
	if gotKey != "secret" {
		t.Errorf("x-goog-api-key = %q", gotKey)
	}
	if d := got.Contents[0].Parts[0].InlineData; d == nil || d.Data != "abcd" || d.MimeType != "image/jpeg" {
		t.Errorf("inline_data = %+v", d)
	}
}

func TestExtractEndToEndTransportFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	h := New(gemini.New(url, time.Second), staticKey("k"))
	rec := do(h, http.MethodPost, `{"image_base64":"abcd"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if msg := errorBody(t, rec); !strings.Contains(msg, url) {
		t.Errorf("error %q should mention the upstream url", msg)
	}
}
