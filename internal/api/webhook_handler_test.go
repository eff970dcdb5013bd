package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2020-qqtcg/mindci/internal/gh"
)

func testHandler(secret string) *Handler {
	return NewHandler(Config{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		WebhookSecret: secret,
	})
}

// commentEvent строит payload issue_comment для PR-комментария.
func commentEvent(t *testing.T, action, body string, isPR bool) []byte {
	t.Helper()

	event := map[string]any{
		"action": action,
		"issue": map[string]any{
			"number": 42,
		},
		"comment": map[string]any{
			"id":   int64(1001),
			"body": body,
			"user": map[string]any{"login": "octocat"},
		},
		"repository": map[string]any{
			"full_name":      "mindspore-lab/mindnlp",
			"default_branch": "master",
		},
	}
	if isPR {
		event["issue"].(map[string]any)["pull_request"] = map[string]any{
			"url": "https://api.github.com/repos/mindspore-lab/mindnlp/pulls/42",
		}
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return data
}

func postWebhook(h *Handler, eventType string, body []byte, sign string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", bytes.NewReader(body))
	req.Header.Set(gh.HeaderEvent, eventType)
	req.Header.Set(gh.HeaderDelivery, "test-delivery-1")
	if sign != "" {
		req.Header.Set(gh.HeaderSignature, sign)
	}

	rec := httptest.NewRecorder()
	h.GitHubWebhook(rec, req)
	return rec
}

func TestGitHubWebhookRejectsBadSignature(t *testing.T) {
	h := testHandler("s3cret")
	body := commentEvent(t, "created", "/model bert", true)

	tests := []struct {
		name string
		sign string
	}{
		{"missing signature", ""},
		{"wrong signature", "sha256=deadbeef"},
		{"signature for other secret", gh.ComputeSignature("wrong", body)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postWebhook(h, "issue_comment", body, tt.sign)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestGitHubWebhookIgnoresIrrelevantEvents(t *testing.T) {
	h := testHandler("")

	tests := []struct {
		name      string
		eventType string
		body      []byte
	}{
		{"ping event", "ping", []byte(`{"zen":"Design for failure."}`)},
		{"edited comment", "issue_comment", nil},
		{"issue comment without PR", "issue_comment", nil},
		{"comment without command", "issue_comment", nil},
	}
	tests[1].body = commentEvent(t, "edited", "/model bert", true)
	tests[2].body = commentEvent(t, "created", "/model bert", false)
	tests[3].body = commentEvent(t, "created", "LGTM, merging", true)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postWebhook(h, tt.eventType, tt.body, "")
			if rec.Code != http.StatusAccepted {
				t.Fatalf("status = %d, want 202", rec.Code)
			}

			var resp struct {
				Data WebhookResponse `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if resp.Data.Status != "ignored" {
				t.Errorf("status = %q, want ignored", resp.Data.Status)
			}
			if resp.Data.RunID != nil {
				t.Error("run must not be created for ignored events")
			}
		})
	}
}

func TestGitHubWebhookRejectsInvalidCommand(t *testing.T) {
	h := testHandler("")

	// Подстрока /model есть, но команда не проходит полный паттерн
	bodies := []string{
		"/model",
		"/model ",
		"/model ../../../etc/passwd",
		"/model bert; rm -rf /",
		"/model bert extra",
		"use /model please",
	}

	for _, comment := range bodies {
		t.Run(comment, func(t *testing.T) {
			body := commentEvent(t, "created", comment, true)
			rec := postWebhook(h, "issue_comment", body, "")
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", rec.Code)
			}
		})
	}
}

func TestGitHubWebhookAcceptsValidSignature(t *testing.T) {
	h := testHandler("s3cret")

	// Комментарий без команды: подпись валидна, событие игнорируется —
	// путь до репозитория не доходит
	body := commentEvent(t, "created", "looks good to me", true)
	rec := postWebhook(h, "issue_comment", body, gh.ComputeSignature("s3cret", body))

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
}

func TestGitHubWebhookMalformedPayload(t *testing.T) {
	h := testHandler("")

	rec := postWebhook(h, "issue_comment", []byte("{not json"), "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
