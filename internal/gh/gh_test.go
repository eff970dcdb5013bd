package gh

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// --- Signature ---

func TestVerifySignature_Valid(t *testing.T) {
	secret := "topsecret"
	body := []byte(`{"action":"created"}`)

	sig := ComputeSignature(secret, body)
	if !HasSHA256Prefix(sig) {
		t.Fatalf("signature has wrong format: %s", sig)
	}

	if err := VerifySignature(secret, sig, body); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestVerifySignature_Invalid(t *testing.T) {
	secret := "topsecret"
	body := []byte(`{"action":"created"}`)

	tests := []struct {
		name string
		sig  string
		want error
	}{
		{name: "missing", sig: "", want: ErrMissingSignature},
		{name: "wrong secret", sig: ComputeSignature("other", body), want: ErrInvalidSignature},
		{name: "tampered body", sig: ComputeSignature(secret, []byte("x")), want: ErrInvalidSignature},
		{name: "garbage", sig: "sha256=deadbeef", want: ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(secret, tt.sig, body)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestVerifySignature_EmptySecretDisablesCheck(t *testing.T) {
	if err := VerifySignature("", "", []byte("anything")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// --- Event parsing ---

func prCommentBody(t *testing.T, action, comment string) []byte {
	t.Helper()
	event := map[string]any{
		"action": action,
		"issue": map[string]any{
			"number":       42,
			"pull_request": map[string]any{"url": "https://api.github.com/repos/o/r/pulls/42"},
		},
		"comment": map[string]any{
			"id":   int64(1001),
			"body": comment,
			"user": map[string]any{"login": "alice"},
		},
		"repository": map[string]any{
			"full_name":      "o/r",
			"default_branch": "master",
		},
	}
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return body
}

func TestParseIssueCommentEvent_PullRequestComment(t *testing.T) {
	body := prCommentBody(t, "created", "/model bert")

	event, err := ParseIssueCommentEvent("issue_comment", body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if event.Issue.Number != 42 {
		t.Errorf("expected PR number 42, got %d", event.Issue.Number)
	}
	if event.Comment.Body != "/model bert" {
		t.Errorf("unexpected comment body: %q", event.Comment.Body)
	}
	if event.Comment.User.Login != "alice" {
		t.Errorf("unexpected login: %q", event.Comment.User.Login)
	}
	if event.Repo.FullName != "o/r" {
		t.Errorf("unexpected repo: %q", event.Repo.FullName)
	}
	if !event.IsPullRequest() {
		t.Error("expected IsPullRequest to be true")
	}
}

func TestParseIssueCommentEvent_Ignored(t *testing.T) {
	issueOnly := []byte(`{"action":"created","issue":{"number":7},"comment":{"id":1,"body":"/model bert"}}`)

	tests := []struct {
		name      string
		eventType string
		body      []byte
		want      error
	}{
		{name: "wrong event type", eventType: "push", body: prCommentBody(t, "created", "/model bert"), want: ErrNotIssueComment},
		{name: "edited action", eventType: "issue_comment", body: prCommentBody(t, "edited", "/model bert"), want: ErrNotCreated},
		{name: "plain issue", eventType: "issue_comment", body: issueOnly, want: ErrNotPullRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIssueCommentEvent(tt.eventType, tt.body)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// --- Client ---

func TestClient_PostComment(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("token123", server.URL)
	if err := client.PostComment(context.Background(), "o/r", 42, "tests passed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/repos/o/r/issues/42/comments" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer token123" {
		t.Errorf("unexpected auth header: %s", gotAuth)
	}
	if gotBody["body"] != "tests passed" {
		t.Errorf("unexpected body: %v", gotBody)
	}
}

func TestClient_PostComment_NoTokenIsNoop(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClientWithBaseURL("", server.URL)
	if err := client.PostComment(context.Background(), "o/r", 1, "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Error("expected no HTTP call without a token")
	}
}

func TestClient_PostComment_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("token", server.URL)
	if err := client.PostComment(context.Background(), "o/r", 1, "x"); err == nil {
		t.Error("expected error on 403 response")
	}
}
