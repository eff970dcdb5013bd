package gh

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Заголовки GitHub webhook.
const (
	// HeaderEvent — тип события ("issue_comment", "ping", ...).
	HeaderEvent = "X-GitHub-Event"

	// HeaderDelivery — уникальный ID доставки. Используется как
	// idempotency key: GitHub может доставить событие повторно.
	HeaderDelivery = "X-GitHub-Delivery"

	// HeaderSignature — подпись HMAC-SHA256 тела запроса.
	HeaderSignature = "X-Hub-Signature-256"
)

// Ошибки разбора событий.
var (
	// ErrNotIssueComment — событие не issue_comment.
	ErrNotIssueComment = errors.New("not an issue_comment event")

	// ErrNotCreated — действие не "created" (edited/deleted игнорируются).
	ErrNotCreated = errors.New("comment action is not created")

	// ErrNotPullRequest — комментарий оставлен в issue, а не в pull request.
	ErrNotPullRequest = errors.New("comment is not on a pull request")
)

// IssueCommentEvent — payload события issue_comment.
//
// GitHub присылает одно и то же событие и для issues, и для pull requests;
// признак PR — наличие issue.pull_request.
type IssueCommentEvent struct {
	Action  string  `json:"action"`
	Issue   Issue   `json:"issue"`
	Comment Comment `json:"comment"`
	Repo    Repo    `json:"repository"`
}

// Issue — issue или pull request, к которому оставлен комментарий.
type Issue struct {
	Number int `json:"number"`

	// PullRequest присутствует только если issue — это PR.
	PullRequest *PullRequestRef `json:"pull_request,omitempty"`
}

// PullRequestRef — ссылка на PR внутри issue.
type PullRequestRef struct {
	URL string `json:"url"`
}

// Comment — комментарий.
type Comment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
	User User   `json:"user"`
}

// User — автор комментария.
type User struct {
	Login string `json:"login"`
}

// Repo — репозиторий события.
type Repo struct {
	// FullName — "owner/name".
	FullName string `json:"full_name"`

	// DefaultBranch — ветка по умолчанию (fallback для checkout ref).
	DefaultBranch string `json:"default_branch"`
}

// IsPullRequest возвращает true, если комментарий оставлен в pull request.
func (e *IssueCommentEvent) IsPullRequest() bool {
	return e.Issue.PullRequest != nil
}

// ParseIssueCommentEvent разбирает тело webhook-запроса.
//
// Возвращает:
//   - ErrNotIssueComment, если eventType не "issue_comment"
//   - ErrNotCreated, если action не "created"
//   - ErrNotPullRequest, если комментарий не на PR
//
// Все три случая — штатное игнорирование, не ошибки обработки.
func ParseIssueCommentEvent(eventType string, body []byte) (*IssueCommentEvent, error) {
	if eventType != "issue_comment" {
		return nil, fmt.Errorf("%w: %s", ErrNotIssueComment, eventType)
	}

	var event IssueCommentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("unmarshal issue_comment event: %w", err)
	}

	if event.Action != "created" {
		return nil, fmt.Errorf("%w: %s", ErrNotCreated, event.Action)
	}

	if !event.IsPullRequest() {
		return nil, ErrNotPullRequest
	}

	return &event, nil
}
