package gh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client — минимальный REST-клиент GitHub API.
//
// Используется orchestrator'ом для публикации комментария с результатом
// run обратно в pull request. Без токена клиент работает в режиме no-op:
// публикация комментариев — best-effort и никогда не валит run.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient создаёт клиент GitHub API.
// Пустой token разрешён — все публикации станут no-op.
func NewClient(token string) *Client {
	return &Client{
		baseURL: "https://api.github.com",
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithBaseURL создаёт клиент с нестандартным base URL
// (GitHub Enterprise, тесты).
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = baseURL
	return c
}

// Enabled возвращает true, если клиент сконфигурирован токеном.
func (c *Client) Enabled() bool {
	return c.token != ""
}

// PostComment публикует комментарий в issue/PR.
// repo — "owner/name", number — номер issue/PR.
func (c *Client) PostComment(ctx context.Context, repo string, number int, body string) error {
	if !c.Enabled() {
		return nil
	}

	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/issues/%d/comments", c.baseURL, repo, number)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post comment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("post comment: status %d: %s", resp.StatusCode, string(msg))
	}

	return nil
}
