// Package gh содержит интеграцию с GitHub.
//
// Структура:
//   - event.go     — типы webhook-событий (issue_comment) и их разбор
//   - signature.go — проверка подписи X-Hub-Signature-256 (HMAC-SHA256)
//   - client.go    — минимальный REST-клиент для публикации комментариев
//
// Входящая сторона (webhook) используется mindci-api,
// исходящая (client) — orchestrator'ом при финализации run.
package gh
