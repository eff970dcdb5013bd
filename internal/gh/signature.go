package gh

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Ошибки проверки подписи.
var (
	// ErrMissingSignature — заголовок X-Hub-Signature-256 отсутствует.
	ErrMissingSignature = errors.New("missing webhook signature")

	// ErrInvalidSignature — подпись не совпала с вычисленной.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// VerifySignature проверяет подпись тела webhook-запроса.
//
// GitHub подписывает тело HMAC-SHA256 с общим секретом и передаёт
// результат в заголовке X-Hub-Signature-256 как "sha256=<hex>".
// Сравнение — constant-time.
//
// Пустой secret отключает проверку (режим разработки).
func VerifySignature(secret, signature string, body []byte) error {
	if secret == "" {
		return nil
	}

	if signature == "" {
		return ErrMissingSignature
	}

	expected := ComputeSignature(secret, body)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}

	return nil
}

// ComputeSignature вычисляет подпись тела в формате GitHub: "sha256=<hex>".
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// HasSHA256Prefix проверяет формат заголовка подписи.
func HasSHA256Prefix(signature string) bool {
	return strings.HasPrefix(signature, "sha256=")
}
