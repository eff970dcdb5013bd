package command

import (
	"errors"
	"regexp"
	"strings"
)

// Prefix — подстрока-триггер. Комментарии без неё игнорируются
// ещё до разбора (аналог contains-гейта на триггере).
const Prefix = "/model"

// modelCmdRe — полный паттерн команды. Якоря обязательны:
// имя модели не может содержать ничего за пределами [a-zA-Z0-9_-].
var modelCmdRe = regexp.MustCompile(`^/model\s+([a-zA-Z0-9_-]+)$`)

// Ошибки разбора команды.
var (
	// ErrNotCommand — комментарий не содержит подстроку /model.
	ErrNotCommand = errors.New("comment does not contain a model command")

	// ErrNoValidCommand — подстрока /model есть, но полный паттерн
	// не совпал (нет имени, лишние символы, path traversal и т.п.).
	ErrNoValidCommand = errors.New("no valid model command")
)

// ModelCommand — разобранная команда /model.
type ModelCommand struct {
	// Model — извлечённое имя модели.
	Model string
}

// Contains проверяет гейт: есть ли в теле комментария подстрока /model.
func Contains(body string) bool {
	return strings.Contains(body, Prefix)
}

// Parse разбирает тело комментария в ModelCommand.
//
// Порядок обработки:
//  1. Гейт: тело должно содержать подстроку /model, иначе ErrNotCommand.
//  2. Нормализация: срезаются окружающие пробелы, удаляются \r,
//     берётся первая строка.
//  3. Полное совпадение с ^/model\s+([a-zA-Z0-9_-]+)$,
//     иначе ErrNoValidCommand.
func Parse(body string) (*ModelCommand, error) {
	if !Contains(body) {
		return nil, ErrNotCommand
	}

	line := Normalize(body)

	m := modelCmdRe.FindStringSubmatch(line)
	if m == nil {
		return nil, ErrNoValidCommand
	}

	return &ModelCommand{Model: m[1]}, nil
}

// Normalize приводит тело комментария к виду для сопоставления:
// удаляет \r, срезает окружающие пробелы и оставляет первую строку.
func Normalize(body string) string {
	s := strings.ReplaceAll(body, "\r", "")
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

// ValidModelName проверяет, что строка — допустимое имя модели
// (без разбора всей команды). Используется при ручном запуске через API.
var modelNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidModelName возвращает true для имён из класса [a-zA-Z0-9_-]+.
func IsValidModelName(name string) bool {
	return modelNameRe.MatchString(name)
}
