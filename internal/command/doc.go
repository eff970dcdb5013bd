// Package command разбирает команды из комментариев к pull request.
//
// Единственная поддерживаемая команда:
//
//	/model <name>
//
// где <name> — имя модели из класса символов [a-zA-Z0-9_-]+.
// Класс символов одновременно служит защитой от path traversal:
// имя модели — единственный пользовательский компонент путей
// mindnlp/transformers/models/<name> и tests/ut/transformers/models/<name>.
package command
