// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - run.pending     — новый run ожидает выполнения
//   - step.ready      — шаг готов к выполнению
//   - step.completed  — шаг завершён
//
// Exchanges:
//   - mindci.runs   — события runs
//   - mindci.steps  — события шагов
//   - mindci.dlq    — dead letter queue
package mq
