// Package orchestrator управляет жизненным циклом runs.
//
// Orchestrator забирает pending runs, разворачивает пайплайн модели в
// последовательность шагов и диспатчит их воркерам строго по одному:
// шаг N+1 публикуется только после SUCCEEDED шага N. Упавший шаг валит
// run (fail-fast): оставшиеся шаги помечаются SKIPPED, retry нет.
//
// События приходят через RabbitMQ (runs.pending, steps.completed);
// polling по БД служит fallback'ом на случай потерянных сообщений
// и рестартов.
package orchestrator
