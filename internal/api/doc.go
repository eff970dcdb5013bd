// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (репозитории, publisher, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - webhook_handler.go  — приём GitHub webhooks (/webhooks/github)
//   - run_handler.go      — обработчики для /runs
//   - schedule_handler.go — обработчики для /schedules
//
// Главный вход системы — webhook: комментарий "/model <name>" в PR
// создаёт run. REST endpoints дают ручное управление runs и schedules.
package api
