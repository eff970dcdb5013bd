// Package worker выполняет шаги runs.
//
// Структура:
//   - worker.go            — consumer steps.ready + polling fallback
//   - handlers.go          — обработка одного шага (без retry, fail-fast)
//   - executor.go          — интерфейс Executor и реестр по типу шага
//   - checkout_executor.go — git clone/fetch репозитория
//   - verify_executor.go   — проверка файлового контракта модели
//   - shell_executor.go    — команды через os/exec (deps, lint, test)
//   - workspace.go         — рабочие каталоги runs
//
// Worker — stateless компонент; экземпляры масштабируются горизонтально
// и потребляют из одной очереди.
package worker
