// Package cli реализует инструмент командной строки mindci.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с mindci API.
// Работает через HTTP, не импортирует внутренние пакеты системы
// (кроме offline-разбора команды /model в "mindci parse").
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для mindci API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	runs, err := client.ListRuns(cli.ListRunsOpts{Model: "bert"})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json encoder с отступами) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: mindci run list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - run: list, start, show, cancel, steps
//   - schedule: list, create, show, update, delete, enable, disable
//   - parse: offline-проверка текста комментария на команду /model
//
// Каждая группа создаётся через фабричную функцию (NewRunCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
