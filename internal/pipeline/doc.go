// Package pipeline определяет последовательность шагов прогона модели.
//
// Включает:
//   - defaults.go — пайплайн по умолчанию (checkout → verify → deps → lint → test)
//   - config.go   — загрузка PipelineSpec из YAML-файла (PIPELINE_CONFIG)
//   - validate.go — валидация спецификации
//   - expand.go   — подстановка {model} и материализация шагов run
//   - errors.go   — sentinel-ошибки и ValidationError
//
// Пайплайн строго линейный: порядок шагов — порядок в Steps,
// без зависимостей, веток и retry.
package pipeline
