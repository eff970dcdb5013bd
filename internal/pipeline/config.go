package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/2020-qqtcg/mindci/internal/domain"
)

// Load читает PipelineSpec из YAML-файла и валидирует его.
func Load(path string) (*domain.PipelineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline config: %w", err)
	}

	return Parse(data)
}

// Parse разбирает PipelineSpec из YAML и валидирует его.
func Parse(data []byte) (*domain.PipelineSpec, error) {
	var spec domain.PipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse pipeline config: %w", err)
	}

	if err := Validate(&spec); err != nil {
		return nil, fmt.Errorf("validate pipeline config: %w", err)
	}

	return &spec, nil
}

// LoadFromEnv возвращает пайплайн из файла PIPELINE_CONFIG,
// либо пайплайн по умолчанию, если переменная не задана.
func LoadFromEnv() (*domain.PipelineSpec, error) {
	path := os.Getenv("PIPELINE_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
