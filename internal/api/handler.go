package api

import (
	"log/slog"

	"github.com/2020-qqtcg/mindci/internal/mq"
	"github.com/2020-qqtcg/mindci/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	runRepo      *repo.RunRepo
	stepRepo     *repo.StepRepo
	scheduleRepo *repo.ScheduleRepo
	publisher    *mq.Publisher
	logger       *slog.Logger

	// webhookSecret — общий секрет HMAC-подписи GitHub.
	// Пустой секрет отключает проверку (режим разработки).
	webhookSecret string

	// defaultRepo — репозиторий для runs, созданных вручную и по
	// расписанию без явного repo (например "mindspore-lab/mindnlp").
	defaultRepo string
}

// Config — конфигурация для создания Handler.
type Config struct {
	RunRepo       *repo.RunRepo
	StepRepo      *repo.StepRepo
	ScheduleRepo  *repo.ScheduleRepo
	Publisher     *mq.Publisher
	Logger        *slog.Logger
	WebhookSecret string
	DefaultRepo   string
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		runRepo:       cfg.RunRepo,
		stepRepo:      cfg.StepRepo,
		scheduleRepo:  cfg.ScheduleRepo,
		publisher:     cfg.Publisher,
		logger:        logger,
		webhookSecret: cfg.WebhookSecret,
		defaultRepo:   cfg.DefaultRepo,
	}
}
