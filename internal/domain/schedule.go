package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание автоматического прогона тестов модели.
//
// Schedule позволяет запускать прогон модели:
// - По cron-выражению: "0 2 * * *" (каждую ночь в 2:00, slow-тесты)
// - По интервалу: каждые N секунд
//
// Scheduler проверяет next_due_at и создаёт run, когда время подошло.
type Schedule struct {
	// ID — уникальный идентификатор schedule.
	ID uuid.UUID `json:"id"`

	// Model — имя модели, для которой запускаются тесты.
	Model string `json:"model"`

	// Repo — репозиторий в формате "owner/name".
	Repo string `json:"repo"`

	// Ref — git ref для checkout (обычно ветка по умолчанию).
	Ref string `json:"ref,omitempty"`

	// Name — имя расписания для удобства.
	Name string `json:"name,omitempty"`

	// CronExpr — cron-выражение.
	// Формат: "минуты часы дни месяцы дни_недели"
	// Если задан CronExpr, IntervalSec игнорируется.
	CronExpr string `json:"cron_expr,omitempty"`

	// IntervalSec — интервал в секундах между запусками.
	// Используется если CronExpr не задан.
	IntervalSec int `json:"interval_sec,omitempty"`

	// Timezone — часовой пояс для вычисления времени.
	// По умолчанию: "UTC".
	Timezone string `json:"timezone"`

	// Enabled — флаг активности расписания.
	Enabled bool `json:"enabled"`

	// NextDueAt — время следующего запуска.
	// Scheduler создаёт run, когда now >= NextDueAt.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastRunAt — время последнего запуска.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// LastRunID — ID последнего созданного run.
	LastRunID *uuid.UUID `json:"last_run_id,omitempty"`

	// CreatedAt — время создания schedule.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего обновления.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCron возвращает true, если расписание использует cron-выражение.
func (s *Schedule) IsCron() bool {
	return s.CronExpr != ""
}

// IsInterval возвращает true, если расписание использует интервал.
func (s *Schedule) IsInterval() bool {
	return s.CronExpr == "" && s.IntervalSec > 0
}

// IsDue проверяет, пора ли запускать.
func (s *Schedule) IsDue(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if s.NextDueAt == nil {
		return false
	}
	return now.After(*s.NextDueAt) || now.Equal(*s.NextDueAt)
}

// RecordRun записывает информацию о запуске.
func (s *Schedule) RecordRun(runID uuid.UUID, nextDue time.Time) {
	now := time.Now()
	s.LastRunAt = &now
	s.LastRunID = &runID
	s.NextDueAt = &nextDue
	s.UpdatedAt = now
}
