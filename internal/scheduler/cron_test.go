package scheduler

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/2020-qqtcg/mindci/internal/domain"
)

func TestCalculateNextDueCron(t *testing.T) {
	sched := &domain.Schedule{
		CronExpr: "0 2 * * *", // каждую ночь в 2:00
		Timezone: "UTC",
	}

	from := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("CalculateNextDue() error = %v", err)
	}

	want := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCalculateNextDueCronTimezone(t *testing.T) {
	sched := &domain.Schedule{
		CronExpr: "0 2 * * *",
		Timezone: "Asia/Shanghai", // UTC+8
	}

	from := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("CalculateNextDue() error = %v", err)
	}

	// 2:00 следующего дня по Шанхаю = 18:00 того же дня UTC
	want := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCalculateNextDueInterval(t *testing.T) {
	sched := &domain.Schedule{
		IntervalSec: 3600,
		Timezone:    "UTC",
	}

	from := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("CalculateNextDue() error = %v", err)
	}

	want := from.Add(time.Hour)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCalculateNextDueInvalidTimezone(t *testing.T) {
	sched := &domain.Schedule{
		IntervalSec: 60,
		Timezone:    "Mars/Olympus",
	}

	// Невалидный timezone не должен ломать расчёт (fallback на UTC)
	if _, err := CalculateNextDue(sched, time.Now()); err != nil {
		t.Errorf("CalculateNextDue() error = %v", err)
	}
}

func TestCalculateNextDueNeither(t *testing.T) {
	sched := &domain.Schedule{Timezone: "UTC"}

	if _, err := CalculateNextDue(sched, time.Now()); err == nil {
		t.Error("expected error for schedule without cron_expr and interval_sec")
	}
}

func TestValidateCronExpr(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"0 2 * * *", false},
		{"*/15 * * * *", false},
		{"0 2 * * 1-5", false},
		{"not a cron", true},
		{"0 2 * *", true}, // 4 поля вместо 5
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateCronExpr(tt.expr)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateCronExpr(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
		}
	}
}

func TestIdempotencyKey(t *testing.T) {
	id := uuid.New()
	due := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)
	sched := &domain.Schedule{ID: id, NextDueAt: &due}

	key := IdempotencyKey(sched)

	if !strings.HasPrefix(key, id.String()+"_") {
		t.Errorf("key = %q, want prefix %s_", key, id)
	}
	if key != IdempotencyKey(sched) {
		t.Error("key must be stable for the same schedule and due time")
	}

	// Другое время срабатывания — другой ключ
	later := due.Add(24 * time.Hour)
	sched.NextDueAt = &later
	if key == IdempotencyKey(sched) {
		t.Error("key must change when next_due_at changes")
	}
}
