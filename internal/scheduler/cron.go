package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/2020-qqtcg/mindci/internal/domain"
)

// cronParser — парсер 5-польных cron-выражений (минуты..день недели).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CalculateNextDue вычисляет следующее время срабатывания schedule.
// Cron-выражение интерпретируется в timezone расписания (невалидный
// timezone деградирует в UTC); interval просто прибавляется к from.
// Результат всегда в UTC — в таком виде он хранится в БД.
func CalculateNextDue(sched *domain.Schedule, from time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(sched.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := from.In(loc)

	switch {
	case sched.IsCron():
		expr, err := cronParser.Parse(sched.CronExpr)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse cron expression %q: %w", sched.CronExpr, err)
		}
		return expr.Next(local).UTC(), nil

	case sched.IsInterval():
		return local.Add(time.Duration(sched.IntervalSec) * time.Second).UTC(), nil

	default:
		return time.Time{}, fmt.Errorf("schedule has neither cron_expr nor interval_sec")
	}
}

// CalculateInitialNextDue вычисляет первое срабатывание нового schedule.
func CalculateInitialNextDue(sched *domain.Schedule) (time.Time, error) {
	return CalculateNextDue(sched, time.Now())
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	if _, err := cronParser.Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}
