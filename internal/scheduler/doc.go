// Package scheduler реализует плановые запуски и уборку зависших runs.
//
// Scheduler периодически проверяет schedules с истекшим next_due_at
// и создаёт runs для моделей (ночные полные прогоны с RUN_SLOW=1).
// Отдельный reaper-проход валит runs, которые выполняются дольше
// лимита (потерянный worker, зависший pytest).
//
// Структура:
//   - scheduler.go — основная логика (Tick, processSchedule, ReapStale)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    ScheduleRepo: scheduleRepo,
//	    RunRepo:      runRepo,
//	    StepRepo:     stepRepo,
//	    Publisher:    publisher,  // опционально
//	    Logger:       logger,
//	})
//
//	// Вызывается каждый тик (обычно раз в 15 секунд)
//	if err := sched.Tick(ctx); err != nil {
//	    logger.Error("scheduler tick failed", "error", err)
//	}
//
// Leader Election:
//
// Scheduler не реализует leader election самостоятельно.
// Это делается в main.go через pg_try_advisory_lock.
// Метод Tick() вызывается только лидером.
package scheduler
