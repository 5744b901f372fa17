package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/newswatch/newswatch/app/activity"
	"github.com/newswatch/newswatch/app/sources"
)

// ReloadBaselinesTask re-reads the baseline table produced by the
// external measurement job and swaps it into the activity engine.
type ReloadBaselinesTask struct {
	Task
	engine *activity.Engine
	file   string
}

func NewReloadBaselinesTask(engine *activity.Engine, file string) *ReloadBaselinesTask {
	return &ReloadBaselinesTask{
		Task:   NewTask(TaskTypeReloadBaselines),
		engine: engine,
		file:   file,
	}
}

func (t *ReloadBaselinesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	baselines, windowHours, err := sources.LoadBaselines(t.file)
	if err != nil {
		return fmt.Errorf("failed to reload baselines: %w", err)
	}

	t.engine.SetBaselines(baselines)

	slog.Debug("Task completed",
		"type", "ReloadBaselines",
		"duration", t.GetDuration(),
		"regions", len(baselines),
		"window_hours", windowHours)

	return nil
}
