package routes

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/any-mirror/internal/cache"
	"github.com/any-hub/any-mirror/internal/config"
	"github.com/any-hub/any-mirror/internal/scheduler"
	"github.com/any-hub/any-mirror/internal/syncer"
	"github.com/any-hub/any-mirror/internal/version"
)

// StatusSource 提供控制器状态快照，scheduler.Controller 实现该接口。
type StatusSource interface {
	Status() scheduler.Status
}

// RegisterStatusRoutes 暴露 /-/status 与 /-/healthz 诊断接口，供 SRE 查询同步进度。
func RegisterStatusRoutes(app *fiber.App, source StatusSource, etags *cache.ETagTable, files []config.FileConfig) {
	if app == nil || source == nil {
		return
	}

	app.Get("/-/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/-/status", func(c fiber.Ctx) error {
		return c.JSON(encodeStatus(source.Status(), etags, files))
	})
}

type statusPayload struct {
	Version         string        `json:"version"`
	State           string        `json:"state"`
	Cycles          int           `json:"cycles"`
	IntervalSeconds float64       `json:"interval_seconds"`
	NextCycleAt     *time.Time    `json:"next_cycle_at,omitempty"`
	ETagCount       int           `json:"etag_count"`
	Files           []filePayload `json:"files"`
	LastCycle       *cyclePayload `json:"last_cycle,omitempty"`
}

type filePayload struct {
	URL     string `json:"url"`
	Path    string `json:"path"`
	HasETag bool   `json:"has_etag"`
}

type cyclePayload struct {
	ID          string           `json:"id"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	Interrupted bool             `json:"interrupted"`
	Outcomes    []outcomePayload `json:"outcomes"`
}

type outcomePayload struct {
	URL        string `json:"url"`
	Path       string `json:"path"`
	Result     string `json:"result"`
	Bytes      int64  `json:"bytes,omitempty"`
	Additions  int    `json:"additions,omitempty"`
	Removals   int    `json:"removals,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Reason     string `json:"reason,omitempty"`
	ElapsedMS  int64  `json:"elapsed_ms"`
}

func encodeStatus(status scheduler.Status, etags *cache.ETagTable, files []config.FileConfig) statusPayload {
	payload := statusPayload{
		Version:         version.Full(),
		State:           string(status.State),
		Cycles:          status.Cycles,
		IntervalSeconds: status.Interval.Seconds(),
		Files:           encodeFiles(files, etags),
		LastCycle:       encodeCycle(status.LastCycle),
	}
	if !status.NextCycleAt.IsZero() {
		next := status.NextCycleAt
		payload.NextCycleAt = &next
	}
	if etags != nil {
		payload.ETagCount = etags.Len()
	}
	return payload
}

func encodeFiles(files []config.FileConfig, etags *cache.ETagTable) []filePayload {
	result := make([]filePayload, 0, len(files))
	for _, file := range files {
		item := filePayload{URL: file.URL, Path: file.Path}
		if etags != nil {
			_, item.HasETag = etags.Get(file.URL)
		}
		result = append(result, item)
	}
	return result
}

func encodeCycle(report *syncer.CycleReport) *cyclePayload {
	if report == nil {
		return nil
	}
	payload := &cyclePayload{
		ID:          report.ID,
		StartedAt:   report.StartedAt,
		FinishedAt:  report.FinishedAt,
		Interrupted: report.Interrupted,
		Outcomes:    make([]outcomePayload, 0, len(report.Outcomes)),
	}
	for _, outcome := range report.Outcomes {
		payload.Outcomes = append(payload.Outcomes, outcomePayload{
			URL:        outcome.File.URL,
			Path:       outcome.File.Path,
			Result:     string(outcome.Kind),
			Bytes:      outcome.Bytes,
			Additions:  outcome.Additions,
			Removals:   outcome.Removals,
			StatusCode: outcome.StatusCode,
			Reason:     outcome.Reason,
			ElapsedMS:  outcome.Duration.Milliseconds(),
		})
	}
	return payload
}
