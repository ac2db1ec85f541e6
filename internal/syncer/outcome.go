package syncer

import (
	"errors"
	"time"

	"github.com/any-hub/any-mirror/internal/config"
)

// OutcomeKind 标记单个 files 条目在一个周期内的处理结果。
type OutcomeKind string

const (
	OutcomeWritten            OutcomeKind = "written"
	OutcomeSkippedUnchanged   OutcomeKind = "skipped_unchanged"
	OutcomeSkippedNotModified OutcomeKind = "skipped_not_modified"
	OutcomeFailed             OutcomeKind = "failed"
)

// Outcome 是 tagged variant：Kind 决定哪些字段有意义。
//   - Written: Bytes/Additions/Removals
//   - Failed: Reason/StatusCode
type Outcome struct {
	Kind       OutcomeKind       `json:"kind"`
	File       config.FileConfig `json:"file"`
	Bytes      int64             `json:"bytes,omitempty"`
	Additions  int               `json:"additions,omitempty"`
	Removals   int               `json:"removals,omitempty"`
	StatusCode int               `json:"status_code,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Duration   time.Duration     `json:"duration_ns"`
}

// Written 构造写入结果。
func Written(file config.FileConfig, size int64, additions, removals int) Outcome {
	return Outcome{Kind: OutcomeWritten, File: file, Bytes: size, Additions: additions, Removals: removals}
}

// SkippedUnchanged 表示内容与磁盘一致，未写入。
func SkippedUnchanged(file config.FileConfig) Outcome {
	return Outcome{Kind: OutcomeSkippedUnchanged, File: file}
}

// SkippedNotModified 表示上游返回 304。
func SkippedNotModified(file config.FileConfig) Outcome {
	return Outcome{Kind: OutcomeSkippedNotModified, File: file}
}

// Failed 根据 FetchError 构造失败结果。
func Failed(file config.FileConfig, err error) Outcome {
	outcome := Outcome{Kind: OutcomeFailed, File: file, Reason: err.Error()}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		outcome.StatusCode = fetchErr.StatusCode
	}
	return outcome
}

// CycleReport 汇总一次完整周期的结果，Outcomes 与配置顺序一致。
type CycleReport struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcomes   []Outcome `json:"outcomes"`
	// Interrupted 表示周期因关闭信号提前结束，未处理的条目不会出现在 Outcomes 中。
	Interrupted bool `json:"interrupted,omitempty"`
}

// Count 返回指定结果类型的数量。
func (r *CycleReport) Count(kind OutcomeKind) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, outcome := range r.Outcomes {
		if outcome.Kind == kind {
			n++
		}
	}
	return n
}
