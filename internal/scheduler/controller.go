// Package scheduler drives sync cycles separated by the configured interval
// and stops cleanly when its context is cancelled.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/any-mirror/internal/syncer"
)

// State 描述控制器当前所处阶段，供日志与 /-/status 输出。
type State string

const (
	StateIdle         State = "idle"
	StateRunning      State = "running"
	StateSleeping     State = "sleeping"
	StateShuttingDown State = "shutting_down"
	StateTerminated   State = "terminated"
)

// CycleRunner 抽象单个同步周期，测试中可注入假的实现。
type CycleRunner interface {
	RunCycle(ctx context.Context) (*syncer.CycleReport, error)
}

// Status 是控制器的只读快照。
type Status struct {
	State       State               `json:"state"`
	Cycles      int                 `json:"cycles"`
	Interval    time.Duration       `json:"interval_ns"`
	NextCycleAt time.Time           `json:"next_cycle_at,omitempty"`
	LastCycle   *syncer.CycleReport `json:"last_cycle,omitempty"`
}

// Controller 串行执行 “周期 → 休眠 interval → 周期”，并在任意等待点响应 ctx 取消。
type Controller struct {
	runner   CycleRunner
	interval time.Duration
	logger   *logrus.Logger

	mu       sync.RWMutex
	state    State
	cycles   int
	last     *syncer.CycleReport
	nextTick time.Time
}

// New 创建控制器，interval 必须大于 0。
func New(runner CycleRunner, interval time.Duration, logger *logrus.Logger) (*Controller, error) {
	if runner == nil {
		return nil, errors.New("cycle runner is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}
	return &Controller{
		runner:   runner,
		interval: interval,
		logger:   logger,
		state:    StateIdle,
	}, nil
}

// Run 持续执行同步周期直到 ctx 被取消（返回 nil）或出现目录/写入错误（返回 error）。
// 周期结束后才开始计时，interval 表示两次周期之间的最小间隔。
func (c *Controller) Run(ctx context.Context) error {
	defer c.setState(StateTerminated)

	for {
		if ctx.Err() != nil {
			return c.shutdown()
		}

		if _, err := c.RunOnce(ctx); err != nil {
			c.setState(StateShuttingDown)
			return err
		}
		if ctx.Err() != nil {
			return c.shutdown()
		}

		c.sleeping(time.Now().Add(c.interval))
		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return c.shutdown()
		case <-timer.C:
		}
	}
}

// RunOnce 执行单个周期并记录结果，供 --once 与 Run 复用。
func (c *Controller) RunOnce(ctx context.Context) (*syncer.CycleReport, error) {
	c.setState(StateRunning)
	report, err := c.runner.RunCycle(ctx)
	c.record(report)
	if err != nil {
		return report, fmt.Errorf("同步周期失败: %w", err)
	}
	if report != nil {
		c.logger.WithFields(logrus.Fields{
			"action":       "cycle",
			"cycle_id":     report.ID,
			"written":      report.Count(syncer.OutcomeWritten),
			"unchanged":    report.Count(syncer.OutcomeSkippedUnchanged),
			"not_modified": report.Count(syncer.OutcomeSkippedNotModified),
			"failed":       report.Count(syncer.OutcomeFailed),
			"interrupted":  report.Interrupted,
			"elapsed_ms":   report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
		}).Debug("同步周期完成")
	}
	return report, nil
}

// Status 返回当前状态快照。
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	status := Status{
		State:     c.state,
		Cycles:    c.cycles,
		Interval:  c.interval,
		LastCycle: c.last,
	}
	if c.state == StateSleeping {
		status.NextCycleAt = c.nextTick
	}
	return status
}

func (c *Controller) shutdown() error {
	c.setState(StateShuttingDown)
	c.logger.WithFields(logrus.Fields{
		"action": "shutdown",
		"cycles": c.cyclesDone(),
	}).Info("收到关闭信号，停止同步")
	return nil
}

func (c *Controller) record(report *syncer.CycleReport) {
	if report == nil {
		return
	}
	c.mu.Lock()
	c.cycles++
	c.last = report
	c.mu.Unlock()
}

func (c *Controller) sleeping(next time.Time) {
	c.mu.Lock()
	c.state = StateSleeping
	c.nextTick = next
	c.mu.Unlock()
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Controller) cyclesDone() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cycles
}
