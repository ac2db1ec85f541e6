package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/any-hub/any-mirror/internal/cache"
	"github.com/any-hub/any-mirror/internal/config"
	"github.com/any-hub/any-mirror/internal/differ"
	"github.com/any-hub/any-mirror/internal/logging"
	"github.com/any-hub/any-mirror/internal/storage"
)

// Options 汇总 Executor 的依赖，便于测试注入假的 client/store。
type Options struct {
	Client            *http.Client
	Logger            *logrus.Logger
	Store             storage.Store
	ETags             *cache.ETagTable
	Differ            *differ.Differ
	Files             []config.FileConfig
	CreateDirectories bool
	Concurrency       int
	UserAgent         string
}

// Executor 负责 orchestrate “条件请求 → 比较 → 落盘” 的单个周期，
// 每个 files 条目的失败互相隔离，只有目录创建/写入失败会终止周期。
type Executor struct {
	client            *http.Client
	logger            *logrus.Logger
	store             storage.Store
	etags             *cache.ETagTable
	differ            *differ.Differ
	files             []config.FileConfig
	createDirectories bool
	concurrency       int
	userAgent         string
	now               func() time.Time
}

// NewExecutor 校验依赖并补齐默认值。ETags/Differ/Store 缺省时自动创建。
func NewExecutor(opts Options) (*Executor, error) {
	if opts.Client == nil {
		return nil, errors.New("http client is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if len(opts.Files) == 0 {
		return nil, errors.New("at least one file is required")
	}
	if opts.Store == nil {
		opts.Store = storage.NewStore()
	}
	if opts.ETags == nil {
		opts.ETags = cache.NewETagTable()
	}
	if opts.Differ == nil {
		opts.Differ = differ.New()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	return &Executor{
		client:            opts.Client,
		logger:            opts.Logger,
		store:             opts.Store,
		etags:             opts.ETags,
		differ:            opts.Differ,
		files:             append([]config.FileConfig(nil), opts.Files...),
		createDirectories: opts.CreateDirectories,
		concurrency:       opts.Concurrency,
		userAgent:         opts.UserAgent,
		now:               time.Now,
	}, nil
}

// ETags 暴露 Executor 持有的 ETag 表，供诊断接口读取。
func (e *Executor) ETags() *cache.ETagTable {
	return e.etags
}

// RunCycle 按配置顺序处理全部 files 条目。ctx 取消后不再启动新的条目，
// 已完成条目的结果仍会被记录；返回的 error 只可能是 DirectoryError/WriteError。
func (e *Executor) RunCycle(ctx context.Context) (*CycleReport, error) {
	report := &CycleReport{
		ID:        uuid.NewString(),
		StartedAt: e.now(),
	}

	results := make([]*Outcome, len(e.files))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.concurrency)

	for i, file := range e.files {
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return nil
			}
			outcome, err := e.syncFile(groupCtx, report.ID, file)
			if err != nil {
				return err
			}
			results[i] = outcome
			return nil
		})
	}
	err := group.Wait()

	report.FinishedAt = e.now()
	for _, outcome := range results {
		if outcome == nil {
			continue
		}
		report.Outcomes = append(report.Outcomes, *outcome)
		e.logOutcome(report.ID, *outcome)
	}
	report.Interrupted = ctx.Err() != nil && len(report.Outcomes) < len(e.files)

	if err != nil {
		return report, err
	}
	return report, nil
}

// syncFile 处理单个条目。返回 (nil, nil) 表示请求因关闭信号被放弃，不产生结果。
func (e *Executor) syncFile(ctx context.Context, cycleID string, file config.FileConfig) (*Outcome, error) {
	started := e.now()
	finish := func(outcome Outcome) (*Outcome, error) {
		outcome.Duration = e.now().Sub(started)
		return &outcome, nil
	}

	resp, err := e.fetch(ctx, cycleID, file)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		return finish(Failed(file, &FetchError{URL: file.URL, Err: err}))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return finish(SkippedNotModified(file))
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return finish(Failed(file, &FetchError{URL: file.URL, StatusCode: resp.StatusCode}))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		return finish(Failed(file, &FetchError{URL: file.URL, Err: fmt.Errorf("read body: %w", err)}))
	}
	e.etags.Put(file.URL, resp.Header.Get("ETag"))

	if e.createDirectories {
		if err := e.store.EnsureDir(file.Path); err != nil {
			return nil, &DirectoryError{Path: file.Path, Err: err}
		}
	}

	current, err := e.store.Read(ctx, file.Path)
	if err != nil && ctx.Err() != nil {
		// 取消导致的读取失败不能当作空基线，否则会把相同内容重写一遍。
		return nil, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		e.logger.WithFields(logging.FileFields(cycleID, file.URL, file.Path)).
			WithError(err).
			Debug("读取本地文件失败，按空内容比较")
		current = nil
	}

	result := e.differ.Compare(string(current), string(body))
	if !result.Changed {
		return finish(SkippedUnchanged(file))
	}

	// 已决定写入时不再响应取消，临时文件 + rename 保证目标文件不会被截断。
	entry, err := e.store.Write(context.WithoutCancel(ctx), file.Path, body)
	if err != nil {
		return nil, &WriteError{Path: file.Path, Err: err}
	}
	return finish(Written(file, entry.SizeBytes, result.Additions, result.Removals))
}

func (e *Executor) fetch(ctx context.Context, cycleID string, file config.FileConfig) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return nil, err
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	etag, conditional := e.etags.Get(file.URL)
	if conditional {
		req.Header.Set("If-None-Match", etag)
	}

	e.logger.WithFields(logging.FileFields(cycleID, file.URL, file.Path)).
		WithField("conditional", conditional).
		Trace("发起请求")

	return e.client.Do(req)
}

// logOutcome 是所有结果类型唯一的日志出口。
func (e *Executor) logOutcome(cycleID string, outcome Outcome) {
	fields := logging.FileFields(cycleID, outcome.File.URL, outcome.File.Path)
	fields["action"] = "sync"
	fields["result"] = string(outcome.Kind)
	fields["elapsed_ms"] = outcome.Duration.Milliseconds()
	entry := e.logger.WithFields(fields)

	switch outcome.Kind {
	case OutcomeWritten:
		entry.WithFields(logrus.Fields{
			"bytes":     outcome.Bytes,
			"additions": outcome.Additions,
			"removals":  outcome.Removals,
		}).Infof("已下载 %s → %s (%s, %s)",
			outcome.File.URL,
			outcome.File.Path,
			humanize.Bytes(uint64(outcome.Bytes)),
			logging.DiffDelta(outcome.Additions, outcome.Removals),
		)
	case OutcomeSkippedUnchanged:
		entry.Debugf("跳过 %s（内容未变化）", outcome.File.URL)
	case OutcomeSkippedNotModified:
		entry.Debugf("跳过 %s（not modified）", outcome.File.URL)
	case OutcomeFailed:
		if outcome.StatusCode != 0 {
			entry = entry.WithField("upstream_status", outcome.StatusCode)
		}
		entry.Errorf("下载失败 %s: %s", outcome.File.URL, outcome.Reason)
	}
}
