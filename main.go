package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/any-mirror/internal/cache"
	"github.com/any-hub/any-mirror/internal/config"
	"github.com/any-hub/any-mirror/internal/differ"
	"github.com/any-hub/any-mirror/internal/logging"
	"github.com/any-hub/any-mirror/internal/scheduler"
	"github.com/any-hub/any-mirror/internal/server"
	"github.com/any-hub/any-mirror/internal/server/routes"
	"github.com/any-hub/any-mirror/internal/storage"
	"github.com/any-hub/any-mirror/internal/syncer"
	"github.com/any-hub/any-mirror/internal/version"
)

// configEnvVar 指定配置文件路径的环境变量，优先级低于 --config。
const configEnvVar = "CONFIG_PATH"

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
	once        bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, opts)
	stop()
	os.Exit(code)
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
// ctx 取消（SIGINT/SIGTERM）视为正常关闭，返回 0。
func run(ctx context.Context, opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		printFatal("加载配置失败", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg)
	if err != nil {
		printFatal("初始化日志失败", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["files"] = len(cfg.Files)
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	if dups := cfg.DuplicateURLs(); len(dups) > 0 {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["urls"] = dups
		logger.WithFields(fields).Warn("存在重复 URL，这些条目将共享同一个 ETag 记录")
	}

	// 启动遵循“配置 → ETag 表/存储 → 周期执行器 → 控制器 → 诊断服务”顺序，
	// 控制器独占 ETag 表，诊断服务只读。
	etags := cache.NewETagTable()
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	executor, err := syncer.NewExecutor(syncer.Options{
		Client:            server.NewUpstreamClient(cfg),
		Logger:            logger,
		Store:             storage.NewStore(),
		ETags:             etags,
		Differ:            differ.New(),
		Files:             cfg.Files,
		CreateDirectories: cfg.CreateDirectories,
		Concurrency:       cfg.Concurrency,
		UserAgent:         userAgent,
	})
	if err != nil {
		printFatal("构建同步执行器失败", err)
		return 1
	}

	controller, err := scheduler.New(executor, cfg.Interval.DurationValue(), logger)
	if err != nil {
		printFatal("构建调度器失败", err)
		return 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var statusDone <-chan error
	if cfg.StatusEnabled() && !opts.once {
		statusDone, err = startStatusServer(runCtx, cfg, controller, etags, logger)
		if err != nil {
			printFatal("诊断服务启动失败", err)
			return 1
		}
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["files"] = len(cfg.Files)
	fields["interval"] = cfg.Interval.String()
	fields["create_directories"] = cfg.CreateDirectories
	fields["concurrency"] = cfg.Concurrency
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if opts.once {
		_, err = controller.RunOnce(runCtx)
	} else {
		err = controller.Run(runCtx)
	}

	cancel()
	if statusDone != nil {
		for serveErr := range statusDone {
			logger.WithError(serveErr).WithField("action", "listen").Warn("诊断服务异常退出")
		}
	}

	if err != nil {
		printFatal("同步失败", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("any-mirror", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
		once       bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.yml，可被 CONFIG_PATH 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")
	fs.BoolVar(&once, "once", false, "仅执行一个同步周期后退出")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv(configEnvVar)
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = config.DefaultPath
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
		once:        once,
	}, nil
}

func startStatusServer(
	ctx context.Context,
	cfg *config.Config,
	controller *scheduler.Controller,
	etags *cache.ETagTable,
	logger *logrus.Logger,
) (<-chan error, error) {
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		ListenPort: cfg.StatusListenPort,
	})
	if err != nil {
		return nil, err
	}
	routes.RegisterStatusRoutes(app, controller, etags, cfg.Files)
	server.RegisterFallback(app, logger)

	return server.Serve(ctx, app, cfg.StatusListenPort, logger)
}

// printFatal 输出顶层错误及完整的原因链，每个被包装的 error 占一行。
func printFatal(action string, err error) {
	fmt.Fprintf(stdErr, "%s: %v\n", action, err)
	causes := causeChain(err)
	if len(causes) == 0 {
		return
	}
	fmt.Fprintln(stdErr, "\n原因:")
	for _, cause := range causes {
		fmt.Fprintf(stdErr, "  %s\n", cause)
	}
}

func causeChain(err error) []string {
	var chain []string
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		chain = append(chain, cause.Error())
	}
	return chain
}
