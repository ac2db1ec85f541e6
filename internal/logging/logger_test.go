package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/any-mirror/internal/config"
)

func TestConfigureDefaultsToStdout(t *testing.T) {
	logger, err := InitLogger(&config.Config{LogLevel: "info", LogFormat: "text"})
	if err != nil {
		t.Fatalf("配置失败: %v", err)
	}
	if logger.Out != os.Stdout {
		t.Fatalf("未指定文件时应输出到 stdout")
	}
	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("默认应使用 TextFormatter，得到 %T", logger.Formatter)
	}
}

func TestInitLoggerSupportsTraceAndJSON(t *testing.T) {
	logger, err := InitLogger(&config.Config{LogLevel: "trace", LogFormat: "json"})
	if err != nil {
		t.Fatalf("配置失败: %v", err)
	}
	if logger.GetLevel() != logrus.TraceLevel {
		t.Fatalf("应支持 trace 级别，得到 %s", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("json 格式应使用 JSONFormatter，得到 %T", logger.Formatter)
	}
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := InitLogger(&config.Config{LogLevel: "loud"}); err == nil {
		t.Fatalf("未知日志级别应返回错误")
	}
}

func TestInitLoggerFallbackOnPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root 用户不受目录权限限制")
	}
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.Mkdir(blocked, 0o755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.Chmod(blocked, 0o000); err != nil {
		t.Fatalf("设置目录权限失败: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(blocked, 0o755) })

	cfg := &config.Config{
		LogLevel:    "info",
		LogFilePath: filepath.Join(blocked, "sub", "any-mirror.log"),
	}
	logger, err := InitLogger(cfg)
	if err != nil {
		t.Fatalf("初始化不应失败: %v", err)
	}
	if logger.Out != os.Stdout {
		t.Fatalf("fallback 时应退回 stdout")
	}
}

func TestConfigureCreatesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "any-mirror.log")
	cfg := &config.Config{LogLevel: "debug", LogFilePath: path, LogMaxSize: 1, LogColor: true}
	logger, err := InitLogger(cfg)
	if err != nil {
		t.Fatalf("配置失败: %v", err)
	}
	logger.Info("test")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("预期创建日志文件: %v", err)
	}
	if !color.NoColor {
		t.Fatalf("写入文件时应关闭颜色")
	}
}

func TestDiffDeltaPlain(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	if got := DiffDelta(3, 1); got != "+3/-1" {
		t.Fatalf("期望 +3/-1，得到 %q", got)
	}
}
