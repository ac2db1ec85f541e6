package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AppOptions controls how the diagnostics Fiber application should behave.
type AppOptions struct {
	Logger     *logrus.Logger
	ListenPort int
}

const contextKeyRequestID = "_anymirror_request_id"

// NewApp builds a Fiber application with request IDs, panic recovery and a
// JSON 404 for anything outside the /-/ diagnostics namespace. Routes are
// registered separately by the routes package.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.ListenPort <= 0 || opts.ListenPort > 65535 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts))

	return app, nil
}

// RegisterFallback 必须在所有诊断路由注册之后调用，用于兜底返回 JSON 404。
func RegisterFallback(app *fiber.App, logger *logrus.Logger) {
	app.Use(func(c fiber.Ctx) error {
		path := string(c.Request().URI().Path())
		logger.WithFields(logrus.Fields{
			"action":     "status_lookup",
			"path":       path,
			"request_id": RequestID(c),
		}).Debug("path unmapped")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "not_found",
		})
	})
}

// requestContextMiddleware 负责生成请求 ID，并在响应头中回写。
func requestContextMiddleware(opts AppOptions) fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		if !isDiagnosticsPath(string(c.Request().URI().Path())) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "not_found",
			})
		}
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

// Serve 同步绑定端口后在后台处理请求；ctx 取消时优雅关闭。
// 返回的 channel 在服务退出后关闭，只承载非关闭引起的异常。
func Serve(ctx context.Context, app *fiber.App, port int, logger *logrus.Logger) (<-chan error, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("监听端口 %d 失败: %w", port, err)
	}

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("诊断服务启动")

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true}); err != nil && ctx.Err() == nil {
			errCh <- err
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.WithError(err).WithField("action", "listen").Warn("诊断服务关闭失败")
		}
		_ = ln.Close()
	}()

	return errCh, nil
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
