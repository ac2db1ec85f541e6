package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

func TestRouterSetsRequestIDOnDiagnostics(t *testing.T) {
	app := newTestApp(t)
	app.Get("/-/ping", func(c fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})
	RegisterFallback(app, discardLogger())

	resp, err := app.Test(httptest.NewRequest("GET", "http://mirror.local/-/ping", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 status, got %d", resp.StatusCode)
	}
	reqID := resp.Header.Get("X-Request-ID")
	if reqID == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != reqID {
		t.Fatalf("handler should see the same request id, got %q vs %q", string(body), reqID)
	}
}

func TestRouterReturns404OutsideDiagnostics(t *testing.T) {
	app := newTestApp(t)
	RegisterFallback(app, discardLogger())

	for _, target := range []string{"http://mirror.local/files/a.txt", "http://mirror.local/-/unknown"} {
		resp, err := app.Test(httptest.NewRequest("GET", target, nil))
		if err != nil {
			t.Fatalf("app.Test failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusNotFound {
			t.Fatalf("%s: expected 404 status, got %d", target, resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if !bytes.Contains(body, []byte(`"not_found"`)) {
			t.Fatalf("%s: expected not_found error, got %s", target, string(body))
		}
	}
}

func TestNewAppValidatesOptions(t *testing.T) {
	if _, err := NewApp(AppOptions{ListenPort: 9400}); err == nil {
		t.Fatalf("missing logger should fail")
	}
	if _, err := NewApp(AppOptions{Logger: discardLogger(), ListenPort: 0}); err == nil {
		t.Fatalf("invalid port should fail")
	}
}

func TestServeStopsOnContextCancel(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	done, err := Serve(ctx, app, freePort(t), discardLogger())
	if err != nil {
		t.Fatalf("serve error: %v", err)
	}
	cancel()

	select {
	case err, ok := <-done:
		if ok && err != nil {
			t.Fatalf("shutdown should not report error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop after cancel")
	}
}

func TestServeReportsBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	if _, err := Serve(context.Background(), newTestApp(t), port, discardLogger()); err == nil {
		t.Fatalf("expected bind failure on occupied port %d", port)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app, err := NewApp(AppOptions{Logger: discardLogger(), ListenPort: 9400})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	return app
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
