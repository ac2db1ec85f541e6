// Package server holds the outbound HTTP client shared by every sync cycle and
// the optional Fiber diagnostics app. The app only serves /-/ paths; it never
// proxies mirrored content. Keep exports narrow and accept explicit
// dependencies so cmd wiring and tests can inject fakes.
package server
