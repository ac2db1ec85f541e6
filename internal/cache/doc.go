// Package cache holds the in-memory validation state used for conditional
// requests: the last entity tag returned by each mirrored URL. The table lives
// for the lifetime of the process only, so the first fetch after a restart is
// always unconditional.
package cache
