package syncer

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/any-hub/any-mirror/internal/config"
)

func TestFailedOutcomeCarriesStatus(t *testing.T) {
	file := config.FileConfig{URL: "https://example.com/a", Path: "a"}

	byStatus := Failed(file, &FetchError{URL: file.URL, StatusCode: http.StatusNotFound})
	if byStatus.StatusCode != http.StatusNotFound || byStatus.Reason != "404 Not Found" {
		t.Fatalf("unexpected status failure: %+v", byStatus)
	}

	cause := errors.New("connection reset")
	byTransport := Failed(file, &FetchError{URL: file.URL, Err: cause})
	if byTransport.StatusCode != 0 || byTransport.Reason != "transport error: connection reset" {
		t.Fatalf("unexpected transport failure: %+v", byTransport)
	}
}

func TestFailedOutcomeUnwrapsFetchError(t *testing.T) {
	file := config.FileConfig{URL: "https://example.com/a", Path: "a"}
	wrapped := fmt.Errorf("fetch %s: %w", file.URL, &FetchError{URL: file.URL, StatusCode: http.StatusBadGateway})

	outcome := Failed(file, wrapped)
	if outcome.StatusCode != http.StatusBadGateway {
		t.Fatalf("wrapped FetchError should keep status code, got %+v", outcome)
	}
	if !strings.Contains(outcome.Reason, "502 Bad Gateway") {
		t.Fatalf("reason should keep the wrapped message, got %q", outcome.Reason)
	}
}

func TestCycleReportCount(t *testing.T) {
	file := config.FileConfig{URL: "https://example.com/a", Path: "a"}
	report := &CycleReport{Outcomes: []Outcome{
		Written(file, 10, 1, 0),
		SkippedUnchanged(file),
		SkippedNotModified(file),
		SkippedNotModified(file),
	}}
	if report.Count(OutcomeSkippedNotModified) != 2 || report.Count(OutcomeWritten) != 1 || report.Count(OutcomeFailed) != 0 {
		t.Fatalf("unexpected counts for %+v", report.Outcomes)
	}
	var nilReport *CycleReport
	if nilReport.Count(OutcomeWritten) != 0 {
		t.Fatalf("nil report should count zero")
	}
}
