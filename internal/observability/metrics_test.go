package observability

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danmuck/cohortctl/internal/testutil/testlog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(ingestLines.WithLabelValues("students", "accepted"))
	RecordIngestLine("students", "accepted")
	after := testutil.ToFloat64(ingestLines.WithLabelValues("students", "accepted"))
	if after-before != 1 {
		t.Fatalf("expected ingest counter +1, got %v", after-before)
	}

	RecordCodec("encode", 128, nil)
	RecordCodec("decode", 0, errors.New("boom"))
	if testutil.ToFloat64(codecOps.WithLabelValues("decode", "error")) < 1 {
		t.Fatalf("expected decode error counted")
	}
	RecordHTTPRequest("cohortctl", "GET", "/health", 200, 12*time.Millisecond)

	testlog.Logf("observability/metrics: registration idempotent and recording paths executed")
}

func TestWriteTextfile(t *testing.T) {
	RecordIngestLine("grades", "unknown_course")
	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), "cohortctl_ingest_lines_total") {
		t.Fatalf("expected ingest metric in textfile")
	}
}
