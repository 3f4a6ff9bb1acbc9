package logging

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "worker", "warn")

	logger.Info("hidden")
	logger.Warn("shown", "podcast", "P1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "podcast=P1")
	assert.Contains(t, out, "worker")
}

func TestNewUnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "server", "chatty")

	logger.Debug("hidden")
	logger.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestAsynqAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := Asynq(New(&buf, "worker", "debug"))

	logger.Info("processing ", 3, " tasks")
	logger.Debug("heartbeat")

	assert.Contains(t, buf.String(), "processing 3 tasks")
	assert.Contains(t, buf.String(), "heartbeat")
}

type exportedRecord struct {
	body     string
	severity otellog.Severity
	attrs    map[string]otellog.Value
}

type recordingExporter struct {
	mu      sync.Mutex
	records []exportedRecord
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		rec := exportedRecord{
			body:     r.Body().AsString(),
			severity: r.Severity(),
			attrs:    map[string]otellog.Value{},
		}
		r.WalkAttributes(func(kv otellog.KeyValue) bool {
			rec.attrs[kv.Key] = kv.Value
			return true
		})
		e.records = append(e.records, rec)
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func TestExportForwardsEntries(t *testing.T) {
	exp := &recordingExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	var buf bytes.Buffer
	logger := New(&buf, "worker", "info")
	Export(logger, &buf, provider)

	logger.Debug("hidden")
	logger.With("podcast", "P1").Warn("sync failed", "attempt", 2, "final", false)

	assert.Contains(t, buf.String(), `"msg":"sync failed"`)
	require.Len(t, exp.records, 1)
	rec := exp.records[0]
	assert.Equal(t, "sync failed", rec.body)
	assert.Equal(t, otellog.SeverityWarn, rec.severity)
	assert.Equal(t, "worker", rec.attrs["component"].AsString())
	assert.Equal(t, "P1", rec.attrs["podcast"].AsString())
	assert.Equal(t, int64(2), rec.attrs["attempt"].AsInt64())
	assert.False(t, rec.attrs["final"].AsBool())
	assert.NotContains(t, rec.attrs, "time")
}

func TestOTelWriterKeepsPlainLines(t *testing.T) {
	exp := &recordingExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	n, err := NewOTelWriter(provider).Write([]byte("not json\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	require.Len(t, exp.records, 1)
	assert.Equal(t, "not json", exp.records[0].body)
	assert.Equal(t, otellog.SeverityUndefined, exp.records[0].severity)
}
