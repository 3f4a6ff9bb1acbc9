package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	otellog "go.opentelemetry.io/otel/log"
)

const scopeName = "pod-tracker"

// Export switches logger to JSON entries and tees them to w and to provider.
// Loggers derived from logger afterwards inherit the export.
func Export(logger *log.Logger, w io.Writer, provider otellog.LoggerProvider) {
	logger.SetFormatter(log.JSONFormatter)
	logger.SetOutput(io.MultiWriter(w, NewOTelWriter(provider)))
}

// OTelWriter turns JSON log entries into OpenTelemetry log records.
type OTelWriter struct {
	logger otellog.Logger
	now    func() time.Time
}

// NewOTelWriter creates a writer emitting to a logger from provider.
func NewOTelWriter(provider otellog.LoggerProvider) *OTelWriter {
	return &OTelWriter{
		logger: provider.Logger(scopeName),
		now:    time.Now,
	}
}

// Write emits one record per line of p. Lines that are not JSON objects are
// kept as the record body.
func (w *OTelWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		w.logger.Emit(context.Background(), w.record(line))
	}
	return len(p), nil
}

func (w *OTelWriter) record(line []byte) otellog.Record {
	var rec otellog.Record
	now := w.now()
	rec.SetObservedTimestamp(now)
	rec.SetTimestamp(now)

	var fields map[string]any
	if err := json.Unmarshal(line, &fields); err != nil {
		rec.SetBody(otellog.StringValue(string(line)))
		return rec
	}

	for key, value := range fields {
		switch key {
		case log.TimestampKey:
		case log.MessageKey:
			rec.SetBody(otellog.StringValue(fmt.Sprint(value)))
		case log.LevelKey:
			level := fmt.Sprint(value)
			rec.SetSeverityText(level)
			rec.SetSeverity(severity(level))
		case log.PrefixKey:
			rec.AddAttributes(otellog.String("component", strings.TrimSuffix(fmt.Sprint(value), ":")))
		default:
			rec.AddAttributes(otellog.KeyValue{Key: key, Value: attrValue(value)})
		}
	}
	return rec
}

func severity(level string) otellog.Severity {
	switch strings.ToLower(level) {
	case "debug":
		return otellog.SeverityDebug
	case "info":
		return otellog.SeverityInfo
	case "warn":
		return otellog.SeverityWarn
	case "error":
		return otellog.SeverityError
	case "fatal":
		return otellog.SeverityFatal
	}
	return otellog.SeverityUndefined
}

func attrValue(v any) otellog.Value {
	switch v := v.(type) {
	case string:
		return otellog.StringValue(v)
	case bool:
		return otellog.BoolValue(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return otellog.Int64Value(int64(v))
		}
		return otellog.Float64Value(v)
	case nil:
		return otellog.Value{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return otellog.StringValue(fmt.Sprint(v))
	}
	return otellog.StringValue(string(b))
}
