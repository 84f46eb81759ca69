package observability

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Enabled reports whether observability has been toggled on.
func Enabled() bool {
	_, cfg := currentLogger()
	return cfg.Enabled
}

// StartSpan records a lightweight span lifecycle around an operation.
// The returned func must be called exactly once with the operation's error.
func StartSpan(ctx context.Context, component, operation string) (context.Context, func(error)) {
	logger, cfg := currentLogger()
	if logger == nil || !cfg.Enabled {
		return ctx, func(error) {}
	}

	start := time.Now()
	logger.LogAttrs(ctx, slog.LevelDebug, "obs span start",
		slog.String("component", component),
		slog.String("operation", operation),
	)

	return ctx, func(err error) {
		elapsed := time.Since(start)
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelError
		}

		attrs := []slog.Attr{
			slog.String("component", component),
			slog.String("operation", operation),
			slog.Duration("duration", elapsed),
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
		}

		logger.LogAttrs(ctx, level, "obs span end", attrs...)

		status := "ok"
		if err != nil {
			status = "error"
		}
		RecordMetric(ctx, component+"."+operation+".seconds", elapsed.Seconds(), map[string]string{"status": status})
	}
}

// MetricPoint aggregates every datapoint recorded under one name+labels key.
type MetricPoint struct {
	Name  string  `json:"name"`
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Last  float64 `json:"last"`
}

var (
	metricsMu sync.Mutex
	metrics   = map[string]*MetricPoint{}
)

// RecordMetric logs the datapoint and folds it into the in-memory registry.
func RecordMetric(ctx context.Context, name string, value float64, labels map[string]string) {
	logger, cfg := currentLogger()
	if logger == nil || !cfg.Enabled {
		return
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := []slog.Attr{
		slog.String("metric", name),
		slog.Float64("value", value),
	}
	var key strings.Builder
	key.WriteString(name)
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, labels[k]))
		key.WriteString("," + k + "=" + labels[k])
	}

	logger.LogAttrs(ctx, slog.LevelDebug, "obs metric", attrs...)

	metricsMu.Lock()
	point, ok := metrics[key.String()]
	if !ok {
		point = &MetricPoint{Name: key.String()}
		metrics[key.String()] = point
	}
	point.Count++
	point.Sum += value
	point.Last = value
	metricsMu.Unlock()
}

// Snapshot returns a copy of the registry sorted by name.
func Snapshot() []MetricPoint {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	out := make([]MetricPoint, 0, len(metrics))
	for _, p := range metrics {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resetMetrics() {
	metricsMu.Lock()
	metrics = map[string]*MetricPoint{}
	metricsMu.Unlock()
}
