package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCartMetricsExportsCountersAndGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCartMetrics(reg)
	metrics.IncMutation("add")
	metrics.IncMutation("add")
	metrics.IncPersistenceFailure("save")
	metrics.IncNotification("success")
	metrics.IncNotification("")
	metrics.SetSessionsOpen(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_mutations_total", "op", "add"); err != nil {
		t.Fatalf("fetch mutations: %v", err)
	} else if got != 2 {
		t.Fatalf("expected mutations=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cart_persistence_failures_total", "op", "save"); err != nil {
		t.Fatalf("fetch persistence: %v", err)
	} else if got != 1 {
		t.Fatalf("expected persistence failures=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cart_notifications_total", "kind", "unknown"); err != nil {
		t.Fatalf("fetch notifications: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown kind=1, got %f", got)
	}

	mf := findMetricFamily(mfs, "cart_sessions_open")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("sessions gauge not exported")
	}
	if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 3 {
		t.Fatalf("expected sessions=3, got %f", got)
	}
}

func TestCartMetricsNilSafe(t *testing.T) {
	var nilMetrics *CartMetrics
	nilMetrics.IncMutation("add")
	nilMetrics.IncPersistenceFailure("save")
	nilMetrics.IncNotification("info")
	nilMetrics.SetSessionsOpen(1)

	unregistered := NewCartMetrics(nil)
	unregistered.IncMutation("add")
	unregistered.SetSessionsOpen(1)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
