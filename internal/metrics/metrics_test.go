package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveGeneration(3, 1, time.Second)
	m.ConfigurationFailure()
	m.Payment("applied")
	m.RPC("/messbill.v1.BillingService/GenerateBills", "ok", time.Millisecond)
}

func TestHandlerExposesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveGeneration(3, 2, 150*time.Millisecond)
	m.ConfigurationFailure()
	m.Payment("applied")
	m.RPC("/messbill.v1.BillingService/GetBill", "not_found", time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		"messbill_bills_generated_total 3",
		"messbill_bills_skipped_total 2",
		"messbill_generation_configuration_errors_total 1",
		`messbill_payments_total{outcome="applied"} 1`,
		"messbill_generation_duration_seconds_count 1",
		`messbill_rpc_duration_seconds_count{code="not_found",procedure="/messbill.v1.BillingService/GetBill"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
