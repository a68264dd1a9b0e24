// AngelaMos | 2026
// metrics_test.go

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSale("Starter", 10)
		m.ObserveClick()
		m.ObserveTierUpgrade("Starter", "Pro")
		m.ObserveLogin("success")
		m.ObserveRegistration()
		m.ObservePurge(3)
		m.ObserveNotification("tier_upgrade", "sent")
		m.ObserveAccrual("record_sale", 0.1)
	})
}

func TestCountersAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, reg)

	m.ObserveSale("Pro", 25)
	m.ObserveSale("Pro", 5)
	m.ObserveClick()
	m.ObservePurge(0)
	m.ObservePurge(2)

	assert.InDelta(t, 2, testutil.ToFloat64(m.SalesRecorded.WithLabelValues("Pro")), 0)
	assert.InDelta(t, 30, testutil.ToFloat64(m.CommissionAmount.WithLabelValues("Pro")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ClicksRecorded), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.SessionsPurged), 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "affiliate_sales_recorded_total"))
}
