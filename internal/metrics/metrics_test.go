package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usermgr/internal/core/domain"
)

// sample returns the counter value, or histogram sample count, of the
// series of family name carrying labels.
func sample(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			matched := 0
			for _, pair := range metric.GetLabel() {
				if labels[pair.GetName()] == pair.GetValue() {
					matched++
				}
			}
			if matched != len(labels) {
				continue
			}
			if h := metric.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics_PlaceFinished(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PlaceFinished(domain.UploadSuccess, time.Second)
	m.PlaceFinished(domain.UploadSuccess, 2*time.Second)
	m.PlaceFinished(domain.UploadFailure, time.Second)

	assert.Equal(t, 2.0, sample(t, reg, "usermgr_upload_places_total", map[string]string{"state": "SUCCESS"}))
	assert.Equal(t, 1.0, sample(t, reg, "usermgr_upload_places_total", map[string]string{"state": "FAILURE"}))
	assert.Equal(t, 2.0, sample(t, reg, "usermgr_upload_place_duration_seconds", map[string]string{"state": "SUCCESS"}))
}

func TestMetrics_AccountRetry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.AccountRetry(domain.RejectionUsernameTaken)
	m.AccountRetry(domain.RejectionUsernameTaken)
	m.AccountRetry(domain.RejectionWeakPassword)

	assert.Equal(t, 2.0, sample(t, reg, "usermgr_upload_account_retries_total", map[string]string{"reason": "username_taken"}))
	assert.Equal(t, 1.0, sample(t, reg, "usermgr_upload_account_retries_total", map[string]string{"reason": "weak_password"}))
}

func TestMetrics_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest(http.MethodPost, http.StatusOK, 10*time.Millisecond)
	m.ObserveRequest(http.MethodPost, 0, 10*time.Millisecond)

	assert.Equal(t, 1.0, sample(t, reg, "usermgr_remote_requests_total", map[string]string{"method": "POST", "status": "200"}))
	assert.Equal(t, 1.0, sample(t, reg, "usermgr_remote_requests_total", map[string]string{"method": "POST", "status": "error"}))
	assert.Equal(t, 2.0, sample(t, reg, "usermgr_remote_request_duration_seconds", map[string]string{"method": "POST"}))
}

func TestNew_PanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.PlaceFinished(domain.UploadSuccess, time.Second)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `usermgr_upload_places_total{state="SUCCESS"} 1`)
}

func TestServe_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", prometheus.NewRegistry()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}
