package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/fedreg/internal/graph"
)

func TestRegistry_Instrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	mem, err := graph.NewMemStore()
	require.NoError(t, err)
	store := m.Instrument(mem)

	ctx := context.Background()
	require.NoError(t, store.ReadTx(ctx, func(graph.Tx) error { return nil }))
	require.Error(t, store.WriteTx(ctx, func(graph.Tx) error { return errors.New("boom") }))

	assert.Equal(t, 1.0, counterValue(t, m.txTotal.WithLabelValues("read", "commit")))
	assert.Equal(t, 1.0, counterValue(t, m.txTotal.WithLabelValues("write", "rollback")))
	assert.Equal(t, 0.0, counterValue(t, m.txTotal.WithLabelValues("write", "commit")))
}

func TestRegistry_ObserveSync(t *testing.T) {
	m := NewRegistry(prometheus.NewRegistry())

	m.ObserveSync("Flavor", "created")
	m.ObserveSync("Flavor", "created")
	m.ObserveSync("Project", "removed")

	assert.Equal(t, 2.0, counterValue(t, m.syncTotal.WithLabelValues("Flavor", "created")))
	assert.Equal(t, 1.0, counterValue(t, m.syncTotal.WithLabelValues("Project", "removed")))
}

func TestNewServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)
	m.ObserveSync("Region", "updated")

	srv := NewServer(":0", reg)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fedreg_sync_entities_total{action="updated",entity="Region"} 1`)

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
