package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	rtree "github.com/peterstace/dynrtree"
)

func TestDisabled(t *testing.T) {
	tel, shutdown, err := New(Config{}, zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, tel.Meter)
	assert.Nil(t, tel.Handler)
	assert.NoError(t, shutdown(context.Background()))
}

func TestHandlerExportsTreeMetrics(t *testing.T) {
	tel, shutdown, err := New(Config{Enabled: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	tr, err := rtree.New[int, struct{}](2, 4, rtree.WithMeter(tel.Meter))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		x := float64(i)
		tr.Insert(rtree.Record[int, struct{}]{ID: i, BBox: rtree.BBox{MinX: x, MinY: x, MaxX: x, MaxY: x}})
	}

	srv := httptest.NewServer(tel.Handler)
	defer srv.Close()
	body := get(t, srv.URL)

	assert.Contains(t, body, "rtree_node_splits")
	assert.Contains(t, body, "rtree_root_grows")
	assert.Contains(t, body, `service_name="rtreectl"`)
}

func TestServer(t *testing.T) {
	tel, shutdown, err := New(Config{Enabled: true, Addr: "127.0.0.1:0"}, zap.NewNop())
	require.NoError(t, err)
	require.NotEmpty(t, tel.Addr)

	body := get(t, "http://"+tel.Addr+"/metrics")
	assert.Contains(t, body, "target_info")

	require.NoError(t, shutdown(context.Background()))
}

func TestServerBadAddr(t *testing.T) {
	_, _, err := New(Config{Enabled: true, Addr: "not-an-address"}, zap.NewNop())

	assert.ErrorContains(t, err, "failed to listen")
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
