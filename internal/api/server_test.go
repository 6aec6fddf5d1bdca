package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbay-eng/drainfield-placer/internal/cad"
	"github.com/redbay-eng/drainfield-placer/internal/catalog"
	"github.com/redbay-eng/drainfield-placer/internal/geometry"
	"github.com/redbay-eng/drainfield-placer/internal/placer"
	"github.com/redbay-eng/drainfield-placer/internal/selection"
	"github.com/redbay-eng/drainfield-placer/internal/store"
)

func testCatalog() *catalog.Catalog {
	return catalog.New(catalog.DefaultProducts(), []catalog.Pattern{{
		Name:     "trench_2x5",
		Product:  "mps9",
		Class:    catalog.Trench,
		Metadata: catalog.Metadata{CreditSqft: 600, IsRectangular: true, NumPieces: 10},
		Polylines: []cad.Polyline{
			{Layer: "pipe", Points: []geometry.Point{{X: 10, Y: 0}, {X: 10, Y: 25}}},
			{Layer: "shoulder", Closed: true, Points: []geometry.Point{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 25}, {X: 0, Y: 25}}},
		},
	}})
}

func newTestServer(t *testing.T, withStore bool, opts Options) (http.Handler, store.RunStore) {
	t.Helper()
	cat := testCatalog()
	var svcOpts []placer.Option
	var st store.RunStore
	if withStore {
		sq, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = sq.Close() })
		require.NoError(t, sq.Migrate(context.Background()))
		st = sq
		svcOpts = append(svcOpts, placer.WithRunStore(sq))
	}
	svc := placer.New(selection.New(cat), svcOpts...)
	return NewRouter(svc, cat, opts), st
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	return m
}

var lot = [][2]float64{{0, 0}, {40, 0}, {40, 60}, {0, 60}}

func ring(pts [][2]float64) []map[string]float64 {
	out := make([]map[string]float64, len(pts))
	for i, p := range pts {
		out[i] = map[string]float64{"x": p[0], "y": p[1]}
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestServer(t, false, Options{})
	rr := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decode(t, rr)["status"])
}

func TestSelectEndpoint(t *testing.T) {
	h, st := newTestServer(t, true, Options{})
	rr := do(t, h, http.MethodPost, "/v1/select", map[string]any{
		"property_id": "P-1",
		"boundary":    ring(lot),
		"flow_gpd":    400,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		RunID   string            `json:"run_id"`
		Result  selection.Result  `json:"result"`
		Summary selection.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Result.Success)
	assert.Equal(t, selection.Trench, resp.Result.ConfigType)
	assert.Equal(t, selection.StatusSuccess, resp.Summary.Status)
	require.NotEmpty(t, resp.RunID)

	run, err := st.GetRun(context.Background(), uuid.MustParse(resp.RunID))
	require.NoError(t, err)
	assert.Equal(t, "P-1", run.PropertyID)
}

func TestSelectEndpoint_CADDocument(t *testing.T) {
	h, _ := newTestServer(t, false, Options{})
	doc := map[string]any{"polylines": []map[string]any{{
		"layer": "polyline_boundary", "closed": true, "points": ring(lot),
	}}}
	rr := do(t, h, http.MethodPost, "/v1/select", map[string]any{"cad": doc, "flow_gpd": 400})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		CAD cad.Document `json:"cad"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	// boundary plus the two placed pattern polylines
	require.Len(t, resp.CAD.Polylines, 3)
	assert.Equal(t, cad.PlacementSource, resp.CAD.Polylines[2].Metadata["source"])
}

func TestSelectEndpoint_NeedsSplit(t *testing.T) {
	h, _ := newTestServer(t, false, Options{})
	rr := do(t, h, http.MethodPost, "/v1/select", map[string]any{
		"boundary": ring([][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}),
		"flow_gpd": 400,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	result := body["result"].(map[string]any)
	assert.Equal(t, false, result["success"])
	assert.Equal(t, selection.ReasonNeedsSplit, result["reason"])
}

func TestSelectEndpoint_Errors(t *testing.T) {
	h, _ := newTestServer(t, false, Options{})

	rr := do(t, h, http.MethodPost, "/v1/select", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/select", map[string]any{"boundary": ring(lot)})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/select", map[string]any{
		"boundary": ring(lot), "bedrooms": 3, "building_sqft": 1500,
	})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/select", map[string]any{
		"boundary": ring([][2]float64{{0, 0}, {10, 10}, {10, 0}, {0, 10}}),
		"flow_gpd": 400,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, geometry.MsgInvalidBoundary, decode(t, rr)["error"])

	rr = do(t, h, http.MethodPost, "/v1/select", map[string]any{
		"cad": map[string]any{"polylines": []any{}}, "flow_gpd": 400,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPlaceEndpoint(t *testing.T) {
	h, _ := newTestServer(t, false, Options{})
	rr := do(t, h, http.MethodPost, "/v1/place", map[string]any{
		"boundary":      ring(lot),
		"required_sqft": 500,
		"config_type":   "trench",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	result := decode(t, rr)["result"].(map[string]any)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, []any{"trench"}, result["attempted"])

	rr = do(t, h, http.MethodPost, "/v1/place", map[string]any{"boundary": ring(lot), "required_sqft": 500, "config_type": "mound"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/place", map[string]any{"boundary": ring(lot)})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSizingEndpoint_NoTables(t *testing.T) {
	h, _ := newTestServer(t, false, Options{})
	rr := do(t, h, http.MethodPost, "/v1/sizing", map[string]any{"bedrooms": 3, "building_sqft": 1500})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestCatalogEndpoint(t *testing.T) {
	h, _ := newTestServer(t, false, Options{})
	rr := do(t, h, http.MethodGet, "/v1/catalog", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Products     []productResponse `json:"products"`
		PatternCount int               `json:"pattern_count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.PatternCount)
	require.Len(t, resp.Products, 3)
	assert.Equal(t, "mps9", resp.Products[0].ID)
	assert.Equal(t, []string{"trench_2x5"}, resp.Products[0].Patterns["trench"])
	assert.Empty(t, resp.Products[0].Patterns["bed"])
}

func TestRunsEndpoints(t *testing.T) {
	h, _ := newTestServer(t, true, Options{})
	rr := do(t, h, http.MethodPost, "/v1/select", map[string]any{"property_id": "P-9", "boundary": ring(lot), "flow_gpd": 400})
	require.Equal(t, http.StatusOK, rr.Code)
	id := decode(t, rr)["run_id"].(string)

	rr = do(t, h, http.MethodGet, "/v1/runs/"+id, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	run := decode(t, rr)
	assert.Equal(t, id, run["id"])
	assert.Equal(t, "P-9", run["property_id"])

	rr = do(t, h, http.MethodGet, "/v1/runs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodGet, "/v1/runs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodGet, "/v1/runs?property_id=P-9&limit=5", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode(t, rr)["runs"], 1)

	rr = do(t, h, http.MethodGet, "/v1/runs?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRunsEndpoints_NoStore(t *testing.T) {
	h, _ := newTestServer(t, false, Options{})
	rr := do(t, h, http.MethodGet, "/v1/runs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	rr = do(t, h, http.MethodGet, "/v1/runs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRateLimit(t *testing.T) {
	h, _ := newTestServer(t, false, Options{RateLimit: 1, Burst: 2})
	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, do(t, h, http.MethodGet, "/v1/catalog", nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// health is not limited
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil).Code)
}

func TestClientLimiter_Sweep(t *testing.T) {
	l := newClientLimiter(1, 1)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.Len(t, l.clients, 1)

	now = now.Add(time.Hour)
	assert.True(t, l.allow("b"))
	assert.Len(t, l.clients, 1)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestServer(t, false, Options{CORSOrigins: []string{"https://permits.example.com"}})
	req := httptest.NewRequest(http.MethodOptions, "/v1/select", nil)
	req.Header.Set("Origin", "https://permits.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "https://permits.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}
