package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaret/interp/internal/adapters/booth"
	"github.com/dmaret/interp/internal/adapters/rpc"
	"github.com/dmaret/interp/internal/app"
	"github.com/dmaret/interp/internal/config"
)

func newTestRouter(t *testing.T) (http.Handler, *app.Directory) {
	t.Helper()
	dir := app.NewDirectory()
	notifier := rpc.NewNotifier()
	bcast := app.NewBroadcaster(dir, notifier)
	engine := app.NewEngine(dir, notifier, bcast)
	bcast.Attach(10, booth.NewSim("test", 0))
	ctl := rpc.NewController(engine, notifier)
	cfg := &config.Config{Mode: "release", Secret: "test-secret"}
	return SetupRouter(context.Background(), cfg, ctl, engine), dir
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)
	w := doJSON(t, h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAvailabilityEndpoints(t *testing.T) {
	h, dir := newTestRouter(t)
	require.NoError(t, dir.RegisterRoom("client-a", 1))

	w := doJSON(t, h, http.MethodGet, "/api/rooms/available", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rooms struct {
		Rooms []int `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	assert.Equal(t, []int{1}, rooms.Rooms)

	w = doJSON(t, h, http.MethodGet, "/api/booths/available", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var booths struct {
		Booths []int `json:"booths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booths))
	assert.Equal(t, []int{10}, booths.Booths)

	w = doJSON(t, h, http.MethodGet, "/api/booths", nil)
	require.Equal(t, http.StatusOK, w.Code)
	booths.Booths = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booths))
	assert.Equal(t, []int{10}, booths.Booths)
}

func TestBeginInterpretationEndpoint(t *testing.T) {
	h, dir := newTestRouter(t)
	require.NoError(t, dir.RegisterRoom("client-a", 1))

	w := doJSON(t, h, http.MethodPost, "/api/interpretation", map[string]int{"room": 1, "booth": 10})
	assert.Equal(t, http.StatusAccepted, w.Code)

	// The request is applied synchronously under the hood.
	bid, ok := dir.BoothOf(1)
	require.True(t, ok)
	assert.Equal(t, 10, int(bid))

	w = doJSON(t, h, http.MethodDelete, "/api/interpretation", map[string]int{"room": 1, "booth": 10})
	assert.Equal(t, http.StatusAccepted, w.Code)
	_, ok = dir.BoothOf(1)
	assert.False(t, ok)
}

func TestBeginInterpretationRejectsBadBody(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/interpretation", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/interpretation", map[string]int{"room": -1, "booth": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClientTokenCookieAssigned(t *testing.T) {
	h, _ := newTestRouter(t)
	w := doJSON(t, h, http.MethodGet, "/api/health", nil)

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "ct" && c.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "client token cookie must be set")
}
