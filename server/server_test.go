package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/qrcache/server"
	"github.com/unkn0wn-root/qrcache/service"
	"github.com/unkn0wn-root/qrcache/store"
)

type codeBody struct {
	ID       int64  `json:"id"`
	Data     string `json:"data"`
	ImageURL string `json:"imageUrl"`
	Size     string `json:"size"`
	Colors   string `json:"colors"`
	UserID   *int64 `json:"userId"`
}

type errorBody struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, err := service.New(store.NewMemory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close(context.Background()) })

	ts := httptest.NewServer(server.New(svc, nil))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestGenerateSimpleReturnsPNG(t *testing.T) {
	ts := newServer(t)

	resp := do(t, ts, http.MethodGet, "/api/qrcodes/generate?text=hello", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestGenerateSimpleBlankIsBadRequest(t *testing.T) {
	ts := newServer(t)

	resp := do(t, ts, http.MethodGet, "/api/qrcodes/generate?text=", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorBody
	decodeInto(t, resp, &body)
	assert.Equal(t, http.StatusBadRequest, body.Status)
	assert.Equal(t, "Bad Request", body.Error)
	assert.Equal(t, "/api/qrcodes/generate", body.Path)
	assert.NotEmpty(t, body.Message)
}

func TestCreateAndFetchCode(t *testing.T) {
	ts := newServer(t)

	resp := do(t, ts, http.MethodPost, "/api/qrcodes", service.Request{Text: "https://example.com", Width: 200, Height: 200})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created codeBody
	decodeInto(t, resp, &created)
	assert.Equal(t, "https://example.com", created.Data)
	assert.Equal(t, "200x200", created.Size)
	assert.Equal(t, "#000000/#FFFFFF", created.Colors)
	assert.True(t, strings.HasPrefix(created.ImageURL, "data:image/png;base64,"))
	assert.Nil(t, created.UserID)

	id := strconv.FormatInt(created.ID, 10)
	resp = do(t, ts, http.MethodGet, "/api/qrcodes/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched codeBody
	decodeInto(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "/api/qrcodes/"+id+"/image", fetched.ImageURL)

	resp = do(t, ts, http.MethodGet, "/api/qrcodes/"+id+"/image", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestUnknownCodeIsNotFound(t *testing.T) {
	ts := newServer(t)

	resp := do(t, ts, http.MethodGet, "/api/qrcodes/999", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body errorBody
	decodeInto(t, resp, &body)
	assert.Equal(t, http.StatusNotFound, body.Status)
}

func TestMalformedIDAndBody(t *testing.T) {
	ts := newServer(t)

	resp := do(t, ts, http.MethodGet, "/api/qrcodes/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/qrcodes", strings.NewReader("{not json"))
	require.NoError(t, err)
	raw, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestBulkFailsFast(t *testing.T) {
	ts := newServer(t)

	resp := do(t, ts, http.MethodPost, "/api/qrcodes/bulk", []service.Request{{Text: "a"}, {Text: ""}, {Text: "c"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/api/qrcodes/bulk", []service.Request{{Text: "a"}, {Text: "b"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out []codeBody
	decodeInto(t, resp, &out)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Data)
	assert.Equal(t, "b", out[1].Data)
}

func TestSearchWithClearCache(t *testing.T) {
	ts := newServer(t)

	do(t, ts, http.MethodPost, "/api/qrcodes", service.Request{Text: "Hello World"})
	do(t, ts, http.MethodPost, "/api/qrcodes", service.Request{Text: "goodbye"})

	resp := do(t, ts, http.MethodGet, "/api/qrcodes/search?content=hello&clearCache=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out []codeBody
	decodeInto(t, resp, &out)
	require.Len(t, out, 1)
	assert.Equal(t, "Hello World", out[0].Data)

	resp = do(t, ts, http.MethodGet, "/api/qrcodes/search?content=", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUserOwnedCodes(t *testing.T) {
	ts := newServer(t)

	resp := do(t, ts, http.MethodPost, "/api/users", map[string]string{"name": "Ada", "email": "ada@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var user store.User
	decodeInto(t, resp, &user)
	uid := strconv.FormatInt(int64(user.ID), 10)

	resp = do(t, ts, http.MethodPost, "/api/users/"+uid+"/qrcodes", service.Request{Text: "owned"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created codeBody
	decodeInto(t, resp, &created)
	require.NotNil(t, created.UserID)
	assert.Equal(t, int64(user.ID), *created.UserID)

	resp = do(t, ts, http.MethodPost, "/api/qrcodes?userId="+uid, service.Request{Text: "also owned"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/users/"+uid+"/qrcodes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var owned []codeBody
	decodeInto(t, resp, &owned)
	assert.Len(t, owned, 2)

	resp = do(t, ts, http.MethodPost, "/api/qrcodes?userId=424242", service.Request{Text: "orphan"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/users/by-email?email=ada@example.com", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, ts, http.MethodDelete, "/api/users/"+uid, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/users/"+uid, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatsCountAndReset(t *testing.T) {
	ts := newServer(t)

	do(t, ts, http.MethodGet, "/api/qrcodes/generate?text=a", nil)
	do(t, ts, http.MethodGet, "/api/qrcodes/generate?text=b", nil)

	var stats struct {
		Requests uint64 `json:"requests"`
	}
	resp := do(t, ts, http.MethodGet, "/api/stats", nil)
	decodeInto(t, resp, &stats)
	assert.Equal(t, uint64(2), stats.Requests)

	resp = do(t, ts, http.MethodPost, "/api/stats/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/stats", nil)
	decodeInto(t, resp, &stats)
	assert.Equal(t, uint64(0), stats.Requests)
}
