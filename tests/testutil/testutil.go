// Package testutil holds shared helpers for HTTP-level tests. They
// drive a gin engine the way a client would and unwrap the response
// envelope the dto package produces.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// envelope mirrors the wire shape of dto.Response.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Serve performs a bodyless request against the engine.
func Serve(t *testing.T, engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// ServeJSON marshals body and sends it to the engine as JSON.
func ServeJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// DecodeData unwraps a success envelope into T, failing the test on a
// non-success response.
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.True(t, env.Success, "expected success envelope, got: %s", w.Body.String())

	var data T
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data
}

// ErrorCode returns the error code from a failure envelope.
func ErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.False(t, env.Success, "expected error envelope, got: %s", w.Body.String())
	require.NotNil(t, env.Error)
	return env.Error.Code
}
