package handle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visual-assist/api/internal/assist"
	"visual-assist/api/internal/testutil"
)

// multipartBody builds an assist form. A nil image omits the file part and
// an empty mode omits the mode field.
func multipartBody(t *testing.T, image []byte, mode string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if image != nil {
		fw, err := w.CreateFormFile("image", "capture.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	if mode != "" {
		require.NoError(t, w.WriteField("mode", mode))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func newTestServer(eng assist.Engine) *echo.Echo {
	h := New(assist.New(eng), time.Second)
	return NewServer(ServerOptions{BodyLimit: "1M"}, h)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAssist(t *testing.T) {
	tests := []struct {
		name       string
		image      []byte
		mode       string
		engine     *testutil.FakeEngine
		wantStatus int
		wantBody   map[string]any
		wantCalls  []string
	}{
		{
			name:       "text mode",
			image:      testutil.PNG,
			mode:       "text",
			engine:     &testutil.FakeEngine{Text: "Quiet please\n"},
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"status": "success", "mode": "text", "description": "Quiet please"},
			wantCalls:  []string{"text"},
		},
		{
			name:       "diagram mode",
			image:      testutil.PNG,
			mode:       "diagram",
			engine:     &testutil.FakeEngine{Labels: []string{"Circle", "Triangle"}},
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"status": "success", "mode": "diagram", "description": "This diagram contains: Circle, Triangle."},
			wantCalls:  []string{"labels"},
		},
		{
			name:       "navigation mode",
			image:      testutil.PNG,
			mode:       "navigation",
			engine:     &testutil.FakeEngine{Objects: []string{"Chair", "Chair"}},
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"status": "success", "mode": "navigation", "description": "I see the following in your path: Chair."},
			wantCalls:  []string{"objects"},
		},
		{
			name:       "unknown mode is echoed",
			image:      testutil.PNG,
			mode:       "colors",
			engine:     &testutil.FakeEngine{},
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"status": "success", "mode": "colors", "description": assist.InvalidModeMessage},
		},
		{
			name:       "missing image",
			mode:       "text",
			engine:     &testutil.FakeEngine{},
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"status": "error", "message": MissingInputMessage},
		},
		{
			name:       "missing mode",
			image:      testutil.PNG,
			engine:     &testutil.FakeEngine{},
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"status": "error", "message": MissingInputMessage},
		},
		{
			name:       "empty image",
			image:      []byte{},
			mode:       "text",
			engine:     &testutil.FakeEngine{},
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"status": "error", "message": EmptyImageMessage},
		},
		{
			name:       "engine failure hides details",
			image:      testutil.PNG,
			mode:       "navigation",
			engine:     &testutil.FakeEngine{Err: errors.New("rpc error: code = PermissionDenied")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"status": "error", "message": InternalMessage},
			wantCalls:  []string{"objects"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer(tt.engine)
			body, ct := multipartBody(t, tt.image, tt.mode)
			req := httptest.NewRequest(http.MethodPost, "/api/assist", body)
			req.Header.Set(echo.HeaderContentType, ct)
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, decode(t, rec))
			assert.Equal(t, tt.wantCalls, tt.engine.Calls())
			assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
		})
	}
}

func TestAssist_NotMultipart(t *testing.T) {
	e := newTestServer(testutil.NewFakeEngine())
	req := httptest.NewRequest(http.MethodPost, "/api/assist", bytes.NewBufferString(`{"mode":"text"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MissingInputMessage, decode(t, rec)["message"])
}

func TestAssist_BodyLimit(t *testing.T) {
	e := newTestServer(testutil.NewFakeEngine())
	body, ct := multipartBody(t, make([]byte, 2<<20), "text")
	req := httptest.NewRequest(http.MethodPost, "/api/assist", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "error", decode(t, rec)["status"])
}

type slowDescriber struct{}

func (slowDescriber) Describe(ctx context.Context, _ []byte, _ assist.Mode) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestAssist_Timeout(t *testing.T) {
	e := NewServer(ServerOptions{}, New(slowDescriber{}, 20*time.Millisecond))
	body, ct := multipartBody(t, testutil.PNG, "text")
	req := httptest.NewRequest(http.MethodPost, "/api/assist", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, InternalMessage, decode(t, rec)["message"])
}

func TestStatus(t *testing.T) {
	e := newTestServer(testutil.NewFakeEngine())
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "active", "service": "VisualAssist Backend"}, decode(t, rec))
}

func TestErrorEnvelope_UnknownRoutes(t *testing.T) {
	e := newTestServer(testutil.NewFakeEngine())

	tests := []struct {
		method, path string
		wantStatus   int
	}{
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodGet, "/api/assist", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, tt.wantStatus, rec.Code, tt.path)
		body := decode(t, rec)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, http.StatusText(tt.wantStatus), body["message"])
	}
}

func TestCORSPreflight(t *testing.T) {
	e := NewServer(ServerOptions{AllowOrigins: []string{"http://localhost:5173"}}, New(assist.New(testutil.NewFakeEngine()), time.Second))
	req := httptest.NewRequest(http.MethodOptions, "/api/assist", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestErrorHandler_PlainError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ErrorHandler(errors.New("database on fire"), c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"status": "error", "message": InternalMessage}, decode(t, rec))
}
