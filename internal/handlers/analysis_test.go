package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"naksha-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jpegBytes carries the JPEG magic so http.DetectContentType sniffs image/jpeg.
var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x00}, 64)...)

func newRecognizerUpstream(t *testing.T, status int, body string) services.Recognizer {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return services.NewRecognizerClient(srv.URL, 5*time.Second)
}

func registerAndGetCookie(t *testing.T, env *testEnv) *http.Cookie {
	t.Helper()
	rec := postJSON(t, env.router, "/api/auth/register", RegisterRequest{
		Email: "uploader@example.com", Password: "secret-password",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	cookie := sessionCookie(rec.Result())
	require.NotNil(t, cookie)
	return cookie
}

func uploadImage(t *testing.T, env *testEnv, cookie *http.Cookie, field, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-image", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

const upstreamOK = `{
	"predictions": [{"building": "Library", "confidence": 0.91}],
	"navigation": {"current_location": "Quad", "directions": ["Walk west"]}
}`

func TestAnalyzeImage_HappyPathLandsInHistory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(newRecognizerUpstream(t, http.StatusOK, upstreamOK))
	cookie := registerAndGetCookie(t, env)

	rec := uploadImage(t, env, cookie, "image", "library.jpg", jpegBytes)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var outcome struct {
		ResultID    string `json:"resultId"`
		Predictions []struct {
			Building   string  `json:"building"`
			Confidence float64 `json:"confidence"`
		} `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	require.NotEmpty(t, outcome.ResultID)
	require.NotEmpty(t, outcome.Predictions)
	assert.Equal(t, "Library", outcome.Predictions[0].Building)

	// The new record is the newest history entry.
	histReq := httptest.NewRequest(http.MethodGet, "/api/analysis-history", nil)
	histReq.AddCookie(cookie)
	histRec := httptest.NewRecorder()
	env.router.ServeHTTP(histRec, histReq)
	require.Equal(t, http.StatusOK, histRec.Code)

	var hist struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(histRec.Body.Bytes(), &hist))
	require.NotEmpty(t, hist.Results)
	assert.Equal(t, outcome.ResultID, hist.Results[0].ID)
}

func TestAnalyzeImage_RequiresSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(newRecognizerUpstream(t, http.StatusOK, upstreamOK))

	rec := uploadImage(t, env, nil, "image", "library.jpg", jpegBytes)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, env.analyses.records)
}

func TestAnalyzeImage_RejectsNonImage(t *testing.T) {
	t.Parallel()

	env := newTestEnv(newRecognizerUpstream(t, http.StatusOK, upstreamOK))
	cookie := registerAndGetCookie(t, env)

	rec := uploadImage(t, env, cookie, "image", "notes.txt", []byte("plain text, not an image"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.analyses.records)
}

func TestAnalyzeImage_MissingFile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(newRecognizerUpstream(t, http.StatusOK, upstreamOK))
	cookie := registerAndGetCookie(t, env)

	rec := uploadImage(t, env, cookie, "wrong_field", "library.jpg", jpegBytes)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeImage_UpstreamFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(newRecognizerUpstream(t, http.StatusInternalServerError, `{"detail":"boom"}`))
	cookie := registerAndGetCookie(t, env)

	rec := uploadImage(t, env, cookie, "image", "library.jpg", jpegBytes)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	// Upstream detail stays out of the response body.
	assert.NotContains(t, rec.Body.String(), "boom")
	// No partial record is persisted.
	assert.Empty(t, env.analyses.records)
}

func TestAnalysisHistory_EmptyForNewUser(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	cookie := registerAndGetCookie(t, env)

	req := httptest.NewRequest(http.MethodGet, "/api/analysis-history", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var hist struct {
		Results []json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	assert.Empty(t, hist.Results)
}
