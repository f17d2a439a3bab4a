package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"naksha-backend/internal/middleware"
	"naksha-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// maxImageSize is the upload ceiling, enforced server-side regardless of
// what the UI allows.
const maxImageSize = 5 << 20 // 5 MiB

// AnalysisHandler handles image analysis and history requests.
type AnalysisHandler struct {
	recognition *services.RecognitionService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(recognition *services.RecognitionService) *AnalysisHandler {
	return &AnalysisHandler{recognition: recognition}
}

// Analyze handles POST /api/analyze-image
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		respondError(w, "image too large or malformed upload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, "no image provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, "failed to read image", http.StatusBadRequest)
		return
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		respondError(w, "uploaded file is not an image", http.StatusBadRequest)
		return
	}

	outcome, err := h.recognition.Analyze(ctx, userID, header.Filename, contentType, data)
	if err != nil {
		status := statusFromError(err)
		if status >= 500 {
			log.Error().
				Err(err).
				Str("user_id", userID).
				Str("filename", header.Filename).
				Msg("Image analysis failed")
		}
		respondError(w, clientMessage(err), status)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("result_id", outcome.ResultID).
		Int("predictions", len(outcome.Predictions)).
		Msg("Image analyzed")

	respondJSON(w, http.StatusOK, outcome)
}

// History handles GET /api/analysis-history
func (h *AnalysisHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	results, err := h.recognition.History(ctx, userID, limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch analysis history")
		respondError(w, clientMessage(err), statusFromError(err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}
