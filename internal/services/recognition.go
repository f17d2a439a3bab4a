package services

import (
	"context"
	"time"

	"naksha-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AnalysisStore is the persistence surface the recognition service needs.
type AnalysisStore interface {
	Create(ctx context.Context, rec *models.AnalysisResult) error
	ListRecent(ctx context.Context, userID string, limit int) ([]*models.AnalysisResult, error)
}

// Recognizer abstracts the external prediction endpoint.
type Recognizer interface {
	Analyze(ctx context.Context, filename string, image []byte) (*PredictionResponse, error)
}

// AnalysisNotifier pushes a completed analysis to the owning user's open
// realtime connections.
type AnalysisNotifier interface {
	NotifyAnalysis(userID string, rec *models.AnalysisResult)
}

// AnalysisOutcome is what the caller gets back from one recognition call.
type AnalysisOutcome struct {
	ResultID    string              `json:"resultId"`
	Predictions []models.Prediction `json:"predictions"`
	Navigation  models.Navigation   `json:"navigation"`
}

const historyLimit = 10

// RecognitionService forwards uploaded images to the external classifier
// and records each successful result against the requesting user.
type RecognitionService struct {
	analyses   AnalysisStore
	recognizer Recognizer
	images     ImageStore // nil when no bucket is configured
	notifier   AnalysisNotifier
}

// NewRecognitionService creates a new recognition service. images and
// notifier may be nil.
func NewRecognitionService(
	analyses AnalysisStore,
	recognizer Recognizer,
	images ImageStore,
	notifier AnalysisNotifier,
) *RecognitionService {
	return &RecognitionService{
		analyses:   analyses,
		recognizer: recognizer,
		images:     images,
		notifier:   notifier,
	}
}

// Analyze runs one recognition round trip. The upstream call happens first:
// an upstream failure persists nothing. Image storage is best-effort and
// never fails the call.
func (s *RecognitionService) Analyze(ctx context.Context, userID, filename, contentType string, image []byte) (*AnalysisOutcome, error) {
	result, err := s.recognizer.Analyze(ctx, filename, image)
	if err != nil {
		return nil, err
	}

	var imagePath *string
	if s.images != nil {
		key, err := s.images.Put(ctx, filename, contentType, image)
		if err != nil {
			log.Warn().
				Err(err).
				Str("user_id", userID).
				Str("filename", filename).
				Msg("Failed to persist uploaded image, continuing without")
		} else {
			imagePath = &key
		}
	}

	rec := &models.AnalysisResult{
		ID:          uuid.New().String(),
		UserID:      userID,
		ImagePath:   imagePath,
		Predictions: result.Predictions,
		Navigation:  result.Navigation,
		CreatedAt:   time.Now(),
	}

	if err := s.analyses.Create(ctx, rec); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyAnalysis(userID, rec)
	}

	return &AnalysisOutcome{
		ResultID:    rec.ID,
		Predictions: rec.Predictions,
		Navigation:  rec.Navigation,
	}, nil
}

// History returns the user's most recent analysis results, newest first,
// capped at the default page size when limit is out of range.
func (s *RecognitionService) History(ctx context.Context, userID string, limit int) ([]*models.AnalysisResult, error) {
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}
	return s.analyses.ListRecent(ctx, userID, limit)
}
