package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"naksha-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalysisRepository handles database operations for analysis results
type AnalysisRepository struct {
	db *pgxpool.Pool
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create inserts an immutable analysis record. Predictions and navigation
// are stored verbatim as JSONB; the classifier output is not validated
// beyond shape.
func (r *AnalysisRepository) Create(ctx context.Context, rec *models.AnalysisResult) error {
	predictions, err := json.Marshal(rec.Predictions)
	if err != nil {
		return fmt.Errorf("failed to encode predictions: %w", err)
	}
	navigation, err := json.Marshal(rec.Navigation)
	if err != nil {
		return fmt.Errorf("failed to encode navigation: %w", err)
	}

	query := `
		INSERT INTO analysis_results (id, user_id, image_path, predictions, navigation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.Exec(ctx, query,
		rec.ID, rec.UserID, rec.ImagePath, predictions, navigation, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis result: %w", err)
	}
	return nil
}

// ListRecent retrieves a user's analysis results, newest first, capped at
// limit. A user with no history gets an empty slice, not an error.
func (r *AnalysisRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*models.AnalysisResult, error) {
	query := `
		SELECT id, user_id, image_path, predictions, navigation, created_at
		FROM analysis_results
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}
	defer rows.Close()

	results := []*models.AnalysisResult{}
	for rows.Next() {
		var (
			rec         models.AnalysisResult
			predictions []byte
			navigation  []byte
		)
		err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.ImagePath, &predictions, &navigation, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis result: %w", err)
		}
		if err := json.Unmarshal(predictions, &rec.Predictions); err != nil {
			return nil, fmt.Errorf("failed to decode predictions: %w", err)
		}
		if err := json.Unmarshal(navigation, &rec.Navigation); err != nil {
			return nil, fmt.Errorf("failed to decode navigation: %w", err)
		}
		results = append(results, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis results: %w", err)
	}

	return results, nil
}
