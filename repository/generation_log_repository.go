package repository

import (
	"context"

	"visaletter-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GenerationLogRepository handles database operations for generation logs
type GenerationLogRepository struct {
	db *pgxpool.Pool
}

// NewGenerationLogRepository creates a new generation log repository
func NewGenerationLogRepository(db *pgxpool.Pool) *GenerationLogRepository {
	return &GenerationLogRepository{db: db}
}

// Create inserts a generation log entry
func (r *GenerationLogRepository) Create(ctx context.Context, entry *models.GenerationLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Scenarios == nil {
		entry.Scenarios = make(models.ScenarioList, 0)
	}

	query := `
		INSERT INTO generation_logs (
			id, request_id, status, model, fallback_used, scenarios,
			asset_fingerprint, error_code, prompt_chars, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	return r.db.QueryRow(
		ctx, query,
		entry.ID,
		entry.RequestID,
		entry.Status,
		entry.Model,
		entry.FallbackUsed,
		entry.Scenarios,
		entry.AssetFingerprint,
		entry.ErrorCode,
		entry.PromptChars,
		entry.DurationMs,
	).Scan(&entry.CreatedAt)
}

// GetByID retrieves a generation log entry by ID
func (r *GenerationLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GenerationLog, error) {
	entry := &models.GenerationLog{}
	query := `
		SELECT id, request_id, status, model, fallback_used, scenarios,
			asset_fingerprint, error_code, prompt_chars, duration_ms, created_at
		FROM generation_logs
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&entry.ID,
		&entry.RequestID,
		&entry.Status,
		&entry.Model,
		&entry.FallbackUsed,
		&entry.Scenarios,
		&entry.AssetFingerprint,
		&entry.ErrorCode,
		&entry.PromptChars,
		&entry.DurationMs,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if entry.Scenarios == nil {
		entry.Scenarios = make(models.ScenarioList, 0)
	}
	return entry, nil
}

// StatusCount is the number of log entries with one status
type StatusCount struct {
	Status models.GenerationStatus `json:"status"`
	Count  int64                   `json:"count"`
}

// CountByStatus summarizes recent generation outcomes
func (r *GenerationLogRepository) CountByStatus(ctx context.Context, sinceHours int) ([]StatusCount, error) {
	query := `
		SELECT status, COUNT(*)
		FROM generation_logs
		WHERE created_at >= NOW() - make_interval(hours => $1)
		GROUP BY status
		ORDER BY status`

	rows, err := r.db.Query(ctx, query, sinceHours)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
