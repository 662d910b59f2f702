package repository

import (
	"context"
	"fmt"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const rareRequestColumns = `id, requester_id, requester_type, blood_type, urgency, city, lat, lng, notes, status, matched_donor_count, created_at`

// RareRequestRepository хранит запросы больниц и банков крови на редких доноров
type RareRequestRepository struct {
	*base.Repository
}

func NewRareRequestRepository(db *base.Repository) *RareRequestRepository {
	return &RareRequestRepository{Repository: db}
}

func scanRareRequest(row pgx.Row) (*model.RareDonorRequest, error) {
	var req model.RareDonorRequest
	err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.RequesterType,
		&req.BloodType,
		&req.Urgency,
		&req.Location.City,
		&req.Location.Lat,
		&req.Location.Lng,
		&req.Notes,
		&req.Status,
		&req.MatchedDonorCount,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create creates a new rare donor request
func (r *RareRequestRepository) Create(ctx context.Context, req *model.RareDonorRequest) error {
	query := `
		INSERT INTO rare_donor_requests (` + rareRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.ExecAffected(
		ctx, query,
		req.ID,
		req.RequesterID,
		req.RequesterType,
		req.BloodType,
		req.Urgency,
		req.Location.City,
		req.Location.Lat,
		req.Location.Lng,
		req.Notes,
		req.Status,
		req.MatchedDonorCount,
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create rare request: %w", err)
	}

	return nil
}

// GetByID retrieves a request by ID
func (r *RareRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RareDonorRequest, error) {
	req, err := scanRareRequest(r.QueryRow(ctx, `SELECT `+rareRequestColumns+` FROM rare_donor_requests WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rare request: %w", err)
	}
	return req, nil
}

// ListByRequester retrieves all requests created by a hospital or blood bank, newest first
func (r *RareRequestRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*model.RareDonorRequest, error) {
	query := `SELECT ` + rareRequestColumns + ` FROM rare_donor_requests WHERE requester_id = $1 ORDER BY created_at DESC`

	rows, err := r.Query(ctx, query, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list rare requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.RareDonorRequest
	for rows.Next() {
		req, err := scanRareRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rare request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}
