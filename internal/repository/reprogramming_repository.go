package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shiftworks/vacation-api/internal/models"
)

// ReprogrammingRepository persists reprogramming and holiday-exchange
// requests.
type ReprogrammingRepository struct {
	db *sqlx.DB
}

// NewReprogrammingRepository creates a new reprogramming repository.
func NewReprogrammingRepository(db *sqlx.DB) *ReprogrammingRepository {
	return &ReprogrammingRepository{db: db}
}

const requestColumns = "id, employee_id, kind, original_record_id, original_date, new_date, status, needs_approval, motive, decision_reason, pending_since, decided_at"

// Create stores a new Pending request.
func (r *ReprogrammingRepository) Create(ctx context.Context, request *models.ReprogrammingRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.RequestPending
	}
	if request.PendingSince.IsZero() {
		request.PendingSince = time.Now().UTC()
	}
	const query = `INSERT INTO reprogramming_requests (id, employee_id, kind, original_record_id, original_date, new_date, status, needs_approval, motive, pending_since)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(ctx, query, request.ID, request.EmployeeID, request.Kind, request.OriginalRecordID, request.OriginalDate, request.NewDate, request.Status, request.NeedsApproval, request.Motive, request.PendingSince); err != nil {
		return fmt.Errorf("create reprogramming request: %w", err)
	}
	return nil
}

// FindByID loads a request.
func (r *ReprogrammingRepository) FindByID(ctx context.Context, id string) (*models.ReprogrammingRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM reprogramming_requests WHERE id = $1", requestColumns)
	var request models.ReprogrammingRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// HasOpenForRecord reports whether a Pending request already references the
// original record. At most one open request exists per record.
func (r *ReprogrammingRepository) HasOpenForRecord(ctx context.Context, recordID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM reprogramming_requests WHERE original_record_id = $1 AND status = 'PENDING')`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, recordID); err != nil {
		return false, fmt.Errorf("check open request for record %s: %w", recordID, err)
	}
	return exists, nil
}

// Decide transitions a Pending request to a terminal state. The WHERE clause
// guards against racing decisions: zero rows affected means the request was
// already terminal.
func (r *ReprogrammingRepository) Decide(ctx context.Context, exec sqlx.ExtContext, id string, status models.RequestStatus, reason *string) (bool, error) {
	const query = `UPDATE reprogramming_requests SET status = $2, decision_reason = $3, decided_at = NOW()
		WHERE id = $1 AND status = 'PENDING'`
	res, err := exec.ExecContext(ctx, query, id, status, reason)
	if err != nil {
		return false, fmt.Errorf("decide reprogramming request %s: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decide reprogramming request %s: %w", id, err)
	}
	return rows > 0, nil
}

// ListPendingEscalations returns Pending requests flagged for manual approval,
// oldest first.
func (r *ReprogrammingRepository) ListPendingEscalations(ctx context.Context) ([]models.ReprogrammingRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM reprogramming_requests WHERE status = 'PENDING' AND needs_approval = TRUE ORDER BY pending_since ASC", requestColumns)
	var requests []models.ReprogrammingRequest
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, fmt.Errorf("list pending escalations: %w", err)
	}
	return requests, nil
}
