package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/autopec/garage/internal/model"
)

type RepairRepository interface {
	Create(ctx context.Context, repair *model.RepairRequest) error
	All(ctx context.Context) ([]*model.RepairRequest, error)
	ByID(ctx context.Context, id string) (*model.RepairRequest, error)
	LatestByRegistration(ctx context.Context, registrationNumber string) (*model.RepairRequest, error)
	ByStatus(ctx context.Context, status model.Status) ([]*model.RepairRequest, error)
	UpdateStatusAndNotes(ctx context.Context, id string, status model.Status, notes string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type repairRepository struct {
	db *sqlx.DB
}

func NewRepairRepository(db *sqlx.DB) RepairRepository {
	return &repairRepository{db: db}
}

const repairColumns = `id, registration_number, problem_description, customer_name, phone_number, car_model,
	status, mechanic_notes, multimedia, created_at, updated_at`

func (r *repairRepository) Create(ctx context.Context, repair *model.RepairRequest) error {
	query := `INSERT INTO repairs (` + repairColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		repair.ID,
		repair.RegistrationNumber,
		repair.ProblemDescription,
		repair.CustomerName,
		repair.PhoneNumber,
		repair.CarModel,
		string(repair.Status),
		repair.MechanicNotes,
		repair.Multimedia,
		repair.CreatedAt,
		repair.UpdatedAt,
	)

	return classify(err)
}

func (r *repairRepository) All(ctx context.Context) ([]*model.RepairRequest, error) {
	repairs := []*model.RepairRequest{}
	query := `SELECT ` + repairColumns + ` FROM repairs ORDER BY created_at DESC, id DESC`

	err := r.db.SelectContext(ctx, &repairs, query)
	if err != nil {
		return nil, classify(err)
	}

	return repairs, nil
}

func (r *repairRepository) ByID(ctx context.Context, id string) (*model.RepairRequest, error) {
	repair := &model.RepairRequest{}
	query := `SELECT ` + repairColumns + ` FROM repairs WHERE id = $1`

	err := r.db.GetContext(ctx, repair, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRepairNotFound
	}
	if err != nil {
		return nil, classify(err)
	}

	return repair, nil
}

// LatestByRegistration matches case-insensitively and returns the most recently created record.
func (r *repairRepository) LatestByRegistration(ctx context.Context, registrationNumber string) (*model.RepairRequest, error) {
	repair := &model.RepairRequest{}
	query := `SELECT ` + repairColumns + ` FROM repairs
	          WHERE UPPER(registration_number) = UPPER($1)
	          ORDER BY created_at DESC, id DESC LIMIT 1`

	err := r.db.GetContext(ctx, repair, query, registrationNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRepairNotFound
	}
	if err != nil {
		return nil, classify(err)
	}

	return repair, nil
}

func (r *repairRepository) ByStatus(ctx context.Context, status model.Status) ([]*model.RepairRequest, error) {
	repairs := []*model.RepairRequest{}
	query := `SELECT ` + repairColumns + ` FROM repairs WHERE status = $1 ORDER BY created_at DESC, id DESC`

	err := r.db.SelectContext(ctx, &repairs, query, string(status))
	if err != nil {
		return nil, classify(err)
	}

	return repairs, nil
}

// UpdateStatusAndNotes overwrites status and notes. Concurrent writers race; the last one wins.
func (r *repairRepository) UpdateStatusAndNotes(ctx context.Context, id string, status model.Status, notes string, updatedAt time.Time) error {
	query := `UPDATE repairs
	          SET status = $1, mechanic_notes = $2, updated_at = $3
	          WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, string(status), notes, updatedAt, id)
	if err != nil {
		return classify(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}

	if rows == 0 {
		return ErrRepairNotFound
	}

	return nil
}

func (r *repairRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM repairs WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return classify(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}

	if rows == 0 {
		return ErrRepairNotFound
	}

	return nil
}
