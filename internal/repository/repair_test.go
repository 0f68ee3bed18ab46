package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopec/garage/internal/db"
	"github.com/autopec/garage/internal/model"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := db.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))
	return conn
}

var base = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func newRepair(id, reg string, created time.Time) *model.RepairRequest {
	return &model.RepairRequest{
		ID:                 id,
		RegistrationNumber: reg,
		ProblemDescription: "brake noise",
		Status:             model.StatusSubmitted,
		Multimedia:         model.Attachments{},
		CreatedAt:          created,
		UpdatedAt:          created,
	}
}

func TestRepairRepositoryCreateAndByID(t *testing.T) {
	repo := NewRepairRepository(setupTestDB(t))
	ctx := context.Background()

	in := newRepair("r1", "KDA 001Z", base.Add(123456*time.Microsecond))
	in.CustomerName = "Jane"
	in.Multimedia = model.Attachments{
		{Type: model.MediaImage, URL: "https://cdn/a.jpg", PublicID: "autopec/images/1.jpg", Filename: "a.jpg", UploadedAt: base},
	}
	require.NoError(t, repo.Create(ctx, in))

	got, err := repo.ByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "KDA 001Z", got.RegistrationNumber)
	assert.Equal(t, "Jane", got.CustomerName)
	assert.Equal(t, model.StatusSubmitted, got.Status)
	assert.Equal(t, in.Multimedia, got.Multimedia)
	assert.True(t, in.CreatedAt.Equal(got.CreatedAt), "created_at round trips: %s vs %s", in.CreatedAt, got.CreatedAt)

	_, err = repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrRepairNotFound)
}

func TestRepairRepositoryCreateDuplicate(t *testing.T) {
	repo := NewRepairRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRepair("r1", "KDA", base)))
	err := repo.Create(ctx, newRepair("r1", "KDB", base))
	assert.ErrorIs(t, err, ErrDuplicateRepair)
}

func TestRepairRepositoryConstraints(t *testing.T) {
	repo := NewRepairRepository(setupTestDB(t))
	ctx := context.Background()

	bad := newRepair("r1", "KDA", base)
	bad.Status = "unknown_value"
	assert.ErrorIs(t, repo.Create(ctx, bad), ErrConstraint)

	empty := newRepair("r2", "", base)
	assert.ErrorIs(t, repo.Create(ctx, empty), ErrConstraint)
}

func TestRepairRepositoryAllNewestFirst(t *testing.T) {
	repo := NewRepairRepository(setupTestDB(t))
	ctx := context.Background()

	empty, err := repo.All(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, repo.Create(ctx, newRepair("old", "A1", base)))
	require.NoError(t, repo.Create(ctx, newRepair("new", "A2", base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newRepair("mid", "A3", base.Add(time.Minute+500*time.Millisecond))))

	first, err := repo.All(ctx)
	require.NoError(t, err)
	second, err := repo.All(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(first))
	for _, r := range first {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
	assert.Equal(t, first, second, "listing is stable")
}

func TestRepairRepositoryLatestByRegistration(t *testing.T) {
	repo := NewRepairRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRepair("first", "KCA123A", base)))
	require.NoError(t, repo.Create(ctx, newRepair("second", "KCA123A", base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newRepair("other", "KCB999B", base.Add(2*time.Hour))))

	got, err := repo.LatestByRegistration(ctx, "kca123a")
	require.NoError(t, err)
	assert.Equal(t, "second", got.ID)

	got, err = repo.LatestByRegistration(ctx, "KCA123A")
	require.NoError(t, err)
	assert.Equal(t, "second", got.ID)

	_, err = repo.LatestByRegistration(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrRepairNotFound)
}

func TestRepairRepositoryByStatus(t *testing.T) {
	repo := NewRepairRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRepair("a", "A1", base)))
	require.NoError(t, repo.Create(ctx, newRepair("b", "A2", base.Add(time.Minute))))
	require.NoError(t, repo.UpdateStatusAndNotes(ctx, "b", model.StatusCompleted, "done", base.Add(time.Hour)))

	submitted, err := repo.ByStatus(ctx, model.StatusSubmitted)
	require.NoError(t, err)
	require.Len(t, submitted, 1)
	assert.Equal(t, "a", submitted[0].ID)

	inGarage, err := repo.ByStatus(ctx, model.StatusInGarage)
	require.NoError(t, err)
	assert.NotNil(t, inGarage)
	assert.Empty(t, inGarage)
}

func TestRepairRepositoryUpdateStatusAndNotes(t *testing.T) {
	repo := NewRepairRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRepair("r1", "KDA", base)))

	updated := base.Add(time.Hour)
	require.NoError(t, repo.UpdateStatusAndNotes(ctx, "r1", model.StatusInProgress, "  pads worn ", updated))

	got, err := repo.ByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)
	assert.Equal(t, "  pads worn ", got.MechanicNotes, "notes are stored verbatim")
	assert.True(t, updated.Equal(got.UpdatedAt))
	assert.True(t, base.Equal(got.CreatedAt), "created_at never changes")

	err = repo.UpdateStatusAndNotes(ctx, "missing", model.StatusCompleted, "", updated)
	assert.ErrorIs(t, err, ErrRepairNotFound)
}

func TestRepairRepositoryDelete(t *testing.T) {
	repo := NewRepairRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRepair("r1", "KDA", base)))
	require.NoError(t, repo.Delete(ctx, "r1"))

	_, err := repo.ByID(ctx, "r1")
	assert.ErrorIs(t, err, ErrRepairNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "r1"), ErrRepairNotFound)
}

func TestClassifyPostgres(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"23505", ErrDuplicateRepair},
		{"23514", ErrConstraint},
		{"22001", ErrConstraint},
		{"08006", ErrStoreUnavailable},
		{"57P01", ErrStoreUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := classify(fmt.Errorf("exec: %w", &pgconn.PgError{Code: tt.code}))
			assert.ErrorIs(t, err, tt.want)

			var pgErr *pgconn.PgError
			assert.True(t, errors.As(err, &pgErr), "cause is kept")
		})
	}

	assert.Nil(t, classify(nil))
	assert.ErrorIs(t, classify(context.DeadlineExceeded), ErrStoreUnavailable)
}
