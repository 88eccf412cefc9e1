package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"github.com/jmoiron/sqlx"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/myrjola/dfircase/internal/sqlite"
	"log/slog"
	"time"
)

// ErrNotFound is returned when no case has the requested id.
var ErrNotFound = errors.NewSentinel("case not found")

// CaseRepository persists whole case documents keyed by their internal id.
//
// The indexed columns mirror fields of the document for listing and filtering. The created_at column is the source
// of truth for the creation time because the schema keeps it immutable.
type CaseRepository struct {
	reader *sqlx.DB
	writer *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewCaseRepository(dbs *sqlite.Database, logger *slog.Logger) *CaseRepository {
	return &CaseRepository{
		reader: sqlx.NewDb(dbs.ReadOnly, "sqlite3"),
		writer: sqlx.NewDb(dbs.ReadWrite, "sqlite3"),
		logger: logger.With("source", "CaseRepository"),
		now:    time.Now,
	}
}

type caseRow struct {
	ID          string `db:"id"`
	CaseID      string `db:"case_id"`
	AnalystName string `db:"analyst_name"`
	Status      string `db:"status"`
	Scope       string `db:"scope"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
	Document    string `db:"document"`
}

func (r *CaseRepository) toRow(c *models.Case) (caseRow, error) {
	document, err := json.Marshal(c)
	if err != nil {
		return caseRow{}, errors.Wrap(err, "encode case document", slog.String("id", c.ID))
	}
	return caseRow{
		ID:          c.ID,
		CaseID:      c.CaseID,
		AnalystName: c.AnalystName,
		Status:      string(c.Status),
		Scope:       c.Scope,
		CreatedAt:   c.CreatedAt.UnixMilli(),
		UpdatedAt:   r.now().UnixMilli(),
		Document:    string(document),
	}, nil
}

func (row caseRow) toCase() (models.Case, error) {
	var c models.Case
	if err := json.Unmarshal([]byte(row.Document), &c); err != nil {
		return models.Case{}, errors.Wrap(err, "decode case document", slog.String("id", row.ID))
	}
	c.CreatedAt = time.UnixMilli(row.CreatedAt).UTC()
	return c, nil
}

const upsertCase = `INSERT INTO cases (id, case_id, analyst_name, status, scope, created_at, updated_at, document)
VALUES (:id, :case_id, :analyst_name, :status, :scope, :created_at, :updated_at, :document)
ON CONFLICT (id) DO UPDATE SET case_id      = excluded.case_id,
                               analyst_name = excluded.analyst_name,
                               status       = excluded.status,
                               scope        = excluded.scope,
                               updated_at   = excluded.updated_at,
                               document     = excluded.document`

// Create inserts a new case. It fails if a case with the same id exists.
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	row, err := r.toRow(c)
	if err != nil {
		return err
	}
	stmt := `INSERT INTO cases (id, case_id, analyst_name, status, scope, created_at, updated_at, document)
VALUES (:id, :case_id, :analyst_name, :status, :scope, :created_at, :updated_at, :document)`
	if _, err = r.writer.NamedExecContext(ctx, stmt, row); err != nil {
		return errors.Wrap(err, "insert case", slog.String("id", c.ID))
	}
	return nil
}

// Get returns the case with id or ErrNotFound.
func (r *CaseRepository) Get(ctx context.Context, id string) (models.Case, error) {
	var row caseRow
	stmt := `SELECT id, case_id, analyst_name, status, scope, created_at, updated_at, document FROM cases WHERE id = ?`
	if err := r.reader.GetContext(ctx, &row, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Case{}, errors.Wrap(ErrNotFound, "get case", slog.String("id", id))
		}
		return models.Case{}, errors.Wrap(err, "get case", slog.String("id", id))
	}
	return row.toCase()
}

// List returns every case, newest first.
func (r *CaseRepository) List(ctx context.Context) ([]models.Case, error) {
	var rows []caseRow
	stmt := `SELECT id, case_id, analyst_name, status, scope, created_at, updated_at, document
FROM cases
ORDER BY created_at DESC, id`
	if err := r.reader.SelectContext(ctx, &rows, stmt); err != nil {
		return nil, errors.Wrap(err, "select cases")
	}
	cases := make([]models.Case, 0, len(rows))
	for _, row := range rows {
		c, err := row.toCase()
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// Count returns the number of stored cases.
func (r *CaseRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.reader.GetContext(ctx, &count, `SELECT COUNT(*) FROM cases`); err != nil {
		return 0, errors.Wrap(err, "count cases")
	}
	return count, nil
}

// Put writes the whole case, inserting it when missing. Last write wins.
func (r *CaseRepository) Put(ctx context.Context, c *models.Case) error {
	row, err := r.toRow(c)
	if err != nil {
		return err
	}
	if _, err = r.writer.NamedExecContext(ctx, upsertCase, row); err != nil {
		return errors.Wrap(err, "upsert case", slog.String("id", c.ID))
	}
	return nil
}

// PutAll writes all cases in one transaction.
func (r *CaseRepository) PutAll(ctx context.Context, cases []models.Case) (err error) {
	var tx *sqlx.Tx
	if tx, err = r.writer.BeginTxx(ctx, nil); err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = errors.Join(err, errors.Wrap(rollbackErr, "rollback"))
			}
		}
	}()
	for i := range cases {
		var row caseRow
		if row, err = r.toRow(&cases[i]); err != nil {
			return err
		}
		if _, err = tx.NamedExecContext(ctx, upsertCase, row); err != nil {
			return errors.Wrap(err, "upsert case", slog.String("id", cases[i].ID))
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	return nil
}

// Mutate applies fn to the stored case with id inside a write transaction.
//
// The case is written back whole only when fn reports a change. The returned bool tells whether it was written.
// A missing case returns ErrNotFound.
func (r *CaseRepository) Mutate(
	ctx context.Context,
	id string,
	fn func(c *models.Case) bool,
) (_ models.Case, _ bool, err error) {
	var tx *sqlx.Tx
	if tx, err = r.writer.BeginTxx(ctx, nil); err != nil {
		return models.Case{}, false, errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, errors.Wrap(rollbackErr, "rollback"))
		}
	}()

	var row caseRow
	stmt := `SELECT id, case_id, analyst_name, status, scope, created_at, updated_at, document FROM cases WHERE id = ?`
	if err = tx.GetContext(ctx, &row, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Case{}, false, errors.Wrap(ErrNotFound, "mutate case", slog.String("id", id))
		}
		return models.Case{}, false, errors.Wrap(err, "read case", slog.String("id", id))
	}
	var c models.Case
	if c, err = row.toCase(); err != nil {
		return models.Case{}, false, err
	}

	if !fn(&c) {
		return c, false, nil
	}

	if row, err = r.toRow(&c); err != nil {
		return models.Case{}, false, err
	}
	if _, err = tx.NamedExecContext(ctx, upsertCase, row); err != nil {
		return models.Case{}, false, errors.Wrap(err, "write case", slog.String("id", id))
	}
	if err = tx.Commit(); err != nil {
		return models.Case{}, false, errors.Wrap(err, "commit")
	}
	return c, true, nil
}
