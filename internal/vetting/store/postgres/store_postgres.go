// Package postgres persists applications and their audit trail in
// PostgreSQL. All writes honor a transaction carried in the context, so the
// status update and its audit entry from one transition commit together.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"membergate/internal/vetting"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
	txcontext "membergate/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

// Migrate applies the idempotent schema. Dev and test environments call it
// on boot; production schema changes ship separately.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply vetting schema: %w", err)
	}
	return nil
}

// PostgresStore implements vetting.Store on the vetting tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const applicationColumns = `
	id, application_number, status_token, user_id, email, preferred_name,
	status, admin_notes, decision_made_at, interview_at, interview_location,
	submitted_at, updated_at
`

func (s *PostgresStore) FindByID(ctx context.Context, appID id.ApplicationID) (*vetting.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM vetting_applications WHERE id = $1`
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, appID.String()))
}

func (s *PostgresStore) FindByUserID(ctx context.Context, userID id.UserID) (*vetting.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM vetting_applications
		WHERE user_id = $1
		ORDER BY submitted_at DESC
		LIMIT 1
	`
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, userID.String()))
}

func (s *PostgresStore) FindByToken(ctx context.Context, token string) (*vetting.Application, error) {
	if token == "" {
		return nil, vetting.ErrNotFound
	}
	query := `SELECT ` + applicationColumns + ` FROM vetting_applications WHERE status_token = $1`
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, token))
}

func (s *PostgresStore) Create(ctx context.Context, app *vetting.Application) error {
	query := `
		INSERT INTO vetting_applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		app.ID.String(), app.ApplicationNumber, app.StatusToken,
		nullableUserID(app.UserID), app.Email, app.PreferredName,
		string(app.Status), app.AdminNotes,
		nullableTime(app.DecisionMadeAt), nullableTime(app.InterviewAt),
		app.InterviewLocation, app.SubmittedAt, app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// Update guards the write with the status the caller read. A racing
// transition that committed first changes the status, this statement then
// matches zero rows, and the loser gets ErrModifiedConcurrently instead of
// overwriting.
func (s *PostgresStore) Update(ctx context.Context, app *vetting.Application, expectedStatus vetting.Status) error {
	query := `
		UPDATE vetting_applications
		SET user_id = $2, status = $3, admin_notes = $4, decision_made_at = $5,
		    interview_at = $6, interview_location = $7, updated_at = $8
		WHERE id = $1 AND status = $9
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		app.ID.String(), nullableUserID(app.UserID), string(app.Status),
		app.AdminNotes, nullableTime(app.DecisionMadeAt),
		nullableTime(app.InterviewAt), app.InterviewLocation, app.UpdatedAt,
		string(expectedStatus))
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if affected == 0 {
		if _, err := s.FindByID(ctx, app.ID); err != nil {
			return err
		}
		return vetting.ErrModifiedConcurrently
	}
	return nil
}

func (s *PostgresStore) AppendAudit(ctx context.Context, entry *vetting.AuditLog) error {
	query := `
		INSERT INTO vetting_audit_log
			(application_id, action, old_value, new_value, performed_by, performed_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		entry.ApplicationID.String(), entry.Action, entry.OldValue,
		entry.NewValue, entry.PerformedBy.String(), entry.PerformedAt,
		entry.Notes).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAudit(ctx context.Context, appID id.ApplicationID) ([]vetting.AuditLog, error) {
	query := `
		SELECT id, application_id, action, old_value, new_value, performed_by, performed_at, notes
		FROM vetting_audit_log
		WHERE application_id = $1
		ORDER BY id ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, appID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []vetting.AuditLog
	for rows.Next() {
		var (
			e      vetting.AuditLog
			rawApp string
			rawBy  string
		)
		if err := rows.Scan(&e.ID, &rawApp, &e.Action, &e.OldValue,
			&e.NewValue, &rawBy, &e.PerformedAt, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		appParsed, err := id.ParseApplicationID(rawApp)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt audit application id")
		}
		byParsed, err := id.ParseUserID(rawBy)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt audit actor id")
		}
		e.ApplicationID = appParsed
		e.PerformedBy = byParsed
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (*vetting.Application, error) {
	var (
		app       vetting.Application
		rawID     string
		rawUser   sql.NullString
		rawStatus string
		decided   sql.NullTime
		interview sql.NullTime
	)
	err := row.Scan(&rawID, &app.ApplicationNumber, &app.StatusToken,
		&rawUser, &app.Email, &app.PreferredName, &rawStatus,
		&app.AdminNotes, &decided, &interview, &app.InterviewLocation,
		&app.SubmittedAt, &app.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vetting.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}

	parsedID, err := id.ParseApplicationID(rawID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt application id")
	}
	app.ID = parsedID

	status, err := vetting.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	app.Status = status

	if rawUser.Valid {
		parsedUser, err := id.ParseUserID(rawUser.String)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt application user id")
		}
		app.UserID = &parsedUser
	}
	if decided.Valid {
		t := decided.Time
		app.DecisionMadeAt = &t
	}
	if interview.Valid {
		t := interview.Time
		app.InterviewAt = &t
	}
	return &app, nil
}

func nullableUserID(userID *id.UserID) sql.NullString {
	if userID == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: userID.String(), Valid: true}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// defaultTxTimeout bounds a vetting unit of work when the caller set no
// deadline of its own.
const defaultTxTimeout = 5 * time.Second

// PostgresTx runs a unit of work inside a database transaction threaded
// through the context, so every store touched by the callback shares it.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return txcontext.Run(ctx, t.db, fn)
}
