/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements the worktime and quota store interfaces using SQLite. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

INTERFACES IMPLEMENTED:
  worktime.Store: entries, change history, absences, work models,
                  adjustments, submission cutoffs
  quota.Store:    yearly quotas and change notifications

VERSIONED WRITES:
  Entries carry an optimistic concurrency token. UpdateEntry compiles to
  "UPDATE ... WHERE id = ? AND version = ?", so a stale writer affects
  zero rows and gets a StaleEntryError instead of silently overwriting a
  concurrent transition.

ATOMIC EDITS:
  ApplyChange writes the updated entry and its change record in one SQL
  transaction. Either both land or neither does; a failed write means
  the transition did not happen.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block and crash recovery improves.

USAGE:
  store, err := sqlite.New("./data/worktime.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - worktime/store.go: interface definitions
  - worktime/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/worktime-engine/quota"
	"github.com/warp/worktime-engine/worktime"
)

// Store implements the worktime and quota storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Entries (soft-deleted only, never physically removed)
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		category TEXT NOT NULL,
		hours TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		surcharge_percent INTEGER DEFAULT 0,
		description TEXT,
		reviewer_id TEXT,
		confirmed_at TEXT,
		confirmed_by TEXT,
		rejected_at TEXT,
		rejected_by TEXT,
		rejection_reason TEXT,
		late BOOLEAN DEFAULT FALSE,
		late_justification TEXT,
		is_deleted BOOLEAN DEFAULT FALSE,
		deleted_at TEXT,
		deleted_by TEXT,
		deletion_reason TEXT,
		deletion_acknowledged BOOLEAN DEFAULT FALSE,
		deletion_requested_at TEXT,
		deletion_requested_by TEXT,
		deletion_request_note TEXT,
		edit_pending_ack BOOLEAN DEFAULT FALSE,
		pending_change_id TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_by TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_user_date
		ON entries(user_id, date);
	CREATE INDEX IF NOT EXISTS idx_entries_reviewer
		ON entries(reviewer_id) WHERE reviewer_id IS NOT NULL AND reviewer_id != '';

	-- Change history (one row per edit of an existing entry)
	CREATE TABLE IF NOT EXISTS entry_changes (
		id TEXT PRIMARY KEY,
		entry_id TEXT NOT NULL,
		old_values_json TEXT NOT NULL,
		new_values_json TEXT NOT NULL,
		reason TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		response_note TEXT,
		created_at TEXT NOT NULL,
		responded_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_entry_changes_entry
		ON entry_changes(entry_id);

	-- Absences (date ranges)
	CREATE TABLE IF NOT EXISTS absences (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		from_date TEXT NOT NULL,
		to_date TEXT NOT NULL,
		category TEXT NOT NULL,
		note TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_absences_user
		ON absences(user_id);

	-- Work models (one row per user, weekday targets as JSON)
	CREATE TABLE IF NOT EXISTS work_models (
		user_id TEXT PRIMARY KEY,
		targets_json TEXT NOT NULL,
		default_start TEXT,
		employment_start TEXT
	);

	-- Manual balance adjustments (append-only)
	CREATE TABLE IF NOT EXISTS adjustments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		hours TEXT NOT NULL,
		reason TEXT NOT NULL,
		created_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_adjustments_user
		ON adjustments(user_id);

	-- Submission cutoffs (latest finalized day per user)
	CREATE TABLE IF NOT EXISTS submissions (
		user_id TEXT PRIMARY KEY,
		submitted_through TEXT NOT NULL
	);

	-- Yearly quotas (audit trail as JSON)
	CREATE TABLE IF NOT EXISTS quotas (
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		base_days TEXT NOT NULL,
		carryover_days TEXT NOT NULL,
		locked BOOLEAN DEFAULT FALSE,
		history_json TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, year)
	);

	-- Quota change notifications
	CREATE TABLE IF NOT EXISTS quota_notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		old_json TEXT NOT NULL,
		new_json TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		rejection_reason TEXT,
		created_by TEXT,
		created_at TEXT NOT NULL,
		responded_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_quota_notifications_user
		ON quota_notifications(user_id, status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENTRY STORE (worktime.EntryStore interface)
// =============================================================================

const entryColumns = `id, user_id, date, category, hours, start_time, end_time,
	surcharge_percent, description, reviewer_id,
	confirmed_at, confirmed_by, rejected_at, rejected_by, rejection_reason,
	late, late_justification,
	is_deleted, deleted_at, deleted_by, deletion_reason, deletion_acknowledged,
	deletion_requested_at, deletion_requested_by, deletion_request_note,
	edit_pending_ack, pending_change_id, version, created_by, created_at, updated_at`

func (s *Store) GetEntry(ctx context.Context, id worktime.EntryID) (*worktime.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, worktime.ErrEntryNotFound
	}
	return e, err
}

func (s *Store) PutEntry(ctx context.Context, e *worktime.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.Version = 1
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entryArgs(e)...)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

func (s *Store) UpdateEntry(ctx context.Context, e *worktime.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateEntry(ctx, s.db, e)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) updateEntry(ctx context.Context, db execer, e *worktime.Entry) error {
	res, err := db.ExecContext(ctx, `
		UPDATE entries SET
			date = ?, category = ?, hours = ?, start_time = ?, end_time = ?,
			surcharge_percent = ?, description = ?, reviewer_id = ?,
			confirmed_at = ?, confirmed_by = ?,
			rejected_at = ?, rejected_by = ?, rejection_reason = ?,
			late = ?, late_justification = ?,
			is_deleted = ?, deleted_at = ?, deleted_by = ?, deletion_reason = ?,
			deletion_acknowledged = ?,
			deletion_requested_at = ?, deletion_requested_by = ?, deletion_request_note = ?,
			edit_pending_ack = ?, pending_change_id = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`,
		e.Date.String(), e.Category, e.Hours.String(),
		nullString(e.StartTime), nullString(e.EndTime),
		e.SurchargePercent, e.Description, nullString(string(e.ReviewerID)),
		nullTime(e.ConfirmedAt), nullString(string(e.ConfirmedBy)),
		nullTime(e.RejectedAt), nullString(string(e.RejectedBy)), nullString(e.RejectionReason),
		e.Late, nullString(e.LateJustification),
		e.Deleted, nullTime(e.DeletedAt), nullString(string(e.DeletedBy)), nullString(e.DeletionReason),
		e.DeletionAcknowledged,
		nullTime(e.DeletionRequestedAt), nullString(string(e.DeletionRequestedBy)), nullString(e.DeletionRequestNote),
		e.EditPendingAck, nullString(string(e.PendingChangeID)),
		e.UpdatedAt.UTC().Format(time.RFC3339),
		e.ID, e.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var found int64
		err := db.QueryRowContext(ctx,
			"SELECT version FROM entries WHERE id = ?", e.ID).Scan(&found)
		if err == sql.ErrNoRows {
			return worktime.ErrEntryNotFound
		}
		if err != nil {
			return err
		}
		return &worktime.StaleEntryError{
			EntryID:   e.ID,
			Expected:  e.Version,
			Found:     found,
			Operation: "update",
		}
	}
	e.Version++
	return nil
}

func (s *Store) ListEntries(ctx context.Context, user worktime.UserID, from, to worktime.Date) ([]*worktime.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, created_at ASC
	`, user, from.String(), to.String())
}

func (s *Store) ListByReviewer(ctx context.Context, reviewer worktime.UserID) ([]*worktime.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE reviewer_id = ? AND user_id != ?
		ORDER BY date ASC, created_at ASC
	`, reviewer, reviewer)
}

func (s *Store) ListNotifications(ctx context.Context, user worktime.UserID) ([]*worktime.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE user_id = ?
		  AND (deletion_requested_at IS NOT NULL
		       OR (is_deleted AND NOT deletion_acknowledged)
		       OR edit_pending_ack)
		ORDER BY date ASC, created_at ASC
	`, user)
}

func (s *Store) SubmittedThrough(ctx context.Context, user worktime.UserID) (worktime.Date, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT submitted_through FROM submissions WHERE user_id = ?", user).Scan(&raw)
	if err == sql.ErrNoRows {
		return worktime.Date{}, false, nil
	}
	if err != nil {
		return worktime.Date{}, false, err
	}
	d, err := worktime.ParseDate(raw)
	if err != nil {
		return worktime.Date{}, false, err
	}
	return d, true, nil
}

func (s *Store) SetSubmittedThrough(ctx context.Context, user worktime.UserID, date worktime.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (user_id, submitted_through) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET submitted_through = excluded.submitted_through
	`, user, date.String())
	return err
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]*worktime.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []*worktime.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*worktime.Entry, error) {
	var (
		e                   worktime.Entry
		date                string
		hours               string
		startTime, endTime  sql.NullString
		description         sql.NullString
		reviewerID          sql.NullString
		confirmedAt         sql.NullString
		confirmedBy         sql.NullString
		rejectedAt          sql.NullString
		rejectedBy          sql.NullString
		rejectionReason     sql.NullString
		lateJustification   sql.NullString
		deletedAt           sql.NullString
		deletedBy           sql.NullString
		deletionReason      sql.NullString
		deletionRequestedAt sql.NullString
		deletionRequestedBy sql.NullString
		deletionRequestNote sql.NullString
		pendingChangeID     sql.NullString
		createdBy           sql.NullString
		createdAt           string
		updatedAt           string
	)

	err := row.Scan(
		&e.ID, &e.UserID, &date, &e.Category, &hours, &startTime, &endTime,
		&e.SurchargePercent, &description, &reviewerID,
		&confirmedAt, &confirmedBy, &rejectedAt, &rejectedBy, &rejectionReason,
		&e.Late, &lateJustification,
		&e.Deleted, &deletedAt, &deletedBy, &deletionReason, &e.DeletionAcknowledged,
		&deletionRequestedAt, &deletionRequestedBy, &deletionRequestNote,
		&e.EditPendingAck, &pendingChangeID, &e.Version, &createdBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Date, _ = worktime.ParseDate(date)
	e.Hours = parseDecimal(hours)
	e.StartTime = startTime.String
	e.EndTime = endTime.String
	e.Description = description.String
	e.ReviewerID = worktime.UserID(reviewerID.String)
	e.ConfirmedAt = parseTimePtr(confirmedAt)
	e.ConfirmedBy = worktime.UserID(confirmedBy.String)
	e.RejectedAt = parseTimePtr(rejectedAt)
	e.RejectedBy = worktime.UserID(rejectedBy.String)
	e.RejectionReason = rejectionReason.String
	e.LateJustification = lateJustification.String
	e.DeletedAt = parseTimePtr(deletedAt)
	e.DeletedBy = worktime.UserID(deletedBy.String)
	e.DeletionReason = deletionReason.String
	e.DeletionRequestedAt = parseTimePtr(deletionRequestedAt)
	e.DeletionRequestedBy = worktime.UserID(deletionRequestedBy.String)
	e.DeletionRequestNote = deletionRequestNote.String
	e.PendingChangeID = worktime.ChangeID(pendingChangeID.String)
	e.CreatedBy = worktime.UserID(createdBy.String)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}

func entryArgs(e *worktime.Entry) []any {
	return []any{
		e.ID, e.UserID, e.Date.String(), e.Category, e.Hours.String(),
		nullString(e.StartTime), nullString(e.EndTime),
		e.SurchargePercent, e.Description, nullString(string(e.ReviewerID)),
		nullTime(e.ConfirmedAt), nullString(string(e.ConfirmedBy)),
		nullTime(e.RejectedAt), nullString(string(e.RejectedBy)), nullString(e.RejectionReason),
		e.Late, nullString(e.LateJustification),
		e.Deleted, nullTime(e.DeletedAt), nullString(string(e.DeletedBy)), nullString(e.DeletionReason),
		e.DeletionAcknowledged,
		nullTime(e.DeletionRequestedAt), nullString(string(e.DeletionRequestedBy)), nullString(e.DeletionRequestNote),
		e.EditPendingAck, nullString(string(e.PendingChangeID)),
		e.Version, nullString(string(e.CreatedBy)),
		e.CreatedAt.UTC().Format(time.RFC3339),
		e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// =============================================================================
// HISTORY STORE (worktime.HistoryStore interface)
// =============================================================================

func (s *Store) GetChange(ctx context.Context, id worktime.ChangeID) (*worktime.ChangeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, entry_id, old_values_json, new_values_json, reason, actor_id,
		       status, response_note, created_at, responded_at
		FROM entry_changes WHERE id = ?
	`, id)
	ch, err := scanChange(row)
	if err == sql.ErrNoRows {
		return nil, worktime.ErrChangeNotFound
	}
	return ch, err
}

func (s *Store) ListChanges(ctx context.Context, entry worktime.EntryID) ([]*worktime.ChangeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_id, old_values_json, new_values_json, reason, actor_id,
		       status, response_note, created_at, responded_at
		FROM entry_changes WHERE entry_id = ?
		ORDER BY created_at ASC
	`, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer rows.Close()

	var changes []*worktime.ChangeRecord
	for rows.Next() {
		ch, err := scanChange(rows)
		if err != nil {
			return nil, err
		}
		changes = append(changes, ch)
	}
	return changes, rows.Err()
}

func (s *Store) ApplyChange(ctx context.Context, e *worktime.Entry, ch *worktime.ChangeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.updateEntry(ctx, tx, e); err != nil {
		return err
	}

	oldJSON, _ := json.Marshal(marshalValues(ch.OldValues))
	newJSON, _ := json.Marshal(marshalValues(ch.NewValues))
	_, err = tx.ExecContext(ctx, `
		INSERT INTO entry_changes
			(id, entry_id, old_values_json, new_values_json, reason, actor_id,
			 status, response_note, created_at, responded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			response_note = excluded.response_note,
			responded_at = excluded.responded_at
	`,
		ch.ID, ch.EntryID, string(oldJSON), string(newJSON), ch.Reason, ch.ActorID,
		ch.Status, nullString(ch.ResponseNote),
		ch.CreatedAt.UTC().Format(time.RFC3339), nullTime(ch.RespondedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to write change record: %w", err)
	}

	return tx.Commit()
}

// valuesJSON is the persisted shape of an EntryValues snapshot.
type valuesJSON struct {
	Category         string `json:"category"`
	Hours            string `json:"hours"`
	StartTime        string `json:"start_time,omitempty"`
	EndTime          string `json:"end_time,omitempty"`
	SurchargePercent int    `json:"surcharge_percent,omitempty"`
	Description      string `json:"description,omitempty"`
}

func marshalValues(v worktime.EntryValues) valuesJSON {
	return valuesJSON{
		Category:         string(v.Category),
		Hours:            v.Hours.String(),
		StartTime:        v.StartTime,
		EndTime:          v.EndTime,
		SurchargePercent: v.SurchargePercent,
		Description:      v.Description,
	}
}

func unmarshalValues(raw string) worktime.EntryValues {
	var vj valuesJSON
	json.Unmarshal([]byte(raw), &vj)
	return worktime.EntryValues{
		Category:         worktime.Category(vj.Category),
		Hours:            parseDecimal(vj.Hours),
		StartTime:        vj.StartTime,
		EndTime:          vj.EndTime,
		SurchargePercent: vj.SurchargePercent,
		Description:      vj.Description,
	}
}

func scanChange(row rowScanner) (*worktime.ChangeRecord, error) {
	var (
		ch           worktime.ChangeRecord
		oldJSON      string
		newJSON      string
		responseNote sql.NullString
		createdAt    string
		respondedAt  sql.NullString
	)
	err := row.Scan(&ch.ID, &ch.EntryID, &oldJSON, &newJSON, &ch.Reason,
		&ch.ActorID, &ch.Status, &responseNote, &createdAt, &respondedAt)
	if err != nil {
		return nil, err
	}
	ch.OldValues = unmarshalValues(oldJSON)
	ch.NewValues = unmarshalValues(newJSON)
	ch.ResponseNote = responseNote.String
	ch.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	ch.RespondedAt = parseTimePtr(respondedAt)
	return &ch, nil
}

// =============================================================================
// ABSENCE / WORK MODEL / ADJUSTMENT STORES
// =============================================================================

func (s *Store) ListAbsences(ctx context.Context, user worktime.UserID) ([]*worktime.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, from_date, to_date, category, note
		FROM absences WHERE user_id = ?
		ORDER BY from_date ASC
	`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}
	defer rows.Close()

	var absences []*worktime.Absence
	for rows.Next() {
		var (
			a        worktime.Absence
			from, to string
			note     sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.UserID, &from, &to, &a.Category, &note); err != nil {
			return nil, err
		}
		a.From, _ = worktime.ParseDate(from)
		a.To, _ = worktime.ParseDate(to)
		a.Note = note.String
		absences = append(absences, &a)
	}
	return absences, rows.Err()
}

func (s *Store) PutAbsence(ctx context.Context, a *worktime.Absence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO absences (id, user_id, from_date, to_date, category, note)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.UserID, a.From.String(), a.To.String(), a.Category, nullString(a.Note))
	return err
}

func (s *Store) GetWorkModel(ctx context.Context, user worktime.UserID) (*worktime.WorkModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		targetsJSON     string
		defaultStart    sql.NullString
		employmentStart sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT targets_json, default_start, employment_start
		FROM work_models WHERE user_id = ?
	`, user).Scan(&targetsJSON, &defaultStart, &employmentStart)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	json.Unmarshal([]byte(targetsJSON), &raw)
	targets := make(map[time.Weekday]decimal.Decimal, len(raw))
	for wd, v := range raw {
		var n int
		fmt.Sscanf(wd, "%d", &n)
		targets[time.Weekday(n)] = parseDecimal(v)
	}

	m := &worktime.WorkModel{
		UserID:       user,
		Targets:      targets,
		DefaultStart: defaultStart.String,
	}
	if employmentStart.Valid {
		m.EmploymentStart, _ = worktime.ParseDate(employmentStart.String)
	}
	return m, nil
}

func (s *Store) PutWorkModel(ctx context.Context, m *worktime.WorkModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := make(map[string]string, len(m.Targets))
	for wd, v := range m.Targets {
		raw[fmt.Sprintf("%d", int(wd))] = v.String()
	}
	targetsJSON, _ := json.Marshal(raw)

	var employmentStart any
	if !m.EmploymentStart.IsZero() {
		employmentStart = m.EmploymentStart.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO work_models (user_id, targets_json, default_start, employment_start)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			targets_json = excluded.targets_json,
			default_start = excluded.default_start,
			employment_start = excluded.employment_start
	`, m.UserID, string(targetsJSON), nullString(m.DefaultStart), employmentStart)
	return err
}

func (s *Store) ListAdjustments(ctx context.Context, user worktime.UserID) ([]*worktime.Adjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, hours, reason, created_by, created_at
		FROM adjustments WHERE user_id = ?
		ORDER BY created_at ASC
	`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []*worktime.Adjustment
	for rows.Next() {
		var (
			a         worktime.Adjustment
			hours     string
			createdBy sql.NullString
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &hours, &a.Reason, &createdBy, &createdAt); err != nil {
			return nil, err
		}
		a.Hours = parseDecimal(hours)
		a.CreatedBy = worktime.UserID(createdBy.String)
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		adjustments = append(adjustments, &a)
	}
	return adjustments, rows.Err()
}

func (s *Store) PutAdjustment(ctx context.Context, a *worktime.Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO adjustments (id, user_id, hours, reason, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.UserID, a.Hours.String(), a.Reason,
		nullString(string(a.CreatedBy)), a.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// =============================================================================
// QUOTA STORE (quota.Store interface)
// =============================================================================

func (s *Store) GetQuota(ctx context.Context, user worktime.UserID, year int) (*quota.YearlyQuota, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		base, carryover string
		locked          bool
		historyJSON     sql.NullString
		updatedAt       string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT base_days, carryover_days, locked, history_json, updated_at
		FROM quotas WHERE user_id = ? AND year = ?
	`, user, year).Scan(&base, &carryover, &locked, &historyJSON, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	q := &quota.YearlyQuota{
		UserID:        user,
		Year:          year,
		BaseDays:      parseDecimal(base),
		CarryoverDays: parseDecimal(carryover),
		Locked:        locked,
	}
	q.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if historyJSON.Valid && historyJSON.String != "" {
		q.History = unmarshalRevisions(historyJSON.String)
	}
	return q, nil
}

func (s *Store) PutQuota(ctx context.Context, q *quota.YearlyQuota) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	historyJSON := marshalRevisions(q.History)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quotas (user_id, year, base_days, carryover_days, locked, history_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, year) DO UPDATE SET
			base_days = excluded.base_days,
			carryover_days = excluded.carryover_days,
			locked = excluded.locked,
			history_json = excluded.history_json,
			updated_at = excluded.updated_at
	`, q.UserID, q.Year, q.BaseDays.String(), q.CarryoverDays.String(),
		q.Locked, historyJSON, q.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}

func (s *Store) GetNotification(ctx context.Context, id quota.NotificationID) (*quota.ChangeNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, year, old_json, new_json, status, rejection_reason,
		       created_by, created_at, responded_at
		FROM quota_notifications WHERE id = ?
	`, id)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, quota.ErrNotificationNotFound
	}
	return n, err
}

func (s *Store) PutNotification(ctx context.Context, n *quota.ChangeNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldJSON := marshalSnapshot(n.Old)
	newJSON := marshalSnapshot(n.New)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quota_notifications
			(id, user_id, year, old_json, new_json, status, rejection_reason,
			 created_by, created_at, responded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, n.Year, oldJSON, newJSON, n.Status,
		nullString(n.RejectionReason), nullString(string(n.CreatedBy)),
		n.CreatedAt.UTC().Format(time.RFC3339), nullTime(n.RespondedAt))
	return err
}

func (s *Store) UpdateNotification(ctx context.Context, n *quota.ChangeNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE quota_notifications SET
			status = ?, rejection_reason = ?, responded_at = ?
		WHERE id = ?
	`, n.Status, nullString(n.RejectionReason), nullTime(n.RespondedAt), n.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return quota.ErrNotificationNotFound
	}
	return nil
}

func (s *Store) OpenNotifications(ctx context.Context, user worktime.UserID) ([]*quota.ChangeNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, year, old_json, new_json, status, rejection_reason,
		       created_by, created_at, responded_at
		FROM quota_notifications
		WHERE user_id = ? AND status = 'pending'
		ORDER BY created_at ASC
	`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*quota.ChangeNotification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

type snapshotJSON struct {
	BaseDays      string `json:"base_days"`
	CarryoverDays string `json:"carryover_days"`
}

func marshalSnapshot(sn quota.Snapshot) string {
	b, _ := json.Marshal(snapshotJSON{
		BaseDays:      sn.BaseDays.String(),
		CarryoverDays: sn.CarryoverDays.String(),
	})
	return string(b)
}

func unmarshalSnapshot(raw string) quota.Snapshot {
	var sj snapshotJSON
	json.Unmarshal([]byte(raw), &sj)
	return quota.Snapshot{
		BaseDays:      parseDecimal(sj.BaseDays),
		CarryoverDays: parseDecimal(sj.CarryoverDays),
	}
}

type revisionJSON struct {
	Values    snapshotJSON `json:"values"`
	ChangedBy string       `json:"changed_by"`
	ChangedAt string       `json:"changed_at"`
}

func marshalRevisions(revs []quota.Revision) string {
	out := make([]revisionJSON, 0, len(revs))
	for _, r := range revs {
		out = append(out, revisionJSON{
			Values: snapshotJSON{
				BaseDays:      r.Values.BaseDays.String(),
				CarryoverDays: r.Values.CarryoverDays.String(),
			},
			ChangedBy: string(r.ChangedBy),
			ChangedAt: r.ChangedAt.UTC().Format(time.RFC3339),
		})
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func unmarshalRevisions(raw string) []quota.Revision {
	var in []revisionJSON
	json.Unmarshal([]byte(raw), &in)
	revs := make([]quota.Revision, 0, len(in))
	for _, rj := range in {
		at, _ := time.Parse(time.RFC3339, rj.ChangedAt)
		revs = append(revs, quota.Revision{
			Values: quota.Snapshot{
				BaseDays:      parseDecimal(rj.Values.BaseDays),
				CarryoverDays: parseDecimal(rj.Values.CarryoverDays),
			},
			ChangedBy: worktime.UserID(rj.ChangedBy),
			ChangedAt: at,
		})
	}
	return revs
}

func scanNotification(row rowScanner) (*quota.ChangeNotification, error) {
	var (
		n               quota.ChangeNotification
		oldJSON         string
		newJSON         string
		rejectionReason sql.NullString
		createdBy       sql.NullString
		createdAt       string
		respondedAt     sql.NullString
	)
	err := row.Scan(&n.ID, &n.UserID, &n.Year, &oldJSON, &newJSON, &n.Status,
		&rejectionReason, &createdBy, &createdAt, &respondedAt)
	if err != nil {
		return nil, err
	}
	n.Old = unmarshalSnapshot(oldJSON)
	n.New = unmarshalSnapshot(newJSON)
	n.RejectionReason = rejectionReason.String
	n.CreatedBy = worktime.UserID(createdBy.String)
	n.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	n.RespondedAt = parseTimePtr(respondedAt)
	return &n, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
