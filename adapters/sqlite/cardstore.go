package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/opsml/opsml/domain/card"
	"github.com/opsml/opsml/domain/semver"
	"github.com/opsml/opsml/ports"
)

// CardStore implements ports.CardStore with SQLite. One store serves
// all registries; the registry type selects the table.
type CardStore struct {
	db    *DB
	clock ports.Clock
}

// NewCardStore creates a new SQLite card store.
func NewCardStore(db *DB, clock ports.Clock) *CardStore {
	return &CardStore{db: db, clock: clock}
}

// Ensure interface compliance.
var _ ports.CardStore = (*CardStore)(nil)

// Register assigns the next version for the record's (name, team) pair
// and commits the record in one transaction. The transaction opens with
// an immediate write lock (see Open), so two concurrent registrations
// for the same pair cannot read the same current version.
func (s *CardStore) Register(ctx context.Context, rt card.RegistryType, rec card.Record, bump semver.BumpType) (string, error) {
	if rec.UID == "" {
		return "", fmt.Errorf("register card: uid is required")
	}

	table := rt.TableName()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("register card: begin: %w", err)
	}
	defer tx.Rollback()

	version := rec.Version
	if version == "" {
		current, err := latestVersion(ctx, tx, table, rec.Name, rec.Team)
		if err != nil {
			return "", fmt.Errorf("register card: read current version: %w", err)
		}
		version, err = semver.Next(current, bump)
		if err != nil {
			return "", fmt.Errorf("register card: %w", err)
		}
	} else if _, err := semver.Parse(version); err != nil {
		return "", fmt.Errorf("register card: %w", err)
	}
	major, minor, patch, err := semver.Parts(version)
	if err != nil {
		return "", fmt.Errorf("register card: %w", err)
	}

	tags, contents, err := encodeMutable(rec)
	if err != nil {
		return "", fmt.Errorf("register card: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock.Now()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO `+table+` (uid, name, team, version, major, minor, patch, user_email, tags, contents, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.UID, rec.Name, rec.Team, version, major, minor, patch, rec.UserEmail, tags, contents, createdAt.UnixMilli())
	if err != nil {
		return "", mapConstraintError(err, table)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("register card: commit: %w", err)
	}
	return version, nil
}

// NextVersion reports the version a registration would receive for the
// pair. Advisory only: nothing is reserved, so a concurrent
// registration may take the reported version first.
func (s *CardStore) NextVersion(ctx context.Context, rt card.RegistryType, name, team string, bump semver.BumpType) (string, error) {
	current, err := latestVersion(ctx, s.db.DB, rt.TableName(), name, team)
	if err != nil {
		return "", fmt.Errorf("next version: %w", err)
	}
	return semver.Next(current, bump)
}

// CheckUID reports whether a uid is already registered.
func (s *CardStore) CheckUID(ctx context.Context, rt card.RegistryType, uid string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM "+rt.TableName()+" WHERE uid = ?", uid).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check uid: %w", err)
	}
	return true, nil
}

// List returns records matching the filter, newest version first.
func (s *CardStore) List(ctx context.Context, rt card.RegistryType, f card.Filter) ([]card.Record, error) {
	query := `
		SELECT uid, name, team, version, COALESCE(user_email, ''),
		       COALESCE(tags, ''), COALESCE(contents, ''), created_at
		FROM ` + rt.TableName()

	var conds []string
	var args []any
	if f.UID != "" {
		conds = append(conds, "uid = ?")
		args = append(args, f.UID)
	}
	if f.Name != "" {
		conds = append(conds, "name = ?")
		args = append(args, f.Name)
	}
	if f.Team != "" {
		conds = append(conds, "team = ?")
		args = append(args, f.Team)
	}
	if f.Version != "" {
		conds = append(conds, "version = ?")
		args = append(args, f.Version)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY major DESC, minor DESC, patch DESC, created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var records []card.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list cards: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return records, nil
}

// Update rewrites the mutable fields of an existing record. Identity
// fields (uid, name, team, version) are never touched.
func (s *CardStore) Update(ctx context.Context, rt card.RegistryType, rec card.Record) error {
	if rec.UID == "" {
		return fmt.Errorf("update card: uid is required")
	}

	tags, contents, err := encodeMutable(rec)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE `+rt.TableName()+` SET user_email = ?, tags = ?, contents = ? WHERE uid = ?
	`, rec.UserEmail, tags, contents, rec.UID)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update card %s: %w", rec.UID, card.ErrNotFound)
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func latestVersion(ctx context.Context, q querier, table, name, team string) (string, error) {
	var version string
	err := q.QueryRowContext(ctx, `
		SELECT version FROM `+table+`
		WHERE name = ? AND team = ?
		ORDER BY major DESC, minor DESC, patch DESC LIMIT 1
	`, name, team).Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return version, nil
}

func encodeMutable(rec card.Record) (tags, contents string, err error) {
	if len(rec.Tags) > 0 {
		raw, err := json.Marshal(rec.Tags)
		if err != nil {
			return "", "", fmt.Errorf("encode tags: %w", err)
		}
		tags = string(raw)
	}
	if len(rec.Contents) > 0 {
		raw, err := json.Marshal(rec.Contents)
		if err != nil {
			return "", "", fmt.Errorf("encode contents: %w", err)
		}
		contents = string(raw)
	}
	return tags, contents, nil
}

func scanRecord(rows *sql.Rows) (card.Record, error) {
	var rec card.Record
	var tags, contents string
	var createdAt int64

	if err := rows.Scan(&rec.UID, &rec.Name, &rec.Team, &rec.Version,
		&rec.UserEmail, &tags, &contents, &createdAt); err != nil {
		return card.Record{}, err
	}

	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
			return card.Record{}, fmt.Errorf("decode tags for %s: %w", rec.UID, err)
		}
	}
	if contents != "" {
		if err := json.Unmarshal([]byte(contents), &rec.Contents); err != nil {
			return card.Record{}, fmt.Errorf("decode contents for %s: %w", rec.UID, err)
		}
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	return rec, nil
}

// mapConstraintError turns SQLite uniqueness violations into the
// registry's sentinel errors.
func mapConstraintError(err error, table string) error {
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		if strings.Contains(msg, table+".uid") {
			return fmt.Errorf("register card: %w", card.ErrDuplicateUID)
		}
		return fmt.Errorf("register card: %w", card.ErrDuplicateVersion)
	}
	return fmt.Errorf("register card: insert: %w", err)
}
