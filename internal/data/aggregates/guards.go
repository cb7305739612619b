package aggregates

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/platform/dbctx"
)

var columnPattern = regexp.MustCompile(`^[a-z_]+$`)

// CASGuard provides conditional-update helpers. Each update is a single
// statement whose WHERE clause re-checks the invariant, so a concurrent
// writer that already moved the row makes the update affect zero rows.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("missing db transaction context")
}

func checkTarget(table, column string, id uuid.UUID) error {
	if strings.TrimSpace(table) == "" || id == uuid.Nil {
		return ValidationError("table and id are required for a conditional update")
	}
	if !columnPattern.MatchString(column) {
		return ValidationError("invalid guard column " + column)
	}
	return nil
}

// UpdateIfMatch updates a row only when id matches and column = expected.
func (g CASGuard) UpdateIfMatch(dbc dbctx.Context, table string, id uuid.UUID, column string, expected any, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	if err := checkTarget(table, column, id); err != nil {
		return false, err
	}
	res := db.Table(table).
		Where("id = ? AND "+column+" = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateIfNull updates a row only while column is still NULL.
func (g CASGuard) UpdateIfNull(dbc dbctx.Context, table string, id uuid.UUID, column string, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	if err := checkTarget(table, column, id); err != nil {
		return false, err
	}
	res := db.Table(table).
		Where("id = ? AND "+column+" IS NULL", id).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateByVersion is UpdateIfMatch over an integer version column.
func (g CASGuard) UpdateByVersion(dbc dbctx.Context, table string, id uuid.UUID, column string, expectedVersion int, updates map[string]any) (bool, error) {
	if expectedVersion < 0 {
		return false, ValidationError("expectedVersion must be >= 0")
	}
	return g.UpdateIfMatch(dbc, table, id, column, expectedVersion, updates)
}

// RequireCASSuccess converts a failed conditional update into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}
