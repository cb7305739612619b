package projection

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/aaos-backend/internal/domain"
)

// ReadDB is the only storage capability a contract receives. It has no
// write methods, and the implementation keeps its *gorm.DB unexported.
type ReadDB interface {
	// First loads the first matching row into dest and reports whether one existed.
	First(ctx context.Context, src Source, dest any, q Query) (bool, error)
	Find(ctx context.Context, src Source, dest any, q Query) error
	Count(ctx context.Context, src Source, q Query) (int64, error)
	Aggregate(ctx context.Context, src Source, column string, q Query) (AggregateResult, error)
}

type Op string

const (
	OpEq      Op = "eq"
	OpNe      Op = "ne"
	OpGt      Op = "gt"
	OpGte     Op = "gte"
	OpLt      Op = "lt"
	OpLte     Op = "lte"
	OpIn      Op = "in"
	OpIsNull  Op = "is_null"
	OpNotNull Op = "not_null"
)

type Filter struct {
	Column string
	Op     Op
	Value  any
}

type Order struct {
	Column string
	Desc   bool
}

type Query struct {
	Filters []Filter
	Order   []Order
	Limit   int
}

func Eq(column string, value any) Filter { return Filter{Column: column, Op: OpEq, Value: value} }

func In(column string, values ...any) Filter { return Filter{Column: column, Op: OpIn, Value: values} }

func IsNull(column string) Filter { return Filter{Column: column, Op: OpIsNull} }

// Within adds inclusive created_at bounds when tr is set.
func (q Query) Within(tr *TimeRange) Query {
	if tr == nil {
		return q
	}
	if tr.From != nil {
		q.Filters = append(q.Filters, Filter{Column: "created_at", Op: OpGte, Value: tr.From.UTC()})
	}
	if tr.To != nil {
		q.Filters = append(q.Filters, Filter{Column: "created_at", Op: OpLte, Value: tr.To.UTC()})
	}
	return q
}

func Ascending(columns ...string) []Order {
	out := make([]Order, 0, len(columns))
	for _, c := range columns {
		out = append(out, Order{Column: c})
	}
	return out
}

type AggregateResult struct {
	Count int64    `json:"count"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Avg   *float64 `json:"avg"`
	Sum   *float64 `json:"sum"`
}

var sourceTables = map[Source]string{
	SourceUser:                 types.User{}.TableName(),
	SourceSession:              types.Session{}.TableName(),
	SourceUserContext:          types.UserContext{}.TableName(),
	SourceModelSet:             types.ModelSet{}.TableName(),
	SourceIdentityModelVersion: types.IdentityModelVersion{}.TableName(),
	SourceConfidenceState:      types.ConfidenceState{}.TableName(),
	SourcePressureState:        types.PressureState{}.TableName(),
	SourceControlFlag:          types.ControlFlag{}.TableName(),
	SourceAuditEvent:           types.AuditEvent{}.TableName(),
}

var readColumn = regexp.MustCompile(`^[a-z_]+$`)

type gormReadDB struct {
	db *gorm.DB
}

func NewReadDB(db *gorm.DB) ReadDB {
	return &gormReadDB{db: db}
}

func (r *gormReadDB) base(ctx context.Context, src Source, q Query) (*gorm.DB, error) {
	table, ok := sourceTables[src]
	if !ok {
		return nil, fmt.Errorf("projection read: source %q is not readable", src)
	}
	db := r.db.Session(&gorm.Session{NewDB: true}).WithContext(ctx).Table(table)
	for _, f := range q.Filters {
		expr, err := filterExpr(f)
		if err != nil {
			return nil, err
		}
		db = db.Where(expr)
	}
	for _, o := range q.Order {
		if !readColumn.MatchString(o.Column) {
			return nil, fmt.Errorf("projection read: invalid order column %q", o.Column)
		}
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	return db, nil
}

func filterExpr(f Filter) (clause.Expression, error) {
	if !readColumn.MatchString(f.Column) {
		return nil, fmt.Errorf("projection read: invalid filter column %q", f.Column)
	}
	col := clause.Column{Name: f.Column}
	switch f.Op {
	case OpEq:
		return clause.Eq{Column: col, Value: f.Value}, nil
	case OpNe:
		return clause.Neq{Column: col, Value: f.Value}, nil
	case OpGt:
		return clause.Gt{Column: col, Value: f.Value}, nil
	case OpGte:
		return clause.Gte{Column: col, Value: f.Value}, nil
	case OpLt:
		return clause.Lt{Column: col, Value: f.Value}, nil
	case OpLte:
		return clause.Lte{Column: col, Value: f.Value}, nil
	case OpIn:
		values, ok := f.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("projection read: IN on %q needs a value list", f.Column)
		}
		return clause.IN{Column: col, Values: values}, nil
	case OpIsNull:
		return clause.Eq{Column: col, Value: nil}, nil
	case OpNotNull:
		return clause.Neq{Column: col, Value: nil}, nil
	default:
		return nil, fmt.Errorf("projection read: unknown operator %q", f.Op)
	}
}

func (r *gormReadDB) First(ctx context.Context, src Source, dest any, q Query) (bool, error) {
	q.Limit = 1
	db, err := r.base(ctx, src, q)
	if err != nil {
		return false, err
	}
	res := db.Find(dest)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormReadDB) Find(ctx context.Context, src Source, dest any, q Query) error {
	db, err := r.base(ctx, src, q)
	if err != nil {
		return err
	}
	return db.Find(dest).Error
}

func (r *gormReadDB) Count(ctx context.Context, src Source, q Query) (int64, error) {
	q.Order = nil
	q.Limit = 0
	db, err := r.base(ctx, src, q)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *gormReadDB) Aggregate(ctx context.Context, src Source, column string, q Query) (AggregateResult, error) {
	if !readColumn.MatchString(column) {
		return AggregateResult{}, fmt.Errorf("projection read: invalid aggregate column %q", column)
	}
	q.Order = nil
	q.Limit = 0
	db, err := r.base(ctx, src, q)
	if err != nil {
		return AggregateResult{}, err
	}
	var row struct {
		Cnt    int64
		MinVal sql.NullFloat64
		MaxVal sql.NullFloat64
		AvgVal sql.NullFloat64
		SumVal sql.NullFloat64
	}
	sel := fmt.Sprintf(
		"COUNT(*) AS cnt, MIN(%[1]s) AS min_val, MAX(%[1]s) AS max_val, AVG(%[1]s) AS avg_val, SUM(%[1]s) AS sum_val",
		column,
	)
	if err := db.Select(sel).Scan(&row).Error; err != nil {
		return AggregateResult{}, err
	}
	return AggregateResult{
		Count: row.Cnt,
		Min:   nullFloat(row.MinVal),
		Max:   nullFloat(row.MaxVal),
		Avg:   nullFloat(row.AvgVal),
		Sum:   nullFloat(row.SumVal),
	}, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
