package store

import (
	"context"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// GormStore implements TableStore on top of a gorm connection. Tables are
// registered up front from their row types.
type GormStore struct {
	db     *gorm.DB
	tables map[string]reflect.Type
}

// NewGormStore registers one table per row type, named by its TableName.
func NewGormStore(db *gorm.DB, rows ...schema.Tabler) *GormStore {
	s := &GormStore{db: db, tables: make(map[string]reflect.Type, len(rows))}
	for _, r := range rows {
		t := reflect.TypeOf(r)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		s.tables[r.TableName()] = t
	}
	return s
}

func (s *GormStore) rowType(table string) (reflect.Type, error) {
	t, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return t, nil
}

func (s *GormStore) Select(ctx context.Context, q Query, dest any) error {
	t, err := s.rowType(q.Table)
	if err != nil {
		return err
	}
	dv := reflect.TypeOf(dest)
	if dv == nil || dv.Kind() != reflect.Pointer || dv.Elem().Kind() != reflect.Slice || dv.Elem().Elem() != t {
		return fmt.Errorf("%w: select %s into %T", ErrInvalidData, q.Table, dest)
	}

	tx := s.db.WithContext(ctx).Table(q.Table)
	if len(q.Columns) > 0 {
		for _, c := range q.Columns {
			if !validColumn(c) {
				return fmt.Errorf("%w: column %q", ErrInvalidFilter, c)
			}
		}
		tx = tx.Select(q.Columns)
	}
	exprs, err := buildExprs(q.Filters)
	if err != nil {
		return err
	}
	for _, e := range exprs {
		tx = tx.Where(e)
	}
	if q.Order != nil {
		if !validColumn(q.Order.Column) {
			return fmt.Errorf("%w: order column %q", ErrInvalidFilter, q.Order.Column)
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.Order.Column}, Desc: q.Order.Desc})
	}
	if err := tx.Find(dest).Error; err != nil {
		return fmt.Errorf("select %s: %w", q.Table, err)
	}
	return nil
}

func (s *GormStore) Insert(ctx context.Context, table string, row any) error {
	t, err := s.rowType(table)
	if err != nil {
		return err
	}
	if rt := reflect.TypeOf(row); rt == nil || rt.Kind() != reflect.Pointer || rt.Elem() != t {
		return fmt.Errorf("%w: insert %T into %s", ErrInvalidData, row, table)
	}
	if err := s.db.WithContext(ctx).Table(table).Create(row).Error; err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, table string, filters ...Filter) error {
	t, err := s.rowType(table)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		return fmt.Errorf("%w: delete from %s without filter", ErrInvalidFilter, table)
	}
	exprs, err := buildExprs(filters)
	if err != nil {
		return err
	}
	tx := s.db.WithContext(ctx).Table(table)
	for _, e := range exprs {
		tx = tx.Where(e)
	}
	res := tx.Delete(reflect.New(t).Interface())
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", table, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func buildExprs(filters []Filter) ([]clause.Expression, error) {
	exprs := make([]clause.Expression, 0, len(filters))
	for _, f := range filters {
		if !validColumn(f.Column) {
			return nil, fmt.Errorf("%w: column %q", ErrInvalidFilter, f.Column)
		}
		col := clause.Column{Name: f.Column}
		switch f.Op {
		case OpEq:
			exprs = append(exprs, clause.Eq{Column: col, Value: f.Value})
		case OpGte:
			exprs = append(exprs, clause.Gte{Column: col, Value: f.Value})
		case OpLte:
			exprs = append(exprs, clause.Lte{Column: col, Value: f.Value})
		default:
			return nil, fmt.Errorf("%w: operator %q", ErrInvalidFilter, f.Op)
		}
	}
	return exprs, nil
}
