package repositories

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/types"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Params описывает выборку страницы из одной таблицы.
// Условия строятся один раз и используются и для данных, и для COUNT(*).
type Params struct {
	Table   string
	Columns []string
	OrderBy string

	Filter                map[string]string
	AllowedFilterColumns  []string
	Search                string
	SearchField           string
	AllowedSearchColumns  []string
	DefaultSearchColumns  []string
	DateColumn            string
	DateFrom              *time.Time
	DateTo                *time.Time
	Where                 sq.Sqlizer

	WithPg bool
	Limit  uint64
	Offset uint64
}

func paramsFromFilter(f types.Filter) Params {
	return Params{
		Filter:      f.Filter,
		Search:      f.Search,
		SearchField: f.SearchField,
		DateFrom:    f.DateFrom,
		DateTo:      f.DateTo,
		WithPg:      f.WithPagination,
		Limit:       f.Limit,
		Offset:      f.Offset,
	}
}

func (p Params) conditions() (sq.And, error) {
	var conds sq.And

	if p.Where != nil {
		conds = append(conds, p.Where)
	}

	keys := make([]string, 0, len(p.Filter))
	for k := range p.Filter {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, key := range keys {
		val := p.Filter[key]
		if val == "" {
			continue
		}
		if !slices.Contains(p.AllowedFilterColumns, key) {
			return nil, apperrors.NewInvalidInputError("фильтр по полю '%s' не поддерживается", key)
		}
		conds = append(conds, sq.Eq{key: val})
	}

	if p.Search != "" {
		columns := p.DefaultSearchColumns
		if p.SearchField != "" {
			if !slices.Contains(p.AllowedSearchColumns, p.SearchField) {
				return nil, apperrors.NewInvalidInputError("поиск по полю '%s' не поддерживается", p.SearchField)
			}
			columns = []string{p.SearchField}
		}
		pattern := "%" + escapeLike(p.Search) + "%"
		var or sq.Or
		for _, col := range columns {
			or = append(or, sq.Expr(col+" ILIKE ?", pattern))
		}
		if len(or) > 0 {
			conds = append(conds, or)
		}
	}

	if p.DateColumn != "" {
		if p.DateFrom != nil {
			conds = append(conds, sq.GtOrEq{p.DateColumn: *p.DateFrom})
		}
		if p.DateTo != nil {
			conds = append(conds, sq.LtOrEq{p.DateColumn: *p.DateTo})
		}
	}

	return conds, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// FetchDataAndCount возвращает страницу строк и общее число строк под теми же условиями.
func FetchDataAndCount[T any](ctx context.Context, db querier, p Params, scan func(rowScanner) (T, error)) ([]T, uint64, error) {
	if p.Table == "" {
		return nil, 0, fmt.Errorf("params.Table cannot be empty")
	}

	conds, err := p.conditions()
	if err != nil {
		return nil, 0, err
	}

	builder := psql.Select(p.Columns...).From(p.Table)
	if len(conds) > 0 {
		builder = builder.Where(conds)
	}
	if p.OrderBy != "" {
		builder = builder.OrderBy(p.OrderBy)
	}
	if p.WithPg && p.Limit > 0 {
		builder = builder.Limit(p.Limit).Offset(p.Offset)
	}

	sqlQuery, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ToSql for data query (%s): %w", p.Table, err)
	}

	rows, err := db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("выборка из %s: %w", p.Table, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("чтение строки %s: %w", p.Table, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows.Err: %w", err)
	}

	total := uint64(len(items))
	if p.WithPg {
		countBuilder := psql.Select("COUNT(*)").From(p.Table)
		if len(conds) > 0 {
			countBuilder = countBuilder.Where(conds)
		}
		countSQL, countArgs, err := countBuilder.ToSql()
		if err != nil {
			return nil, 0, fmt.Errorf("count ToSql: %w", err)
		}
		if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("подсчёт строк %s: %w", p.Table, err)
		}
	}

	return items, total, nil
}
