package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// QueryParams narrows and orders a query. The zero value selects every row
// in storage order.
type QueryParams struct {
	// Where is a condition with "?" placeholders, such as
	// "Time > ? AND Reason = ?".
	Where string
	Args  []any

	// OrderBy is a column list such as "Time DESC".
	OrderBy string

	// Offset only applies together with a positive Limit.
	Limit  int
	Offset int
}

// clauses renders the filter and the paging parts of a SELECT.
func (p QueryParams) clauses() (filter, paging string) {
	var b strings.Builder

	if p.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(p.Where)
	}

	filter = b.String()

	if p.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(p.OrderBy)
	}

	if p.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", p.Limit)

		if p.Offset > 0 {
			fmt.Fprintf(&b, " OFFSET %d", p.Offset)
		}
	}

	return filter, b.String()
}

// DataReader loads the rows a DataRecorder stored back into structs.
type DataReader interface {
	// MapTable declares the struct type rows of a table decode into. Only
	// mapped tables can be queried.
	MapTable(tableName string, sampleEntry any)
	ListTables() []string

	// Query returns one pointer to the mapped struct per selected row, and
	// how many rows match before paging.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	Close() error
}

type sqliteReader struct {
	db    *sql.DB
	types map[string]reflect.Type
}

// NewReader opens a recording for reading.
func NewReader(dbFilename string) (DataReader, error) {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbFilename, err)
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB reads from a database the caller already opened.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{db: db, types: map[string]reflect.Type{}}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.types[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) ListTables() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	rowType, ok := r.types[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	filter, full := params.clauses()

	var total int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+filter, params.Args...).
		Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", tableName, err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT * FROM "+tableName+full, params.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", tableName, err)
	}
	defer rows.Close()

	results, err := decodeRows(rows, rowType)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", tableName, err)
	}

	return results, total, nil
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}

// decodeRows matches columns to fields by name. A column without a field is
// read and discarded.
func decodeRows(rows *sql.Rows, rowType reflect.Type) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []any

	for rows.Next() {
		ptr := reflect.New(rowType)
		dest := make([]any, len(columns))

		for i, col := range columns {
			if f := ptr.Elem().FieldByName(col); f.IsValid() {
				dest[i] = f.Addr().Interface()
			} else {
				dest[i] = new(any)
			}
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		results = append(results, ptr.Interface())
	}

	return results, rows.Err()
}
