// Package datarecording stores simulation records in SQLite databases.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/structs"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder writes rows of flat structs into tables. Rows are buffered
// and written in batches.
type DataRecorder interface {
	// CreateTable creates a table with one column per field of sampleEntry.
	// Fields must be exported scalars.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers a row. The row must have the table's struct type.
	InsertData(tableName string, entry any)

	ListTables() []string
	Flush()

	// Close flushes and releases the database. Later calls do nothing.
	Close() error
}

const defaultBatchSize = 100000

// New creates path.sqlite3 and records into it. With an empty path a unique
// name is chosen. Buffered rows are flushed when the program exits through
// atexit.
func New(path string) (DataRecorder, error) {
	if path == "" {
		path = "pktflow_recording_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}

	// sql.Open is lazy; the file only appears on first use.
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("create %s: %w", filename, err)
	}

	fmt.Fprintf(os.Stderr, "Recording to %s\n", filename)

	return NewWithDB(db), nil
}

// NewWithDB records into a database the caller already opened.
func NewWithDB(db *sql.DB) DataRecorder {
	w := &sqliteWriter{
		db:        db,
		batchSize: defaultBatchSize,
		tables:    map[string]*pendingRows{},
	}

	atexit.Register(w.Flush)

	return w
}

type pendingRows struct {
	rowType reflect.Type
	rows    []any
}

type sqliteWriter struct {
	db        *sql.DB
	tables    map[string]*pendingRows
	batchSize int
	buffered  int
	closed    bool
}

var storableKinds = map[reflect.Kind]bool{
	reflect.Bool:    true,
	reflect.Int:     true,
	reflect.Int8:    true,
	reflect.Int16:   true,
	reflect.Int32:   true,
	reflect.Int64:   true,
	reflect.Uint:    true,
	reflect.Uint8:   true,
	reflect.Uint16:  true,
	reflect.Uint32:  true,
	reflect.Uint64:  true,
	reflect.Float32: true,
	reflect.Float64: true,
	reflect.String:  true,
}

func checkRowType(entry any) error {
	t := reflect.TypeOf(entry)
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("entry %v is not a struct", entry)
	}

	for _, f := range reflect.VisibleFields(t) {
		switch {
		case !f.IsExported():
			return fmt.Errorf("field %s is not exported", f.Name)
		case !storableKinds[f.Type.Kind()]:
			return fmt.Errorf("field %s of kind %s cannot be stored",
				f.Name, f.Type.Kind())
		}
	}

	return nil
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	if err := checkRowType(sampleEntry); err != nil {
		panic(err)
	}

	if _, dup := w.tables[tableName]; dup {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	columns := strings.Join(structs.Names(sampleEntry), ", ")
	w.exec(fmt.Sprintf("CREATE TABLE %s (%s)", tableName, columns))

	w.tables[tableName] = &pendingRows{rowType: reflect.TypeOf(sampleEntry)}
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	t, ok := w.tables[tableName]
	if !ok {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.rowType {
		panic(fmt.Sprintf("entry of type %T does not fit table %s",
			entry, tableName))
	}

	t.rows = append(t.rows, entry)

	w.buffered++
	if w.buffered >= w.batchSize {
		w.Flush()
	}
}

func (w *sqliteWriter) ListTables() []string {
	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Flush writes every buffered row in one transaction, table by table in
// name order.
func (w *sqliteWriter) Flush() {
	if w.buffered == 0 || w.closed {
		return
	}

	w.exec("BEGIN TRANSACTION")

	for _, name := range w.ListTables() {
		t := w.tables[name]
		if len(t.rows) > 0 {
			w.insertAll(name, t.rows)
			t.rows = nil
		}
	}

	w.exec("COMMIT TRANSACTION")

	w.buffered = 0
}

func (w *sqliteWriter) insertAll(tableName string, rows []any) {
	marks := strings.TrimSuffix(
		strings.Repeat("?, ", len(structs.Names(rows[0]))), ", ")

	stmt, err := w.db.Prepare(
		fmt.Sprintf("INSERT INTO %s VALUES (%s)", tableName, marks))
	if err != nil {
		panic(err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(structs.Values(row)...); err != nil {
			panic(err)
		}
	}
}

func (w *sqliteWriter) Close() error {
	if w.closed {
		return nil
	}

	w.Flush()
	w.closed = true

	return w.db.Close()
}

func (w *sqliteWriter) exec(query string) {
	if _, err := w.db.Exec(query); err != nil {
		panic(fmt.Errorf("execute %q: %w", query, err))
	}
}
