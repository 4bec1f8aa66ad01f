package database

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/cars-service/models"
)

// storedTimeLayout is fixed width so that timestamps stored as JSON text sort
// chronologically.
const storedTimeLayout = "2006-01-02T15:04:05.000Z07:00"

const createCarsTable = `CREATE TABLE IF NOT EXISTS cars (
	id  TEXT PRIMARY KEY,
	doc JSONB NOT NULL
)`

// PostgresStore keeps each car as a JSONB document keyed by its id
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore opens a connection pool, verifies it and makes sure the
// cars table exists.
func NewPostgresStore(ctx context.Context, connStr string, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, createCarsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cars table: %w", err)
	}

	logger.Info("Successfully connected to PostgreSQL!")
	return &PostgresStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	s.logger.Info("PostgreSQL connection closed.")
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, filter Filter, opts FindOptions) ([]models.Document, error) {
	where, args, err := postgresWhere(filter)
	if err != nil {
		return nil, err
	}

	query := "SELECT id, doc FROM cars" + where
	if opts.SortField != "" {
		args = append(args, opts.SortField)
		query += fmt.Sprintf(" ORDER BY doc ->> $%d::text", len(args))
		if opts.SortDescending {
			query += " DESC"
		}
	}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("query cars", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, unavailable("scan car row", err)
		}
		doc, err := fromJSONDocument(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate car rows", err)
	}
	return docs, nil
}

func (s *PostgresStore) FindOne(ctx context.Context, filter Filter) (models.Document, error) {
	docs, err := s.Find(ctx, filter, FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	return docs[0], nil
}

func (s *PostgresStore) InsertOne(ctx context.Context, doc models.Document) error {
	id, raw, err := toJSONDocument(doc)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `INSERT INTO cars (id, doc) VALUES ($1, $2)`, id, string(raw)); err != nil {
		return insertError("insert car", err)
	}
	return nil
}

func (s *PostgresStore) InsertMany(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin transaction", err)
	}
	defer tx.Rollback() // Rollback on error by default

	for _, doc := range docs {
		id, raw, err := toJSONDocument(doc)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO cars (id, doc) VALUES ($1, $2)`, id, string(raw)); err != nil {
			return insertError("insert cars", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit transaction", err)
	}
	return nil
}

func (s *PostgresStore) CountDocuments(ctx context.Context, filter Filter) (int64, error) {
	where, args, err := postgresWhere(filter)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cars"+where, args...).Scan(&n); err != nil {
		return 0, unavailable("count cars", err)
	}
	return n, nil
}

// postgresWhere translates a Filter into a WHERE clause with positional
// arguments. The primary key lives in the id column, every other field in doc.
func postgresWhere(f Filter) (string, []interface{}, error) {
	var clauses []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	fields := make([]string, 0, len(f.Equals))
	for field := range f.Equals {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		value := f.Equals[field]
		if field == models.KeyField {
			clauses = append(clauses, "id = "+arg(value))
			continue
		}
		b, err := json.Marshal(jsonValue(value))
		if err != nil {
			return "", nil, fmt.Errorf("encode filter value for %s: %w", field, err)
		}
		clauses = append(clauses, fmt.Sprintf("doc -> %s::text = %s::jsonb", arg(field), arg(string(b))))
	}

	if f.Text != nil {
		if len(f.Text.Fields) == 0 {
			clauses = append(clauses, "FALSE")
		} else {
			pattern := arg("%" + escapeLike(f.Text.Query) + "%")
			ors := make([]string, len(f.Text.Fields))
			for i, field := range f.Text.Fields {
				ors[i] = fmt.Sprintf("doc ->> %s::text ILIKE %s", arg(field), pattern)
			}
			clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
		}
	}

	if len(clauses) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// escapeLike makes LIKE wildcards in s match literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func jsonValue(v interface{}) interface{} {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(storedTimeLayout)
	}
	return v
}

// toJSONDocument splits a document into its primary key and JSONB body
func toJSONDocument(doc models.Document) (string, []byte, error) {
	id, ok := doc[models.KeyField].(string)
	if !ok || id == "" {
		return "", nil, errors.New("document has no string primary key")
	}

	body := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		if k == models.KeyField {
			continue
		}
		body[k] = jsonValue(v)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", nil, fmt.Errorf("encode car %s: %w", id, err)
	}
	return id, raw, nil
}

func fromJSONDocument(id string, raw []byte) (models.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	doc := models.Document{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode car %s: %w", id, err)
	}
	doc[models.KeyField] = id
	return doc, nil
}

func insertError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
		return fmt.Errorf("%s: %w", op, ErrDuplicateKey)
	}
	return unavailable(op, err)
}
