package database

import (
	"context"
	"errors"

	"gitlab.connectwisedev.com/cars-service/models"
)

// CarsCollection is the single collection (or table) the service reads and writes
const CarsCollection = "cars"

var (
	// ErrNoDocuments is returned by FindOne when nothing matches the filter
	ErrNoDocuments = errors.New("no matching document")
	// ErrStoreUnavailable wraps every failure talking to the backing store
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrDuplicateKey is returned when an inserted document reuses a primary key
	ErrDuplicateKey = errors.New("duplicate primary key")
)

// Filter selects documents. Equals terms are ANDed together and with Text.
type Filter struct {
	Equals map[string]interface{}
	Text   *TextMatch
}

// TextMatch is a case-insensitive substring match against any of Fields.
// Query is matched literally.
type TextMatch struct {
	Fields []string
	Query  string
}

// FindOptions orders and caps a Find. A zero Limit means no cap.
type FindOptions struct {
	SortField      string
	SortDescending bool
	Limit          int64
}

// Store is the document store collaborator: the handful of primitives the
// service needs over the cars collection.
type Store interface {
	Find(ctx context.Context, filter Filter, opts FindOptions) ([]models.Document, error)
	FindOne(ctx context.Context, filter Filter) (models.Document, error)
	InsertOne(ctx context.Context, doc models.Document) error
	InsertMany(ctx context.Context, docs []models.Document) error
	CountDocuments(ctx context.Context, filter Filter) (int64, error)
	Close(ctx context.Context) error
}

// ByID matches the document whose primary key is id
func ByID(id string) Filter {
	return Filter{Equals: map[string]interface{}{models.KeyField: id}}
}

// Where matches documents whose field equals value
func Where(field string, value interface{}) Filter {
	return Filter{Equals: map[string]interface{}{field: value}}
}

// ContainsAny matches documents where any of fields contains query, ignoring case
func ContainsAny(query string, fields ...string) Filter {
	return Filter{Text: &TextMatch{Fields: fields, Query: query}}
}
