package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gitlab.connectwisedev.com/cars-service/models"
	"gitlab.connectwisedev.com/cars-service/pkg/database"
)

const (
	// LatestLimit caps the latest-drop listing
	LatestLimit = 10
	// SearchLimit caps search results
	SearchLimit = 10
	// MinQueryLength is the shortest trimmed query that reaches the store
	MinQueryLength = 2
)

// ErrCarNotFound is returned when no car has the requested id
var ErrCarNotFound = errors.New("Car not found")

var searchFields = []string{models.FieldName, models.FieldBrand, models.FieldModel}

// CarCache is an optional read-through cache for detail lookups. Cars are
// never edited once created, so entries need no invalidation. Every failure
// is treated as a miss.
type CarCache interface {
	GetCar(ctx context.Context, id string) (*models.CarSpec, error)
	SetCar(ctx context.Context, car models.CarSpec) error
}

// CarService maps catalog operations onto document store calls
type CarService struct {
	store  database.Store
	cache  CarCache
	logger *zap.Logger
}

// NewCarService builds the service. cache may be nil.
func NewCarService(store database.Store, cache CarCache, logger *zap.Logger) *CarService {
	return &CarService{store: store, cache: cache, logger: logger}
}

// Latest returns up to LatestLimit cars flagged is_latest, newest first.
// It always reads the store so a completed Create is visible immediately.
func (s *CarService) Latest(ctx context.Context) ([]models.CarSpec, error) {
	docs, err := s.store.Find(ctx, database.Where(models.FieldIsLatest, true), database.FindOptions{
		SortField:      models.FieldCreatedAt,
		SortDescending: true,
		Limit:          LatestLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list latest cars: %w", err)
	}

	cars := make([]models.CarSpec, 0, len(docs))
	for _, doc := range docs {
		car, err := s.fromStored(doc)
		if err != nil {
			return nil, err
		}
		cars = append(cars, *car)
	}
	return cars, nil
}

// Search matches q case-insensitively against name, brand and model.
// Queries shorter than MinQueryLength after trimming return no results
// without touching the store.
func (s *CarService) Search(ctx context.Context, q string) ([]models.CarSummary, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < MinQueryLength {
		return []models.CarSummary{}, nil
	}

	docs, err := s.store.Find(ctx, database.ContainsAny(q, searchFields...), database.FindOptions{Limit: SearchLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to search cars: %w", err)
	}

	results := make([]models.CarSummary, 0, len(docs))
	for _, doc := range docs {
		car, err := s.fromStored(doc)
		if err != nil {
			return nil, err
		}
		results = append(results, car.Summary())
	}
	return results, nil
}

// Get returns the car with the given id or ErrCarNotFound
func (s *CarService) Get(ctx context.Context, id string) (*models.CarSpec, error) {
	if s.cache != nil {
		if car, err := s.cache.GetCar(ctx, id); err == nil {
			return car, nil
		}
	}

	doc, err := s.store.FindOne(ctx, database.ByID(id))
	if errors.Is(err, database.ErrNoDocuments) {
		return nil, ErrCarNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get car %s: %w", id, err)
	}

	car, err := s.fromStored(doc)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetCar(ctx, *car); err != nil {
			s.logger.Warn("Error caching car", zap.String("id", car.ID), zap.Error(err))
		}
	}
	return car, nil
}

// Create assigns an id and timestamp to a validated body and persists it
func (s *CarService) Create(ctx context.Context, c models.CarSpecCreate) (*models.CarSpec, error) {
	car := models.Materialize(c)

	if err := s.store.InsertOne(ctx, models.ToStoredDocument(car)); err != nil {
		return nil, fmt.Errorf("failed to create car: %w", err)
	}

	s.logger.Info("Created car", zap.String("id", car.ID), zap.String("name", car.Name))
	return &car, nil
}

// CreateMany persists several validated bodies in one InsertMany call
func (s *CarService) CreateMany(ctx context.Context, creates []models.CarSpecCreate) ([]models.CarSpec, error) {
	if len(creates) == 0 {
		return []models.CarSpec{}, nil
	}

	cars := make([]models.CarSpec, len(creates))
	docs := make([]models.Document, len(creates))
	for i, c := range creates {
		cars[i] = models.Materialize(c)
		docs[i] = models.ToStoredDocument(cars[i])
	}

	if err := s.store.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("failed to create %d cars: %w", len(creates), err)
	}
	return cars, nil
}

// fromStored converts a document and logs the ones that fail the full shape
func (s *CarService) fromStored(doc models.Document) (*models.CarSpec, error) {
	car, err := models.FromStoredDocument(doc)
	if err != nil {
		s.logger.Error("Stored car failed validation", zap.Error(err))
		return nil, err
	}
	return car, nil
}
