package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/cars-service/models"
)

// DefaultMongoDatabase is used when the connection string names no database
const DefaultMongoDatabase = "ikul_cars_db"

// MongoStore holds the MongoDB client and the cars collection
type MongoStore struct {
	client *mongo.Client
	cars   *mongo.Collection
	logger *zap.Logger
}

// NewMongoStore connects to the MongoDB deployment named by uri. The database
// is taken from the connection string path.
func NewMongoStore(ctx context.Context, uri string, logger *zap.Logger) (*MongoStore, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid MongoDB connection string: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	logger.Info("Successfully connected to MongoDB", zap.String("database", dbName))
	return &MongoStore{
		client: client,
		cars:   client.Database(dbName).Collection(CarsCollection),
		logger: logger,
	}, nil
}

// Close disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	s.logger.Info("MongoDB connection closed.")
	return nil
}

func (s *MongoStore) Find(ctx context.Context, filter Filter, opts FindOptions) ([]models.Document, error) {
	cur, err := s.cars.Find(ctx, mongoFilter(filter), mongoFindOptions(opts))
	if err != nil {
		return nil, unavailable("find cars", err)
	}
	defer cur.Close(ctx)

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, unavailable("read cars cursor", err)
	}

	docs := make([]models.Document, 0, len(raw))
	for _, r := range raw {
		docs = append(docs, fromBSON(r))
	}
	return docs, nil
}

func (s *MongoStore) FindOne(ctx context.Context, filter Filter) (models.Document, error) {
	var raw bson.M
	err := s.cars.FindOne(ctx, mongoFilter(filter)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoDocuments
	}
	if err != nil {
		return nil, unavailable("find car", err)
	}
	return fromBSON(raw), nil
}

func (s *MongoStore) InsertOne(ctx context.Context, doc models.Document) error {
	if _, err := s.cars.InsertOne(ctx, bson.M(doc)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert car: %w", ErrDuplicateKey)
		}
		return unavailable("insert car", err)
	}
	return nil
}

func (s *MongoStore) InsertMany(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]interface{}, len(docs))
	for i, d := range docs {
		items[i] = bson.M(d)
	}

	if _, err := s.cars.InsertMany(ctx, items); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert cars: %w", ErrDuplicateKey)
		}
		return unavailable("insert cars", err)
	}
	return nil
}

func (s *MongoStore) CountDocuments(ctx context.Context, filter Filter) (int64, error) {
	n, err := s.cars.CountDocuments(ctx, mongoFilter(filter))
	if err != nil {
		return 0, unavailable("count cars", err)
	}
	return n, nil
}

// mongoFilter translates a Filter into a query document. Text queries become
// an $or of escaped, case-insensitive regexes.
func mongoFilter(f Filter) bson.M {
	filter := bson.M{}
	for field, value := range f.Equals {
		filter[field] = value
	}

	if f.Text != nil {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Text.Query), Options: "i"}
		or := make(bson.A, 0, len(f.Text.Fields))
		for _, field := range f.Text.Fields {
			or = append(or, bson.M{field: pattern})
		}
		filter["$or"] = or
	}
	return filter
}

func mongoFindOptions(o FindOptions) *options.FindOptions {
	opts := options.Find()
	if o.SortField != "" {
		direction := 1
		if o.SortDescending {
			direction = -1
		}
		opts.SetSort(bson.D{{Key: o.SortField, Value: direction}})
	}
	if o.Limit > 0 {
		opts.SetLimit(o.Limit)
	}
	return opts
}

// fromBSON swaps BSON-specific value types for their plain Go equivalents
func fromBSON(raw bson.M) models.Document {
	doc := make(models.Document, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case primitive.DateTime:
			doc[k] = val.Time().UTC()
		default:
			doc[k] = v
		}
	}
	return doc
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
