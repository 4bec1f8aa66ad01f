package database

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"gitlab.connectwisedev.com/cars-service/models"
)

func carDoc(id, name, brand, model string, latest bool, created time.Time) models.Document {
	return models.Document{
		models.KeyField:        id,
		models.FieldName:       name,
		models.FieldBrand:      brand,
		models.FieldModel:      model,
		models.FieldIsLatest:   latest,
		models.FieldCreatedAt:  created,
		models.FieldHorsepower: 500,
	}
}

func TestMemoryStore_FindSortLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var docs []models.Document
	for i := 0; i < 15; i++ {
		docs = append(docs, carDoc(fmt.Sprintf("car-%02d", i), "Car", "Brand", "Model", i%2 == 0, base.Add(time.Duration(i)*time.Hour)))
	}
	require.NoError(t, store.InsertMany(ctx, docs))

	got, err := store.Find(ctx, Where(models.FieldIsLatest, true), FindOptions{
		SortField:      models.FieldCreatedAt,
		SortDescending: true,
		Limit:          5,
	})
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, "car-14", got[0][models.KeyField])
	assert.Equal(t, "car-12", got[1][models.KeyField])
	for _, d := range got {
		assert.Equal(t, true, d[models.FieldIsLatest])
	}

	n, err := store.CountDocuments(ctx, Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 15, n)
}

func TestMemoryStore_TextMatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now().UTC()
	require.NoError(t, store.InsertMany(ctx, []models.Document{
		carDoc("1", "Ferrari 296 GTB", "Ferrari", "296 GTB", true, now),
		carDoc("2", "Porsche 911 GT3 RS", "Porsche", "911 GT3 RS", true, now),
		carDoc("3", "Bugatti Chiron", "Bugatti", "Chiron", true, now),
	}))

	fields := []string{models.FieldName, models.FieldBrand, models.FieldModel}
	for _, q := range []string{"FER", "fer", "Ferrari"} {
		got, err := store.Find(ctx, ContainsAny(q, fields...), FindOptions{})
		require.NoError(t, err)
		require.Len(t, got, 1, q)
		assert.Equal(t, "1", got[0][models.KeyField])
	}

	got, err := store.Find(ctx, ContainsAny("gt", fields...), FindOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = store.Find(ctx, ContainsAny(".*", fields...), FindOptions{})
	require.NoError(t, err)
	assert.Empty(t, got, "queries are literal, not patterns")
}

func TestMemoryStore_FindOneAndCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	doc := carDoc("abc", "Bugatti Chiron", "Bugatti", "Chiron", true, time.Now().UTC())
	require.NoError(t, store.InsertOne(ctx, doc))

	doc[models.FieldName] = "mutated after insert"

	got, err := store.FindOne(ctx, ByID("abc"))
	require.NoError(t, err)
	assert.Equal(t, "Bugatti Chiron", got[models.FieldName])

	_, err = store.FindOne(ctx, ByID("missing"))
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestMemoryStore_InsertManyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now().UTC()
	require.NoError(t, store.InsertOne(ctx, carDoc("dup", "A", "A", "A", false, now)))

	err := store.InsertMany(ctx, []models.Document{
		carDoc("fresh", "B", "B", "B", false, now),
		carDoc("dup", "C", "C", "C", false, now),
	})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	n, err := store.CountDocuments(ctx, Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().Find(ctx, Filter{}, FindOptions{})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMongoFilter(t *testing.T) {
	filter := mongoFilter(Filter{
		Equals: map[string]interface{}{models.FieldIsLatest: true},
		Text:   &TextMatch{Fields: []string{models.FieldName, models.FieldBrand}, Query: "911 (GT3)"},
	})

	assert.Equal(t, true, filter[models.FieldIsLatest])
	pattern := primitive.Regex{Pattern: `911 \(GT3\)`, Options: "i"}
	assert.Equal(t, bson.A{
		bson.M{models.FieldName: pattern},
		bson.M{models.FieldBrand: pattern},
	}, filter["$or"])

	assert.Equal(t, bson.M{models.KeyField: "abc"}, mongoFilter(ByID("abc")))
	assert.Equal(t, bson.M{}, mongoFilter(Filter{}))
}

func TestMongoFindOptions(t *testing.T) {
	opts := mongoFindOptions(FindOptions{SortField: models.FieldCreatedAt, SortDescending: true, Limit: 10})
	assert.Equal(t, bson.D{{Key: models.FieldCreatedAt, Value: -1}}, opts.Sort)
	require.NotNil(t, opts.Limit)
	assert.EqualValues(t, 10, *opts.Limit)

	opts = mongoFindOptions(FindOptions{})
	assert.Nil(t, opts.Sort)
	assert.Nil(t, opts.Limit)
}

func TestFromBSON(t *testing.T) {
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	doc := fromBSON(bson.M{
		models.KeyField:       "abc",
		models.FieldYear:      int32(2024),
		models.FieldCreatedAt: primitive.NewDateTimeFromTime(created),
	})

	assert.Equal(t, "abc", doc[models.KeyField])
	assert.Equal(t, int32(2024), doc[models.FieldYear])
	got, ok := doc[models.FieldCreatedAt].(time.Time)
	require.True(t, ok)
	assert.True(t, created.Equal(got))
	assert.Equal(t, time.UTC, got.Location())
}

func TestPostgresWhere(t *testing.T) {
	where, args, err := postgresWhere(Filter{})
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args, err = postgresWhere(ByID("abc"))
	require.NoError(t, err)
	assert.Equal(t, " WHERE id = $1", where)
	assert.Equal(t, []interface{}{"abc"}, args)

	where, args, err = postgresWhere(Filter{
		Equals: map[string]interface{}{models.FieldIsLatest: true},
		Text:   &TextMatch{Fields: []string{models.FieldName, models.FieldBrand}, Query: "50%_off"},
	})
	require.NoError(t, err)
	assert.Equal(t, " WHERE doc -> $1::text = $2::jsonb AND (doc ->> $4::text ILIKE $3 OR doc ->> $5::text ILIKE $3)", where)
	assert.Equal(t, []interface{}{models.FieldIsLatest, "true", `%50\%\_off%`, models.FieldName, models.FieldBrand}, args)
}

func TestPostgresWhere_EmptyTextFields(t *testing.T) {
	where, _, err := postgresWhere(ContainsAny("ferrari"))
	require.NoError(t, err)
	assert.Equal(t, " WHERE FALSE", where)
}

func TestJSONDocument_RoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 8, 0, 0, 120_000_000, time.UTC)
	doc := carDoc("abc", "Bugatti Chiron", "Bugatti", "Chiron", true, created)

	id, raw, err := toJSONDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.NotContains(t, body, models.KeyField)
	assert.Equal(t, "2024-03-01T08:00:00.120Z", body[models.FieldCreatedAt])

	back, err := fromJSONDocument(id, raw)
	require.NoError(t, err)
	assert.Equal(t, "abc", back[models.KeyField])
	assert.Equal(t, json.Number("500"), back[models.FieldHorsepower])
	assert.Equal(t, true, back[models.FieldIsLatest])
}

func TestToJSONDocument_RequiresPrimaryKey(t *testing.T) {
	_, _, err := toJSONDocument(models.Document{models.FieldName: "no id"})
	assert.Error(t, err)
}
