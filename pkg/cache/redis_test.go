package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"gitlab.connectwisedev.com/cars-service/models"
)

func newTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisClient(context.Background(), mr.Addr(), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, mr
}

func sampleCar() models.CarSpec {
	return models.CarSpec{
		ID:                "550e8400-e29b-41d4-a716-446655440000",
		Name:              "Porsche 911 GT3 RS",
		Brand:             "Porsche",
		Model:             "911 GT3 RS",
		Year:              2024,
		Horsepower:        518,
		TopSpeed:          184,
		Engine:            "4.0L Flat-6",
		Acceleration060:   3.0,
		ImageURL:          "https://example.com/911.jpg",
		BlueprintImageURL: "https://example.com/911-blueprint.jpg",
		Description:       "Track-focused precision engineering",
		IsLatest:          true,
		CreatedAt:         time.Date(2024, 5, 1, 12, 30, 45, 123000000, time.UTC),
	}
}

func TestCarKey(t *testing.T) {
	cases := []struct {
		name string
		id   string
		want string
	}{
		{"Simple id", "abc", "car:abc"},
		{"UUID id", "550e8400-e29b-41d4-a716-446655440000", "car:550e8400-e29b-41d4-a716-446655440000"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, carKey(c.id))
		})
	}
}

func TestNewRedisClient_RequiresAddress(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "", zap.NewNop())
	assert.Error(t, err)
}

func TestGetCar_Miss(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.GetCar(context.Background(), "unknown")

	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSetCar_RoundTrip(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()
	car := sampleCar()

	require.NoError(t, c.SetCar(ctx, car))

	assert.True(t, mr.Exists(carKey(car.ID)))
	assert.Equal(t, DefaultTTL, mr.TTL(carKey(car.ID)))

	got, err := c.GetCar(ctx, car.ID)
	require.NoError(t, err)
	assert.True(t, car.CreatedAt.Equal(got.CreatedAt))
	got.CreatedAt = car.CreatedAt
	assert.Equal(t, car, *got)
}

func TestGetCar_ExpiresAfterTTL(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()
	car := sampleCar()
	require.NoError(t, c.SetCar(ctx, car))

	mr.FastForward(DefaultTTL + time.Second)

	_, err := c.GetCar(ctx, car.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGetCar_CorruptEntry(t *testing.T) {
	c, mr := newTestClient(t)
	require.NoError(t, mr.Set(carKey("bad"), "not json"))

	_, err := c.GetCar(context.Background(), "bad")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestGetCar_ServerDown(t *testing.T) {
	c, mr := newTestClient(t)
	mr.Close()

	_, err := c.GetCar(context.Background(), "any")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)

	assert.Error(t, c.SetCar(context.Background(), sampleCar()))
}
