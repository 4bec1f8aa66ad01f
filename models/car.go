package models

import (
	"time"

	"github.com/google/uuid"
)

// CarSpec represents a car record as stored and as returned by the API
type CarSpec struct {
	ID                string    `json:"id"` // UUID as string, stored as _id
	Name              string    `json:"name"`
	Brand             string    `json:"brand"`
	Model             string    `json:"model"`
	Year              int       `json:"year"`
	Horsepower        int       `json:"horsepower"`
	TopSpeed          int       `json:"top_speed"`
	Engine            string    `json:"engine"`
	Acceleration060   float64   `json:"acceleration_0_60"`
	ImageURL          string    `json:"image_url"`
	BlueprintImageURL string    `json:"blueprint_image_url"`
	Description       string    `json:"description"`
	IsLatest          bool      `json:"is_latest"`
	CreatedAt         time.Time `json:"created_at"`
}

// CarSpecCreate represents the body accepted when creating a car.
// id and created_at are assigned by Materialize, never by the client.
type CarSpecCreate struct {
	Name              string  `json:"name"`
	Brand             string  `json:"brand"`
	Model             string  `json:"model"`
	Year              int     `json:"year"`
	Horsepower        int     `json:"horsepower"`
	TopSpeed          int     `json:"top_speed"`
	Engine            string  `json:"engine"`
	Acceleration060   float64 `json:"acceleration_0_60"`
	ImageURL          string  `json:"image_url"`
	BlueprintImageURL string  `json:"blueprint_image_url"`
	Description       string  `json:"description"`
	IsLatest          bool    `json:"is_latest"`
}

// CarSummary is the reduced shape returned by search
type CarSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

// Summary reduces a car to its search result shape
func (c CarSpec) Summary() CarSummary {
	return CarSummary{
		ID:    c.ID,
		Name:  c.Name,
		Brand: c.Brand,
		Model: c.Model,
		Year:  c.Year,
	}
}

// Materialize assigns a fresh identifier and creation time to a validated body.
// created_at is truncated to milliseconds, the finest precision every store keeps.
func Materialize(c CarSpecCreate) CarSpec {
	return CarSpec{
		ID:                uuid.New().String(),
		Name:              c.Name,
		Brand:             c.Brand,
		Model:             c.Model,
		Year:              c.Year,
		Horsepower:        c.Horsepower,
		TopSpeed:          c.TopSpeed,
		Engine:            c.Engine,
		Acceleration060:   c.Acceleration060,
		ImageURL:          c.ImageURL,
		BlueprintImageURL: c.BlueprintImageURL,
		Description:       c.Description,
		IsLatest:          c.IsLatest,
		CreatedAt:         time.Now().UTC().Truncate(time.Millisecond),
	}
}
