package models

import (
	"time"
)

// Document is a car as the document store sees it: a loosely typed map keyed
// by field name, with the identifier under KeyField.
type Document map[string]interface{}

// KeyField is the document store's primary key field.
const KeyField = "_id"

// Stored field names
const (
	FieldID                = "id"
	FieldName              = "name"
	FieldBrand             = "brand"
	FieldModel             = "model"
	FieldYear              = "year"
	FieldHorsepower        = "horsepower"
	FieldTopSpeed          = "top_speed"
	FieldEngine            = "engine"
	FieldAcceleration060   = "acceleration_0_60"
	FieldImageURL          = "image_url"
	FieldBlueprintImageURL = "blueprint_image_url"
	FieldDescription       = "description"
	FieldIsLatest          = "is_latest"
	FieldCreatedAt         = "created_at"
)

// ToStoredDocument renames id to the store's primary key field. It is the only
// place a CarSpec becomes a Document.
func ToStoredDocument(c CarSpec) Document {
	return Document{
		KeyField:               c.ID,
		FieldName:              c.Name,
		FieldBrand:             c.Brand,
		FieldModel:             c.Model,
		FieldYear:              c.Year,
		FieldHorsepower:        c.Horsepower,
		FieldTopSpeed:          c.TopSpeed,
		FieldEngine:            c.Engine,
		FieldAcceleration060:   c.Acceleration060,
		FieldImageURL:          c.ImageURL,
		FieldBlueprintImageURL: c.BlueprintImageURL,
		FieldDescription:       c.Description,
		FieldIsLatest:          c.IsLatest,
		FieldCreatedAt:         c.CreatedAt.UTC(),
	}
}

// FromStoredDocument renames the store's primary key back to id and checks
// every field of the full shape. Any "id" key the document carries is ignored
// in favour of KeyField.
func FromStoredDocument(doc Document) (*CarSpec, error) {
	r := &fieldReader{doc: doc}
	car := &CarSpec{
		ID:                r.str(KeyField),
		Name:              r.str(FieldName),
		Brand:             r.str(FieldBrand),
		Model:             r.str(FieldModel),
		Year:              r.integer(FieldYear),
		Horsepower:        r.integer(FieldHorsepower),
		TopSpeed:          r.integer(FieldTopSpeed),
		Engine:            r.str(FieldEngine),
		Acceleration060:   r.number(FieldAcceleration060),
		ImageURL:          r.str(FieldImageURL),
		BlueprintImageURL: r.str(FieldBlueprintImageURL),
		Description:       r.str(FieldDescription),
		IsLatest:          r.boolean(FieldIsLatest),
		CreatedAt:         r.timestamp(FieldCreatedAt),
	}

	if len(r.errs) > 0 {
		id, _ := doc[KeyField].(string)
		return nil, &DeserializationError{ID: id, Fields: r.errs}
	}
	return car, nil
}

// parseTimestamp accepts the string forms stores hand back for created_at
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
