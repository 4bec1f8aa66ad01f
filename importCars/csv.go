package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gitlab.connectwisedev.com/cars-service/models"
)

var stringColumns = []string{
	models.FieldName,
	models.FieldBrand,
	models.FieldModel,
	models.FieldEngine,
	models.FieldImageURL,
	models.FieldBlueprintImageURL,
	models.FieldDescription,
}

var numericColumns = []string{
	models.FieldYear,
	models.FieldHorsepower,
	models.FieldTopSpeed,
	models.FieldAcceleration060,
}

// RowError reports a CSV row that failed validation. Row is 1-based and
// counts the header.
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

// parseCars reads a header-mapped CSV. Column order is free and unknown
// columns are ignored; every creation field except is_latest must be present
// in the header. Rows that fail validation are returned as RowErrors.
func parseCars(content []byte) ([]models.CarSpecCreate, []RowError, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("CSV is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	var missing []string
	for _, c := range append(append([]string{}, stringColumns...), numericColumns...) {
		if _, ok := columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("CSV header missing columns: %s", strings.Join(missing, ", "))
	}

	var cars []models.CarSpecCreate
	var rowErrs []RowError
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
			rowErrs = append(rowErrs, RowError{Row: row, Err: "wrong number of columns"})
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV row %d: %w", row, err)
		}

		car, err := models.CreateFromDocument(rowDocument(columns, record))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: row, Err: err.Error()})
			continue
		}
		cars = append(cars, *car)
	}

	if len(cars) == 0 && len(rowErrs) == 0 {
		return nil, nil, fmt.Errorf("CSV is empty or has only headers")
	}
	return cars, rowErrs, nil
}

// rowDocument converts a record into the loosely typed shape the validator
// accepts. Numbers stay json.Number so integral checks match the HTTP path.
func rowDocument(columns map[string]int, record []string) models.Document {
	doc := models.Document{}
	for _, c := range stringColumns {
		doc[c] = record[columns[c]]
	}
	for _, c := range numericColumns {
		doc[c] = json.Number(strings.TrimSpace(record[columns[c]]))
	}

	if i, ok := columns[models.FieldIsLatest]; ok {
		if v := strings.TrimSpace(record[i]); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				doc[models.FieldIsLatest] = b
			} else {
				doc[models.FieldIsLatest] = v
			}
		}
	}
	return doc
}
