package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.connectwisedev.com/cars-service/models"
)

const header = "name,brand,model,year,horsepower,top_speed,engine,acceleration_0_60,image_url,blueprint_image_url,description,is_latest\n"

func TestParseCars(t *testing.T) {
	content := header +
		`Lamborghini Revuelto,Lamborghini,Revuelto,2024,1001,217,6.5L V12 Hybrid,2.5,https://example.com/r.jpg,https://example.com/r-bp.jpg,"Plug-in, naturally aspirated",true` + "\n" +
		`Aston Martin Valour,Aston Martin,Valour,2024.0,705,200,5.2L Twin-Turbo V12,3.4,https://example.com/v.jpg,https://example.com/v-bp.jpg,Manual V12,` + "\n"

	cars, rowErrs, err := parseCars([]byte(content))

	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, cars, 2)

	assert.Equal(t, models.CarSpecCreate{
		Name:              "Lamborghini Revuelto",
		Brand:             "Lamborghini",
		Model:             "Revuelto",
		Year:              2024,
		Horsepower:        1001,
		TopSpeed:          217,
		Engine:            "6.5L V12 Hybrid",
		Acceleration060:   2.5,
		ImageURL:          "https://example.com/r.jpg",
		BlueprintImageURL: "https://example.com/r-bp.jpg",
		Description:       "Plug-in, naturally aspirated",
		IsLatest:          true,
	}, cars[0])
	assert.Equal(t, 2024, cars[1].Year)
	assert.False(t, cars[1].IsLatest)
}

func TestParseCars_ColumnOrderAndCase(t *testing.T) {
	content := "Brand,NAME,model,year,horsepower,top_speed,engine,acceleration_0_60,image_url,blueprint_image_url,description,notes\n" +
		"Ferrari,Ferrari 12Cilindri,12Cilindri,2025,819,211,6.5L V12,2.8,https://example.com/f.jpg,https://example.com/f-bp.jpg,Front engine,ignored\n"

	cars, rowErrs, err := parseCars([]byte(content))

	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, cars, 1)
	assert.Equal(t, "Ferrari 12Cilindri", cars[0].Name)
	assert.Equal(t, "Ferrari", cars[0].Brand)
	assert.False(t, cars[0].IsLatest)
}

func TestParseCars_SkipsInvalidRows(t *testing.T) {
	content := header +
		"Good,Brand,Model,2024,500,190,V8,3.1,https://a,https://b,ok,false\n" +
		"Bad HP,Brand,Model,2024,lots,190,V8,3.1,https://a,https://b,bad,false\n" +
		"Fractional Year,Brand,Model,2024.5,500,190,V8,3.1,https://a,https://b,bad,false\n" +
		"Bad Flag,Brand,Model,2024,500,190,V8,3.1,https://a,https://b,bad,maybe\n" +
		"Short,Brand\n"

	cars, rowErrs, err := parseCars([]byte(content))

	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, "Good", cars[0].Name)

	rows := make([]int, len(rowErrs))
	for i, re := range rowErrs {
		rows[i] = re.Row
	}
	assert.Equal(t, []int{3, 4, 5, 6}, rows)
	assert.Contains(t, rowErrs[0].Err, models.FieldHorsepower)
	assert.Contains(t, rowErrs[1].Err, models.FieldYear)
	assert.Contains(t, rowErrs[2].Err, models.FieldIsLatest)
}

func TestParseCars_HeaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty", content: ""},
		{name: "header only", content: header},
		{name: "missing columns", content: "name,brand\nA,B\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseCars([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestParseCars_ByteOrderMark(t *testing.T) {
	content := "\ufeff" + header + "A,B,C,2024,1,2,E,3,https://a,https://b,D,1\n"

	cars, rowErrs, err := parseCars([]byte(content))

	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, cars, 1)
	assert.True(t, cars[0].IsLatest)
}
