package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gitlab.connectwisedev.com/cars-service/models"
	"gitlab.connectwisedev.com/cars-service/pkg/database"
)

// SampleCars are inserted into an empty catalog on startup
func SampleCars() []models.CarSpecCreate {
	return []models.CarSpecCreate{
		{
			Name:              "Ferrari 296 GTB",
			Brand:             "Ferrari",
			Model:             "296 GTB",
			Year:              2024,
			Horsepower:        818,
			TopSpeed:          205,
			Engine:            "2.9L V6 Hybrid",
			Acceleration060:   2.9,
			ImageURL:          "https://images.unsplash.com/photo-1583121274602-3e2820c69888?w=800",
			BlueprintImageURL: "https://images.unsplash.com/photo-1558618047-3c8c76ca7d13?w=800",
			Description:       "The ultimate expression of Ferrari's hybrid technology",
			IsLatest:          true,
		},
		{
			Name:              "Porsche 911 GT3 RS",
			Brand:             "Porsche",
			Model:             "911 GT3 RS",
			Year:              2024,
			Horsepower:        518,
			TopSpeed:          184,
			Engine:            "4.0L Flat-6",
			Acceleration060:   3.0,
			ImageURL:          "https://images.unsplash.com/photo-1544636331-e26879cd4d9b?w=800",
			BlueprintImageURL: "https://images.unsplash.com/photo-1580273916550-e323be2ae537?w=800",
			Description:       "Track-focused precision engineering",
			IsLatest:          true,
		},
		{
			Name:              "Bugatti Chiron",
			Brand:             "Bugatti",
			Model:             "Chiron",
			Year:              2024,
			Horsepower:        1479,
			TopSpeed:          261,
			Engine:            "8.0L W16 Quad-Turbo",
			Acceleration060:   2.4,
			ImageURL:          "https://images.unsplash.com/photo-1544636331-e26879cd4d9b?w=800",
			BlueprintImageURL: "https://images.unsplash.com/photo-1558618047-3c8c76ca7d13?w=800",
			Description:       "The pinnacle of automotive engineering",
			IsLatest:          true,
		},
	}
}

// SeedIfEmpty inserts SampleCars when the collection holds no documents and
// returns how many were inserted. It only checks emptiness, so deleted sample
// cars are not restored once any record exists. Two processes starting
// against the same empty store at once may both insert.
func (s *CarService) SeedIfEmpty(ctx context.Context) (int, error) {
	count, err := s.store.CountDocuments(ctx, database.Filter{})
	if err != nil {
		return 0, fmt.Errorf("failed to count cars: %w", err)
	}
	if count > 0 {
		s.logger.Debug("Catalog already populated, skipping sample data", zap.Int64("count", count))
		return 0, nil
	}

	cars, err := s.CreateMany(ctx, SampleCars())
	if err != nil {
		return 0, fmt.Errorf("failed to insert sample cars: %w", err)
	}

	s.logger.Info("Sample car data inserted successfully", zap.Int("count", len(cars)))
	return len(cars), nil
}
