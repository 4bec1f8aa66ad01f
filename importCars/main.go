package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/cars-service/models"
	"gitlab.connectwisedev.com/cars-service/pkg/app"
	"gitlab.connectwisedev.com/cars-service/pkg/config"
)

// S3EventWrapper accepts either an S3 notification or a direct CSV payload
type S3EventWrapper struct {
	Records []events.S3EventRecord `json:"Records,omitempty"`
	CSVData string                 `json:"csv_data,omitempty"`
}

// ImportResult summarizes one invocation
type ImportResult struct {
	Imported int        `json:"imported"`
	Skipped  []RowError `json:"skipped"`
}

type carCreator interface {
	CreateMany(ctx context.Context, creates []models.CarSpecCreate) ([]models.CarSpec, error)
}

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type importer struct {
	cars    carCreator
	objects objectGetter
	logger  *zap.Logger
}

func (i *importer) handle(ctx context.Context, event S3EventWrapper) (ImportResult, error) {
	result := ImportResult{Skipped: []RowError{}}

	switch {
	case len(event.Records) > 0:
		for _, record := range event.Records {
			bucket := record.S3.Bucket.Name
			key, err := url.QueryUnescape(record.S3.Object.Key)
			if err != nil {
				return result, fmt.Errorf("invalid object key %q: %w", record.S3.Object.Key, err)
			}

			i.logger.Info("Processing S3 object", zap.String("bucket", bucket), zap.String("key", key))
			content, err := i.fetch(ctx, bucket, key)
			if err != nil {
				return result, err
			}
			if err := i.importCSV(ctx, content, &result); err != nil {
				return result, fmt.Errorf("s3://%s/%s: %w", bucket, key, err)
			}
		}
	case event.CSVData != "":
		i.logger.Info("Processing direct CSV data payload")
		if err := i.importCSV(ctx, []byte(event.CSVData), &result); err != nil {
			return result, err
		}
	default:
		return result, fmt.Errorf("no S3 event record or direct CSV data found in the payload")
	}

	i.logger.Info("Cars imported",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func (i *importer) fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := i.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object s3://%s/%s: %w", bucket, key, err)
	}
	return content, nil
}

func (i *importer) importCSV(ctx context.Context, content []byte, result *ImportResult) error {
	cars, rowErrs, err := parseCars(content)
	if err != nil {
		return err
	}

	for _, re := range rowErrs {
		i.logger.Warn("Skipping CSV row", zap.Int("row", re.Row), zap.String("error", re.Err))
	}
	result.Skipped = append(result.Skipped, rowErrs...)

	if len(cars) == 0 {
		return nil
	}
	created, err := i.cars.CreateMany(ctx, cars)
	if err != nil {
		return err
	}
	result.Imported += len(created)
	return nil
}

func main() {
	ctx := context.Background()

	if _, err := config.LoadEnv(); err != nil {
		log.Printf("Warning: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize import lambda", zap.Error(err))
	}
	defer application.Close(ctx)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal("Failed to load AWS configuration", zap.Error(err))
	}

	imp := &importer{
		cars:    application.Service,
		objects: s3.NewFromConfig(awsCfg),
		logger:  logger,
	}
	lambda.Start(imp.handle)
}
