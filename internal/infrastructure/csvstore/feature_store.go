package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/transfermetrics/pipeline/internal/platform/logging"
	"github.com/transfermetrics/pipeline/internal/usecase"
)

// FeaturesFile is the assembled feature matrix artifact name.
const FeaturesFile = "features.csv"

// FeatureStore writes the assembled matrix with its target column so the
// model inputs of a run can be inspected outside the pipeline.
type FeatureStore struct {
	dir    string
	logger *logging.Logger
}

func NewFeatureStore(dir string, logger *logging.Logger) *FeatureStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &FeatureStore{dir: dir, logger: logger}
}

func (s *FeatureStore) Save(ctx context.Context, dataset usecase.Dataset) error {
	path := filepath.Join(s.dir, FeaturesFile)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create features file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := append([]string{}, dataset.Columns...)
	header = append(header, "transfer_year", usecase.TargetColumn)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write features header: %w", err)
	}

	for i, features := range dataset.X {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := make([]string, 0, len(header))
		for _, v := range features {
			row = append(row, formatFloat(v))
		}
		row = append(row, strconv.Itoa(dataset.Years[i]), formatFloat(dataset.Y[i]))
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write features row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush features file: %w", err)
	}
	s.logger.Info("feature matrix written", "path", path, "rows", dataset.Len())
	return nil
}
