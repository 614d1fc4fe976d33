package csvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/transfermetrics/pipeline/internal/platform/logging"
	"github.com/transfermetrics/pipeline/internal/usecase"
)

// ReportFile is the run report artifact name.
const ReportFile = "run_report.json"

// ReportStore writes the per-run summary next to the CSV artifacts.
type ReportStore struct {
	dir    string
	logger *logging.Logger
}

func NewReportStore(dir string, logger *logging.Logger) *ReportStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReportStore{dir: dir, logger: logger}
}

func (s *ReportStore) Save(ctx context.Context, report usecase.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := sonic.ConfigDefault.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run report: %w", err)
	}

	path := filepath.Join(s.dir, ReportFile)
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write run report: %w", err)
	}
	s.logger.Info("run report written", "path", path)
	return nil
}

// Load reads a previous run report, mainly for the warehouse loader.
func (s *ReportStore) Load(ctx context.Context) (usecase.RunReport, error) {
	if err := ctx.Err(); err != nil {
		return usecase.RunReport{}, err
	}

	path := filepath.Join(s.dir, ReportFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return usecase.RunReport{}, fmt.Errorf("read run report: %w", err)
	}

	var report usecase.RunReport
	if err := sonic.Unmarshal(raw, &report); err != nil {
		return usecase.RunReport{}, fmt.Errorf("decode run report %s: %w", path, err)
	}
	return report, nil
}
