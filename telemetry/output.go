package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/backdrop/config"
)

// OutputManager handles run output with CSV logging.
type OutputManager struct {
	dir         string
	perfFile    *os.File
	summaryFile *os.File

	// Track if headers have been written
	perfHeaderWritten    bool
	summaryHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	f, err = os.Create(filepath.Join(dir, "frames.csv"))
	if err != nil {
		om.perfFile.Close()
		return nil, fmt.Errorf("creating frames.csv: %w", err)
	}
	om.summaryFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd uint64) error {
	if om == nil {
		return nil
	}

	records := []PerfStatsCSV{stats.ToCSV(windowEnd)}

	if !om.perfHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}

	return nil
}

// WriteSummary writes a frame-cost distribution record to frames.csv.
func (om *OutputManager) WriteSummary(s FrameSummary) error {
	if om == nil {
		return nil
	}

	records := []FrameSummary{s}

	if !om.summaryHeaderWritten {
		if err := gocsv.Marshal(records, om.summaryFile); err != nil {
			return fmt.Errorf("writing frame summary: %w", err)
		}
		om.summaryHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.summaryFile); err != nil {
			return fmt.Errorf("writing frame summary: %w", err)
		}
	}

	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.perfFile != nil {
		if err := om.perfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.summaryFile != nil {
		if err := om.summaryFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
