package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloudeng.io/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/username/persiandate/internal/metrics"
	"github.com/username/persiandate/pkg/dateutil"
	"github.com/username/persiandate/pkg/persiandate"
	"go.uber.org/zap"
)

// Settings configures a Converter
type Settings struct {
	Format   persiandate.Format
	ZeroPad  bool
	Encoding Encoding
	FailFast bool
	// Progress receives a spinner while the batch runs; nil disables it
	Progress io.Writer
}

// Summary describes a finished batch run
type Summary struct {
	Processed int
	Converted int
	Failed    int
	Duration  time.Duration
}

// LineError reports an input line that could not be converted
type LineError struct {
	Line  int
	Input string
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Input, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Converter converts a stream of Gregorian dates, one per line
type Converter struct {
	settings Settings
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewConverter creates a new Converter. m may be nil
func NewConverter(settings Settings, m *metrics.Metrics, logger *zap.Logger) *Converter {
	return &Converter{
		settings: settings,
		metrics:  m,
		logger:   logger,
	}
}

func (c *Converter) formatOptions() []persiandate.Option {
	return []persiandate.Option{
		persiandate.WithFormat(c.settings.Format),
		persiandate.WithZeroPad(c.settings.ZeroPad),
	}
}

// Run reads dates from r and writes converted records to w. Blank lines and
// lines starting with # are skipped. Bad lines are collected and returned
// together once the input is exhausted, unless FailFast is set
func (c *Converter) Run(ctx context.Context, r io.Reader, w io.Writer) (Summary, error) {
	start := time.Now()
	summary := Summary{}

	out, err := NewRecordWriter(w, c.settings.Encoding)
	if err != nil {
		return summary, err
	}

	var bar *progressbar.ProgressBar
	if c.settings.Progress != nil {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(c.settings.Progress),
			progressbar.OptionSetDescription("Converting dates..."),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetWidth(20),
		)
		defer bar.Close()
	}

	opts := c.formatOptions()
	errs := &errors.M{}
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		summary.Processed++

		input, err := dateutil.ParseDate(line)
		if err != nil {
			summary.Failed++
			c.metrics.ObserveError()
			c.logger.Warn("Failed to parse date",
				zap.Int("line", lineNo),
				zap.String("input", line),
				zap.Error(err))

			lineErr := &LineError{Line: lineNo, Input: line, Err: err}
			if c.settings.FailFast {
				summary.Duration = time.Since(start)
				return summary, lineErr
			}
			errs.Append(lineErr)
			continue
		}

		rec := Record{
			Line:      lineNo,
			Gregorian: input.String(),
			Persian:   input.Format(opts...),
		}
		if err := out.Write(rec); err != nil {
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("failed to write record for line %d: %w", lineNo, err)
		}
		summary.Converted++
		c.metrics.ObserveConversion(c.settings.Format)

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if err := scanner.Err(); err != nil {
		errs.Append(fmt.Errorf("error reading input: %w", err))
	}

	if err := out.Close(); err != nil {
		errs.Append(fmt.Errorf("failed to flush output: %w", err))
	}

	summary.Duration = time.Since(start)

	c.logger.Info("Batch conversion finished",
		zap.Int("processed", summary.Processed),
		zap.Int("converted", summary.Converted),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration))

	return summary, errs.Err()
}
