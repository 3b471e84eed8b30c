package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/username/persiandate/internal/batch"
	"github.com/username/persiandate/internal/config"
	"github.com/username/persiandate/internal/daemon"
	"github.com/username/persiandate/internal/metrics"
	"github.com/username/persiandate/pkg/dateutil"
	"github.com/username/persiandate/pkg/persiandate"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath   string
	formatFlag   string
	zeroPadFlag  bool
	encodingFlag string
	logger       = zap.NewNop()
	cfg          *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "persiandate",
		Short:         "Gregorian to Persian (Jalali) date converter",
		Long:          "Convert Gregorian dates to the Persian calendar and render them as MM/DD/YYYY, DD/MM/YYYY or YYYY-MM-DD",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, loaded); err != nil {
				return err
			}
			cfg = loaded

			if cfg.Log.File != "" {
				logger = initFileLogger(cfg.Log.File, cfg.Log.Level)
			} else {
				logger = initLogger(cfg.Log.Level)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: persiandate.yaml in ., $HOME/.persiandate, /etc/persiandate)")
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "", "Output layout: us, international or hyphenated")
	rootCmd.PersistentFlags().BoolVar(&zeroPadFlag, "zero-pad", true, "Zero-pad month and day below 10")
	rootCmd.PersistentFlags().StringVarP(&encodingFlag, "output", "o", "", "Record encoding: text, json or yaml")

	rootCmd.AddCommand(convertCmd(), todayCmd(), batchCmd(), daemonCmd())

	return rootCmd
}

// applyFlags overrides config values with flags the user actually set
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		c.Output.Format = formatFlag
	}
	if flags.Changed("zero-pad") {
		c.Output.ZeroPad = zeroPadFlag
	}
	if flags.Changed("output") {
		c.Output.Encoding = encodingFlag
	}
	return c.Validate()
}

func outputFormat() persiandate.Format {
	format, _ := persiandate.ParseFormat(cfg.Output.Format)
	return format
}

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert DATE...",
		Short: "Convert one or more Gregorian dates",
		Long: "Convert Gregorian dates given as YYYY-MM-DD, YYYY/MM/DD, DD.MM.YYYY or ISO 8601 timestamps.\n" +
			"Date-only values are anchored at 03:00 local time before conversion.\n" +
			"Text output is the Persian date alone, one per line; json and yaml records\n" +
			"also carry the Gregorian input (batch text output is input<TAB>persian).",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encoding, err := batch.ParseEncoding(cfg.Output.Encoding)
			if err != nil {
				return err
			}

			var out batch.RecordWriter
			if encoding != batch.EncodingText {
				if out, err = batch.NewRecordWriter(cmd.OutOrStdout(), encoding); err != nil {
					return err
				}
			}

			opts := cfg.Output.FormatOptions()
			for _, arg := range args {
				input, err := dateutil.ParseDate(arg)
				if err != nil {
					return fmt.Errorf("failed to parse %q: %w", arg, err)
				}

				rec := batch.Record{Gregorian: input.String(), Persian: input.Format(opts...)}
				if out == nil {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), rec.Persian); err != nil {
						return err
					}
				} else if err := out.Write(rec); err != nil {
					return err
				}

				logger.Debug("Converted date",
					zap.String("input", arg),
					zap.String("persian", rec.Persian))
			}

			if out != nil {
				return out.Close()
			}
			return nil
		},
	}
}

func todayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Print today's Persian date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value := persiandate.FromDate(dateutil.Today(), cfg.Output.FormatOptions()...)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}
}

func batchCmd() *cobra.Command {
	var failFast bool
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "batch [FILE]",
		Short: "Convert Gregorian dates read line by line from FILE or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			encoding, err := batch.ParseEncoding(cfg.Output.Encoding)
			if err != nil {
				return err
			}

			settings := batch.Settings{
				Format:   outputFormat(),
				ZeroPad:  cfg.Output.ZeroPad,
				Encoding: encoding,
				FailFast: cfg.Batch.FailFast || failFast,
			}
			if cfg.Batch.Progress && !noProgress {
				settings.Progress = cmd.ErrOrStderr()
			}

			var m *metrics.Metrics
			if cfg.Batch.MetricsFile != "" {
				m = metrics.New()
			}

			conv := batch.NewConverter(settings, m, logger)
			summary, runErr := conv.Run(cmd.Context(), in, cmd.OutOrStdout())

			// Exported on failure too so the error counter reaches the collector
			if m != nil {
				if err := m.WriteTextfile(cfg.Batch.MetricsFile); err != nil {
					logger.Warn("Failed to export metrics", zap.Error(err))
				}
			}

			if runErr != nil {
				return fmt.Errorf("batch finished with %d failed line(s): %w", summary.Failed, runErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first unparseable line")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress spinner")

	return cmd
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Write today's Persian date to a file once per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hour, minute := cfg.Daemon.GetDailyTime()
			d := daemon.NewScheduledDaemon(daemon.Settings{
				OutputFile:  cfg.Daemon.OutputFile,
				MetricsFile: cfg.Daemon.MetricsFile,
				Format:      outputFormat(),
				ZeroPad:     cfg.Output.ZeroPad,
				DailyHour:   hour,
				DailyMinute: minute,
				SystemTray:  cfg.Daemon.SystemTray,
			}, metrics.New(), logger)

			go func() {
				<-cmd.Context().Done()
				d.Stop()
			}()

			return d.Start()
		},
	}
}

func initLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(parseLevel(level))

	l, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	return l
}

func initFileLogger(logFile string, level string) *zap.Logger {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10,   // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		parseLevel(level),
	)

	return zap.New(core)
}

func parseLevel(level string) zapcore.Level {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return zapLevel
}
