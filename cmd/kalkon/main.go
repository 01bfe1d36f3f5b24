package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kalkon/cmd/kalkon/tui"
	"kalkon/internal/config"
	"kalkon/internal/engine"
	"kalkon/internal/interp"
	"kalkon/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dialect    string
	depth      int
	useFloat   bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kalkon",
	Short: "kalkon - a programmer's calculator for the terminal",
	Long: `kalkon evaluates arithmetic expressions as you type them and keeps a
short history of committed results.

Results can be shown as any fixed-width integer type (:i8 ... :u64) or as
a 32-bit float, in decimal, hexadecimal or binary. Variables assigned with
x = ... stay available for later expressions.

Run without arguments to start the interactive calculator.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive calculator owns the terminal
		if cmd == cmd.Root() {
			logger = zap.NewNop()
			return nil
		}

		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&dialect, "dialect", "", "Expression language: go or lua (default: from config)")
	rootCmd.PersistentFlags().IntVar(&depth, "depth", -1, "History depth including the preview slot, 0 for unlimited (default: from config)")
	rootCmd.PersistentFlags().BoolVar(&useFloat, "float", false, "Offer :f32 instead of :int and start as f32")

	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

// loadConfig reads the config file, applies the command line overrides,
// validates the result and starts file logging as configured.
func loadConfig() (*config.Config, string, error) {
	path := resolveConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}

	if dialect != "" {
		cfg.Interpreter.Dialect = dialect
	}
	if depth >= 0 {
		cfg.Calculator.Depth = depth
	}
	if useFloat {
		cfg.Calculator.Variant = "f32"
		if cfg.Calculator.Type == "int" {
			cfg.Calculator.Type = "f32"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	if err := logging.Initialize(cfg.Logging.Options(path)); err != nil {
		return nil, path, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.Boot("config loaded from %s: dialect=%s depth=%d variant=%s",
		path, cfg.Interpreter.Dialect, cfg.Calculator.Depth, cfg.Calculator.Variant)
	return cfg, path, nil
}

// newEngine builds an engine from the calculator and interpreter sections.
func newEngine(cfg *config.Config) (*engine.Engine, error) {
	factory, err := interp.NewFactory(cfg.InterpreterOptions())
	if err != nil {
		return nil, err
	}
	variant, err := cfg.Calculator.CommandVariant()
	if err != nil {
		return nil, err
	}
	valueType, err := cfg.Calculator.ValueType()
	if err != nil {
		return nil, err
	}
	format, err := cfg.Calculator.ValueFormat()
	if err != nil {
		return nil, err
	}

	logging.BootDebug("engine: variant=%s type=%s format=%s", variant, valueType, format)
	return engine.New(
		engine.WithFactory(factory),
		engine.WithVariant(variant),
		engine.WithCapacity(cfg.Calculator.Capacity()),
		engine.WithType(valueType),
		engine.WithFormat(format),
	)
}

// runInteractive starts the terminal calculator.
func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	e, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var changes <-chan *config.Config
	if watcher, err := config.NewWatcher(path); err != nil {
		logging.BootWarn("config reload disabled: %v", err)
	} else {
		defer watcher.Stop()
		if err := watcher.Start(ctx); err != nil {
			logging.BootWarn("config reload disabled: %v", err)
		} else {
			changes = watcher.Changes()
		}
	}

	if err := tui.Run(e, cfg, changes); err != nil {
		logging.BootError("session %s ended: %v", e.ID(), err)
		return err
	}
	return nil
}
