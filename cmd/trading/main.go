// Command trading runs scheduled market analysis and browses the protected
// result artifacts it produces.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/darshankharvi/Trading/internal/analysis"
	"github.com/darshankharvi/Trading/internal/artifact"
	"github.com/darshankharvi/Trading/internal/config"
	"github.com/darshankharvi/Trading/internal/infra/log"
	"github.com/darshankharvi/Trading/internal/runner"
	"github.com/darshankharvi/Trading/internal/security"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trading",
		Short:         "Run scheduled market analysis and browse protected result artifacts.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		startCmd(),
		analyzeCmd(),
		historyCmd(),
		showCmd(),
		reportsCmd(),
		keygenCmd(),
		encryptCmd(),
		decryptCmd(),
	)
	return root
}

// buildStore wires the key manager and artifact store from cfg. cfgErr is
// the error from config.Load; a broken config file is worth a warning but
// not a refusal to run. The second warning fires when the predictable
// built-in secret is the only protection.
func buildStore(cfg config.Config, cfgErr error) (*artifact.Store, *security.KeyManager, log.Logger) {
	logger := log.NewLogger(cfg)
	if cfgErr != nil {
		logger.Warn().Err(cfgErr).Msg("config file ignored; using defaults and environment")
	}
	km := security.NewKeyManager(security.Config{
		Key:    cfg.Security.Key,
		Secret: cfg.Security.Secret,
	})
	if km.Derived() && cfg.Security.Secret == "" {
		logger.Warn().
			Str("key_env", cfg.Security.KeyEnvVar).
			Str("secret_env", cfg.Security.SecretEnvVar).
			Msg("no encryption key or secret configured; artifacts are protected by the built-in default secret only")
	}
	store := artifact.New(cfg.Runner.ResultsDir, km.Cipher(), logger)
	return store, km, logger
}

func startCmd() *cobra.Command {
	var (
		ticker     string
		interval   int
		mode       string
		encrypt    bool
		resultsDir string
		producer   string
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the real-time analysis runner.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := config.Load()
			f := cmd.Flags()
			if f.Changed("ticker") {
				cfg.Runner.Ticker = ticker
			}
			if f.Changed("interval") {
				cfg.Runner.IntervalMinutes = interval
			}
			if f.Changed("mode") {
				cfg.Runner.Mode = mode
			}
			if f.Changed("encrypt") {
				cfg.Runner.Encrypt = encrypt
			}
			if f.Changed("results-dir") {
				cfg.Runner.ResultsDir = resultsDir
			}
			if f.Changed("producer") {
				cfg.Runner.ProducerCommand = producer
			}
			if cfg.Runner.ProducerCommand == "" {
				return fmt.Errorf("no producer configured: set --producer or runner.producer_command")
			}
			analyzer, err := analysis.ParseCommand(cfg.Runner.ProducerCommand)
			if err != nil {
				return err
			}

			store, km, logger := buildStore(cfg, cfgErr)
			defer km.Destroy()

			r := runner.New(
				analyzer,
				store,
				logger,
				cfg.Runner.Encrypt,
				time.Duration(cfg.Runner.IntervalMinutes)*time.Minute,
			)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info().
				Str("ticker", cfg.Runner.Ticker).
				Str("mode", cfg.Runner.Mode).
				Bool("encrypt", cfg.Runner.Encrypt).
				Msg("initializing real-time runner")

			switch cfg.Runner.Mode {
			case "once":
				return r.RunOnce(ctx, cfg.Runner.Ticker)
			case "loop":
				return r.RunLoop(ctx, cfg.Runner.Ticker)
			default:
				return fmt.Errorf("unknown mode %q (want once or loop)", cfg.Runner.Mode)
			}
		},
	}
	cmd.Flags().StringVar(&ticker, "ticker", "RELIANCE.NS", "ticker symbol to analyze")
	cmd.Flags().IntVar(&interval, "interval", 60, "interval in minutes between runs")
	cmd.Flags().StringVar(&mode, "mode", "once", "run mode: once or loop")
	cmd.Flags().BoolVar(&encrypt, "encrypt", false, "encrypt output files")
	cmd.Flags().StringVar(&resultsDir, "results-dir", "./results", "directory to save results")
	cmd.Flags().StringVar(&producer, "producer", "", "external producer command")
	return cmd
}

func analyzeCmd() *cobra.Command {
	var (
		encrypt    bool
		resultsDir string
		producer   string
	)
	cmd := &cobra.Command{
		Use:   "analyze <ticker> [date]",
		Short: "Run one on-demand analysis for a ticker and date.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := config.Load()
			f := cmd.Flags()
			if f.Changed("encrypt") {
				cfg.Runner.Encrypt = encrypt
			}
			if f.Changed("results-dir") {
				cfg.Runner.ResultsDir = resultsDir
			}
			if f.Changed("producer") {
				cfg.Runner.ProducerCommand = producer
			}
			if cfg.Runner.ProducerCommand == "" {
				return fmt.Errorf("no producer configured: set --producer or runner.producer_command")
			}
			analyzer, err := analysis.ParseCommand(cfg.Runner.ProducerCommand)
			if err != nil {
				return err
			}

			store, km, logger := buildStore(cfg, cfgErr)
			defer km.Destroy()

			r := runner.New(analyzer, store, logger, cfg.Runner.Encrypt, 0)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			date := ""
			if len(args) == 2 {
				date = args[1]
			}
			return r.RunOnDemand(ctx, args[0], date)
		},
	}
	cmd.Flags().BoolVar(&encrypt, "encrypt", false, "encrypt output files")
	cmd.Flags().StringVar(&resultsDir, "results-dir", "./results", "directory to save results")
	cmd.Flags().StringVar(&producer, "producer", "", "external producer command")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent live runs, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := config.Load()
			store, km, _ := buildStore(cfg, cfgErr)
			defer km.Destroy()

			entries, err := store.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no live run data found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTICKER\tACTION\tDECISION")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					e.Doc.Timestamp.Format(time.RFC3339),
					e.Doc.Ticker,
					e.Doc.DecisionAction(),
					e.Doc.DecisionSummary(),
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of runs to list")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <path>",
		Short: "Load one artifact, decrypting transparently if needed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := config.Load()
			store, km, _ := buildStore(cfg, cfgErr)
			defer km.Destroy()

			doc, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func reportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reports [ticker] [date]",
		Short: "Browse historical markdown reports.",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := config.Load()
			store, km, _ := buildStore(cfg, cfgErr)
			defer km.Destroy()

			switch len(args) {
			case 0:
				tickers, err := store.Tickers()
				if err != nil {
					return err
				}
				for _, t := range tickers {
					fmt.Println(t)
				}
			case 1:
				dates, err := store.Dates(args[0])
				if err != nil {
					return err
				}
				for _, d := range dates {
					fmt.Println(d)
				}
			case 2:
				reports, err := store.Reports(args[0], args[1])
				if err != nil {
					return err
				}
				if len(reports) == 0 {
					fmt.Println("no reports found for this date")
					return nil
				}
				for name, content := range reports {
					fmt.Printf("## %s\n\n%s\n\n", name, content)
				}
			}
			return nil
		},
	}
}

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new encryption key.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := security.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Println(key)
			fmt.Fprintln(os.Stderr, "export this as ENCRYPTION_KEY so every process derives the same cipher")
			return nil
		},
	}
}

func encryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <file>",
		Short: "Encrypt a file in place with the configured key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := config.Load()
			_, km, logger := buildStore(cfg, cfgErr)
			defer km.Destroy()

			if err := km.Cipher().EncryptFile(args[0]); err != nil {
				return err
			}
			logger.Info().Str("path", args[0]).Msg("file encrypted")
			return nil
		},
	}
}

func decryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <file>",
		Short: "Decrypt a file with the configured key and print the plaintext.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := config.Load()
			_, km, _ := buildStore(cfg, cfgErr)
			defer km.Destroy()

			plaintext, err := km.Cipher().DecryptFile(args[0])
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(plaintext)
			return err
		},
	}
}
