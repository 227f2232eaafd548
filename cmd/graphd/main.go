package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphd/graphd/internal/cache"
	"github.com/graphd/graphd/internal/config"
	"github.com/graphd/graphd/internal/engine"
	"github.com/graphd/graphd/internal/engine/cypher"
	"github.com/graphd/graphd/internal/engine/relational"
	"github.com/graphd/graphd/internal/server"
)

var (
	version   = "dev"
	cfgFile   string
	logFormat string
	logLevel  string
	logger    *slog.Logger
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "graphd",
		Short: "graphd — labelled property graph storage and impact analysis",
		Long:  "An HTTP service for storing, retrieving, and analyzing labelled property graphs across native Cypher, in-memory Cypher, and relational storage engines.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLogLevel(logLevel)
			if err != nil {
				return err
			}
			opts := &slog.HandlerOptions{Level: level}
			switch logFormat {
			case "json":
				logger = slog.New(slog.NewJSONHandler(os.Stderr, opts))
			case "text":
				logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
			default:
				return fmt.Errorf("invalid --log-format %q (use: text, json)", logFormat)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./graphd.yaml)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format (text, json)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		serveCmd(),
		enginesCmd(),
		queryCmd(),
		versionCmd(),
		completionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildRegistry opens every engine enabled in cfg, skipping (and warning
// about) any that fail to initialize, so one unreachable native database
// never prevents graphd from serving off the others.
func buildRegistry(cfg *config.Config) (*engine.Registry, error) {
	engines := make(map[string]engine.Engine)

	if cfg.Engines.Native.Enabled {
		e, err := cypher.NewEngine("native", cfg.Engines.Native.URI, cfg.Engines.Native.Username, cfg.Engines.Native.Password, cfg.Engines.Native.MultiDatabase, logger)
		if err != nil {
			logger.Warn("native engine unavailable", "error", err)
		} else {
			engines["native"] = e
		}
	}
	if cfg.Engines.Memory.Enabled {
		e, err := cypher.NewEngine("memory", cfg.Engines.Memory.URI, cfg.Engines.Memory.Username, cfg.Engines.Memory.Password, cfg.Engines.Memory.MultiDatabase, logger)
		if err != nil {
			logger.Warn("memory engine unavailable", "error", err)
		} else {
			engines["memory"] = e
		}
	}
	if cfg.Engines.Relational.Enabled {
		e, err := relational.NewEngine("relational", cfg.Engines.Relational.Path, logger)
		if err != nil {
			logger.Warn("relational engine unavailable", "error", err)
		} else {
			engines["relational"] = e
		}
	}

	registry := engine.NewRegistry(engines, cfg.Engines.Default)
	if !registry.HasDefault() {
		return nil, fmt.Errorf("configured default engine %q is not available", cfg.Engines.Default)
	}
	return registry, nil
}

// --- serve ---

func serveCmd() *cobra.Command {
	var listen string
	var readOnly bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}

			c, err := cache.New(cache.Config{MaxEntries: cfg.Cache.MaxEntries, TTL: cfg.Cache.TTL}, logger)
			if err != nil {
				return fmt.Errorf("building cache: %w", err)
			}

			if listen == "" {
				listen = cfg.Server.Listen
			}

			srv := server.New(registry, c, logger, listen, readOnly || cfg.Server.ReadOnly, cfg.Server.APIToken, cfg.Server.CORSOrigin)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
				_ = registry.Close()
			}()

			return srv.Start()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config or :8080)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "disable mutating routes")
	return cmd
}

// --- engines ---

func enginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List configured storage engines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			defer registry.Close() //nolint:errcheck // best-effort cleanup

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tDEFAULT\tRAW QUERY")
			for _, name := range registry.Names() {
				eng, _ := registry.Resolve(name)
				_, _ = fmt.Fprintf(w, "%s\t%v\t%v\n", name, name == registry.Default(), eng.SupportsRawQuery())
			}
			return w.Flush()
		},
	}
}

// --- query ---

func queryCmd() *cobra.Command {
	var engineName, database string

	cmd := &cobra.Command{
		Use:   "query <cypher-or-sql>",
		Short: "Run a raw query against a configured engine and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			defer registry.Close() //nolint:errcheck // best-effort cleanup

			eng, err := registry.Resolve(engineName)
			if err != nil {
				return err
			}
			if !eng.SupportsRawQuery() {
				return fmt.Errorf("engine %q does not support raw queries", eng.Name())
			}

			result, err := eng.ExecuteRawQuery(cmd.Context(), database, args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, strings.Join(result.Columns, "\t"))
			for _, row := range result.Rows {
				cells := make([]string, len(row))
				for i, v := range row {
					cells[i] = fmt.Sprintf("%v", v)
				}
				_, _ = fmt.Fprintln(w, strings.Join(cells, "\t"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&engineName, "engine", "", "engine to query (default: configured default engine)")
	cmd.Flags().StringVar(&database, "database", "", "database/namespace to query within")
	return cmd
}

// --- version ---

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("graphd %s\n", version)
		},
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid --log-level %q (use: debug, info, warn, error)", s)
	}
}

func completionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for graphd.

Bash:
  $ source <(graphd completion bash)
  $ graphd completion bash > /etc/bash_completion.d/graphd

Zsh:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  $ graphd completion zsh > "${fpath[1]}/_graphd"

Fish:
  $ graphd completion fish | source
  $ graphd completion fish > ~/.config/fish/completions/graphd.fish

PowerShell:
  PS> graphd completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
