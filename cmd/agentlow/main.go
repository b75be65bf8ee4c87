// Package main is the entry point for the agentlow CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/agentlow/agentlow/internal/admin"
	"github.com/agentlow/agentlow/internal/cache"
	"github.com/agentlow/agentlow/internal/config"
	"github.com/agentlow/agentlow/internal/cron"
	"github.com/agentlow/agentlow/internal/reflect"
	"github.com/agentlow/agentlow/internal/runner"
	"github.com/agentlow/agentlow/internal/security"
	"github.com/agentlow/agentlow/internal/session"
	"github.com/agentlow/agentlow/internal/tool"
	"github.com/agentlow/agentlow/internal/workspace"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agentlow",
		Short:         "A sandboxed tool-execution engine for local LLM agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().StringP("workspace", "w", "", "Workspace root (overrides config)")
	root.AddCommand(versionCmd(), toolsCmd(), execCmd(), cacheCmd(), configCmd(), reflectCmd(), serveCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("agentlow %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List available tools and their schemas",
		RunE: func(_ *cobra.Command, _ []string) error {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(tool.Schemas())
		},
	}
}

func execCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <tool>",
		Short: "Execute a single tool call and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawArgs, _ := cmd.Flags().GetString("args")

			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			res := env.executor.ExecuteRaw(cmd.Context(), args[0], json.RawMessage(rawArgs))

			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			if res.IsError() {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("args", "{}", "Tool arguments as a JSON object")
	return cmd
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Response cache management",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print cache statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()
			if env.cache == nil {
				return fmt.Errorf("cache is disabled")
			}

			stats, err := env.cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cache entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()
			if env.cache == nil {
				return fmt.Errorf("cache is disabled")
			}

			removed, err := env.cache.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d entries\n", removed)
			return nil
		},
	})

	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Derive the cache key for a request (debugging)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, _ := cmd.Flags().GetString("model")
			messages, _ := cmd.Flags().GetString("messages")
			tools, _ := cmd.Flags().GetString("tools")

			key, err := cache.MakeKey(model, json.RawMessage(messages), json.RawMessage(tools))
			if err != nil {
				return err
			}
			fmt.Println(key)
			return nil
		},
	}
	keyCmd.Flags().String("model", "", "Model name")
	keyCmd.Flags().String("messages", "[]", "Messages as JSON")
	keyCmd.Flags().String("tools", "[]", "Tool schemas as JSON")
	cmd.AddCommand(keyCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()
			if env.cache == nil {
				return fmt.Errorf("cache is disabled")
			}

			removed, err := env.cache.PruneExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d expired entries\n", removed)
			return nil
		},
	})

	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Println("Configuration OK")
			return nil
		},
	})
	return cmd
}

func reflectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reflect",
		Short: "Parse a reflection document from stdin and print the normalized form",
		RunE: func(_ *cobra.Command, _ []string) error {
			text, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}

			r, err := reflect.Parse(string(text))
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin server and background maintenance jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			if env.cache != nil {
				admin.RegisterCacheCollectors(env.registry, env.cache)
			}

			sessions := session.NewRegistry()
			if _, err := sessions.Create("main", env.cfg.Model); err != nil {
				return err
			}

			srv := admin.NewServer(admin.Config{Bind: env.cfg.Admin.Bind}, env.logger, env.cache, sessions, env.audit, env.registry)
			if err := srv.Start(); err != nil {
				return err
			}

			scheduler := cron.NewScheduler(env.logger)
			if env.cache != nil {
				job := &cron.CachePruneJob{
					Cache:        env.cache,
					Audit:        env.audit,
					Logger:       env.logger,
					ScheduleExpr: env.cfg.Admin.PruneSchedule,
				}
				if err := scheduler.RegisterJob(job); err != nil {
					return err
				}
			}
			if err := scheduler.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := scheduler.Stop(shutdownCtx); err != nil {
				env.logger.Error("scheduler stop failed", "error", err)
			}
			return srv.Stop(shutdownCtx)
		},
	}
}

// env bundles the wired collaborators the commands share.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	executor *tool.Executor
	cache    *cache.Cache
	audit    *security.AuditLogger
	registry *prometheus.Registry

	auditFile *os.File
}

func (e *env) close() {
	if e.cache != nil {
		_ = e.cache.Close()
	}
	if e.auditFile != nil {
		_ = e.auditFile.Close()
	}
}

// buildEnv loads configuration and wires the workspace, policy, runner,
// audit log, cache, and executor.
func buildEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if ws, _ := cmd.Flags().GetString("workspace"); ws != "" {
		cfg.Workspace = ws
	}
	if cfg.Workspace == "" {
		cfg.Workspace, _ = os.Getwd()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ws, err := workspace.New(cfg.Workspace)
	if err != nil {
		return nil, err
	}
	if err := ws.EnsureStructure(); err != nil {
		return nil, err
	}
	guard, err := workspace.NewGuard(ws)
	if err != nil {
		return nil, err
	}

	auditFile, err := os.OpenFile(ws.AuditLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	audit := security.NewAuditLogger(security.AuditLoggerConfig{Writer: auditFile})

	var store *cache.Cache
	if cfg.Cache.IsEnabled() {
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = ws.CacheDir()
		}
		store, err = cache.Open(dir, cfg.Cache.TTL(), logger)
		if err != nil {
			_ = auditFile.Close()
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()

	executor := tool.New(tool.Config{
		Guard:   guard,
		Policy:  security.NewPolicy(cfg.Security.AllowExtra, cfg.Security.ForbidExtra),
		Runner:  runner.New(),
		Audit:   audit,
		Metrics: tool.NewMetrics(registry),
		Timeouts: tool.Timeouts{
			Shell:  time.Duration(cfg.Timeouts.ShellSeconds) * time.Second,
			HTTP:   time.Duration(cfg.Timeouts.HTTPSeconds) * time.Second,
			Git:    time.Duration(cfg.Timeouts.GitSeconds) * time.Second,
			Docker: time.Duration(cfg.Timeouts.DockerSeconds) * time.Second,
		},
		Logger: logger,
	})

	return &env{
		cfg:       cfg,
		logger:    logger,
		executor:  executor,
		cache:     store,
		audit:     audit,
		registry:  registry,
		auditFile: auditFile,
	}, nil
}

// loadConfig reads the configured or discovered config file, falling back to
// defaults when none exists.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = discoverConfigPath()
	}
	if path == "" {
		return &config.Config{}, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// discoverConfigPath searches standard locations for a config file.
// Search order: $XDG_CONFIG_HOME/agentlow/agentlow.yaml → ./agentlow.yaml
func discoverConfigPath() string {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "agentlow", "agentlow.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "agentlow", "agentlow.yaml"))
	}
	candidates = append(candidates, "agentlow.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
