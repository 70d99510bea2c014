// rd — инструмент командной строки для сервера заданий:
// executions (follow, kill, list) и SCM проектов.
//
// Использование:
//
//	rd [--config FILE] [--url URL] [--format text|json|yaml] [--no-color] [--verbose] <command> <subcommand> [flags]
//
// Команды:
//
//	executions  Просмотр и управление executions
//	scm         Управление SCM проекта
//
// Код выхода: 0 — успех, 1 — ошибка или отрицательный результат команды.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/rd-cli/internal/cli"
	"github.com/shaiso/rd-cli/internal/client"
	"github.com/shaiso/rd-cli/internal/config"
	"github.com/shaiso/rd-cli/internal/domain"
	"github.com/shaiso/rd-cli/internal/mq"
	"github.com/shaiso/rd-cli/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

// globalFlags — PersistentFlags корневой команды.
type globalFlags struct {
	configPath string
	url        string
	format     string
	noColor    bool
	verbose    bool

	notifyURL   string
	metricsFile string
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var flags globalFlags
	logger := slog.Default()
	var env *cli.Env
	var conn *mq.Connection
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:           "rd",
		Short:         "rd — command-line client for the job server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = telemetry.SetupLogger(os.Stderr, flags.verbose)
			cmd.SetContext(telemetry.WithLogger(cmd.Context(), logger))

			var err error
			cfg, err = loadConfig(flags)
			if err != nil {
				return err
			}

			metrics := telemetry.NewMetrics()
			env = &cli.Env{
				Client: client.New(client.Options{
					URL:        cfg.URL,
					Token:      cfg.Token,
					APIVersion: cfg.APIVersion,
					UserAgent:  "rd-cli/" + version,
					Logger:     logger,
					Metrics:    metrics,
				}),
				Out:            cli.NewOutput(cfg.Format, cfg.Color),
				DefaultProject: cfg.Project,
				Metrics:        metrics,
			}

			if cfg.NotifyURL != "" {
				conn, err = connectNotifier(cmd.Context(), cfg.NotifyURL, logger)
				if err != nil {
					// Команда выполняется и без публикации событий.
					logger.Warn("event notifications disabled", "error", err)
				} else {
					env.Notifier = mq.NewPublisher(conn, logger)
				}
			}

			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.DefaultPath(), "Config file path")
	pf.StringVar(&flags.url, "url", "", "Server URL (overrides config and RD_URL)")
	pf.StringVar(&flags.format, "format", "", "Output format: text, json, yaml")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&flags.verbose, "verbose", false, "Enable debug logging")
	pf.StringVar(&flags.notifyURL, "notify-url", "", "AMQP URL for event notifications")
	pf.StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	envFn := func() *cli.Env { return env }

	rootCmd.AddCommand(
		cli.NewExecutionsCmd(envFn),
		cli.NewScmCmd(envFn),
	)

	executed, err := rootCmd.ExecuteContextC(ctx)

	if conn != nil {
		closeNotifier(logger, conn)
	}

	if env != nil && executed != nil {
		env.Metrics.ObserveCommand(executed.CommandPath(), commandResult(err))
		flushMetrics(logger, env.Metrics, cfg.MetricsFile)
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrUnsuccessful):
		return 1
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		if domain.IsInputError(err) && executed != nil {
			fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", executed.CommandPath())
		}
		return 1
	}
}

// loadConfig читает конфиг и применяет глобальные флаги поверх.
func loadConfig(flags globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	if flags.url != "" {
		cfg.URL = flags.url
	}
	if flags.format != "" {
		cfg.Format = flags.format
	}
	if flags.noColor {
		cfg.Color = false
	}
	if flags.notifyURL != "" {
		cfg.NotifyURL = flags.notifyURL
	}
	if flags.metricsFile != "" {
		cfg.MetricsFile = flags.metricsFile
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, &config.ValidationError{Errors: errs}
	}
	return cfg, nil
}

// connectNotifier подключается к брокеру и объявляет exchange событий.
func connectNotifier(ctx context.Context, url string, logger *slog.Logger) (*mq.Connection, error) {
	conn, err := mq.Dial(url, logger)
	if err != nil {
		return nil, err
	}
	if err := mq.SetupTopology(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// closeNotifier закрывает соединение с брокером.
func closeNotifier(logger *slog.Logger, conn io.Closer) {
	if err := conn.Close(); err != nil {
		logger.Warn("failed to close notifier connection", "error", err)
	}
}

// flushMetrics записывает метрики в path. Пустой path — ничего не делает.
// Ошибка записи на код выхода не влияет.
func flushMetrics(logger *slog.Logger, metrics *telemetry.Metrics, path string) {
	if path == "" {
		return
	}
	if err := metrics.WriteFile(path); err != nil {
		logger.Warn("failed to write metrics file", "path", path, "error", err)
	}
}

func commandResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, cli.ErrUnsuccessful):
		return "unsuccessful"
	default:
		return "error"
	}
}
