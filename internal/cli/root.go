// cli — хост движка комментариев для командной строки: команды cobra
// поверх Engine Registry.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pribylovaa/comments-engine/internal/clients"
	"github.com/pribylovaa/comments-engine/internal/clients/interceptors"
	"github.com/pribylovaa/comments-engine/internal/config"
	"github.com/pribylovaa/comments-engine/internal/metrics"
	"github.com/pribylovaa/comments-engine/internal/registry"
	"github.com/pribylovaa/comments-engine/internal/service"
	"github.com/pribylovaa/comments-engine/pkg/log"
)

// RootOptions — глобальные флаги и внедряемые зависимости.
type RootOptions struct {
	ConfigPath string
	Format     string // "text" | "json" | "yaml"
	Metrics    bool
	Token      string

	transport http.RoundTripper
	logger    *slog.Logger
}

// ValidFormats — допустимые форматы вывода.
var ValidFormats = []string{"text", "json", "yaml"}

// Option настраивает корневую команду.
type Option func(*RootOptions)

// WithTransport подменяет транспорт нижнего уровня (тесты).
func WithTransport(rt http.RoundTripper) Option {
	return func(o *RootOptions) { o.transport = rt }
}

// WithLogger задаёт логгер вместо собранного по cfg.Env.
func WithLogger(l *slog.Logger) Option {
	return func(o *RootOptions) { o.logger = l }
}

// NewRootCommand создаёт корневую команду commentsctl.
func NewRootCommand(options ...Option) *cobra.Command {
	opts := &RootOptions{}
	for _, o := range options {
		o(opts)
	}

	cmd := &cobra.Command{
		Use:   "commentsctl",
		Short: "Threaded comments client",
		Long: `Operator client for the threaded comments backend.

Loads comment threads page by page, prints the flattened reply tree and
posts, deletes or reports comments.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "dump Prometheus metrics to stderr on exit")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "auth token for this invocation (overrides backend.auth_token)")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewPostCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))

	return cmd
}

// Execute запускает CLI и возвращает код выхода.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, options ...Option) int {
	cmd := NewRootCommand(options...)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return GetExitCode(err)
	}

	return ExitSuccess
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// engine — собранные на одну команду зависимости.
type engine struct {
	cfg     *config.Config
	reg     *registry.Registry
	prom    *prometheus.Registry
	clients *clients.Clients
}

// open загружает конфигурацию и собирает реестр движков.
func (o *RootOptions) open(cmd *cobra.Command) (context.Context, *engine, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "load config", err)
	}

	lg := o.logger
	if lg == nil {
		lg = setupLogger(cfg.Env, cmd.ErrOrStderr())
	}

	prom := prometheus.NewRegistry()
	m := metrics.New(prom)

	cl, err := clients.New(*cfg, lg, m, o.transport)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "build backend client", err)
	}

	ctx := log.Into(cmd.Context(), lg)
	if o.Token != "" {
		ctx = interceptors.WithAuthToken(ctx, o.Token)
	}

	return ctx, &engine{
		cfg:     cfg,
		reg:     registry.New(cl.Backend, m, *cfg),
		prom:    prom,
		clients: cl,
	}, nil
}

// runFunc — тело команды. threadID уже зарегистрирован в реестре.
type runFunc func(ctx context.Context, e *engine, ctl *service.Controller, cmd *cobra.Command, args []string) error

// run собирает движок, регистрирует ветку из первого аргумента, достаёт
// её контроллер через реестр и выполняет fn. Метрики выводятся и при ошибке.
func (o *RootOptions) run(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx, e, err := o.open(cmd)
		if err != nil {
			return err
		}
		defer e.clients.Close()

		if o.Metrics {
			defer func() {
				if derr := dumpMetrics(cmd.ErrOrStderr(), e.prom); derr != nil && err == nil {
					err = WrapExitError(ExitFailure, "dump metrics", derr)
				}
			}()
		}

		threadID := args[0]
		if _, _, err := e.reg.Open(threadID); err != nil {
			return WrapExitError(ExitCommandError, "open thread", err)
		}

		_, ctl, err := e.reg.Resolve(ctx, threadID)
		if err != nil {
			return WrapExitError(ExitFailure, "resolve thread", err)
		}

		return fn(ctx, e, ctl, cmd, args)
	}
}

// exactArgs — cobra.ExactArgs с кодом выхода ошибки использования.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}
