package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wakala/be2bill/internal/batch"
	"github.com/wakala/be2bill/internal/config"
	"github.com/wakala/be2bill/internal/directlink"
	"github.com/wakala/be2bill/internal/domain"
	"github.com/wakala/be2bill/internal/form"
	"github.com/wakala/be2bill/internal/logging"
	"github.com/wakala/be2bill/internal/sender"
)

// app holds what every command shares once setup has run.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *sender.Metrics
}

var a *app

func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	a = &app{
		cfg:      cfg,
		logger:   logger.With(zap.String("command", cmd.Name())),
		registry: registry,
		metrics:  sender.NewMetrics(registry),
	}
	return nil
}

func teardown(*cobra.Command, []string) {
	if a != nil {
		_ = a.logger.Sync()
	}
}

func configDescription() string {
	return config.Description()
}

func (a *app) credentials() (domain.Credentials, error) {
	if err := a.cfg.RequireCredentials(); err != nil {
		return domain.Credentials{}, err
	}
	return domain.Credentials{
		Identifier: a.cfg.Account.Identifier,
		Password:   a.cfg.Account.Password,
	}, nil
}

// environment applies custom URLs and the switch flag to the default
// gateway endpoints.
func (a *app) environment() (directlink.Environment, error) {
	env := directlink.DefaultEnvironment()
	if len(a.cfg.Gateway.URLs) > 0 {
		eps, err := domain.NewEndpoints(a.cfg.Gateway.URLs...)
		if err != nil {
			return env, fmt.Errorf("gateway urls: %w", err)
		}
		env.Production, env.Sandbox = eps, eps
	}
	if a.cfg.Gateway.Switch {
		env = env.SwitchProductionURLs()
	}
	return env, nil
}

func (a *app) client() (*directlink.Client, error) {
	creds, err := a.credentials()
	if err != nil {
		return nil, err
	}
	env, err := a.environment()
	if err != nil {
		return nil, err
	}

	s := sender.NewHTTP(
		sender.WithTimeout(a.cfg.Gateway.Timeout),
		sender.WithLogger(a.logger.Named("sender")),
		sender.WithMetrics(a.metrics),
	)
	opts := []directlink.Option{
		directlink.WithVersion(a.cfg.Gateway.Version),
		directlink.WithLogger(a.logger.Named("directlink")),
	}
	if a.cfg.Gateway.Environment == config.EnvProduction {
		return env.NewProductionClient(creds, s, opts...)
	}
	return env.NewSandboxClient(creds, s, opts...)
}

func (a *app) formClient() (*form.Client, error) {
	creds, err := a.credentials()
	if err != nil {
		return nil, err
	}
	env, err := a.environment()
	if err != nil {
		return nil, err
	}
	if a.cfg.Gateway.Environment == config.EnvProduction {
		return env.NewProductionFormClient(creds, form.WithVersion(a.cfg.Gateway.Version))
	}
	return env.NewSandboxFormClient(creds, form.WithVersion(a.cfg.Gateway.Version))
}

func (a *app) dialect() batch.Dialect {
	return batch.Dialect{Delimiter: a.cfg.Delimiter(), Enclosure: a.cfg.Enclosure()}
}

// parseAssignments turns KEY=VALUE arguments (KEY[SUB]=VALUE for nested
// values) into parameters.
func parseAssignments(args []string) (domain.Params, error) {
	values := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected KEY=VALUE, got %q", arg)
		}
		values.Add(key, value)
	}
	return domain.ParseForm(values), nil
}
