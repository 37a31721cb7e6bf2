package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/nanowrimo/internal/cli/config"
	"github.com/conduit-lang/nanowrimo/internal/cli/ui"
	"github.com/conduit-lang/nanowrimo/pkg/nano/client"
	"github.com/conduit-lang/nanowrimo/pkg/nano/session"
)

// app is the state shared by every command of one invocation
type app struct {
	configPath string
	noColor    bool
	quiet      bool
	lenient    bool
	jsonOut    bool
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	store  session.Store
	closer io.Closer

	// prompt asks for missing credentials; nil disables prompting
	prompt func(cfg *config.Config) error
}

func newApp() *app {
	a := &app{logger: zap.NewNop()}
	if isTerminal(os.Stdin) {
		a.prompt = promptCredentials
	}
	return a
}

// setup loads configuration and builds the logger and token store
func (a *app) setup(ctx context.Context) error {
	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return err
	}
	if a.lenient {
		cfg.Decode.Lenient = true
	}
	if a.verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	a.logger = logger

	storeCfg := session.StoreConfig{DefaultTTL: cfg.Session.TTL, Prefix: cfg.Session.Prefix}
	switch cfg.Session.Backend {
	case config.BackendRedis:
		rs, err := session.NewRedisStore(ctx, session.RedisConfig{
			Addr:        cfg.Session.Redis.Addr,
			Password:    cfg.Session.Redis.Password,
			DB:          cfg.Session.Redis.DB,
			StoreConfig: storeCfg,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to session store: %w", err)
		}
		a.store, a.closer = rs, rs
	default:
		a.store = session.NewMemoryStoreWithConfig(storeCfg)
	}
	return nil
}

// teardown releases what setup acquired
func (a *app) teardown() {
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			a.logger.Warn("failed to close session store", zap.Error(err))
		}
		a.closer = nil
	}
	_ = a.logger.Sync()
}

func (a *app) clientOptions() []client.Option {
	opts := []client.Option{
		client.WithBaseURL(a.cfg.API.BaseURL),
		client.WithTimeout(a.cfg.API.Timeout),
		client.WithLogger(a.logger),
		client.WithTokenStore(a.store, a.cfg.Session.TTL),
	}
	if a.cfg.Decode.Lenient {
		opts = append(opts, client.WithLenientKinds())
	}
	return opts
}

// anonymous returns a client that does not log in
func (a *app) anonymous() (*client.Client, error) {
	return client.New(a.clientOptions()...)
}

// authenticated returns a logged in client, asking for credentials when
// none are configured and a terminal is attached
func (a *app) authenticated(ctx context.Context) (*client.Client, error) {
	if !a.cfg.HasCredentials() && a.prompt != nil {
		if err := a.prompt(a.cfg); err != nil {
			return nil, err
		}
	}
	if !a.cfg.HasCredentials() {
		return nil, errNoCredentials
	}

	var c *client.Client
	err := a.spin("Logging in as "+a.cfg.Auth.Identifier, func() error {
		var err error
		c, err = client.NewUser(ctx, a.cfg.Auth.Identifier, a.cfg.Auth.Secret, a.clientOptions()...)
		return err
	})
	return c, err
}

// spin runs fn behind a spinner on stderr unless output is quiet
func (a *app) spin(message string, fn func() error) error {
	quiet := a.quiet || a.jsonOut || !isTerminal(os.Stderr)
	return ui.WithSpinner(os.Stderr, message, quiet, a.noColor, fn)
}

type configError string

func (e configError) Error() string { return string(e) }

const errNoCredentials = configError("no credentials configured")

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

func promptCredentials(cfg *config.Config) error {
	answers := struct {
		Identifier string
		Secret     string
	}{Identifier: cfg.Auth.Identifier}

	qs := []*survey.Question{
		{
			Name:     "identifier",
			Prompt:   &survey.Input{Message: "Email or username:", Default: cfg.Auth.Identifier},
			Validate: survey.Required,
		},
		{
			Name:     "secret",
			Prompt:   &survey.Password{Message: "Password:"},
			Validate: survey.Required,
		},
	}
	if err := survey.Ask(qs, &answers); err != nil {
		return err
	}
	cfg.Auth.Identifier = answers.Identifier
	cfg.Auth.Secret = answers.Secret
	return nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
