package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/compstash/internal/config"
	"github.com/vk/compstash/internal/ctxlog"
	"github.com/vk/compstash/internal/gitrepo"
	"github.com/vk/compstash/internal/host"
	"github.com/vk/compstash/internal/hostlink"
	"github.com/vk/compstash/internal/registry"
	"github.com/vk/compstash/internal/tokens"
)

// HostDialer connects to a live host. The returned function releases the
// connection.
type HostDialer func(ctx context.Context, opts hostlink.Options) (host.Host, func() error, error)

// DialHostlink is the default HostDialer, a socket.io bridge.
func DialHostlink(ctx context.Context, opts hostlink.Options) (host.Host, func() error, error) {
	h, err := hostlink.Dial(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return h, h.Close, nil
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *config.Model
	cmd      *Config
	resolver *tokens.Resolver
	opener   *gitrepo.Opener
	dial     HostDialer
}

// NewApp is the constructor for the main application. Logs go to logW and
// command output to outW. Configuration failures are fatal and panic.
func NewApp(outW, logW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfgModel := config.Default()
	if appConfig.ConfigPath != "" {
		loaded, err := loader.Load(ctx, appConfig.ConfigPath)
		if err != nil {
			panic(fmt.Errorf("failed to load configuration: %w", err))
		}
		cfgModel = loaded
		logger.Debug("Configuration loaded.", "path", appConfig.ConfigPath)
	}
	if appConfig.ProjectFolder != "" {
		cfgModel.Project.Folder = appConfig.ProjectFolder
	}
	if appConfig.TokensFile != "" {
		cfgModel.TokensFile = appConfig.TokensFile
	}
	if err := config.Validate(cfgModel); err != nil {
		panic(err)
	}

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All class modules registered.", "count", len(modules), "classes", len(reg.Classes()))
	if cfgModel.Recursable != nil {
		reg.SetRecursable(registry.NewClassSet(cfgModel.Recursable...))
		for _, name := range cfgModel.Recursable {
			if !reg.Has(name) {
				logger.Warn("Recursable class is not registered.", "class", name)
			}
		}
	}

	var resolverOpts []tokens.Option
	if appConfig.OS != "" {
		resolverOpts = append(resolverOpts, tokens.WithOS(appConfig.OS))
	}

	table := tokens.Table{}
	if cfgModel.TokensFile != "" {
		// The table file location may use the inline tokens.
		inline := tokens.NewResolver(cfgModel.Tokens, resolverOpts...)
		loaded, err := tokens.LoadTable(inline.MustResolve(cfgModel.TokensFile))
		if err != nil {
			panic(fmt.Errorf("failed to load token table: %w", err))
		}
		table = loaded
	}
	table = table.Merge(cfgModel.Tokens)
	resolver := tokens.NewResolver(table, resolverOpts...)
	logger.Debug("Token table ready.", "tokens", table.Names())

	// The project folder may itself use tokens; a bad one is a config error.
	cfgModel.Project.Folder = resolver.MustResolve(cfgModel.Project.Folder)

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   cfgModel,
		cmd:      appConfig,
		resolver: resolver,
		opener: gitrepo.NewOpener(gitrepo.Author{
			Name:  cfgModel.Author.Name,
			Email: cfgModel.Author.Email,
		}),
		dial: DialHostlink,
	}
}

// WithHostDialer replaces the function used to reach the live host.
func (a *App) WithHostDialer(dial HostDialer) *App {
	a.dial = dial
	return a
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the effective configuration model.
func (a *App) Model() *config.Model {
	return a.config
}
