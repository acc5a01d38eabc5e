package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/reelmark/auth"
	"github.com/s0up4200/reelmark/config"
	"github.com/s0up4200/reelmark/directus"
	"github.com/s0up4200/reelmark/filter"
	"github.com/s0up4200/reelmark/media"
	"github.com/s0up4200/reelmark/session"
)

// app holds everything initializeApp wires together for the commands
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	backend   session.Backend
	store     *session.Store
	client    *directus.Client
	catalog   *media.Catalog
	bookmarks *media.Bookmarks
	auth      *auth.Flow
	filters   *filter.Manager
	stopWatch context.CancelFunc
}

var (
	cfgFile      string
	outputFormat string
	verbose      bool
	ephemeral    bool

	current *app
)

// skipInit marks commands that run without config or a session
const skipInit = "skip-init"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reelmark",
	Short: "Browse a Directus media library and manage your bookmarks",
	Long: `reelmark is a command line client for a Directus media library.

Log in, browse movies and TV shows, and keep track of the ones you want to
watch with bookmarks.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", directus.DisplayMessage(err))
		os.Exit(1)
	}
}

func init() {
	cobra.OnFinalize(shutdownApp)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ~/.reelmark/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", media.FormatText, "output format: text, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep the session in memory for this run only")
}

// initializeApp loads the configuration and builds the clients
func initializeApp(cmd *cobra.Command, args []string) error {
	if _, ok := cmd.Annotations[skipInit]; ok {
		return nil
	}

	switch outputFormat {
	case media.FormatText, media.FormatJSON, media.FormatYAML:
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if ephemeral {
		cfg.Session.Backend = config.BackendMemory
		cfg.Session.Watch = false
	}

	logger := setupLogger(cfg.Logging, os.Stderr)
	if cfg.File != "" {
		logger.Debug().Str("file", cfg.File).Msg("Loaded configuration")
	}

	ctx := cmd.Context()
	backend, err := openBackend(cfg.Session)
	if err != nil {
		return err
	}

	store, err := session.Open(ctx, backend, logger.With().Str("component", "session").Logger())
	if err != nil {
		closeBackend(backend)
		return err
	}

	opts := []directus.Option{
		directus.WithTimeout(cfg.Directus.Timeout),
		directus.WithRequestIDs(cfg.Directus.RequestIDs),
	}
	if cfg.Directus.UserAgent != "" {
		opts = append(opts, directus.WithUserAgent(cfg.Directus.UserAgent))
	}
	client, err := directus.NewClient(cfg.Directus.URL, store, logger.With().Str("component", "directus").Logger(), opts...)
	if err != nil {
		closeBackend(backend)
		return fmt.Errorf("failed to create Directus client: %w", err)
	}

	filters := filter.NewManager()
	if err := filters.RegisterFilters(cfg.Search.Presets); err != nil {
		closeBackend(backend)
		return fmt.Errorf("invalid search preset: %w", err)
	}

	catalog := media.NewCatalog(client, logger.With().Str("component", "catalog").Logger())
	bookmarks := media.NewBookmarks(client, catalog, logger.With().Str("component", "bookmarks").Logger())
	bookmarks.SetConcurrency(cfg.Bookmarks.Concurrency)

	flow := auth.NewFlow(client, store, logger.With().Str("component", "auth").Logger(), cfg.Directus.DefaultRole)
	flow.SetOnLoggedOut(func() {
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out. Run 'reelmark login' to sign in again.")
	})

	stopWatch := func() {}
	if fb, ok := backend.(*session.FileBackend); ok && cfg.Session.Watch {
		var wctx context.Context
		wctx, stopWatch = context.WithCancel(context.WithoutCancel(ctx))
		go func() {
			if err := store.Watch(wctx, fb.Path()); err != nil {
				logger.Warn().Err(err).Msg("Session watch disabled")
			}
		}()
	}

	current = &app{
		stopWatch: stopWatch,
		cfg:       cfg,
		logger:    logger,
		backend:   backend,
		store:     store,
		client:    client,
		catalog:   catalog,
		bookmarks: bookmarks,
		auth:      flow,
		filters:   filters,
	}
	return nil
}

// shutdownApp runs after every command, including failed ones
func shutdownApp() {
	if current != nil {
		if current.stopWatch != nil {
			current.stopWatch()
		}
		closeBackend(current.backend)
		current = nil
	}
}

// openBackend creates the configured session backend
func openBackend(cfg config.SessionConfig) (session.Backend, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return session.NewRedisBackend(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix), nil
	case config.BackendMemory:
		return session.NewMemoryBackend(), nil
	default:
		path := cfg.Path
		if path == "" {
			var err error
			if path, err = session.DefaultPath(); err != nil {
				return nil, fmt.Errorf("failed to resolve session path: %w", err)
			}
		}
		backend, err := session.NewFileBackend(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open session file: %w", err)
		}
		return backend, nil
	}
}

func closeBackend(backend session.Backend) {
	if c, ok := backend.(io.Closer); ok {
		c.Close()
	}
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if cfg.Format == "json" {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
		NoColor:    !cfg.Color || !isTerminal(out),
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// requireLogin fails when there is no session token
func requireLogin() error {
	if !current.store.Authenticated() {
		return errors.New("not logged in, run 'reelmark login' first")
	}
	return nil
}

// currentUserID returns the logged-in user's ID, read from the token when it
// is a JWT and fetched from the server otherwise
func currentUserID(ctx context.Context) (string, error) {
	if err := requireLogin(); err != nil {
		return "", err
	}
	if claims, err := session.PeekClaims(current.store.Token()); err == nil && claims.UserID != "" {
		return claims.UserID, nil
	}

	user, err := current.auth.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// render writes v in the selected structured format, or calls text for plain output
func render(cmd *cobra.Command, v any, text func() string) error {
	if outputFormat == media.FormatText {
		fmt.Fprint(cmd.OutOrStdout(), text())
		return nil
	}
	return media.Render(cmd.OutOrStdout(), outputFormat, v)
}
