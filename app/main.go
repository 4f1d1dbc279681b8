package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/shade/app/server"
	"github.com/umputun/shade/app/store"
)

var opts struct {
	DB string `short:"d" long:"db" env:"SHADE_DB" default:"shade.db" description:"database URL (sqlite file or postgres://...)"`

	Server struct {
		Address         string        `long:"address" env:"ADDRESS" default:":8480" description:"server listen address"`
		BaseURL         string        `long:"base-url" env:"BASE_URL" description:"base URL path for reverse proxy (e.g., /shade)"`
		ReadTimeout     time.Duration `long:"read-timeout" env:"READ_TIMEOUT" default:"5s" description:"read timeout"`
		WriteTimeout    time.Duration `long:"write-timeout" env:"WRITE_TIMEOUT" default:"30s" description:"write timeout"`
		IdleTimeout     time.Duration `long:"idle-timeout" env:"IDLE_TIMEOUT" default:"60s" description:"idle timeout"`
		ShutdownTimeout time.Duration `long:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT" default:"5s" description:"graceful shutdown timeout"`
	} `group:"server" namespace:"server" env-namespace:"SHADE_SERVER"`

	Auth struct {
		File      string        `long:"file" env:"FILE" description:"auth config file with users (enables auth)"`
		HotReload bool          `long:"hot-reload" env:"HOT_RELOAD" description:"reload auth config on file change"`
		LoginTTL  time.Duration `long:"login-ttl" env:"LOGIN_TTL" default:"720h" description:"login session TTL"`
	} `group:"auth" namespace:"auth" env-namespace:"SHADE_AUTH"`

	Cache struct {
		Enabled bool `long:"enabled" env:"ENABLED" description:"enable in-memory preference cache"`
		MaxKeys int  `long:"max-keys" env:"MAX_KEYS" default:"1000" description:"max visitors kept in cache"`
	} `group:"cache" namespace:"cache" env-namespace:"SHADE_CACHE"`

	Retention struct {
		Interval time.Duration `long:"interval" env:"INTERVAL" default:"24h" description:"stale preference purge interval (0 disables)"`
		MaxAge   time.Duration `long:"max-age" env:"MAX_AGE" default:"8760h" description:"drop preferences untouched longer than this (0 disables)"`
	} `group:"retention" namespace:"retention" env-namespace:"SHADE_RETENTION"`

	Limits struct {
		BodySize       int64 `long:"body-size" env:"BODY_SIZE" default:"65536" description:"max request body size in bytes"`
		RequestsPerSec int64 `long:"requests-per-sec" env:"REQUESTS_PER_SEC" default:"100" description:"max requests per second"`
		LoginAttempts  int64 `long:"login-attempts" env:"LOGIN_ATTEMPTS" default:"5" description:"max concurrent login attempts"`
	} `group:"limits" namespace:"limits" env-namespace:"SHADE_LIMITS"`

	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `long:"version" description:"show version and exit"`
}

var revision = "unknown"

func main() {
	fmt.Printf("shade %s\n", revision)

	p := flags.NewParser(&opts, flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			p.WriteHelp(os.Stderr)
			os.Exit(2)
		}
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	if opts.Version {
		os.Exit(0)
	}

	setupLogs(opts.Debug)

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel)

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	baseURL, err := validateBaseURL(opts.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	log.Printf("[INFO] starting shade server on %s", opts.Server.Address)
	if baseURL != "" {
		log.Printf("[INFO] base URL: %s", baseURL)
	}
	if opts.Auth.File != "" {
		log.Printf("[INFO] authentication enabled, config: %s", opts.Auth.File)
	}

	// initialize storage
	dataStore, err := store.New(opts.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer dataStore.Close()

	// optional read-through cache in front of the database
	var prefStore server.PrefStore = dataStore
	if opts.Cache.Enabled {
		cached, cacheErr := store.NewCached(dataStore, opts.Cache.MaxKeys)
		if cacheErr != nil {
			return fmt.Errorf("failed to initialize cache: %w", cacheErr)
		}
		prefStore = cached
		log.Printf("[INFO] preference cache enabled, max keys: %d", opts.Cache.MaxKeys)
	}

	// initialize HTTP server, sessions always go to the database directly
	srv, err := server.New(prefStore, dataStore, server.Config{
		Address:          opts.Server.Address,
		ReadTimeout:      opts.Server.ReadTimeout,
		WriteTimeout:     opts.Server.WriteTimeout,
		IdleTimeout:      opts.Server.IdleTimeout,
		ShutdownTimeout:  opts.Server.ShutdownTimeout,
		Version:          revision,
		AuthFile:         opts.Auth.File,
		AuthHotReload:    opts.Auth.HotReload,
		LoginTTL:         opts.Auth.LoginTTL,
		BaseURL:          baseURL,
		BodySizeLimit:    opts.Limits.BodySize,
		RequestsPerSec:   opts.Limits.RequestsPerSec,
		LoginConcurrency: opts.Limits.LoginAttempts,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	// drop preferences of visitors who never came back
	retention := server.NewRetention(prefStore, server.RetentionConfig{
		Interval: opts.Retention.Interval,
		MaxAge:   opts.Retention.MaxAge,
	})
	go retention.Run(ctx)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// validateBaseURL checks the base URL is empty or an absolute path and
// returns the normalized form without a trailing slash.
func validateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}
	if !strings.HasPrefix(baseURL, "/") {
		return "", fmt.Errorf("base URL must start with /, got %q", baseURL)
	}
	return strings.TrimSuffix(baseURL, "/"), nil
}

func setupLogs(dbg bool) io.Writer {
	log.Setup(log.Msec)
	if dbg {
		log.Setup(log.Debug, log.CallerFunc, log.CallerPkg, log.CallerFile)
	}
	return os.Stdout
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			switch sig {
			case syscall.SIGQUIT:
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
			case syscall.SIGTERM, syscall.SIGINT:
				cancel()
			}
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
