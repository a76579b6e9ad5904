package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"docbatch"
)

// Version is set at build time via ldflags.
var Version = "dev"

// serverFlags holds the command-line flags.
type serverFlags struct {
	config  string
	addr    string
	verbose bool
	version bool
}

func parseFlags(args []string) (*serverFlags, error) {
	flags := &serverFlags{}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.StringVarP(&flags.config, "config", "c", "", "path to YAML config file")
	fs.StringVarP(&flags.addr, "addr", "a", "", "listen address (overrides config)")
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "development logging")
	fs.BoolVar(&flags.version, "version", false, "print version and exit")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	return flags, nil
}

func main() {
	flags, err := parseFlags(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if flags.version {
		fmt.Println(Version)
		return
	}

	logger, err := newLogger(flags.verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(logger.Sugar().Debugf))

	if err := run(flags, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

// newLogger builds the process logger: JSON in production, console with
// debug level when --verbose is set.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(flags *serverFlags, logger *zap.Logger) error {
	cfg := DefaultConfig()
	if flags.config != "" {
		loaded, err := LoadConfig(flags.config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if flags.addr != "" {
		cfg.Addr = flags.addr
	}

	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}

	for _, dir := range []string{cfg.TemplatesDir, cfg.OutputDir, cfg.UploadsDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	svc := docbatch.NewService(docbatch.ServiceConfig{
		TemplatesDir:     cfg.TemplatesDir,
		OutputDir:        cfg.OutputDir,
		CounterFile:      cfg.CounterFile,
		FilenameColumn:   cfg.FilenameColumn,
		NoticeDateFormat: cfg.NoticeDateFormat,
	}, logger, docbatch.WithTimeout(timeout))
	defer func() { _ = svc.Close() }()

	if !flags.verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           docbatch.NewServer(svc, cfg.UploadsDir, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr))
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
