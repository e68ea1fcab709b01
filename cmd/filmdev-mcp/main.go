package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/filmdev-mcp/internal/config"
	"github.com/ironsheep/filmdev-mcp/internal/server"
	"github.com/ironsheep/filmdev-mcp/internal/session"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("filmdev-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("filmdev-mcp - MCP server for developing scanned film negatives")
			fmt.Println()
			fmt.Println("Usage: filmdev-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Printf("  %s=debug          Log level (debug, info, warn, error)\n", config.EnvLogLevel)
			fmt.Printf("  %s=960        Longest side of the preview proxy\n", config.EnvProxyMaxDim)
			fmt.Printf("  %s=5000000  Pixel count below which full resolution renders eagerly\n", config.EnvFullResThreshold)
			fmt.Printf("  %s=150          Quiet time before a parameter change renders\n", config.EnvDebounceMS)
			fmt.Printf("  %s=95          JPEG export quality\n", config.EnvJPEGQuality)
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, errs := config.FromEnv()

	// Logging goes to stderr (stdout is for MCP protocol)
	logger := config.NewLogger(cfg.LogLevel)
	for _, err := range errs {
		logger.WithError(err).Warn("Ignoring invalid setting")
	}
	logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"commit":     GitCommit,
		"proxy_max":  cfg.ProxyMaxDimension,
		"debounce":   cfg.Debounce,
	}).Debug("Film development MCP server starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Options{
		Session: session.Options{
			ProxyMaxDimension: cfg.ProxyMaxDimension,
			FullResThreshold:  cfg.FullResThreshold,
			Debounce:          cfg.Debounce,
			JPEGQuality:       cfg.JPEGQuality,
		},
		Logger:  logger,
		Version: Version,
	})
	defer srv.Close()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Fatal("Server error")
	}
}
