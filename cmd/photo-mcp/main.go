package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ironsheep/photo-tools-mcp/internal/config"
	"github.com/ironsheep/photo-tools-mcp/internal/imaging"
	"github.com/ironsheep/photo-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("photo-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr; stdout carries the MCP protocol.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "export" {
		if err := runExport(ctx, cfg, logger, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger.Debug("starting photo MCP server", "version", Version, "build_time", BuildTime, "commit", GitCommit)

	srv := server.New(cfg, logger)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("photo-tools-mcp - MCP server for photo editing and export")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  photo-tools-mcp                 Serve MCP over stdin/stdout")
	fmt.Println("  photo-tools-mcp export -i in.jpg -o out.jpg [-p preset.yaml] [-format jpeg|png] [-quality 1-100] [-scale 0.5]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  PHOTO_MCP_LOG_LEVEL=debug|info|warn|error")
	fmt.Println("  PHOTO_MCP_PREVIEW_DEBOUNCE_MS      Quiet period before a preview renders (default 250)")
	fmt.Println("  PHOTO_MCP_PREVIEW_MAX_DIMENSION    Longest preview side in pixels (default 1024)")
	fmt.Println("  PHOTO_MCP_PREVIEW_QUALITY          Preview JPEG quality (default 80)")
	fmt.Println("  PHOTO_MCP_JPEG_QUALITY             Export JPEG quality (default 92)")
	fmt.Println("  PHOTO_MCP_MAX_SOURCE_MB            Largest accepted source (default 50)")
	fmt.Println("  PHOTO_MCP_MAX_OUTPUT_MEGAPIXELS    Largest scaled export (default 100)")
	fmt.Println("  PHOTO_MCP_HTTP_TIMEOUT_SECONDS     URL source timeout (default 30)")
}

func runExport(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	input := fs.String("i", "", "Input image path or URL")
	output := fs.String("o", "", "Output file path")
	presetPath := fs.String("p", "", "YAML edit preset")
	format := fs.String("format", "", "Output format: jpeg or png (default from preset, then output extension)")
	quality := fs.Int("quality", 0, "JPEG quality 1-100")
	scale := fs.Float64("scale", 0, "Output scale factor")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" || *output == "" {
		fs.PrintDefaults()
		return fmt.Errorf("-i and -o are required")
	}

	var params imaging.Parameters
	opts := imaging.ExportOptions{}
	if *presetPath != "" {
		preset, err := imaging.LoadPreset(*presetPath)
		if err != nil {
			return err
		}
		params = preset.Parameters()
		opts = preset.Export
	}

	switch {
	case *format != "":
		f, err := imaging.ParseFormat(*format)
		if err != nil {
			return err
		}
		opts.Format = f
	case opts.Format == "":
		f, err := imaging.ParseFormat(strings.TrimPrefix(filepath.Ext(*output), "."))
		if err != nil {
			f = imaging.FormatPNG
		}
		opts.Format = f
	}
	if *quality != 0 {
		opts.Quality = *quality
	}
	if opts.Quality == 0 {
		opts.Quality = cfg.JPEGQuality
	}
	if *scale != 0 {
		opts.Scale = *scale
	}
	opts.MaxPixels = cfg.MaxOutputPixels

	src, err := imaging.ParseSource(*input, &http.Client{Timeout: cfg.HTTPTimeout})
	if err != nil {
		return err
	}

	blob, err := imaging.ApplyEditsAndExport(ctx, src, params, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*output, blob.Data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	logger.Info("exported image", "source", src.String(), "output", *output,
		"format", opts.Format, "width", blob.Width, "height", blob.Height)
	return nil
}
