package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"invoicedesk/internal/docset"
	"invoicedesk/internal/extract"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	fs := ff.NewFlagSet("invoicedesk")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		dbPath         = fs.StringLong("db", "invoicedesk.db", "Database file path")
		storagePath    = fs.StringLong("storage", "./uploads", "Storage directory for uploaded documents")
		extractorType  = fs.StringLong("extractor", "gemini", "Extraction collaborator: 'gemini' or 'remote'")
		pdfURL         = fs.StringLong("pdf-url", "", "Remote extraction endpoint for PDFs")
		imageURL       = fs.StringLong("image-url", "", "Remote extraction endpoint for images")
		extractTimeout = fs.DurationLong("extract-timeout", 2*time.Minute, "Client-side timeout for remote extraction calls")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICEDESK"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.Info("Initializing database...")
	db, err := docset.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var dispatcher extract.Dispatcher
	switch *extractorType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
		gemini, err := extract.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
		dispatcher = extract.Dispatcher{Documents: gemini, Images: gemini}
	case "remote":
		if *pdfURL == "" || *imageURL == "" {
			slog.Error("Remote extractor requires --pdf-url and --image-url")
			os.Exit(1)
		}
		slog.Info("Using remote extraction service", "pdf_url", *pdfURL, "image_url", *imageURL, "timeout", *extractTimeout)
		dispatcher = extract.Dispatcher{
			Documents: extract.NewRemote(*pdfURL, *extractTimeout),
			Images:    extract.NewRemote(*imageURL, *extractTimeout),
		}
	default:
		slog.Error("Invalid extractor type", "type", *extractorType, "valid", "gemini or remote")
		os.Exit(1)
	}
	defer dispatcher.Close()

	slog.Info("Initializing storage...")
	store, err := docset.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	service := docset.NewService(db, store, dispatcher)
	server := docset.NewServer(service, docset.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	})

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
