// Package main is the ChatNova CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/chatnova/internal/cli"
	"github.com/hyperjump/chatnova/internal/config"
	"github.com/hyperjump/chatnova/internal/ingest"
	"github.com/hyperjump/chatnova/internal/models"
	"github.com/hyperjump/chatnova/internal/prompt"
	"github.com/hyperjump/chatnova/internal/server"
	"github.com/hyperjump/chatnova/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/chatnova/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// When the default path does not exist either, the built-in defaults are used.
// Returns the config and the path that was actually loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, "", err
	}
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg, err := config.Default()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// loadValidConfig is loadConfig followed by Validate.
func loadValidConfig(path string) (*config.Config, string, error) {
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, resolved, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "chat":
		runChat()
	case "providers":
		runProviders()
	case "version", "--version", "-v":
		fmt.Printf("chatnova version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, extraction strategies, provider calls)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadValidConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, nil)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defaultProvider := models.ProviderID(cfg.Dispatch.DefaultProvider)
	if !components.Dispatcher.Has(defaultProvider) {
		logger.Fatal("Default provider is not available",
			zap.String("provider", string(defaultProvider)),
			zap.String("env", cfg.Providers[string(defaultProvider)].APIKeyEnv))
	}

	srv := server.NewServer(
		cfg,
		components.Ingestor,
		components.Composer,
		components.Personas,
		components.Dispatcher,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	mimeType := fs.String("type", "", "MIME type for every file (default: inferred from the extension)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: chatnova ingest [flags] <file>...")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, err := loadValidConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewCommandLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, nil)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	results, err := ingestPaths(context.Background(), components.Ingestor, fs.Args(), *mimeType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteIngestResults(os.Stdout, results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	for _, r := range results {
		if r.Err != nil {
			os.Exit(1)
		}
	}
}

// ingestPaths ingests local files as one batch. A path that cannot be stat'ed fails the whole call.
func ingestPaths(ctx context.Context, in *ingest.Ingestor, paths []string, mimeType string) ([]ingest.BatchResult, error) {
	files := make([]ingest.File, 0, len(paths))
	for _, p := range paths {
		f, err := ingest.PathFile(p, mimeType)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return in.IngestBatch(ctx, files), nil
}

// fileFlags collects repeated -file flags.
type fileFlags []string

func (f *fileFlags) String() string { return strings.Join(*f, ",") }

func (f *fileFlags) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func printChatUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: chatnova chat [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Files given with -file are ingested locally and sent along with the query.

Examples:
  chatnova chat what is the capital of France
  chatnova chat -model gemini -file report.pdf "summarize this"
  chatnova chat -server "" -file notes.txt what does it say   # no running server needed
`)
}

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "chatnova chat \"query\" -model gemini"
// would otherwise leave -model unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = dispatch directly without a running server)")
	model := fs.String("model", "", "provider to ask (default: dispatch.default_provider)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	var files fileFlags
	fs.Var(&files, "file", "file to attach (repeatable)")
	fs.Usage = func() { printChatUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	query := buildQuery(fs.Args())
	if query == "" {
		printChatUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, _, err := loadValidConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewCommandLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, nil)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ChatTimeout)
	defer cancel()

	req := &models.ChatRequest{
		Messages:      []models.ConversationMessage{models.NewMessage(models.RoleUser, query)},
		SelectedModel: models.ProviderID(*model),
	}
	if len(files) > 0 {
		results, err := ingestPaths(ctx, components.Ingestor, files, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
			os.Exit(1)
		}
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", r.Err)
				os.Exit(1)
			}
			req.UploadedFiles = append(req.UploadedFiles, *r.Document)
		}
	}

	var resp *models.ChatResponse
	if *serverURL != "" {
		resp, err = chatViaHTTP(ctx, *serverURL, req)
	} else {
		resp, err = chatDirect(ctx, cfg, components, req)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteChatResponse(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func chatViaHTTP(ctx context.Context, serverURL string, chatReq *models.ChatRequest) (*models.ChatResponse, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(serverURL, "/")+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr models.ErrorResponse
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Details != "" {
				return nil, fmt.Errorf("server returned %d: %s: %s", resp.StatusCode, apiErr.Error, apiErr.Details)
			}
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// chatDirect runs the same pipeline as POST /api/chat in process.
func chatDirect(ctx context.Context, cfg *config.Config, c *Components, req *models.ChatRequest) (*models.ChatResponse, error) {
	if err := req.Validate(models.ProviderID(cfg.Dispatch.DefaultProvider)); err != nil {
		return nil, err
	}
	docs := prompt.CollectDocuments(req.UploadedFiles, req.Messages)
	composed := c.Composer.Compose(c.Personas.Lookup(req.SelectedModel), docs, req.Messages, prompt.LatestUserQuery(req.Messages))
	resp, err := c.Dispatcher.Dispatch(ctx, composed, req.SelectedModel)
	if err != nil {
		return nil, err
	}
	return &models.ChatResponse{Role: resp.Role, Content: resp.Content, Model: resp.ProviderUsed, Degraded: resp.Degraded}, nil
}

func runProviders() {
	fs := flag.NewFlagSet("providers", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, err := loadValidConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, zap.NewNop(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteProviders(os.Stdout, providerSummaries(cfg, components), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`chatnova - Document-aware chat backend

Usage:
  chatnova server [flags]             Start the HTTP server
  chatnova ingest [flags] <file>...   Extract text from local files
  chatnova chat [flags] <query>       Ask a question, optionally with attachments
  chatnova providers [flags]          List configured providers
  chatnova version                    Show version
  chatnova help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/chatnova/config.yaml)
  --debug            Enable debug logging

Ingest Flags:
  --config string    Config file path
  --type string      MIME type for every file (default: inferred from the extension)
  --output string    Output format: text or json (default: text)

Chat Flags:
  --config string    Config file path
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to dispatch directly.
  --model string     Provider to ask (default: dispatch.default_provider)
  --file string      File to attach; repeatable
  --output string    Output format: text or json (default: text)

Providers Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)

Environment:
  GEMINI_API_KEY, GROK_API_KEY          Provider credentials (also read from .env)
  CHATNOVA_HOST, CHATNOVA_PORT          Override server.host and server.port
  CHATNOVA_DEBUG                        Override debug

Examples:
  chatnova server
  chatnova ingest report.pdf notes.txt
  chatnova ingest --output json page.html
  chatnova chat "what is in the report?" -file report.pdf
  chatnova chat -model gemini hello
  chatnova providers --output json`)
}
