// Taskforge Server
// An MCP server exposing a multi-project task orchestration and rule
// platform over stdio or HTTP (Streamable HTTP + a plain JSON rule-sync
// surface for external clients).
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/dhafnck/taskforge/internal/clientsync"
	"github.com/dhafnck/taskforge/internal/policy"
	"github.com/dhafnck/taskforge/internal/toolfacade"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "taskforge-server",
		Short: "Multi-project task orchestration and rule platform, over MCP",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (env TASKFORGE_CONFIG)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newRulesCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio or HTTP transport, per config)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	tmpLogger := log.New(os.Stderr, "[taskforge] ", log.LstdFlags|log.Lshortfile)
	cfg := loadConfig(tmpLogger)
	pol := policy.New(cfg)

	logger := setupLogger(pol.LogFile())
	logger.Println("Starting taskforge-server...")
	logger.Printf("Log file: %s", pol.LogFile())
	logger.Printf("Project root: %s", pol.Root())
	logger.Printf("Transport: %s", cfg.Transport)

	facade := toolfacade.New(pol.Root())

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := facade.StartRuleWatcher(watchCtx, logger); err != nil {
		logger.Printf("Warning: rule watcher disabled: %v", err)
	}

	mcpServer := server.NewMCPServer(
		"taskforge-server",
		"1.0.0",
		server.WithInstructions(instructionsText),
		server.WithResourceCapabilities(false, true), // subscribe=false, listChanged=true
	)
	toolfacade.Register(mcpServer, facade)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signal.Ignore(syscall.SIGHUP)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	transport := strings.ToLower(cfg.Transport)
	switch transport {
	case "http", "sse":
		runHTTPServer(ctx, mcpServer, facade, cfg, logger)
	default:
		runStdioServer(ctx, mcpServer, logger)
	}

	logger.Println("Server stopped")
	return nil
}

// runStdioServer runs the MCP server over stdin/stdout (single-client).
func runStdioServer(ctx context.Context, mcpServer *server.MCPServer, logger *log.Logger) {
	logger.Println("Running in stdio mode")
	stdioSrv := server.NewStdioServer(mcpServer)
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		logger.Printf("Stdio server error: %v", err)
	}
}

// runHTTPServer runs the MCP server as an HTTP daemon, serving Streamable
// HTTP tool calls at /mcp and the client-sync rule surface at /rules/*.
func runHTTPServer(ctx context.Context, mcpServer *server.MCPServer, facade *toolfacade.Facade, cfg *policy.Config, logger *log.Logger) {
	port := cfg.HTTPPort
	if port == 0 {
		port = 8943
	}
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	logger.Printf("Running in HTTP mode on %s", addr)
	logger.Printf("  Streamable HTTP endpoint: %s/mcp", baseURL)
	logger.Printf("  Rule sync endpoint:       %s/rules/*", baseURL)

	streamSrv := server.NewStreamableHTTPServer(mcpServer)

	rulesRouter := clientsync.Router(facade.Sync, facade.RuleSnapshot)

	httpMux := http.NewServeMux()
	httpMux.Handle("/mcp", streamSrv)
	httpMux.Handle("/rules/", http.StripPrefix("/rules", rulesRouter))
	httpMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok"}`)
	})

	httpServer := &http.Server{
		Addr:    addr,
		Handler: httpMux,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown error: %v", err)
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print a quick summary of the project root's state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	logger := log.New(os.Stderr, "", 0)
	cfg := loadConfig(logger)
	pol := policy.New(cfg)

	facade := toolfacade.New(pol.Root())

	projects, err := facade.Projects.ListProjects()
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}

	trees, agents := 0, 0
	for _, p := range projects {
		trees += len(p.Trees)
		agents += len(p.Agents)
	}

	stats := facade.Cache.Stats()
	fmt.Printf("root=%s projects=%d trees=%d agents=%d cache_entries=%d cache_hits=%d cache_misses=%d\n",
		pol.Root(), len(projects), trees, agents, stats.Entries, stats.Hits, stats.Misses)
	return nil
}

func newRulesCommand() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate the rule hierarchy",
	}
	rulesCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Parse the rule hierarchy and report conflicts/warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesValidate()
		},
	})
	return rulesCmd
}

func runRulesValidate() error {
	logger := log.New(os.Stderr, "", 0)
	cfg := loadConfig(logger)
	pol := policy.New(cfg)

	facade := toolfacade.New(pol.Root())
	result := facade.ManageRule("validate_rule_hierarchy", nil)
	if !result.Success {
		fmt.Fprintf(os.Stderr, "validation failed: %s\n", result.Error)
		os.Exit(1)
	}

	valid, _ := result.Payload["valid"].(bool)
	fmt.Printf("valid=%v\n", valid)
	if conflicts, ok := result.Payload["conflicts"].([]string); ok && len(conflicts) > 0 {
		fmt.Println("conflicts:")
		for _, c := range conflicts {
			fmt.Printf("  - %s\n", c)
		}
	}
	if !valid {
		os.Exit(1)
	}
	return nil
}

// setupLogger creates a logger that writes to a log file and optionally
// stderr. When stderr is a terminal (interactive use), logs go to both
// stderr and the file; when redirected (daemonized via nohup), logs go only
// to the file to avoid duplicate lines.
func setupLogger(logFilePath string) *log.Logger {
	var writers []io.Writer

	stderrIsTerminal := false
	if info, err := os.Stderr.Stat(); err == nil {
		stderrIsTerminal = (info.Mode() & os.ModeCharDevice) != 0
	}

	hasLogFile := false
	lower := strings.ToLower(logFilePath)
	if lower != "none" && lower != "off" && logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err == nil {
			f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				writers = append(writers, f)
				hasLogFile = true
			} else {
				fmt.Fprintf(os.Stderr, "[taskforge] Warning: cannot open log file %s: %v\n", logFilePath, err)
			}
		} else {
			fmt.Fprintf(os.Stderr, "[taskforge] Warning: cannot create log dir %s: %v\n", filepath.Dir(logFilePath), err)
		}
	}

	if stderrIsTerminal || !hasLogFile {
		writers = append(writers, os.Stderr)
	}

	return log.New(io.MultiWriter(writers...), "[taskforge] ", log.LstdFlags|log.Lshortfile)
}

// loadConfig loads policy configuration from --config/TASKFORGE_CONFIG or defaults.
func loadConfig(logger *log.Logger) *policy.Config {
	path := configPath
	if path == "" {
		path = os.Getenv("TASKFORGE_CONFIG")
	}

	cfg := policy.DefaultConfig()
	if path != "" {
		var err error
		cfg, err = policy.LoadConfig(path)
		if err != nil {
			logger.Printf("Warning: failed to load config %s: %v, using defaults", path, err)
			cfg = policy.DefaultConfig()
		}
	}
	if cfg.Root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to get working directory: %v\n", err)
			os.Exit(1)
		}
		cfg.Root = filepath.Join(cwd, ".cursor")
	}
	return cfg
}

const instructionsText = `Taskforge coordinates tasks, contexts, agents, and rules across multiple
projects. Use manage_project to create projects and task trees, manage_task
and manage_subtask for work items, manage_agent to register and assign
agents to trees, manage_context to track a task's working context, and
manage_rule to parse/compose/sync the project's rule hierarchy. Use
call_agent to load an agent's role pack before acting as that agent.`


