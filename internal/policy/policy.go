// Package policy implements security guards for file paths and tool gating,
// and loads the server's YAML configuration.
package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// GlobalStateDir returns the default directory for logs and other server
// state not tied to a specific project root (~/.config/taskforge).
func GlobalStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".config", "taskforge")
}

// Config holds policy configuration.
type Config struct {
	Root         string   `yaml:"root"`          // project data root, e.g. <project>/.cursor
	EnabledTools []string `yaml:"enabled_tools"`  // tool names, or ["*"] for all
	LogFile      string   `yaml:"log_file"`
	Transport    string   `yaml:"transport"` // "stdio" (default), "http", or "sse"
	HTTPPort     int      `yaml:"http_port"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		EnabledTools: []string{"*"},
		Transport:    "stdio",
	}
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Policy enforces security rules.
type Policy struct {
	config *Config
	mu     sync.RWMutex // protects root for dynamic updates
}

// New creates a new policy enforcer.
func New(cfg *Config) *Policy {
	return &Policy{config: cfg}
}

// Root returns the current project data root. This may differ from the
// config-file value if a client has called SetRoot at runtime.
func (p *Policy) Root() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config.Root
}

// SetRoot dynamically changes the project data root at runtime.
func (p *Policy) SetRoot(root string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config.Root = root
}

// LogFile returns the configured log file path.
// If unset, defaults to ~/.config/taskforge/taskforge-server.log.
// Set to "none" or "off" to disable file logging entirely.
func (p *Policy) LogFile() string {
	p.mu.RLock()
	lf := p.config.LogFile
	p.mu.RUnlock()

	if lf == "" {
		return filepath.Join(GlobalStateDir(), "taskforge-server.log")
	}
	return lf
}

// ValidatePath checks that path resolves to somewhere inside the project root.
func (p *Policy) ValidatePath(path string) (string, error) {
	p.mu.RLock()
	root := p.config.Root
	p.mu.RUnlock()

	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	relPath, err := filepath.Rel(root, absPath)
	if err != nil {
		return "", fmt.Errorf("relative path: %w", err)
	}

	if strings.HasPrefix(relPath, "..") {
		return "", fmt.Errorf("path %s is outside project root", path)
	}

	return absPath, nil
}

// IsToolEnabled checks if a tool (manage_project, manage_task, ...) is enabled.
func (p *Policy) IsToolEnabled(name string) bool {
	for _, t := range p.config.EnabledTools {
		if t == "*" || t == name {
			return true
		}
	}
	return false
}


