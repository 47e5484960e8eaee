package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type OllamaConfig struct {
	Host         string `toml:"host"`
	DefaultModel string `toml:"default_model"`
}

type SearchConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint,omitempty"`
}

type GatewayConfig struct {
	URL string `toml:"url,omitempty"`
}

type ParserConfig struct {
	URL string `toml:"url,omitempty"`
}

type UserConfig struct {
	Ollama              OllamaConfig  `toml:"ollama"`
	Search              SearchConfig  `toml:"search"`
	Gateway             GatewayConfig `toml:"gateway"`
	Parser              ParserConfig  `toml:"parser"`
	DefaultSystemPrompt string        `toml:"default_system_prompt,omitempty"`
	SecurityMethod      string        `toml:"security_method,omitempty"`
	SSHKeyPath          string        `toml:"ssh_key_path,omitempty"`
}

type Config struct {
	DataDirectory       string
	OllamaHost          string
	DefaultModel        string
	DefaultSystemPrompt string
	SearchEnabled       bool
	SearchEndpoint      string
	GatewayURL          string
	ParserURL           string
	SecurityMethod      string
	SSHKeyPath          string
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("AHME_OLLAMA_HOST"); host != "" {
		c.OllamaHost = host
	}
	if model := os.Getenv("AHME_OLLAMA_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if dataDir := os.Getenv("AHME_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if gw := os.Getenv("AHME_GATEWAY_URL"); gw != "" {
		c.GatewayURL = gw
	}
	if parser := os.Getenv("AHME_PARSER_URL"); parser != "" {
		c.ParserURL = parser
	}
}

func CheckDebug() bool {
	debug := os.Getenv("AHME_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600 - debug output may echo request payloads
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (AHME_DEBUG=%s) ===", os.Getenv("AHME_DEBUG"))
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	systemCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}
	cfg.DataDirectory = systemCfg.DataDirectory

	userCfg, err := LoadUserConfig(cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.OllamaHost = userCfg.Ollama.Host
	cfg.DefaultModel = userCfg.Ollama.DefaultModel
	cfg.DefaultSystemPrompt = userCfg.DefaultSystemPrompt
	cfg.SearchEnabled = userCfg.Search.Enabled
	cfg.SearchEndpoint = userCfg.Search.Endpoint
	cfg.GatewayURL = userCfg.Gateway.URL
	cfg.ParserURL = userCfg.Parser.URL
	cfg.SecurityMethod = userCfg.SecurityMethod
	cfg.SSHKeyPath = userCfg.SSHKeyPath

	cfg.applyEnvOverrides()

	// Encrypted credentials with no key configured: use a discovered one.
	if cfg.SecurityMethod == string(SecuritySSHKey) && cfg.SSHKeyPath == "" {
		if keys, err := FindSSHKeys(); err == nil && len(keys) > 0 {
			cfg.SSHKeyPath = keys[0]
		}
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	return cfg, nil
}
