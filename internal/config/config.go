package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Rorical/RoriChat/internal/inference"
)

const (
	DefaultProfileName = "default"
	DefaultBaseURL     = "http://127.0.0.1:11434/v1"
	DefaultModel       = "phi3:mini"
	DefaultWindowTitle = "RoriChat"
)

// Profile describes one local inference endpoint and how to sample from it.
type Profile struct {
	BaseURL      string   `json:"base_url" yaml:"base_url" toml:"base_url"`
	APIKey       string   `json:"api_key,omitempty" yaml:"api_key,omitempty" toml:"api_key,omitempty"`
	Model        string   `json:"model" yaml:"model" toml:"model"`
	MaxTokens    int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty"`
	Temperature  *float32 `json:"temperature,omitempty" yaml:"temperature,omitempty" toml:"temperature,omitempty"`
	DoSample     *bool    `json:"do_sample,omitempty" yaml:"do_sample,omitempty" toml:"do_sample,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty" toml:"system_prompt,omitempty"`
	Warmup       bool     `json:"warmup,omitempty" yaml:"warmup,omitempty" toml:"warmup,omitempty"`
}

// Breaker controls how quickly a failing model stops being called.
type Breaker struct {
	MaxFailures uint32   `json:"max_failures,omitempty" yaml:"max_failures,omitempty" toml:"max_failures,omitempty"`
	Timeout     Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

type Config struct {
	Profiles      map[string]Profile `json:"profiles" yaml:"profiles" toml:"profiles"`
	ActiveProfile string             `json:"active_profile" yaml:"active_profile" toml:"active_profile"`
	LogDir        string             `json:"log_dir,omitempty" yaml:"log_dir,omitempty" toml:"log_dir,omitempty"`
	LogLevel      string             `json:"log_level,omitempty" yaml:"log_level,omitempty" toml:"log_level,omitempty"`
	WindowTitle   string             `json:"window_title,omitempty" yaml:"window_title,omitempty" toml:"window_title,omitempty"`
	Breaker       Breaker            `json:"breaker,omitempty" yaml:"breaker,omitempty" toml:"breaker,omitempty"`

	path           string
	currentProfile *Profile
}

// LoadConfig reads the default config file, creating it on first run.
func LoadConfig() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	// Ensure config directory exists
	if err := ensureConfigDir(configPath); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := defaultConfig()
		cfg.path = configPath
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	return Load(configPath)
}

// Load reads a config file; the format follows the extension
// (.json, .yaml/.yml, .toml).
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("empty config path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return nil, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.path = path
	cfg.applyDefaults()
	cfg.applyEnv()

	// Validate and set current profile
	if err := cfg.setCurrentProfile(); err != nil {
		return nil, fmt.Errorf("failed to set current profile: %w", err)
	}
	return &cfg, nil
}

// Path is the file the config was loaded from and will be saved to.
func (c *Config) Path() string {
	return c.path
}

// UseProfile makes name the active profile for this process.
func (c *Config) UseProfile(name string) error {
	if _, exists := c.Profiles[name]; !exists {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	c.ActiveProfile = name
	return c.setCurrentProfile()
}

func (c *Config) Current() Profile {
	if c.currentProfile == nil {
		return defaultProfile()
	}
	return c.currentProfile.WithDefaults()
}

// Validate checks the active profile before the UI starts.
func (c *Config) Validate() error {
	if c.currentProfile == nil {
		return fmt.Errorf("no active profile")
	}
	p := c.Current()
	if p.Model == "" {
		return fmt.Errorf("profile '%s': model is empty", c.ActiveProfile)
	}
	if p.BaseURL == "" {
		return fmt.Errorf("profile '%s': base_url is empty", c.ActiveProfile)
	}
	if p.MaxTokens < 0 {
		return fmt.Errorf("profile '%s': max_tokens must not be negative", c.ActiveProfile)
	}
	if t := *p.Temperature; t < 0 || t > 2 {
		return fmt.Errorf("profile '%s': temperature %.2f outside [0, 2]", c.ActiveProfile, t)
	}
	return nil
}

func (c *Config) Save() error {
	if c.path == "" {
		configPath, err := DefaultPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		c.path = configPath
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(c.path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".toml":
		data, err = toml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0600)
}

// ConfigDir is $RORICHAT_HOME/.rorichat, or ~/.rorichat.
func ConfigDir() (string, error) {
	var baseDir string

	// Use RORICHAT_HOME if set, otherwise use user's home directory
	if home := os.Getenv("RORICHAT_HOME"); home != "" {
		baseDir = home
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = homeDir
	}

	return filepath.Join(baseDir, ".rorichat"), nil
}

func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func ensureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func defaultProfile() Profile {
	return Profile{BaseURL: DefaultBaseURL, Model: DefaultModel}.WithDefaults()
}

// NewProfile returns a profile with every optional field filled in.
func NewProfile(baseURL, model string) Profile {
	return Profile{BaseURL: baseURL, Model: model}.WithDefaults()
}

func defaultConfig() *Config {
	return &Config{
		Profiles:      map[string]Profile{DefaultProfileName: defaultProfile()},
		ActiveProfile: DefaultProfileName,
	}
}

// WithDefaults fills every unset optional field from the inference defaults.
func (p Profile) WithDefaults() Profile {
	gen := inference.DefaultGenerationConfig()
	if p.MaxTokens == 0 {
		p.MaxTokens = gen.MaxTokens
	}
	if p.Temperature == nil {
		t := gen.Temperature
		p.Temperature = &t
	}
	if p.DoSample == nil {
		sample := gen.DoSample
		p.DoSample = &sample
	}
	if p.SystemPrompt == "" {
		p.SystemPrompt = gen.SystemPrompt
	}
	return p
}

func (c *Config) applyDefaults() {
	if c.WindowTitle == "" {
		c.WindowTitle = DefaultWindowTitle
	}
	if c.LogDir == "" {
		if dir, err := ConfigDir(); err == nil {
			c.LogDir = filepath.Join(dir, "logs")
		}
	}
	if c.Breaker.MaxFailures == 0 {
		c.Breaker.MaxFailures = 5
	}
	if c.Breaker.Timeout == 0 {
		c.Breaker.Timeout = Duration(30 * time.Second)
	}
}

func (c *Config) applyEnv() {
	if lvl := os.Getenv("RORICHAT_LOG_LEVEL"); lvl != "" {
		c.LogLevel = lvl
	}
}

func (c *Config) setCurrentProfile() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("no profiles defined")
	}

	profile, exists := c.Profiles[c.ActiveProfile]
	if !exists {
		// Fall back to the alphabetically first profile so the choice is stable
		name := firstProfileName(c.Profiles)
		c.ActiveProfile = name
		profile = c.Profiles[name]
	}

	c.currentProfile = &profile
	return nil
}

// DeleteProfile removes name. Deleting the active profile activates the
// first remaining one; deleting the last profile recreates the default.
func (c *Config) DeleteProfile(name string) error {
	if _, exists := c.Profiles[name]; !exists {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	delete(c.Profiles, name)
	if len(c.Profiles) == 0 {
		c.Profiles[DefaultProfileName] = defaultProfile()
	}
	if _, exists := c.Profiles[c.ActiveProfile]; !exists {
		c.ActiveProfile = firstProfileName(c.Profiles)
	}
	return c.setCurrentProfile()
}

// ProfileNames returns the profile names in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func firstProfileName(profiles map[string]Profile) string {
	first := ""
	for name := range profiles {
		if first == "" || name < first {
			first = name
		}
	}
	return first
}
