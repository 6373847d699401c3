package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultURLTemplate    = "http://google{domain}/complete/search?output=toolbar&q={query}"
	DefaultParser         = "toolbar"
	DefaultHistorySize    = 32
	DefaultListen         = "127.0.0.1:8080"

	// DomainPlaceholder is substituted with a region's domain suffix in
	// url_template.
	DomainPlaceholder = "{domain}"
)

type Config struct {
	StorageDir     string   `toml:"storage_dir"`
	RequestTimeout Duration `toml:"request_timeout"`
	URLTemplate    string   `toml:"url_template"`
	Parser         string   `toml:"parser"`
	DomainsFile    string   `toml:"domains_file,omitempty"`
	HistorySize    int      `toml:"history_size"`
	Listen         string   `toml:"listen"`
	Debug          bool     `toml:"debug"`
	Regions        []Region `toml:"regions,omitempty"`
}

// Region maps a region id to the domain suffix of its endpoint.
type Region struct {
	ID     string `toml:"id"`
	Domain string `toml:"domain"`
	// URL overrides url_template for this region. It must contain {query}.
	URL string `toml:"url,omitempty"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() (*Config, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return nil, fmt.Errorf("getting default storage directory: %w", err)
	}
	c := &Config{StorageDir: storageDir}
	c.applyDefaults()
	return c, nil
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.StorageDir == "" {
		storageDir, err := GetDefaultStorageDir()
		if err != nil {
			return nil, fmt.Errorf("getting default storage directory: %w", err)
		}
		config.StorageDir = storageDir
	}
	config.StorageDir = expandHome(config.StorageDir)
	if config.DomainsFile != "" {
		config.DomainsFile = expandHome(config.DomainsFile)
		if !filepath.IsAbs(config.DomainsFile) {
			config.DomainsFile = filepath.Join(filepath.Dir(configPath), config.DomainsFile)
		}
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.RequestTimeout.Duration <= 0 {
		c.RequestTimeout = Duration{DefaultRequestTimeout}
	}
	if c.URLTemplate == "" {
		c.URLTemplate = DefaultURLTemplate
	}
	if c.Parser == "" {
		c.Parser = DefaultParser
	}
	if c.HistorySize <= 0 {
		c.HistorySize = DefaultHistorySize
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
}

// Validate checks the fields a catalog is built from. Region ids are checked
// for uniqueness when the catalog is built.
func (c *Config) Validate() error {
	if !strings.Contains(c.URLTemplate, "{query}") {
		return fmt.Errorf("url_template %q has no {query} placeholder", c.URLTemplate)
	}
	for i, r := range c.Regions {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("regions[%d]: id is required", i)
		}
		if r.URL != "" {
			if !strings.Contains(r.URL, "{query}") {
				return fmt.Errorf("region %s: url %q has no {query} placeholder", r.ID, r.URL)
			}
			continue
		}
		if r.Domain == "" {
			return fmt.Errorf("region %s: domain or url is required", r.ID)
		}
	}
	return nil
}

// DBPath is the history database inside StorageDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.StorageDir, "gsuggest.db")
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	storageDir := c.StorageDir
	if storageDir == "" {
		var err error
		storageDir, err = GetDefaultStorageDir()
		if err != nil {
			return "", fmt.Errorf("getting default storage directory: %w", err)
		}
	}

	template := strings.Replace(configTemplate, "/home/user/.local/share/gsuggest", storageDir, 1)
	return template, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// GetDefaultStorageDir returns the default storage directory for the history database
func GetDefaultStorageDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "gsuggest")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetConfigDir returns the configuration directory for gsuggest
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "gsuggest")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
