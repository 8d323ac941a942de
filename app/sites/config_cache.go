package sites

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type ConfigCache struct {
	sitesDir string
	cache    map[string]*Config
	mu       sync.RWMutex
}

func NewConfigCache(sitesDir string) *ConfigCache {
	return &ConfigCache{
		sitesDir: sitesDir,
		cache:    make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.sitesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.sitesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		// Derive site name from filename (remove .yml extension)
		fileName := filepath.Base(file)
		siteName := fileName[:len(fileName)-4]

		config, err := cc.LoadConfig(siteName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Site configuration loaded", "site", siteName, "enabled", config.Settings.Enabled, "pages", len(config.ListingPages))
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(siteName string) (*Config, error) {
	configFile := cc.getConfigFilePath(siteName)
	siteConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	// Set site name from parameter
	siteConfig.Name = siteName

	if err := cc.validateConfig(siteConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	// Store in cache
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[siteConfig.Name] = siteConfig

	return siteConfig, nil
}

func (cc *ConfigCache) GetConfig(siteName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	siteConfig, ok := cc.cache[siteName]
	if !ok {
		return nil, fmt.Errorf("site config with name '%s' not found", siteName)
	}
	return siteConfig, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var siteConfig Config
	if err := yaml.Unmarshal(data, &siteConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if siteConfig.Settings.RefreshInterval == 0 {
		siteConfig.Settings.RefreshInterval = 3600
	}
	if siteConfig.Settings.MaxPages == 0 {
		siteConfig.Settings.MaxPages = 3
	}
	if siteConfig.Settings.PageDelay == 0 {
		siteConfig.Settings.PageDelay = 3
	}
	if siteConfig.Settings.Timeout == 0 {
		siteConfig.Settings.Timeout = 30
	}

	return &siteConfig, nil
}

func (cc *ConfigCache) validateConfig(siteConfig *Config) error {
	if siteConfig == nil {
		return fmt.Errorf("siteConfig is nil")
	}

	requiredFields := map[string]string{
		"site name": siteConfig.Name,
		"base URL":  siteConfig.BaseURL,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if len(siteConfig.ListingPages) == 0 && siteConfig.FeedURL == "" {
		return fmt.Errorf("at least one listing page or a feed URL is required")
	}

	if len(siteConfig.ListingPages) > 0 {
		if len(siteConfig.Selectors.Container) == 0 {
			return fmt.Errorf("at least one container selector is required")
		}
		if len(siteConfig.Selectors.Name) == 0 {
			return fmt.Errorf("at least one name selector is required")
		}
		if siteConfig.LinkFragment == "" {
			return fmt.Errorf("link fragment is required")
		}
	}

	nonNegativeFields := map[string]int{
		"refresh interval": siteConfig.Settings.RefreshInterval,
		"max pages":        siteConfig.Settings.MaxPages,
		"page delay":       siteConfig.Settings.PageDelay,
		"timeout":          siteConfig.Settings.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(siteName string) string {
	return filepath.Join(cc.sitesDir, siteName+".yml")
}
