package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all service configuration
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Inventory InventoryConfig `yaml:"inventory"`
	Loot      LootConfig      `yaml:"loot"`
	Trade     TradeConfig     `yaml:"trade"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// StorageConfig selects the profile backend
type StorageConfig struct {
	Backend  string `yaml:"backend"` // "memory", "redis" or "sqlite"
	Compress bool   `yaml:"compress"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// SQLiteConfig holds the local database settings
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// CatalogConfig points at the item template file
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// InventoryConfig holds per-installation inventory limits
type InventoryConfig struct {
	MoneyTemplates     []string `yaml:"money_templates"`
	SortingTableWidth  int      `yaml:"sorting_table_width"`
	SortingTableHeight int      `yaml:"sorting_table_height"`
	StashWidth         int      `yaml:"stash_width"`
	StashHeight        int      `yaml:"stash_height"`
	FastPanelSlots     []string `yaml:"fast_panel_slots"`
}

// LootConfig holds random loot container reward tables, keyed by container template
type LootConfig struct {
	Containers map[string]LootTable `yaml:"containers"`
}

// LootTable describes what one container can yield
type LootTable struct {
	Rolls   int         `yaml:"rolls"`
	Rewards []LootEntry `yaml:"rewards"`
}

// LootEntry is one weighted reward
type LootEntry struct {
	Tpl    string `yaml:"tpl"`
	Weight int    `yaml:"weight"`
	Min    int    `yaml:"min"`
	Max    int    `yaml:"max"`
}

// TradeConfig holds trading settings
type TradeConfig struct {
	FleaResource string `yaml:"flea_resource"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "stashkeeper:profile:"
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "./data/profiles.db"
	}
	if cfg.Inventory.SortingTableWidth == 0 {
		cfg.Inventory.SortingTableWidth = 10
	}
	if cfg.Inventory.SortingTableHeight == 0 {
		cfg.Inventory.SortingTableHeight = 45
	}
	if cfg.Inventory.StashWidth == 0 {
		cfg.Inventory.StashWidth = 10
	}
	if cfg.Inventory.StashHeight == 0 {
		cfg.Inventory.StashHeight = 28
	}
	if len(cfg.Inventory.FastPanelSlots) == 0 {
		cfg.Inventory.FastPanelSlots = []string{"pockets", "tacticalvest"}
	}
	for name, table := range cfg.Loot.Containers {
		if table.Rolls == 0 {
			table.Rolls = 1
		}
		for i := range table.Rewards {
			if table.Rewards[i].Min == 0 {
				table.Rewards[i].Min = 1
			}
			if table.Rewards[i].Max < table.Rewards[i].Min {
				table.Rewards[i].Max = table.Rewards[i].Min
			}
		}
		cfg.Loot.Containers[name] = table
	}
	if cfg.Trade.FleaResource == "" {
		cfg.Trade.FleaResource = "ragfair"
	}
}
