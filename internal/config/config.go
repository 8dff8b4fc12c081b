// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Server    ServerConfig    `yaml:"server"`
}

// CorpusConfig locates the document corpus.
type CorpusConfig struct {
	Path       string   `yaml:"path"`
	Extensions []string `yaml:"extensions"`
}

// IndexConfig holds index construction settings.
type IndexConfig struct {
	// Dir is the artifact directory; flat and zoned indexes live in
	// separate subdirectories so both can coexist.
	Dir string `yaml:"dir"`
	// Zoned selects zoned (title/body) indexing.
	Zoned bool `yaml:"zoned"`
	// ChampionSize bounds per-term champion lists (0 disables).
	ChampionSize int `yaml:"champion_size"`
	// StopWords toggles stop-word removal; defaults to true when unset.
	StopWords *bool `yaml:"stop_words"`
	// Stemming toggles Porter stemming.
	Stemming bool `yaml:"stemming"`
}

// StopWordsOrDefault returns the stop-word setting; defaults to true.
func (c *IndexConfig) StopWordsOrDefault() bool {
	if c.StopWords != nil {
		return *c.StopWords
	}
	return true
}

// EmbeddingConfig locates the pretrained embedding source.
type EmbeddingConfig struct {
	// SourcePath is the full pretrained table in GloVe text format.
	SourcePath string `yaml:"source_path"`
}

// SearchConfig holds query evaluation settings.
type SearchConfig struct {
	ScoreTitle   bool               `yaml:"score_title"`
	ExpandQuery  bool               `yaml:"expand_query"`
	ExpansionK   int                `yaml:"expansion_k"`
	DefaultLimit int                `yaml:"default_limit"`
	MaxLimit     int                `yaml:"max_limit"`
	ZoneWeights  map[string]float64 `yaml:"zone_weights"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Load reads and parses the config file at path, applies defaults, expands
// paths relative to the config directory, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Corpus.Path = expandPath(cfg.Corpus.Path, configDir)
	cfg.Index.Dir = expandPath(cfg.Index.Dir, configDir)
	cfg.Embedding.SourcePath = expandPath(cfg.Embedding.SourcePath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration once at entry; later phases assume it.
func (c *Config) Validate() error {
	if c.Index.ChampionSize < 0 {
		return fmt.Errorf("index.champion_size must not be negative")
	}
	if c.Search.ExpansionK < 0 {
		return fmt.Errorf("search.expansion_k must not be negative")
	}
	if c.Search.ScoreTitle && !c.Index.Zoned {
		return fmt.Errorf("search.score_title requires index.zoned")
	}
	for zone, w := range c.Search.ZoneWeights {
		known := false
		for _, z := range models.DefaultZones {
			if models.Zone(zone) == z {
				known = true
			}
		}
		if !known {
			return fmt.Errorf("search.zone_weights: unknown zone %q", zone)
		}
		if w < 0 {
			return fmt.Errorf("search.zone_weights: zone %q has negative weight", zone)
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// IndexPath returns the index artifact path for the given mode. Flat and
// zoned indexes are kept in separate subdirectories.
func (c *Config) IndexPath(zoned bool) string {
	sub := "basic"
	if zoned {
		sub = "zoned"
	}
	return filepath.Join(c.Index.Dir, sub, "inverted.idx")
}

// EmbeddingsPath returns the trimmed embedding artifact path.
func (c *Config) EmbeddingsPath() string {
	return filepath.Join(c.Index.Dir, "embeddings.bin")
}

// RegistryPath returns the document registry database path.
func (c *Config) RegistryPath() string {
	return filepath.Join(c.Index.Dir, "registry.db")
}

// ZoneWeights converts the configured weights to zone keys.
func (c *Config) ZoneWeights() map[models.Zone]float64 {
	if len(c.Search.ZoneWeights) == 0 {
		return nil
	}
	weights := make(map[models.Zone]float64, len(c.Search.ZoneWeights))
	for zone, w := range c.Search.ZoneWeights {
		weights[models.Zone(zone)] = w
	}
	return weights
}

// expandPath converts path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are left for the working
// directory to resolve.
func expandPath(path, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	return path
}
