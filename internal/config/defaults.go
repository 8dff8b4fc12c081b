package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = "corpus"
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = "index_files"
	}
	if cfg.Index.Zoned && cfg.Index.ChampionSize == 0 {
		cfg.Index.ChampionSize = 100
	}
	if cfg.Embedding.SourcePath == "" {
		cfg.Embedding.SourcePath = "glove.6B.100d.txt"
	}
	if cfg.Search.ExpansionK == 0 {
		cfg.Search.ExpansionK = 7
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.ZoneWeights == nil {
		cfg.Search.ZoneWeights = map[string]float64{
			"title": 0.7,
			"body":  0.3,
		}
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
}
