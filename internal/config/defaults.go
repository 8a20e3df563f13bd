package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/regindex/data/db/regulations.db"
	}
	if cfg.Storage.IndexDir == "" {
		cfg.Storage.IndexDir = "/usr/local/var/regindex/data/index"
	}
	if cfg.Embedding.Backend == "" {
		cfg.Embedding.Backend = "hashing"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1024
	}
	if cfg.Index.Scorer == "" {
		cfg.Index.Scorer = "dense"
	}
	if cfg.Index.LexicalWeight == 0 && cfg.Index.SemanticWeight == 0 && cfg.Index.AuthorityWeight == 0 {
		cfg.Index.LexicalWeight = 0.4
		cfg.Index.SemanticWeight = 0.3
		cfg.Index.AuthorityWeight = 0.3
	}
	if cfg.Chunker.MinChunkSize == 0 {
		cfg.Chunker.MinChunkSize = 800
	}
	if cfg.Chunker.MaxChunkSize == 0 {
		cfg.Chunker.MaxChunkSize = 2000
	}
	if cfg.Chunker.OverlapSize == 0 {
		cfg.Chunker.OverlapSize = 200
	}
	if cfg.Query.MaxSources == 0 {
		cfg.Query.MaxSources = 5
	}
	if cfg.Query.AuthorityThreshold == 0 {
		cfg.Query.AuthorityThreshold = 0.5
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json", ".txt", ".md", ".pdf", ".docx", ".odt", ".rtf", ".xlsx"}
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 400
	}
}
