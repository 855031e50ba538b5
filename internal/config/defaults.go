package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "data/embeddings.index"
	}
	if cfg.Storage.MetadataPath == "" {
		cfg.Storage.MetadataPath = "data/metadata.json"
	}
	if cfg.Storage.KeywordDirPath == "" {
		cfg.Storage.KeywordDirPath = "data/keyword"
	}
	if cfg.Storage.CatalogPath == "" {
		cfg.Storage.CatalogPath = "data/catalog.db"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.QA.Model == "" {
		cfg.QA.Model = "gpt-4o-mini"
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 5
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 100
	}
	if cfg.Search.MaxDistance == 0 {
		cfg.Search.MaxDistance = 2.0
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 250
	}
	if cfg.Chunking.ChunkOverlap == 0 {
		cfg.Chunking.ChunkOverlap = 50
	}
}
