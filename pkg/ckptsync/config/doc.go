/*
Package config provides type-safe configuration extraction from map[string]any
and resolves the settings of a ckptsync process.

# Basic Usage

Create a Config from any map and extract values with defaults:

	cfg := config.New(map[string]any{
	    "backend":   "s3",
	    "part_size": "16MiB",
	    "s3":        map[string]any{"bucket": "runs"},
	})

	backend := cfg.String("backend", "memory")         // "s3"
	part := cfg.Bytes("part_size", 8<<20)              // 16777216
	bucket := cfg.Sub("s3").String("bucket", "")       // "runs"

# File Loading

Load configuration from YAML or JSON files, then overlay the environment:

	cfg, err := config.FromFile("ckptsync.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	cfg = cfg.WithEnv("CKPTSYNC")

	settings, err := config.Load(cfg)

# Recognized Keys

	backend         memory | s3 | minio
	default_folder  remote folder for checkpoints (default "checkpoints")
	part_size       chunk size, e.g. "8MiB"
	ledger          SQLite path for the decision ledger (default in-memory)
	log_level       debug | info | warn | error
	progress        bar | log | none
	<backend>       section passed to the backend factory

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation.
*/
package config
