package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Storage engines names.
const (
	EngineMemory   = "memory"
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
	EngineBolt     = "bolt"
	EngineRedis    = "redis"
)

// engineAliases maps every accepted engine name to its canonical name.
var engineAliases = map[string]string{
	"memory":     EngineMemory,
	"sqlite":     EngineSQLite,
	"sqlite3":    EngineSQLite,
	"postgres":   EnginePostgres,
	"postgresql": EnginePostgres,
	"bolt":       EngineBolt,
	"boltdb":     EngineBolt,
	"redis":      EngineRedis,
}

// StorageSpec is the parsed form of a storage configuration string.
type StorageSpec struct {
	Engine string
	Path   string
}

// ParseStorageSpec reads a value of the form `memory` or `<engine>:<path>`.
// The engine is case insensitive and the value is split at the first colon
// so that the path may itself contain colons (postgres DSN, redis address).
func ParseStorageSpec(value string) (StorageSpec, error) {
	name, path, _ := strings.Cut(strings.TrimSpace(value), ":")
	engine, ok := engineAliases[strings.ToLower(name)]
	if !ok {
		return StorageSpec{}, &ConfigurationError{Value: value, Reason: fmt.Sprintf("unknown storage engine %q", name)}
	}
	if engine != EngineMemory && path == "" {
		return StorageSpec{}, &ConfigurationError{
			Value:  value,
			Reason: fmt.Sprintf("%s storage requires a path: \"%s:<path>\"", engine, name),
		}
	}
	return StorageSpec{Engine: engine, Path: path}, nil
}

// NewBookStorage parses the configured storage value and opens
// the matching backend.
func NewBookStorage(ctx context.Context, logger *zap.Logger, config *Config) (BookStorage, error) {
	spec, err := ParseStorageSpec(config.Storage)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("storage.engine", spec.Engine))

	switch spec.Engine {
	case EngineSQLite:
		return OpenSQLiteBookStorage(ctx, logger, spec.Path)
	case EnginePostgres:
		return OpenPostgresBookStorage(ctx, logger, spec.Path)
	case EngineBolt:
		boltConfig := config.BoltDB
		boltConfig.FilePath = spec.Path
		bs, err := OpenBoltBookStorage(logger, &boltConfig)
		if err != nil {
			return nil, err
		}
		return bs, nil
	case EngineRedis:
		client, err := GetRedisClient(ctx, spec.Path, &config.Redis)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis server: %w", err)
		}
		return NewRedisBookStorage(logger, client), nil
	default:
		return NewMemoryBookStorage(logger), nil
	}
}
