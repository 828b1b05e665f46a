package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string            `json:"git_commit" yaml:"git_commit" envconfig:"CATALOG_GIT_COMMIT"`
	GitTag                  string            `json:"git_tag" yaml:"git_tag" envconfig:"CATALOG_GIT_TAG"`
	BuildTime               string            `json:"build_time" yaml:"build_time" envconfig:"CATALOG_BUILD_TIME"`
	IsProduction            bool              `json:"is_production" yaml:"is_production" envconfig:"CATALOG_IS_PRODUCTION"`
	LogLevel                zapcore.Level     `json:"log_level" yaml:"log_level" envconfig:"CATALOG_LOG_LEVEL"`
	LogFolder               string            `json:"log_folder" yaml:"log_folder" envconfig:"CATALOG_LOG_FOLDER"`
	LogMaxSize              int               `json:"log_max_size" yaml:"log_max_size" envconfig:"CATALOG_LOG_MAX_SIZE"`
	OpsEndpointsEnable      bool              `json:"ops_endpoints_enable" yaml:"ops_endpoints_enable" envconfig:"CATALOG_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool              `json:"profiler_endpoints_enable" yaml:"profiler_endpoints_enable" envconfig:"CATALOG_PROFILER_ENDPOINTS_ENABLE"`
	Storage                 string            `json:"storage" yaml:"storage" envconfig:"CATALOG_STORAGE"`
	Server                  ServerConfig      `json:"server" yaml:"server"`
	Redis                   RedisConfig       `json:"redis" yaml:"redis"`
	BoltDB                  BoltDBConfig      `json:"boltdb" yaml:"boltdb"`
	Replication             ReplicationConfig `json:"replication" yaml:"replication"`
}

type ServerConfig struct {
	Host            string        `json:"host" yaml:"host" envconfig:"CATALOG_SERVER_HOST"`
	Port            string        `json:"port" yaml:"port" envconfig:"CATALOG_SERVER_PORT"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" envconfig:"CATALOG_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" envconfig:"CATALOG_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `json:"request_timeout" yaml:"request_timeout" envconfig:"CATALOG_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" envconfig:"CATALOG_SERVER_SHUTDOWN_TIMEOUT"`
}

type RedisConfig struct {
	Host          string        `json:"host" yaml:"host" envconfig:"CATALOG_REDIS_HOST"`
	Port          string        `json:"port" yaml:"port" envconfig:"CATALOG_REDIS_PORT"`
	DialTimeout   time.Duration `json:"dial_timeout" yaml:"dial_timeout" envconfig:"CATALOG_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `json:"read_timeout" yaml:"read_timeout" envconfig:"CATALOG_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `json:"write_timeout" yaml:"write_timeout" envconfig:"CATALOG_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `json:"pool_size" yaml:"pool_size" envconfig:"CATALOG_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `json:"pool_timeout" yaml:"pool_timeout" envconfig:"CATALOG_REDIS_POOL_TIMEOUT"`
	Username      string        `json:"-" yaml:"username" envconfig:"CATALOG_REDIS_USERNAME"`
	Password      string        `json:"-" yaml:"password" envconfig:"CATALOG_REDIS_PASSWORD"`
	DatabaseIndex int           `json:"db_index" yaml:"db_index" envconfig:"CATALOG_REDIS_DATABASE_INDEX"`
}

// Address returns the `host:port` of the redis server.
func (rc RedisConfig) Address() string {
	return rc.Host + ":" + rc.Port
}

type BoltDBConfig struct {
	FilePath   string        `json:"filepath" yaml:"filepath" envconfig:"CATALOG_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout" envconfig:"CATALOG_BOLTDB_TIMEOUT"`
	BucketName string        `json:"bucket_name" yaml:"bucket_name" envconfig:"CATALOG_BOLTDB_BUCKET_NAME"`
}

// ReplicationConfig enables mirroring of every change into a bolt file
// through redis queues. BoltDB settings apply to the replica file.
type ReplicationConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled" envconfig:"CATALOG_REPLICATION_ENABLED"`
	FilePath string `json:"filepath" yaml:"filepath" envconfig:"CATALOG_REPLICATION_FILE_PATH"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and overrides the matching config fields.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = 30 * time.Second
	}

	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 10 * time.Second
	}

	if len(config.LogFolder) == 0 {
		config.LogFolder = "./logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	if len(config.Storage) == 0 {
		config.Storage = EngineMemory
	}

	if _, err := ParseStorageSpec(config.Storage); err != nil {
		return err
	}

	if len(config.BoltDB.BucketName) == 0 {
		config.BoltDB.BucketName = "books"
	}

	if config.BoltDB.Timeout == 0 {
		config.BoltDB.Timeout = 5 * time.Second
	}

	if config.Replication.Enabled {
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration file when replication is enabled")
		}
		if len(config.Replication.FilePath) == 0 {
			return errors.New("make sure to set the replica file path when replication is enabled")
		}
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. The dotenv file is optional.
func LoadAndInitConfigs(configFile, envFile, gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(configFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load(envFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `CATALOG`.
	err = LoadConfigEnvs("CATALOG", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
