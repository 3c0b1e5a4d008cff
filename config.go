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

// Supported primary storages.
const (
	StoreRedis  = "redis"
	StoreBolt   = "bolt"
	StoreSqlite = "sqlite"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string          `yaml:"git_commit" envconfig:"BKCT_GIT_COMMIT"`
	GitTag                  string          `yaml:"git_tag" envconfig:"BKCT_GIT_TAG"`
	BuildTime               string          `yaml:"build_time" envconfig:"BKCT_BUILD_TIME"`
	IsProduction            bool            `yaml:"is_production" envconfig:"BKCT_IS_PRODUCTION"`
	LogLevel                zapcore.Level   `yaml:"log_level" envconfig:"BKCT_LOG_LEVEL"`
	LogFile                 string          `yaml:"log_file" envconfig:"BKCT_LOG_FILE"`
	OpsEndpointsEnable      bool            `yaml:"ops_endpoints_enable" envconfig:"BKCT_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool            `yaml:"profiler_endpoints_enable" envconfig:"BKCT_PROFILER_ENDPOINTS_ENABLE"`
	Server                  ServerConfig    `yaml:"server"`
	Store                   StoreConfig     `yaml:"store"`
	Redis                   RedisConfig     `yaml:"redis"`
	BoltDB                  BoltDBConfig    `yaml:"boltdb"`
	Sqlite                  SqliteConfig    `yaml:"sqlite"`
	Catalog                 CatalogConfig   `yaml:"catalog"`
	RateLimit               RateLimitConfig `yaml:"ratelimit"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BKCT_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"BKCT_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BKCT_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BKCT_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BKCT_SERVER_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BKCT_SERVER_SHUTDOWN_TIMEOUT"`
}

// StoreConfig selects the primary book storage. Replicate only applies
// to the redis storage: each write is mirrored into the bolt replica.
type StoreConfig struct {
	Driver    string `yaml:"driver" envconfig:"BKCT_STORE_DRIVER"`
	Replicate bool   `yaml:"replicate" envconfig:"BKCT_STORE_REPLICATE"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BKCT_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BKCT_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BKCT_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BKCT_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BKCT_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BKCT_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BKCT_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BKCT_REDIS_USERNAME"`
	Password      string        `yaml:"password" json:"-" envconfig:"BKCT_REDIS_PASSWORD"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BKCT_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BKCT_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BKCT_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BKCT_BOLTDB_BUCKET_NAME"`
}

type SqliteConfig struct {
	FilePath string `yaml:"filepath" envconfig:"BKCT_SQLITE_FILE_PATH"`
}

// CatalogConfig holds the business rules enforced on books.
type CatalogConfig struct {
	RatingMin float64 `yaml:"rating_min" envconfig:"BKCT_CATALOG_RATING_MIN"`
	RatingMax float64 `yaml:"rating_max" envconfig:"BKCT_CATALOG_RATING_MAX"`
}

type RateLimitConfig struct {
	Enable bool    `yaml:"enable" envconfig:"BKCT_RATELIMIT_ENABLE"`
	RPS    float64 `yaml:"rps" envconfig:"BKCT_RATELIMIT_RPS"`
	Burst  int     `yaml:"burst" envconfig:"BKCT_RATELIMIT_BURST"`
	// Peers allowed to set X-Real-IP and X-Forwarded-For. IPs or CIDRs.
	TrustedProxies []string `yaml:"trusted_proxies" envconfig:"BKCT_RATELIMIT_TRUSTED_PROXIES"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	if err = yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and overrides the loaded config.
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

	if len(config.LogFile) == 0 {
		config.LogFile = "./logs/catalog.log"
	}

	if len(config.Store.Driver) == 0 {
		config.Store.Driver = StoreRedis
	}

	switch config.Store.Driver {
	case StoreRedis:
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration file")
		}
		if config.Store.Replicate && len(config.BoltDB.FilePath) == 0 {
			return errors.New("make sure to set boltdb filepath to enable replication")
		}
	case StoreBolt:
		if len(config.BoltDB.FilePath) == 0 {
			return errors.New("make sure to set a valid boltdb filepath in configuration file")
		}
	case StoreSqlite:
		if len(config.Sqlite.FilePath) == 0 {
			return errors.New("make sure to set a valid sqlite filepath in configuration file")
		}
	default:
		return fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}

	if len(config.BoltDB.BucketName) == 0 {
		config.BoltDB.BucketName = "books"
	}

	if config.Catalog.RatingMin == 0 && config.Catalog.RatingMax == 0 {
		config.Catalog.RatingMax = 10
	}

	if config.Catalog.RatingMin > config.Catalog.RatingMax {
		return fmt.Errorf("catalog rating_min %g is greater than rating_max %g", config.Catalog.RatingMin, config.Catalog.RatingMax)
	}

	if config.RateLimit.Enable && (config.RateLimit.RPS <= 0 || config.RateLimit.Burst <= 0) {
		return errors.New("make sure to set positive ratelimit rps and burst values")
	}

	if _, err := ParseTrustedProxies(config.RateLimit.TrustedProxies); err != nil {
		return fmt.Errorf("ratelimit: %v", err)
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. The env file is optional.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	err = godotenv.Load("./config.env")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BKCT`.
	err = LoadConfigEnvs("BKCT", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
