package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const usage = `Usage:
  -b, --bind           address:port to run the server on (default: 0.0.0.0:5050)
  -c, --config         Path to a TOML or YAML configuration file (default: config.toml)
  -d, --database       Database DSN; a file path for sqlite (default: ./quizbox.db)
      --driver         Database driver, sqlite or postgres (default: sqlite)
      --session-store  Where sessions live, database or redis (default: database)
      --redis          Redis address for the redis session store
      --debug          Enable debug mode
      --seed-defaults  Insert the default quizzes for the admin and exit

Environment Variables:
  QB_BIND              Same as --bind
  QB_DATABASE_DRIVER   Same as --driver
  QB_DATABASE_DSN      Same as --database
  QB_SESSION_STORE     Same as --session-store
  QB_REDIS_ADDR        Same as --redis
  QB_ALLOWED_ORIGINS   Comma separated list of CORS origins
  QB_COOKIE_SECURE     Set to "true" to mark the session cookie Secure
  QB_DEBUG             Set to "true" to enable debug mode

A .env file in the working directory is loaded before the environment is read.`

const (
	SessionStoreDatabase = "database"
	SessionStoreRedis    = "redis"
)

// dotenvFile is read into the environment when present. Existing variables win.
var dotenvFile = ".env"

type Config struct {
	Bind           string   `toml:"bind" yaml:"bind"`
	Debug          bool     `toml:"debug" yaml:"debug"`
	DatabaseDriver string   `toml:"database_driver" yaml:"database_driver"`
	DatabaseDSN    string   `toml:"database_dsn" yaml:"database_dsn"`
	SessionStore   string   `toml:"session_store" yaml:"session_store"`
	RedisAddr      string   `toml:"redis_addr" yaml:"redis_addr"`
	AllowedOrigins []string `toml:"allowed_origins" yaml:"allowed_origins"`
	CookieSecure   bool     `toml:"cookie_secure" yaml:"cookie_secure"`

	// Set from the command line only.
	SeedDefaults bool `toml:"-" yaml:"-"`
}

// Default config
func DefaultConfig() Config {
	return Config{
		Bind:           "0.0.0.0:5050",
		DatabaseDriver: "sqlite",
		DatabaseDSN:    "./quizbox.db",
		SessionStore:   SessionStoreDatabase,
		AllowedOrigins: []string{"http://localhost:5151"},
	}
}

// Generate builds the backend config from defaults, the config file, .env,
// QB_* environment variables and finally args, in increasing priority.
func Generate(args []string) (Config, error) {
	var bindOpt string
	var configFile string
	var databaseOpt string
	var driverOpt string
	var sessionStoreOpt string
	var redisOpt string
	var debugOpt bool
	var seedOpt bool

	fs := flag.NewFlagSet("quizbox", flag.ContinueOnError)
	fs.StringVar(&bindOpt, "b", "", "address:port to run the server on")
	fs.StringVar(&bindOpt, "bind", "", "address:port to run the server on")
	fs.StringVar(&configFile, "c", "", "Path to the configuration file")
	fs.StringVar(&configFile, "config", "", "Path to the configuration file")
	fs.StringVar(&databaseOpt, "d", "", "Database DSN")
	fs.StringVar(&databaseOpt, "database", "", "Database DSN")
	fs.StringVar(&driverOpt, "driver", "", "Database driver")
	fs.StringVar(&sessionStoreOpt, "session-store", "", "Session store")
	fs.StringVar(&redisOpt, "redis", "", "Redis address")
	fs.BoolVar(&debugOpt, "debug", false, "enable debug mode")
	fs.BoolVar(&seedOpt, "seed-defaults", false, "insert the default quizzes and exit")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), usage)
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	config := DefaultConfig()
	if err := loadConfigFile(fs, configFile, "config.toml", &config); err != nil {
		return Config{}, err
	}

	if err := loadDotenv(); err != nil {
		return Config{}, err
	}

	envString("QB_BIND", &config.Bind)
	envString("QB_DATABASE_DRIVER", &config.DatabaseDriver)
	envString("QB_DATABASE_DSN", &config.DatabaseDSN)
	envString("QB_SESSION_STORE", &config.SessionStore)
	envString("QB_REDIS_ADDR", &config.RedisAddr)
	envList("QB_ALLOWED_ORIGINS", &config.AllowedOrigins)
	envBool("QB_COOKIE_SECURE", &config.CookieSecure)
	envBool("QB_DEBUG", &config.Debug)

	// Override the config values with the command-line flags (highest priority)
	options := map[*string]*string{
		&bindOpt:         &config.Bind,
		&databaseOpt:     &config.DatabaseDSN,
		&driverOpt:       &config.DatabaseDriver,
		&sessionStoreOpt: &config.SessionStore,
		&redisOpt:        &config.RedisAddr,
	}

	for option, configField := range options {
		if *option != "" {
			*configField = *option
		}
	}

	if debugOpt {
		config.Debug = true
	}
	config.SeedDefaults = seedOpt

	return config, config.Validate()
}

func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return errors.New("database DSN is required")
	}

	switch c.SessionStore {
	case SessionStoreDatabase:
	case SessionStoreRedis:
		if c.RedisAddr == "" {
			return errors.New("redis_addr is required for the redis session store")
		}
	default:
		return fmt.Errorf("unsupported session store %q", c.SessionStore)
	}

	return nil
}

// loadConfigFile decodes the file named by the -c/--config flag, or
// defaultFile when the flag was not given. A missing default file is not an error.
func loadConfigFile(fs *flag.FlagSet, configFile, defaultFile string, v any) error {
	configFileSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" || f.Name == "c" {
			configFileSet = true
		}
	})

	if configFile == "" {
		configFile = defaultFile
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if configFileSet {
			return fmt.Errorf("config file %v specified but not found", configFile)
		}
		log.Printf("Config file %v not found. Using defaults.", configFile)
		return nil
	} else if err != nil {
		return fmt.Errorf("error accessing config file %v: %w", configFile, err)
	}

	log.Printf("Loading config from %v", configFile)
	return decodeFile(configFile, v)
}

func decodeFile(path string, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if _, err := toml.DecodeFile(path, v); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return nil
}

func loadDotenv() error {
	if _, err := os.Stat(dotenvFile); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(dotenvFile); err != nil {
		return fmt.Errorf("loading %s: %w", dotenvFile, err)
	}
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envBool(key string, dst *bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1":
		*dst = true
	case "false", "0":
		*dst = false
	}
}

func envList(key string, dst *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}

	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}
