package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
)

const edgeUsage = `Usage:
  -b, --bind           address:port to run the edge server on (default: 0.0.0.0:5151)
  -c, --config         Path to a TOML or YAML configuration file (default: edge.toml)
      --backend        Base URL of the quizbox backend (default: http://localhost:5050)
      --secret         Secret used to sign browser session cookies
      --debug          Enable debug mode

Environment Variables:
  QB_EDGE_BIND            Same as --bind
  QB_EDGE_BACKEND_URL     Same as --backend
  QB_EDGE_SESSION_SECRET  Same as --secret
  QB_EDGE_COOKIE_SECURE   Set to "true" to mark the session cookie Secure
  QB_EDGE_DEBUG           Set to "true" to enable debug mode`

type EdgeConfig struct {
	Bind          string `toml:"bind" yaml:"bind"`
	Debug         bool   `toml:"debug" yaml:"debug"`
	BackendURL    string `toml:"backend_url" yaml:"backend_url"`
	SessionSecret string `toml:"session_secret" yaml:"session_secret"`
	CookieSecure  bool   `toml:"cookie_secure" yaml:"cookie_secure"`
}

func DefaultEdgeConfig() EdgeConfig {
	return EdgeConfig{
		Bind:       "0.0.0.0:5151",
		BackendURL: "http://localhost:5050",
	}
}

// GenerateEdge builds the edge server config with the same layering as Generate.
// Without a configured secret a random one is used, so browser sessions end
// when the process restarts.
func GenerateEdge(args []string) (EdgeConfig, error) {
	var bindOpt string
	var configFile string
	var backendOpt string
	var secretOpt string
	var debugOpt bool

	fs := flag.NewFlagSet("quizbox-edge", flag.ContinueOnError)
	fs.StringVar(&bindOpt, "b", "", "address:port to run the edge server on")
	fs.StringVar(&bindOpt, "bind", "", "address:port to run the edge server on")
	fs.StringVar(&configFile, "c", "", "Path to the configuration file")
	fs.StringVar(&configFile, "config", "", "Path to the configuration file")
	fs.StringVar(&backendOpt, "backend", "", "Base URL of the backend")
	fs.StringVar(&secretOpt, "secret", "", "Session signing secret")
	fs.BoolVar(&debugOpt, "debug", false, "enable debug mode")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), edgeUsage)
	}

	if err := fs.Parse(args); err != nil {
		return EdgeConfig{}, err
	}

	config := DefaultEdgeConfig()
	if err := loadConfigFile(fs, configFile, "edge.toml", &config); err != nil {
		return EdgeConfig{}, err
	}

	if err := loadDotenv(); err != nil {
		return EdgeConfig{}, err
	}

	envString("QB_EDGE_BIND", &config.Bind)
	envString("QB_EDGE_BACKEND_URL", &config.BackendURL)
	envString("QB_EDGE_SESSION_SECRET", &config.SessionSecret)
	envBool("QB_EDGE_COOKIE_SECURE", &config.CookieSecure)
	envBool("QB_EDGE_DEBUG", &config.Debug)

	options := map[*string]*string{
		&bindOpt:    &config.Bind,
		&backendOpt: &config.BackendURL,
		&secretOpt:  &config.SessionSecret,
	}

	for option, configField := range options {
		if *option != "" {
			*configField = *option
		}
	}

	if debugOpt {
		config.Debug = true
	}

	if config.SessionSecret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return EdgeConfig{}, fmt.Errorf("generating session secret: %w", err)
		}
		config.SessionSecret = hex.EncodeToString(secret)
		log.Println("No session secret configured. Using a random one.")
	}

	return config, config.Validate()
}

func (c EdgeConfig) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend URL %q: %w", c.BackendURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend URL %q must be http or https", c.BackendURL)
	}
	if u.Host == "" {
		return errors.New("backend URL is missing a host")
	}
	return nil
}
