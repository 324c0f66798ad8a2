// Package config provides functionality for managing configuration options
// for the application using command-line flags, a config file and
// environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/crmsync/internal/crm"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration read from text such as "30s" or "5m".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// CRMOptions configures the CRM connection.
type CRMOptions struct {
	ClientID     string  `json:"client_id" yaml:"client_id"`
	ClientSecret string  `json:"client_secret" yaml:"client_secret"`
	Username     string  `json:"username" yaml:"username"`
	Password     string  `json:"password" yaml:"password"`
	AuthURL      string  `json:"auth_url" yaml:"auth_url"`
	APIVersion   string  `json:"api_version" yaml:"api_version"`
	RateLimit    float64 `json:"rate_limit" yaml:"rate_limit"`
	RateBurst    int     `json:"rate_burst" yaml:"rate_burst"`
	// Timeout bounds every single HTTP round trip to the CRM.
	Timeout Duration `json:"timeout" yaml:"timeout"`
}

// SweepOptions configures the background resync/reverify sweeper.
type SweepOptions struct {
	// Interval between sweeps; zero disables the sweeper.
	Interval    Duration `json:"interval" yaml:"interval"`
	Concurrency int      `json:"concurrency" yaml:"concurrency"`
	Batch       int      `json:"batch" yaml:"batch"`
}

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address" yaml:"server_address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn" yaml:"database_dsn"`

	LogLevel string `json:"log_level" yaml:"log_level"`

	TLSCert string `json:"tls_cert" yaml:"tls_cert"`
	TLSKey  string `json:"tls_key" yaml:"tls_key"`
	TLSCA   string `json:"tls_ca" yaml:"tls_ca"`

	CRM   CRMOptions   `json:"crm" yaml:"crm"`
	Sweep SweepOptions `json:"sweep" yaml:"sweep"`

	// Config is the path to the Config file.
	Config string `json:"-" yaml:"-"`
}

// options holds the current configuration values.
var options = defaults()

func defaults() *Options {
	return &Options{
		Port:     "localhost:8080",
		LogLevel: "info",
		TLSCert:  "certs/server.crt",
		TLSKey:   "certs/server.key",
		TLSCA:    "certs/ca.crt",
		CRM: CRMOptions{
			APIVersion: crm.DefaultAPIVersion,
			RateBurst:  1,
			Timeout:    Duration(30 * time.Second),
		},
		Sweep: SweepOptions{
			Interval:    Duration(5 * time.Minute),
			Concurrency: 4,
			Batch:       100,
		},
	}
}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", options.Port, "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.LogLevel, "l", options.LogLevel, "log level")
	flag.StringVar(&options.CRM.AuthURL, "crm-auth-url", "", "CRM OAuth token endpoint")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags, the config file and environment
// variables to set configuration values, in that order of precedence
// (environment wins). It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	if err := load(options, os.Getenv); err != nil {
		log.Fatalf("error while loading config: %v", err)
	}
	return options
}

func load(opts *Options, getenv func(string) string) error {
	if configPath := getenv("CONFIG"); configPath != "" {
		opts.Config = configPath
	}

	if opts.Config != "" {
		if _, err := os.Stat(opts.Config); err == nil {
			if err := readFile(opts.Config, opts); err != nil {
				return err
			}
		}
	}

	return applyEnv(opts, getenv)
}

func readFile(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, opts)
	default:
		err = json.Unmarshal(data, opts)
	}
	if err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func applyEnv(opts *Options, getenv func(string) string) error {
	strs := map[string]*string{
		"SERVER_ADDRESS":    &opts.Port,
		"DATABASE_DSN":      &opts.DatabaseDSN,
		"LOG_LEVEL":         &opts.LogLevel,
		"TLS_CERT":          &opts.TLSCert,
		"TLS_KEY":           &opts.TLSKey,
		"TLS_CA":            &opts.TLSCA,
		"CRM_CLIENT_ID":     &opts.CRM.ClientID,
		"CRM_CLIENT_SECRET": &opts.CRM.ClientSecret,
		"CRM_USERNAME":      &opts.CRM.Username,
		"CRM_PASSWORD":      &opts.CRM.Password,
		"CRM_AUTH_URL":      &opts.CRM.AuthURL,
		"CRM_API_VERSION":   &opts.CRM.APIVersion,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	if v := getenv("CRM_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CRM_RATE_LIMIT: %w", err)
		}
		opts.CRM.RateLimit = f
	}

	ints := map[string]*int{
		"CRM_RATE_BURST":    &opts.CRM.RateBurst,
		"SWEEP_CONCURRENCY": &opts.Sweep.Concurrency,
		"SWEEP_BATCH":       &opts.Sweep.Batch,
	}
	for key, dst := range ints {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*Duration{
		"CRM_TIMEOUT":    &opts.CRM.Timeout,
		"SWEEP_INTERVAL": &opts.Sweep.Interval,
	}
	for key, dst := range durations {
		if v := getenv(key); v != "" {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	return nil
}

// CRMCredential returns the service credential used to authenticate with the CRM.
func (o *Options) CRMCredential() crm.ServiceCredential {
	return crm.ServiceCredential{
		ClientID:     o.CRM.ClientID,
		ClientSecret: o.CRM.ClientSecret,
		Username:     o.CRM.Username,
		Password:     o.CRM.Password,
		AuthEndpoint: o.CRM.AuthURL,
	}
}

// CRMClientConfig returns the REST client tuning.
func (o *Options) CRMClientConfig() crm.ClientConfig {
	return crm.ClientConfig{
		APIVersion: o.CRM.APIVersion,
		RateLimit:  o.CRM.RateLimit,
		RateBurst:  o.CRM.RateBurst,
	}
}
