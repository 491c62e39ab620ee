package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "DASHBOARD"

var searchPaths = []string{
	"./configs",
	"../configs",
	"/etc/patient-dashboard",
}

type TLS struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	CertFile string `mapstructure:"cert_file" yaml:"cert_file"`
	KeyFile  string `mapstructure:"key_file" yaml:"key_file"`
}

type RateLimit struct {
	RPS   float64 `mapstructure:"rps" yaml:"rps"`
	Burst int     `mapstructure:"burst" yaml:"burst"`
}

type Server struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	Mode            string        `mapstructure:"mode" yaml:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	TLS             TLS           `mapstructure:"tls" yaml:"tls"`
	RateLimit       RateLimit     `mapstructure:"rate_limit" yaml:"rate_limit"`
}

type Upstream struct {
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	Username string        `mapstructure:"username" yaml:"username"`
	Password string        `mapstructure:"password" yaml:"password"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type Ingest struct {
	OrderPolicy string `mapstructure:"order_policy" yaml:"order_policy"`
}

type Assets struct {
	DefaultImage string `mapstructure:"default_image" yaml:"default_image"`
}

type Log struct {
	Development bool   `mapstructure:"development" yaml:"development"`
	Level       string `mapstructure:"level" yaml:"level"`
}

type Elasticsearch struct {
	Addresses   []string `mapstructure:"addresses" yaml:"addresses"`
	Username    string   `mapstructure:"username" yaml:"username"`
	Password    string   `mapstructure:"password" yaml:"password"`
	IndexPrefix string   `mapstructure:"index_prefix" yaml:"index_prefix"`
}

type Mongo struct {
	URI            string        `mapstructure:"uri" yaml:"uri"`
	Database       string        `mapstructure:"database" yaml:"database"`
	Collection     string        `mapstructure:"collection" yaml:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

type Postgres struct {
	Host        string        `mapstructure:"host" yaml:"host"`
	Port        int           `mapstructure:"port" yaml:"port"`
	User        string        `mapstructure:"user" yaml:"user"`
	Password    string        `mapstructure:"password" yaml:"password"`
	Database    string        `mapstructure:"database" yaml:"database"`
	SSLMode     string        `mapstructure:"sslmode" yaml:"sslmode"`
	Table       string        `mapstructure:"table" yaml:"table"`
	MaxPoolSize int32         `mapstructure:"max_pool_size" yaml:"max_pool_size"`
	ConnTimeout time.Duration `mapstructure:"conn_timeout" yaml:"conn_timeout"`
}

type Audit struct {
	Sink          string        `mapstructure:"sink" yaml:"sink"`
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch" yaml:"elasticsearch"`
	Mongo         Mongo         `mapstructure:"mongo" yaml:"mongo"`
	Postgres      Postgres      `mapstructure:"postgres" yaml:"postgres"`
}

type Config struct {
	Server   Server   `mapstructure:"server" yaml:"server"`
	Upstream Upstream `mapstructure:"upstream" yaml:"upstream"`
	Ingest   Ingest   `mapstructure:"ingest" yaml:"ingest"`
	Assets   Assets   `mapstructure:"assets" yaml:"assets"`
	Log      Log      `mapstructure:"log" yaml:"log"`
	Audit    Audit    `mapstructure:"audit" yaml:"audit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.cert_file", "")
	v.SetDefault("server.tls.key_file", "")
	v.SetDefault("server.rate_limit.rps", 30)
	v.SetDefault("server.rate_limit.burst", 30)

	// Static credentials issued with the public test endpoint.
	v.SetDefault("upstream.endpoint", "https://fedskillstest.coalitiontechnologies.workers.dev")
	v.SetDefault("upstream.username", "coalition")
	v.SetDefault("upstream.password", "skills-test")
	v.SetDefault("upstream.timeout", 10*time.Second)

	v.SetDefault("ingest.order_policy", "strict")
	v.SetDefault("assets.default_image", "/static/default-avatar.svg")

	v.SetDefault("log.development", false)
	v.SetDefault("log.level", "info")

	v.SetDefault("audit.sink", "log")
	v.SetDefault("audit.elasticsearch.addresses", []string{})
	v.SetDefault("audit.elasticsearch.username", "")
	v.SetDefault("audit.elasticsearch.password", "")
	v.SetDefault("audit.elasticsearch.index_prefix", "phi_audit")
	v.SetDefault("audit.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("audit.mongo.database", "patient_dashboard")
	v.SetDefault("audit.mongo.collection", "audit_events")
	v.SetDefault("audit.mongo.connect_timeout", 5*time.Second)
	v.SetDefault("audit.postgres.host", "localhost")
	v.SetDefault("audit.postgres.port", 5432)
	v.SetDefault("audit.postgres.user", "postgres")
	v.SetDefault("audit.postgres.password", "")
	v.SetDefault("audit.postgres.database", "patient_dashboard")
	v.SetDefault("audit.postgres.sslmode", "disable")
	v.SetDefault("audit.postgres.table", "audit_events")
	v.SetDefault("audit.postgres.max_pool_size", 4)
	v.SetDefault("audit.postgres.conn_timeout", 5*time.Second)
}

// Load reads configuration from path, or from the first config.yaml found in
// the search paths when path is empty. A missing file is not an error; every
// key has a default. Environment variables override the file, e.g.
// DASHBOARD_UPSTREAM_TIMEOUT=3s.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Upstream.Endpoint == "" {
		return fmt.Errorf("upstream.endpoint is required")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Ingest.OrderPolicy {
	case "strict", "sort":
	default:
		return fmt.Errorf("ingest.order_policy must be strict or sort, got %q", c.Ingest.OrderPolicy)
	}
	switch c.Audit.Sink {
	case "log", "elasticsearch", "mongo", "postgres":
	default:
		return fmt.Errorf("audit.sink %q is not supported", c.Audit.Sink)
	}
	if c.Audit.Sink == "elasticsearch" && len(c.Audit.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("audit.elasticsearch.addresses is required for the elasticsearch sink")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Redacted returns a copy with every password masked.
func (c *Config) Redacted() Config {
	out := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	out.Upstream.Password = mask(out.Upstream.Password)
	out.Audit.Elasticsearch.Password = mask(out.Audit.Elasticsearch.Password)
	out.Audit.Postgres.Password = mask(out.Audit.Postgres.Password)
	out.Audit.Elasticsearch.Addresses = append([]string(nil), c.Audit.Elasticsearch.Addresses...)
	return out
}

// Write prints the redacted configuration as YAML.
func (c *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	redacted := c.Redacted()
	if err := enc.Encode(&redacted); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
