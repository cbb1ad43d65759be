package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	API struct {
		Key string `yaml:"key"`
	} `yaml:"api"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Reconcile struct {
		StagingBins           string `yaml:"stagingBins"`           // comma separated, e.g. "S-01,S-02"
		StagingThresholdHours int    `yaml:"stagingThresholdHours"` // dwell limit untuk staging bins
		RecentScanHours       int    `yaml:"recentScanHours"`       // look-back proof-of-scan untuk missing items
		RunTimeoutSeconds     int    `yaml:"runTimeoutSeconds"`
	} `yaml:"reconcile"`
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Reconcile.StagingBins == "" {
		c.Reconcile.StagingBins = "S-01,S-02,S-03,S-04"
	}
	if c.Reconcile.StagingThresholdHours == 0 {
		c.Reconcile.StagingThresholdHours = 12
	}
	if c.Reconcile.RecentScanHours == 0 {
		c.Reconcile.RecentScanHours = 24
	}
	if c.Reconcile.RunTimeoutSeconds == 0 {
		c.Reconcile.RunTimeoutSeconds = 120
	}
}

// StagingBinsList pecah daftar staging bins dari config
func (c *Config) StagingBinsList() []string {
	var out []string
	for _, b := range strings.Split(c.Reconcile.StagingBins, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
