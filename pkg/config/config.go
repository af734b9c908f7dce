package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Defense  DefenseConfig  `mapstructure:"defense"`
	Exam     ExamConfig     `mapstructure:"exam"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// DefenseConfig tunes the request-defense pipeline. Every threshold has a
// production default; the file section only needs the values being changed.
type DefenseConfig struct {
	BanKeyPrefix     string   `mapstructure:"ban_key_prefix"`
	BanTTLSeconds    int      `mapstructure:"ban_ttl_seconds"`
	StallSeconds     int      `mapstructure:"stall_seconds"`
	MaxPayloadBytes  int      `mapstructure:"max_payload_bytes"`
	DecoyURL         string   `mapstructure:"decoy_url"`
	AllowedPaths     []string `mapstructure:"allowed_paths"`
	ApprovedReferers []string `mapstructure:"approved_referers"`
	DenylistCIDRs    []string `mapstructure:"denylist_cidrs"`
}

type ExamConfig struct {
	SuspiciousWindowSeconds int `mapstructure:"suspicious_window_seconds"`
	WindowSize              int `mapstructure:"window_size"`
	FlagTTLSeconds          int `mapstructure:"flag_ttl_seconds"`
}

var globalConfig Config

func Load(configPath string) error {
	if err := loadConfigFile(configPath, "config", &globalConfig); err != nil {
		return fmt.Errorf("could not load main config file: %w", err)
	}
	setDefaultValues()
	return nil
}

func loadConfigFile(configPath, fileName string, out interface{}) error {
	viper.SetConfigName(fileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file %s.yaml not found, using only environment variables", fileName)
		}
		return fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
	}

	if err := viper.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", fileName, err)
	}

	return nil
}

func setDefaultValues() {
	if globalConfig.Database.SSLMode == "" {
		globalConfig.Database.SSLMode = "disable"
	}
	if globalConfig.Defense.BanKeyPrefix == "" {
		globalConfig.Defense.BanKeyPrefix = "ban:"
	}
	if globalConfig.Defense.StallSeconds == 0 {
		globalConfig.Defense.StallSeconds = 5
	}
	if globalConfig.Defense.MaxPayloadBytes == 0 {
		globalConfig.Defense.MaxPayloadBytes = 10 * 1024 * 1024
	}
	if globalConfig.Exam.SuspiciousWindowSeconds == 0 {
		globalConfig.Exam.SuspiciousWindowSeconds = 300
	}
	if globalConfig.Exam.WindowSize == 0 {
		globalConfig.Exam.WindowSize = 5
	}
	if globalConfig.Exam.FlagTTLSeconds == 0 {
		globalConfig.Exam.FlagTTLSeconds = 86400
	}
}

func GetConfig() *Config {
	return &globalConfig
}
