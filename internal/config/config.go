package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"eco-alarm/common/config"

	"gopkg.in/yaml.v3"
)

// Config 报警服务配置
type Config struct {
	HTTP struct {
		Addr      string `yaml:"addr"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"http"`

	DBEnabled bool                    `yaml:"db_enabled"`
	Database  config.DatabaseConfig   `yaml:"database"`
	Redis     config.RedisConfig      `yaml:"redis"`
	MQTT      MQTTIngest              `yaml:"mqtt"`
	SMTP      config.SMTPConfig       `yaml:"smtp"`
	SMS       config.SMSGatewayConfig `yaml:"sms"`

	// 报警服务特定配置
	Alarm struct {
		Cache struct {
			SettingsKeyPrefix string        `yaml:"settings_key_prefix"` // 设置键前缀，如 "eco:alert-settings:"
			ReadingKeyPrefix  string        `yaml:"reading_key_prefix"`  // 最新读数键前缀，如 "eco:reading:"
			ReadingSuffix     string        `yaml:"reading_suffix"`      // 最新读数键后缀，如 ":latest"
			ReadingTTL        time.Duration `yaml:"reading_ttl"`
			CooldownKeyPrefix string        `yaml:"cooldown_key_prefix"`
		} `yaml:"cache"`

		Cooldown time.Duration `yaml:"cooldown"` // 同一用户/指标/设置版本的通知间隔

		// 轮询配置
		PollInterval time.Duration `yaml:"poll_interval"`

		Evaluation struct {
			BatchSize int `yaml:"batch_size"` // 每批评估的用户数
		} `yaml:"evaluation"`

		Outcomes struct {
			Stream string `yaml:"stream"`
			MaxLen int64  `yaml:"max_len"`
		} `yaml:"outcomes"`

		// Simulate 未配置 SMTP/短信网关时使用模拟通道
		Simulate bool `yaml:"simulate"`
	} `yaml:"alarm"`

	Recommend struct {
		Endpoint string        `yaml:"endpoint"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"recommend"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// MQTTIngest 遥测订阅配置
type MQTTIngest struct {
	Enabled           bool `yaml:"enabled"`
	config.MQTTConfig `yaml:",inline"`
	Topic             string `yaml:"topic"`
}

// Load 加载配置：环境变量默认值，CONFIG_FILE 指定的 YAML 文件覆盖
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.JWTSecret = getEnv("JWT_SECRET", "dev-secret")

	cfg.DBEnabled = getEnvBool("DB_ENABLED", false)
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "eco"
	cfg.Database.SSLMode = "disable"
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT.Enabled = getEnvBool("MQTT_ENABLED", false)
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "eco-alarm"
	cfg.MQTT.LoadFromEnv("MQTT")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "eco/+/readings")

	cfg.SMTP.Port = "587"
	cfg.SMTP.FromName = "Eco Alerts"
	cfg.SMTP.Timeout = 30 * time.Second
	cfg.SMTP.LoadFromEnv("SMTP")

	cfg.SMS.Timeout = 10 * time.Second
	cfg.SMS.LoadFromEnv("SMS")

	cfg.Alarm.Cache.SettingsKeyPrefix = getEnv("CACHE_SETTINGS_PREFIX", "eco:alert-settings:")
	cfg.Alarm.Cache.ReadingKeyPrefix = getEnv("CACHE_READING_PREFIX", "eco:reading:")
	cfg.Alarm.Cache.ReadingSuffix = ":latest"
	cfg.Alarm.Cache.ReadingTTL = getEnvDuration("CACHE_READING_TTL", 10*time.Minute)
	cfg.Alarm.Cache.CooldownKeyPrefix = getEnv("CACHE_COOLDOWN_PREFIX", "eco:alert-cooldown:")

	cfg.Alarm.Cooldown = getEnvDuration("ALERT_COOLDOWN", 2*time.Minute)
	cfg.Alarm.PollInterval = getEnvDuration("POLL_INTERVAL", 5*time.Second)
	cfg.Alarm.Evaluation.BatchSize = getEnvInt("EVAL_BATCH_SIZE", 10)
	cfg.Alarm.Outcomes.Stream = getEnv("OUTCOME_STREAM", "eco:alert-outcomes")
	cfg.Alarm.Outcomes.MaxLen = int64(getEnvInt("OUTCOME_STREAM_MAXLEN", 1000))
	cfg.Alarm.Simulate = getEnvBool("ALERT_SIMULATE", true)

	cfg.Recommend.Endpoint = getEnv("AI_ENDPOINT", "")
	cfg.Recommend.APIKey = getEnv("AI_API_KEY", "")
	cfg.Recommend.Timeout = getEnvDuration("AI_TIMEOUT", 15*time.Second)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// overlayFile 读取 YAML 文件，仅覆盖文件中出现的字段
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
