// Application configuration: YAML file plus environment overrides for
// the VAPID sender identity.
package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Registry RegistryConfig `mapstructure:"registry"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Rabbit   RabbitConfig   `mapstructure:"rabbit"`
	Push     PushConfig     `mapstructure:"push"`
	Vapid    VapidConfig    `mapstructure:"vapid"`
}

type ServerConfig struct {
	Port        string        `mapstructure:"port"`
	Timeout     time.Duration `mapstructure:"timeout"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	Mode        string        `mapstructure:"mode"`
}

// RegistryConfig selects the subscription store backing.
type RegistryConfig struct {
	Backend string `mapstructure:"backend"` // memory, redis or postgres
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RabbitConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	URL       string `mapstructure:"url"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	QueueName string `mapstructure:"queue_name"`
}

type PushConfig struct {
	TTL              int           `mapstructure:"ttl"`
	PerTargetTimeout time.Duration `mapstructure:"per_target_timeout"`
	MaxRetryAttempts int           `mapstructure:"max_retry_attempts"`
	RetryBaseDelay   time.Duration `mapstructure:"retry_base_delay"`
}

// VapidConfig is the sender identity. The key material is expected
// from the environment, not the YAML file; absence is fatal at startup.
type VapidConfig struct {
	Subject    string `mapstructure:"subject"`
	PublicKey  string `mapstructure:"public_key"`
	PrivateKey string `mapstructure:"private_key"`
}

func LoadConfig() (*viper.Viper, error) {
	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	viperInstance.BindEnv("vapid.subject", "VAPID_SUBJECT")
	viperInstance.BindEnv("vapid.public_key", "VAPID_PUBLIC_KEY")
	viperInstance.BindEnv("vapid.private_key", "VAPID_PRIVATE_KEY")

	if err := viperInstance.ReadInConfig(); err != nil {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
