package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	ServerPort   string
	StoreBackend string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
}

// Load reads configuration from POINT_-prefixed environment variables,
// e.g. POINT_SERVER_PORT, POINT_STORE_BACKEND, POINT_DB_HOST.
func Load() *Config {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "point_ledger")
	v.SetDefault("db.sslmode", "disable")

	v.SetEnvPrefix("POINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		ServerPort:   v.GetString("server.port"),
		StoreBackend: v.GetString("store.backend"),
		DBHost:       v.GetString("db.host"),
		DBPort:       v.GetString("db.port"),
		DBUser:       v.GetString("db.user"),
		DBPassword:   v.GetString("db.password"),
		DBName:       v.GetString("db.name"),
		DBSSLMode:    v.GetString("db.sslmode"),
	}
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}
