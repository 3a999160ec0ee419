package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Consul   ConsulConfig
	Firebase FirebaseConfig
	LogLevel string
}

type ServerConfig struct {
	Port string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	URL string
}

type ConsulConfig struct {
	Host string
	Port string
}

type FirebaseConfig struct {
	CredentialsFile string
}

func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("ES")

	_ = v.BindEnv("server.port", "ES_PORT")
	_ = v.BindEnv("mongo.uri", "ES_MONGO_URI")
	_ = v.BindEnv("mongo.database", "ES_MONGO_DATABASE")
	_ = v.BindEnv("redis.url", "ES_REDIS_URL")
	_ = v.BindEnv("consul.host", "ES_CONSUL_HOST")
	_ = v.BindEnv("consul.port", "ES_CONSUL_PORT")
	_ = v.BindEnv("firebase.credentials", "ES_FIREBASE_CREDENTIALS")
	_ = v.BindEnv("log.level", "ES_LOG_LEVEL")

	v.SetDefault("server.port", "8080")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "engage")
	v.SetDefault("consul.port", "8500")
	v.SetDefault("log.level", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("server.port"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("mongo.uri"),
			Database: v.GetString("mongo.database"),
		},
		Redis: RedisConfig{
			URL: v.GetString("redis.url"),
		},
		Consul: ConsulConfig{
			Host: v.GetString("consul.host"),
			Port: v.GetString("consul.port"),
		},
		Firebase: FirebaseConfig{
			CredentialsFile: v.GetString("firebase.credentials"),
		},
		LogLevel: v.GetString("log.level"),
	}

	return cfg, nil
}
