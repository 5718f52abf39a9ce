package providers

import (
	"flairhq/internal/flair"
	"flairhq/internal/structures"
	"fmt"
	"github.com/spf13/viper"
	"path/filepath"
	"strings"
	"time"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.SetDefault("cache.ttl", 30*time.Second)
	viper.SetDefault("archive.interval", time.Hour)
	viper.SetDefault("audit.queueSize", 256)
	viper.SetDefault("auth.tokenTTL", 24*time.Hour)
	viper.SetDefault("flair.textCooldown", 2*time.Minute)
	viper.SetDefault("flair.similarityThreshold", flair.DefaultSimilarityThreshold)
	viper.SetDefault("reddit.timeout", 10*time.Second)
	viper.SetDefault("storage.events.driver", "sqlite")

	viper.BindEnv("logger.level", "FLAIRHQ_LOG_LEVEL")
	viper.BindEnv("storage.path", "FLAIRHQ_DB_PATH")
	viper.BindEnv("storage.events.mongoURI", "FLAIRHQ_MONGO_URI")
	viper.BindEnv("reddit.clientSecret", "FLAIRHQ_REDDIT_SECRET")
	viper.BindEnv("reddit.adminRefreshToken", "FLAIRHQ_REDDIT_REFRESH_TOKEN")
	viper.BindEnv("auth.jwtSecret", "FLAIRHQ_JWT_SECRET")
	viper.BindEnv("cache.enabled", "FLAIRHQ_CACHE_ENABLED")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "FlairHQ"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
