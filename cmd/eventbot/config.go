package main

import (
	"fmt"
	"strings"

	"github.com/nightpulse/eventbot/internal/discord"
	"github.com/nightpulse/eventbot/internal/logger"
	"github.com/nightpulse/eventbot/internal/membership"
	"github.com/nightpulse/eventbot/internal/rabbit"
	"github.com/nightpulse/eventbot/internal/scheduler"
	internalhttp "github.com/nightpulse/eventbot/internal/server/http"
	"github.com/nightpulse/eventbot/internal/storagebuilder"
	"github.com/nightpulse/eventbot/internal/timezone"
	"github.com/spf13/viper"
)

const envConfigPrefix = "$env:"

type NotifierConfig struct {
	Mode string
}

type Config struct {
	HTTPServer internalhttp.Config
	Logger     logger.Config
	Storage    storagebuilder.Config
	Scheduler  scheduler.Config
	Discord    discord.Config
	Rabbit     rabbit.Config
	Notifier   NotifierConfig
	Membership membership.Config
	Timezone   timezone.Config
}

func NewConfig(configFile string) (Config, error) {
	config := Config{}
	viper.SetConfigFile(configFile)

	viper.SetDefault("httpServer.host", "127.0.0.1")
	viper.SetDefault("httpServer.port", "8007")
	viper.SetDefault("logger.level", "WARN")
	viper.SetDefault("storage.storageType", "memory")
	viper.SetDefault("scheduler.dispatchInterval", "1m")
	viper.SetDefault("scheduler.discoveryInterval", "1m")
	viper.SetDefault("scheduler.expiryInterval", "5m")
	viper.SetDefault("discord.token", "$env:DISCORD_TOKEN")
	viper.SetDefault("rabbit.host", "127.0.0.1")
	viper.SetDefault("rabbit.port", "5672")
	viper.SetDefault("rabbit.user", "user")
	viper.SetDefault("rabbit.password", "pass")
	viper.SetDefault("rabbit.queue", "eventbot.notify")
	viper.SetDefault("notifier.mode", "discord")
	viper.SetDefault("membership.mode", "records")
	viper.SetDefault("timezone.display", timezone.DefaultDisplayZone)

	err := viper.ReadInConfig()
	if err != nil {
		return config, fmt.Errorf("failed to read config %q: %w", configFile, err)
	}
	keys := viper.AllKeys()
	for _, key := range keys {
		env := viper.GetString(key)
		if strings.HasPrefix(env, envConfigPrefix) {
			err := viper.BindEnv(key, env[len(envConfigPrefix):])
			if err != nil {
				return Config{}, fmt.Errorf("failed to prepare config: %w", err)
			}
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return config, nil
}
