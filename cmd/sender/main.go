package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/nightpulse/eventbot/internal/discord"
	"github.com/nightpulse/eventbot/internal/logger"
	"github.com/nightpulse/eventbot/internal/notify"
	"github.com/nightpulse/eventbot/internal/rabbit"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/sender_config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	dc, err := discord.New(config.Discord)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	if err := dc.Open(); err != nil {
		log.Errorf("failed to connect to discord: %v", err)
		return
	}
	defer dc.Close()

	r := rabbit.New(config.Rabbit)
	if err := r.Connect(); err != nil {
		log.Errorf("failed to connect to rabbit: %v", err)
		return
	}
	defer r.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	log.Info("sender is running...")

	err = r.Consume(ctx, func(msg amqp.Delivery) {
		m := rabbit.Message{}
		if err := json.Unmarshal(msg.Body, &m); err != nil {
			log.Errorf("failed to parse notification: %s", err)
			return
		}
		if err := dc.Send(ctx, m.UserID, m.Text); err != nil {
			if errors.Is(err, notify.ErrUndeliverable) {
				log.Warnf("skipping unreachable user %s", m.UserID)
				return
			}
			log.Errorf("failed to deliver notification to user %s: %v", m.UserID, err)
		}
	})
	if err != nil {
		log.Errorf("consume failed: %v", err)
	}
}
