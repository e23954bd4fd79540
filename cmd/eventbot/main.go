package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nightpulse/eventbot/internal/app"
	"github.com/nightpulse/eventbot/internal/discord"
	"github.com/nightpulse/eventbot/internal/logger"
	"github.com/nightpulse/eventbot/internal/membership"
	"github.com/nightpulse/eventbot/internal/notify"
	"github.com/nightpulse/eventbot/internal/rabbit"
	"github.com/nightpulse/eventbot/internal/reminder"
	"github.com/nightpulse/eventbot/internal/rsvp"
	"github.com/nightpulse/eventbot/internal/scheduler"
	internalhttp "github.com/nightpulse/eventbot/internal/server/http"
	"github.com/nightpulse/eventbot/internal/storagebuilder"
	"github.com/nightpulse/eventbot/internal/timezone"
	log "github.com/sirupsen/logrus"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/config.yaml", "Path to configuration file")
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
	tz, err := timezone.New(config.Timezone.Display)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	stor, err := storagebuilder.New(config.Storage)
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

	var sink notify.Sink
	switch config.Notifier.Mode {
	case "discord":
		sink = dc
	case "rabbit":
		provider := rabbit.New(config.Rabbit)
		if err := provider.Connect(); err != nil {
			log.Errorf("failed to connect to rabbit: %v", err)
			return
		}
		defer provider.Close()
		sink = rabbit.NewSink(provider)
	default:
		log.Errorf("unknown notifier mode %s", config.Notifier.Mode)
		return
	}

	members, err := membership.New(config.Membership, stor, dc)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	index := reminder.NewIndex()
	registrar := rsvp.NewRegistrar(stor, sink, tz)
	application := app.New(stor, index, registrar)
	sched := scheduler.New(config.Scheduler, stor, index, sink, members, dc, tz)
	server := internalhttp.NewServer(config.HTTPServer, application)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	go sched.Run(ctx)

	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			log.Error("failed to stop http server: " + err.Error())
		}
	}()

	log.Info("eventbot is running...")

	if err := server.Start(ctx); err != nil {
		log.Error("failed to start http server: " + err.Error())
		cancel()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		err := stor.Close(ctx)
		if err != nil {
			log.Errorf("failed to close storage: %v", err)
		}
		os.Exit(1) //nolint:gocritic
	}
	ctx, cancel = context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()
	err = stor.Close(ctx)
	if err != nil {
		log.Errorf("failed to close storage: %v", err)
	}
}
