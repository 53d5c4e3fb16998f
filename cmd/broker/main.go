package main

import (
	"context"

	"github.com/peerconnect/peerconnect/pkg/broker"
	"github.com/peerconnect/peerconnect/pkg/config"
	"github.com/peerconnect/peerconnect/pkg/logger"
	"github.com/peerconnect/peerconnect/pkg/os"
)

var Version = "?"

func main() {
	conf, err := config.NewConfig("")
	if err != nil {
		logger.Default().Fatal().Err(err).Msg("config fail")
	}
	conf.ParseFlags()

	log := logger.NewConsole(conf.Broker.Debug, "b", false)
	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	b, err := broker.New(conf, log)
	if err != nil {
		log.Fatal().Err(err).Msg("broker fail")
	}
	b.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		if err := b.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("service shutdown errors")
		}
	}()
	<-os.ExpectTermination()
	cancel()
}
