package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gitlab.com/adam.stanek/livearchiver/pkg/app"
	"gitlab.com/adam.stanek/livearchiver/pkg/config"
	"gitlab.com/adam.stanek/livearchiver/pkg/utils"
)

func main() {
	initLogger()
	utils.LoadDotEnvFile()

	cfg, err := config.Load()
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			log.Fatal().Str("setting", cfgErr.Setting).Msg(cfgErr.Reason)
		}

		log.Fatal().Err(err).Msg("Unable to load configuration")
	}

	setLogLevel(cfg.LogLevel)

	unlock, err := app.LockOutputDir(cfg.OutputDir)
	if err != nil {
		log.Fatal().Err(err).Str("output_dir", cfg.OutputDir).Msg("Unable to lock output directory")
	}

	defer unlock()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	instance := app.NewApp(app.OptsFromConfig(cfg))

	runner := utils.RunWithGracefulCancel(instance.Run)

	<-interrupt
	log.Warn().Msg("Received interrupt signal, terminating")

	waitForCleanup := make(chan error, 1)

	go func() {
		waitForCleanup <- runner.Cancel()
	}()

	select {
	case <-interrupt:
		unlock()
		log.Fatal().Msg("Received another interrupt signal, forcing termination without clean up")
	case err := <-waitForCleanup:
		if err != nil {
			log.Error().Err(err).Msg("Terminated with error")
		}

		log.Info().Msg("Clean exit")
		return
	}
}

func setLogLevel(logLevelStr string) {
	logLevel, _ := zerolog.ParseLevel(logLevelStr)
	if logLevel == zerolog.NoLevel {
		log.Fatal().Str("value", logLevelStr).Msg("Unknown log level specified")
	}

	log.Info().Msgf("Setting log level to %v", logLevel)
	zerolog.SetGlobalLevel(logLevel)
}

// Set logger for application bootstrap
func initLogger() {
	// Initial log level, overridden later by setLogLevel
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC822}
	log.Logger = log.Output(consoleWriter)
}
