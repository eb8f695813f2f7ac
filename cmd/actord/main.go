// Command actord runs the actor replication server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"actornet/internal/config"
	"actornet/internal/logging"
	"actornet/server"
)

func main() {
	var (
		configPath = flag.StringP("config", "c", "", "configuration file (default "+config.DefaultPath+")")
		envPath    = flag.String("env", ".env", "dotenv file exported before the configuration is read")
		noWatch    = flag.Bool("no-watch", false, "do not reload the configuration file on change")
	)
	flag.Parse()

	if err := run(*configPath, *envPath, !*noWatch); err != nil {
		fmt.Fprintln(os.Stderr, "actord:", err)
		os.Exit(1)
	}
}

func run(configPath, envPath string, watch bool) error {
	if err := config.LoadDotEnv(envPath); err != nil {
		return err
	}
	src, err := config.NewSource(configPath)
	if err != nil {
		return err
	}
	cfg, err := src.Load()
	if err != nil {
		return err
	}
	log, closer, err := logging.New(cfg.Log, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	log.WithFields(logrus.Fields{
		"config":      src.Path(),
		"max_players": cfg.Server.MaxPlayers,
		"max_actors":  cfg.Actors.MaxActors,
	}).Info("[actord] starting")

	opts := server.Options{Config: cfg, Log: log}
	if watch {
		opts.Source = src
	}
	s := server.New(opts)
	if err := s.Startup(); err != nil {
		return err
	}

	go s.Shutdown()
	return s.Run(context.Background())
}
