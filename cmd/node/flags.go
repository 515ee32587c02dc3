package main

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/tolelom/arcadechain/config"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "Path to the node config file (.toml or .json)",
		Value: "config.toml",
	}
	keyFlag = cli.StringFlag{
		Name:  "key",
		Usage: "Path to the encrypted sequencer keystore",
		Value: "sequencer.key",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log.level",
		Usage: "Override the configured log level (trace|debug|info|warn|error)",
	}
	logFormatFlag = cli.StringFlag{
		Name:  "log.format",
		Usage: "Override the configured log format (text|json)",
	}
)

// password reads the keystore password from the environment; CLI flags
// leak through the process list.
func password() string {
	pw := os.Getenv("ARCADE_PASSWORD")
	if pw == "" {
		log.Warn("ARCADE_PASSWORD not set, keystore will use an empty password")
	}
	return pw
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	path := ctx.GlobalString(configFlag.Name)
	cfg, err := config.Load(path)
	if os.IsNotExist(err) {
		log.WithField("path", path).Info("Config file not found, using defaults")
		cfg, err = config.DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	if lvl := ctx.GlobalString(logLevelFlag.Name); lvl != "" {
		cfg.Log.Level = lvl
	}
	if f := ctx.GlobalString(logFormatFlag.Name); f != "" {
		cfg.Log.Format = f
	}
	return cfg, nil
}

func setupLogging(cfg config.LogConfig) error {
	if cfg.Level != "" {
		lvl, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		log.SetLevel(lvl)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return nil
}
