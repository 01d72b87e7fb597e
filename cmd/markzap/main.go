package main

import (
	"os"

	"github.com/connctd/markzap"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var (
	logLevel string
	logJSON  bool
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "markzap"
	app.Usage = "View, edit and present markdown documents"
	app.Version = markzap.Version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			EnvVar:      "MARKZAP_LOG_LEVEL",
			Destination: &logLevel,
		},
		cli.BoolFlag{
			Name:        "log-json",
			Usage:       "Log as JSON",
			EnvVar:      "MARKZAP_LOG_JSON",
			Destination: &logJSON,
		},
	}
	app.Before = setupLogging
	app.Commands = []cli.Command{
		serveCommand,
		openCommand,
		presentCommand,
		previewCommand,
		detectCommand,
		editCommand,
	}
	return app
}

func setupLogging(ctx *cli.Context) error {
	log := logrus.StandardLogger()
	log.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if logJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	markzap.SetLogger(log)
	return nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
