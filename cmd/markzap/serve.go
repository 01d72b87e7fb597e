package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/connctd/markzap"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var engineFlag = cli.StringFlag{
	Name:   "engine",
	Usage:  "Markdown engine for the preview (blackfriday, goldmark)",
	Value:  markzap.EngineBlackfriday,
	EnvVar: "MARKZAP_ENGINE",
}

var serveFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "addr",
		Usage:  "Specify the address to listen on",
		Value:  ":8080",
		EnvVar: "MARKZAP_ADDR",
	},
	engineFlag,
	cli.StringFlag{
		Name:  "mode",
		Usage: "Initial mode (preview, edit)",
		Value: "preview",
	},
}

var serveCommand = cli.Command{
	Name:        "serve",
	Aliases:     []string{"s"},
	Description: "Serve the document preview, editor and presentation on a webserver",
	Usage:       "serve [--addr :8080] [FILE]",
	Flags:       serveFlags,
	Action: func(ctx *cli.Context) error {
		return serveDocument(ctx, markzap.OpenDocument(ctx.Args().First()))
	},
}

var openCommand = cli.Command{
	Name:      "open",
	Usage:     "Serve the document behind a file:// URL",
	ArgsUsage: "URL",
	Flags:     serveFlags,
	Action: func(ctx *cli.Context) error {
		path, ok := markzap.PathFromURL(ctx.Args().First())
		if !ok {
			return cli.NewExitError("expected a file:// URL", 2)
		}
		return serveDocument(ctx, markzap.OpenDocument(path))
	},
}

func serveDocument(ctx *cli.Context, doc *markzap.Document) error {
	engine, err := markzap.MarkdownEngine(ctx.String("engine"))
	if err != nil {
		return err
	}
	mode, err := markzap.ParseMode(ctx.String("mode"))
	if err != nil {
		return err
	}
	doc.SetMode(mode)

	cctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server := markzap.NewDocumentServer(cctx, doc, engine, ctx.String("addr"))
	l, err := server.Listen()
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"path":         doc.Path(),
		"presentation": doc.HasPresentation(),
	}).Info(doc.Title())
	fmt.Printf("Serving %s on http://%s\n", doc.Title(), l.Addr())
	server.Run(l)

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- markzap.WatchDocument(cctx, doc, server.Rerender)
	}()

	select {
	case <-cctx.Done():
	case err = <-watchErr:
	}
	if closeErr := server.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
