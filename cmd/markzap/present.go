package main

import (
	"io"
	"os"

	"github.com/connctd/markzap"
	"github.com/urfave/cli"
)

var outputFlag = cli.StringFlag{
	Name:  "output, o",
	Usage: "Write to `FILE` instead of stdout",
}

var presentCommand = cli.Command{
	Name:      "present",
	Aliases:   []string{"p"},
	Usage:     "Write the reveal.js presentation page of a markdown file",
	ArgsUsage: "FILE",
	Flags:     []cli.Flag{outputFlag},
	Action: func(ctx *cli.Context) error {
		doc, err := documentArg(ctx)
		if err != nil {
			return err
		}
		return writeOutput(ctx.String("output"), markzap.GeneratePresentationHTML(doc.Content()))
	},
}

var previewCommand = cli.Command{
	Name:      "preview",
	Aliases:   []string{"render", "r"},
	Usage:     "Write the rendered preview page of a markdown file",
	ArgsUsage: "FILE",
	Flags:     []cli.Flag{outputFlag, engineFlag},
	Action: func(ctx *cli.Context) error {
		doc, err := documentArg(ctx)
		if err != nil {
			return err
		}
		engine, err := markzap.MarkdownEngine(ctx.String("engine"))
		if err != nil {
			return err
		}
		out, err := markzap.RenderPreviewPage(doc.Snapshot(), markzap.PageOptions{Engine: engine})
		if err != nil {
			return err
		}
		return writeOutput(ctx.String("output"), string(out))
	},
}

func documentArg(ctx *cli.Context) (*markzap.Document, error) {
	path := ctx.Args().First()
	if path == "" {
		return nil, cli.NewExitError("missing FILE argument", 2)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return markzap.NewDocument(path, string(buf)), nil
}

func writeOutput(path, content string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(os.Stdout, content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
