package main

import (
	"fmt"
	"os"

	"github.com/connctd/markzap"
	"github.com/urfave/cli"
)

var detectCommand = cli.Command{
	Name:      "detect",
	Usage:     "Report whether markdown files look like slide presentations",
	ArgsUsage: "FILE...",
	Action: func(ctx *cli.Context) error {
		if !ctx.Args().Present() {
			return cli.NewExitError("missing FILE argument", 2)
		}
		for _, path := range ctx.Args() {
			buf, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			content := string(buf)
			kind := "document"
			if markzap.DetectPresentation(content) {
				kind = "presentation"
			}
			fmt.Fprintf(ctx.App.Writer, "%s\t%s\t%d\n", path, kind, len(markzap.SplitSlides(content)))
		}
		return nil
	},
}

var editCommand = cli.Command{
	Name:      "edit",
	Aliases:   []string{"e"},
	Usage:     "Open a markdown file in $EDITOR",
	ArgsUsage: "FILE",
	Action: func(ctx *cli.Context) error {
		path := ctx.Args().First()
		if path == "" {
			return cli.NewExitError("missing FILE argument", 2)
		}
		doc := markzap.OpenDocument(path)
		wasPresentation := doc.HasPresentation()
		changed, err := markzap.EditDocument(doc)
		if err != nil {
			return err
		}
		if changed && doc.HasPresentation() && !wasPresentation {
			fmt.Fprintf(ctx.App.Writer, "%s is now a presentation, run `markzap present %s`\n", path, path)
		}
		return nil
	},
}
