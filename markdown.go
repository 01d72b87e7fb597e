package markzap

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"github.com/russross/blackfriday/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

const (
	EngineBlackfriday = "blackfriday"
	EngineGoldmark    = "goldmark"
)

var ErrUnknownEngine = errors.New("unknown markdown engine")

const markdownExtensions = blackfriday.NoIntraEmphasis | blackfriday.Tables | blackfriday.FencedCode |
	blackfriday.Strikethrough | blackfriday.SpaceHeadings | blackfriday.HeadingIDs | blackfriday.AutoHeadingIDs |
	blackfriday.BackslashLineBreak | blackfriday.DefinitionLists | blackfriday.Autolink

func init() {
	md := &BlackfridayRenderer{}
	RegisterPreviewFormat("md", md)
	RegisterPreviewFormat("markdown", md)
}

type BlackfridayRenderer struct{}

func (b *BlackfridayRenderer) Render(src []byte) (template.HTML, error) {
	out := blackfriday.Run(src,
		blackfriday.WithExtensions(
			markdownExtensions,
		),
	)
	return template.HTML(out), nil
}

// GoldmarkRenderer renders GitHub flavored markdown. Raw HTML in the
// document is passed through, as a local viewer trusts its own files.
type GoldmarkRenderer struct {
	md goldmark.Markdown
}

func NewGoldmarkRenderer() *GoldmarkRenderer {
	return &GoldmarkRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.DefinitionList,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
	}
}

func (g *GoldmarkRenderer) Render(src []byte) (template.HTML, error) {
	buf := &bytes.Buffer{}
	if err := g.md.Convert(src, buf); err != nil {
		return "", fmt.Errorf("goldmark: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// MarkdownEngine returns the markdown renderer registered under name. An
// empty name selects blackfriday.
func MarkdownEngine(name string) (PreviewRenderer, error) {
	switch name {
	case "", EngineBlackfriday:
		return &BlackfridayRenderer{}, nil
	case EngineGoldmark:
		return NewGoldmarkRenderer(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}
