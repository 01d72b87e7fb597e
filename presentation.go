package markzap

import (
	"bytes"
	"strings"
	"text/template"
	"unicode"
)

const (
	revealCDN = "https://cdn.jsdelivr.net/npm/reveal.js@5"

	RevealCSSURL      = revealCDN + "/dist/reveal.css"
	RevealThemeURL    = revealCDN + "/dist/theme/white.css"
	RevealJSURL       = revealCDN + "/dist/reveal.js"
	RevealMarkdownURL = revealCDN + "/plugin/markdown/markdown.js"

	PresentationTitle = "MarkZap Presentation"
)

// slideSplit is the separator the bootstrap script splits on.
const slideSplit = "\n---\n"

var presentationTmpl = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>[[ .Title ]]</title>
    <link rel="stylesheet" href="[[ .CSS ]]">
    <link rel="stylesheet" href="[[ .Theme ]]">
    <style>
        body { margin: 0; padding: 0; overflow: hidden; }
        .reveal { height: 100vh; }
    </style>
</head>
<body>
    <div class="reveal">
        <div class="slides" id="slides"></div>
    </div>
    <script src="[[ .Script ]]"></script>
    <script src="[[ .MarkdownPlugin ]]"></script>
    <script>
        const markdown = ` + "`[[ .Markdown ]]`" + `;
        const parts = markdown.split(/\n---\n/);
        const container = document.getElementById('slides');
        for (const part of parts) {
            const trimmed = part.trim();
            if (!trimmed) continue;
            const section = document.createElement('section');
            section.setAttribute('data-markdown', '');
            const textarea = document.createElement('textarea');
            textarea.setAttribute('data-template', '');
            textarea.textContent = trimmed;
            section.appendChild(textarea);
            container.appendChild(section);
        }
        Reveal.initialize({
            plugins: [RevealMarkdown],
            hash: true,
            controls: true,
            progress: true,
        });
    </script>
</body>
</html>`

var presentationTemplate = template.Must(template.New("presentation").Delims("[[", "]]").Parse(presentationTmpl))

type presentationData struct {
	Title          string
	CSS            string
	Theme          string
	Script         string
	MarkdownPlugin string
	Markdown       string
}

// templateLiteralEscaper makes text safe inside a JavaScript template literal
// that lives in an inline <script> element. It works in a single pass, so the
// backslashes it inserts are never escaped a second time. Every "</" becomes
// "<\/", which covers "</script>" in any letter case and evaluates to the same
// string in JavaScript. "<!--" becomes "<\!--" so the HTML tokenizer never
// enters the escaped script state.
var templateLiteralEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"${", `\${`,
	"</", `<\/`,
	"<!--", `<\!--`,
)

// EscapeTemplateLiteral escapes text for embedding between backticks in an
// inline script.
func EscapeTemplateLiteral(text string) string {
	return templateLiteralEscaper.Replace(text)
}

// GeneratePresentationHTML builds a self-contained reveal.js page that turns
// the markdown text into one slide per separator-delimited part.
func GeneratePresentationHTML(text string) string {
	buf := &bytes.Buffer{}
	err := presentationTemplate.Execute(buf, presentationData{
		Title:          PresentationTitle,
		CSS:            RevealCSSURL,
		Theme:          RevealThemeURL,
		Script:         RevealJSURL,
		MarkdownPlugin: RevealMarkdownURL,
		Markdown:       EscapeTemplateLiteral(text),
	})
	if err != nil {
		panic(err)
	}
	return buf.String()
}

// lineEndings turns CRLF and lone CR into LF, as a template literal does.
var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// SplitSlides splits text the way the presentation page does: on separator
// lines, trimming every part and dropping the empty ones.
func SplitSlides(text string) []string {
	var slides []string
	for _, part := range strings.Split(lineEndings.Replace(text), slideSplit) {
		part = strings.TrimFunc(part, isJSSpace)
		if part == "" {
			continue
		}
		slides = append(slides, part)
	}
	return slides
}

// isJSSpace matches the characters String.prototype.trim removes: ECMAScript
// WhiteSpace and LineTerminator.
func isJSSpace(r rune) bool {
	switch r {
	case '\t', '\v', '\f', ' ', '\u00A0', '\uFEFF', '\n', '\r', '\u2028', '\u2029':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}
