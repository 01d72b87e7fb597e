package markzap

import (
	"bytes"
	"html/template"
)

var Version = "undefined"

var baseTmpl = `
[[ define "base" ]]<!DOCTYPE html>
<html>
	<head>
		<meta charset="utf-8">
		<meta name="viewport" content="width=device-width, initial-scale=1">
		<title>[[ .Title ]]</title>
		<style>
			body { margin: 0; font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; }
			.topbar { display: flex; align-items: center; justify-content: space-between; height: 48px; padding: 0 16px; border-bottom: 1px solid #ddd; }
			.topbar .side { width: 150px; display: flex; }
			.topbar .side.right { justify-content: flex-end; }
			.content { padding: 16px; max-width: 960px; margin: 0 auto; }
			.editor { width: 100%; height: calc(100vh - 49px); border: 0; padding: 16px; box-sizing: border-box; font-family: Menlo, monospace; font-size: 14px; resize: none; }
		</style>
	</head>
	<body>
		[[ template "topbar" . ]]
		[[ block "content" . ]][[ end ]]
		[[ block "js" . ]][[ end ]]
	</body>
</html>
[[ end ]]
`

var topbarTmpl = `
[[ define "topbar" ]]
<div class="topbar">
	<div class="side"></div>
	<form method="post" action="/mode">
		[[ if .Editing ]]
		<button type="submit" name="mode" value="preview">Preview</button>
		[[ else ]]
		<button type="submit" name="mode" value="edit">Edit</button>
		[[ end ]]
	</form>
	<div class="side right">
		[[ if .HasPresentation ]]<a id="present" href="/present" target="_blank">Present</a>[[ end ]]
	</div>
</div>
[[ end ]]
`

var previewTmpl = `
[[ define "preview" ]][[ template "base" . ]][[ end ]]
[[ define "content" ]]
[[ if .Editing ]]
<textarea id="editor" class="editor" spellcheck="false">
[[ .Content ]]</textarea>
[[ else ]]
<div class="content" id="preview">
[[ .Body ]]
</div>
[[ end ]]
[[ end ]]
[[ define "js" ]]
[[ if .Editing ]]
<script>
	(function () {
		const editor = document.getElementById('editor');
		let timer = null;
		editor.addEventListener('input', function () {
			clearTimeout(timer);
			timer = setTimeout(function () {
				fetch('/raw', { method: 'PUT', body: editor.value });
			}, 300);
		});
	})();
</script>
[[ else if .LiveReload ]]
<script>
	(function () {
		const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
		const ws = new WebSocket(proto + location.host + '/livereload');
		ws.onmessage = function (evt) {
			if (evt.data === 'Reload') {
				location.reload();
			}
		};
	})();
</script>
[[ end ]]
[[ end ]]
`

// PageOptions control how the document page is rendered.
type PageOptions struct {
	// Engine renders markdown. Nil selects the renderer registered for "md".
	Engine     PreviewRenderer
	LiveReload bool
}

type page struct {
	DocumentSnapshot
	Body       template.HTML
	Editing    bool
	LiveReload bool
}

func DefaultRenderer() *template.Template {
	var err error
	tmpl := template.New("page")
	tmpl.Delims("[[", "]]")
	for _, tmplStr := range []string{baseTmpl, topbarTmpl, previewTmpl} {
		tmpl, err = tmpl.Parse(tmplStr)
		if err != nil {
			panic(err)
		}
	}

	return tmpl
}

var pageTemplate = DefaultRenderer()

// RenderPage renders the document page for the snapshot's mode: the markdown
// preview or the editor.
func RenderPage(doc DocumentSnapshot, opts PageOptions) ([]byte, error) {
	p := &page{
		DocumentSnapshot: doc,
		Editing:          doc.Mode == ModeEdit,
		LiveReload:       opts.LiveReload,
	}
	if doc.Title == "" {
		p.Title = appName
	}
	if !p.Editing {
		body, err := rendererFor(doc.Path, opts.Engine).Render([]byte(doc.Content))
		if err != nil {
			return nil, err
		}
		p.Body = body
		if fm := ParseFrontmatter(doc.Content); fm.Title != "" {
			p.Title = fm.Title + " \u2014 " + p.Title
		}
	}

	buf := &bytes.Buffer{}
	err := pageTemplate.ExecuteTemplate(buf, "preview", p)
	return buf.Bytes(), err
}

// RenderPreviewPage renders the markdown preview regardless of the mode.
func RenderPreviewPage(doc DocumentSnapshot, opts PageOptions) ([]byte, error) {
	doc.Mode = ModePreview
	return RenderPage(doc, opts)
}

// RenderEditorPage renders the editor regardless of the mode.
func RenderEditorPage(doc DocumentSnapshot) ([]byte, error) {
	doc.Mode = ModeEdit
	return RenderPage(doc, PageOptions{})
}
