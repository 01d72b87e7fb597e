package markzap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const appName = "MarkZap"

const welcomeDocument = "# Welcome to MarkZap\n\n" +
	"Open a `.md` file by passing it as a command-line argument:\n\n" +
	"```\n" +
	"markzap serve path/to/file.md\n" +
	"```\n\n" +
	"Or open a `file://` URL with `markzap open`."

// Document is a single open markdown file together with the view state
// around it. It is safe for concurrent use.
type Document struct {
	path string

	mu              sync.Mutex
	content         string
	mode            Mode
	hasPresentation bool
}

// DocumentSnapshot is a consistent copy of a document's state.
type DocumentSnapshot struct {
	Path            string
	Content         string
	Mode            Mode
	HasPresentation bool
	Title           string
}

// Slides returns the slides the presentation page would show.
func (s DocumentSnapshot) Slides() []string {
	return SplitSlides(s.Content)
}

// NewDocument creates a document from content already in memory. An empty
// path means autosave is disabled.
func NewDocument(path, content string) *Document {
	return &Document{
		path:            path,
		content:         content,
		hasPresentation: DetectPresentation(content),
	}
}

// OpenDocument loads the file at path. A read failure is not fatal: the
// document then shows an error page instead of the file's content. An empty
// path opens the welcome document.
func OpenDocument(path string) *Document {
	if path == "" {
		return NewDocument("", welcomeDocument)
	}
	return NewDocument(path, loadFile(path))
}

func loadFile(path string) string {
	buf, err := os.ReadFile(path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Error("Error reading file")
		return errorDocument(path, err)
	}
	return string(buf)
}

func errorDocument(path string, err error) string {
	return fmt.Sprintf("# Error\n\nCould not read `%s`:\n\n```\n%s\n```", path, err)
}

func (d *Document) Path() string {
	return d.path
}

// Title is the window-style title for the document.
func (d *Document) Title() string {
	if d.path == "" {
		return appName
	}
	return appName + " \u2014 " + filepath.Base(d.path)
}

func (d *Document) Content() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.content
}

func (d *Document) HasPresentation() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasPresentation
}

func (d *Document) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

func (d *Document) SetMode(m Mode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = m
}

func (d *Document) Snapshot() DocumentSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DocumentSnapshot{
		Path:            d.path,
		Content:         d.content,
		Mode:            d.mode,
		HasPresentation: d.hasPresentation,
		Title:           d.Title(),
	}
}

// SetContent replaces the content, detects again whether it is a
// presentation and saves it to the document's file. The new content is kept
// even when saving fails.
func (d *Document) SetContent(content string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.content = content
	d.hasPresentation = DetectPresentation(content)
	return d.save()
}

// Save writes the current content to the document's file, if it has one.
func (d *Document) Save() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.save()
}

func (d *Document) save() error {
	if d.path == "" {
		return nil
	}
	if err := writeFileAtomic(d.path, []byte(d.content)); err != nil {
		logger.WithError(err).WithField("path", d.path).Error("Error saving file")
		return fmt.Errorf("saving %s: %w", d.path, err)
	}
	return nil
}

// Reload reads the document's file again and reports whether the content
// changed. Writes done by Save therefore reload as unchanged.
func (d *Document) Reload() (changed bool, err error) {
	if d.path == "" {
		return false, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, err := os.ReadFile(d.path)
	if err != nil {
		return false, fmt.Errorf("reloading %s: %w", d.path, err)
	}
	if string(buf) == d.content {
		return false, nil
	}
	d.content = string(buf)
	d.hasPresentation = DetectPresentation(d.content)
	logger.WithFields(logrus.Fields{
		"path":         d.path,
		"presentation": d.hasPresentation,
	}).Info("Document changed on disk")
	return true, nil
}

// writeFileAtomic writes through a temp file in the same directory so a
// watcher never observes a half written document. Symlinks are resolved
// first, the link stays and its target gets the new content.
func writeFileAtomic(path string, data []byte) error {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	perm := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		perm = fi.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// PathFromURL converts a file:// URL into a filesystem path. Percent escapes
// are decoded leniently: malformed escapes are kept as they are.
func PathFromURL(u string) (string, bool) {
	rest, ok := strings.CutPrefix(u, "file://")
	if !ok {
		return "", false
	}
	return percentDecode(rest), true
}

func percentDecode(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if b, ok := unhex2(s[i+1], s[i+2]); ok {
				out = append(out, b)
				i += 2
				continue
			}
		}
		out = append(out, s[i])
	}
	return strings.ToValidUTF8(string(out), "\uFFFD")
}

func unhex2(hi, lo byte) (byte, bool) {
	h, ok1 := unhex(hi)
	l, ok2 := unhex(lo)
	if !ok1 || !ok2 {
		return 0, false
	}
	return h<<4 | l, true
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
