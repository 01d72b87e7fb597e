package markzap

import (
	"errors"
	"os"
	"os/exec"
	"strings"
)

// PreferredEditor finds an editor from $VISUAL, $EDITOR or common defaults.
func PreferredEditor() (string, error) {
	if v := os.Getenv("VISUAL"); strings.TrimSpace(v) != "" {
		return v, nil
	}
	if e := os.Getenv("EDITOR"); strings.TrimSpace(e) != "" {
		return e, nil
	}
	for _, cand := range []string{"nvim", "vim", "vi"} {
		if p, err := exec.LookPath(cand); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no editor found; set $EDITOR or $VISUAL")
}

// EditCommand builds the command that opens path in the preferred editor.
// The editor value may carry flags, so it runs through a shell wrapper.
func EditCommand(path string) (*exec.Cmd, error) {
	ed, err := PreferredEditor()
	if err != nil {
		return nil, err
	}
	cmd := exec.Command("sh", "-c", `$EDITORCMD "$FILEPATH"`)
	cmd.Env = append(os.Environ(), "EDITORCMD="+ed, "FILEPATH="+path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd, nil
}

// EditDocument opens the document's file in an external editor and reloads
// it afterwards. It reports whether the content changed.
func EditDocument(doc *Document) (bool, error) {
	if doc.Path() == "" {
		return false, errors.New("document has no file")
	}
	cmd, err := EditCommand(doc.Path())
	if err != nil {
		return false, err
	}
	if err := cmd.Run(); err != nil {
		return false, err
	}
	return doc.Reload()
}
