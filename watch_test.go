package markzap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchDocument(t *testing.T) {
	path := writeTempDoc(t, "# Notes\n")
	doc := OpenDocument(path)

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- WatchDocument(ctx, doc, func() { changes <- struct{}{} })
	}()

	deck := "# A\n---\n# B\n---\n# C\n---\n# D\n"
	require.Eventually(t, func() bool {
		// The watcher may not be registered yet, keep writing until it notices.
		if err := os.WriteFile(path, []byte(deck), 0o600); err != nil {
			return false
		}
		select {
		case <-changes:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, deck, doc.Content())
	assert.True(t, doc.HasPresentation())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchDocumentIgnoresSiblings(t *testing.T) {
	path := writeTempDoc(t, "# Notes\n")
	doc := OpenDocument(path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan struct{}, 16)
	go WatchDocument(ctx, doc, func() { changes <- struct{}{} })

	sibling := filepath.Join(filepath.Dir(path), "other.md")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(sibling, []byte("# Other\n"), 0o600))
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-changes:
		t.Fatal("sibling change reported")
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, "# Notes\n", doc.Content())
}

func TestWatchDocumentWithoutPath(t *testing.T) {
	doc := NewDocument("", "# Notes\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, WatchDocument(ctx, doc, nil))
}
