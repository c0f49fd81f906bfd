package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dejo1307/xcodemcp/internal/xcode"
)

// --- helpers ---

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newBundle(t *testing.T) string {
	t.Helper()
	bundle := filepath.Join(t.TempDir(), "App.xcodeproj")
	writeFile(t, filepath.Join(bundle, xcode.PBXProjName), "// !$*UTF8*$!\n{}\n")
	require.NoError(t, os.MkdirAll(filepath.Join(bundle, "xcshareddata", "xcschemes"), 0o755))
	return bundle
}

// start runs w in the background and returns a stop function that cancels
// it and waits for Run to return.
func start(t *testing.T, w *Watcher) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	}
}

func nextBatch(t *testing.T, batches <-chan []string) []string {
	t.Helper()
	select {
	case changed := <-batches:
		return changed
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
		return nil
	}
}

// --- tests ---

func TestWatcher_DebouncesProjectEdits(t *testing.T) {
	defer goleak.VerifyNone(t)

	bundle := newBundle(t)
	batches := make(chan []string, 8)
	w, err := New(50*time.Millisecond, func(_ context.Context, changed []string) { batches <- changed })
	require.NoError(t, err)
	require.NoError(t, w.Add(bundle))
	stop := start(t, w)

	writeFile(t, filepath.Join(bundle, "notes.txt"), "ignored")
	pbx := filepath.Join(bundle, xcode.PBXProjName)
	for i := range 3 {
		writeFile(t, pbx, fmt.Sprintf("// edit %d\n{}\n", i))
	}

	changed := nextBatch(t, batches)
	require.Len(t, changed, 1)
	assert.Equal(t, xcode.PBXProjName, filepath.Base(changed[0]))

	stop()
}

func TestWatcher_SchemeEdits(t *testing.T) {
	defer goleak.VerifyNone(t)

	bundle := newBundle(t)
	batches := make(chan []string, 8)
	w, err := New(20*time.Millisecond, func(_ context.Context, changed []string) { batches <- changed })
	require.NoError(t, err)
	require.NoError(t, w.Add(bundle))
	stop := start(t, w)

	writeFile(t, filepath.Join(bundle, "xcshareddata", "xcschemes", "App.xcscheme"), "<Scheme/>")

	changed := nextBatch(t, batches)
	require.NotEmpty(t, changed)
	assert.Equal(t, "App.xcscheme", filepath.Base(changed[0]))

	stop()
}

func TestWatcher_StopsWithoutEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(0, func(context.Context, []string) { t.Error("unexpected callback") })
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)
	require.NoError(t, w.Add(newBundle(t)))
	start(t, w)()
}

func TestWatcher_AddMissingBundle(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(time.Millisecond, func(context.Context, []string) {})
	require.NoError(t, err)
	assert.Error(t, w.Add(filepath.Join(t.TempDir(), "Missing.xcodeproj")))
	require.NoError(t, w.Close())
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"pbxproj write", fsnotify.Event{Name: "/p/App.xcodeproj/project.pbxproj", Op: fsnotify.Write}, true},
		{"pbxproj atomic save", fsnotify.Event{Name: "/p/App.xcodeproj/project.pbxproj", Op: fsnotify.Create}, true},
		{"scheme removed", fsnotify.Event{Name: "/p/App.xcodeproj/xcshareddata/xcschemes/App.xcscheme", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: "/p/App.xcodeproj/project.pbxproj", Op: fsnotify.Chmod}, false},
		{"workspace data", fsnotify.Event{Name: "/p/App.xcodeproj/project.xcworkspace", Op: fsnotify.Write}, false},
		{"backup file", fsnotify.Event{Name: "/p/App.xcodeproj/project.pbxproj.orig", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.ev))
		})
	}
}
