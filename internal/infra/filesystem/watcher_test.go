package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsBundleChanges(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, 2, "42")

	changed := make(chan int, 16)
	watcher, err := NewWatcher(dir, func(index int) { changed <- index }, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	defer watcher.Stop()

	if err := os.WriteFile(filepath.Join(dir, "2", AnswerFile), []byte("43"), 0o644); err != nil {
		t.Fatalf("edit answer: %v", err)
	}

	select {
	case index := <-changed:
		if index != 2 {
			t.Fatalf("expected bundle 2, got %d", index)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for change event")
	}
}

func TestWatcherBundleIndex(t *testing.T) {
	w := &Watcher{root: "/srv/problems"}
	cases := map[string]int{
		"/srv/problems/3":            3,
		"/srv/problems/12/hint.txt":  12,
		"/srv/problems/notes.txt":    0,
		"/srv/problems":              0,
		"/srv/other/1/hint.txt":      0,
		"/srv/problems/0/answer.txt": 0,
	}
	for name, want := range cases {
		got, ok := w.bundleIndex(name)
		if want == 0 && ok {
			t.Fatalf("%s: expected no bundle, got %d", name, got)
		}
		if want != 0 && got != want {
			t.Fatalf("%s: expected %d, got %d", name, want, got)
		}
	}
}
