package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiml/bashrs-sub019/pkg/bashrs"
)

func TestIsShellFile(t *testing.T) {
	cases := map[string]bool{
		"deploy.sh":   true,
		"build.bash":  true,
		"profile.zsh": true,
		".bashrc":     true,
		"README.md":   false,
		"main.go":     false,
	}
	for name, want := range cases {
		assert.Equal(t, want, isShellFile(name), name)
	}
}

func TestWatch_RelintsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deploy.sh")
	require.NoError(t, os.WriteFile(path, []byte("echo hi\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events := make(chan Event, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, bashrs.LintOptions{}, func(e Event) { events <- e })
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("f=foo\necho $f\n"), 0o644))

	select {
	case e := <-events:
		assert.Equal(t, path, e.Path)
		require.NoError(t, e.Err)
		require.NotNil(t, e.Result)
	case <-time.After(1500 * time.Millisecond):
		t.Fatal("timed out waiting for a relint event")
	}

	cancel()
	<-done
}
