package version

import (
	"strings"
	"testing"
)

func TestReadVersion(t *testing.T) {
	t.Parallel()

	path := "github.com/brunnsviken/skool-api"
	version := ReadVersion(path)

	if !strings.Contains(version, path) {
		t.Errorf("ReadVersion() = %s, want it to contain %s", version, path)
	}
}

func TestReadVersionUnknownPath(t *testing.T) {
	t.Parallel()

	path := "github.com/nonexistent/not-a-real-dependency"
	if got := ReadVersion(path); got != path {
		t.Errorf("ReadVersion() = %s, want %s", got, path)
	}
}
