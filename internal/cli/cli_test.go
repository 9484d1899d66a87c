package cli

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseArgs(t *testing.T) {
	o, err := ParseArgs("apphealth", []string{"-c", "apps.yaml", "--watch", "60s", "-a", ":9090", "--no-color"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, Options{ConfigFile: "apps.yaml", Watch: time.Minute, Addr: ":9090", NoColor: true}, o)

	o, err = ParseArgs("syshealth", nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, Options{}, o)
}

func TestParseArgs_Errors(t *testing.T) {
	cases := map[string][]string{
		"unknown flag":       {"--bogus"},
		"positional":         {"extra"},
		"sub-second watch":   {"--watch", "500ms"},
		"addr without watch": {"--addr", ":9090"},
		"bad duration":       {"-w", "soon"},
	}
	for name, args := range cases {
		_, err := ParseArgs("apphealth", args, &bytes.Buffer{})
		assert.Error(t, err, name)
	}
}

func TestParseArgs_Help(t *testing.T) {
	var out bytes.Buffer
	_, err := ParseArgs("apphealth", []string{"-h"}, &out)
	assert.True(t, errors.Is(err, pflag.ErrHelp))
	assert.Contains(t, out.String(), "Usage: apphealth [flags]")
	assert.Contains(t, out.String(), "--no-color")
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("HC_TEST_FROM_FILE=file\nHC_TEST_PRESET=file\n"), 0o644))
	t.Setenv("HC_TEST_PRESET", "env")
	t.Cleanup(func() { os.Unsetenv("HC_TEST_FROM_FILE") })

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "file", os.Getenv("HC_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("HC_TEST_PRESET"))

	assert.NoError(t, LoadEnv(filepath.Join(dir, "missing.env")))
}

func TestExecute_OnceReturnsJobCode(t *testing.T) {
	calls := 0
	code := Execute(context.Background(), zap.NewNop(), 0, "", func(context.Context) int {
		calls++
		return 1
	}, nil)
	assert.Equal(t, 1, code)
	assert.Equal(t, 1, calls)
}

func TestExecute_WatchStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	code := Execute(ctx, zap.NewNop(), time.Second, "", func(context.Context) int {
		cancel()
		return 0
	}, nil)
	assert.Equal(t, 0, code)
}

func TestExecute_APIBindFailureIsInternalError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	code := Execute(ctx, zap.NewNop(), time.Second, ln.Addr().String(), func(context.Context) int {
		return 0
	}, http.NotFoundHandler())
	assert.Equal(t, 2, code)
}
