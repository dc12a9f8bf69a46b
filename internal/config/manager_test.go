package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dataprowler/dataprowler/internal/schema"
)

// isolated builds a Manager that sees no process environment and probes
// only empty temporary directories.
func isolated(t *testing.T, opts ...Option) *Manager {
	t.Helper()

	base := []Option{
		WithLogger(zaptest.NewLogger(t)),
		WithEnviron(map[string]string{}),
		WithWorkDir(t.TempDir()),
		WithHomeDir(t.TempDir()),
	}
	return New(append(base, opts...)...)
}

func defaultFS(content string) fstest.MapFS {
	return fstest.MapFS{DefaultFileName: &fstest.MapFile{Data: []byte(content)}}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNoSourcesLoadsEmptyAndValidatesToDefaults(t *testing.T) {
	m := isolated(t, WithDefaultFile(nil, ""))

	assert.Equal(t, StateUnloaded, m.State())
	assert.Empty(t, m.Load())
	assert.Equal(t, StateLoaded, m.State())
	assert.Equal(t, 9999, m.Get("api.port", 9999))

	settings, err := m.Validate()
	require.NoError(t, err)
	assert.Equal(t, schema.Defaults(), settings)
	assert.Equal(t, StateValidated, m.State())

	port, err := m.Resolve("api.port", 9999)
	require.NoError(t, err)
	assert.Equal(t, 8000, port)
	assert.Equal(t, 9999, m.Get("api.port", 9999), "raw lookups ignore schema defaults")
	assert.Equal(t, "settings manager (no files loaded)", m.String())
}

func TestBundledDefaultFileValidates(t *testing.T) {
	m := isolated(t)

	assert.Equal(t, 8000, m.Get("api.port", nil))
	assert.Equal(t, "memory", m.Get("cache.type", nil))
	assert.Equal(t, []string{"bundled:" + DefaultFileName}, m.LoadedFiles())

	settings, err := m.Validate()
	require.NoError(t, err)
	defaults := schema.Defaults()
	assert.Equal(t, defaults, settings)
}

func TestPrecedenceEnvOverUserOverDefault(t *testing.T) {
	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, UserFileName), "api:\n  port: 9001\n")

	m := isolated(t,
		WithDefaultFile(defaultFS("api:\n  port: 8000\n  host: 10.0.0.1\n"), DefaultFileName),
		WithWorkDir(workDir),
	)
	assert.Equal(t, 9001, m.Get("api.port", nil))
	assert.Equal(t, "10.0.0.1", m.Get("api.host", nil))

	m = isolated(t,
		WithDefaultFile(defaultFS("api:\n  port: 8000\n"), DefaultFileName),
		WithWorkDir(workDir),
		WithEnviron(map[string]string{"DATAPROWLER_API_PORT": "9500"}),
	)
	assert.Equal(t, 9500, m.Get("api.port", nil))

	settings, err := m.Validate()
	require.NoError(t, err)
	assert.Equal(t, 9500, settings.API.Port)
}

func TestUserFileProbeOrder(t *testing.T) {
	explicitDir, envDir, workDir, homeDir := t.TempDir(), t.TempDir(), t.TempDir(), t.TempDir()
	explicit := filepath.Join(explicitDir, "explicit.yaml")
	fromEnv := filepath.Join(envDir, "env.yaml")
	writeFile(t, explicit, "source: explicit\n")
	writeFile(t, fromEnv, "source: env\n")
	writeFile(t, filepath.Join(workDir, UserFileName), "source: cwd\n")
	writeFile(t, filepath.Join(homeDir, ".dataprowler", "config.yaml"), "source: home\n")

	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{
			name: "explicit path first",
			opts: []Option{WithUserFile(explicit), WithEnviron(map[string]string{"DATAPROWLER_CONFIG": fromEnv})},
			want: "explicit",
		},
		{
			name: "environment variable before cwd",
			opts: []Option{WithEnviron(map[string]string{"DATAPROWLER_CONFIG": fromEnv})},
			want: "env",
		},
		{
			name: "missing env path falls through to cwd",
			opts: []Option{WithEnviron(map[string]string{"DATAPROWLER_CONFIG": filepath.Join(envDir, "missing.yaml")})},
			want: "cwd",
		},
		{
			name: "cwd before home",
			want: "cwd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{
				WithDefaultFile(nil, ""),
				WithWorkDir(workDir),
				WithHomeDir(homeDir),
			}, tt.opts...)
			m := isolated(t, opts...)

			assert.Equal(t, tt.want, m.Get("source", nil))
			assert.Len(t, m.LoadedFiles(), 1)
		})
	}

	t.Run("home as last resort", func(t *testing.T) {
		m := isolated(t, WithDefaultFile(nil, ""), WithHomeDir(homeDir))
		assert.Equal(t, "home", m.Get("source", nil))
	})
}

func TestConfigPathVariableIsNotOverlaid(t *testing.T) {
	m := isolated(t,
		WithDefaultFile(nil, ""),
		WithEnviron(map[string]string{"DATAPROWLER_CONFIG": "/does/not/exist.yaml"}),
	)

	assert.Empty(t, m.Load())
	assert.Nil(t, m.Get("config", nil))
}

func TestBadFilesAreLoggedAndIgnored(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, UserFileName), "api: [unterminated\n")

	m := New(
		WithLogger(zap.New(core)),
		WithEnviron(map[string]string{}),
		WithDefaultFile(fstest.MapFS{}, DefaultFileName),
		WithWorkDir(workDir),
		WithHomeDir(t.TempDir()),
	)

	assert.Empty(t, m.Load())
	assert.Empty(t, m.LoadedFiles())
	assert.Equal(t, 2, logs.FilterMessage("failed to load settings file").Len())

	_, err := m.Validate()
	assert.NoError(t, err)
}

func TestNonMappingDocumentIsIgnored(t *testing.T) {
	m := isolated(t, WithDefaultFile(defaultFS("- just\n- a list\n"), DefaultFileName))

	assert.Empty(t, m.Load())
}

func TestEmptyDocumentLoadsAsEmptyMapping(t *testing.T) {
	m := isolated(t, WithDefaultFile(defaultFS(""), DefaultFileName))

	assert.Empty(t, m.Load())
	assert.Equal(t, []string{DefaultFileName}, m.LoadedFiles())
}

func TestDefaultPathFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	writeFile(t, path, "cache:\n  ttl: 60\n")

	m := isolated(t, WithDefaultPath(path))

	assert.Equal(t, 60, m.Get("cache.ttl", nil))
	assert.Equal(t, "settings manager (loaded: "+path+")", m.String())
}

func TestValidationFailureIsNotCached(t *testing.T) {
	workDir := t.TempDir()
	userFile := filepath.Join(workDir, UserFileName)
	writeFile(t, userFile, "search:\n  engines: [google, altavista]\n")

	m := isolated(t, WithDefaultFile(nil, ""), WithWorkDir(workDir))

	_, err := m.Validate()
	var verr *schema.SchemaValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has("search.engines"))
	assert.Equal(t, StateLoaded, m.State())

	_, err = m.Resolve("api.port", nil)
	assert.Error(t, err)

	writeFile(t, userFile, "search:\n  engines: [duckduckgo]\n")
	_, err = m.Validate()
	assert.Error(t, err, "raw settings stay cached until Reload")

	m.Reload()
	settings, err := m.Validate()
	require.NoError(t, err)
	assert.Equal(t, []string{"duckduckgo"}, settings.Search.Engines)
}

func TestReloadPicksUpChanges(t *testing.T) {
	environ := map[string]string{}
	workDir := t.TempDir()
	userFile := filepath.Join(workDir, UserFileName)
	writeFile(t, userFile, "scraping:\n  timeout: 15\n")

	m := isolated(t, WithDefaultFile(nil, ""), WithWorkDir(workDir))
	m.environ = func() map[string]string { return environ }

	assert.Equal(t, 15, m.Get("scraping.timeout", nil))
	_, err := m.Validate()
	require.NoError(t, err)

	writeFile(t, userFile, "scraping:\n  timeout: 45\n")
	environ["DATAPROWLER_CACHE_ENABLED"] = "false"
	assert.Equal(t, 15, m.Get("scraping.timeout", nil), "cached until reload")

	raw := m.Reload()
	assert.Equal(t, StateLoaded, m.State())
	assert.Equal(t, map[string]any{
		"scraping": map[string]any{"timeout": 45},
		"cache":    map[string]any{"enabled": false},
	}, raw)

	settings, err := m.Validate()
	require.NoError(t, err)
	assert.Equal(t, 45, settings.Scraping.Timeout)
	assert.False(t, settings.Cache.Enabled)
}

func TestGetStopsAtMissingOrScalarSegments(t *testing.T) {
	m := isolated(t, WithDefaultFile(defaultFS("api:\n  port: 8000\nflag: true\n"), DefaultFileName))

	assert.Equal(t, "fallback", m.Get("api.port.deeper", "fallback"))
	assert.Equal(t, "fallback", m.Get("flag.x", "fallback"))
	assert.Equal(t, "fallback", m.Get("missing.x", "fallback"))
	assert.Equal(t, map[string]any{"port": 8000}, m.Get("api", nil))
}

func TestReturnedValuesAreCopies(t *testing.T) {
	m := isolated(t, WithDefaultFile(defaultFS("api:\n  port: 8000\n"), DefaultFileName))

	m.Load()["api"].(map[string]any)["port"] = 1
	m.Get("api", nil).(map[string]any)["port"] = 2

	assert.Equal(t, 8000, m.Get("api.port", nil))
}

func TestResolveMissingPathReturnsDefault(t *testing.T) {
	m := isolated(t, WithDefaultFile(nil, ""))

	v, err := m.Resolve("nope.nothing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	v, err = m.Resolve("cache.redis.port", nil)
	require.NoError(t, err)
	assert.Equal(t, 6379, v)
}

func TestConcurrentAccess(t *testing.T) {
	m := isolated(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = m.Get("api.port", nil)
		}()
		go func() {
			defer wg.Done()
			_, _ = m.Resolve("cache.type", nil)
		}()
		go func() {
			defer wg.Done()
			m.Reload()
		}()
	}
	wg.Wait()

	assert.Equal(t, 8000, m.Get("api.port", nil))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unloaded", StateUnloaded.String())
	assert.Equal(t, "loaded", StateLoaded.String())
	assert.Equal(t, "validated", StateValidated.String())
	assert.Equal(t, "State(7)", State(7).String())
}

func TestSetLoggerRoutesLaterReloadWarnings(t *testing.T) {
	bootstrapCore, bootstrapLogs := observer.New(zapcore.WarnLevel)
	workDir := t.TempDir()
	m := New(
		WithLogger(zap.New(bootstrapCore)),
		WithEnviron(map[string]string{}),
		WithDefaultFile(defaultFS("api:\n  port: 8000\n"), DefaultFileName),
		WithWorkDir(workDir),
		WithHomeDir(t.TempDir()),
	)
	_, err := m.Validate()
	require.NoError(t, err)

	core, logs := observer.New(zapcore.WarnLevel)
	m.SetLogger(zap.New(core))
	writeFile(t, filepath.Join(workDir, UserFileName), "api: [unterminated\n")
	m.Reload()

	assert.Equal(t, 0, bootstrapLogs.Len())
	assert.Equal(t, 1, logs.FilterMessage("failed to load settings file").Len())

	m.SetLogger(nil)
	assert.NotPanics(t, func() { m.Reload() })
}
