package config

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dataprowler/dataprowler/internal/envoverlay"
	"github.com/dataprowler/dataprowler/internal/maputil"
	"github.com/dataprowler/dataprowler/internal/schema"
)

//go:embed settings/default.yaml
var bundled embed.FS

// DefaultFileName is the bundled default settings file.
const DefaultFileName = "settings/default.yaml"

// State tracks how far the Manager has resolved its settings.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateValidated
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateValidated:
		return "validated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Manager resolves settings from the default file, the first user file found
// and DATAPROWLER_* variables, in increasing precedence. The raw tree is
// built on first access and replaced wholesale by Reload; it is never edited
// in place. Manager is safe for concurrent use.
type Manager struct {
	mu          sync.RWMutex
	state       State
	raw         map[string]any
	settings    *schema.Settings
	resolved    map[string]any
	loadedFiles []string

	logger       *zap.Logger
	defaultFS    fs.FS
	defaultName  string
	defaultLabel string
	userFile     string
	environ      func() map[string]string
	workDir      func() (string, error)
	homeDir      func() (string, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used to report unreadable files and validation
// failures.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDefaultFile replaces the bundled default file. A nil fsys disables the
// default file entirely.
func WithDefaultFile(fsys fs.FS, name string) Option {
	return func(m *Manager) {
		m.defaultFS = fsys
		m.defaultName = name
		m.defaultLabel = name
	}
}

// WithDefaultPath reads the default file from disk instead of the bundle.
func WithDefaultPath(path string) Option {
	return func(m *Manager) {
		m.defaultFS = os.DirFS(filepath.Dir(path))
		m.defaultName = filepath.Base(path)
		m.defaultLabel = path
	}
}

// WithUserFile adds an explicit user file probed before all other locations.
func WithUserFile(path string) Option {
	return func(m *Manager) {
		m.userFile = path
	}
}

// WithEnviron fixes the environment seen by the Manager instead of reading
// the process environment on every load.
func WithEnviron(environ map[string]string) Option {
	return func(m *Manager) {
		snapshot := make(map[string]string, len(environ))
		for k, v := range environ {
			snapshot[k] = v
		}
		m.environ = func() map[string]string { return snapshot }
	}
}

// WithWorkDir sets the directory probed for dataprowler_config.yaml.
func WithWorkDir(dir string) Option {
	return func(m *Manager) {
		m.workDir = func() (string, error) { return dir, nil }
	}
}

// WithHomeDir sets the directory probed for .dataprowler/config.yaml.
func WithHomeDir(dir string) Option {
	return func(m *Manager) {
		m.homeDir = func() (string, error) { return dir, nil }
	}
}

// New creates a Manager in the unloaded state. Nothing is read until the
// first access.
func New(opts ...Option) *Manager {
	m := &Manager{
		logger:       zap.NewNop(),
		defaultFS:    bundled,
		defaultName:  DefaultFileName,
		defaultLabel: "bundled:" + DefaultFileName,
		environ:      envoverlay.Environ,
		workDir:      os.Getwd,
		homeDir:      os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load returns the raw merged settings, building them on first use. The
// result is a copy.
func (m *Manager) Load() map[string]any {
	m.ensureLoaded()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return maputil.Clone(m.raw)
}

// Reload discards the raw tree and the validated settings and loads again
// from every source.
func (m *Manager) Reload() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loadLocked()
	return maputil.Clone(m.raw)
}

// Validate checks the raw settings against the schema. Success is cached
// until Reload; a failure is returned as *schema.SchemaValidationError and
// nothing is cached, so a later call validates again. The returned Settings
// are shared and must not be modified.
func (m *Manager) Validate() (*schema.Settings, error) {
	m.mu.RLock()
	if m.state == StateValidated {
		settings := m.settings
		m.mu.RUnlock()
		return settings, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateUnloaded {
		m.loadLocked()
	}
	if m.state == StateValidated {
		return m.settings, nil
	}

	settings, err := schema.Validate(m.raw)
	if err != nil {
		m.logger.Error("settings validation failed", zap.Error(err))
		return nil, err
	}
	resolved, err := settings.Map()
	if err != nil {
		return nil, err
	}

	m.settings = settings
	m.resolved = resolved
	m.state = StateValidated
	return settings, nil
}

// Get looks up a dotted path such as "scraping.timeout" in the raw settings
// and returns def when any segment is missing. Schema defaults do not apply
// here; use Resolve for that.
func (m *Manager) Get(path string, def any) any {
	m.ensureLoaded()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := maputil.Lookup(m.raw, maputil.ParsePath(path)); ok {
		return maputil.CloneValue(v)
	}
	return def
}

// Resolve looks up a dotted path in the validated settings, so schema
// defaults fill anything the sources left out. It fails only when
// validation fails.
func (m *Manager) Resolve(path string, def any) (any, error) {
	if _, err := m.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := maputil.Lookup(m.resolved, maputil.ParsePath(path)); ok {
		return maputil.CloneValue(v), nil
	}
	return def, nil
}

// SetLogger swaps the logger used by later loads and validations, once the
// settings themselves have configured one. A nil logger discards output.
func (m *Manager) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m.mu.Lock()
	m.logger = logger
	m.mu.Unlock()
}

// State reports the current resolution state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LoadedFiles lists, in load order, the files parsed by the last load.
func (m *Manager) LoadedFiles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.loadedFiles...)
}

func (m *Manager) String() string {
	files := m.LoadedFiles()
	if len(files) == 0 {
		return "settings manager (no files loaded)"
	}
	return "settings manager (loaded: " + strings.Join(files, ", ") + ")"
}

func (m *Manager) ensureLoaded() {
	m.mu.RLock()
	loaded := m.state != StateUnloaded
	m.mu.RUnlock()
	if loaded {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateUnloaded {
		m.loadLocked()
	}
}

func (m *Manager) reset() {
	m.state = StateUnloaded
	m.raw = nil
	m.settings = nil
	m.resolved = nil
	m.loadedFiles = nil
}

// loadLocked rebuilds the raw tree from scratch and drops any validated
// settings. It must be called with mu held for writing.
func (m *Manager) loadLocked() {
	m.reset()
	environ := m.environ()

	defaults := map[string]any{}
	if m.defaultFS != nil {
		defaults = m.loadFile(m.defaultLabel, func() ([]byte, error) {
			return fs.ReadFile(m.defaultFS, m.defaultName)
		})
	}

	user := map[string]any{}
	if path, ok := m.locateUserFile(environ); ok {
		user = m.loadFile(path, func() ([]byte, error) {
			return os.ReadFile(path)
		})
	}

	overlay := envoverlay.New(environ)
	m.raw = overlay.Apply(maputil.Merge(defaults, user))
	m.state = StateLoaded

	m.logger.Debug("settings loaded",
		zap.Strings("files", m.loadedFiles),
		zap.Strings("env_overrides", overlay.Names()),
	)
}

// loadFile parses one YAML source. Read and parse failures are logged and
// contribute nothing.
func (m *Manager) loadFile(label string, read func() ([]byte, error)) map[string]any {
	data, err := read()
	if err != nil {
		m.logger.Warn("failed to load settings file", zap.String("path", label), zap.Error(err))
		return map[string]any{}
	}

	parsed, err := parseYAML(data)
	if err != nil {
		m.logger.Warn("failed to load settings file", zap.String("path", label), zap.Error(err))
		return map[string]any{}
	}

	m.loadedFiles = append(m.loadedFiles, label)
	return parsed
}

// parseYAML decodes a settings document. An empty document is an empty map.
func parseYAML(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
