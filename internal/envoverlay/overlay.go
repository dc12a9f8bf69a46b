package envoverlay

import (
	"os"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/dataprowler/dataprowler/internal/maputil"
)

const (
	// Prefix marks environment variables that override settings.
	Prefix = "DATAPROWLER_"
	// ConfigPathVar names the user config file; it is never overlaid.
	ConfigPathVar = Prefix + "CONFIG"
)

// Overlay applies prefixed environment variables onto settings trees.
type Overlay struct {
	environ map[string]string
}

// New builds an Overlay over the given environment. A nil environment means
// the current process environment.
func New(environ map[string]string) *Overlay {
	if environ == nil {
		environ = Environ()
	}
	return &Overlay{environ: environ}
}

// Environ snapshots the process environment.
func Environ() map[string]string {
	return env.ToMap(os.Environ())
}

// Apply returns a copy of base with every prefixed variable written at its
// path, replacing whatever was there. Variables are applied in sorted name
// order. A non-map value met on the way to a leaf is replaced by a map.
func (o *Overlay) Apply(base map[string]any) map[string]any {
	result := maputil.Clone(base)
	for _, name := range o.Names() {
		maputil.Set(result, SplitName(name), Coerce(o.environ[name]))
	}
	return result
}

// Names lists the variables Apply would use, sorted.
func (o *Overlay) Names() []string {
	names := make([]string, 0)
	for name := range o.environ {
		if name == ConfigPathVar || !strings.HasPrefix(name, Prefix) || name == Prefix {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SplitName turns DATAPROWLER_API_PORT into the path api.port.
func SplitName(name string) maputil.Path {
	remainder := strings.ToLower(strings.TrimPrefix(name, Prefix))
	return maputil.Path(strings.Split(remainder, "_"))
}
