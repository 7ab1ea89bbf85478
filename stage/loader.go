package stage

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"facette.io/natsort"
)

// ConfigLoader loads stage configurations by name.
// Applications can implement this to provide embedded or custom config loading.
type ConfigLoader interface {
	LoadByName(name string) ([]byte, error)
	ListAvailable() []string
}

//go:embed stages/*.yaml
var builtinStages embed.FS

var (
	loaderMu sync.RWMutex

	// defaultConfigLoader is the loader used by LoadConfig for bare names.
	defaultConfigLoader ConfigLoader = NewFSLoader(builtinStages, "stages") //nolint:gochecknoglobals
)

// SetConfigLoader sets the loader used by LoadConfig for bare names. A nil
// loader disables name-based loading.
func SetConfigLoader(loader ConfigLoader) {
	loaderMu.Lock()
	defer loaderMu.Unlock()

	defaultConfigLoader = loader
}

func configLoader() ConfigLoader {
	loaderMu.RLock()
	defer loaderMu.RUnlock()

	return defaultConfigLoader
}

// Builtin returns a loader for the stages shipped with this package.
func Builtin() *FSLoader {
	return NewFSLoader(builtinStages, "stages")
}

// FSLoader loads <name>.yaml files from a directory of an fs.FS.
type FSLoader struct {
	fsys fs.FS
	dir  string
}

var _ ConfigLoader = (*FSLoader)(nil)

func NewFSLoader(fsys fs.FS, dir string) *FSLoader {
	if dir == "" {
		dir = "."
	}

	return &FSLoader{
		fsys: fsys,
		dir:  dir,
	}
}

func (l *FSLoader) LoadByName(name string) ([]byte, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid stage name %q: %w", name, fs.ErrInvalid)
	}

	return fs.ReadFile(l.fsys, path.Join(l.dir, name+".yaml"))
}

// ListAvailable returns the stage names in natural order, so stage10 sorts after stage9.
func (l *FSLoader) ListAvailable() []string {
	matches, err := fs.Glob(l.fsys, path.Join(l.dir, "*.yaml"))
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(path.Base(m), ".yaml"))
	}

	natsort.Sort(names)

	return names
}
