package bridgeconfigs

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/reusee/callbridge/configs"
)

//go:embed schema.cue
var schema string

var filenames = []string{
	"callbridge.cue",
	".callbridge.cue",
}

// searchDirs lists directories in precedence order.
func searchDirs() (dirs []string) {
	if dir, err := os.Getwd(); err == nil {
		dirs = append(dirs, dir)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, dir)
	}
	dirs = append(dirs, "/etc")
	return
}

func findConfigFiles(dirs []string) (paths []string) {
	for _, dir := range dirs {
		for _, filename := range filenames {
			path := filepath.Join(dir, filename)
			if _, err := os.Stat(path); err == nil {
				paths = append(paths, path)
			}
		}
	}
	return
}

func (Module) ConfigsLoader() configs.Loader {
	return configs.NewLoader(findConfigFiles(searchDirs()), schema)
}
