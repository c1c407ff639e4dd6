package reference

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed enums/*.yaml
var builtin embed.FS

// LoadEnumCatalog читает все enum-справочники (*.yaml, *.yml) из dir
func LoadEnumCatalog(dir string) (map[string]EnumDirectory, error) {
	return loadFS(os.DirFS(dir), ".")
}

// LoadBuiltin возвращает встроенные справочники (enums/*.yaml)
func LoadBuiltin() (map[string]EnumDirectory, error) {
	return loadFS(builtin, "enums")
}

func loadFS(fsys fs.FS, dir string) (map[string]EnumDirectory, error) {
	result := make(map[string]EnumDirectory)
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var enumDir EnumDirectory
		if err := yaml.Unmarshal(data, &enumDir); err != nil {
			return nil, err
		}
		// Имя справочника — из enumDir.Name или из имени файла
		if enumDir.Name == "" {
			enumDir.Name = strings.TrimSuffix(name, path.Ext(name))
		}
		sort.SliceStable(enumDir.Items, func(i, j int) bool { return enumDir.Items[i].Order < enumDir.Items[j].Order })
		result[enumDir.Name] = enumDir
	}
	return result, nil
}
