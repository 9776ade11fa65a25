package migration

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"

	"github.com/loykin/sqlpatch/internal/model"
)

// versionFileRegex matches "<number>_<name>.up.sql" and "<number>_<name>.down.sql".
var versionFileRegex = regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)

type vfile struct {
	index int
	id    string
	name  string
	up    string
	down  string
}

// parseVersionFileName splits a migration file name into its numeric index,
// version id (the prefix as written), base name and direction.
func parseVersionFileName(name string) (index int, id, base, direction string, ok bool) {
	m := versionFileRegex.FindStringSubmatch(name)
	if len(m) == 0 {
		return 0, "", "", "", false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", "", "", false
	}
	return idx, m[1], m[2], m[3], true
}

func listVersionFiles(fsys fs.FS, dir string) ([]vfile, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	byIndex := map[int]*vfile{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		idx, id, base, dirn, ok := parseVersionFileName(e.Name())
		if !ok {
			continue
		}
		f, exists := byIndex[idx]
		if !exists {
			f = &vfile{index: idx, id: id, name: base}
			byIndex[idx] = f
		} else if f.name != base || f.id != id {
			return nil, fmt.Errorf("conflicting migration files for version %d: %s and %s", idx, f.id+"_"+f.name, id+"_"+base)
		}
		p := path.Join(dir, e.Name())
		if dirn == "up" {
			f.up = p
		} else {
			f.down = p
		}
	}
	files := make([]vfile, 0, len(byIndex))
	for _, f := range byIndex {
		files = append(files, *f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })
	return files, nil
}

// ModuleFromFS declares a module from a directory of SQL files, one version
// per numeric prefix in ascending order. A version without a .down.sql file
// is irreversible.
func ModuleFromFS(moduleID string, fsys fs.FS, dir string) (model.Module, error) {
	files, err := listVersionFiles(fsys, dir)
	if err != nil {
		return model.Module{}, err
	}
	versions := make([]model.Version, 0, len(files))
	for _, f := range files {
		if f.up == "" {
			return model.Module{}, fmt.Errorf("version %s has no up file", f.id)
		}
		var p model.Patch
		if f.down == "" {
			p, err = model.UpSQLPatchFromFS(fsys, f.up)
		} else {
			p, err = model.SQLPatchFromFS(fsys, f.up, f.down)
		}
		if err != nil {
			return model.Module{}, err
		}
		v, err := model.NewVersion(f.id, p)
		if err != nil {
			return model.Module{}, err
		}
		versions = append(versions, v)
	}
	return model.NewModule(moduleID, versions...)
}
