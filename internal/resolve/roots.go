package resolve

import (
	"encoding/json"
	"encoding/xml"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
)

// packageRoot is a directory whose manifest marks it as an import base.
// names hold the declared module or package names in path form, used to
// strip self-referential prefixes off import tokens.
type packageRoot struct {
	dir   string
	names []string
}

// trimModule strips a declared module name off the front of a path-form
// token. A token that names the module itself resolves to the root's own
// index file.
func (pr *packageRoot) trimModule(q string) (string, bool) {
	for _, name := range pr.names {
		if q == name {
			return ".", true
		}
		if strings.HasPrefix(q, name+"/") {
			return q[len(name)+1:], true
		}
	}
	return "", false
}

// manifestNames mark a directory as a package root even when the manifest
// itself yields no module name.
var manifestNames = map[string]bool{
	"go.mod":           true,
	"go.work":          true,
	"package.json":     true,
	"pyproject.toml":   true,
	"setup.py":         true,
	"setup.cfg":        true,
	"Cargo.toml":       true,
	"pom.xml":          true,
	"build.gradle":     true,
	"build.gradle.kts": true,
	"Gemfile":          true,
	"composer.json":    true,
}

type packageJSON struct {
	Name string `json:"name"`
}

type pyProject struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

type pomXML struct {
	XMLName    xml.Name `xml:"project"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
}

var setupNameRe = regexp.MustCompile(`name\s*=\s*['"]([^'"]+)['"]`)

// discoverRoots finds every manifest in the path set and extracts what it
// can. Parse failures degrade the root to a bare marker rather than
// dropping it.
func discoverRoots(paths []string, readFile func(string) ([]byte, bool)) []*packageRoot {
	byDir := map[string]*packageRoot{}
	ensure := func(dir string) *packageRoot {
		dir = path.Clean(dir)
		if dir == "." {
			dir = ""
		}
		if root, ok := byDir[dir]; ok {
			return root
		}
		root := &packageRoot{dir: dir}
		byDir[dir] = root
		return root
	}

	for _, p := range paths {
		base := path.Base(p)
		if !manifestNames[base] {
			continue
		}
		dir := path.Dir(p)
		root := ensure(dir)
		if readFile == nil {
			continue
		}
		data, ok := readFile(p)
		if !ok {
			continue
		}
		switch base {
		case "go.mod":
			addNames(root, modfile.ModulePath(data))
		case "go.work":
			if wf, err := modfile.ParseWork(p, data, nil); err == nil {
				for _, use := range wf.Use {
					ensure(path.Join(root.dir, use.Path))
				}
			}
		case "package.json", "composer.json":
			var pkg packageJSON
			if json.Unmarshal(data, &pkg) == nil {
				addNames(root, pkg.Name)
			}
		case "pyproject.toml":
			var py pyProject
			if toml.Unmarshal(data, &py) == nil {
				addNames(root, underscored(py.Project.Name)...)
				addNames(root, underscored(py.Tool.Poetry.Name)...)
			}
		case "Cargo.toml":
			var cargo cargoManifest
			if toml.Unmarshal(data, &cargo) == nil {
				addNames(root, underscored(cargo.Package.Name)...)
			}
		case "pom.xml":
			var pom pomXML
			if xml.Unmarshal(data, &pom) == nil {
				addNames(root, dotted(pom.GroupID), dotted(pom.ArtifactID))
				if pom.GroupID != "" && pom.ArtifactID != "" {
					addNames(root, dotted(pom.GroupID)+"/"+pom.ArtifactID)
				}
			}
		case "setup.py":
			if m := setupNameRe.FindSubmatch(data); m != nil {
				addNames(root, underscored(string(m[1]))...)
			}
		}
	}

	roots := make([]*packageRoot, 0, len(byDir))
	for _, root := range byDir {
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].dir < roots[j].dir })
	return roots
}

func addNames(root *packageRoot, names ...string) {
	for _, name := range names {
		name = strings.Trim(strings.TrimSpace(name), "/")
		if name == "" {
			continue
		}
		exists := false
		for _, have := range root.names {
			if have == name {
				exists = true
				break
			}
		}
		if !exists {
			root.names = append(root.names, name)
		}
	}
}

// underscored returns a name plus its dash-to-underscore variant, since
// Python and Rust project names use dashes where import paths use
// underscores.
func underscored(name string) []string {
	if name == "" {
		return nil
	}
	alt := strings.ReplaceAll(name, "-", "_")
	if alt == name {
		return []string{name}
	}
	return []string{name, alt}
}

// dotted rewrites a dotted Java-style identifier into path form.
func dotted(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}
