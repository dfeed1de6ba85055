// # internal/catalog/project.go
package catalog

import (
	"go/types"

	"golang.org/x/tools/go/packages"

	"scriptbridge/internal/errors"
)

// scanProject loads the Go packages under dir and records every exported
// named type. The set backs the only_for_declared opt-in and namespace
// defaulting; an empty dir means no project side at all.
func scanProject(dir string) (map[string]AvailableType, error) {
	out := make(map[string]AvailableType)
	if dir == "" {
		return out, nil
	}

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes,
		Dir:  dir,
	}
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "load project packages")
	}

	for _, pkg := range pkgs {
		if pkg.Types == nil {
			continue
		}
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			obj := scope.Lookup(name)
			tn, ok := obj.(*types.TypeName)
			if !ok || !tn.Exported() {
				continue
			}
			if _, exists := out[name]; exists {
				continue // first declaration wins across packages
			}
			out[name] = AvailableType{
				Name:    name,
				Package: pkg.PkgPath,
			}
		}
	}
	return out, nil
}
