// Package linker checks a parsed program's imports against a manifest
// of host modules: every imported module must be provided, its version
// must satisfy the program's requirement, and every imported name must
// be exported by it.
package linker

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/orizon-lang/wasmast/internal/ast"
)

// HostModule describes a module the embedding runtime provides
type HostModule struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Exports []string `json:"exports"`
}

// Manifest lists the host modules and the version constraints the program
// places on them. Modules without a constraint accept any version.
type Manifest struct {
	Modules  []HostModule      `json:"modules"`
	Requires map[string]string `json:"requires,omitempty"`
}

// LoadManifest reads a JSON manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return m, nil
}

// Reason classifies a LinkError
type Reason string

const (
	ReasonUnknownModule     Reason = "unknown module"
	ReasonVersionMismatch   Reason = "version mismatch"
	ReasonNotExported       Reason = "not exported"
	ReasonInvalidVersion    Reason = "invalid version"
	ReasonInvalidConstraint Reason = "invalid constraint"
)

// LinkError reports one unsatisfied import
type LinkError struct {
	Module string
	Name   string // empty for module-level problems
	Reason Reason
	Detail string
}

func (e *LinkError) Error() string {
	subject := e.Module
	if e.Name != "" {
		subject = e.Module + "::" + e.Name
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", subject, e.Reason, e.Detail)
	}
	return fmt.Sprintf("%s: %s", subject, e.Reason)
}

// Imports returns the names program takes from each module: the names
// listed by import statements and the targets of qualified calls.
func Imports(program *ast.Program) map[string][]string {
	seen := make(map[string]map[string]bool)
	add := func(module, name string) {
		if seen[module] == nil {
			seen[module] = make(map[string]bool)
		}
		seen[module][name] = true
	}

	ast.Inspect(program, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.ImportStatement:
			for _, name := range n.Names {
				add(n.Module.Name, name.Name)
			}
			return false
		case *ast.External:
			add(n.Module, n.Name)
		}
		return true
	})

	out := make(map[string][]string, len(seen))
	for module, names := range seen {
		for name := range names {
			out[module] = append(out[module], name)
		}
		sort.Strings(out[module])
	}
	return out
}

// Check verifies program against manifest. All problems are reported,
// joined with errors.Join, in module then name order.
func Check(program *ast.Program, manifest *Manifest) error {
	provided := make(map[string]*HostModule, len(manifest.Modules))
	for i := range manifest.Modules {
		provided[manifest.Modules[i].Name] = &manifest.Modules[i]
	}

	imports := Imports(program)
	modules := make([]string, 0, len(imports))
	for module := range imports {
		modules = append(modules, module)
	}
	sort.Strings(modules)

	var errs []error
	for _, module := range modules {
		host, ok := provided[module]
		if !ok {
			errs = append(errs, &LinkError{Module: module, Reason: ReasonUnknownModule})
			continue
		}

		if err := checkVersion(host, manifest.Requires[module]); err != nil {
			errs = append(errs, err)
		}

		exports := make(map[string]bool, len(host.Exports))
		for _, name := range host.Exports {
			exports[name] = true
		}
		for _, name := range imports[module] {
			if !exports[name] {
				errs = append(errs, &LinkError{Module: module, Name: name, Reason: ReasonNotExported})
			}
		}
	}

	return stderrors.Join(errs...)
}

func checkVersion(host *HostModule, constraint string) error {
	if strings.TrimSpace(constraint) == "" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return &LinkError{Module: host.Name, Reason: ReasonInvalidConstraint, Detail: err.Error()}
	}
	v, err := semver.NewVersion(host.Version)
	if err != nil {
		return &LinkError{Module: host.Name, Reason: ReasonInvalidVersion, Detail: err.Error()}
	}
	if !c.Check(v) {
		return &LinkError{
			Module: host.Name,
			Reason: ReasonVersionMismatch,
			Detail: fmt.Sprintf("%s does not satisfy %s", v, c),
		}
	}
	return nil
}
