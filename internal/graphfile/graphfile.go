// Package graphfile reads and writes value graphs as YAML. It is the
// boundary format between whatever builds a graph from manifests and the
// buildgraph store.
//
// A file lists projects, their targets and each target's dependencies:
//
//	name: Workspace
//	entry_path: App
//	projects:
//	  - path: App
//	    targets:
//	      - name: App
//	        platform: iOS
//	        product: app
//	        dependencies:
//	          - target: Core
//	            path: Lib
//	          - sdk: {name: UIKit.framework}
//	          - framework: {path: Frameworks/Dyn.framework, linking: dynamic}
//
// Relative paths resolve against the directory holding the file. A target
// dependency without a path refers to the containing project. Edges whose
// source is not a target go in the top-level edges list.
package graphfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jward/buildgraph/internal/model"
	"gopkg.in/yaml.v3"
)

// File is the YAML document.
type File struct {
	Name      string        `yaml:"name"`
	EntryPath string        `yaml:"entry_path"`
	Projects  []ProjectSpec `yaml:"projects"`
	Edges     []EdgeSpec    `yaml:"edges,omitempty"`
}

type ProjectSpec struct {
	Path     string       `yaml:"path"`
	Name     string       `yaml:"name,omitempty"`
	Settings SettingsSpec `yaml:"settings,omitempty"`
	Targets  []TargetSpec `yaml:"targets"`
}

type SettingsSpec struct {
	Base           map[string]string            `yaml:"base,omitempty"`
	Configurations map[string]map[string]string `yaml:"configurations,omitempty"`
}

type TargetSpec struct {
	Name         string           `yaml:"name"`
	Platform     string           `yaml:"platform"`
	Product      string           `yaml:"product"`
	ProductName  string           `yaml:"product_name,omitempty"`
	BundleID     string           `yaml:"bundle_id,omitempty"`
	Sources      []string         `yaml:"sources,omitempty"`
	Resources    []string         `yaml:"resources,omitempty"`
	Settings     SettingsSpec     `yaml:"settings,omitempty"`
	Dependencies []DependencySpec `yaml:"dependencies,omitempty"`
}

// DependencySpec names exactly one dependency variant.
type DependencySpec struct {
	Target      string           `yaml:"target,omitempty"`
	Path        string           `yaml:"path,omitempty"`
	Framework   *FrameworkSpec   `yaml:"framework,omitempty"`
	XCFramework *XCFrameworkSpec `yaml:"xcframework,omitempty"`
	Library     *LibrarySpec     `yaml:"library,omitempty"`
	Package     string           `yaml:"package,omitempty"`
	SDK         *SDKSpec         `yaml:"sdk,omitempty"`
	CocoaPods   *CocoaPodsSpec   `yaml:"cocoapods,omitempty"`
}

type FrameworkSpec struct {
	Path          string   `yaml:"path"`
	BinaryPath    string   `yaml:"binary_path,omitempty"`
	DSYMPath      string   `yaml:"dsym_path,omitempty"`
	Linking       string   `yaml:"linking,omitempty"`
	Architectures []string `yaml:"architectures,omitempty"`
}

type XCFrameworkSpec struct {
	Path          string `yaml:"path"`
	InfoPlistPath string `yaml:"info_plist_path,omitempty"`
	Linking       string `yaml:"linking,omitempty"`
}

type LibrarySpec struct {
	Path           string   `yaml:"path"`
	PublicHeaders  string   `yaml:"public_headers,omitempty"`
	SwiftModuleMap string   `yaml:"swift_module_map,omitempty"`
	Linking        string   `yaml:"linking,omitempty"`
	Architectures  []string `yaml:"architectures,omitempty"`
}

type SDKSpec struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind,omitempty"`
	Status string `yaml:"status,omitempty"`
}

type CocoaPodsSpec struct {
	Path string `yaml:"path"`
}

// EdgeSpec adds edges from a non-target node.
type EdgeSpec struct {
	From DependencySpec   `yaml:"from"`
	To   []DependencySpec `yaml:"to"`
}

// Load reads a graph file. Relative paths resolve against the file's
// directory.
func Load(path string) (*model.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve graph file path: %w", err)
	}
	return Decode(data, filepath.Dir(abs))
}

// Decode parses a graph file. Relative paths resolve against baseDir.
func Decode(data []byte, baseDir string) (*model.Graph, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse graph file: %w", err)
	}
	return f.Graph(baseDir)
}

// Graph validates the document and builds the value graph it describes.
func (f *File) Graph(baseDir string) (*model.Graph, error) {
	r := resolver{base: baseDir}
	g := model.NewGraph(f.Name, r.path(f.EntryPath))

	for _, ps := range f.Projects {
		if ps.Path == "" {
			return nil, fmt.Errorf("project %q: missing path", ps.Name)
		}
		projectPath := r.path(ps.Path)
		if _, dup := g.Projects[projectPath]; dup {
			return nil, fmt.Errorf("project %s: defined twice", projectPath)
		}
		p := model.Project{
			Path:     projectPath,
			Name:     ps.Name,
			Settings: ps.Settings.model(),
		}
		if p.Name == "" {
			p.Name = filepath.Base(projectPath)
		}

		seen := map[string]bool{}
		for _, ts := range ps.Targets {
			t, err := r.target(ts)
			if err != nil {
				return nil, fmt.Errorf("project %s: target %q: %w", projectPath, ts.Name, err)
			}
			if seen[t.Name] {
				return nil, fmt.Errorf("project %s: target %q defined twice", projectPath, t.Name)
			}
			seen[t.Name] = true
			p.Targets = append(p.Targets, t)
		}
		g.AddProject(p)

		for _, ts := range ps.Targets {
			from := model.TargetDependency{Name: ts.Name, Path: projectPath}
			for i, ds := range ts.Dependencies {
				to, err := r.dependency(ds, projectPath)
				if err != nil {
					return nil, fmt.Errorf("project %s: target %q: dependency %d: %w", projectPath, ts.Name, i, err)
				}
				g.AddEdge(from, to)
			}
		}
	}

	for i, es := range f.Edges {
		from, err := r.dependency(es.From, g.EntryPath)
		if err != nil {
			return nil, fmt.Errorf("edge %d: from: %w", i, err)
		}
		for j, ds := range es.To {
			to, err := r.dependency(ds, g.EntryPath)
			if err != nil {
				return nil, fmt.Errorf("edge %d: to %d: %w", i, j, err)
			}
			g.AddEdge(from, to)
		}
	}
	return g, nil
}

type resolver struct {
	base string
}

func (r resolver) path(p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) || r.base == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(r.base, p)
}

func (r resolver) paths(ps []string) []string {
	if len(ps) == 0 {
		return nil
	}
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = r.path(p)
	}
	return out
}

func (r resolver) target(ts TargetSpec) (model.Target, error) {
	if ts.Name == "" {
		return model.Target{}, fmt.Errorf("missing name")
	}
	product, err := model.ParseProduct(ts.Product)
	if err != nil {
		return model.Target{}, err
	}
	platform, err := model.ParsePlatform(ts.Platform)
	if err != nil {
		return model.Target{}, err
	}
	return model.Target{
		Name:        ts.Name,
		Platform:    platform,
		Product:     product,
		ProductName: ts.ProductName,
		BundleID:    ts.BundleID,
		Sources:     r.paths(ts.Sources),
		Resources:   r.paths(ts.Resources),
		Settings:    ts.Settings.model(),
	}, nil
}

// dependency converts a spec; target dependencies without a path refer to
// projectPath.
func (r resolver) dependency(ds DependencySpec, projectPath string) (model.Dependency, error) {
	set := 0
	for _, ok := range []bool{
		ds.Target != "", ds.Framework != nil, ds.XCFramework != nil, ds.Library != nil,
		ds.Package != "", ds.SDK != nil, ds.CocoaPods != nil,
	} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one dependency kind must be set, got %d", set)
	}

	switch {
	case ds.Target != "":
		path := projectPath
		if ds.Path != "" {
			path = r.path(ds.Path)
		}
		return model.TargetDependency{Name: ds.Target, Path: path}, nil

	case ds.Framework != nil:
		s := ds.Framework
		linking, err := model.ParseLinking(s.Linking)
		if err != nil {
			return nil, err
		}
		archs, err := model.ParseArchitectures(s.Architectures)
		if err != nil {
			return nil, err
		}
		return model.FrameworkDependency{
			Path:          r.path(s.Path),
			BinaryPath:    r.path(s.BinaryPath),
			DSYMPath:      r.path(s.DSYMPath),
			Linking:       linking,
			Architectures: archs,
		}, nil

	case ds.XCFramework != nil:
		s := ds.XCFramework
		linking, err := model.ParseLinking(s.Linking)
		if err != nil {
			return nil, err
		}
		return model.XCFrameworkDependency{
			Path:          r.path(s.Path),
			InfoPlistPath: r.path(s.InfoPlistPath),
			Linking:       linking,
		}, nil

	case ds.Library != nil:
		s := ds.Library
		linking, err := model.ParseLinking(s.Linking)
		if err != nil {
			return nil, err
		}
		archs, err := model.ParseArchitectures(s.Architectures)
		if err != nil {
			return nil, err
		}
		return model.LibraryDependency{
			Path:           r.path(s.Path),
			PublicHeaders:  r.path(s.PublicHeaders),
			SwiftModuleMap: r.path(s.SwiftModuleMap),
			Linking:        linking,
			Architectures:  archs,
		}, nil

	case ds.Package != "":
		return model.PackageProductDependency{Name: ds.Package}, nil

	case ds.SDK != nil:
		return sdkDependency(*ds.SDK)

	default:
		return model.CocoaPodsDependency{Path: r.path(ds.CocoaPods.Path)}, nil
	}
}

// sdkDependency defaults the kind from the name's extension and the status
// to required.
func sdkDependency(s SDKSpec) (model.Dependency, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("sdk: missing name")
	}
	kind := model.SDKKind(s.Kind)
	switch kind {
	case "":
		kind = model.SDKLibrary
		if strings.HasSuffix(s.Name, ".framework") {
			kind = model.SDKFramework
		}
	case model.SDKFramework, model.SDKLibrary:
	default:
		return nil, fmt.Errorf("sdk %s: unknown kind %q", s.Name, s.Kind)
	}
	status := model.SDKStatus(s.Status)
	switch status {
	case "":
		status = model.Required
	case model.Required, model.Optional:
	default:
		return nil, fmt.Errorf("sdk %s: unknown status %q", s.Name, s.Status)
	}
	return model.SDKDependency{Name: s.Name, SDKKind: kind, Status: status}, nil
}

func (s SettingsSpec) model() model.Settings {
	var st model.Settings
	if len(s.Base) > 0 {
		st.Base = model.SettingsDictionary(s.Base)
	}
	if len(s.Configurations) > 0 {
		st.Configurations = make(map[string]model.SettingsDictionary, len(s.Configurations))
		for name, dict := range s.Configurations {
			st.Configurations[name] = model.SettingsDictionary(dict)
		}
	}
	return st
}
