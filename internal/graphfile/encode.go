package graphfile

import (
	"fmt"
	"os"

	"github.com/jward/buildgraph/internal/model"
	"gopkg.in/yaml.v3"
)

// FromGraph converts a value graph back to its document form. Paths are
// written as stored; target dependencies inside their own project omit the
// path. Output order is deterministic.
func FromGraph(g *model.Graph) *File {
	f := &File{Name: g.Name, EntryPath: g.EntryPath, Projects: []ProjectSpec{}}

	for _, path := range g.ProjectPaths() {
		p, ok := g.Projects[path]
		if !ok {
			p = model.Project{Path: path}
		}
		ps := ProjectSpec{Path: path, Name: p.Name, Settings: settingsSpec(p.Settings)}

		targets := p.Targets
		if len(targets) == 0 {
			for _, t := range g.Targets[path] {
				targets = append(targets, t)
			}
			model.SortTargets(targets)
		}
		for _, t := range targets {
			ts := TargetSpec{
				Name:        t.Name,
				Platform:    string(t.Platform),
				Product:     string(t.Product),
				ProductName: t.ProductName,
				BundleID:    t.BundleID,
				Sources:     t.Sources,
				Resources:   t.Resources,
				Settings:    settingsSpec(t.Settings),
			}
			for _, d := range g.Edges(model.TargetDependency{Name: t.Name, Path: path}) {
				ts.Dependencies = append(ts.Dependencies, dependencySpec(d, path))
			}
			ps.Targets = append(ps.Targets, ts)
		}
		f.Projects = append(f.Projects, ps)
	}

	for _, from := range g.Nodes() {
		if _, ok := from.(model.TargetDependency); ok {
			continue
		}
		to := g.Edges(from)
		if len(to) == 0 {
			continue
		}
		es := EdgeSpec{From: dependencySpec(from, "")}
		for _, d := range to {
			es.To = append(es.To, dependencySpec(d, ""))
		}
		f.Edges = append(f.Edges, es)
	}
	return f
}

// Encode renders g as YAML.
func Encode(g *model.Graph) ([]byte, error) {
	data, err := yaml.Marshal(FromGraph(g))
	if err != nil {
		return nil, fmt.Errorf("marshal graph file: %w", err)
	}
	return data, nil
}

// Write renders g as YAML into path.
func Write(path string, g *model.Graph) error {
	data, err := Encode(g)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func dependencySpec(d model.Dependency, projectPath string) DependencySpec {
	switch v := d.(type) {
	case model.TargetDependency:
		ds := DependencySpec{Target: v.Name}
		if v.Path != projectPath {
			ds.Path = v.Path
		}
		return ds
	case model.FrameworkDependency:
		return DependencySpec{Framework: &FrameworkSpec{
			Path: v.Path, BinaryPath: v.BinaryPath, DSYMPath: v.DSYMPath,
			Linking: string(v.Linking), Architectures: archNames(v.Architectures),
		}}
	case model.XCFrameworkDependency:
		return DependencySpec{XCFramework: &XCFrameworkSpec{
			Path: v.Path, InfoPlistPath: v.InfoPlistPath, Linking: string(v.Linking),
		}}
	case model.LibraryDependency:
		return DependencySpec{Library: &LibrarySpec{
			Path: v.Path, PublicHeaders: v.PublicHeaders, SwiftModuleMap: v.SwiftModuleMap,
			Linking: string(v.Linking), Architectures: archNames(v.Architectures),
		}}
	case model.PackageProductDependency:
		return DependencySpec{Package: v.Name}
	case model.SDKDependency:
		return DependencySpec{SDK: &SDKSpec{Name: v.Name, Kind: string(v.SDKKind), Status: string(v.Status)}}
	case model.CocoaPodsDependency:
		return DependencySpec{CocoaPods: &CocoaPodsSpec{Path: v.Path}}
	}
	return DependencySpec{}
}

func archNames(a model.Architectures) []string {
	if a == 0 {
		return nil
	}
	return a.Names()
}

func settingsSpec(st model.Settings) SettingsSpec {
	var s SettingsSpec
	if len(st.Base) > 0 {
		s.Base = map[string]string(st.Base)
	}
	if len(st.Configurations) > 0 {
		s.Configurations = make(map[string]map[string]string, len(st.Configurations))
		for name, dict := range st.Configurations {
			s.Configurations[name] = map[string]string(dict)
		}
	}
	return s
}
