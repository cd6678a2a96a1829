package buildgraph

import (
	"github.com/jward/buildgraph/internal/model"
)

func tgt(name string, product model.Product) model.Target {
	return model.Target{Name: name, Platform: model.IOS, Product: product}
}

func node(path, name string) model.Dependency {
	return model.TargetDependency{Name: name, Path: path}
}

func names(ts []Target) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

func depNames(ds []Dependency) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		if td, ok := d.(model.TargetDependency); ok {
			out[i] = td.Name
		} else {
			out[i] = d.String()
		}
	}
	return out
}

// scenarioGraph is an app with an extension, both linking a shared static
// library from another project.
func scenarioGraph() *model.Graph {
	g := model.NewGraph("Workspace", "/App")
	g.AddTarget("/App", tgt("App", model.Application))
	g.AddTarget("/App", tgt("Ext", model.AppExtension))
	g.AddTarget("/Lib", tgt("Core", model.StaticLibrary))
	g.DependOn("/App", "App", node("/App", "Ext"), node("/Lib", "Core"))
	g.DependOn("/App", "Ext", node("/Lib", "Core"))
	return g
}
