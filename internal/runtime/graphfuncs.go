package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/jward/buildgraph/internal/model"
)

// graphBuiltins returns the query functions exposed to scripts. Each takes
// a project path and, where the query is per target, a target name.
func graphBuiltins(g Graph) map[string]any {
	return map[string]any{
		"target": pathNameBuiltin("target", func(path, name string) object.Object {
			return targetOrNil(g.Target(path, name))
		}),
		"targets": pathBuiltin("targets", func(path string) object.Object {
			return targetList(g.Targets(path))
		}),
		"direct_dependencies": pathNameBuiltin("direct_dependencies", func(path, name string) object.Object {
			return targetList(g.DirectTargetDependencies(path, name))
		}),
		"app_extensions": pathNameBuiltin("app_extensions", func(path, name string) object.Object {
			return targetList(g.AppExtensionDependencies(path, name))
		}),
		"resource_bundles": pathNameBuiltin("resource_bundles", func(path, name string) object.Object {
			return targetList(g.ResourceBundleDependencies(path, name))
		}),
		"tests_depending_on": pathNameBuiltin("tests_depending_on", func(path, name string) object.Object {
			return targetList(g.TestTargetsDependingOn(path, name))
		}),
		"direct_static_dependencies": pathNameBuiltin("direct_static_dependencies", func(path, name string) object.Object {
			return referenceList(g.DirectStaticDependencies(path, name))
		}),
		"static_targets": pathNameBuiltin("static_targets", func(path, name string) object.Object {
			return targetList(g.StaticTargets(path, name))
		}),
		"all_dependencies": pathBuiltin("all_dependencies", func(path string) object.Object {
			return dependencyList(g.AllDependencies(path))
		}),
		"host_target": pathNameBuiltin("host_target", func(path, name string) object.Object {
			return targetOrNil(g.HostTarget(path, name))
		}),
		"host_application": pathNameBuiltin("host_application", func(path, name string) object.Object {
			return targetOrNil(g.HostApplication(path, name))
		}),
		"linkable_dependencies": pathNameBuiltin("linkable_dependencies", func(path, name string) object.Object {
			return referenceList(g.LinkableDependencies(path, name))
		}),
		"embeddable_frameworks": pathNameBuiltin("embeddable_frameworks", func(path, name string) object.Object {
			return referenceList(g.EmbeddableFrameworks(path, name))
		}),
		"copy_product_dependencies": pathNameBuiltin("copy_product_dependencies", func(path, name string) object.Object {
			t := g.Target(path, name)
			if t == nil {
				return referenceList(nil)
			}
			return referenceList(g.CopyProductDependencies(path, *t))
		}),
		"all_dependency_references": pathBuiltin("all_dependency_references", func(path string) object.Object {
			return referenceList(g.AllDependencyReferences(path))
		}),
		"header_search_paths": pathNameBuiltin("header_search_paths", func(path, name string) object.Object {
			return stringList(g.LibrariesPublicHeadersFolders(path, name))
		}),
		"library_search_paths": pathNameBuiltin("library_search_paths", func(path, name string) object.Object {
			return stringList(g.LibrariesSearchPaths(path, name))
		}),
		"swift_include_paths": pathNameBuiltin("swift_include_paths", func(path, name string) object.Object {
			return stringList(g.LibrariesSwiftIncludePaths(path, name))
		}),
		"run_path_search_paths": pathNameBuiltin("run_path_search_paths", func(path, name string) object.Object {
			return stringList(g.RunPathSearchPaths(path, name))
		}),
		"filter_dependencies": makeFilterDependenciesFn(g),
	}
}

func pathBuiltin(fn string, query func(path string) object.Object) *object.Builtin {
	return object.NewBuiltin(fn, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError(fn, 1, len(args))
		}
		s, errObj := stringArgs(fn, args)
		if errObj != nil {
			return errObj
		}
		return query(s[0])
	})
}

func pathNameBuiltin(fn string, query func(path, name string) object.Object) *object.Builtin {
	return object.NewBuiltin(fn, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError(fn, 2, len(args))
		}
		s, errObj := stringArgs(fn, args)
		if errObj != nil {
			return errObj
		}
		return query(s[0], s[1])
	})
}

// makeFilterDependenciesFn creates "filter_dependencies".
//
// filter_dependencies(path, name, test=nil, skip=nil) → [dependency]
//
// The walk starts at target name in project path. test and skip are called
// with a dependency map and their results are judged by truthiness. A nil
// or missing predicate keeps the traverser default.
func makeFilterDependenciesFn(g Graph) *object.Builtin {
	const fn = "filter_dependencies"
	return object.NewBuiltin(fn, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 2 || len(args) > 4 {
			return object.NewArgsRangeError(fn, 2, 4, len(args))
		}
		s, errObj := stringArgs(fn, args[:2])
		if errObj != nil {
			return errObj
		}

		var firstErr error
		predicate := func(arg int) (func(model.Dependency) bool, error) {
			if len(args) <= arg || args[arg] == object.Nil {
				return nil, nil
			}
			call, err := callable(ctx, args[arg])
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", arg+1, err)
			}
			return func(d model.Dependency) bool {
				if firstErr != nil {
					return false
				}
				ok, err := call(dependencyObject(d))
				if err != nil {
					firstErr = err
					return false
				}
				return ok
			}, nil
		}

		test, err := predicate(2)
		if err != nil {
			return object.Errorf("%s: %v", fn, err)
		}
		skip, err := predicate(3)
		if err != nil {
			return object.Errorf("%s: %v", fn, err)
		}

		root := model.TargetDependency{Name: s[1], Path: s[0]}
		result := g.FilterDependencies(root, test, skip)
		if firstErr != nil {
			return object.Errorf("%s: %v", fn, firstErr)
		}
		return dependencyList(result)
	})
}

// callable adapts a Risor function or builtin into a Go predicate.
func callable(ctx context.Context, obj object.Object) (func(object.Object) (bool, error), error) {
	judge := func(res object.Object) (bool, error) {
		if e, ok := res.(*object.Error); ok {
			return false, errors.New(e.Inspect())
		}
		return res.IsTruthy(), nil
	}

	switch f := obj.(type) {
	case *object.Function:
		call, ok := object.GetCallFunc(ctx)
		if !ok {
			return nil, errors.New("no function call support in this context")
		}
		return func(arg object.Object) (bool, error) {
			res, err := call(ctx, f, []object.Object{arg})
			if err != nil {
				return false, err
			}
			return judge(res)
		}, nil
	case *object.Builtin:
		return func(arg object.Object) (bool, error) {
			return judge(f.Call(ctx, arg))
		}, nil
	}
	return nil, fmt.Errorf("expected function, got %s", obj.Type())
}
