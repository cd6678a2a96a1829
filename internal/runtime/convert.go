package runtime

import (
	"fmt"
	"log/slog"

	"github.com/risor-io/risor/object"

	"github.com/jward/buildgraph/internal/model"
)

// targetObject converts a target into a Risor map.
//
//	{name, platform, product, product_name, product_file, bundle_id}
func targetObject(t model.Target) object.Object {
	return object.NewMap(map[string]object.Object{
		"name":         object.NewString(t.Name),
		"platform":     object.NewString(string(t.Platform)),
		"product":      object.NewString(string(t.Product)),
		"product_name": object.NewString(t.ProductNameOrDefault()),
		"product_file": object.NewString(t.ProductNameWithExtension()),
		"bundle_id":    object.NewString(t.BundleID),
	})
}

func targetOrNil(t *model.Target) object.Object {
	if t == nil {
		return object.Nil
	}
	return targetObject(*t)
}

func targetList(targets []model.Target) object.Object {
	items := make([]object.Object, 0, len(targets))
	for _, t := range targets {
		items = append(items, targetObject(t))
	}
	return object.NewList(items)
}

// dependencyObject converts a graph node into a Risor map. Every map has
// "kind" and "id"; the other keys depend on the variant.
func dependencyObject(d model.Dependency) object.Object {
	m := map[string]object.Object{
		"kind": object.NewString(string(d.Kind())),
		"id":   object.NewString(d.String()),
	}
	switch v := d.(type) {
	case model.TargetDependency:
		m["name"] = object.NewString(v.Name)
		m["path"] = object.NewString(v.Path)
	case model.FrameworkDependency:
		m["path"] = object.NewString(v.Path)
		m["binary_path"] = object.NewString(v.BinaryPath)
		m["dsym_path"] = object.NewString(v.DSYMPath)
		m["linking"] = object.NewString(string(v.Linking))
		m["architectures"] = stringList(v.Architectures.Names())
	case model.XCFrameworkDependency:
		m["path"] = object.NewString(v.Path)
		m["info_plist_path"] = object.NewString(v.InfoPlistPath)
		m["linking"] = object.NewString(string(v.Linking))
	case model.LibraryDependency:
		m["path"] = object.NewString(v.Path)
		m["public_headers"] = object.NewString(v.PublicHeaders)
		m["swift_module_map"] = object.NewString(v.SwiftModuleMap)
		m["linking"] = object.NewString(string(v.Linking))
		m["architectures"] = stringList(v.Architectures.Names())
	case model.PackageProductDependency:
		m["name"] = object.NewString(v.Name)
	case model.SDKDependency:
		m["name"] = object.NewString(v.Name)
		m["sdk_kind"] = object.NewString(string(v.SDKKind))
		m["status"] = object.NewString(string(v.Status))
	case model.CocoaPodsDependency:
		m["path"] = object.NewString(v.Path)
	}
	return object.NewMap(m)
}

func dependencyList(deps []model.Dependency) object.Object {
	items := make([]object.Object, 0, len(deps))
	for _, d := range deps {
		items = append(items, dependencyObject(d))
	}
	return object.NewList(items)
}

func referenceObject(ref model.DependencyReference) object.Object {
	return object.NewMap(map[string]object.Object{
		"kind":         object.NewString(string(ref.Kind)),
		"path":         object.NewString(ref.Path),
		"target":       object.NewString(ref.Target),
		"product_name": object.NewString(ref.ProductName),
		"linking":      object.NewString(string(ref.Linking)),
		"status":       object.NewString(string(ref.Status)),
	})
}

func referenceList(refs []model.DependencyReference) object.Object {
	items := make([]object.Object, 0, len(refs))
	for _, ref := range refs {
		items = append(items, referenceObject(ref))
	}
	return object.NewList(items)
}

func stringList(values []string) object.Object {
	items := make([]object.Object, 0, len(values))
	for _, v := range values {
		items = append(items, object.NewString(v))
	}
	return object.NewList(items)
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

// stringArgs converts every argument to a Go string.
func stringArgs(fn string, args []object.Object) ([]string, *object.Error) {
	out := make([]string, len(args))
	for i, a := range args {
		s, err := toString(a)
		if err != nil {
			return nil, object.Errorf("%s: argument %d: %v", fn, i+1, err)
		}
		out[i] = s
	}
	return out, nil
}

// logObject provides log.Info/Warn/Error/Debug methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Debug(msg string) { l.logger.Debug(msg) }

func (l *logObject) Info(msg string) { l.logger.Info(msg) }

func (l *logObject) Warn(msg string) { l.logger.Warn(msg) }

func (l *logObject) Error(msg string) { l.logger.Error(msg) }
