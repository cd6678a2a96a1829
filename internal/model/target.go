package model

import (
	"cmp"
	"slices"
)

// SettingsDictionary maps build setting keys to values.
type SettingsDictionary map[string]string

// Settings holds base build settings and per-configuration overrides
// (e.g. "Debug", "Release").
type Settings struct {
	Base           SettingsDictionary            `json:"base,omitempty"`
	Configurations map[string]SettingsDictionary `json:"configurations,omitempty"`
}

// ConfigurationNames returns the configuration names in sorted order.
func (s Settings) ConfigurationNames() []string {
	names := make([]string, 0, len(s.Configurations))
	for name := range s.Configurations {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Target is one compiled or bundled unit of a project.
type Target struct {
	Name        string   `json:"name"`
	Platform    Platform `json:"platform"`
	Product     Product  `json:"product"`
	ProductName string   `json:"product_name,omitempty"`
	BundleID    string   `json:"bundle_id,omitempty"`
	Sources     []string `json:"sources,omitempty"`
	Resources   []string `json:"resources,omitempty"`
	Settings    Settings `json:"settings"`
}

// SupportsResources reports whether the target can host its own resources.
func (t Target) SupportsResources() bool {
	return t.Product.SupportsResources()
}

// CanLinkStaticProducts reports whether the target absorbs static code.
func (t Target) CanLinkStaticProducts() bool {
	return t.Product.CanLinkStaticProducts()
}

// ProductNameOrDefault is the product name, falling back to the target name.
func (t Target) ProductNameOrDefault() string {
	if t.ProductName != "" {
		return t.ProductName
	}
	return t.Name
}

// ProductNameWithExtension is the file name of the built product,
// e.g. "libCore.a" or "App.app".
func (t Target) ProductNameWithExtension() string {
	name := t.ProductNameOrDefault()
	switch t.Product {
	case StaticLibrary, DynamicLibrary:
		return "lib" + name + "." + t.Product.FileExtension()
	}
	return name + "." + t.Product.FileExtension()
}

// CompareTargets orders targets by name, then platform, then product.
// Every ordered query result is sorted with it.
func CompareTargets(a, b Target) int {
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Platform, b.Platform); c != 0 {
		return c
	}
	return cmp.Compare(a.Product, b.Product)
}

// SortTargets sorts targets in place using CompareTargets.
func SortTargets(targets []Target) {
	slices.SortFunc(targets, CompareTargets)
}

// Project is a directory location plus the targets defined there.
type Project struct {
	Path     string   `json:"path"`
	Name     string   `json:"name"`
	Targets  []Target `json:"targets"`
	Settings Settings `json:"settings"`
}
