package model

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Linking says whether a precompiled binary is linked statically or dynamically.
type Linking string

const (
	Static  Linking = "static"
	Dynamic Linking = "dynamic"
)

// ParseLinking validates a linking name. The empty string means dynamic.
func ParseLinking(s string) (Linking, error) {
	switch Linking(s) {
	case Static:
		return Static, nil
	case Dynamic, "":
		return Dynamic, nil
	}
	return "", fmt.Errorf("unknown linking %q", s)
}

// Architecture is a single CPU slice of a binary.
type Architecture uint16

const (
	ArchX8664 Architecture = 1 << iota
	ArchI386
	ArchARMv7
	ArchARMv7s
	ArchARMv7k
	ArchARM64
	ArchARM64e
	ArchARM6432
)

var architectureNames = []struct {
	arch Architecture
	name string
}{
	{ArchX8664, "x86_64"},
	{ArchI386, "i386"},
	{ArchARMv7, "armv7"},
	{ArchARMv7s, "armv7s"},
	{ArchARMv7k, "armv7k"},
	{ArchARM64, "arm64"},
	{ArchARM64e, "arm64e"},
	{ArchARM6432, "arm64_32"},
}

// Architectures is a set of architectures. It is a bit set so that the
// dependency variants carrying it stay comparable and usable as map keys.
type Architectures uint16

// ParseArchitectures builds a set from architecture names.
func ParseArchitectures(names []string) (Architectures, error) {
	var set Architectures
	for _, n := range names {
		found := false
		for _, a := range architectureNames {
			if a.name == n {
				set |= Architectures(a.arch)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown architecture %q", n)
		}
	}
	return set, nil
}

// Has reports whether the set contains a.
func (s Architectures) Has(a Architecture) bool {
	return s&Architectures(a) != 0
}

// Names returns the architecture names in a fixed order.
func (s Architectures) Names() []string {
	names := []string{}
	for _, a := range architectureNames {
		if s.Has(a.arch) {
			names = append(names, a.name)
		}
	}
	return names
}

func (s Architectures) String() string {
	return strings.Join(s.Names(), ",")
}

// SDKKind distinguishes system frameworks from system libraries.
type SDKKind string

const (
	SDKFramework SDKKind = "framework"
	SDKLibrary   SDKKind = "library"
)

// SDKStatus says whether an SDK is linked as required or weak.
type SDKStatus string

const (
	Required SDKStatus = "required"
	Optional SDKStatus = "optional"
)

// DependencyKind names a Dependency variant.
type DependencyKind string

const (
	KindTarget         DependencyKind = "target"
	KindFramework      DependencyKind = "framework"
	KindXCFramework    DependencyKind = "xcframework"
	KindLibrary        DependencyKind = "library"
	KindPackageProduct DependencyKind = "package"
	KindSDK            DependencyKind = "sdk"
	KindCocoaPods      DependencyKind = "cocoapods"
)

var kindRank = map[DependencyKind]int{
	KindTarget:         0,
	KindFramework:      1,
	KindXCFramework:    2,
	KindLibrary:        3,
	KindPackageProduct: 4,
	KindSDK:            5,
	KindCocoaPods:      6,
}

// Dependency is a node of the dependency graph. The set of implementations is
// closed; every variant is a comparable struct whose identity is the full
// tuple of its fields, so values can be used directly as map keys.
type Dependency interface {
	Kind() DependencyKind
	String() string
	isDependency()
}

// TargetDependency points at a target of the graph, resolved by name and
// project path.
type TargetDependency struct {
	Name string
	Path string
}

// FrameworkDependency is a precompiled .framework.
type FrameworkDependency struct {
	Path          string
	BinaryPath    string
	DSYMPath      string
	Linking       Linking
	Architectures Architectures
}

// XCFrameworkDependency is a precompiled .xcframework.
type XCFrameworkDependency struct {
	Path          string
	InfoPlistPath string
	Linking       Linking
}

// LibraryDependency is a precompiled library with its public headers.
type LibraryDependency struct {
	Path           string
	PublicHeaders  string
	Linking        Linking
	Architectures  Architectures
	SwiftModuleMap string
}

// PackageProductDependency is a product of a package manager dependency.
type PackageProductDependency struct {
	Name string
}

// SDKDependency is a framework or library shipped with the platform SDK.
type SDKDependency struct {
	Name    string
	SDKKind SDKKind
	Status  SDKStatus
}

// CocoaPodsDependency is a pods directory.
type CocoaPodsDependency struct {
	Path string
}

func (TargetDependency) isDependency()         {}
func (FrameworkDependency) isDependency()      {}
func (XCFrameworkDependency) isDependency()    {}
func (LibraryDependency) isDependency()        {}
func (PackageProductDependency) isDependency() {}
func (SDKDependency) isDependency()            {}
func (CocoaPodsDependency) isDependency()      {}

func (TargetDependency) Kind() DependencyKind         { return KindTarget }
func (FrameworkDependency) Kind() DependencyKind      { return KindFramework }
func (XCFrameworkDependency) Kind() DependencyKind    { return KindXCFramework }
func (LibraryDependency) Kind() DependencyKind        { return KindLibrary }
func (PackageProductDependency) Kind() DependencyKind { return KindPackageProduct }
func (SDKDependency) Kind() DependencyKind            { return KindSDK }
func (CocoaPodsDependency) Kind() DependencyKind      { return KindCocoaPods }

func (d TargetDependency) String() string { return "target:" + d.Path + ":" + d.Name }

func (d FrameworkDependency) String() string {
	return fmt.Sprintf("framework:%s:%s:%s:%s:%s", d.Path, d.BinaryPath, d.DSYMPath, d.Linking, d.Architectures)
}

func (d XCFrameworkDependency) String() string {
	return fmt.Sprintf("xcframework:%s:%s:%s", d.Path, d.InfoPlistPath, d.Linking)
}

func (d LibraryDependency) String() string {
	return fmt.Sprintf("library:%s:%s:%s:%s:%s", d.Path, d.PublicHeaders, d.Linking, d.Architectures, d.SwiftModuleMap)
}

func (d PackageProductDependency) String() string { return "package:" + d.Name }

func (d SDKDependency) String() string {
	return fmt.Sprintf("sdk:%s:%s:%s", d.Name, d.SDKKind, d.Status)
}

func (d CocoaPodsDependency) String() string { return "cocoapods:" + d.Path }

// CompareDependencies orders nodes by variant, then field by field. Two
// nodes compare equal only when they are the same node.
func CompareDependencies(a, b Dependency) int {
	if c := cmp.Compare(kindRank[a.Kind()], kindRank[b.Kind()]); c != 0 {
		return c
	}
	return slices.Compare(fieldsOf(a), fieldsOf(b))
}

// Identity returns a string that names d unambiguously, for use as a
// storage key. Unlike String, field values never run into each other.
func Identity(d Dependency) string {
	b, _ := json.Marshal(append([]string{string(d.Kind())}, fieldsOf(d)...))
	return string(b)
}

// fieldsOf returns the full field tuple of d in comparison order.
func fieldsOf(d Dependency) []string {
	switch v := d.(type) {
	case TargetDependency:
		return []string{v.Name, v.Path}
	case FrameworkDependency:
		return []string{v.Path, v.BinaryPath, v.DSYMPath, string(v.Linking), archKey(v.Architectures)}
	case XCFrameworkDependency:
		return []string{v.Path, v.InfoPlistPath, string(v.Linking)}
	case LibraryDependency:
		return []string{v.Path, v.PublicHeaders, string(v.Linking), archKey(v.Architectures), v.SwiftModuleMap}
	case PackageProductDependency:
		return []string{v.Name}
	case SDKDependency:
		return []string{v.Name, string(v.SDKKind), string(v.Status)}
	case CocoaPodsDependency:
		return []string{v.Path}
	}
	return nil
}

// archKey renders a set with fixed width so that string order matches
// numeric order.
func archKey(a Architectures) string {
	return fmt.Sprintf("%020d", uint64(a))
}

// LinkingOf returns the linking of a precompiled node and whether the node
// carries one at all.
func LinkingOf(d Dependency) (Linking, bool) {
	switch v := d.(type) {
	case FrameworkDependency:
		return v.Linking, true
	case XCFrameworkDependency:
		return v.Linking, true
	case LibraryDependency:
		return v.Linking, true
	}
	return "", false
}

// IsPrecompiled reports whether d is a framework, xcframework or library.
func IsPrecompiled(d Dependency) bool {
	_, ok := LinkingOf(d)
	return ok
}
