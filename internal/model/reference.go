package model

import (
	"cmp"
	"slices"
)

// ReferenceKind tags a DependencyReference.
type ReferenceKind string

const (
	RefSDK         ReferenceKind = "sdk"
	RefProduct     ReferenceKind = "product"
	RefXCFramework ReferenceKind = "xcframework"
	RefFramework   ReferenceKind = "framework"
	RefLibrary     ReferenceKind = "library"
)

var refRank = map[ReferenceKind]int{
	RefSDK:         0,
	RefProduct:     1,
	RefXCFramework: 2,
	RefFramework:   3,
	RefLibrary:     4,
}

// DependencyReference is what a generator puts into a link, embed or copy
// phase. Product references name a target and its built product; the other
// kinds point at a file on disk.
type DependencyReference struct {
	Kind        ReferenceKind `json:"kind"`
	Path        string        `json:"path,omitempty"`
	Target      string        `json:"target,omitempty"`
	ProductName string        `json:"product_name,omitempty"`
	Linking     Linking       `json:"linking,omitempty"`
	Status      SDKStatus     `json:"status,omitempty"`
}

// ProductReference references the built product of t.
func ProductReference(t Target) DependencyReference {
	return DependencyReference{
		Kind:        RefProduct,
		Target:      t.Name,
		ProductName: t.ProductNameWithExtension(),
	}
}

// ReferenceFor maps a graph node to a reference. Only precompiled nodes and
// SDKs have one; the second result is false for everything else.
func ReferenceFor(d Dependency) (DependencyReference, bool) {
	switch v := d.(type) {
	case FrameworkDependency:
		return DependencyReference{Kind: RefFramework, Path: v.Path, Linking: v.Linking}, true
	case XCFrameworkDependency:
		return DependencyReference{Kind: RefXCFramework, Path: v.Path, Linking: v.Linking}, true
	case LibraryDependency:
		return DependencyReference{Kind: RefLibrary, Path: v.Path, Linking: v.Linking}, true
	case SDKDependency:
		return DependencyReference{Kind: RefSDK, Path: v.Name, Status: v.Status}, true
	}
	return DependencyReference{}, false
}

// CompareReferences orders references by kind, then path or target, then
// product name.
func CompareReferences(a, b DependencyReference) int {
	if c := cmp.Compare(refRank[a.Kind], refRank[b.Kind]); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Path, b.Path); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Target, b.Target); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ProductName, b.ProductName); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Linking, b.Linking); c != 0 {
		return c
	}
	return cmp.Compare(a.Status, b.Status)
}

// UniqueReferences returns refs deduplicated and sorted. The result is never nil.
func UniqueReferences(refs []DependencyReference) []DependencyReference {
	seen := make(map[DependencyReference]struct{}, len(refs))
	out := make([]DependencyReference, 0, len(refs))
	for _, r := range refs {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	slices.SortFunc(out, CompareReferences)
	return out
}
