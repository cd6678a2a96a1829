package buildgraph

import "github.com/jward/buildgraph/internal/model"

// Public type aliases for the internal model types used by the query API.
// External consumers use these names; no conversion is needed.

type Graph = model.Graph
type Project = model.Project
type Target = model.Target
type Product = model.Product
type Platform = model.Platform
type Settings = model.Settings
type Dependency = model.Dependency
type DependencyReference = model.DependencyReference

type TargetDependency = model.TargetDependency
type FrameworkDependency = model.FrameworkDependency
type XCFrameworkDependency = model.XCFrameworkDependency
type LibraryDependency = model.LibraryDependency
type PackageProductDependency = model.PackageProductDependency
type SDKDependency = model.SDKDependency
type CocoaPodsDependency = model.CocoaPodsDependency

// NewGraph returns an empty graph rooted at entryPath.
func NewGraph(name, entryPath string) *Graph {
	return model.NewGraph(name, entryPath)
}
