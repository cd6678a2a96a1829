// Package scripts bundles the Risor report scripts shipped with buildgraph.
// Each script reads the global "project" and returns a report value.
package scripts

import "embed"

//go:embed reports/*.risor
var FS embed.FS

// ReportPath returns the path of a bundled report inside FS.
func ReportPath(name string) string {
	return "reports/" + name + ".risor"
}
