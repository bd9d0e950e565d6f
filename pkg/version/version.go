// Package version holds the clusterplot release identifier.
package version

import "runtime/debug"

// Version is the current application version. It is a var so release
// builds can set it:
//
//	go build -ldflags "-X github.com/vanderheijden86/clusterplot/pkg/version.Version=v0.2.0"
var Version = "v0.1.0-dev"

// String returns Version, falling back to the module version recorded in
// the binary when Version was left at its development default.
func String() string {
	if Version != "v0.1.0-dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
