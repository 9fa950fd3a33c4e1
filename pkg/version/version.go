// Package version holds build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

// Build metadata, set via:
//
//	-ldflags "-X github.com/Sumatoshi-tech/jsmorph/pkg/version.Version=v1.0.0"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the metadata for "jsmorph version".
func String() string {
	return fmt.Sprintf("jsmorph %s (commit: %s, built: %s)", resolved(), Commit, Date)
}

// resolved falls back to the module version recorded by "go install".
func resolved() string {
	if Version != "dev" {
		return Version
	}

	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return Version
	}

	return info.Main.Version
}
