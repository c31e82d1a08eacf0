// Package version reports the build version of rankline.
package version

import "runtime/debug"

// version is set at build time with -ldflags "-X github.com/rshade/rankline/pkg/version.version=v1.2.3".
//
//nolint:gochecknoglobals // Overridden by the linker.
var version = ""

// GetVersion returns the linker-provided version, the module version recorded in the
// build info, or "dev".
func GetVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
