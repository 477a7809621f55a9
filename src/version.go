package cqtscope

import (
	"fmt"
	"runtime/debug"
)

// Version is set at build time via -ldflags "-X
// 'github.com/go-cqt/cqtscope/src.Version=X'". Left blank, PrintVersion
// falls back to the module's VCS revision.
var Version string

func getBuildSettingOrDefault(bi *debug.BuildInfo, key, defaultValue string) string {
	for _, bs := range bi.Settings {
		if bs.Key == key {
			return bs.Value
		}
	}
	return defaultValue
}

// PrintVersion writes a one-line version string to stdout: the build
// tag if set at link time, otherwise the VCS commit the binary was
// built from.
func PrintVersion() {
	version := Version
	if version == "" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			version = getBuildSettingOrDefault(bi, "vcs.revision", "UNKNOWN")
		} else {
			version = "UNKNOWN"
		}
	}
	fmt.Printf("cqtscope %s\n", version)
}
