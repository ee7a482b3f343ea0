// Package version reports the version the binary was built from.
package version

import "runtime/debug"

// Version can be set at build time using something like:
// go build -ldflags "-X github.com/wblanchett/overtone/version.Version=$(git describe --dirty)"
var Version string

// String returns the build-time version, falling back to the VCS revision
// recorded in the build info.
func String() string {
	if Version != "" {
		return Version
	}
	return hash()
}

func hash() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	revision := ""
	modified := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if revision != "" && modified {
		return revision + "-dirty"
	}
	return revision
}
