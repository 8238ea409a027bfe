// Package version reports the build of the acrn binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version can be set at build time:
// go build -ldflags "-X github.com/generalfuzz/acrn/version.Version=$(git describe --dirty)"
var Version string

// Hash is the short VCS revision the binary was built from, with a -dirty
// suffix for modified trees.
var Hash = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	return revision(info.Settings)
}()

var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	if Hash != "" {
		return Hash
	}
	return "devel"
}()

// String formats the version line printed by the -v flag of a binary.
func String(program string) string {
	return fmt.Sprintf("%s %s (%s)", program, VersionOrHash, runtime.Version())
}

func revision(settings []debug.BuildSetting) string {
	var rev string
	modified := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if rev != "" && modified {
		rev += "-dirty"
	}
	return rev
}
