// Package buildinfo reports which deptree build is running.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/deptree/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/deptree/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/deptree/pkg/buildinfo.Date=$(date -u +%Y-%m-%d)"
//
// Builds from `go install github.com/matzehuels/deptree/cmd/deptree@version`
// carry no ldflags; for those the module version and VCS stamp recorded by
// the Go toolchain are used instead.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Stamped by ldflags; the defaults mean "not stamped".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info is the resolved build description.
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

// Get resolves build information, preferring ldflags values and falling
// back to what the toolchain embedded in the binary.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "none" && s.Value != "" {
				info.Commit = shortCommit(s.Value)
			}
		case "vcs.time":
			if info.Date == "unknown" && s.Value != "" {
				info.Date = s.Value
			}
		}
	}
	return info
}

func shortCommit(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String returns the build description on one line.
func String() string {
	i := Get()
	return fmt.Sprintf("deptree %s (commit %s, built %s, %s)", i.Version, i.Commit, i.Date, i.GoVersion)
}

// Template returns the cobra version template.
func Template() string {
	i := Get()
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt:  %s\ngo:     %s\n", i.Version, i.Commit, i.Date, i.GoVersion)
}
