package version

import (
	"fmt"
	"runtime/debug"
)

// Set at release time with -ldflags "-X".
var (
	Version = "1.0.0"
	Commit  = "unknown"
	Date    = "unknown"
)

type Info struct {
	Version  string
	Commit   string
	Date     string
	Modified bool
}

// Resolve returns the version string shown by --version.
func Resolve() string {
	return Current().Version
}

// Current combines the ldflags values with the VCS stamp Go embeds in the
// binary, so untagged builds from a checkout are distinguishable.
func Current() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(Version, Commit, Date, bi)
}

func resolve(base, commit, date string, bi *debug.BuildInfo) Info {
	if base == "" {
		base = "0.0.0"
	}
	info := Info{Version: base, Commit: commit, Date: date}
	if bi == nil {
		return info
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" || info.Commit == "unknown" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "" || info.Date == "unknown" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}

	if commit == "unknown" && info.Commit != "unknown" {
		info.Version += "-" + shortRevision(info.Commit)
	}
	if info.Modified {
		info.Version += "-dirty"
	}
	return info
}

func (i Info) String() string {
	return fmt.Sprintf("v%s (commit %s, built %s)", i.Version, shortRevision(i.Commit), i.Date)
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
