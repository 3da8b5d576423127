package version

import "fmt"

// Set at build time with -ldflags "-X lens-viewer/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Built   = "unknown"
)

type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built"`
}

func Info() BuildInfo {
	return BuildInfo{Version: Version, Commit: Commit, Built: Built}
}

// String is the one-line form printed by --version.
func (b BuildInfo) String() string {
	return fmt.Sprintf("lensview %s (commit %s, built %s)", b.Version, b.Commit, b.Built)
}
