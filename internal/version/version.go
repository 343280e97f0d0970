// Package version reports how this parserkit binary was built.
package version

import (
	"fmt"
	"runtime"

	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// Set with -ldflags "-X github.com/reglet-dev/parserkit/internal/version.Version=..."
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	Platform  string
	// PluginAPI is the parser contract version the host speaks
	PluginAPI string
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		PluginAPI: parsersdk.APIVersion,
	}
}

func (i Info) String() string {
	return i.Version
}

// Full returns every field on one line.
func (i Info) Full() string {
	return fmt.Sprintf("%s (%s) built %s %s %s, plugin api %s",
		i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform, i.PluginAPI)
}
