// Package parsersdk provides the plugin-side contract for streaming log parser
// plugins: the configuration schema and value model, the parsed-output model,
// render options, the session state machine and the logging gate.
//
// A plugin implements Parser and hands it to NewSession (native hosts) or
// NewGuest (WASM builds). The Session enforces call order, validates host
// configuration against the declared schema and checks every parse result
// against the declared render options.
package parsersdk

import (
	"fmt"
	"math"

	"github.com/Masterminds/semver/v3"
)

// APIVersion is the version of the host/plugin contract implemented by this package.
// It is independent of the plugin's own Version.
const APIVersion = "0.1.0"

// Version is a plugin's own semantic version.
type Version struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// NewVersion creates a Version.
func NewVersion(major, minor, patch uint16) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// ParseVersion parses "X.Y.Z" (a leading "v" is accepted).
func ParseVersion(s string) (Version, error) {
	sv, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	if sv.Major() > math.MaxUint16 || sv.Minor() > math.MaxUint16 || sv.Patch() > math.MaxUint16 {
		return Version{}, fmt.Errorf("invalid version %q: component exceeds %d", s, math.MaxUint16)
	}
	return Version{
		Major: uint16(sv.Major()), //nolint:gosec // G115: bounds checked above
		Minor: uint16(sv.Minor()), //nolint:gosec // G115: bounds checked above
		Patch: uint16(sv.Patch()), //nolint:gosec // G115: bounds checked above
	}, nil
}

// Semver returns the version as a semver.Version for constraint checks.
func (v Version) Semver() *semver.Version {
	return semver.New(uint64(v.Major), uint64(v.Minor), uint64(v.Patch), "", "")
}

// String returns "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
