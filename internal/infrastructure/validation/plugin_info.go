// Package validation checks what plugins advertise before a host relies on it.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	apperrors "github.com/reglet-dev/parserkit/internal/application/errors"
	"github.com/reglet-dev/parserkit/internal/application/ports"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// Advertisement limits.
const (
	MaxSchemaItems     = 100
	MaxColumns         = 100
	MaxIDLength        = 1 << 10
	MaxTitleLength     = 2 << 10
	MaxDescriptionLen  = 10 << 10
	MaxDropdownOptions = 1000
	maxPluginNameLen   = 64
)

// SupportedAPI is the range of contract versions this host speaks.
const SupportedAPI = "^0.1"

var supportedAPI = semver.MustParse(parsersdk.APIVersion)

var pluginNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidatePluginName rejects names that could escape a plugin directory or
// break log output.
func ValidatePluginName(name string) error {
	if name == "" {
		return fmt.Errorf("plugin name cannot be empty")
	}
	if len(name) > maxPluginNameLen {
		return fmt.Errorf("plugin name too long (%d > %d)", len(name), maxPluginNameLen)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("plugin name cannot contain path separators")
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("plugin name cannot contain parent directory references")
	}
	if !pluginNamePattern.MatchString(name) {
		return fmt.Errorf("plugin name %q must contain only alphanumeric characters, underscores, and hyphens", name)
	}
	return nil
}

// CheckAPIVersion reports whether a plugin built against apiVersion can be
// driven by this host.
func CheckAPIVersion(apiVersion string) error {
	v, err := semver.NewVersion(apiVersion)
	if err != nil {
		return fmt.Errorf("invalid api version %q: %w", apiVersion, err)
	}
	c, err := semver.NewConstraint(SupportedAPI)
	if err != nil {
		return fmt.Errorf("invalid api constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("api version %s is not compatible with host api %s (%s)", v, supportedAPI, SupportedAPI)
	}
	return nil
}

// ValidatePluginInfo checks the advertisement of a loaded plugin. All problems
// are collected into one ValidationError.
func ValidatePluginInfo(info *ports.PluginInfo) error {
	if info == nil {
		return apperrors.NewValidationError("plugin", "no plugin info")
	}

	var issues []string
	if err := CheckAPIVersion(info.APIVersion); err != nil {
		issues = append(issues, err.Error())
	}
	issues = append(issues, schemaIssues(info.Schemas)...)
	issues = append(issues, renderIssues(info.Render)...)

	if len(issues) > 0 {
		return apperrors.NewValidationError(info.Name, "plugin advertisement is invalid", issues...)
	}
	return nil
}

func schemaIssues(items []parsersdk.ConfigSchemaItem) []string {
	var issues []string
	if len(items) > MaxSchemaItems {
		issues = append(issues, fmt.Sprintf("%d config schema items exceed the limit of %d", len(items), MaxSchemaItems))
	}
	if err := parsersdk.ValidateSchemas(items); err != nil {
		issues = append(issues, err.Error())
	}

	for _, item := range items {
		issues = appendLen(issues, "config "+item.ID+" id", item.ID, MaxIDLength)
		issues = appendLen(issues, "config "+item.ID+" title", item.Title, MaxTitleLength)
		if item.Description != nil {
			issues = appendLen(issues, "config "+item.ID+" description", *item.Description, MaxDescriptionLen)
		}

		if dd, ok := item.Input.(parsersdk.DropdownInput); ok {
			if len(dd.Options) > MaxDropdownOptions {
				issues = append(issues, fmt.Sprintf("config %s has %d dropdown options, limit is %d", item.ID, len(dd.Options), MaxDropdownOptions))
			}
			for _, opt := range dd.Options {
				issues = appendLen(issues, "config "+item.ID+" option", opt, MaxTitleLength)
			}
		}
	}
	return issues
}

func renderIssues(render parsersdk.RenderOptions) []string {
	var issues []string
	if err := render.Validate(); err != nil {
		issues = append(issues, err.Error())
	}
	if render.Columns == nil {
		return issues
	}
	if n := len(render.Columns.Columns); n > MaxColumns {
		issues = append(issues, fmt.Sprintf("%d columns exceed the limit of %d", n, MaxColumns))
	}
	for i, col := range render.Columns.Columns {
		issues = appendLen(issues, fmt.Sprintf("column %d caption", i), col.Caption, MaxTitleLength)
		issues = appendLen(issues, fmt.Sprintf("column %d description", i), col.Description, MaxDescriptionLen)
	}
	return issues
}

func appendLen(issues []string, what, value string, limit int) []string {
	if len(value) > limit {
		return append(issues, fmt.Sprintf("%s is %d bytes, limit is %d", what, len(value), limit))
	}
	return issues
}
