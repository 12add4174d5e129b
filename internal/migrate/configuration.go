package migrate

import (
	"strings"

	"github.com/temirov/svn2git/internal/svnbridge"
)

const (
	defaultPrimaryBranchConstant           = "master"
	defaultMappingLogNameConstant          = "tag-rename-map.txt"
	defaultTrunkPathConstant               = "trunk"
	referenceBackendCLIConstant            = "cli"
	referenceBackendNativeConstant         = "native"
	configurationKeySeparatorConstant      = "."
	configurationPrimaryBranchKeyConstant  = "primary_branch"
	configurationMappingLogKeyConstant     = "mapping_log"
	configurationTagRenamesKeyConstant     = "tag_renames"
	configurationExcludeRefsKeyConstant    = "exclude_refs"
	configurationBackendKeyConstant        = "reference_backend"
	configurationOptimizeKeyConstant       = "optimize"
	configurationAuthorsKeyConstant        = "authors"
	configurationMetadataKeyConstant       = "metadata"
	configurationNoMinimizeURLKeyConstant  = "no_minimize_url"
	configurationExcludePathsKeyConstant   = "exclude_paths"
	configurationUsernameKeyConstant       = "username"
	configurationLayoutTrunkKeyConstant    = "layout.trunk"
	configurationLayoutBranchesKeyConstant = "layout.branches"
	configurationLayoutTagsKeyConstant     = "layout.tags"
	configurationRootIsTrunkKeyConstant    = "layout.root_is_trunk"
	configurationLayoutNoTrunkKeyConstant  = "layout.no_trunk"
	configurationLayoutNoBranchesConstant  = "layout.no_branches"
	configurationLayoutNoTagsKeyConstant   = "layout.no_tags"
)

// ReferenceBackend selects how refs and commit metadata are read.
type ReferenceBackend string

// Supported reference backends.
const (
	// ReferenceBackendCLI reads refs by running git.
	ReferenceBackendCLI ReferenceBackend = referenceBackendCLIConstant
	// ReferenceBackendNative reads refs from the object database with go-git.
	ReferenceBackendNative ReferenceBackend = referenceBackendNativeConstant
)

// LayoutConfiguration describes the Subversion directory layout.
type LayoutConfiguration struct {
	Trunk       string   `mapstructure:"trunk"`
	Branches    []string `mapstructure:"branches"`
	Tags        []string `mapstructure:"tags"`
	RootIsTrunk bool     `mapstructure:"root_is_trunk"`
	NoTrunk     bool     `mapstructure:"no_trunk"`
	NoBranches  bool     `mapstructure:"no_branches"`
	NoTags      bool     `mapstructure:"no_tags"`
}

// Layout converts the configuration into the layout used by git svn init.
func (configuration LayoutConfiguration) Layout() svnbridge.Layout {
	return svnbridge.Layout{
		Trunk:       configuration.Trunk,
		Branches:    append([]string(nil), configuration.Branches...),
		Tags:        append([]string(nil), configuration.Tags...),
		RootIsTrunk: configuration.RootIsTrunk,
		NoTrunk:     configuration.NoTrunk,
		NoBranches:  configuration.NoBranches,
		NoTags:      configuration.NoTags,
	}
}

// CommandConfiguration captures persisted configuration for the import and rebase commands.
type CommandConfiguration struct {
	PrimaryBranch    string              `mapstructure:"primary_branch"`
	MappingLog       string              `mapstructure:"mapping_log"`
	TagRenames       string              `mapstructure:"tag_renames"`
	ExcludeRefs      []string            `mapstructure:"exclude_refs"`
	ReferenceBackend string              `mapstructure:"reference_backend"`
	Optimize         bool                `mapstructure:"optimize"`
	Authors          string              `mapstructure:"authors"`
	Layout           LayoutConfiguration `mapstructure:"layout"`
	IncludeMetadata  bool                `mapstructure:"metadata"`
	NoMinimizeURL    bool                `mapstructure:"no_minimize_url"`
	ExcludePaths     []string            `mapstructure:"exclude_paths"`
	Username         string              `mapstructure:"username"`
}

// DefaultCommandConfiguration returns baseline configuration values.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		PrimaryBranch:    defaultPrimaryBranchConstant,
		MappingLog:       defaultMappingLogNameConstant,
		ReferenceBackend: referenceBackendCLIConstant,
		Optimize:         true,
		Layout:           LayoutConfiguration{Trunk: defaultTrunkPathConstant},
	}
}

// DefaultConfigurationValues returns the configuration defaults keyed below prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	values := map[string]any{
		configurationPrimaryBranchKeyConstant:  defaults.PrimaryBranch,
		configurationMappingLogKeyConstant:     defaults.MappingLog,
		configurationTagRenamesKeyConstant:     defaults.TagRenames,
		configurationExcludeRefsKeyConstant:    []string{},
		configurationBackendKeyConstant:        defaults.ReferenceBackend,
		configurationOptimizeKeyConstant:       defaults.Optimize,
		configurationAuthorsKeyConstant:        defaults.Authors,
		configurationMetadataKeyConstant:       defaults.IncludeMetadata,
		configurationNoMinimizeURLKeyConstant:  defaults.NoMinimizeURL,
		configurationExcludePathsKeyConstant:   []string{},
		configurationUsernameKeyConstant:       defaults.Username,
		configurationLayoutTrunkKeyConstant:    defaults.Layout.Trunk,
		configurationLayoutBranchesKeyConstant: []string{},
		configurationLayoutTagsKeyConstant:     []string{},
		configurationRootIsTrunkKeyConstant:    defaults.Layout.RootIsTrunk,
		configurationLayoutNoTrunkKeyConstant:  defaults.Layout.NoTrunk,
		configurationLayoutNoBranchesConstant:  defaults.Layout.NoBranches,
		configurationLayoutNoTagsKeyConstant:   defaults.Layout.NoTags,
	}

	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return values
	}

	prefixedValues := make(map[string]any, len(values))
	for key, value := range values {
		prefixedValues[trimmedPrefix+configurationKeySeparatorConstant+key] = value
	}
	return prefixedValues
}

// Sanitize trims configured values, removes empty entries and restores defaults for blank
// required values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.PrimaryBranch = valueOrDefault(configuration.PrimaryBranch, defaults.PrimaryBranch)
	sanitized.MappingLog = valueOrDefault(configuration.MappingLog, defaults.MappingLog)
	sanitized.ReferenceBackend = strings.ToLower(valueOrDefault(configuration.ReferenceBackend, defaults.ReferenceBackend))
	sanitized.TagRenames = strings.TrimSpace(configuration.TagRenames)
	sanitized.Authors = strings.TrimSpace(configuration.Authors)
	sanitized.Username = strings.TrimSpace(configuration.Username)
	sanitized.ExcludeRefs = sanitizeValues(configuration.ExcludeRefs)
	sanitized.ExcludePaths = sanitizeValues(configuration.ExcludePaths)
	sanitized.Layout.Trunk = valueOrDefault(configuration.Layout.Trunk, defaults.Layout.Trunk)
	sanitized.Layout.Branches = sanitizeValues(configuration.Layout.Branches)
	sanitized.Layout.Tags = sanitizeValues(configuration.Layout.Tags)

	return sanitized
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}

func sanitizeValues(values []string) []string {
	sanitizedValues := make([]string, 0, len(values))
	for _, value := range values {
		trimmedValue := strings.TrimSpace(value)
		if len(trimmedValue) == 0 {
			continue
		}
		sanitizedValues = append(sanitizedValues, trimmedValue)
	}
	return sanitizedValues
}
