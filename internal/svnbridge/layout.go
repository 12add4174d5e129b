package svnbridge

import (
	"fmt"
	"strings"
)

const (
	defaultTrunkPathConstant                = "trunk"
	defaultBranchesPathConstant             = "branches"
	defaultTagsPathConstant                 = "tags"
	trunkIgnorePrefixTemplateConstant       = "%s[/]"
	containerIgnorePrefixTemplateConstant   = "%s[/][^/]+[/]"
	ignorePathsPatternTemplateConstant      = "^(?:%s)(?:%s)"
	ignorePathsAlternativeSeparatorConstant = "|"
)

// Layout describes where trunk, branches and tags live below the repository URL.
type Layout struct {
	Trunk    string
	Branches []string
	Tags     []string
	// RootIsTrunk treats the repository URL itself as trunk; branches and tags are not imported.
	RootIsTrunk bool
	NoTrunk     bool
	NoBranches  bool
	NoTags      bool
}

// TrunkPath returns the trunk subpath, or false when trunk is not imported.
func (layout Layout) TrunkPath() (string, bool) {
	if layout.RootIsTrunk || layout.NoTrunk {
		return "", false
	}
	trimmedTrunk := strings.TrimSpace(layout.Trunk)
	if len(trimmedTrunk) == 0 {
		return defaultTrunkPathConstant, true
	}
	return trimmedTrunk, true
}

// BranchPaths returns the branch container subpaths, defaulting to "branches".
func (layout Layout) BranchPaths() []string {
	if layout.RootIsTrunk || layout.NoBranches {
		return nil
	}
	return pathsOrDefault(layout.Branches, defaultBranchesPathConstant)
}

// TagPaths returns the tag container subpaths, defaulting to "tags".
func (layout Layout) TagPaths() []string {
	if layout.RootIsTrunk || layout.NoTags {
		return nil
	}
	return pathsOrDefault(layout.Tags, defaultTagsPathConstant)
}

// IgnorePathsPattern builds the --ignore-paths expression that applies the exclusion
// expressions below trunk and below every branch and tag. It returns false when there is
// nothing to exclude.
func (layout Layout) IgnorePathsPattern(exclusions []string) (string, bool) {
	trimmedExclusions := nonEmptyValues(exclusions)
	if len(trimmedExclusions) == 0 {
		return "", false
	}

	prefixes := make([]string, 0)
	if trunkPath, importsTrunk := layout.TrunkPath(); importsTrunk {
		prefixes = append(prefixes, fmt.Sprintf(trunkIgnorePrefixTemplateConstant, trunkPath))
	}
	for _, tagPath := range layout.TagPaths() {
		prefixes = append(prefixes, fmt.Sprintf(containerIgnorePrefixTemplateConstant, tagPath))
	}
	for _, branchPath := range layout.BranchPaths() {
		prefixes = append(prefixes, fmt.Sprintf(containerIgnorePrefixTemplateConstant, branchPath))
	}

	return fmt.Sprintf(
		ignorePathsPatternTemplateConstant,
		strings.Join(prefixes, ignorePathsAlternativeSeparatorConstant),
		strings.Join(trimmedExclusions, ignorePathsAlternativeSeparatorConstant),
	), true
}

func pathsOrDefault(paths []string, defaultPath string) []string {
	trimmedPaths := nonEmptyValues(paths)
	if len(trimmedPaths) == 0 {
		return []string{defaultPath}
	}
	return trimmedPaths
}

func nonEmptyValues(values []string) []string {
	trimmedValues := make([]string, 0, len(values))
	for _, value := range values {
		trimmedValue := strings.TrimSpace(value)
		if len(trimmedValue) > 0 {
			trimmedValues = append(trimmedValues, trimmedValue)
		}
	}
	return trimmedValues
}
