package refname

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	csharpSourceTokenConstant          = "C#"
	csharpReplacementTokenConstant     = "Csharp"
	apostropheCharacterConstant        = "'"
	commaCharacterConstant             = ","
	replacementCharacterConstant       = "_"
	reflogSequenceConstant             = "@{"
	boundaryTrimCharactersConstant     = "./"
	lockSuffixConstant                 = ".lock"
	emptyNameFallbackConstant          = "tag"
	hexadecimalCollisionPrefixConstant = "tag-"
	dedupeSuffixTemplateConstant       = "%s-%d"
	firstDedupeSuffixConstant          = 2
	maximumNormalizationPassesConstant = 8
	emptyStringConstant                = ""
)

var (
	whitespaceRunPattern      = regexp.MustCompile(`[\t\n\v\f\r ]+`)
	forbiddenCharacterPattern = regexp.MustCompile(`[\x00-\x1F\x7F ~^:?*\[\\]`)
	objectIdentifierPattern   = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)
)

// UsedNames records the tag names already claimed during a run.
type UsedNames struct {
	claimedNames map[string]struct{}
}

// NewUsedNames constructs an empty UsedNames set.
func NewUsedNames() *UsedNames {
	return &UsedNames{claimedNames: make(map[string]struct{})}
}

// Contains reports whether the name has been claimed.
func (usedNames *UsedNames) Contains(name string) bool {
	if usedNames == nil {
		return false
	}
	_, claimed := usedNames.claimedNames[name]
	return claimed
}

// Len returns the number of claimed names.
func (usedNames *UsedNames) Len() int {
	if usedNames == nil {
		return 0
	}
	return len(usedNames.claimedNames)
}

func (usedNames *UsedNames) claim(name string) {
	if usedNames.claimedNames == nil {
		usedNames.claimedNames = make(map[string]struct{})
	}
	usedNames.claimedNames[name] = struct{}{}
}

// Sanitizer maps raw labels to git-safe tag names.
type Sanitizer struct {
	overrides  OverrideTable
	normalizer func(string) string
}

// NewSanitizer constructs a Sanitizer that consults the provided overrides before normalizing.
// A nil table disables overrides.
func NewSanitizer(overrides OverrideTable) *Sanitizer {
	return &Sanitizer{overrides: overrides.Clone(), normalizer: Normalize}
}

// NewDefaultSanitizer constructs a Sanitizer seeded with the built-in override table.
func NewDefaultSanitizer() *Sanitizer {
	return NewSanitizer(DefaultOverrideTable())
}

// Sanitize returns the git-safe name for raw. When usedNames is non-nil the result is made
// unique against it and recorded there.
func (sanitizer *Sanitizer) Sanitize(rawName string, usedNames *UsedNames) string {
	candidateName, overridden := sanitizer.overrides.Lookup(rawName)
	if !overridden {
		candidateName = sanitizer.normalizer(rawName)
	}
	return Dedupe(candidateName, usedNames)
}

// Normalize applies the generic git reference naming rules to raw. The rules are applied
// until the name stops changing, so Normalize(Normalize(x)) == Normalize(x).
func Normalize(rawName string) string {
	currentName := normalizeOnce(rawName)
	for pass := 1; pass < maximumNormalizationPassesConstant; pass++ {
		nextName := normalizeOnce(currentName)
		if nextName == currentName {
			break
		}
		currentName = nextName
	}
	return currentName
}

func normalizeOnce(rawName string) string {
	normalizedName := strings.ReplaceAll(rawName, csharpSourceTokenConstant, csharpReplacementTokenConstant)
	normalizedName = strings.ReplaceAll(normalizedName, apostropheCharacterConstant, emptyStringConstant)
	normalizedName = strings.ReplaceAll(normalizedName, commaCharacterConstant, emptyStringConstant)
	normalizedName = whitespaceRunPattern.ReplaceAllString(normalizedName, replacementCharacterConstant)
	normalizedName = forbiddenCharacterPattern.ReplaceAllString(normalizedName, replacementCharacterConstant)
	normalizedName = strings.ReplaceAll(normalizedName, reflogSequenceConstant, replacementCharacterConstant)
	normalizedName = strings.TrimLeft(normalizedName, boundaryTrimCharactersConstant)
	normalizedName = trimTrailingBoundary(normalizedName)

	if len(normalizedName) == 0 {
		return emptyNameFallbackConstant
	}
	if objectIdentifierPattern.MatchString(normalizedName) {
		return hexadecimalCollisionPrefixConstant + normalizedName
	}
	return normalizedName
}

// trimTrailingBoundary removes trailing dots, slashes and .lock suffixes until none remain.
func trimTrailingBoundary(name string) string {
	for {
		name = strings.TrimRight(name, boundaryTrimCharactersConstant)
		if !strings.HasSuffix(name, lockSuffixConstant) {
			return name
		}
		name = strings.TrimSuffix(name, lockSuffixConstant)
	}
}

// Dedupe returns name, or name with the smallest free numeric suffix starting at -2, and
// claims the result. A nil usedNames returns name unchanged without recording it.
func Dedupe(name string, usedNames *UsedNames) string {
	if usedNames == nil {
		return name
	}

	candidateName := name
	for suffix := firstDedupeSuffixConstant; usedNames.Contains(candidateName); suffix++ {
		candidateName = fmt.Sprintf(dedupeSuffixTemplateConstant, name, suffix)
	}

	usedNames.claim(candidateName)
	return candidateName
}
