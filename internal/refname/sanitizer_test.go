package refname_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/svn2git/internal/refname"
)

const (
	testForbiddenCharacterSetConstant = "\x7f ~^:?*[\\"
	testLockSuffixConstant            = ".lock"
)

func TestNormalizeAppliesGenericRules(testInstance *testing.T) {
	testCases := []struct {
		name         string
		rawName      string
		expectedName string
	}{
		{name: "plain_name_unchanged", rawName: "release-1.0", expectedName: "release-1.0"},
		{name: "csharp_token_rewritten", rawName: "First C# Build", expectedName: "First_Csharp_Build"},
		{name: "apostrophes_and_commas_removed", rawName: "Peter's tag, final", expectedName: "Peters_tag_final"},
		{name: "whitespace_runs_collapse", rawName: "a \t\n b", expectedName: "a_b"},
		{name: "forbidden_characters_replaced", rawName: "a~b^c:d?e*f[g\\h", expectedName: "a_b_c_d_e_f_g_h"},
		{name: "control_characters_replaced", rawName: "a\x01b\x7fc", expectedName: "a_b_c"},
		{name: "reflog_sequence_replaced", rawName: "x@{1}", expectedName: "x_1}"},
		{name: "boundary_dots_and_slashes_trimmed", rawName: "./release/.", expectedName: "release"},
		{name: "lock_suffix_dropped", rawName: "release.lock", expectedName: "release"},
		{name: "repeated_lock_suffix_dropped", rawName: "release.lock.lock", expectedName: "release"},
		{name: "dot_before_lock_suffix_trimmed", rawName: "release..lock", expectedName: "release"},
		{name: "empty_result_falls_back", rawName: "./..", expectedName: "tag"},
		{name: "empty_input_falls_back", rawName: "", expectedName: "tag"},
		{name: "object_identifier_prefixed", rawName: strings.Repeat("a", 40), expectedName: "tag-" + strings.Repeat("a", 40)},
		{name: "short_hexadecimal_kept", rawName: strings.Repeat("a", 39), expectedName: strings.Repeat("a", 39)},
		{name: "joined_csharp_after_removal", rawName: "C'#", expectedName: "Csharp"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedName, refname.Normalize(testCase.rawName))
		})
	}
}

func TestNormalizeProperties(testInstance *testing.T) {
	rawNames := []string{
		"Version 3.0.14 Release, Manual Accruals Fix",
		"  leading and trailing  ",
		"/.hidden/.lock",
		"a..lock.lock./",
		"weird:name?with*glob[chars]",
		"tab\tseparated\x00null",
		"x@{y}@{z}",
		"C'#,C#",
		strings.Repeat("F", 40),
		"..",
		"refs/tags/v1.0",
	}

	for _, rawName := range rawNames {
		testInstance.Run(rawName, func(testInstance *testing.T) {
			normalizedName := refname.Normalize(rawName)

			require.NotEmpty(testInstance, normalizedName)
			require.Equal(testInstance, normalizedName, refname.Normalize(normalizedName))
			require.False(testInstance, strings.ContainsAny(normalizedName, testForbiddenCharacterSetConstant))
			for _, character := range normalizedName {
				require.GreaterOrEqual(testInstance, character, rune(0x20))
			}
			require.NotContains(testInstance, normalizedName, "@{")
			require.False(testInstance, strings.HasPrefix(normalizedName, "."))
			require.False(testInstance, strings.HasPrefix(normalizedName, "/"))
			require.False(testInstance, strings.HasSuffix(normalizedName, "."))
			require.False(testInstance, strings.HasSuffix(normalizedName, "/"))
			require.False(testInstance, strings.HasSuffix(normalizedName, testLockSuffixConstant))
		})
	}
}

func TestSanitizerOverridesTakePrecedence(testInstance *testing.T) {
	sanitizer := refname.NewDefaultSanitizer()

	testCases := []struct {
		name         string
		rawName      string
		expectedName string
	}{
		{name: "version_only", rawName: "Version 2.7.1", expectedName: "Version_2.7.1"},
		{name: "peters_suite", rawName: "Version 2.7.1 using updated Peter's Data Entry Suite", expectedName: "v2.7.1-peters-data-entry-suite"},
		{name: "first_csharp_release", rawName: "Version 3.0.13 First C# Release", expectedName: "Version_3.0.13_First_Csharp_Release"},
		{name: "last_vb_release", rawName: "Version 2.8.0 Last VB Release", expectedName: "Version_2.8.0_Last_VB_Release"},
		{name: "manual_accruals_fix", rawName: "Version 3.0.14 Release, Manual Accruals Fix", expectedName: "Version_3.0.14_Release_Manual_Accruals_Fix"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedName, sanitizer.Sanitize(testCase.rawName, nil))
		})
	}
}

func TestSanitizerOverrideSkipsNormalization(testInstance *testing.T) {
	sanitizer := refname.NewSanitizer(refname.OverrideTable{"weird name": "Weird Name"})
	require.Equal(testInstance, "Weird Name", sanitizer.Sanitize("weird name", nil))
	require.Equal(testInstance, "other_name", sanitizer.Sanitize("other name", nil))
}

func TestSanitizerDedupesAgainstUsedNames(testInstance *testing.T) {
	sanitizer := refname.NewSanitizer(nil)
	usedNames := refname.NewUsedNames()

	require.Equal(testInstance, "release_1", sanitizer.Sanitize("release 1", usedNames))
	require.Equal(testInstance, "release_1-2", sanitizer.Sanitize("release:1", usedNames))
	require.Equal(testInstance, "release_1-3", sanitizer.Sanitize("release?1", usedNames))
	require.Equal(testInstance, 3, usedNames.Len())
	require.True(testInstance, usedNames.Contains("release_1-2"))
}

func TestSanitizerDedupesOverrideTargets(testInstance *testing.T) {
	sanitizer := refname.NewDefaultSanitizer()
	usedNames := refname.NewUsedNames()

	require.Equal(testInstance, "Version_2.7.1", sanitizer.Sanitize("Version_2.7.1", usedNames))
	require.Equal(testInstance, "Version_2.7.1-2", sanitizer.Sanitize("Version 2.7.1", usedNames))
}

func TestSanitizerDistinctLabelsNeverCollide(testInstance *testing.T) {
	sanitizer := refname.NewDefaultSanitizer()
	usedNames := refname.NewUsedNames()
	rawNames := []string{"a b", "a_b", "a:b", "a?b", "a*b", "a_b-2", "a b"}

	seenNames := map[string]struct{}{}
	for _, rawName := range rawNames {
		sanitizedName := sanitizer.Sanitize(rawName, usedNames)
		_, alreadySeen := seenNames[sanitizedName]
		require.False(testInstance, alreadySeen, sanitizedName)
		seenNames[sanitizedName] = struct{}{}
	}
	require.Equal(testInstance, len(rawNames), usedNames.Len())
}

func TestDedupeWithoutUsedNamesReturnsInput(testInstance *testing.T) {
	require.Equal(testInstance, "name", refname.Dedupe("name", nil))
	require.Equal(testInstance, "name", refname.Dedupe("name", nil))
}
