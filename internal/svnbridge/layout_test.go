package svnbridge_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/svn2git/internal/svnbridge"
)

func TestBuildInitArguments(testInstance *testing.T) {
	const repositoryURL = "https://svn.example.com/project"

	testCases := []struct {
		name              string
		options           svnbridge.ImportOptions
		expectedArguments []string
	}{
		{
			name:    "standard_layout",
			options: svnbridge.ImportOptions{RepositoryURL: repositoryURL},
			expectedArguments: []string{
				"svn", "init", "--prefix=svn/", "--no-metadata",
				"--trunk=trunk", "--tags=tags", "--branches=branches", repositoryURL,
			},
		},
		{
			name: "credentials_metadata_and_custom_paths",
			options: svnbridge.ImportOptions{
				RepositoryURL:   repositoryURL,
				Username:        "alice",
				Password:        "secret",
				IncludeMetadata: true,
				NoMinimizeURL:   true,
				Layout: svnbridge.Layout{
					Trunk:    "main",
					Tags:     []string{"releases", " "},
					Branches: []string{"dev", "features"},
				},
			},
			expectedArguments: []string{
				"svn", "init", "--prefix=svn/", "--username=alice", "--password=secret", "--no-minimize-url",
				"--trunk=main", "--tags=releases", "--branches=dev", "--branches=features", repositoryURL,
			},
		},
		{
			name:    "root_is_trunk",
			options: svnbridge.ImportOptions{RepositoryURL: repositoryURL, Layout: svnbridge.Layout{RootIsTrunk: true, Tags: []string{"ignored"}}},
			expectedArguments: []string{
				"svn", "init", "--prefix=svn/", "--no-metadata", "--trunk=" + repositoryURL,
			},
		},
		{
			name:    "no_trunk_no_tags",
			options: svnbridge.ImportOptions{RepositoryURL: repositoryURL, Layout: svnbridge.Layout{NoTrunk: true, NoTags: true}},
			expectedArguments: []string{
				"svn", "init", "--prefix=svn/", "--no-metadata", "--branches=branches", repositoryURL,
			},
		},
		{
			name:    "no_branches",
			options: svnbridge.ImportOptions{RepositoryURL: repositoryURL, Layout: svnbridge.Layout{NoBranches: true}},
			expectedArguments: []string{
				"svn", "init", "--prefix=svn/", "--no-metadata", "--trunk=trunk", "--tags=tags", repositoryURL,
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedArguments, svnbridge.BuildInitArguments(testCase.options))
		})
	}
}

func TestBuildFetchArguments(testInstance *testing.T) {
	testCases := []struct {
		name              string
		options           svnbridge.ImportOptions
		expectedArguments []string
		expectError       bool
	}{
		{
			name:              "plain_fetch",
			options:           svnbridge.ImportOptions{},
			expectedArguments: []string{"svn", "fetch"},
		},
		{
			name:              "start_revision_defaults_end_to_head",
			options:           svnbridge.ImportOptions{Revision: "1200"},
			expectedArguments: []string{"svn", "fetch", "-r", "1200:HEAD"},
		},
		{
			name:              "explicit_revision_range",
			options:           svnbridge.ImportOptions{Revision: "1200:1300"},
			expectedArguments: []string{"svn", "fetch", "-r", "1200:1300"},
		},
		{
			name:        "invalid_revision",
			options:     svnbridge.ImportOptions{Revision: "r12"},
			expectError: true,
		},
		{
			name:    "exclusions_cover_trunk_tags_and_branches",
			options: svnbridge.ImportOptions{ExcludePaths: []string{"docs/generated", "vendor"}},
			expectedArguments: []string{
				"svn", "fetch",
				"--ignore-paths=^(?:trunk[/]|tags[/][^/]+[/]|branches[/][^/]+[/])(?:docs/generated|vendor)",
			},
		},
		{
			name:    "exclusions_with_root_is_trunk",
			options: svnbridge.ImportOptions{ExcludePaths: []string{"vendor"}, Layout: svnbridge.Layout{RootIsTrunk: true}},
			expectedArguments: []string{
				"svn", "fetch", "--ignore-paths=^(?:)(?:vendor)",
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			arguments, buildError := svnbridge.BuildFetchArguments(testCase.options)
			if testCase.expectError {
				require.Error(testInstance, buildError)
				return
			}
			require.NoError(testInstance, buildError)
			require.Equal(testInstance, testCase.expectedArguments, arguments)
		})
	}
}

func TestDeriveTargetDirectory(testInstance *testing.T) {
	testCases := []struct {
		repositoryURL     string
		expectedDirectory string
	}{
		{repositoryURL: "https://svn.example.com/project", expectedDirectory: "project"},
		{repositoryURL: "https://svn.example.com/repos/project.svn/", expectedDirectory: "project"},
		{repositoryURL: "svn://svn.example.com/Project.SVN", expectedDirectory: "Project"},
		{repositoryURL: "", expectedDirectory: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.repositoryURL, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedDirectory, svnbridge.DeriveTargetDirectory(testCase.repositoryURL))
		})
	}
}
