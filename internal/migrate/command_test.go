package migrate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/svn2git/internal/gitrepo"
	migrate "github.com/temirov/svn2git/internal/migrate"
	"github.com/temirov/svn2git/internal/migrate/testsupport"
	"github.com/temirov/svn2git/internal/svnbridge"
)

const (
	subversionURLArgumentConstant      = "https://svn.example.com/project"
	importedRepositoryPathConstant     = "/workspace/project"
	conversionWorkingDirectoryConstant = "/workspace/conversion"
	overridesFilePathConstant          = "/config/tag-renames.yaml"
	overridesFileContentsConstant      = "\"Version 2.7.1\": v2.7.1\n"
	conversionCompletedMessageConstant = "Conversion completed"
	rebaseBlockedMessageConstant       = "Rebase blocked by safety gates"
	configuredPrimaryBranchConstant    = "develop"
	configuredMappingLogConstant       = "configured-renames.txt"
	flagMappingLogConstant             = "flag-renames.txt"
	configuredExcludedRefConstant      = "svn/tags/configured-*"
	flagExcludedRefConstant            = "svn/tags/rc-*"
	mainPrimaryBranchConstant          = "main"
	usernameArgumentConstant           = "alice"
	passwordArgumentConstant           = "secret"
	revisionArgumentConstant           = "100:200"
	targetDirectoryArgumentConstant    = "project-git"
	excludedPathArgumentConstant       = "^docs/(a|b),c"
	authorsFileArgumentConstant        = "/config/authors.txt"
	unsupportedBackendArgumentConstant = "database"
)

type commandHarness struct {
	builder  migrate.CommandBuilder
	service  *testsupport.ServiceStub
	importer *testsupport.ImporterStub
	logs     *observer.ObservedLogs
	fs       afero.Fs
}

func newCommandHarness(configuration *migrate.CommandConfiguration) *commandHarness {
	logCore, observedLogs := observer.New(zap.DebugLevel)
	logger := zap.New(logCore)

	harness := &commandHarness{
		service:  &testsupport.ServiceStub{Result: migrate.MigrationResult{Mode: migrate.ModeImport, Optimized: true}},
		importer: &testsupport.ImporterStub{RepositoryPath: importedRepositoryPathConstant},
		logs:     observedLogs,
		fs:       afero.NewMemMapFs(),
	}
	harness.builder = migrate.CommandBuilder{
		LoggerProvider:   func() *zap.Logger { return logger },
		Executor:         &testsupport.CommandExecutorStub{},
		WorkingDirectory: conversionWorkingDirectoryConstant,
		FileSystem:       harness.fs,
		ServiceProvider:  harness.service.Provider(),
		ImporterProvider: harness.importer.Provider(),
	}
	if configuration != nil {
		providedConfiguration := *configuration
		harness.builder.ConfigurationProvider = func() migrate.CommandConfiguration { return providedConfiguration }
	}
	return harness
}

func (harness *commandHarness) runImport(testInstance *testing.T, arguments ...string) error {
	testInstance.Helper()
	command, buildError := harness.builder.BuildImport()
	require.NoError(testInstance, buildError)
	command.SetContext(context.Background())
	command.SetArgs(append([]string{}, arguments...))
	return command.Execute()
}

func (harness *commandHarness) runRebase(testInstance *testing.T, arguments ...string) error {
	testInstance.Helper()
	command, buildError := harness.builder.BuildRebase()
	require.NoError(testInstance, buildError)
	command.SetContext(context.Background())
	command.SetArgs(append([]string{}, arguments...))
	return command.Execute()
}

func TestImportCommandPassesFlagsToImporterAndService(testInstance *testing.T) {
	harness := newCommandHarness(nil)

	executionError := harness.runImport(
		testInstance,
		subversionURLArgumentConstant,
		"--username", usernameArgumentConstant,
		"--password", passwordArgumentConstant,
		"--trunk", "main-line",
		"--branches", "branches,feature-branches",
		"--tags", "tags",
		"--nobranches",
		"--no-minimize-url",
		"--revision", revisionArgumentConstant,
		"-m",
		"--authors", authorsFileArgumentConstant,
		"--exclude", excludedPathArgumentConstant,
		"--target-dir", targetDirectoryArgumentConstant,
		"--exclude-ref", flagExcludedRefConstant,
		"--primary-branch", mainPrimaryBranchConstant,
		"--skip-gc",
	)
	require.NoError(testInstance, executionError)

	require.Len(testInstance, harness.importer.ImportedOptions, 1)
	importOptions := harness.importer.ImportedOptions[0]
	require.Equal(testInstance, svnbridge.ImportOptions{
		RepositoryURL:   subversionURLArgumentConstant,
		TargetDirectory: targetDirectoryArgumentConstant,
		Username:        usernameArgumentConstant,
		Password:        passwordArgumentConstant,
		Layout: svnbridge.Layout{
			Trunk:      "main-line",
			Branches:   []string{"branches", "feature-branches"},
			Tags:       []string{"tags"},
			NoBranches: true,
		},
		IncludeMetadata: true,
		NoMinimizeURL:   true,
		AuthorsFile:     authorsFileArgumentConstant,
		Revision:        revisionArgumentConstant,
		ExcludePaths:    []string{excludedPathArgumentConstant},
	}, importOptions)
	require.NotNil(testInstance, harness.importer.ReceivedDependency.GitExecutor)
	require.NotNil(testInstance, harness.importer.ReceivedDependency.ConfigurationWriter)

	require.Len(testInstance, harness.service.ExecutedOptions, 1)
	require.Equal(testInstance, migrate.MigrationOptions{
		RepositoryPath: importedRepositoryPathConstant,
		Mode:           migrate.ModeImport,
		PrimaryBranch:  mainPrimaryBranchConstant,
		MappingLogName: "tag-rename-map.txt",
		ExcludeRefs:    []string{flagExcludedRefConstant},
		Optimize:       false,
	}, harness.service.ExecutedOptions[0])

	require.Len(testInstance, harness.service.ReceivedDependencies, 1)
	dependencies := harness.service.ReceivedDependencies[0]
	require.IsType(testInstance, &gitrepo.RepositoryManager{}, dependencies.ReferenceReader)
	require.Same(testInstance, harness.importer, dependencies.SubversionFetcher)
	require.Same(testInstance, harness.fs, dependencies.FileSystem)

	completedEntries := harness.logs.FilterMessage(conversionCompletedMessageConstant).All()
	require.Len(testInstance, completedEntries, 1)
	require.Equal(testInstance, importedRepositoryPathConstant, completedEntries[0].ContextMap()["repository"])
	require.Equal(testInstance, true, completedEntries[0].ContextMap()["optimized"])
}

func TestImportCommandRequiresRepositoryURL(testInstance *testing.T) {
	harness := newCommandHarness(nil)

	executionError := harness.runImport(testInstance)
	require.Error(testInstance, executionError)
	require.Empty(testInstance, harness.importer.ImportedOptions)
	require.Empty(testInstance, harness.service.ExecutedOptions)
}

func TestImportCommandStopsWhenImportFails(testInstance *testing.T) {
	harness := newCommandHarness(nil)
	harness.importer.ImportError = errInjectedFailure

	executionError := harness.runImport(testInstance, subversionURLArgumentConstant)
	require.ErrorIs(testInstance, executionError, errInjectedFailure)
	require.Contains(testInstance, executionError.Error(), "import failed")
	require.Empty(testInstance, harness.service.ExecutedOptions)
}

func TestCommandConfigurationPrecedence(testInstance *testing.T) {
	configuration := migrate.DefaultCommandConfiguration()
	configuration.PrimaryBranch = configuredPrimaryBranchConstant
	configuration.MappingLog = configuredMappingLogConstant
	configuration.ExcludeRefs = []string{configuredExcludedRefConstant}
	configuration.Optimize = true
	configuration.Username = usernameArgumentConstant
	configuration.Layout.Tags = []string{"releases"}

	testCases := []struct {
		name                   string
		arguments              []string
		expectedPrimaryBranch  string
		expectedMappingLog     string
		expectedExcludedRefs   []string
		expectedOptimize       bool
		expectedLayoutTags     []string
		expectedImportUsername string
	}{
		{
			name:                   "configuration_applies_without_flags",
			arguments:              []string{subversionURLArgumentConstant},
			expectedPrimaryBranch:  configuredPrimaryBranchConstant,
			expectedMappingLog:     configuredMappingLogConstant,
			expectedExcludedRefs:   []string{configuredExcludedRefConstant},
			expectedOptimize:       true,
			expectedLayoutTags:     []string{"releases"},
			expectedImportUsername: usernameArgumentConstant,
		},
		{
			name: "flags_override_configuration",
			arguments: []string{
				subversionURLArgumentConstant,
				"--mapping-log", flagMappingLogConstant,
				"--exclude-ref", flagExcludedRefConstant,
				"--tags", "tags",
				"--username", "bob",
				"--skip-gc",
			},
			expectedPrimaryBranch:  configuredPrimaryBranchConstant,
			expectedMappingLog:     flagMappingLogConstant,
			expectedExcludedRefs:   []string{flagExcludedRefConstant},
			expectedOptimize:       false,
			expectedLayoutTags:     []string{"tags"},
			expectedImportUsername: "bob",
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			harness := newCommandHarness(&configuration)

			executionError := harness.runImport(subtest, testCase.arguments...)
			require.NoError(subtest, executionError)

			require.Len(subtest, harness.service.ExecutedOptions, 1)
			options := harness.service.ExecutedOptions[0]
			require.Equal(subtest, testCase.expectedPrimaryBranch, options.PrimaryBranch)
			require.Equal(subtest, testCase.expectedMappingLog, options.MappingLogName)
			require.Equal(subtest, testCase.expectedExcludedRefs, options.ExcludeRefs)
			require.Equal(subtest, testCase.expectedOptimize, options.Optimize)

			require.Len(subtest, harness.importer.ImportedOptions, 1)
			require.Equal(subtest, testCase.expectedLayoutTags, harness.importer.ImportedOptions[0].Layout.Tags)
			require.Equal(subtest, testCase.expectedImportUsername, harness.importer.ImportedOptions[0].Username)
		})
	}
}

func TestRebaseCommandSelectsMode(testInstance *testing.T) {
	testCases := []struct {
		name               string
		arguments          []string
		expectedMode       migrate.Mode
		expectedBranchName string
	}{
		{
			name:         "full_rebase",
			arguments:    []string{},
			expectedMode: migrate.ModeRebase,
		},
		{
			name:               "single_branch",
			arguments:          []string{"--branch", featureBranchNameConstant},
			expectedMode:       migrate.ModeRebaseBranch,
			expectedBranchName: featureBranchNameConstant,
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			harness := newCommandHarness(nil)

			executionError := harness.runRebase(subtest, testCase.arguments...)
			require.NoError(subtest, executionError)

			require.Len(subtest, harness.service.ExecutedOptions, 1)
			options := harness.service.ExecutedOptions[0]
			require.Equal(subtest, conversionWorkingDirectoryConstant, options.RepositoryPath)
			require.Equal(subtest, testCase.expectedMode, options.Mode)
			require.Equal(subtest, testCase.expectedBranchName, options.BranchName)
			require.True(subtest, options.Optimize)
			require.Empty(subtest, harness.importer.ImportedOptions)
		})
	}
}

func TestRebaseCommandLogsBlockingReasons(testInstance *testing.T) {
	harness := newCommandHarness(nil)
	harness.service.Result = migrate.MigrationResult{
		Mode:         migrate.ModeRebase,
		SafetyStatus: migrate.SafetyStatus{BlockingReasons: []string{dirtyWorktreeReasonConstant}},
	}
	harness.service.Error = migrate.ErrRebasePreconditions

	executionError := harness.runRebase(testInstance)
	require.ErrorIs(testInstance, executionError, migrate.ErrRebasePreconditions)
	require.Contains(testInstance, executionError.Error(), "rebase failed")

	warningEntries := harness.logs.FilterMessage(rebaseBlockedMessageConstant).FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(testInstance, warningEntries, 1)
	require.Equal(testInstance, conversionWorkingDirectoryConstant, warningEntries[0].ContextMap()["repository"])
	require.Empty(testInstance, harness.logs.FilterMessage(conversionCompletedMessageConstant).All())
}

func TestRebaseCommandWithoutBlockingReasonsSkipsWarning(testInstance *testing.T) {
	harness := newCommandHarness(nil)
	harness.service.Error = errors.New("branch phase failed")

	executionError := harness.runRebase(testInstance)
	require.Error(testInstance, executionError)
	require.Empty(testInstance, harness.logs.FilterMessage(rebaseBlockedMessageConstant).All())
}

func TestCommandReferenceBackendSelection(testInstance *testing.T) {
	testCases := []struct {
		name         string
		backend      string
		expectedType any
		expectError  bool
	}{
		{name: "cli", backend: "cli", expectedType: &gitrepo.RepositoryManager{}},
		{name: "native", backend: "native", expectedType: &gitrepo.NativeReferenceReader{}},
		{name: "unsupported", backend: unsupportedBackendArgumentConstant, expectError: true},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			harness := newCommandHarness(nil)

			executionError := harness.runRebase(subtest, "--reference-backend", testCase.backend)
			if testCase.expectError {
				require.Error(subtest, executionError)
				var inputError migrate.InvalidInputError
				require.True(subtest, errors.As(executionError, &inputError))
				require.Equal(subtest, "reference_backend", inputError.FieldName)
				require.Empty(subtest, harness.service.ExecutedOptions)
				return
			}

			require.NoError(subtest, executionError)
			require.Len(subtest, harness.service.ReceivedDependencies, 1)
			require.IsType(subtest, testCase.expectedType, harness.service.ReceivedDependencies[0].ReferenceReader)
		})
	}
}

func TestCommandLoadsTagRenameOverrides(testInstance *testing.T) {
	harness := newCommandHarness(nil)
	require.NoError(testInstance, afero.WriteFile(harness.fs, overridesFilePathConstant, []byte(overridesFileContentsConstant), 0o600))

	executionError := harness.runRebase(testInstance, "--tag-renames", overridesFilePathConstant)
	require.NoError(testInstance, executionError)

	require.Len(testInstance, harness.service.ReceivedDependencies, 1)
	sanitizer := harness.service.ReceivedDependencies[0].Sanitizer
	require.NotNil(testInstance, sanitizer)
	require.Equal(testInstance, "v2.7.1", sanitizer.Sanitize("Version 2.7.1", nil))
	require.Len(testInstance, harness.logs.FilterMessage("Loaded tag rename overrides").All(), 1)
}

func TestCommandRejectsMissingTagRenameOverrides(testInstance *testing.T) {
	harness := newCommandHarness(nil)

	executionError := harness.runRebase(testInstance, "--tag-renames", overridesFilePathConstant)
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "unable to load tag rename overrides")
	require.Empty(testInstance, harness.service.ExecutedOptions)
}
