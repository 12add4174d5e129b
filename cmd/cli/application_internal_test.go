package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const (
	testConfigurationFileNameConstant       = "svn2git.yaml"
	testConfigurationContentsConstant       = "common:\n  log_format: console\ntools:\n  migrate:\n    primary_branch: main\n    exclude_refs:\n      - svn/tags/rc-*\n    layout:\n      branches:\n        - branches\n        - sandbox\n"
	testReferenceBackendEnvironmentConstant = "SVN2GIT_TOOLS_MIGRATE_REFERENCE_BACKEND"
	testImportCommandNameConstant           = "import"
	testRebaseCommandNameConstant           = "rebase"
)

type stdoutCapture struct {
	original *os.File
	reader   *os.File
	writer   *os.File
}

func startStdoutCapture(t *testing.T) stdoutCapture {
	t.Helper()

	reader, writer, pipeError := os.Pipe()
	require.NoError(t, pipeError)

	capture := stdoutCapture{
		original: os.Stdout,
		reader:   reader,
		writer:   writer,
	}

	os.Stdout = writer
	return capture
}

func (capture *stdoutCapture) Stop(t *testing.T) string {
	t.Helper()

	os.Stdout = capture.original
	require.NoError(t, capture.writer.Close())

	capturedBytes, readError := io.ReadAll(capture.reader)
	require.NoError(t, readError)
	require.NoError(t, capture.reader.Close())

	output := string(capturedBytes)
	capture.reader = nil
	capture.writer = nil
	return output
}

func newIsolatedApplication(t *testing.T) *Application {
	t.Helper()
	t.Setenv(xdgConfigHomeEnvironmentConstant, t.TempDir())
	return NewApplication()
}

func findSubcommand(t *testing.T, application *Application, name string) *cobra.Command {
	t.Helper()
	for _, subcommand := range application.rootCommand.Commands() {
		if subcommand.Name() == name {
			return subcommand
		}
	}
	require.Failf(t, "subcommand not registered", "missing %s", name)
	return nil
}

func TestApplicationRegistersConversionCommands(t *testing.T) {
	application := newIsolatedApplication(t)

	importCommand := findSubcommand(t, application, testImportCommandNameConstant)
	require.NotNil(t, importCommand.Flags().Lookup("trunk"))
	require.NotNil(t, importCommand.Flags().Lookup("exclude-ref"))

	rebaseCommand := findSubcommand(t, application, testRebaseCommandNameConstant)
	require.NotNil(t, rebaseCommand.Flags().Lookup("branch"))
	require.Nil(t, rebaseCommand.Flags().Lookup("trunk"))
}

func TestApplicationVersionFlagPrintsVersionAndExits(t *testing.T) {
	application := newIsolatedApplication(t)
	application.versionResolver = func(context.Context) string {
		return "v1.4.0"
	}

	exitCode := -1
	sentinel := "version-exit"
	application.exitFunction = func(code int) {
		exitCode = code
		panic(sentinel)
	}

	capture := startStdoutCapture(t)
	defer func() {
		if capture.reader != nil {
			_ = capture.Stop(t)
		}
	}()

	application.rootCommand.SetArgs([]string{"--version"})

	require.PanicsWithValue(t, sentinel, func() {
		_ = application.Execute()
	})

	output := capture.Stop(t)
	require.Equal(t, "svn2git version: v1.4.0\n", output)
	require.Equal(t, 0, exitCode)
}

func TestInitializeConfigurationLayersDefaultsFileAndEnvironment(t *testing.T) {
	configurationDirectory := t.TempDir()
	configurationPath := filepath.Join(configurationDirectory, testConfigurationFileNameConstant)
	require.NoError(t, os.WriteFile(configurationPath, []byte(testConfigurationContentsConstant), 0o600))
	t.Setenv(testReferenceBackendEnvironmentConstant, "native")

	application := newIsolatedApplication(t)
	application.configurationFilePath = configurationPath
	rootCommand := application.rootCommand

	require.NoError(t, application.initializeConfiguration(rootCommand))

	migrateConfiguration := application.configuration.Tools.Migrate
	require.Equal(t, "main", migrateConfiguration.PrimaryBranch)
	require.Equal(t, "tag-rename-map.txt", migrateConfiguration.MappingLog)
	require.Equal(t, []string{"svn/tags/rc-*"}, migrateConfiguration.ExcludeRefs)
	require.Equal(t, []string{"branches", "sandbox"}, migrateConfiguration.Layout.Branches)
	require.Equal(t, "trunk", migrateConfiguration.Layout.Trunk)
	require.Equal(t, "native", migrateConfiguration.ReferenceBackend)
	require.True(t, migrateConfiguration.Optimize)

	require.Equal(t, "info", application.configuration.Common.LogLevel)
	require.True(t, application.humanReadableLoggingEnabled())

	configurationFile, available := application.commandContextAccessor.ConfigurationFilePath(rootCommand.Context())
	require.True(t, available)
	require.Equal(t, configurationPath, configurationFile)
}

func TestInitializeConfigurationLogLevelOverrides(t *testing.T) {
	testCases := []struct {
		name             string
		flagName         string
		flagValue        string
		expectedLogLevel string
	}{
		{name: "default", expectedLogLevel: "info"},
		{name: "log_level_flag", flagName: logLevelFlagNameConstant, flagValue: "warn", expectedLogLevel: "warn"},
		{name: "verbose_flag", flagName: verboseFlagNameConstant, flagValue: "true", expectedLogLevel: "debug"},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		t.Run(testCase.name, func(subtest *testing.T) {
			application := newIsolatedApplication(subtest)
			importCommand := findSubcommand(subtest, application, testImportCommandNameConstant)
			if len(testCase.flagName) > 0 {
				if testCase.flagName == logLevelFlagNameConstant {
					require.NoError(subtest, application.rootCommand.PersistentFlags().Set(testCase.flagName, testCase.flagValue))
				} else {
					require.NoError(subtest, importCommand.Flags().Set(testCase.flagName, testCase.flagValue))
				}
			}

			require.NoError(subtest, application.initializeConfiguration(importCommand))
			require.Equal(subtest, testCase.expectedLogLevel, application.configuration.Common.LogLevel)

			contextLogLevel, available := application.commandContextAccessor.LogLevel(importCommand.Context())
			require.True(subtest, available)
			require.Equal(subtest, testCase.expectedLogLevel, contextLogLevel)
		})
	}
}

func TestInitializeConfigurationRejectsUnknownLogLevel(t *testing.T) {
	application := newIsolatedApplication(t)
	require.NoError(t, application.rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, "chatty"))

	initializationError := application.initializeConfiguration(application.rootCommand)
	require.Error(t, initializationError)
	require.Contains(t, initializationError.Error(), "unable to create logger")
}
