package migrate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/svn2git/internal/execshell"
	"github.com/temirov/svn2git/internal/gitrepo"
	"github.com/temirov/svn2git/internal/refname"
	"github.com/temirov/svn2git/internal/svnbridge"
	"github.com/temirov/svn2git/internal/ui"
	"github.com/temirov/svn2git/internal/utils"
)

const (
	importCommandUseConstant              = "import SVN_URL"
	importCommandShortDescriptionConstant = "Convert a Subversion repository into a git repository"
	importCommandLongDescriptionConstant  = "import runs git svn init and fetch for SVN_URL, then recreates Subversion tags as annotated git tags, creates local branches for Subversion branches and rebuilds the primary branch from trunk."
	rebaseCommandUseConstant              = "rebase"
	rebaseCommandShortDescriptionConstant = "Bring an existing conversion up to date"
	rebaseCommandLongDescriptionConstant  = "rebase fetches new Subversion revisions into the conversion in the current directory and reconciles new tags and branches. With --branch only the named branch is reconciled and no history is fetched."

	usernameFlagNameConstant         = "username"
	usernameFlagUsageConstant        = "Username for transports that need it (http(s), svn)"
	passwordFlagNameConstant         = "password"
	passwordFlagUsageConstant        = "Password for transports that need it (http(s), svn)"
	trunkFlagNameConstant            = "trunk"
	trunkFlagUsageConstant           = "Subpath to trunk from repository URL"
	branchesFlagNameConstant         = "branches"
	branchesFlagUsageConstant        = "Subpath to branches from repository URL; may be repeated"
	tagsFlagNameConstant             = "tags"
	tagsFlagUsageConstant            = "Subpath to tags from repository URL; may be repeated"
	rootIsTrunkFlagNameConstant      = "rootistrunk"
	rootIsTrunkFlagUsageConstant     = "Use this if the root level of the repository is equivalent to the trunk and there are no tags or branches"
	noTrunkFlagNameConstant          = "notrunk"
	noTrunkFlagUsageConstant         = "Do not import anything from trunk"
	noBranchesFlagNameConstant       = "nobranches"
	noBranchesFlagUsageConstant      = "Do not try to import any branches"
	noTagsFlagNameConstant           = "notags"
	noTagsFlagUsageConstant          = "Do not try to import any tags"
	noMinimizeURLFlagNameConstant    = "no-minimize-url"
	noMinimizeURLFlagUsageConstant   = "Accept URLs as-is without attempting to connect to a higher level directory"
	revisionFlagNameConstant         = "revision"
	revisionFlagUsageConstant        = "Start importing from SVN revision START_REV; optionally end at END_REV (START_REV[:END_REV])"
	metadataFlagNameConstant         = "metadata"
	metadataFlagShorthandConstant    = "m"
	metadataFlagUsageConstant        = "Include metadata in git logs (git-svn-id)"
	authorsFlagNameConstant          = "authors"
	authorsFlagUsageConstant         = "Path to file containing svn-to-git authors mapping (default: ~/.svn2git/authors)"
	excludePathFlagNameConstant      = "exclude"
	excludePathFlagUsageConstant     = "Specify a Perl regular expression to filter paths when fetching; may be repeated"
	excludeRefFlagNameConstant       = "exclude-ref"
	excludeRefFlagUsageConstant      = "Glob of remote tracking refs to leave untouched, for example svn/tags/rc-*; may be repeated"
	tagRenamesFlagNameConstant       = "tag-renames"
	tagRenamesFlagUsageConstant      = "YAML file mapping Subversion tag labels to git tag names"
	targetDirectoryFlagNameConstant  = "target-dir"
	targetDirectoryFlagUsageConstant = "Directory to create the repository in (default: last path segment of SVN_URL)"
	branchFlagNameConstant           = "branch"
	branchFlagUsageConstant          = "Reconcile only the named branch"
	skipGarbageFlagNameConstant      = "skip-gc"
	skipGarbageFlagUsageConstant     = "Skip git gc after the conversion"
	verboseFlagNameConstant          = "verbose"
	verboseFlagShorthandConstant     = "v"
	verboseFlagUsageConstant         = "Log every git command"
	backendFlagNameConstant          = "reference-backend"
	backendFlagUsageConstant         = "How refs are read: cli runs git, native reads the object database directly"
	primaryBranchFlagNameConstant    = "primary-branch"
	primaryBranchFlagUsageConstant   = "Branch rebuilt from trunk"
	mappingLogFlagNameConstant       = "mapping-log"
	mappingLogFlagUsageConstant      = "File name of the tag rename map written to the repository root"

	currentDirectoryConstant                       = "."
	importFailedTemplateConstant                   = "import failed: %w"
	rebaseFailedTemplateConstant                   = "rebase failed: %w"
	repositoryManagerCreationErrorTemplateConstant = "unable to construct repository manager: %w"
	importerCreationErrorTemplateConstant          = "unable to construct subversion importer: %w"
	overrideLoadErrorTemplateConstant              = "unable to load tag rename overrides: %w"
	repositoryPathResolutionTemplateConstant       = "unable to resolve repository path %s: %w"
	unsupportedBackendTemplateConstant             = "unsupported reference backend %q"
	referenceBackendFieldNameConstant              = "reference_backend"
	migrationCompletedMessageConstant              = "Conversion completed"
	safetyGatesBlockingMessageConstant             = "Rebase blocked by safety gates"
	logFieldCreatedTagsConstant                    = "created_tags"
	logFieldReusedTagsConstant                     = "reused_tags"
	logFieldRenamedTagsConstant                    = "renamed_tags"
	logFieldCreatedBranchesConstant                = "created_branches"
	logFieldResetBranchesConstant                  = "reset_branches"
	logFieldSkippedBranchesConstant                = "skipped_branches"
	logFieldOptimizedConstant                      = "optimized"
	logFieldBlockingReasonsConstant                = "blocking_reasons"
	logFieldReferenceBackendConstant               = "reference_backend"
	referenceBackendSelectedMessageConstant        = "Selected reference backend"
	overridesLoadedMessageConstant                 = "Loaded tag rename overrides"
	logFieldOverrideFileConstant                   = "overrides_file"
	logFieldOverrideCountConstant                  = "overrides"
)

// CommandExecutor runs git commands.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// SubversionImporter creates a git svn conversion and fetches new revisions into one.
type SubversionImporter interface {
	SubversionFetcher
	Import(executionContext context.Context, options svnbridge.ImportOptions) (string, error)
}

// ServiceProvider constructs a migration executor from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (MigrationExecutor, error)

// ImporterProvider constructs a Subversion importer from dependencies.
type ImporterProvider func(dependencies svnbridge.Dependencies) (SubversionImporter, error)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

type commandOptions struct {
	verboseLoggingEnabled bool
	configuration         CommandConfiguration
	password              string
	revision              string
	targetDirectory       string
	branchName            string
}

// CommandBuilder assembles the import and rebase Cobra commands.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	Executor                     CommandExecutor
	WorkingDirectory             string
	FileSystem                   afero.Fs
	ServiceProvider              ServiceProvider
	ImporterProvider             ImporterProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// BuildImport constructs the import command.
func (builder *CommandBuilder) BuildImport() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           importCommandUseConstant,
		Short:         importCommandShortDescriptionConstant,
		Long:          importCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(1),
		RunE:          builder.runImport,
	}

	flagSet := command.Flags()
	flagSet.String(usernameFlagNameConstant, "", usernameFlagUsageConstant)
	flagSet.String(passwordFlagNameConstant, "", passwordFlagUsageConstant)
	flagSet.String(trunkFlagNameConstant, defaultTrunkPathConstant, trunkFlagUsageConstant)
	flagSet.StringSlice(branchesFlagNameConstant, nil, branchesFlagUsageConstant)
	flagSet.StringSlice(tagsFlagNameConstant, nil, tagsFlagUsageConstant)
	flagSet.Bool(rootIsTrunkFlagNameConstant, false, rootIsTrunkFlagUsageConstant)
	flagSet.Bool(noTrunkFlagNameConstant, false, noTrunkFlagUsageConstant)
	flagSet.Bool(noBranchesFlagNameConstant, false, noBranchesFlagUsageConstant)
	flagSet.Bool(noTagsFlagNameConstant, false, noTagsFlagUsageConstant)
	flagSet.Bool(noMinimizeURLFlagNameConstant, false, noMinimizeURLFlagUsageConstant)
	flagSet.String(revisionFlagNameConstant, "", revisionFlagUsageConstant)
	flagSet.BoolP(metadataFlagNameConstant, metadataFlagShorthandConstant, false, metadataFlagUsageConstant)
	flagSet.String(authorsFlagNameConstant, "", authorsFlagUsageConstant)
	flagSet.StringArray(excludePathFlagNameConstant, nil, excludePathFlagUsageConstant)
	flagSet.String(targetDirectoryFlagNameConstant, "", targetDirectoryFlagUsageConstant)
	builder.addReconciliationFlags(command)

	return command, nil
}

// BuildRebase constructs the rebase command.
func (builder *CommandBuilder) BuildRebase() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           rebaseCommandUseConstant,
		Short:         rebaseCommandShortDescriptionConstant,
		Long:          rebaseCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runRebase,
	}

	command.Flags().String(branchFlagNameConstant, "", branchFlagUsageConstant)
	builder.addReconciliationFlags(command)

	return command, nil
}

func (builder *CommandBuilder) addReconciliationFlags(command *cobra.Command) {
	flagSet := command.Flags()
	flagSet.StringSlice(excludeRefFlagNameConstant, nil, excludeRefFlagUsageConstant)
	flagSet.String(tagRenamesFlagNameConstant, "", tagRenamesFlagUsageConstant)
	flagSet.Bool(skipGarbageFlagNameConstant, false, skipGarbageFlagUsageConstant)
	flagSet.BoolP(verboseFlagNameConstant, verboseFlagShorthandConstant, false, verboseFlagUsageConstant)
	flagSet.String(backendFlagNameConstant, referenceBackendCLIConstant, backendFlagUsageConstant)
	flagSet.String(primaryBranchFlagNameConstant, defaultPrimaryBranchConstant, primaryBranchFlagUsageConstant)
	flagSet.String(mappingLogFlagNameConstant, defaultMappingLogNameConstant, mappingLogFlagUsageConstant)
}

func (builder *CommandBuilder) runImport(command *cobra.Command, arguments []string) error {
	options := builder.parseOptions(command)
	logger := builder.resolveLogger(options.verboseLoggingEnabled)

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}
	repositoryManager, managerError := gitrepo.NewRepositoryManager(executor)
	if managerError != nil {
		return fmt.Errorf(repositoryManagerCreationErrorTemplateConstant, managerError)
	}
	importer, importerError := builder.resolveImporter(svnbridge.Dependencies{
		Logger:              logger,
		GitExecutor:         executor,
		ConfigurationWriter: repositoryManager,
		FileSystem:          builder.resolveFileSystem(),
	})
	if importerError != nil {
		return fmt.Errorf(importerCreationErrorTemplateConstant, importerError)
	}

	configuration := options.configuration
	repositoryPath, importError := importer.Import(command.Context(), svnbridge.ImportOptions{
		RepositoryURL:   strings.TrimSpace(arguments[0]),
		TargetDirectory: options.targetDirectory,
		Username:        configuration.Username,
		Password:        options.password,
		Layout:          configuration.Layout.Layout(),
		IncludeMetadata: configuration.IncludeMetadata,
		NoMinimizeURL:   configuration.NoMinimizeURL,
		AuthorsFile:     configuration.Authors,
		Revision:        options.revision,
		ExcludePaths:    configuration.ExcludePaths,
	})
	if importError != nil {
		return fmt.Errorf(importFailedTemplateConstant, importError)
	}

	result, migrationError := builder.reconcile(command.Context(), logger, repositoryManager, importer, repositoryPath, ModeImport, options)
	if migrationError != nil {
		return fmt.Errorf(importFailedTemplateConstant, migrationError)
	}
	builder.logSummary(logger, repositoryPath, result)
	return nil
}

func (builder *CommandBuilder) runRebase(command *cobra.Command, _ []string) error {
	options := builder.parseOptions(command)
	logger := builder.resolveLogger(options.verboseLoggingEnabled)

	repositoryPath, pathError := builder.resolveRepositoryPath()
	if pathError != nil {
		return pathError
	}

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}
	repositoryManager, managerError := gitrepo.NewRepositoryManager(executor)
	if managerError != nil {
		return fmt.Errorf(repositoryManagerCreationErrorTemplateConstant, managerError)
	}
	importer, importerError := builder.resolveImporter(svnbridge.Dependencies{
		Logger:              logger,
		GitExecutor:         executor,
		ConfigurationWriter: repositoryManager,
		FileSystem:          builder.resolveFileSystem(),
	})
	if importerError != nil {
		return fmt.Errorf(importerCreationErrorTemplateConstant, importerError)
	}

	mode := ModeRebase
	if len(options.branchName) > 0 {
		mode = ModeRebaseBranch
	}

	result, migrationError := builder.reconcile(command.Context(), logger, repositoryManager, importer, repositoryPath, mode, options)
	if migrationError != nil {
		if len(result.SafetyStatus.BlockingReasons) > 0 {
			logger.Warn(
				safetyGatesBlockingMessageConstant,
				zap.String(logFieldRepositoryPathConstant, repositoryPath),
				zap.Strings(logFieldBlockingReasonsConstant, result.SafetyStatus.BlockingReasons),
			)
		}
		return fmt.Errorf(rebaseFailedTemplateConstant, migrationError)
	}
	builder.logSummary(logger, repositoryPath, result)
	return nil
}

func (builder *CommandBuilder) reconcile(executionContext context.Context, logger *zap.Logger, repositoryManager *gitrepo.RepositoryManager, fetcher SubversionFetcher, repositoryPath string, mode Mode, options commandOptions) (MigrationResult, error) {
	configuration := options.configuration

	referenceReader, readerError := builder.resolveReferenceReader(logger, configuration.ReferenceBackend, repositoryManager)
	if readerError != nil {
		return MigrationResult{}, readerError
	}

	sanitizer, sanitizerError := builder.resolveSanitizer(logger, configuration.TagRenames)
	if sanitizerError != nil {
		return MigrationResult{}, sanitizerError
	}

	service, serviceError := builder.resolveService(ServiceDependencies{
		Logger:            logger,
		ReferenceReader:   referenceReader,
		Repository:        repositoryManager,
		IdentityStore:     repositoryManager,
		SubversionFetcher: fetcher,
		FileSystem:        builder.resolveFileSystem(),
		Sanitizer:         sanitizer,
	})
	if serviceError != nil {
		return MigrationResult{}, serviceError
	}

	return service.Execute(executionContext, MigrationOptions{
		RepositoryPath: repositoryPath,
		Mode:           mode,
		BranchName:     options.branchName,
		PrimaryBranch:  configuration.PrimaryBranch,
		MappingLogName: configuration.MappingLog,
		ExcludeRefs:    configuration.ExcludeRefs,
		Optimize:       configuration.Optimize,
	})
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) commandOptions {
	configuration := builder.resolveConfiguration()
	if command == nil {
		return commandOptions{configuration: configuration}
	}

	verboseEnabled := false
	contextAccessor := utils.NewCommandContextAccessor()
	if logLevel, available := contextAccessor.LogLevel(command.Context()); available {
		if strings.EqualFold(logLevel, string(utils.LogLevelDebug)) {
			verboseEnabled = true
		}
	}

	options := commandOptions{}
	flagSet := command.Flags()
	verboseEnabled = boolFlagValue(flagSet, verboseFlagNameConstant, verboseEnabled)

	configuration.Username = stringFlagValue(flagSet, usernameFlagNameConstant, configuration.Username)
	configuration.Authors = stringFlagValue(flagSet, authorsFlagNameConstant, configuration.Authors)
	configuration.IncludeMetadata = boolFlagValue(flagSet, metadataFlagNameConstant, configuration.IncludeMetadata)
	configuration.NoMinimizeURL = boolFlagValue(flagSet, noMinimizeURLFlagNameConstant, configuration.NoMinimizeURL)
	configuration.ExcludePaths = stringArrayFlagValue(flagSet, excludePathFlagNameConstant, configuration.ExcludePaths)
	configuration.Layout.Trunk = stringFlagValue(flagSet, trunkFlagNameConstant, configuration.Layout.Trunk)
	configuration.Layout.Branches = stringSliceFlagValue(flagSet, branchesFlagNameConstant, configuration.Layout.Branches)
	configuration.Layout.Tags = stringSliceFlagValue(flagSet, tagsFlagNameConstant, configuration.Layout.Tags)
	configuration.Layout.RootIsTrunk = boolFlagValue(flagSet, rootIsTrunkFlagNameConstant, configuration.Layout.RootIsTrunk)
	configuration.Layout.NoTrunk = boolFlagValue(flagSet, noTrunkFlagNameConstant, configuration.Layout.NoTrunk)
	configuration.Layout.NoBranches = boolFlagValue(flagSet, noBranchesFlagNameConstant, configuration.Layout.NoBranches)
	configuration.Layout.NoTags = boolFlagValue(flagSet, noTagsFlagNameConstant, configuration.Layout.NoTags)
	configuration.ExcludeRefs = stringSliceFlagValue(flagSet, excludeRefFlagNameConstant, configuration.ExcludeRefs)
	configuration.TagRenames = stringFlagValue(flagSet, tagRenamesFlagNameConstant, configuration.TagRenames)
	configuration.ReferenceBackend = stringFlagValue(flagSet, backendFlagNameConstant, configuration.ReferenceBackend)
	configuration.PrimaryBranch = stringFlagValue(flagSet, primaryBranchFlagNameConstant, configuration.PrimaryBranch)
	configuration.MappingLog = stringFlagValue(flagSet, mappingLogFlagNameConstant, configuration.MappingLog)
	if boolFlagValue(flagSet, skipGarbageFlagNameConstant, false) {
		configuration.Optimize = false
	}

	options.verboseLoggingEnabled = verboseEnabled
	options.configuration = configuration.Sanitize()
	options.password = stringFlagValue(flagSet, passwordFlagNameConstant, "")
	options.revision = stringFlagValue(flagSet, revisionFlagNameConstant, "")
	options.targetDirectory = stringFlagValue(flagSet, targetDirectoryFlagNameConstant, "")
	options.branchName = strings.TrimSpace(stringFlagValue(flagSet, branchFlagNameConstant, ""))
	return options
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	shellExecutor, creationError := execshell.NewShellExecutor(
		logger,
		commandRunner,
		humanReadableLogging,
		execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(logger)),
	)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

func (builder *CommandBuilder) resolveImporter(dependencies svnbridge.Dependencies) (SubversionImporter, error) {
	if builder.ImporterProvider != nil {
		return builder.ImporterProvider(dependencies)
	}
	return svnbridge.NewImporter(dependencies)
}

func (builder *CommandBuilder) resolveReferenceReader(logger *zap.Logger, backend string, repositoryManager *gitrepo.RepositoryManager) (ReferenceReader, error) {
	var referenceReader ReferenceReader
	switch ReferenceBackend(backend) {
	case ReferenceBackendCLI:
		referenceReader = repositoryManager
	case ReferenceBackendNative:
		referenceReader = gitrepo.NewNativeReferenceReader()
	default:
		return nil, InvalidInputError{FieldName: referenceBackendFieldNameConstant, Message: fmt.Sprintf(unsupportedBackendTemplateConstant, backend)}
	}
	logger.Debug(referenceBackendSelectedMessageConstant, zap.String(logFieldReferenceBackendConstant, backend))
	return referenceReader, nil
}

func (builder *CommandBuilder) resolveSanitizer(logger *zap.Logger, overridesFile string) (*refname.Sanitizer, error) {
	if len(overridesFile) == 0 {
		return refname.NewDefaultSanitizer(), nil
	}

	overrideLoader, loaderError := refname.NewOverrideLoader(builder.resolveFileSystem())
	if loaderError != nil {
		return nil, fmt.Errorf(overrideLoadErrorTemplateConstant, loaderError)
	}
	operatorOverrides, loadError := overrideLoader.Load(overridesFile)
	if loadError != nil {
		return nil, fmt.Errorf(overrideLoadErrorTemplateConstant, loadError)
	}
	logger.Info(
		overridesLoadedMessageConstant,
		zap.String(logFieldOverrideFileConstant, overridesFile),
		zap.Int(logFieldOverrideCountConstant, len(operatorOverrides)),
	)
	return refname.NewSanitizer(refname.DefaultOverrideTable().Merge(operatorOverrides)), nil
}

func (builder *CommandBuilder) resolveService(dependencies ServiceDependencies) (MigrationExecutor, error) {
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}

func (builder *CommandBuilder) resolveFileSystem() afero.Fs {
	if builder.FileSystem != nil {
		return builder.FileSystem
	}
	return afero.NewOsFs()
}

func (builder *CommandBuilder) resolveRepositoryPath() (string, error) {
	workingDirectory := strings.TrimSpace(builder.WorkingDirectory)
	if len(workingDirectory) == 0 {
		workingDirectory = currentDirectoryConstant
	}
	absolutePath, absoluteError := filepath.Abs(workingDirectory)
	if absoluteError != nil {
		return "", fmt.Errorf(repositoryPathResolutionTemplateConstant, workingDirectory, absoluteError)
	}
	return absolutePath, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}

	provided := builder.ConfigurationProvider()
	return provided.Sanitize()
}

func (builder *CommandBuilder) logSummary(logger *zap.Logger, repositoryPath string, result MigrationResult) {
	renamedTags := make([]string, 0, len(result.Tags.Renames))
	for _, rename := range result.Tags.Renames {
		renamedTags = append(renamedTags, fmt.Sprintf(renameEntryTemplateConstant, rename.Source, rename.Target))
	}
	skippedBranches := make([]string, 0, len(result.Branches.SkippedBranches))
	for _, skipped := range result.Branches.SkippedBranches {
		skippedBranches = append(skippedBranches, skipped.Name)
	}

	logger.Info(
		migrationCompletedMessageConstant,
		zap.String(logFieldRepositoryPathConstant, repositoryPath),
		zap.String(logFieldModeConstant, string(result.Mode)),
		zap.Strings(logFieldCreatedTagsConstant, result.Tags.CreatedTags),
		zap.Strings(logFieldReusedTagsConstant, result.Tags.ReusedTags),
		zap.Strings(logFieldRenamedTagsConstant, renamedTags),
		zap.String(logFieldMappingLogPathConstant, result.Tags.MappingLogPath),
		zap.Strings(logFieldCreatedBranchesConstant, result.Branches.CreatedBranches),
		zap.Strings(logFieldResetBranchesConstant, result.Branches.ResetBranches),
		zap.Strings(logFieldSkippedBranchesConstant, skippedBranches),
		zap.String(logFieldPrimaryBranchConstant, result.Trunk.PrimaryBranch),
		zap.Bool(logFieldOptimizedConstant, result.Optimized),
	)
}

func stringFlagValue(flagSet *pflag.FlagSet, flagName string, configuredValue string) string {
	if flagSet.Lookup(flagName) == nil || !flagSet.Changed(flagName) {
		return configuredValue
	}
	flagValue, _ := flagSet.GetString(flagName)
	return strings.TrimSpace(flagValue)
}

func boolFlagValue(flagSet *pflag.FlagSet, flagName string, configuredValue bool) bool {
	if flagSet.Lookup(flagName) == nil || !flagSet.Changed(flagName) {
		return configuredValue
	}
	flagValue, _ := flagSet.GetBool(flagName)
	return flagValue
}

func stringSliceFlagValue(flagSet *pflag.FlagSet, flagName string, configuredValues []string) []string {
	if flagSet.Lookup(flagName) == nil || !flagSet.Changed(flagName) {
		return configuredValues
	}
	flagValues, _ := flagSet.GetStringSlice(flagName)
	return flagValues
}

// stringArrayFlagValue keeps commas inside values, which regular expressions may contain.
func stringArrayFlagValue(flagSet *pflag.FlagSet, flagName string, configuredValues []string) []string {
	if flagSet.Lookup(flagName) == nil || !flagSet.Changed(flagName) {
		return configuredValues
	}
	flagValues, _ := flagSet.GetStringArray(flagName)
	return flagValues
}
