package svnbridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/svn2git/internal/execshell"
	pathutils "github.com/temirov/svn2git/internal/utils/path"
)

const (
	gitSvnSubcommandConstant                  = "svn"
	gitSvnInitActionConstant                  = "init"
	gitSvnFetchActionConstant                 = "fetch"
	trackingPrefixArgumentConstant            = "--prefix=svn/"
	usernameArgumentTemplateConstant          = "--username=%s"
	passwordArgumentTemplateConstant          = "--password=%s"
	noMetadataArgumentConstant                = "--no-metadata"
	noMinimizeURLArgumentConstant             = "--no-minimize-url"
	trunkArgumentTemplateConstant             = "--trunk=%s"
	tagsArgumentTemplateConstant              = "--tags=%s"
	branchesArgumentTemplateConstant          = "--branches=%s"
	revisionFlagConstant                      = "-r"
	revisionRangeTemplateConstant             = "%s:%s"
	revisionRangeSeparatorConstant            = ":"
	headRevisionConstant                      = "HEAD"
	ignorePathsArgumentTemplateConstant       = "--ignore-paths=%s"
	authorsFileConfigurationKeyConstant       = "svn.authorsfile"
	gitDirectoryNameConstant                  = ".git"
	subversionSuffixPatternConstant           = `(?i)\.svn$`
	urlPathSeparatorConstant                  = "/"
	targetDirectoryPermissionsConstant        = os.FileMode(0o755)
	defaultAuthorsFilePathConstant            = "~/.svn2git/authors"
	repositoryURLMissingMessageConstant       = "subversion repository URL is required"
	targetDirectoryUnresolvedMessageConstant  = "unable to derive a target directory from the repository URL"
	gitExecutorMissingMessageConstant         = "git executor not configured"
	configurationWriterMissingMessageConstant = "git configuration writer not configured"
	invalidRevisionTemplateConstant           = "invalid revision range %q"
	targetContainsRepositoryTemplateConstant  = "%w: %s"
	targetContainsRepositoryMessageConstant   = "target directory already contains a Git repository"
	resolveTargetDirectoryTemplateConstant    = "unable to resolve target directory %s: %w"
	createTargetDirectoryTemplateConstant     = "unable to create target directory %s: %w"
	initializeTrackingErrorTemplateConstant   = "git svn init failed: %w"
	configureAuthorsErrorTemplateConstant     = "unable to configure authors file: %w"
	fetchHistoryErrorTemplateConstant         = "git svn fetch failed: %w"
	logMessageTargetDirectoryPreparedConstant = "Prepared target directory"
	logMessageAuthorsFileConfiguredConstant   = "Configured authors file"
	logFieldTargetDirectoryConstant           = "target_directory"
	logFieldAuthorsFileConstant               = "authors_file"
	logFieldRepositoryURLConstant             = "repository_url"
)

var (
	// ErrRepositoryURLMissing indicates that no Subversion URL was supplied.
	ErrRepositoryURLMissing = errors.New(repositoryURLMissingMessageConstant)
	// ErrTargetDirectoryUnresolved indicates that no target directory could be derived.
	ErrTargetDirectoryUnresolved = errors.New(targetDirectoryUnresolvedMessageConstant)
	// ErrTargetContainsRepository indicates that the target directory is already a Git repository.
	ErrTargetContainsRepository = errors.New(targetContainsRepositoryMessageConstant)

	errGitExecutorMissing         = errors.New(gitExecutorMissingMessageConstant)
	errConfigurationWriterMissing = errors.New(configurationWriterMissingMessageConstant)
	subversionSuffixExpression    = regexp.MustCompile(subversionSuffixPatternConstant)
	revisionExpression            = regexp.MustCompile(`^\d+$|^(?i:HEAD)$`)
)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ConfigurationWriter writes git configuration values in a repository.
type ConfigurationWriter interface {
	SetConfigurationValue(executionContext context.Context, repositoryPath string, key string, value string) error
}

// ImportOptions configures a fresh import of a Subversion repository.
type ImportOptions struct {
	RepositoryURL   string
	TargetDirectory string
	Username        string
	Password        string
	Layout          Layout
	IncludeMetadata bool
	NoMinimizeURL   bool
	// AuthorsFile maps Subversion committers to git identities. When empty the default
	// ~/.svn2git/authors is used if it exists.
	AuthorsFile string
	// Revision is START or START:END; END defaults to HEAD.
	Revision     string
	ExcludePaths []string
}

// Dependencies describes the collaborators of an Importer.
type Dependencies struct {
	Logger              *zap.Logger
	GitExecutor         GitExecutor
	ConfigurationWriter ConfigurationWriter
	FileSystem          afero.Fs
	HomeExpander        *pathutils.HomeExpander
}

// Importer initializes git svn tracking and fetches Subversion history.
type Importer struct {
	logger              *zap.Logger
	gitExecutor         GitExecutor
	configurationWriter ConfigurationWriter
	fileSystem          afero.Fs
	homeExpander        *pathutils.HomeExpander
}

// NewImporter constructs an Importer.
func NewImporter(dependencies Dependencies) (*Importer, error) {
	if dependencies.GitExecutor == nil {
		return nil, errGitExecutorMissing
	}
	if dependencies.ConfigurationWriter == nil {
		return nil, errConfigurationWriterMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	homeExpander := dependencies.HomeExpander
	if homeExpander == nil {
		homeExpander = pathutils.NewHomeExpander()
	}

	return &Importer{
		logger:              logger,
		gitExecutor:         dependencies.GitExecutor,
		configurationWriter: dependencies.ConfigurationWriter,
		fileSystem:          fileSystem,
		homeExpander:        homeExpander,
	}, nil
}

// Import prepares the target directory, runs git svn init, configures the authors file and
// fetches history. It returns the absolute repository path.
func (importer *Importer) Import(executionContext context.Context, options ImportOptions) (string, error) {
	if len(strings.TrimSpace(options.RepositoryURL)) == 0 {
		return "", ErrRepositoryURLMissing
	}

	fetchArguments, fetchArgumentsError := BuildFetchArguments(options)
	if fetchArgumentsError != nil {
		return "", fetchArgumentsError
	}

	repositoryPath, prepareError := importer.PrepareTargetDirectory(options)
	if prepareError != nil {
		return "", prepareError
	}

	if _, initError := importer.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        BuildInitArguments(options),
		WorkingDirectory: repositoryPath,
		StreamOutput:     true,
	}); initError != nil {
		return "", fmt.Errorf(initializeTrackingErrorTemplateConstant, initError)
	}

	if authorsFile, configured := importer.resolveAuthorsFile(options.AuthorsFile); configured {
		if configurationError := importer.configurationWriter.SetConfigurationValue(executionContext, repositoryPath, authorsFileConfigurationKeyConstant, authorsFile); configurationError != nil {
			return "", fmt.Errorf(configureAuthorsErrorTemplateConstant, configurationError)
		}
		importer.logger.Info(logMessageAuthorsFileConfiguredConstant, zap.String(logFieldAuthorsFileConstant, authorsFile))
	}

	if _, fetchError := importer.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        fetchArguments,
		WorkingDirectory: repositoryPath,
		StreamOutput:     true,
	}); fetchError != nil {
		return "", fmt.Errorf(fetchHistoryErrorTemplateConstant, fetchError)
	}

	return repositoryPath, nil
}

// Fetch retrieves new Subversion revisions into an existing conversion.
func (importer *Importer) Fetch(executionContext context.Context, repositoryPath string) error {
	if _, fetchError := importer.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitSvnSubcommandConstant, gitSvnFetchActionConstant},
		WorkingDirectory: repositoryPath,
		StreamOutput:     true,
	}); fetchError != nil {
		return fmt.Errorf(fetchHistoryErrorTemplateConstant, fetchError)
	}
	return nil
}

// PrepareTargetDirectory resolves the absolute target directory, refuses existing Git
// repositories and creates the directory.
func (importer *Importer) PrepareTargetDirectory(options ImportOptions) (string, error) {
	targetDirectory := strings.TrimSpace(options.TargetDirectory)
	if len(targetDirectory) == 0 {
		targetDirectory = DeriveTargetDirectory(options.RepositoryURL)
	}
	if len(targetDirectory) == 0 {
		return "", ErrTargetDirectoryUnresolved
	}

	absoluteDirectory, absoluteError := filepath.Abs(importer.homeExpander.Expand(targetDirectory))
	if absoluteError != nil {
		return "", fmt.Errorf(resolveTargetDirectoryTemplateConstant, targetDirectory, absoluteError)
	}

	gitDirectoryExists, existsError := afero.Exists(importer.fileSystem, filepath.Join(absoluteDirectory, gitDirectoryNameConstant))
	if existsError != nil {
		return "", fmt.Errorf(resolveTargetDirectoryTemplateConstant, absoluteDirectory, existsError)
	}
	if gitDirectoryExists {
		return "", fmt.Errorf(targetContainsRepositoryTemplateConstant, ErrTargetContainsRepository, absoluteDirectory)
	}

	if createError := importer.fileSystem.MkdirAll(absoluteDirectory, targetDirectoryPermissionsConstant); createError != nil {
		return "", fmt.Errorf(createTargetDirectoryTemplateConstant, absoluteDirectory, createError)
	}

	importer.logger.Debug(
		logMessageTargetDirectoryPreparedConstant,
		zap.String(logFieldTargetDirectoryConstant, absoluteDirectory),
		zap.String(logFieldRepositoryURLConstant, options.RepositoryURL),
	)
	return absoluteDirectory, nil
}

func (importer *Importer) resolveAuthorsFile(configuredAuthorsFile string) (string, bool) {
	trimmedAuthorsFile := strings.TrimSpace(configuredAuthorsFile)
	if len(trimmedAuthorsFile) > 0 {
		return importer.homeExpander.Expand(trimmedAuthorsFile), true
	}

	defaultAuthorsFile := importer.homeExpander.Expand(defaultAuthorsFilePathConstant)
	if defaultAuthorsFile == defaultAuthorsFilePathConstant {
		return "", false
	}
	exists, existsError := afero.Exists(importer.fileSystem, defaultAuthorsFile)
	if existsError != nil || !exists {
		return "", false
	}
	return defaultAuthorsFile, true
}

// DeriveTargetDirectory returns the last URL path segment without a trailing .svn.
func DeriveTargetDirectory(repositoryURL string) string {
	trimmedURL := strings.TrimRight(strings.TrimSpace(repositoryURL), urlPathSeparatorConstant)
	if len(trimmedURL) == 0 {
		return ""
	}
	baseName := path.Base(trimmedURL)
	if baseName == "." || baseName == urlPathSeparatorConstant || strings.HasSuffix(baseName, ":") {
		return ""
	}
	return subversionSuffixExpression.ReplaceAllString(baseName, "")
}

// BuildInitArguments assembles the git svn init invocation for options.
func BuildInitArguments(options ImportOptions) []string {
	arguments := []string{gitSvnSubcommandConstant, gitSvnInitActionConstant, trackingPrefixArgumentConstant}
	if len(options.Username) > 0 {
		arguments = append(arguments, fmt.Sprintf(usernameArgumentTemplateConstant, options.Username))
	}
	if len(options.Password) > 0 {
		arguments = append(arguments, fmt.Sprintf(passwordArgumentTemplateConstant, options.Password))
	}
	if !options.IncludeMetadata {
		arguments = append(arguments, noMetadataArgumentConstant)
	}
	if options.NoMinimizeURL {
		arguments = append(arguments, noMinimizeURLArgumentConstant)
	}

	if options.Layout.RootIsTrunk {
		return append(arguments, fmt.Sprintf(trunkArgumentTemplateConstant, options.RepositoryURL))
	}

	if trunkPath, importsTrunk := options.Layout.TrunkPath(); importsTrunk {
		arguments = append(arguments, fmt.Sprintf(trunkArgumentTemplateConstant, trunkPath))
	}
	for _, tagPath := range options.Layout.TagPaths() {
		arguments = append(arguments, fmt.Sprintf(tagsArgumentTemplateConstant, tagPath))
	}
	for _, branchPath := range options.Layout.BranchPaths() {
		arguments = append(arguments, fmt.Sprintf(branchesArgumentTemplateConstant, branchPath))
	}
	return append(arguments, options.RepositoryURL)
}

// BuildFetchArguments assembles the git svn fetch invocation for options.
func BuildFetchArguments(options ImportOptions) ([]string, error) {
	arguments := []string{gitSvnSubcommandConstant, gitSvnFetchActionConstant}

	if trimmedRevision := strings.TrimSpace(options.Revision); len(trimmedRevision) > 0 {
		revisionRange, rangeError := normalizeRevisionRange(trimmedRevision)
		if rangeError != nil {
			return nil, rangeError
		}
		arguments = append(arguments, revisionFlagConstant, revisionRange)
	}

	if ignorePattern, hasExclusions := options.Layout.IgnorePathsPattern(options.ExcludePaths); hasExclusions {
		arguments = append(arguments, fmt.Sprintf(ignorePathsArgumentTemplateConstant, ignorePattern))
	}
	return arguments, nil
}

func normalizeRevisionRange(revision string) (string, error) {
	startRevision, endRevision, hasEnd := strings.Cut(revision, revisionRangeSeparatorConstant)
	if !hasEnd || len(endRevision) == 0 {
		endRevision = headRevisionConstant
	}
	if !revisionExpression.MatchString(startRevision) || !revisionExpression.MatchString(endRevision) {
		return "", fmt.Errorf(invalidRevisionTemplateConstant, revision)
	}
	return fmt.Sprintf(revisionRangeTemplateConstant, startRevision, endRevision), nil
}
