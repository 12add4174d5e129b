package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/svn2git/internal/gitrepo"
	"github.com/temirov/svn2git/internal/refname"
	"github.com/temirov/svn2git/internal/refs"
)

const (
	repositoryPathFieldNameConstant            = "repository_path"
	modeFieldNameConstant                      = "mode"
	branchNameFieldNameConstant                = "branch_name"
	excludeRefsFieldNameConstant               = "exclude_refs"
	requiredValueMessageConstant               = "value required"
	unsupportedModeTemplateConstant            = "unsupported mode %q"
	branchRequiresModeMessageConstant          = "only valid in rebase-branch mode"
	invalidInputErrorTemplateConstant          = "%s: %s"
	referenceReaderMissingMessageConstant      = "reference reader not configured"
	repositoryMissingMessageConstant           = "git repository not configured"
	identityStoreMissingMessageConstant        = "identity store not configured"
	subversionFetcherMissingMessageConstant    = "subversion fetcher not configured"
	rebasePreconditionsMessageConstant         = "repository is not ready for rebase"
	rebasePreconditionsTemplateConstant        = "%w: %s"
	blockingReasonSeparatorConstant            = "; "
	worktreeInspectionErrorTemplateConstant    = "unable to inspect worktree: %w"
	subversionRemoteInspectionTemplateConstant = "unable to inspect git svn remote: %w"
	subversionFetchErrorTemplateConstant       = "unable to fetch subversion history: %w"
	listBranchesErrorTemplateConstant          = "unable to list branches: %w"
	tagPhaseErrorTemplateConstant              = "tag phase failed: %w"
	branchPhaseErrorTemplateConstant           = "branch phase failed: %w"
	trunkPhaseErrorTemplateConstant            = "trunk phase failed: %w"
	optimizeErrorTemplateConstant              = "repository optimization failed: %w"
	classificationMessageConstant              = "Classified references"
	logFieldTrunkPresentConstant               = "trunk_present"
	logFieldTagCountConstant                   = "tags"
	logFieldBranchCountConstant                = "branches"
	logFieldLocalBranchCountConstant           = "local_branches"
	logFieldModeConstant                       = "mode"
	logFieldRepositoryPathConstant             = "repository"
	rebaseFetchMessageConstant                 = "Fetching subversion history"
	optimizationStartedMessageConstant         = "Optimizing repository"
)

// Mode selects how the migration treats existing state.
type Mode string

// Supported migration modes.
const (
	// ModeImport reconciles refs right after git svn fetched a fresh conversion.
	ModeImport Mode = "import"
	// ModeRebase fetches new revisions into an existing conversion and reconciles every ref.
	ModeRebase Mode = "rebase"
	// ModeRebaseBranch reconciles a single named branch of an existing conversion.
	ModeRebaseBranch Mode = "rebase-branch"
)

var (
	// ErrRebasePreconditions indicates that the repository failed a rebase safety gate.
	ErrRebasePreconditions = errors.New(rebasePreconditionsMessageConstant)

	errReferenceReaderMissing   = errors.New(referenceReaderMissingMessageConstant)
	errRepositoryMissing        = errors.New(repositoryMissingMessageConstant)
	errIdentityStoreMissing     = errors.New(identityStoreMissingMessageConstant)
	errSubversionFetcherMissing = errors.New(subversionFetcherMissingMessageConstant)
)

// ReferenceReader lists refs and reads commit metadata.
type ReferenceReader interface {
	ListBranches(executionContext context.Context, repositoryPath string) (refs.BranchListing, error)
	ResolveCommit(executionContext context.Context, repositoryPath string, reference string) (string, bool, error)
	ResolveTag(executionContext context.Context, repositoryPath string, tagName string) (string, bool, error)
	ReadCommitMetadata(executionContext context.Context, repositoryPath string, reference string) (gitrepo.CommitMetadata, error)
}

// GitRepository mutates refs and the worktree.
type GitRepository interface {
	CreateAnnotatedTag(executionContext context.Context, repositoryPath string, tagName string, message string, target string, committerDate string) error
	DeleteRemoteBranch(executionContext context.Context, repositoryPath string, remoteBranchName string) error
	CreateBranch(executionContext context.Context, repositoryPath string, branchName string, startPoint string) error
	ForceBranch(executionContext context.Context, repositoryPath string, branchName string, startPoint string) error
	DeleteBranch(executionContext context.Context, repositoryPath string, branchName string) error
	Checkout(executionContext context.Context, repositoryPath string, reference string) error
	ForceCheckout(executionContext context.Context, repositoryPath string, reference string) error
	ForceCheckoutNewBranch(executionContext context.Context, repositoryPath string, branchName string) error
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	CollectGarbage(executionContext context.Context, repositoryPath string) error
	ReadConfigurationValue(executionContext context.Context, repositoryPath string, key string) (string, bool, error)
}

// IdentityStore captures, swaps and restores the repository committer identity.
type IdentityStore interface {
	ReadCommitterIdentity(executionContext context.Context, repositoryPath string) (gitrepo.CommitterIdentity, error)
	SetCommitterIdentity(executionContext context.Context, repositoryPath string, name string, email string) error
	RestoreCommitterIdentity(executionContext context.Context, repositoryPath string, identity gitrepo.CommitterIdentity) error
}

// SubversionFetcher retrieves new Subversion revisions into an existing conversion.
type SubversionFetcher interface {
	Fetch(executionContext context.Context, repositoryPath string) error
}

// MigrationExecutor runs a migration.
type MigrationExecutor interface {
	Execute(executionContext context.Context, options MigrationOptions) (MigrationResult, error)
}

// InvalidInputError describes migration option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// ServiceDependencies describes required collaborators for migration.
type ServiceDependencies struct {
	Logger            *zap.Logger
	ReferenceReader   ReferenceReader
	Repository        GitRepository
	IdentityStore     IdentityStore
	SubversionFetcher SubversionFetcher
	FileSystem        afero.Fs
	Sanitizer         *refname.Sanitizer
}

// MigrationOptions configures a migration run.
type MigrationOptions struct {
	RepositoryPath string
	Mode           Mode
	// BranchName is the branch reconciled in rebase-branch mode.
	BranchName     string
	PrimaryBranch  string
	MappingLogName string
	// ExcludeRefs are doublestar patterns matched against remote tracking ref names.
	ExcludeRefs []string
	Optimize    bool
}

// MigrationResult captures the observable outcomes.
type MigrationResult struct {
	Mode         Mode
	Classified   refs.ClassifiedReferences
	Tags         TagPhaseResult
	Branches     BranchPhaseResult
	Trunk        TrunkOutcome
	Optimized    bool
	SafetyStatus SafetyStatus
}

// Service orchestrates ref reconciliation: classification, tags, branches, trunk.
type Service struct {
	logger             *zap.Logger
	referenceReader    ReferenceReader
	repository         GitRepository
	subversionFetcher  SubversionFetcher
	tagMaterializer    *TagMaterializer
	branchMaterializer *BranchMaterializer
	trunkFinalizer     *TrunkFinalizer
	safetyEvaluator    SafetyEvaluator
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.ReferenceReader == nil {
		return nil, errReferenceReaderMissing
	}
	if dependencies.Repository == nil {
		return nil, errRepositoryMissing
	}
	if dependencies.IdentityStore == nil {
		return nil, errIdentityStoreMissing
	}
	if dependencies.SubversionFetcher == nil {
		return nil, errSubversionFetcherMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tagMaterializer, tagMaterializerError := NewTagMaterializer(logger, dependencies.ReferenceReader, dependencies.Repository, dependencies.IdentityStore, dependencies.Sanitizer, dependencies.FileSystem)
	if tagMaterializerError != nil {
		return nil, tagMaterializerError
	}
	branchMaterializer, branchMaterializerError := NewBranchMaterializer(logger, dependencies.ReferenceReader, dependencies.Repository)
	if branchMaterializerError != nil {
		return nil, branchMaterializerError
	}
	trunkFinalizer, trunkFinalizerError := NewTrunkFinalizer(logger, dependencies.ReferenceReader, dependencies.Repository)
	if trunkFinalizerError != nil {
		return nil, trunkFinalizerError
	}

	service := &Service{
		logger:             logger,
		referenceReader:    dependencies.ReferenceReader,
		repository:         dependencies.Repository,
		subversionFetcher:  dependencies.SubversionFetcher,
		tagMaterializer:    tagMaterializer,
		branchMaterializer: branchMaterializer,
		trunkFinalizer:     trunkFinalizer,
		safetyEvaluator:    SafetyEvaluator{},
	}

	return service, nil
}

// Execute performs the migration: rebase safety gates and fetch, classification, tags,
// branches, trunk and optional garbage collection. Phases run in that order and the first
// failure aborts the run.
func (service *Service) Execute(executionContext context.Context, options MigrationOptions) (MigrationResult, error) {
	if validationError := service.validateOptions(options); validationError != nil {
		return MigrationResult{}, validationError
	}
	options = normalizeOptions(options)

	classifier, classifierError := refs.NewClassifier(options.ExcludeRefs)
	if classifierError != nil {
		return MigrationResult{}, InvalidInputError{FieldName: excludeRefsFieldNameConstant, Message: classifierError.Error()}
	}

	result := MigrationResult{Mode: options.Mode, SafetyStatus: SafetyStatus{SafeToProceed: true}}

	if options.Mode != ModeImport {
		safetyStatus, safetyError := service.evaluateRebaseSafety(executionContext, options)
		result.SafetyStatus = safetyStatus
		if safetyError != nil {
			return result, safetyError
		}
	}

	if options.Mode == ModeRebase {
		service.logger.Info(rebaseFetchMessageConstant, zap.String(logFieldRepositoryPathConstant, options.RepositoryPath))
		if fetchError := service.subversionFetcher.Fetch(executionContext, options.RepositoryPath); fetchError != nil {
			return result, fmt.Errorf(subversionFetchErrorTemplateConstant, fetchError)
		}
	}

	classified, classificationError := service.classify(executionContext, classifier, options)
	if classificationError != nil {
		return result, classificationError
	}
	result.Classified = classified

	tagResult, tagError := service.tagMaterializer.Materialize(executionContext, options.RepositoryPath, classified.Tags, options.MappingLogName)
	result.Tags = tagResult
	if tagError != nil {
		return result, fmt.Errorf(tagPhaseErrorTemplateConstant, tagError)
	}

	branchResult, branchError := service.branchMaterializer.Materialize(executionContext, options.RepositoryPath, classified)
	result.Branches = branchResult
	if branchError != nil {
		return result, fmt.Errorf(branchPhaseErrorTemplateConstant, branchError)
	}

	trunkOutcome, trunkError := service.trunkFinalizer.Finalize(executionContext, options.RepositoryPath, classified, options.Mode, options.PrimaryBranch)
	result.Trunk = trunkOutcome
	if trunkError != nil {
		return result, fmt.Errorf(trunkPhaseErrorTemplateConstant, trunkError)
	}

	if options.Optimize {
		service.logger.Info(optimizationStartedMessageConstant, zap.String(logFieldRepositoryPathConstant, options.RepositoryPath))
		if optimizeError := service.repository.CollectGarbage(executionContext, options.RepositoryPath); optimizeError != nil {
			return result, fmt.Errorf(optimizeErrorTemplateConstant, optimizeError)
		}
		result.Optimized = true
	}

	return result, nil
}

func (service *Service) validateOptions(options MigrationOptions) error {
	if len(strings.TrimSpace(options.RepositoryPath)) == 0 {
		return InvalidInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}
	switch options.Mode {
	case ModeImport, ModeRebase:
		if len(strings.TrimSpace(options.BranchName)) > 0 {
			return InvalidInputError{FieldName: branchNameFieldNameConstant, Message: branchRequiresModeMessageConstant}
		}
	case ModeRebaseBranch:
		if len(strings.TrimSpace(options.BranchName)) == 0 {
			return InvalidInputError{FieldName: branchNameFieldNameConstant, Message: requiredValueMessageConstant}
		}
	default:
		return InvalidInputError{FieldName: modeFieldNameConstant, Message: fmt.Sprintf(unsupportedModeTemplateConstant, options.Mode)}
	}
	return nil
}

func normalizeOptions(options MigrationOptions) MigrationOptions {
	normalized := options
	normalized.BranchName = strings.TrimSpace(options.BranchName)
	normalized.PrimaryBranch = valueOrDefault(options.PrimaryBranch, defaultPrimaryBranchConstant)
	normalized.MappingLogName = valueOrDefault(options.MappingLogName, defaultMappingLogNameConstant)
	normalized.ExcludeRefs = sanitizeValues(options.ExcludeRefs)
	return normalized
}

func (service *Service) evaluateRebaseSafety(executionContext context.Context, options MigrationOptions) (SafetyStatus, error) {
	worktreeClean, cleanError := service.repository.CheckCleanWorktree(executionContext, options.RepositoryPath)
	if cleanError != nil {
		return SafetyStatus{}, fmt.Errorf(worktreeInspectionErrorTemplateConstant, cleanError)
	}

	inputs := SafetyInputs{WorktreeClean: worktreeClean, SubversionRemoteRequired: options.Mode == ModeRebase}
	if inputs.SubversionRemoteRequired {
		_, configured, remoteError := service.repository.ReadConfigurationValue(executionContext, options.RepositoryPath, subversionRemoteURLConfigurationKeyConstant)
		if remoteError != nil {
			return SafetyStatus{}, fmt.Errorf(subversionRemoteInspectionTemplateConstant, remoteError)
		}
		inputs.SubversionRemoteConfigured = configured
	}

	safetyStatus := service.safetyEvaluator.Evaluate(inputs)
	if !safetyStatus.SafeToProceed {
		return safetyStatus, fmt.Errorf(rebasePreconditionsTemplateConstant, ErrRebasePreconditions, strings.Join(safetyStatus.BlockingReasons, blockingReasonSeparatorConstant))
	}
	return safetyStatus, nil
}

func (service *Service) classify(executionContext context.Context, classifier *refs.Classifier, options MigrationOptions) (refs.ClassifiedReferences, error) {
	listing, listError := service.referenceReader.ListBranches(executionContext, options.RepositoryPath)
	if listError != nil {
		return refs.ClassifiedReferences{}, fmt.Errorf(listBranchesErrorTemplateConstant, listError)
	}

	var classified refs.ClassifiedReferences
	if options.Mode == ModeRebaseBranch {
		narrowed, narrowError := classifier.ClassifySingleBranch(listing, options.BranchName)
		if narrowError != nil {
			return refs.ClassifiedReferences{}, narrowError
		}
		classified = narrowed
	} else {
		classified = classifier.Classify(listing)
	}

	service.logger.Info(
		classificationMessageConstant,
		zap.String(logFieldRepositoryPathConstant, options.RepositoryPath),
		zap.String(logFieldModeConstant, string(options.Mode)),
		zap.Bool(logFieldTrunkPresentConstant, classified.HasTrunk),
		zap.Int(logFieldTagCountConstant, len(classified.Tags)),
		zap.Int(logFieldBranchCountConstant, len(classified.Branches)),
		zap.Int(logFieldLocalBranchCountConstant, len(classified.LocalBranches)),
	)
	return classified, nil
}
