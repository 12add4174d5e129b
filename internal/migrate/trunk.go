package migrate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/svn2git/internal/refs"
)

const (
	headsReferencePrefixConstant         = "refs/heads/"
	trunkCheckoutErrorTemplateConstant   = "unable to check out trunk %s: %w"
	primaryResolveErrorTemplateConstant  = "unable to resolve primary branch %s: %w"
	primaryDeleteErrorTemplateConstant   = "unable to delete primary branch %s: %w"
	primaryRecreateErrorTemplateConstant = "unable to recreate primary branch %s: %w"
	primaryCheckoutErrorTemplateConstant = "unable to check out primary branch %s: %w"
	primaryRebuiltMessageConstant        = "Rebuilt primary branch from trunk"
	primaryCheckedOutMessageConstant     = "Checked out primary branch"
	logFieldPrimaryBranchConstant        = "primary_branch"
	logFieldTrunkReferenceConstant       = "trunk"
	logFieldPrimaryReplacedConstant      = "replaced_existing"
)

// TrunkOutcome describes how the primary branch was finalized.
type TrunkOutcome struct {
	PrimaryBranch string
	// RebuiltFromTrunk is true when the primary branch was recreated at the trunk ref.
	RebuiltFromTrunk bool
}

// TrunkFinalizer leaves the repository on the primary branch.
type TrunkFinalizer struct {
	logger          *zap.Logger
	referenceReader ReferenceReader
	repository      GitRepository
}

// NewTrunkFinalizer constructs a TrunkFinalizer.
func NewTrunkFinalizer(logger *zap.Logger, referenceReader ReferenceReader, repository GitRepository) (*TrunkFinalizer, error) {
	if referenceReader == nil {
		return nil, fmt.Errorf(materializerDependencyTemplateConstant, errMaterializerDependencyMissing, referenceReaderDependencyConstant)
	}
	if repository == nil {
		return nil, fmt.Errorf(materializerDependencyTemplateConstant, errMaterializerDependencyMissing, repositoryDependencyConstant)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrunkFinalizer{logger: logger, referenceReader: referenceReader, repository: repository}, nil
}

// Finalize rebuilds primaryBranch from the trunk ref after a fresh import. In rebase modes,
// or when no trunk ref exists, it force-checks out the existing primary branch.
func (finalizer *TrunkFinalizer) Finalize(executionContext context.Context, repositoryPath string, classified refs.ClassifiedReferences, mode Mode, primaryBranch string) (TrunkOutcome, error) {
	if mode != ModeImport || !classified.HasTrunk {
		if checkoutError := finalizer.repository.ForceCheckout(executionContext, repositoryPath, primaryBranch); checkoutError != nil {
			return TrunkOutcome{}, fmt.Errorf(primaryCheckoutErrorTemplateConstant, primaryBranch, checkoutError)
		}
		finalizer.logger.Info(primaryCheckedOutMessageConstant, zap.String(logFieldPrimaryBranchConstant, primaryBranch))
		return TrunkOutcome{PrimaryBranch: primaryBranch}, nil
	}

	if checkoutError := finalizer.repository.Checkout(executionContext, repositoryPath, classified.Trunk.Name); checkoutError != nil {
		return TrunkOutcome{}, fmt.Errorf(trunkCheckoutErrorTemplateConstant, classified.Trunk.Name, checkoutError)
	}

	_, primaryExists, resolveError := finalizer.referenceReader.ResolveCommit(executionContext, repositoryPath, headsReferencePrefixConstant+primaryBranch)
	if resolveError != nil {
		return TrunkOutcome{}, fmt.Errorf(primaryResolveErrorTemplateConstant, primaryBranch, resolveError)
	}
	if primaryExists {
		if deleteError := finalizer.repository.DeleteBranch(executionContext, repositoryPath, primaryBranch); deleteError != nil {
			return TrunkOutcome{}, fmt.Errorf(primaryDeleteErrorTemplateConstant, primaryBranch, deleteError)
		}
	}

	if recreateError := finalizer.repository.ForceCheckoutNewBranch(executionContext, repositoryPath, primaryBranch); recreateError != nil {
		return TrunkOutcome{}, fmt.Errorf(primaryRecreateErrorTemplateConstant, primaryBranch, recreateError)
	}

	finalizer.logger.Info(
		primaryRebuiltMessageConstant,
		zap.String(logFieldPrimaryBranchConstant, primaryBranch),
		zap.String(logFieldTrunkReferenceConstant, classified.Trunk.Name),
		zap.Bool(logFieldPrimaryReplacedConstant, primaryExists),
	)
	return TrunkOutcome{PrimaryBranch: primaryBranch, RebuiltFromTrunk: true}, nil
}
