package migrate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/svn2git/internal/gitrepo"
	"github.com/temirov/svn2git/internal/refs"
)

const (
	branchSkipReasonTrunkConstant       = "trunk"
	branchSkipReasonLocalConstant       = "local branch exists"
	branchSkipReasonUnresolvedConstant  = "tracking ref does not resolve"
	branchResolveErrorTemplateConstant  = "unable to resolve tracking ref %s: %w"
	branchCreateErrorTemplateConstant   = "unable to materialize branch %s: %w"
	branchCheckoutErrorTemplateConstant = "unable to check out branch %s: %w"
	branchMaterializedMessageConstant   = "Materialized branch"
	branchResetMessageConstant          = "Reset existing branch to tracking ref"
	branchSkippedMessageConstant        = "Skipped branch"
	logFieldBranchNameConstant          = "branch"
	logFieldTrackingRefConstant         = "tracking_ref"
	logFieldSkipReasonConstant          = "reason"
)

// SkippedBranch names a tracking ref that was not materialized and why.
type SkippedBranch struct {
	Name   string
	Reason string
}

// BranchPhaseResult summarizes the branch phase.
type BranchPhaseResult struct {
	CreatedBranches []string
	ResetBranches   []string
	SkippedBranches []SkippedBranch
}

// BranchMaterializer creates local branches for Subversion branch refs.
type BranchMaterializer struct {
	logger          *zap.Logger
	referenceReader ReferenceReader
	repository      GitRepository
}

// NewBranchMaterializer constructs a BranchMaterializer.
func NewBranchMaterializer(logger *zap.Logger, referenceReader ReferenceReader, repository GitRepository) (*BranchMaterializer, error) {
	if referenceReader == nil {
		return nil, fmt.Errorf(materializerDependencyTemplateConstant, errMaterializerDependencyMissing, referenceReaderDependencyConstant)
	}
	if repository == nil {
		return nil, fmt.Errorf(materializerDependencyTemplateConstant, errMaterializerDependencyMissing, repositoryDependencyConstant)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchMaterializer{logger: logger, referenceReader: referenceReader, repository: repository}, nil
}

// Materialize creates a local branch at each branch ref's tip and checks it out. Trunk,
// labels that already exist locally and refs that no longer resolve are skipped. A branch
// that appears between listing and creation is force-reset to the tracking ref.
func (materializer *BranchMaterializer) Materialize(executionContext context.Context, repositoryPath string, classified refs.ClassifiedReferences) (BranchPhaseResult, error) {
	result := BranchPhaseResult{}

	for _, branch := range classified.Branches {
		if skipReason, skipped := materializer.skipReason(classified, branch); skipped {
			result.SkippedBranches = append(result.SkippedBranches, materializer.recordSkip(branch, skipReason))
			continue
		}

		_, resolved, resolveError := materializer.referenceReader.ResolveCommit(executionContext, repositoryPath, branch.FullName())
		if resolveError != nil {
			return result, fmt.Errorf(branchResolveErrorTemplateConstant, branch.Name, resolveError)
		}
		if !resolved {
			result.SkippedBranches = append(result.SkippedBranches, materializer.recordSkip(branch, branchSkipReasonUnresolvedConstant))
			continue
		}

		reset, createError := materializer.createOrReset(executionContext, repositoryPath, branch)
		if createError != nil {
			return result, createError
		}

		if checkoutError := materializer.repository.Checkout(executionContext, repositoryPath, branch.Label); checkoutError != nil {
			return result, fmt.Errorf(branchCheckoutErrorTemplateConstant, branch.Label, checkoutError)
		}

		if reset {
			result.ResetBranches = append(result.ResetBranches, branch.Label)
			continue
		}
		result.CreatedBranches = append(result.CreatedBranches, branch.Label)
	}

	return result, nil
}

func (materializer *BranchMaterializer) skipReason(classified refs.ClassifiedReferences, branch refs.TrackingReference) (string, bool) {
	if branch.Label == refs.TrunkLabel {
		return branchSkipReasonTrunkConstant, true
	}
	if classified.HasLocalBranch(branch.Label) {
		return branchSkipReasonLocalConstant, true
	}
	return "", false
}

func (materializer *BranchMaterializer) createOrReset(executionContext context.Context, repositoryPath string, branch refs.TrackingReference) (bool, error) {
	createError := materializer.repository.CreateBranch(executionContext, repositoryPath, branch.Label, branch.FullName())
	if createError == nil {
		materializer.logger.Info(
			branchMaterializedMessageConstant,
			zap.String(logFieldBranchNameConstant, branch.Label),
			zap.String(logFieldTrackingRefConstant, branch.Name),
		)
		return false, nil
	}
	if !errors.Is(createError, gitrepo.ErrBranchExists) {
		return false, fmt.Errorf(branchCreateErrorTemplateConstant, branch.Label, createError)
	}

	if resetError := materializer.repository.ForceBranch(executionContext, repositoryPath, branch.Label, branch.FullName()); resetError != nil {
		return false, fmt.Errorf(branchCreateErrorTemplateConstant, branch.Label, resetError)
	}
	materializer.logger.Info(
		branchResetMessageConstant,
		zap.String(logFieldBranchNameConstant, branch.Label),
		zap.String(logFieldTrackingRefConstant, branch.Name),
	)
	return true, nil
}

func (materializer *BranchMaterializer) recordSkip(branch refs.TrackingReference, reason string) SkippedBranch {
	materializer.logger.Debug(
		branchSkippedMessageConstant,
		zap.String(logFieldTrackingRefConstant, branch.Name),
		zap.String(logFieldSkipReasonConstant, reason),
	)
	return SkippedBranch{Name: branch.Name, Reason: reason}
}
