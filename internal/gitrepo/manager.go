package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/temirov/svn2git/internal/execshell"
	"github.com/temirov/svn2git/internal/refs"
)

const (
	gitBranchSubcommandConstant          = "branch"
	gitTagSubcommandConstant             = "tag"
	gitCheckoutSubcommandConstant        = "checkout"
	gitRevParseSubcommandConstant        = "rev-parse"
	gitLogSubcommandConstant             = "log"
	gitStatusSubcommandConstant          = "status"
	gitGarbageCollectSubcommandConstant  = "gc"
	gitListFlagConstant                  = "-l"
	gitRemotesFlagConstant               = "-r"
	gitDeleteFlagConstant                = "-d"
	gitForceDeleteFlagConstant           = "-D"
	gitForceFlagConstant                 = "-f"
	gitCreateBranchFlagConstant          = "-b"
	gitAnnotateFlagConstant              = "-a"
	gitMessageFlagConstant               = "-m"
	gitQuietFlagConstant                 = "-q"
	gitVerifyFlagConstant                = "--verify"
	gitSingleCommitFlagConstant          = "-1"
	gitCommitMetadataFormatConstant      = "--pretty=format:%s%x00%ci%x00%an%x00%ae"
	gitPathSeparatorArgumentConstant     = "--"
	gitPorcelainFlagConstant             = "--porcelain"
	gitUntrackedNoFlagConstant           = "--untracked-files=no"
	commitPeelSuffixConstant             = "^{commit}"
	tagReferencePrefixConstant           = "refs/tags/"
	committerDateEnvironmentConstant     = "GIT_COMMITTER_DATE"
	commitMetadataFieldSeparatorConstant = "\x00"
	commitMetadataFieldCountConstant     = 4
	branchAlreadyExistsFragmentConstant  = "already exists"
	revisionMissingExitCodeConstant      = 1

	gitExecutorMissingMessageConstant       = "git executor not configured"
	branchExistsMessageConstant             = "branch already exists"
	listBranchesErrorTemplateConstant       = "unable to list branches: %w"
	readCommitMetadataErrorTemplateConstant = "unable to read commit metadata of %s: %w"
	malformedCommitMetadataTemplateConstant = "unexpected commit metadata for %s: %q"
	resolveReferenceErrorTemplateConstant   = "unable to resolve %s: %w"
	createTagErrorTemplateConstant          = "unable to create tag %s: %w"
	deleteRemoteBranchErrorTemplateConstant = "unable to delete tracking branch %s: %w"
	createBranchErrorTemplateConstant       = "unable to create branch %s: %w"
	forceBranchErrorTemplateConstant        = "unable to reset branch %s: %w"
	deleteBranchErrorTemplateConstant       = "unable to delete branch %s: %w"
	checkoutErrorTemplateConstant           = "unable to check out %s: %w"
	worktreeStatusErrorTemplateConstant     = "unable to inspect worktree status: %w"
	garbageCollectionErrorTemplateConstant  = "unable to optimize repository: %w"
	branchExistsErrorTemplateConstant       = "%w: %s"
	newBranchCheckoutErrorTemplateConstant  = "unable to check out new branch %s: %w"
	forcedCheckoutErrorTemplateConstant     = "unable to force check out %s: %w"
)

var (
	// ErrGitExecutorNotConfigured indicates that no git executor was supplied.
	ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)
	// ErrBranchExists indicates that branch creation failed because the branch is already present.
	ErrBranchExists = errors.New(branchExistsMessageConstant)
)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommitMetadata describes the tip commit of a ref.
type CommitMetadata struct {
	Subject string
	// CommitterDate uses the `%ci` layout, for example "2010-01-02 03:04:05 +0100".
	CommitterDate string
	AuthorName    string
	AuthorEmail   string
}

// RepositoryManager performs git operations on repositories through a GitExecutor.
type RepositoryManager struct {
	executor GitExecutor

	configurationScopeMutex sync.Mutex
	configurationScopes     map[string][]string
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{
		executor:            executor,
		configurationScopes: make(map[string][]string),
	}, nil
}

// ListBranches returns the local and remote tracking branches of the repository.
func (manager *RepositoryManager) ListBranches(executionContext context.Context, repositoryPath string) (refs.BranchListing, error) {
	localResult, localError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitBranchSubcommandConstant, gitListFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if localError != nil {
		return refs.BranchListing{}, fmt.Errorf(listBranchesErrorTemplateConstant, localError)
	}

	remoteResult, remoteError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitBranchSubcommandConstant, gitRemotesFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if remoteError != nil {
		return refs.BranchListing{}, fmt.Errorf(listBranchesErrorTemplateConstant, remoteError)
	}

	return refs.BranchListing{
		Local:  refs.ParseBranchListing(localResult.StandardOutput),
		Remote: refs.ParseBranchListing(remoteResult.StandardOutput),
	}, nil
}

// ResolveCommit returns the commit a ref peels to. The boolean is false when the ref does not
// resolve; any other git failure is returned.
func (manager *RepositoryManager) ResolveCommit(executionContext context.Context, repositoryPath string, reference string) (string, bool, error) {
	result, resolveError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitQuietFlagConstant, gitVerifyFlagConstant, reference + commitPeelSuffixConstant},
		WorkingDirectory: repositoryPath,
	})
	if resolveError != nil {
		var commandFailure execshell.CommandFailedError
		if errors.As(resolveError, &commandFailure) && commandFailure.Result.ExitCode == revisionMissingExitCodeConstant {
			return "", false, nil
		}
		return "", false, fmt.Errorf(resolveReferenceErrorTemplateConstant, reference, resolveError)
	}

	commitHash := strings.TrimSpace(result.StandardOutput)
	return commitHash, len(commitHash) > 0, nil
}

// ReadCommitMetadata reads subject, committer date and author of the ref's tip commit.
func (manager *RepositoryManager) ReadCommitMetadata(executionContext context.Context, repositoryPath string, reference string) (CommitMetadata, error) {
	result, logError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitLogSubcommandConstant, gitSingleCommitFlagConstant, gitCommitMetadataFormatConstant, reference, gitPathSeparatorArgumentConstant},
		WorkingDirectory: repositoryPath,
	})
	if logError != nil {
		return CommitMetadata{}, fmt.Errorf(readCommitMetadataErrorTemplateConstant, reference, logError)
	}

	fields := strings.Split(strings.TrimRight(result.StandardOutput, "\r\n"), commitMetadataFieldSeparatorConstant)
	if len(fields) != commitMetadataFieldCountConstant {
		return CommitMetadata{}, fmt.Errorf(malformedCommitMetadataTemplateConstant, reference, result.StandardOutput)
	}

	return CommitMetadata{
		Subject:       fields[0],
		CommitterDate: strings.TrimSpace(fields[1]),
		AuthorName:    fields[2],
		AuthorEmail:   fields[3],
	}, nil
}

// CreateAnnotatedTag creates tagName at target. A non-empty committerDate is passed to git
// through GIT_COMMITTER_DATE for this command only.
func (manager *RepositoryManager) CreateAnnotatedTag(executionContext context.Context, repositoryPath string, tagName string, message string, target string, committerDate string) error {
	details := execshell.CommandDetails{
		Arguments:        []string{gitTagSubcommandConstant, gitAnnotateFlagConstant, gitMessageFlagConstant, message, tagName, target},
		WorkingDirectory: repositoryPath,
	}
	if len(committerDate) > 0 {
		details.EnvironmentVariables = map[string]string{committerDateEnvironmentConstant: committerDate}
	}

	if _, tagError := manager.executor.ExecuteGit(executionContext, details); tagError != nil {
		return fmt.Errorf(createTagErrorTemplateConstant, tagName, tagError)
	}
	return nil
}

// ResolveTag returns the commit refs/tags/<tagName> peels to.
func (manager *RepositoryManager) ResolveTag(executionContext context.Context, repositoryPath string, tagName string) (string, bool, error) {
	return manager.ResolveCommit(executionContext, repositoryPath, tagReferencePrefixConstant+tagName)
}

// DeleteRemoteBranch removes a remote tracking branch.
func (manager *RepositoryManager) DeleteRemoteBranch(executionContext context.Context, repositoryPath string, remoteBranchName string) error {
	if _, deleteError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitBranchSubcommandConstant, gitDeleteFlagConstant, gitRemotesFlagConstant, remoteBranchName},
		WorkingDirectory: repositoryPath,
	}); deleteError != nil {
		return fmt.Errorf(deleteRemoteBranchErrorTemplateConstant, remoteBranchName, deleteError)
	}
	return nil
}

// CreateBranch creates branchName at startPoint. The returned error wraps ErrBranchExists when
// git reports the branch is already present.
func (manager *RepositoryManager) CreateBranch(executionContext context.Context, repositoryPath string, branchName string, startPoint string) error {
	_, createError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitBranchSubcommandConstant, branchName, startPoint},
		WorkingDirectory: repositoryPath,
	})
	if createError == nil {
		return nil
	}

	var commandFailure execshell.CommandFailedError
	if errors.As(createError, &commandFailure) && strings.Contains(commandFailure.Result.StandardError, branchAlreadyExistsFragmentConstant) {
		return fmt.Errorf(branchExistsErrorTemplateConstant, ErrBranchExists, branchName)
	}
	return fmt.Errorf(createBranchErrorTemplateConstant, branchName, createError)
}

// ForceBranch points branchName at startPoint, creating it when missing.
func (manager *RepositoryManager) ForceBranch(executionContext context.Context, repositoryPath string, branchName string, startPoint string) error {
	if _, forceError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitBranchSubcommandConstant, gitForceFlagConstant, branchName, startPoint},
		WorkingDirectory: repositoryPath,
	}); forceError != nil {
		return fmt.Errorf(forceBranchErrorTemplateConstant, branchName, forceError)
	}
	return nil
}

// DeleteBranch force deletes a local branch.
func (manager *RepositoryManager) DeleteBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	if _, deleteError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitBranchSubcommandConstant, gitForceDeleteFlagConstant, branchName},
		WorkingDirectory: repositoryPath,
	}); deleteError != nil {
		return fmt.Errorf(deleteBranchErrorTemplateConstant, branchName, deleteError)
	}
	return nil
}

// Checkout switches the worktree to reference.
func (manager *RepositoryManager) Checkout(executionContext context.Context, repositoryPath string, reference string) error {
	if _, checkoutError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCheckoutSubcommandConstant, reference},
		WorkingDirectory: repositoryPath,
	}); checkoutError != nil {
		return fmt.Errorf(checkoutErrorTemplateConstant, reference, checkoutError)
	}
	return nil
}

// ForceCheckout switches the worktree to reference, discarding local modifications.
func (manager *RepositoryManager) ForceCheckout(executionContext context.Context, repositoryPath string, reference string) error {
	if _, checkoutError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCheckoutSubcommandConstant, gitForceFlagConstant, reference},
		WorkingDirectory: repositoryPath,
	}); checkoutError != nil {
		return fmt.Errorf(forcedCheckoutErrorTemplateConstant, reference, checkoutError)
	}
	return nil
}

// ForceCheckoutNewBranch creates branchName at the current HEAD and switches to it.
func (manager *RepositoryManager) ForceCheckoutNewBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	if _, checkoutError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCheckoutSubcommandConstant, gitForceFlagConstant, gitCreateBranchFlagConstant, branchName},
		WorkingDirectory: repositoryPath,
	}); checkoutError != nil {
		return fmt.Errorf(newBranchCheckoutErrorTemplateConstant, branchName, checkoutError)
	}
	return nil
}

// CheckCleanWorktree reports whether tracked files are free of uncommitted changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	result, statusError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitStatusSubcommandConstant, gitPorcelainFlagConstant, gitUntrackedNoFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if statusError != nil {
		return false, fmt.Errorf(worktreeStatusErrorTemplateConstant, statusError)
	}
	return len(strings.TrimSpace(result.StandardOutput)) == 0, nil
}

// CollectGarbage runs git gc.
func (manager *RepositoryManager) CollectGarbage(executionContext context.Context, repositoryPath string) error {
	if _, gcError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitGarbageCollectSubcommandConstant},
		WorkingDirectory: repositoryPath,
	}); gcError != nil {
		return fmt.Errorf(garbageCollectionErrorTemplateConstant, gcError)
	}
	return nil
}
