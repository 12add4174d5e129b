package testsupport

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/temirov/svn2git/internal/gitrepo"
	"github.com/temirov/svn2git/internal/refs"
)

const (
	headsPrefixConstant   = "refs/heads/"
	remotesPrefixConstant = "refs/remotes/"
	tagsPrefixConstant    = "refs/tags/"
	userNameKeyConstant   = gitrepo.UserNameConfigurationKey
	userEmailKeyConstant  = gitrepo.UserEmailConfigurationKey
)

// FakeTag is an annotated tag held by FakeRepository.
type FakeTag struct {
	Commit        string
	Message       string
	TaggerName    string
	TaggerEmail   string
	CommitterDate string
}

// FakeRepository is an in-memory git repository implementing the reference reader, repository,
// identity store and Subversion fetcher collaborators of the migrate service. Every mutation
// is recorded in Operations using git's argument order; Failures injects an error for the
// operation with the same text.
type FakeRepository struct {
	LocalBranches  map[string]string
	RemoteBranches map[string]string
	Tags           map[string]FakeTag
	Commits        map[string]gitrepo.CommitMetadata
	Configuration  map[string]string
	// PendingRemoteBranches are added to RemoteBranches by Fetch.
	PendingRemoteBranches map[string]string
	Failures              map[string]error
	WorktreeDirty         bool
	CurrentReference      string
	CurrentCommit         string
	Operations            []string
	// IdentityHistory records every committer identity set through SetCommitterIdentity.
	IdentityHistory []gitrepo.CommitterIdentity
}

// NewFakeRepository constructs an empty FakeRepository.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		LocalBranches:         map[string]string{},
		RemoteBranches:        map[string]string{},
		Tags:                  map[string]FakeTag{},
		Commits:               map[string]gitrepo.CommitMetadata{},
		Configuration:         map[string]string{},
		PendingRemoteBranches: map[string]string{},
		Failures:              map[string]error{},
	}
}

// AddCommit registers commit metadata under the commit identifier.
func (repository *FakeRepository) AddCommit(commit string, metadata gitrepo.CommitMetadata) {
	repository.Commits[commit] = metadata
}

// AddRemoteBranch registers a remote tracking branch such as svn/tags/v1.
func (repository *FakeRepository) AddRemoteBranch(name string, commit string) {
	repository.RemoteBranches[name] = commit
}

// AddLocalBranch registers a local branch.
func (repository *FakeRepository) AddLocalBranch(name string, commit string) {
	repository.LocalBranches[name] = commit
}

// ListBranches returns local and remote branch names in name order.
func (repository *FakeRepository) ListBranches(context.Context, string) (refs.BranchListing, error) {
	if failure := repository.failure("branch -l"); failure != nil {
		return refs.BranchListing{}, failure
	}
	return refs.BranchListing{Local: sortedKeys(repository.LocalBranches), Remote: sortedKeys(repository.RemoteBranches)}, nil
}

// ResolveCommit resolves full ref names, or short names as remote then local branches.
func (repository *FakeRepository) ResolveCommit(_ context.Context, _ string, reference string) (string, bool, error) {
	if failure := repository.failure("rev-parse " + reference); failure != nil {
		return "", false, failure
	}
	commit, resolved := repository.resolve(reference)
	return commit, resolved, nil
}

// ResolveTag resolves refs/tags/<tagName>.
func (repository *FakeRepository) ResolveTag(executionContext context.Context, repositoryPath string, tagName string) (string, bool, error) {
	return repository.ResolveCommit(executionContext, repositoryPath, tagsPrefixConstant+tagName)
}

// ReadCommitMetadata returns the metadata registered for the commit reference resolves to.
func (repository *FakeRepository) ReadCommitMetadata(_ context.Context, _ string, reference string) (gitrepo.CommitMetadata, error) {
	if failure := repository.failure("log " + reference); failure != nil {
		return gitrepo.CommitMetadata{}, failure
	}
	commit, resolved := repository.resolve(reference)
	if !resolved {
		return gitrepo.CommitMetadata{}, fmt.Errorf("unknown revision %s", reference)
	}
	return repository.Commits[commit], nil
}

// CreateAnnotatedTag creates a tag whose tagger is the configured committer identity.
func (repository *FakeRepository) CreateAnnotatedTag(_ context.Context, _ string, tagName string, message string, target string, committerDate string) error {
	if failure := repository.record(fmt.Sprintf("tag -a -m %s %s %s", message, tagName, target)); failure != nil {
		return failure
	}
	if _, exists := repository.Tags[tagName]; exists {
		return fmt.Errorf("tag '%s' already exists", tagName)
	}
	commit, resolved := repository.resolve(target)
	if !resolved {
		return fmt.Errorf("failed to resolve '%s' as a valid ref", target)
	}
	repository.Tags[tagName] = FakeTag{
		Commit:        commit,
		Message:       message,
		TaggerName:    repository.Configuration[userNameKeyConstant],
		TaggerEmail:   repository.Configuration[userEmailKeyConstant],
		CommitterDate: committerDate,
	}
	return nil
}

// DeleteRemoteBranch removes a remote tracking branch.
func (repository *FakeRepository) DeleteRemoteBranch(_ context.Context, _ string, remoteBranchName string) error {
	if failure := repository.record("branch -d -r " + remoteBranchName); failure != nil {
		return failure
	}
	if _, exists := repository.RemoteBranches[remoteBranchName]; !exists {
		return fmt.Errorf("remote-tracking branch '%s' not found", remoteBranchName)
	}
	delete(repository.RemoteBranches, remoteBranchName)
	return nil
}

// CreateBranch creates a local branch at startPoint.
func (repository *FakeRepository) CreateBranch(_ context.Context, _ string, branchName string, startPoint string) error {
	if failure := repository.record(fmt.Sprintf("branch %s %s", branchName, startPoint)); failure != nil {
		return failure
	}
	if _, exists := repository.LocalBranches[branchName]; exists {
		return fmt.Errorf("%w: %s", gitrepo.ErrBranchExists, branchName)
	}
	commit, resolved := repository.resolve(startPoint)
	if !resolved {
		return fmt.Errorf("not a valid object name: '%s'", startPoint)
	}
	repository.LocalBranches[branchName] = commit
	return nil
}

// ForceBranch moves a local branch to startPoint.
func (repository *FakeRepository) ForceBranch(_ context.Context, _ string, branchName string, startPoint string) error {
	if failure := repository.record(fmt.Sprintf("branch -f %s %s", branchName, startPoint)); failure != nil {
		return failure
	}
	commit, resolved := repository.resolve(startPoint)
	if !resolved {
		return fmt.Errorf("not a valid object name: '%s'", startPoint)
	}
	repository.LocalBranches[branchName] = commit
	return nil
}

// DeleteBranch removes a local branch.
func (repository *FakeRepository) DeleteBranch(_ context.Context, _ string, branchName string) error {
	if failure := repository.record("branch -D " + branchName); failure != nil {
		return failure
	}
	if _, exists := repository.LocalBranches[branchName]; !exists {
		return fmt.Errorf("branch '%s' not found", branchName)
	}
	delete(repository.LocalBranches, branchName)
	return nil
}

// Checkout moves HEAD to reference.
func (repository *FakeRepository) Checkout(_ context.Context, _ string, reference string) error {
	if failure := repository.record("checkout " + reference); failure != nil {
		return failure
	}
	return repository.moveHead(reference)
}

// ForceCheckout moves HEAD to reference discarding local changes.
func (repository *FakeRepository) ForceCheckout(_ context.Context, _ string, reference string) error {
	if failure := repository.record("checkout -f " + reference); failure != nil {
		return failure
	}
	repository.WorktreeDirty = false
	return repository.moveHead(reference)
}

// ForceCheckoutNewBranch creates branchName at HEAD and checks it out.
func (repository *FakeRepository) ForceCheckoutNewBranch(_ context.Context, _ string, branchName string) error {
	if failure := repository.record("checkout -f -b " + branchName); failure != nil {
		return failure
	}
	if _, exists := repository.LocalBranches[branchName]; exists {
		return fmt.Errorf("a branch named '%s' already exists", branchName)
	}
	repository.LocalBranches[branchName] = repository.CurrentCommit
	repository.CurrentReference = branchName
	return nil
}

// CheckCleanWorktree reports the inverse of WorktreeDirty.
func (repository *FakeRepository) CheckCleanWorktree(context.Context, string) (bool, error) {
	if failure := repository.record("status --porcelain --untracked-files=no"); failure != nil {
		return false, failure
	}
	return !repository.WorktreeDirty, nil
}

// CollectGarbage records a gc run.
func (repository *FakeRepository) CollectGarbage(context.Context, string) error {
	return repository.record("gc")
}

// ReadConfigurationValue returns a configuration value.
func (repository *FakeRepository) ReadConfigurationValue(_ context.Context, _ string, key string) (string, bool, error) {
	if failure := repository.failure("config --get " + key); failure != nil {
		return "", false, failure
	}
	value, present := repository.Configuration[key]
	return value, present, nil
}

// ReadCommitterIdentity captures user.name and user.email.
func (repository *FakeRepository) ReadCommitterIdentity(executionContext context.Context, repositoryPath string) (gitrepo.CommitterIdentity, error) {
	name, namePresent, nameError := repository.ReadConfigurationValue(executionContext, repositoryPath, userNameKeyConstant)
	if nameError != nil {
		return gitrepo.CommitterIdentity{}, nameError
	}
	email, emailPresent, emailError := repository.ReadConfigurationValue(executionContext, repositoryPath, userEmailKeyConstant)
	if emailError != nil {
		return gitrepo.CommitterIdentity{}, emailError
	}
	return gitrepo.CommitterIdentity{Name: name, Email: email, NamePresent: namePresent, EmailPresent: emailPresent}, nil
}

// SetCommitterIdentity sets user.name and user.email.
func (repository *FakeRepository) SetCommitterIdentity(_ context.Context, _ string, name string, email string) error {
	if failure := repository.record(fmt.Sprintf("config %s %s", userNameKeyConstant, name)); failure != nil {
		return failure
	}
	repository.Configuration[userNameKeyConstant] = name
	if failure := repository.record(fmt.Sprintf("config %s %s", userEmailKeyConstant, email)); failure != nil {
		return failure
	}
	repository.Configuration[userEmailKeyConstant] = email
	repository.IdentityHistory = append(repository.IdentityHistory, gitrepo.CommitterIdentity{Name: name, Email: email, NamePresent: true, EmailPresent: true})
	return nil
}

// RestoreCommitterIdentity sets present keys and unsets absent ones, attempting both.
func (repository *FakeRepository) RestoreCommitterIdentity(_ context.Context, _ string, identity gitrepo.CommitterIdentity) error {
	nameError := repository.restoreValue(userNameKeyConstant, identity.Name, identity.NamePresent)
	emailError := repository.restoreValue(userEmailKeyConstant, identity.Email, identity.EmailPresent)
	return errors.Join(nameError, emailError)
}

// Fetch moves PendingRemoteBranches into RemoteBranches.
func (repository *FakeRepository) Fetch(context.Context, string) error {
	if failure := repository.record("svn fetch"); failure != nil {
		return failure
	}
	for name, commit := range repository.PendingRemoteBranches {
		repository.RemoteBranches[name] = commit
	}
	repository.PendingRemoteBranches = map[string]string{}
	return nil
}

// TagNames returns the tag names in name order.
func (repository *FakeRepository) TagNames() []string {
	tagNames := make([]string, 0, len(repository.Tags))
	for tagName := range repository.Tags {
		tagNames = append(tagNames, tagName)
	}
	sort.Strings(tagNames)
	return tagNames
}

// OperationsWithPrefix returns the recorded operations starting with prefix.
func (repository *FakeRepository) OperationsWithPrefix(prefix string) []string {
	matchingOperations := make([]string, 0)
	for _, operation := range repository.Operations {
		if strings.HasPrefix(operation, prefix) {
			matchingOperations = append(matchingOperations, operation)
		}
	}
	return matchingOperations
}

func (repository *FakeRepository) restoreValue(key string, value string, present bool) error {
	if present {
		if failure := repository.record(fmt.Sprintf("config %s %s", key, value)); failure != nil {
			return failure
		}
		repository.Configuration[key] = value
		return nil
	}
	if failure := repository.record("config --unset " + key); failure != nil {
		return failure
	}
	delete(repository.Configuration, key)
	return nil
}

func (repository *FakeRepository) moveHead(reference string) error {
	commit, resolved := repository.resolve(reference)
	if !resolved {
		return fmt.Errorf("pathspec '%s' did not match any file(s) known to git", reference)
	}
	repository.CurrentReference = reference
	repository.CurrentCommit = commit
	return nil
}

func (repository *FakeRepository) resolve(reference string) (string, bool) {
	switch {
	case strings.HasPrefix(reference, headsPrefixConstant):
		commit, exists := repository.LocalBranches[strings.TrimPrefix(reference, headsPrefixConstant)]
		return commit, exists
	case strings.HasPrefix(reference, remotesPrefixConstant):
		commit, exists := repository.RemoteBranches[strings.TrimPrefix(reference, remotesPrefixConstant)]
		return commit, exists
	case strings.HasPrefix(reference, tagsPrefixConstant):
		tag, exists := repository.Tags[strings.TrimPrefix(reference, tagsPrefixConstant)]
		return tag.Commit, exists
	}
	if commit, exists := repository.LocalBranches[reference]; exists {
		return commit, true
	}
	if commit, exists := repository.RemoteBranches[reference]; exists {
		return commit, true
	}
	if _, exists := repository.Commits[reference]; exists {
		return reference, true
	}
	return "", false
}

func (repository *FakeRepository) record(operation string) error {
	repository.Operations = append(repository.Operations, operation)
	return repository.failure(operation)
}

func (repository *FakeRepository) failure(operation string) error {
	if repository.Failures == nil {
		return nil
	}
	return repository.Failures[operation]
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
