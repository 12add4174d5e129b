package gitrepo_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/svn2git/internal/execshell"
	"github.com/temirov/svn2git/internal/gitrepo"
)

const (
	testRepositoryPathConstant = "/tmp/converted"
	testCommitHashConstant     = "0123456789abcdef0123456789abcdef01234567"
)

type scriptedResponse struct {
	result execshell.ExecutionResult
	err    error
}

type scriptedGitExecutor struct {
	responses        map[string]scriptedResponse
	executedCommands []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.executedCommands = append(executor.executedCommands, details)
	response, exists := executor.responses[strings.Join(details.Arguments, " ")]
	if !exists {
		return execshell.ExecutionResult{}, nil
	}
	return response.result, response.err
}

func (executor *scriptedGitExecutor) executedArguments() []string {
	joinedArguments := make([]string, 0, len(executor.executedCommands))
	for _, details := range executor.executedCommands {
		joinedArguments = append(joinedArguments, strings.Join(details.Arguments, " "))
	}
	return joinedArguments
}

func commandFailure(exitCode int, standardError string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Result:  execshell.ExecutionResult{ExitCode: exitCode, StandardError: standardError},
	}
}

func newScriptedManager(testInstance *testing.T, responses map[string]scriptedResponse) (*gitrepo.RepositoryManager, *scriptedGitExecutor) {
	testInstance.Helper()
	executor := &scriptedGitExecutor{responses: responses}
	manager, managerError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, managerError)
	return manager, executor
}

func TestNewRepositoryManagerRequiresExecutor(testInstance *testing.T) {
	_, managerError := gitrepo.NewRepositoryManager(nil)
	require.ErrorIs(testInstance, managerError, gitrepo.ErrGitExecutorNotConfigured)
}

func TestRepositoryManagerListBranches(testInstance *testing.T) {
	manager, executor := newScriptedManager(testInstance, map[string]scriptedResponse{
		"branch -l": {result: execshell.ExecutionResult{StandardOutput: "* master\n  feature\n"}},
		"branch -r": {result: execshell.ExecutionResult{StandardOutput: "  svn/tags/v1\n  svn/trunk\n"}},
	})

	listing, listError := manager.ListBranches(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []string{"master", "feature"}, listing.Local)
	require.Equal(testInstance, []string{"svn/tags/v1", "svn/trunk"}, listing.Remote)
	for _, details := range executor.executedCommands {
		require.Equal(testInstance, testRepositoryPathConstant, details.WorkingDirectory)
	}
}

func TestRepositoryManagerResolveCommit(testInstance *testing.T) {
	testCases := []struct {
		name             string
		response         scriptedResponse
		expectedHash     string
		expectedResolved bool
		expectError      bool
	}{
		{
			name:             "resolves",
			response:         scriptedResponse{result: execshell.ExecutionResult{StandardOutput: testCommitHashConstant + "\n"}},
			expectedHash:     testCommitHashConstant,
			expectedResolved: true,
		},
		{
			name:     "missing_reference",
			response: scriptedResponse{err: commandFailure(1, "")},
		},
		{
			name:        "broken_repository",
			response:    scriptedResponse{err: commandFailure(128, "fatal: not a git repository (or any of the parent directories): .git")},
			expectError: true,
		},
		{
			name:        "execution_failure",
			response:    scriptedResponse{err: errors.New("git not found")},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager, executor := newScriptedManager(testInstance, map[string]scriptedResponse{
				"rev-parse -q --verify refs/remotes/svn/feature^{commit}": testCase.response,
			})

			commitHash, resolved, resolveError := manager.ResolveCommit(context.Background(), testRepositoryPathConstant, "refs/remotes/svn/feature")
			if testCase.expectError {
				require.Error(testInstance, resolveError)
				return
			}
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, testCase.expectedResolved, resolved)
			require.Equal(testInstance, testCase.expectedHash, commitHash)
			require.Len(testInstance, executor.executedCommands, 1)
		})
	}
}

func TestRepositoryManagerReadCommitMetadata(testInstance *testing.T) {
	const logArguments = "log -1 --pretty=format:%s%x00%ci%x00%an%x00%ae svn/tags/v1 --"

	testCases := []struct {
		name             string
		output           string
		expectedMetadata gitrepo.CommitMetadata
		expectError      bool
	}{
		{
			name:   "parses_fields",
			output: "Tag release 1\x002010-01-02 03:04:05 +0100\x00Alice Example\x00alice@example.com\n",
			expectedMetadata: gitrepo.CommitMetadata{
				Subject:       "Tag release 1",
				CommitterDate: "2010-01-02 03:04:05 +0100",
				AuthorName:    "Alice Example",
				AuthorEmail:   "alice@example.com",
			},
		},
		{
			name:        "rejects_malformed_output",
			output:      "only a subject",
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager, _ := newScriptedManager(testInstance, map[string]scriptedResponse{
				logArguments: {result: execshell.ExecutionResult{StandardOutput: testCase.output}},
			})

			metadata, readError := manager.ReadCommitMetadata(context.Background(), testRepositoryPathConstant, "svn/tags/v1")
			if testCase.expectError {
				require.Error(testInstance, readError)
				return
			}
			require.NoError(testInstance, readError)
			require.Equal(testInstance, testCase.expectedMetadata, metadata)
		})
	}
}

func TestRepositoryManagerCreateAnnotatedTagScopesCommitterDate(testInstance *testing.T) {
	manager, executor := newScriptedManager(testInstance, nil)

	tagError := manager.CreateAnnotatedTag(context.Background(), testRepositoryPathConstant, "Version_2.7.1", "Release 2.7.1", "refs/remotes/svn/tags/Version 2.7.1", "2010-01-02 03:04:05 +0100")
	require.NoError(testInstance, tagError)
	require.Len(testInstance, executor.executedCommands, 1)

	details := executor.executedCommands[0]
	require.Equal(testInstance, []string{"tag", "-a", "-m", "Release 2.7.1", "Version_2.7.1", "refs/remotes/svn/tags/Version 2.7.1"}, details.Arguments)
	require.Equal(testInstance, map[string]string{"GIT_COMMITTER_DATE": "2010-01-02 03:04:05 +0100"}, details.EnvironmentVariables)
}

func TestRepositoryManagerCreateBranchReportsExistingBranch(testInstance *testing.T) {
	testCases := []struct {
		name              string
		response          scriptedResponse
		expectError       bool
		expectBranchExist bool
	}{
		{
			name: "created",
		},
		{
			name:              "already_exists",
			response:          scriptedResponse{err: commandFailure(128, "fatal: a branch named 'feature' already exists")},
			expectError:       true,
			expectBranchExist: true,
		},
		{
			name:        "other_failure",
			response:    scriptedResponse{err: commandFailure(128, "fatal: not a valid object name")},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager, _ := newScriptedManager(testInstance, map[string]scriptedResponse{
				"branch feature refs/remotes/svn/feature": testCase.response,
			})

			createError := manager.CreateBranch(context.Background(), testRepositoryPathConstant, "feature", "refs/remotes/svn/feature")
			if !testCase.expectError {
				require.NoError(testInstance, createError)
				return
			}
			require.Error(testInstance, createError)
			require.Equal(testInstance, testCase.expectBranchExist, errors.Is(createError, gitrepo.ErrBranchExists))
		})
	}
}

func TestRepositoryManagerCommandArguments(testInstance *testing.T) {
	testCases := []struct {
		name              string
		operation         func(manager *gitrepo.RepositoryManager) error
		expectedArguments string
	}{
		{
			name: "force_branch",
			operation: func(manager *gitrepo.RepositoryManager) error {
				return manager.ForceBranch(context.Background(), testRepositoryPathConstant, "feature", "refs/remotes/svn/feature")
			},
			expectedArguments: "branch -f feature refs/remotes/svn/feature",
		},
		{
			name: "delete_branch",
			operation: func(manager *gitrepo.RepositoryManager) error {
				return manager.DeleteBranch(context.Background(), testRepositoryPathConstant, "master")
			},
			expectedArguments: "branch -D master",
		},
		{
			name: "delete_remote_branch",
			operation: func(manager *gitrepo.RepositoryManager) error {
				return manager.DeleteRemoteBranch(context.Background(), testRepositoryPathConstant, "svn/tags/v1")
			},
			expectedArguments: "branch -d -r svn/tags/v1",
		},
		{
			name: "checkout",
			operation: func(manager *gitrepo.RepositoryManager) error {
				return manager.Checkout(context.Background(), testRepositoryPathConstant, "svn/trunk")
			},
			expectedArguments: "checkout svn/trunk",
		},
		{
			name: "force_checkout",
			operation: func(manager *gitrepo.RepositoryManager) error {
				return manager.ForceCheckout(context.Background(), testRepositoryPathConstant, "master")
			},
			expectedArguments: "checkout -f master",
		},
		{
			name: "force_checkout_new_branch",
			operation: func(manager *gitrepo.RepositoryManager) error {
				return manager.ForceCheckoutNewBranch(context.Background(), testRepositoryPathConstant, "master")
			},
			expectedArguments: "checkout -f -b master",
		},
		{
			name: "collect_garbage",
			operation: func(manager *gitrepo.RepositoryManager) error {
				return manager.CollectGarbage(context.Background(), testRepositoryPathConstant)
			},
			expectedArguments: "gc",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager, executor := newScriptedManager(testInstance, nil)
			require.NoError(testInstance, testCase.operation(manager))
			require.Equal(testInstance, []string{testCase.expectedArguments}, executor.executedArguments())
		})
	}
}

func TestRepositoryManagerPropagatesCommandFailures(testInstance *testing.T) {
	manager, _ := newScriptedManager(testInstance, map[string]scriptedResponse{
		"checkout svn/trunk": {err: commandFailure(1, "error: pathspec 'svn/trunk' did not match")},
	})

	checkoutError := manager.Checkout(context.Background(), testRepositoryPathConstant, "svn/trunk")
	require.Error(testInstance, checkoutError)

	var commandFailed execshell.CommandFailedError
	require.True(testInstance, errors.As(checkoutError, &commandFailed))
	require.Contains(testInstance, checkoutError.Error(), "svn/trunk")
}

func TestRepositoryManagerCheckCleanWorktree(testInstance *testing.T) {
	testCases := []struct {
		name          string
		output        string
		expectedClean bool
	}{
		{name: "clean", output: "", expectedClean: true},
		{name: "modified", output: " M README\n", expectedClean: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager, _ := newScriptedManager(testInstance, map[string]scriptedResponse{
				"status --porcelain --untracked-files=no": {result: execshell.ExecutionResult{StandardOutput: testCase.output}},
			})

			clean, statusError := manager.CheckCleanWorktree(context.Background(), testRepositoryPathConstant)
			require.NoError(testInstance, statusError)
			require.Equal(testInstance, testCase.expectedClean, clean)
		})
	}
}
