package testsupport

import (
	"context"
	"fmt"

	"github.com/temirov/svn2git/internal/execshell"
	migrate "github.com/temirov/svn2git/internal/migrate"
	"github.com/temirov/svn2git/internal/svnbridge"
)

// CommandExecutorStub records git invocations for assertions.
type CommandExecutorStub struct {
	ExecutedGitCommands []execshell.CommandDetails
}

// ExecuteGit records the command and reports success.
func (executor *CommandExecutorStub) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.ExecutedGitCommands = append(executor.ExecutedGitCommands, details)
	return execshell.ExecutionResult{ExitCode: 0}, nil
}

// ImporterStub records import and fetch requests.
type ImporterStub struct {
	RepositoryPath      string
	ImportError         error
	FetchError          error
	ImportedOptions     []svnbridge.ImportOptions
	FetchedRepositories []string
	ReceivedDependency  svnbridge.Dependencies
}

// Import records the options and returns the configured repository path.
func (importer *ImporterStub) Import(_ context.Context, options svnbridge.ImportOptions) (string, error) {
	importer.ImportedOptions = append(importer.ImportedOptions, options)
	if importer.ImportError != nil {
		return "", importer.ImportError
	}
	if len(importer.RepositoryPath) == 0 {
		return "", fmt.Errorf("no repository path configured for %s", options.RepositoryURL)
	}
	return importer.RepositoryPath, nil
}

// Fetch records the repository path.
func (importer *ImporterStub) Fetch(_ context.Context, repositoryPath string) error {
	importer.FetchedRepositories = append(importer.FetchedRepositories, repositoryPath)
	return importer.FetchError
}

// Provider returns an ImporterProvider handing out the stub.
func (importer *ImporterStub) Provider() migrate.ImporterProvider {
	return func(dependencies svnbridge.Dependencies) (migrate.SubversionImporter, error) {
		importer.ReceivedDependency = dependencies
		return importer, nil
	}
}

// ServiceStub captures migration execution requests for verification.
type ServiceStub struct {
	Result               migrate.MigrationResult
	Error                error
	ExecutedOptions      []migrate.MigrationOptions
	ReceivedDependencies []migrate.ServiceDependencies
}

// Execute records the options and returns the configured outcome.
func (service *ServiceStub) Execute(_ context.Context, options migrate.MigrationOptions) (migrate.MigrationResult, error) {
	service.ExecutedOptions = append(service.ExecutedOptions, options)
	return service.Result, service.Error
}

// Provider returns a ServiceProvider handing out the stub.
func (service *ServiceStub) Provider() migrate.ServiceProvider {
	return func(dependencies migrate.ServiceDependencies) (migrate.MigrationExecutor, error) {
		service.ReceivedDependencies = append(service.ReceivedDependencies, dependencies)
		return service, nil
	}
}
