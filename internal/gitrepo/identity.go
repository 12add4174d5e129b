package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/svn2git/internal/execshell"
)

const (
	gitConfigSubcommandConstant               = "config"
	gitConfigLocalFlagConstant                = "--local"
	gitConfigGetFlagConstant                  = "--get"
	gitConfigUnsetFlagConstant                = "--unset"
	unknownOptionFragmentConstant             = "unknown option"
	configurationKeyMissingExitCodeConstant   = 1
	configurationUnsetMissingExitCodeConstant = 5

	// UserNameConfigurationKey holds the committer name.
	UserNameConfigurationKey = "user.name"
	// UserEmailConfigurationKey holds the committer email.
	UserEmailConfigurationKey = "user.email"

	configurationScopeErrorTemplateConstant = "unable to determine git config scope: %w"
	readConfigurationErrorTemplateConstant  = "unable to read %s: %w"
	writeConfigurationErrorTemplateConstant = "unable to set %s: %w"
	unsetConfigurationErrorTemplateConstant = "unable to unset %s: %w"
)

// CommitterIdentity captures the repository-level user.name and user.email settings.
type CommitterIdentity struct {
	Name         string
	Email        string
	NamePresent  bool
	EmailPresent bool
}

// ReadCommitterIdentity captures the current committer identity, recording absent keys.
func (manager *RepositoryManager) ReadCommitterIdentity(executionContext context.Context, repositoryPath string) (CommitterIdentity, error) {
	name, namePresent, nameError := manager.ReadConfigurationValue(executionContext, repositoryPath, UserNameConfigurationKey)
	if nameError != nil {
		return CommitterIdentity{}, nameError
	}
	email, emailPresent, emailError := manager.ReadConfigurationValue(executionContext, repositoryPath, UserEmailConfigurationKey)
	if emailError != nil {
		return CommitterIdentity{}, emailError
	}
	return CommitterIdentity{Name: name, Email: email, NamePresent: namePresent, EmailPresent: emailPresent}, nil
}

// SetCommitterIdentity configures user.name and user.email.
func (manager *RepositoryManager) SetCommitterIdentity(executionContext context.Context, repositoryPath string, name string, email string) error {
	if setError := manager.SetConfigurationValue(executionContext, repositoryPath, UserNameConfigurationKey, name); setError != nil {
		return setError
	}
	return manager.SetConfigurationValue(executionContext, repositoryPath, UserEmailConfigurationKey, email)
}

// RestoreCommitterIdentity reinstates a captured identity. Keys that were absent are unset.
// Both keys are always attempted; their errors are joined.
func (manager *RepositoryManager) RestoreCommitterIdentity(executionContext context.Context, repositoryPath string, identity CommitterIdentity) error {
	nameError := manager.restoreConfigurationValue(executionContext, repositoryPath, UserNameConfigurationKey, identity.Name, identity.NamePresent)
	emailError := manager.restoreConfigurationValue(executionContext, repositoryPath, UserEmailConfigurationKey, identity.Email, identity.EmailPresent)
	return errors.Join(nameError, emailError)
}

// ReadConfigurationValue returns the value of key. The boolean is false when the key is not set.
func (manager *RepositoryManager) ReadConfigurationValue(executionContext context.Context, repositoryPath string, key string) (string, bool, error) {
	scopeArguments, scopeError := manager.configurationScope(executionContext, repositoryPath)
	if scopeError != nil {
		return "", false, scopeError
	}

	arguments := append(manager.configurationArguments(scopeArguments), gitConfigGetFlagConstant, key)
	result, readError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
	if readError != nil {
		var commandFailure execshell.CommandFailedError
		if errors.As(readError, &commandFailure) && commandFailure.Result.ExitCode == configurationKeyMissingExitCodeConstant {
			return "", false, nil
		}
		return "", false, fmt.Errorf(readConfigurationErrorTemplateConstant, key, readError)
	}
	return strings.TrimRight(result.StandardOutput, "\r\n"), true, nil
}

// SetConfigurationValue writes key.
func (manager *RepositoryManager) SetConfigurationValue(executionContext context.Context, repositoryPath string, key string, value string) error {
	scopeArguments, scopeError := manager.configurationScope(executionContext, repositoryPath)
	if scopeError != nil {
		return scopeError
	}

	arguments := append(manager.configurationArguments(scopeArguments), key, value)
	if _, writeError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	}); writeError != nil {
		return fmt.Errorf(writeConfigurationErrorTemplateConstant, key, writeError)
	}
	return nil
}

// UnsetConfigurationValue removes key. Removing a key that is not set succeeds.
func (manager *RepositoryManager) UnsetConfigurationValue(executionContext context.Context, repositoryPath string, key string) error {
	scopeArguments, scopeError := manager.configurationScope(executionContext, repositoryPath)
	if scopeError != nil {
		return scopeError
	}

	arguments := append(manager.configurationArguments(scopeArguments), gitConfigUnsetFlagConstant, key)
	_, unsetError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
	if unsetError == nil {
		return nil
	}

	var commandFailure execshell.CommandFailedError
	if errors.As(unsetError, &commandFailure) && commandFailure.Result.ExitCode == configurationUnsetMissingExitCodeConstant {
		return nil
	}
	return fmt.Errorf(unsetConfigurationErrorTemplateConstant, key, unsetError)
}

func (manager *RepositoryManager) restoreConfigurationValue(executionContext context.Context, repositoryPath string, key string, value string, present bool) error {
	if present {
		return manager.SetConfigurationValue(executionContext, repositoryPath, key, value)
	}
	return manager.UnsetConfigurationValue(executionContext, repositoryPath, key)
}

func (manager *RepositoryManager) configurationArguments(scopeArguments []string) []string {
	arguments := make([]string, 0, len(scopeArguments)+3)
	arguments = append(arguments, gitConfigSubcommandConstant)
	return append(arguments, scopeArguments...)
}

// configurationScope probes once per repository whether git understands `config --local`.
func (manager *RepositoryManager) configurationScope(executionContext context.Context, repositoryPath string) ([]string, error) {
	manager.configurationScopeMutex.Lock()
	defer manager.configurationScopeMutex.Unlock()

	if scopeArguments, probed := manager.configurationScopes[repositoryPath]; probed {
		return scopeArguments, nil
	}

	scopeArguments := []string{gitConfigLocalFlagConstant}
	_, probeError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitConfigSubcommandConstant, gitConfigLocalFlagConstant, gitConfigGetFlagConstant, UserNameConfigurationKey},
		WorkingDirectory: repositoryPath,
	})
	if probeError != nil {
		var commandFailure execshell.CommandFailedError
		if !errors.As(probeError, &commandFailure) {
			return nil, fmt.Errorf(configurationScopeErrorTemplateConstant, probeError)
		}
		if strings.Contains(commandFailure.Result.StandardError, unknownOptionFragmentConstant) {
			scopeArguments = []string{}
		}
	}

	manager.configurationScopes[repositoryPath] = scopeArguments
	return scopeArguments, nil
}
