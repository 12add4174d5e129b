package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	redactedValueConstant                   = "******"
	flagPrefixConstant                      = "-"
	flagValueSeparatorConstant              = "="
)

const (
	gitSvnSubcommandNameConstant      = "svn"
	gitSvnInitActionConstant          = "init"
	gitSvnFetchActionConstant         = "fetch"
	gitBranchSubcommandNameConstant   = "branch"
	gitTagSubcommandNameConstant      = "tag"
	gitCheckoutSubcommandNameConstant = "checkout"
	gitConfigSubcommandNameConstant   = "config"
	gitLogSubcommandNameConstant      = "log"
	gitRevParseSubcommandNameConstant = "rev-parse"
	gitStatusSubcommandNameConstant   = "status"
	gitGCSubcommandNameConstant       = "gc"
	gitRemotesFlagConstant            = "-r"
	gitDeleteFlagConstant             = "-d"
	gitForceDeleteFlagConstant        = "-D"
	gitForceFlagConstant              = "-f"
	gitCreateBranchFlagConstant       = "-b"
	gitGetFlagConstant                = "--get"
	gitUnsetFlagConstant              = "--unset"
	gitMessageFlagConstant            = "-m"
	gitPasswordFlagConstant           = "--password"
)

var sensitiveFlagNames = map[string]struct{}{
	gitPasswordFlagConstant: {},
}

// flagsWithSeparateValues lists flags whose value follows as the next argument.
var flagsWithSeparateValues = map[string]struct{}{
	gitMessageFlagConstant:  {},
	gitPasswordFlagConstant: {},
}

type messageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var (
	gitSvnInitTemplates = messageTemplates{
		start:            "Initializing git svn tracking of %s in %s",
		success:          "Initialized git svn tracking of %s in %s",
		failure:          "Failed to initialize git svn tracking of %s in %s (exit code %d%s)",
		executionFailure: "Unable to initialize git svn tracking of %s in %s: %s",
	}
	gitSvnFetchTemplates = messageTemplates{
		start:            "Fetching Subversion history (%s) into %s",
		success:          "Fetched Subversion history (%s) into %s",
		failure:          "Failed to fetch Subversion history (%s) into %s (exit code %d%s)",
		executionFailure: "Unable to fetch Subversion history (%s) into %s: %s",
	}
	gitBranchListTemplates = messageTemplates{
		start:            "Listing %s branches in %s",
		success:          "Listed %s branches in %s",
		failure:          "Failed to list %s branches in %s (exit code %d%s)",
		executionFailure: "Unable to list %s branches in %s: %s",
	}
	gitBranchCreateTemplates = messageTemplates{
		start:            "Creating branch %s in %s",
		success:          "Created branch %s in %s",
		failure:          "Failed to create branch %s in %s (exit code %d%s)",
		executionFailure: "Unable to create branch %s in %s: %s",
	}
	gitBranchResetTemplates = messageTemplates{
		start:            "Resetting branch %s in %s",
		success:          "Reset branch %s in %s",
		failure:          "Failed to reset branch %s in %s (exit code %d%s)",
		executionFailure: "Unable to reset branch %s in %s: %s",
	}
	gitBranchDeleteTemplates = messageTemplates{
		start:            "Deleting branch %s in %s",
		success:          "Deleted branch %s in %s",
		failure:          "Failed to delete branch %s in %s (exit code %d%s)",
		executionFailure: "Unable to delete branch %s in %s: %s",
	}
	gitRemoteBranchDeleteTemplates = messageTemplates{
		start:            "Removing tracking branch %s in %s",
		success:          "Removed tracking branch %s in %s",
		failure:          "Failed to remove tracking branch %s in %s (exit code %d%s)",
		executionFailure: "Unable to remove tracking branch %s in %s: %s",
	}
	gitTagTemplates = messageTemplates{
		start:            "Creating annotated tag %s in %s",
		success:          "Created annotated tag %s in %s",
		failure:          "Failed to create annotated tag %s in %s (exit code %d%s)",
		executionFailure: "Unable to create annotated tag %s in %s: %s",
	}
	gitCheckoutTemplates = messageTemplates{
		start:            "Switching to %s in %s",
		success:          "Switched to %s in %s",
		failure:          "Failed to switch to %s in %s (exit code %d%s)",
		executionFailure: "Unable to switch to %s in %s: %s",
	}
	gitConfigReadTemplates = messageTemplates{
		start:            "Reading %s in %s",
		success:          "Read %s in %s",
		failure:          "%s is not set in %s (exit code %d%s)",
		executionFailure: "Unable to read %s in %s: %s",
	}
	gitConfigWriteTemplates = messageTemplates{
		start:            "Setting %s in %s",
		success:          "Set %s in %s",
		failure:          "Failed to set %s in %s (exit code %d%s)",
		executionFailure: "Unable to set %s in %s: %s",
	}
	gitConfigUnsetTemplates = messageTemplates{
		start:            "Unsetting %s in %s",
		success:          "Unset %s in %s",
		failure:          "Failed to unset %s in %s (exit code %d%s)",
		executionFailure: "Unable to unset %s in %s: %s",
	}
	gitLogTemplates = messageTemplates{
		start:            "Reading commit metadata of %s in %s",
		success:          "Read commit metadata of %s in %s",
		failure:          "Failed to read commit metadata of %s in %s (exit code %d%s)",
		executionFailure: "Unable to read commit metadata of %s in %s: %s",
	}
	gitRevParseTemplates = messageTemplates{
		start:            "Resolving %s in %s",
		success:          "Resolved %s in %s",
		failure:          "%s does not resolve in %s (exit code %d%s)",
		executionFailure: "Unable to resolve %s in %s: %s",
	}
	gitStatusTemplates = messageTemplates{
		start:            "Checking %s for uncommitted changes in %s",
		success:          "Checked %s for uncommitted changes in %s",
		failure:          "Failed to check %s for uncommitted changes in %s (exit code %d%s)",
		executionFailure: "Unable to check %s for uncommitted changes in %s: %s",
	}
	gitGCTemplates = messageTemplates{
		start:            "Optimizing %s object storage in %s",
		success:          "Optimized %s object storage in %s",
		failure:          "Failed to optimize %s object storage in %s (exit code %d%s)",
		executionFailure: "Unable to optimize %s object storage in %s: %s",
	}
)

const (
	localBranchesLabelConstant           = "local"
	remoteBranchesLabelConstant          = "remote tracking"
	repositoryLabelConstant              = "repository"
	worktreeLabelConstant                = "worktree"
	fetchHeadRevisionConstant            = "up to HEAD"
	fetchRevisionRangeTemplateConstant   = "revisions %s"
	configurationValueTemplateConstant   = "%s to %s"
	tagTargetTemplateConstant            = "%s at %s"
	branchStartPointTemplateConstant     = "%s from %s"
	checkoutNewBranchTemplateConstant    = "new branch %s"
	checkoutForcedTemplateConstant       = "%s (forced)"
	branchDeleteForcedTemplateConstant   = "%s (forced)"
	gitSvnInitRemoteURLFallbackConstant  = "repository"
	gitSvnFetchRevisionFlagValueConstant = "-r"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	templates, subject, described := formatter.describeGitCommand(command.Details.Arguments)
	if !described {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subject, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subject, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, subject, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, subject, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCommand(arguments []string) (messageTemplates, string, bool) {
	subcommand := strings.TrimSpace(arguments[0])
	remainingArguments := arguments[1:]
	positionalArguments := formatter.positionalArguments(remainingArguments)

	switch subcommand {
	case gitSvnSubcommandNameConstant:
		return formatter.describeGitSvn(remainingArguments)
	case gitBranchSubcommandNameConstant:
		return formatter.describeGitBranch(remainingArguments, positionalArguments)
	case gitTagSubcommandNameConstant:
		tagName := formatter.ensureValue(formatter.argumentAtIndex(positionalArguments, 0))
		target := formatter.argumentAtIndex(positionalArguments, 1)
		if len(target) == 0 {
			return gitTagTemplates, tagName, true
		}
		return gitTagTemplates, fmt.Sprintf(tagTargetTemplateConstant, tagName, target), true
	case gitCheckoutSubcommandNameConstant:
		return formatter.describeGitCheckout(remainingArguments, positionalArguments)
	case gitConfigSubcommandNameConstant:
		return formatter.describeGitConfig(remainingArguments, positionalArguments)
	case gitLogSubcommandNameConstant:
		return gitLogTemplates, formatter.ensureValue(formatter.lastArgument(positionalArguments)), true
	case gitRevParseSubcommandNameConstant:
		return gitRevParseTemplates, formatter.ensureValue(formatter.lastArgument(positionalArguments)), true
	case gitStatusSubcommandNameConstant:
		return gitStatusTemplates, worktreeLabelConstant, true
	case gitGCSubcommandNameConstant:
		return gitGCTemplates, repositoryLabelConstant, true
	default:
		return messageTemplates{}, emptyStringConstant, false
	}
}

func (formatter CommandMessageFormatter) describeGitSvn(arguments []string) (messageTemplates, string, bool) {
	if len(arguments) == 0 {
		return messageTemplates{}, emptyStringConstant, false
	}
	action := strings.TrimSpace(arguments[0])
	actionArguments := arguments[1:]
	switch action {
	case gitSvnInitActionConstant:
		repositoryURL := formatter.lastArgument(formatter.positionalArguments(actionArguments))
		if len(repositoryURL) == 0 {
			repositoryURL = gitSvnInitRemoteURLFallbackConstant
		}
		return gitSvnInitTemplates, repositoryURL, true
	case gitSvnFetchActionConstant:
		revisionRange := findFlagValue(actionArguments, gitSvnFetchRevisionFlagValueConstant)
		if len(revisionRange) == 0 {
			return gitSvnFetchTemplates, fetchHeadRevisionConstant, true
		}
		return gitSvnFetchTemplates, fmt.Sprintf(fetchRevisionRangeTemplateConstant, revisionRange), true
	default:
		return messageTemplates{}, emptyStringConstant, false
	}
}

func (formatter CommandMessageFormatter) describeGitBranch(arguments []string, positionalArguments []string) (messageTemplates, string, bool) {
	branchName := formatter.ensureValue(formatter.argumentAtIndex(positionalArguments, 0))

	switch {
	case containsArgument(arguments, gitDeleteFlagConstant) && containsArgument(arguments, gitRemotesFlagConstant):
		return gitRemoteBranchDeleteTemplates, branchName, true
	case containsArgument(arguments, gitForceDeleteFlagConstant):
		return gitBranchDeleteTemplates, fmt.Sprintf(branchDeleteForcedTemplateConstant, branchName), true
	case containsArgument(arguments, gitDeleteFlagConstant):
		return gitBranchDeleteTemplates, branchName, true
	case len(positionalArguments) == 0 && containsArgument(arguments, gitRemotesFlagConstant):
		return gitBranchListTemplates, remoteBranchesLabelConstant, true
	case len(positionalArguments) == 0:
		return gitBranchListTemplates, localBranchesLabelConstant, true
	}

	templates := gitBranchCreateTemplates
	if containsArgument(arguments, gitForceFlagConstant) {
		templates = gitBranchResetTemplates
	}
	startPoint := formatter.argumentAtIndex(positionalArguments, 1)
	if len(startPoint) == 0 {
		return templates, branchName, true
	}
	return templates, fmt.Sprintf(branchStartPointTemplateConstant, branchName, startPoint), true
}

func (formatter CommandMessageFormatter) describeGitCheckout(arguments []string, positionalArguments []string) (messageTemplates, string, bool) {
	if newBranchName := findFlagValue(arguments, gitCreateBranchFlagConstant); len(newBranchName) > 0 {
		return gitCheckoutTemplates, fmt.Sprintf(checkoutNewBranchTemplateConstant, newBranchName), true
	}
	target := formatter.ensureValue(formatter.argumentAtIndex(positionalArguments, 0))
	if containsArgument(arguments, gitForceFlagConstant) {
		return gitCheckoutTemplates, fmt.Sprintf(checkoutForcedTemplateConstant, target), true
	}
	return gitCheckoutTemplates, target, true
}

func (formatter CommandMessageFormatter) describeGitConfig(arguments []string, positionalArguments []string) (messageTemplates, string, bool) {
	switch {
	case containsArgument(arguments, gitGetFlagConstant):
		return gitConfigReadTemplates, formatter.ensureValue(findFlagValue(arguments, gitGetFlagConstant)), true
	case containsArgument(arguments, gitUnsetFlagConstant):
		return gitConfigUnsetTemplates, formatter.ensureValue(findFlagValue(arguments, gitUnsetFlagConstant)), true
	case len(positionalArguments) >= 2:
		return gitConfigWriteTemplates, fmt.Sprintf(configurationValueTemplateConstant, positionalArguments[0], positionalArguments[1]), true
	default:
		return messageTemplates{}, emptyStringConstant, false
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		redactedArguments := redactArguments(command.Details.Arguments)
		commandLabel = commandLabel + commandArgumentsJoinSeparatorConstant + strings.Join(redactedArguments, commandArgumentsJoinSeparatorConstant)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

// positionalArguments drops flags and the values of flags that take a separate value.
func (formatter CommandMessageFormatter) positionalArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		argument := strings.TrimSpace(arguments[argumentIndex])
		if !strings.HasPrefix(argument, flagPrefixConstant) {
			positional = append(positional, argument)
			continue
		}
		if _, takesValue := flagsWithSeparateValues[argument]; takesValue {
			argumentIndex++
		}
	}
	return positional
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[index])
}

func (formatter CommandMessageFormatter) lastArgument(arguments []string) string {
	return formatter.argumentAtIndex(arguments, len(arguments)-1)
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return value
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flag string) string {
	for argumentIndex, argument := range arguments {
		trimmedArgument := strings.TrimSpace(argument)
		if trimmedArgument == flag && argumentIndex+1 < len(arguments) {
			return strings.TrimSpace(arguments[argumentIndex+1])
		}
		if strings.HasPrefix(trimmedArgument, flag+flagValueSeparatorConstant) {
			return strings.TrimPrefix(trimmedArgument, flag+flagValueSeparatorConstant)
		}
	}
	return emptyStringConstant
}

func redactArguments(arguments []string) []string {
	redactedArguments := make([]string, len(arguments))
	redactNext := false
	for argumentIndex, argument := range arguments {
		if redactNext {
			redactedArguments[argumentIndex] = redactedValueConstant
			redactNext = false
			continue
		}
		redactedArguments[argumentIndex] = argument

		flagName, _, hasInlineValue := strings.Cut(argument, flagValueSeparatorConstant)
		if _, sensitive := sensitiveFlagNames[flagName]; !sensitive {
			continue
		}
		if hasInlineValue {
			redactedArguments[argumentIndex] = flagName + flagValueSeparatorConstant + redactedValueConstant
			continue
		}
		redactNext = true
	}
	return redactedArguments
}
