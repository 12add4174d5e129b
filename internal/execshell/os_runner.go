package execshell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"golang.org/x/term"

	"github.com/temirov/svn2git/internal/utils"
)

const environmentAssignmentSeparatorConstant = "="

// OSCommandRunner executes commands using os/exec. Streamed commands additionally copy their
// output to the console writers and read from the console input.
type OSCommandRunner struct {
	consoleOutput io.Writer
	consoleError  io.Writer
	consoleInput  io.Reader
}

// NewOSCommandRunner constructs a runner attached to the process console. Standard input is
// forwarded to streamed commands only when it is an interactive terminal, so prompts such as
// git svn credential requests reach the operator while piped input is never consumed.
func NewOSCommandRunner() *OSCommandRunner {
	var consoleInput io.Reader
	if term.IsTerminal(int(os.Stdin.Fd())) {
		consoleInput = os.Stdin
	}
	return NewOSCommandRunnerWithConsole(os.Stdout, os.Stderr, consoleInput)
}

// NewOSCommandRunnerWithConsole constructs a runner with explicit console streams. Nil writers
// discard streamed output and a nil reader disables input forwarding.
func NewOSCommandRunnerWithConsole(consoleOutput io.Writer, consoleError io.Writer, consoleInput io.Reader) *OSCommandRunner {
	return &OSCommandRunner{
		consoleOutput: utils.NewFlushingWriter(consoleOutput),
		consoleError:  utils.NewFlushingWriter(consoleError),
		consoleInput:  consoleInput,
	}
}

// Run executes the supplied command and waits for it to finish.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.CommandContext(executionContext, string(command.Name), commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if len(command.Details.EnvironmentVariables) > 0 {
		mergedEnvironment := append([]string{}, os.Environ()...)
		for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
			mergedEnvironment = append(mergedEnvironment, environmentKey+environmentAssignmentSeparatorConstant+environmentValue)
		}
		executable.Env = mergedEnvironment
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = runner.outputWriter(&standardOutputBuffer, runner.consoleOutput, command.Details.StreamOutput)
	executable.Stderr = runner.outputWriter(&standardErrorBuffer, runner.consoleError, command.Details.StreamOutput)

	switch {
	case len(command.Details.StandardInput) > 0:
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	case command.Details.StreamOutput && runner.consoleInput != nil:
		executable.Stdin = runner.consoleInput
	}

	runError := executable.Run()
	if runError != nil {
		exitError := &exec.ExitError{}
		if errors.As(runError, &exitError) {
			return ExecutionResult{
				StandardOutput: standardOutputBuffer.String(),
				StandardError:  standardErrorBuffer.String(),
				ExitCode:       exitError.ExitCode(),
			}, nil
		}
		return ExecutionResult{}, runError
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       0,
	}, nil
}

func (runner *OSCommandRunner) outputWriter(buffer *bytes.Buffer, consoleWriter io.Writer, streamOutput bool) io.Writer {
	if !streamOutput || consoleWriter == nil {
		return buffer
	}
	return io.MultiWriter(buffer, consoleWriter)
}
