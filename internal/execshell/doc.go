// Package execshell runs git as a subprocess for svn2git.
//
// ShellExecutor wraps a CommandRunner with zap logging and lifecycle
// observers, converting non-zero exits into CommandFailedError values so that
// callers can either abort or treat the failure as a negative probe result.
// OSCommandRunner is the os/exec backed runner; it can stream long running
// git svn output to the console while still capturing it.
package execshell
