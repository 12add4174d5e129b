// Package utils holds the ambient plumbing shared by svn2git commands.
//
// ConfigurationLoader layers embedded defaults, YAML files and SVN2GIT_*
// environment variables through Viper; LoggerFactory builds zap loggers in
// structured or console form; FlushingWriter keeps streamed git svn output
// visible as it arrives.
package utils
