// Package migrate reconciles the refs of a git svn conversion into an ordinary git
// repository. Subversion tag refs become annotated tags carrying the original author and
// date, branch refs become local branches, and the primary branch is rebuilt from trunk.
// It also provides the import and rebase commands that drive git svn around that work.
package migrate
