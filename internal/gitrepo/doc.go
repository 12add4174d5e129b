// Package gitrepo wraps the git operations svn2git performs against a converted repository.
//
// RepositoryManager drives the git executable through an execshell executor: it lists and
// resolves refs, reads commit metadata, creates tags and branches, and manages the committer
// identity. NativeReferenceReader answers the read-only subset of those questions directly
// from the object database with go-git.
package gitrepo
