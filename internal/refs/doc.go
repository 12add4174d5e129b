// Package refs classifies the branches git svn leaves behind.
//
// Remote tracking refs under svn/ are split into the trunk, tags (svn/tags/*)
// and branches; Subversion peg-revision snapshots (name@123) and refs matching
// operator exclusion globs are dropped. In single-branch mode the listing is
// narrowed to the requested branch and ambiguous matches are rejected.
package refs
