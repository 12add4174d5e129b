// Package svnbridge drives git svn: it prepares the target directory, initializes Subversion
// tracking with the requested layout and fetches history into the svn/ remote namespace.
package svnbridge
