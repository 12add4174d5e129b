// Package refname converts arbitrary Subversion tag labels into valid git
// reference names.
//
// Sanitizer consults an exact-match override table first, then applies the
// generic normalization rules that remove characters git rejects, and finally
// appends numeric suffixes against a UsedNames set so that distinct labels
// never map to the same tag.
package refname
