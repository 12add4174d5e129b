package refs

import "strings"

const (
	currentBranchMarkerConstant    = "*"
	worktreeBranchMarkerConstant   = "+"
	detachedHeadPrefixConstant     = "("
	symbolicAliasSeparatorConstant = " -> "
	listingLineSeparatorConstant   = "\n"
)

// BranchListing holds the local and remote tracking branch names of a repository.
type BranchListing struct {
	Local  []string
	Remote []string
}

// ParseBranchListing extracts branch names from `git branch` output. Current and worktree
// markers are stripped; detached HEAD entries and symbolic aliases are skipped.
func ParseBranchListing(output string) []string {
	branchNames := make([]string, 0)
	for _, line := range strings.Split(output, listingLineSeparatorConstant) {
		branchName := strings.TrimSpace(line)
		branchName = strings.TrimPrefix(branchName, currentBranchMarkerConstant)
		branchName = strings.TrimPrefix(branchName, worktreeBranchMarkerConstant)
		branchName = strings.TrimSpace(branchName)

		if len(branchName) == 0 {
			continue
		}
		if strings.HasPrefix(branchName, detachedHeadPrefixConstant) {
			continue
		}
		if strings.Contains(branchName, symbolicAliasSeparatorConstant) {
			continue
		}
		branchNames = append(branchNames, branchName)
	}
	return branchNames
}
