package refs

import (
	"errors"
	"fmt"
	"strings"
)

// MatchSide names the branch listing an ambiguous match was found in.
type MatchSide string

// Listing sides.
const (
	MatchSideLocal  MatchSide = "local"
	MatchSideRemote MatchSide = "remote"
)

const (
	ambiguousMatchMessageConstant    = "branch selection is ambiguous"
	noMatchTemplateConstant          = "no %s branch matches %q"
	tooManyMatchesTemplateConstant   = "%d %s branches match %q, expected at most %d: %s"
	exactExpectationTemplateConstant = "%d %s branches match %q, expected exactly %d: %s"
	candidateSeparatorConstant       = ", "
)

// ErrAmbiguousMatch is matched by every AmbiguousMatchError.
var ErrAmbiguousMatch = errors.New(ambiguousMatchMessageConstant)

// AmbiguousMatchError reports that a requested branch did not narrow to an acceptable number
// of local or remote refs.
type AmbiguousMatchError struct {
	BranchName     string
	Side           MatchSide
	Candidates     []string
	MinimumMatches int
	MaximumMatches int
}

// Error names the branch, the side and every candidate.
func (matchError AmbiguousMatchError) Error() string {
	if len(matchError.Candidates) == 0 {
		return fmt.Sprintf(noMatchTemplateConstant, matchError.Side, matchError.BranchName)
	}
	joinedCandidates := strings.Join(matchError.Candidates, candidateSeparatorConstant)
	if matchError.MinimumMatches == matchError.MaximumMatches {
		return fmt.Sprintf(exactExpectationTemplateConstant, len(matchError.Candidates), matchError.Side, matchError.BranchName, matchError.MaximumMatches, joinedCandidates)
	}
	return fmt.Sprintf(tooManyMatchesTemplateConstant, len(matchError.Candidates), matchError.Side, matchError.BranchName, matchError.MaximumMatches, joinedCandidates)
}

// Is reports whether target is ErrAmbiguousMatch.
func (matchError AmbiguousMatchError) Is(target error) bool {
	return target == ErrAmbiguousMatch
}
