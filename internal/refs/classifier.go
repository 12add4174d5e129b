package refs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// TrackingNamespacePrefix is the prefix git svn is initialized with for remote tracking refs.
	TrackingNamespacePrefix = "svn/"
	// TagNamespacePrefix marks remote tracking refs that represent Subversion tags.
	TagNamespacePrefix = TrackingNamespacePrefix + "tags/"
	// TrunkLabel is the label of the Subversion trunk.
	TrunkLabel = "trunk"
)

const (
	remoteReferencePrefixConstant           = "refs/remotes/"
	pathSeparatorConstant                   = "/"
	invalidExclusionPatternTemplateConstant = "invalid reference exclusion pattern %q"
	minimumLocalMatchesConstant             = 1
	maximumLocalMatchesConstant             = 1
	minimumRemoteMatchesConstant            = 1
	// A branch appears once as the git svn ref and possibly once more as a pushed copy on
	// another remote.
	maximumRemoteMatchesConstant = 2
)

var snapshotReferencePattern = regexp.MustCompile(`@\d+$`)

// TrackingReference is a remote tracking ref together with its label inside the namespace.
type TrackingReference struct {
	// Name is the ref as listed by `git branch -r`, for example svn/tags/v1.
	Name string
	// Label is the part of Name after the namespace prefix, for example v1.
	Label string
}

// FullName returns the fully qualified ref name under refs/remotes.
func (reference TrackingReference) FullName() string {
	return remoteReferencePrefixConstant + reference.Name
}

// ClassifiedReferences partitions a branch listing.
type ClassifiedReferences struct {
	Trunk         TrackingReference
	HasTrunk      bool
	Tags          []TrackingReference
	Branches      []TrackingReference
	LocalBranches []string
}

// HasLocalBranch reports whether name is an existing local branch.
func (classified ClassifiedReferences) HasLocalBranch(name string) bool {
	for _, localBranch := range classified.LocalBranches {
		if localBranch == name {
			return true
		}
	}
	return false
}

// Classifier partitions branch listings into trunk, tags and branches.
type Classifier struct {
	exclusionPatterns []string
}

// NewClassifier constructs a Classifier that drops remote refs matching any of the doublestar
// exclusion patterns.
func NewClassifier(exclusionPatterns []string) (*Classifier, error) {
	validPatterns := make([]string, 0, len(exclusionPatterns))
	for _, exclusionPattern := range exclusionPatterns {
		trimmedPattern := strings.TrimSpace(exclusionPattern)
		if len(trimmedPattern) == 0 {
			continue
		}
		if !doublestar.ValidatePattern(trimmedPattern) {
			return nil, fmt.Errorf(invalidExclusionPatternTemplateConstant, trimmedPattern)
		}
		validPatterns = append(validPatterns, trimmedPattern)
	}
	return &Classifier{exclusionPatterns: validPatterns}, nil
}

// Classify partitions the listing. Tags are remote refs under svn/tags/; branches are the
// remaining refs under svn/ except the trunk and peg-revision snapshots.
func (classifier *Classifier) Classify(listing BranchListing) ClassifiedReferences {
	classified := ClassifiedReferences{
		Tags:          make([]TrackingReference, 0),
		Branches:      make([]TrackingReference, 0),
		LocalBranches: append([]string{}, listing.Local...),
	}

	for _, remoteName := range listing.Remote {
		if strings.HasPrefix(remoteName, TagNamespacePrefix) {
			tagLabel := strings.TrimPrefix(remoteName, TagNamespacePrefix)
			if len(tagLabel) == 0 || classifier.excluded(remoteName) {
				continue
			}
			classified.Tags = append(classified.Tags, TrackingReference{Name: remoteName, Label: tagLabel})
			continue
		}

		if !strings.HasPrefix(remoteName, TrackingNamespacePrefix) {
			continue
		}
		branchLabel := strings.TrimPrefix(remoteName, TrackingNamespacePrefix)
		if len(branchLabel) == 0 {
			continue
		}

		if branchLabel == TrunkLabel {
			classified.Trunk = TrackingReference{Name: remoteName, Label: branchLabel}
			classified.HasTrunk = true
			continue
		}
		if snapshotReferencePattern.MatchString(branchLabel) || classifier.excluded(remoteName) {
			continue
		}
		classified.Branches = append(classified.Branches, TrackingReference{Name: remoteName, Label: branchLabel})
	}

	return classified
}

// ClassifySingleBranch narrows the listing to branchName before classifying it. Exactly one
// local branch and one or two remote refs must match; tags are never returned.
func (classifier *Classifier) ClassifySingleBranch(listing BranchListing, branchName string) (ClassifiedReferences, error) {
	localMatches := matchBranchName(listing.Local, branchName)
	if len(localMatches) < minimumLocalMatchesConstant || len(localMatches) > maximumLocalMatchesConstant {
		return ClassifiedReferences{}, AmbiguousMatchError{
			BranchName:     branchName,
			Side:           MatchSideLocal,
			Candidates:     localMatches,
			MinimumMatches: minimumLocalMatchesConstant,
			MaximumMatches: maximumLocalMatchesConstant,
		}
	}

	remoteMatches := matchBranchName(listing.Remote, branchName)
	if len(remoteMatches) < minimumRemoteMatchesConstant || len(remoteMatches) > maximumRemoteMatchesConstant {
		return ClassifiedReferences{}, AmbiguousMatchError{
			BranchName:     branchName,
			Side:           MatchSideRemote,
			Candidates:     remoteMatches,
			MinimumMatches: minimumRemoteMatchesConstant,
			MaximumMatches: maximumRemoteMatchesConstant,
		}
	}

	classified := classifier.Classify(BranchListing{Local: localMatches, Remote: remoteMatches})
	classified.Tags = make([]TrackingReference, 0)
	return classified, nil
}

func (classifier *Classifier) excluded(remoteName string) bool {
	for _, exclusionPattern := range classifier.exclusionPatterns {
		if matched, _ := doublestar.Match(exclusionPattern, remoteName); matched {
			return true
		}
	}
	return false
}

// matchBranchName returns the names equal to branchName or ending in /branchName.
func matchBranchName(names []string, branchName string) []string {
	matches := make([]string, 0)
	suffix := pathSeparatorConstant + branchName
	for _, name := range names {
		if name == branchName || strings.HasSuffix(name, suffix) {
			matches = append(matches, name)
		}
	}
	return matches
}
