package gitrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/temirov/svn2git/internal/refs"
)

const (
	referencePrefixConstant           = "refs/"
	headsReferencePrefixConstant      = "refs/heads/"
	remotesReferencePrefixConstant    = "refs/remotes/"
	committerDateLayoutConstant       = "2006-01-02 15:04:05 -0700"
	messageParagraphSeparatorConstant = "\n\n"
	messageLineSeparatorConstant      = "\n"
	subjectLineJoinSeparatorConstant  = " "
	maximumTagPeelDepthConstant       = 8

	openRepositoryErrorTemplateConstant    = "unable to open repository %s: %w"
	iterateReferencesErrorTemplateConstant = "unable to iterate references: %w"
	referenceNotFoundErrorTemplateConstant = "reference %s does not resolve to a commit"
)

// RepositoryOpener opens the repository containing repositoryPath.
type RepositoryOpener func(repositoryPath string) (*gitlib.Repository, error)

// NativeReferenceReader reads refs and commit metadata straight from the object database.
type NativeReferenceReader struct {
	opener RepositoryOpener
}

// NewNativeReferenceReader constructs a reader that opens repositories from disk.
func NewNativeReferenceReader() *NativeReferenceReader {
	return NewNativeReferenceReaderWithOpener(openRepositoryFromDisk)
}

// NewNativeReferenceReaderWithOpener constructs a reader backed by opener.
func NewNativeReferenceReaderWithOpener(opener RepositoryOpener) *NativeReferenceReader {
	if opener == nil {
		opener = openRepositoryFromDisk
	}
	return &NativeReferenceReader{opener: opener}
}

// ListBranches returns the local and remote tracking branches in name order.
func (reader *NativeReferenceReader) ListBranches(executionContext context.Context, repositoryPath string) (refs.BranchListing, error) {
	repository, openError := reader.open(executionContext, repositoryPath)
	if openError != nil {
		return refs.BranchListing{}, openError
	}

	referenceIterator, iteratorError := repository.References()
	if iteratorError != nil {
		return refs.BranchListing{}, fmt.Errorf(iterateReferencesErrorTemplateConstant, iteratorError)
	}
	defer referenceIterator.Close()

	listing := refs.BranchListing{Local: make([]string, 0), Remote: make([]string, 0)}
	iterationError := referenceIterator.ForEach(func(reference *plumbing.Reference) error {
		if reference.Type() != plumbing.HashReference {
			return nil
		}
		referenceName := reference.Name()
		switch {
		case referenceName.IsBranch():
			listing.Local = append(listing.Local, strings.TrimPrefix(referenceName.String(), headsReferencePrefixConstant))
		case referenceName.IsRemote():
			listing.Remote = append(listing.Remote, strings.TrimPrefix(referenceName.String(), remotesReferencePrefixConstant))
		}
		return nil
	})
	if iterationError != nil {
		return refs.BranchListing{}, fmt.Errorf(iterateReferencesErrorTemplateConstant, iterationError)
	}

	sort.Strings(listing.Local)
	sort.Strings(listing.Remote)
	return listing, nil
}

// ResolveCommit returns the commit reference peels to. Short names are resolved the way git
// rev-parse does: as given, then under refs/, refs/tags/, refs/heads/ and refs/remotes/.
func (reader *NativeReferenceReader) ResolveCommit(executionContext context.Context, repositoryPath string, reference string) (string, bool, error) {
	repository, openError := reader.open(executionContext, repositoryPath)
	if openError != nil {
		return "", false, openError
	}

	commit, resolved := reader.resolveCommitObject(repository, reference)
	if !resolved {
		return "", false, nil
	}
	return commit.Hash.String(), true, nil
}

// ResolveTag returns the commit refs/tags/<tagName> peels to.
func (reader *NativeReferenceReader) ResolveTag(executionContext context.Context, repositoryPath string, tagName string) (string, bool, error) {
	return reader.ResolveCommit(executionContext, repositoryPath, tagReferencePrefixConstant+tagName)
}

// ReadCommitMetadata reads subject, committer date and author of the ref's tip commit.
func (reader *NativeReferenceReader) ReadCommitMetadata(executionContext context.Context, repositoryPath string, reference string) (CommitMetadata, error) {
	repository, openError := reader.open(executionContext, repositoryPath)
	if openError != nil {
		return CommitMetadata{}, openError
	}

	commit, resolved := reader.resolveCommitObject(repository, reference)
	if !resolved {
		return CommitMetadata{}, fmt.Errorf(readCommitMetadataErrorTemplateConstant, reference, fmt.Errorf(referenceNotFoundErrorTemplateConstant, reference))
	}

	return CommitMetadata{
		Subject:       commitSubject(commit.Message),
		CommitterDate: commit.Committer.When.Format(committerDateLayoutConstant),
		AuthorName:    commit.Author.Name,
		AuthorEmail:   commit.Author.Email,
	}, nil
}

func (reader *NativeReferenceReader) open(executionContext context.Context, repositoryPath string) (*gitlib.Repository, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}
	repository, openError := reader.opener(repositoryPath)
	if openError != nil {
		return nil, fmt.Errorf(openRepositoryErrorTemplateConstant, repositoryPath, openError)
	}
	return repository, nil
}

func (reader *NativeReferenceReader) resolveCommitObject(repository *gitlib.Repository, reference string) (*object.Commit, bool) {
	for _, candidateName := range referenceCandidates(reference) {
		resolvedReference, resolveError := storer.ResolveReference(repository.Storer, plumbing.ReferenceName(candidateName))
		if resolveError != nil {
			continue
		}
		if commit, peeled := peelToCommit(repository, resolvedReference.Hash()); peeled {
			return commit, true
		}
	}
	return nil, false
}

func referenceCandidates(reference string) []string {
	if strings.HasPrefix(reference, referencePrefixConstant) {
		return []string{reference}
	}
	return []string{
		reference,
		referencePrefixConstant + reference,
		tagReferencePrefixConstant + reference,
		headsReferencePrefixConstant + reference,
		remotesReferencePrefixConstant + reference,
	}
}

// peelToCommit follows annotated tag chains down to a commit.
func peelToCommit(repository *gitlib.Repository, hash plumbing.Hash) (*object.Commit, bool) {
	currentHash := hash
	for depth := 0; depth < maximumTagPeelDepthConstant; depth++ {
		if commit, commitError := repository.CommitObject(currentHash); commitError == nil {
			return commit, true
		}
		tag, tagError := repository.TagObject(currentHash)
		if tagError != nil {
			return nil, false
		}
		if tag.TargetType != plumbing.CommitObject && tag.TargetType != plumbing.TagObject {
			return nil, false
		}
		currentHash = tag.Target
	}
	return nil, false
}

// commitSubject mirrors git's %s placeholder: the first paragraph with lines joined by spaces.
func commitSubject(message string) string {
	firstParagraph := strings.TrimLeft(message, messageLineSeparatorConstant)
	if separatorIndex := strings.Index(firstParagraph, messageParagraphSeparatorConstant); separatorIndex >= 0 {
		firstParagraph = firstParagraph[:separatorIndex]
	}
	lines := strings.Split(strings.TrimSpace(firstParagraph), messageLineSeparatorConstant)
	for lineIndex := range lines {
		lines[lineIndex] = strings.TrimSpace(lines[lineIndex])
	}
	return strings.Join(lines, subjectLineJoinSeparatorConstant)
}

func openRepositoryFromDisk(repositoryPath string) (*gitlib.Repository, error) {
	return gitlib.PlainOpenWithOptions(repositoryPath, &gitlib.PlainOpenOptions{DetectDotGit: true})
}
