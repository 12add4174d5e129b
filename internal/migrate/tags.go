package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/svn2git/internal/refname"
	"github.com/temirov/svn2git/internal/refs"
)

const (
	renameEntryTemplateConstant            = "%s -> %s"
	renameEntrySeparatorConstant           = "\n"
	mappingLogPermissionsConstant          = os.FileMode(0o644)
	readIdentityErrorTemplateConstant      = "unable to capture committer identity: %w"
	swapIdentityErrorTemplateConstant      = "unable to set committer identity for tag %s: %w"
	restoreIdentityErrorTemplateConstant   = "unable to restore committer identity: %w"
	tagMetadataErrorTemplateConstant       = "unable to read metadata of tag %s: %w"
	tagLookupErrorTemplateConstant         = "unable to inspect existing tag %s: %w"
	tagSourceErrorTemplateConstant         = "unable to resolve source of tag %s: %w"
	tagCreationErrorTemplateConstant       = "unable to materialize tag %s: %w"
	tagTrackingErrorTemplateConstant       = "unable to remove tracking ref of tag %s: %w"
	mappingLogWriteErrorTemplateConstant   = "unable to write tag rename map %s: %w"
	tagMaterializedMessageConstant         = "Materialized tag"
	tagReusedMessageConstant               = "Reused existing tag"
	tagRenamedMessageConstant              = "Renamed tag"
	mappingLogWrittenMessageConstant       = "Wrote tag rename map"
	logFieldTagSourceConstant              = "source"
	logFieldTagTargetConstant              = "tag"
	logFieldTagAuthorConstant              = "author"
	logFieldTagCommitterDateConstant       = "committer_date"
	logFieldMappingLogPathConstant         = "mapping_log"
	logFieldRenameCountConstant            = "renames"
	materializerDependencyMessageConstant  = "materializer dependency not configured"
	materializerDependencyTemplateConstant = "%w: %s"
	referenceReaderDependencyConstant      = "reference reader"
	repositoryDependencyConstant           = "repository"
	identityStoreDependencyConstant        = "identity store"
)

var errMaterializerDependencyMissing = errors.New(materializerDependencyMessageConstant)

// RenameEntry records a label that sanitization changed.
type RenameEntry struct {
	Source string
	Target string
}

// RenameLog accumulates renames in the order they happened.
type RenameLog struct {
	entries []RenameEntry
}

// Record appends a rename.
func (renameLog *RenameLog) Record(source string, target string) {
	renameLog.entries = append(renameLog.entries, RenameEntry{Source: source, Target: target})
}

// Entries returns a copy of the recorded renames.
func (renameLog *RenameLog) Entries() []RenameEntry {
	return append([]RenameEntry(nil), renameLog.entries...)
}

// Len returns the number of recorded renames.
func (renameLog *RenameLog) Len() int {
	return len(renameLog.entries)
}

// String renders one "source -> target" line per rename without a trailing newline.
func (renameLog *RenameLog) String() string {
	renderedEntries := make([]string, 0, len(renameLog.entries))
	for _, entry := range renameLog.entries {
		renderedEntries = append(renderedEntries, fmt.Sprintf(renameEntryTemplateConstant, entry.Source, entry.Target))
	}
	return strings.Join(renderedEntries, renameEntrySeparatorConstant)
}

// TagPhaseResult summarizes the tag phase.
type TagPhaseResult struct {
	CreatedTags []string
	// ReusedTags were already present from an interrupted run and pointed at the source commit.
	ReusedTags     []string
	Renames        []RenameEntry
	MappingLogPath string
}

// TagMaterializer recreates Subversion tag refs as annotated git tags.
type TagMaterializer struct {
	logger          *zap.Logger
	referenceReader ReferenceReader
	repository      GitRepository
	identityStore   IdentityStore
	sanitizer       *refname.Sanitizer
	fileSystem      afero.Fs
}

// NewTagMaterializer constructs a TagMaterializer. Logger, sanitizer and file system default
// to a no-op logger, the built-in overrides and the OS file system.
func NewTagMaterializer(logger *zap.Logger, referenceReader ReferenceReader, repository GitRepository, identityStore IdentityStore, sanitizer *refname.Sanitizer, fileSystem afero.Fs) (*TagMaterializer, error) {
	switch {
	case referenceReader == nil:
		return nil, fmt.Errorf(materializerDependencyTemplateConstant, errMaterializerDependencyMissing, referenceReaderDependencyConstant)
	case repository == nil:
		return nil, fmt.Errorf(materializerDependencyTemplateConstant, errMaterializerDependencyMissing, repositoryDependencyConstant)
	case identityStore == nil:
		return nil, fmt.Errorf(materializerDependencyTemplateConstant, errMaterializerDependencyMissing, identityStoreDependencyConstant)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if sanitizer == nil {
		sanitizer = refname.NewDefaultSanitizer()
	}
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &TagMaterializer{
		logger:          logger,
		referenceReader: referenceReader,
		repository:      repository,
		identityStore:   identityStore,
		sanitizer:       sanitizer,
		fileSystem:      fileSystem,
	}, nil
}

// Materialize converts every tag ref into an annotated tag carrying the source commit's
// subject, author and committer date, then removes the tracking ref. The committer identity
// is swapped per tag and restored before returning, on success and on failure alike. The
// rename map is written to mappingLogName inside the repository when any label changed.
func (materializer *TagMaterializer) Materialize(executionContext context.Context, repositoryPath string, tags []refs.TrackingReference, mappingLogName string) (result TagPhaseResult, phaseError error) {
	if len(tags) == 0 {
		return TagPhaseResult{}, nil
	}

	originalIdentity, readError := materializer.identityStore.ReadCommitterIdentity(executionContext, repositoryPath)
	if readError != nil {
		return TagPhaseResult{}, fmt.Errorf(readIdentityErrorTemplateConstant, readError)
	}

	renameLog := &RenameLog{}
	usedNames := refname.NewUsedNames()

	defer func() {
		finalizationContext := context.WithoutCancel(executionContext)

		var restoreError error
		if restoreFailure := materializer.identityStore.RestoreCommitterIdentity(finalizationContext, repositoryPath, originalIdentity); restoreFailure != nil {
			restoreError = fmt.Errorf(restoreIdentityErrorTemplateConstant, restoreFailure)
		}

		result.Renames = renameLog.Entries()

		var mappingError error
		if renameLog.Len() > 0 {
			result.MappingLogPath, mappingError = materializer.writeMappingLog(repositoryPath, mappingLogName, renameLog)
		}

		phaseError = errors.Join(phaseError, restoreError, mappingError)
	}()

	for _, tag := range tags {
		reused, tagName, tagError := materializer.materializeTag(executionContext, repositoryPath, tag, usedNames, renameLog)
		if tagError != nil {
			return result, tagError
		}
		if reused {
			result.ReusedTags = append(result.ReusedTags, tagName)
			continue
		}
		result.CreatedTags = append(result.CreatedTags, tagName)
	}

	return result, nil
}

func (materializer *TagMaterializer) materializeTag(executionContext context.Context, repositoryPath string, tag refs.TrackingReference, usedNames *refname.UsedNames, renameLog *RenameLog) (bool, string, error) {
	tagName := materializer.sanitizer.Sanitize(tag.Label, usedNames)
	if tagName != tag.Label {
		renameLog.Record(tag.Label, tagName)
		materializer.logger.Info(
			tagRenamedMessageConstant,
			zap.String(logFieldTagSourceConstant, tag.Label),
			zap.String(logFieldTagTargetConstant, tagName),
		)
	}

	metadata, metadataError := materializer.referenceReader.ReadCommitMetadata(executionContext, repositoryPath, tag.FullName())
	if metadataError != nil {
		return false, tagName, fmt.Errorf(tagMetadataErrorTemplateConstant, tag.Name, metadataError)
	}

	if identityError := materializer.identityStore.SetCommitterIdentity(executionContext, repositoryPath, metadata.AuthorName, metadata.AuthorEmail); identityError != nil {
		return false, tagName, fmt.Errorf(swapIdentityErrorTemplateConstant, tagName, identityError)
	}

	reused, reuseError := materializer.existingTagMatches(executionContext, repositoryPath, tag, tagName)
	if reuseError != nil {
		return false, tagName, reuseError
	}

	if !reused {
		subject := metadata.Subject
		if len(strings.TrimSpace(subject)) == 0 {
			subject = tag.Label
		}
		if createError := materializer.repository.CreateAnnotatedTag(executionContext, repositoryPath, tagName, subject, tag.FullName(), metadata.CommitterDate); createError != nil {
			return false, tagName, fmt.Errorf(tagCreationErrorTemplateConstant, tagName, createError)
		}
	}

	if deleteError := materializer.repository.DeleteRemoteBranch(executionContext, repositoryPath, tag.Name); deleteError != nil {
		return reused, tagName, fmt.Errorf(tagTrackingErrorTemplateConstant, tagName, deleteError)
	}

	logMessage := tagMaterializedMessageConstant
	if reused {
		logMessage = tagReusedMessageConstant
	}
	materializer.logger.Info(
		logMessage,
		zap.String(logFieldTagSourceConstant, tag.Name),
		zap.String(logFieldTagTargetConstant, tagName),
		zap.String(logFieldTagAuthorConstant, metadata.AuthorName),
		zap.String(logFieldTagCommitterDateConstant, metadata.CommitterDate),
	)
	return reused, tagName, nil
}

// existingTagMatches reports whether refs/tags/<tagName> already exists and peels to the
// tracking ref's commit. A tag pointing elsewhere is left for git tag to reject.
func (materializer *TagMaterializer) existingTagMatches(executionContext context.Context, repositoryPath string, tag refs.TrackingReference, tagName string) (bool, error) {
	existingCommit, exists, lookupError := materializer.referenceReader.ResolveTag(executionContext, repositoryPath, tagName)
	if lookupError != nil {
		return false, fmt.Errorf(tagLookupErrorTemplateConstant, tagName, lookupError)
	}
	if !exists {
		return false, nil
	}

	sourceCommit, resolved, sourceError := materializer.referenceReader.ResolveCommit(executionContext, repositoryPath, tag.FullName())
	if sourceError != nil {
		return false, fmt.Errorf(tagSourceErrorTemplateConstant, tag.Name, sourceError)
	}
	return resolved && sourceCommit == existingCommit, nil
}

func (materializer *TagMaterializer) writeMappingLog(repositoryPath string, mappingLogName string, renameLog *RenameLog) (string, error) {
	mappingLogPath := filepath.Join(repositoryPath, mappingLogName)
	if writeError := afero.WriteFile(materializer.fileSystem, mappingLogPath, []byte(renameLog.String()), mappingLogPermissionsConstant); writeError != nil {
		return "", fmt.Errorf(mappingLogWriteErrorTemplateConstant, mappingLogPath, writeError)
	}
	materializer.logger.Info(
		mappingLogWrittenMessageConstant,
		zap.String(logFieldMappingLogPathConstant, mappingLogPath),
		zap.Int(logFieldRenameCountConstant, renameLog.Len()),
	)
	return mappingLogPath, nil
}
