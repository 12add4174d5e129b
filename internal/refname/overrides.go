package refname

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	overrideFileSystemMissingMessageConstant = "override file system not configured"
	overrideFileReadErrorTemplateConstant    = "unable to read tag rename overrides %s: %w"
	overrideFileParseErrorTemplateConstant   = "unable to parse tag rename overrides %s: %w"
	overrideEmptyTargetErrorTemplateConstant = "tag rename override for %q has an empty target"
)

// ErrOverrideFileSystemMissing indicates that no file system was supplied for loading overrides.
var ErrOverrideFileSystemMissing = errors.New(overrideFileSystemMissingMessageConstant)

// OverrideTable maps exact raw labels to their hand-picked target names.
type OverrideTable map[string]string

// DefaultOverrideTable returns the built-in overrides for labels whose generic normalization
// would not match established tag names.
func DefaultOverrideTable() OverrideTable {
	return OverrideTable{
		"Version 2.7.1 using updated Peter's Data Entry Suite": "v2.7.1-peters-data-entry-suite",
		"Version 2.7.1":                               "Version_2.7.1",
		"Version 3.0.13 First C# Release":             "Version_3.0.13_First_Csharp_Release",
		"Version 2.8.0 Last VB Release":               "Version_2.8.0_Last_VB_Release",
		"Version 3.0.14 Release, Manual Accruals Fix": "Version_3.0.14_Release_Manual_Accruals_Fix",
	}
}

// Lookup returns the override target for rawName.
func (table OverrideTable) Lookup(rawName string) (string, bool) {
	if table == nil {
		return "", false
	}
	targetName, exists := table[rawName]
	return targetName, exists
}

// Clone returns an independent copy of the table.
func (table OverrideTable) Clone() OverrideTable {
	if table == nil {
		return nil
	}
	duplicatedTable := make(OverrideTable, len(table))
	for rawName, targetName := range table {
		duplicatedTable[rawName] = targetName
	}
	return duplicatedTable
}

// Merge returns a copy of the table with additional entries applied on top.
func (table OverrideTable) Merge(additional OverrideTable) OverrideTable {
	mergedTable := table.Clone()
	if mergedTable == nil {
		mergedTable = make(OverrideTable, len(additional))
	}
	for rawName, targetName := range additional {
		mergedTable[rawName] = targetName
	}
	return mergedTable
}

// OverrideLoader reads operator supplied override tables from YAML mapping files.
type OverrideLoader struct {
	fileSystem afero.Fs
}

// NewOverrideLoader constructs an OverrideLoader over the provided file system.
func NewOverrideLoader(fileSystem afero.Fs) (*OverrideLoader, error) {
	if fileSystem == nil {
		return nil, ErrOverrideFileSystemMissing
	}
	return &OverrideLoader{fileSystem: fileSystem}, nil
}

// Load parses a YAML document of the form `raw label: target name`.
func (loader *OverrideLoader) Load(filePath string) (OverrideTable, error) {
	fileContents, readError := afero.ReadFile(loader.fileSystem, filePath)
	if readError != nil {
		return nil, fmt.Errorf(overrideFileReadErrorTemplateConstant, filePath, readError)
	}

	parsedEntries := map[string]string{}
	if parseError := yaml.Unmarshal(fileContents, &parsedEntries); parseError != nil {
		return nil, fmt.Errorf(overrideFileParseErrorTemplateConstant, filePath, parseError)
	}

	table := make(OverrideTable, len(parsedEntries))
	for rawName, targetName := range parsedEntries {
		trimmedTarget := strings.TrimSpace(targetName)
		if len(trimmedTarget) == 0 {
			return nil, fmt.Errorf(overrideEmptyTargetErrorTemplateConstant, rawName)
		}
		table[rawName] = trimmedTarget
	}
	return table, nil
}
