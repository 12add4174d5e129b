package migrate

const (
	safetyReasonDirtyWorktreeConstant           = "working tree has local pending changes"
	safetyReasonMissingSubversionRemoteConstant = "repository has no git svn remote configured"
	subversionRemoteURLConfigurationKeyConstant = "svn-remote.svn.url"
	maximumSafetyBlockingReasonsConstant        = 2
)

// SafetyInputs captures repository conditions that gate a rebase.
type SafetyInputs struct {
	WorktreeClean              bool
	SubversionRemoteRequired   bool
	SubversionRemoteConfigured bool
}

// SafetyStatus conveys whether it is safe to rebase the conversion.
type SafetyStatus struct {
	SafeToProceed   bool
	BlockingReasons []string
}

// SafetyEvaluator evaluates safety inputs to produce a status.
type SafetyEvaluator struct{}

// Evaluate determines whether the rebase may proceed.
func (SafetyEvaluator) Evaluate(inputs SafetyInputs) SafetyStatus {
	blockingReasons := make([]string, 0, maximumSafetyBlockingReasonsConstant)
	if !inputs.WorktreeClean {
		blockingReasons = append(blockingReasons, safetyReasonDirtyWorktreeConstant)
	}
	if inputs.SubversionRemoteRequired && !inputs.SubversionRemoteConfigured {
		blockingReasons = append(blockingReasons, safetyReasonMissingSubversionRemoteConstant)
	}

	return SafetyStatus{SafeToProceed: len(blockingReasons) == 0, BlockingReasons: blockingReasons}
}
