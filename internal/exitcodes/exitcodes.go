package exitcodes

// Exit codes for sweeper.
// These codes form the contract with scripts and CI jobs.
const (
	Success         = 0 // Run finished with no errors
	Failure         = 1 // Run finished but some items could not be scanned or deleted
	InvalidConfig   = 2 // Configuration file or flags invalid
	SafetyViolation = 3 // Pre-flight or safety validator refused the run
	RuntimeError    = 4 // Unexpected error, including an unusable root
)
