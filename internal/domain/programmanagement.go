package domain

// ProgramManagementRequest is read from the trigger node's sibling
// parameters on the rising edge of Ctrl (spec.md §4.6 step 1).
type ProgramManagementRequest struct {
	MachineName string
	Filepath    string
	ID          string
	MainFile    string
}

// ProgramManagementResult is written back after the workflow completes,
// terminal regardless of outcome (spec.md §3 "Program-management workflow
// state").
type ProgramManagementResult struct {
	Stat      bool
	Exception string
}

func ProgramManagementSuccess() ProgramManagementResult {
	return ProgramManagementResult{Stat: true}
}

func ProgramManagementFailure(msg string) ProgramManagementResult {
	return ProgramManagementResult{Stat: true, Exception: msg}
}
