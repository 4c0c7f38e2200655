package constants

// RunStatus is the canonical status reported for a pipeline run.
type RunStatus string

// Stable values (these exact strings appear in run summaries and logs).
const (
	RunStatusRunning RunStatus = "RUNNING" // in progress
	RunStatusOCROK   RunStatus = "OCR_OK"  // stage 1 completed (pages recognized)
	RunStatusLLMOK   RunStatus = "LLM_OK"  // stage 2 completed (fields extracted)
	RunStatusPartial RunStatus = "PARTIAL" // finished with per-page failures
	RunStatusFailed  RunStatus = "FAILED"  // terminal failure
)
