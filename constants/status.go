package constants

// JobStatus is the canonical status for rows in extraction_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning   JobStatus = "RUNNING"   // in progress
	JobStatusSucceeded JobStatus = "SUCCEEDED" // record written to the processed bucket
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)

// ParserMethod names the document parser variant that produced a record.
const (
	ParserMethodStructured = "structured"
	ParserMethodTextOnly   = "text-only"
)
