package models

// TaskStatus is the caller-facing state of a generation task.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Workflow types understood by the generator.
const (
	WorkflowShortVideo = "short_video"
	WorkflowBookVideo  = "book_video"
)
