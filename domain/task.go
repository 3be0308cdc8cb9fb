package domain

import "time"

// TaskStatus is the workflow position of a task. Values match the stored strings.
type TaskStatus string

const (
	StatusNotDone      TaskStatus = "Not Done"
	StatusInProgress   TaskStatus = "In Progress"
	StatusDone         TaskStatus = "Done"
	StatusNeedsChanges TaskStatus = "Needs Changes"
)

// Task is a unit of volunteer work created by an EPM and judged by a reviewer.
type Task struct {
	ID                int64      `json:"id"`
	Domain            string     `json:"domain"`
	Description       string     `json:"description"`
	FilePath          string     `json:"file_path,omitempty"`
	Status            TaskStatus `json:"status"`
	Feedback          string     `json:"feedback,omitempty"`
	SubmittedFilePath string     `json:"submitted_file_path,omitempty"`
	Creator           string     `json:"creator"`
	Reviewer          string     `json:"reviewer"`
	Volunteer         string     `json:"volunteer,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (t *Task) IsClaimed() bool {
	return t != nil && t.Volunteer != ""
}

func (t *Task) IsSubmitted() bool {
	return t != nil && t.SubmittedFilePath != ""
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusDone
}
