package utils

import "context"

type Downloader interface {
	Download(ctx context.Context, job *Job) error
	BuildJob(job *Job) error
	ValidateJob(job *Job) error
}

// TaskContext is the write-only handle a downloader uses to report state.
// The CLI scheduler and the HTTP task registry both provide one; downloaders
// never read status back through it.
type TaskContext interface {
	SetStatus(status string)
	SetMessage(message string)
	SetProgress(fraction float64)
}

type Job struct {
	ID               string
	JobType          string
	URL              string
	OutputPath       string
	StreamFunc       func(line string)
	Task             TaskContext
	Metadata         map[string]any
	HTTPClientConfig HTTPClientConfig
}

func (j *Job) Progress(fraction float64) {
	if j.Task != nil {
		j.Task.SetProgress(fraction)
	}
}

func (j *Job) Status(status string) {
	if j.Task != nil {
		j.Task.SetStatus(status)
	}
}

func (j *Job) Message(message string) {
	if j.Task != nil {
		j.Task.SetMessage(message)
	}
}

func (j *Job) Stream(line string) {
	if j.StreamFunc != nil {
		j.StreamFunc(line)
	}
}
