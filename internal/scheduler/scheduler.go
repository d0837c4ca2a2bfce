package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"dvrgrab/internal/downloaders/hls"
	"dvrgrab/internal/downloaders/streamlink"
	"dvrgrab/internal/output"
	"dvrgrab/internal/utils"
)

var downloaderRegistry = map[string]utils.Downloader{
	"clip":   &hls.ClipDownloader{},
	"grab":   &hls.DirectDownloader{},
	"record": &streamlink.Downloader{},
}

// outputTask routes a running job's status reports into the live display.
type outputTask struct {
	manager *output.Manager
	jobID   int
}

func (t *outputTask) SetStatus(status string) {
	t.manager.SetStatus(t.jobID, status)
}

func (t *outputTask) SetMessage(message string) {
	t.manager.SetMessage(t.jobID, message)
}

func (t *outputTask) SetProgress(fraction float64) {
	t.manager.SetProgressLine(t.jobID, int64(fraction*1000), 1000, fmt.Sprintf("%.0f%%", fraction*100))
}

// Run validates, builds and downloads the given jobs across a bounded worker
// pool, rendering progress through the output manager. It returns an error
// if any job failed.
func Run(ctx context.Context, jobs []*utils.Job, workers int) error {
	if len(jobs) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	manager := output.NewManager()
	manager.StartDisplay()
	defer manager.StopDisplay()

	jobCh := make(chan *utils.Job, len(jobs))
	var wg sync.WaitGroup
	var failures sync.Map

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				runJob(ctx, job, manager, &failures)
			}
		}()
	}
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()

	failed := 0
	failures.Range(func(_, _ any) bool {
		failed++
		return true
	})
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(jobs))
	}
	return nil
}

func runJob(ctx context.Context, job *utils.Job, manager *output.Manager, failures *sync.Map) {
	downloader, ok := downloaderRegistry[job.JobType]
	if !ok {
		id := manager.RegisterJob(job.URL)
		manager.ReportError(id, fmt.Errorf("unknown job type %s", job.JobType))
		failures.Store(job.URL, true)
		return
	}

	id := manager.RegisterJob(displayName(job))
	job.Task = &outputTask{manager: manager, jobID: id}
	job.StreamFunc = func(line string) {
		manager.AddStreamLine(id, line)
	}

	log.Debug().Str("op", "scheduler").Msgf("Starting %s job for %s", job.JobType, job.URL)
	manager.SetMessage(id, "Validating job")
	if err := downloader.ValidateJob(job); err != nil {
		manager.ReportError(id, err)
		failures.Store(job.URL, true)
		return
	}
	manager.SetMessage(id, "Preparing job")
	if err := downloader.BuildJob(job); err != nil {
		manager.ReportError(id, err)
		failures.Store(job.URL, true)
		return
	}
	if err := downloader.Download(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			manager.ReportError(id, errors.New("cancelled"))
		} else {
			manager.ReportError(id, err)
		}
		failures.Store(job.URL, true)
		return
	}
	manager.Complete(id, fmt.Sprintf("Saved to %s", job.OutputPath))
}

func displayName(job *utils.Job) string {
	if title, ok := job.Metadata["title"].(string); ok && title != "" {
		return title
	}
	return job.URL
}
