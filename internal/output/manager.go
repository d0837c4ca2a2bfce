package output

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"dvrgrab/internal/utils"
)

type JobOutput struct {
	ID          int
	Name        string
	Status      string
	Message     string
	StreamLines []string
	Done        bool
	StartTime   time.Time
	LastUpdated time.Time
	Err         error
}

type ErrorReport struct {
	Name  string
	Err   error
	Time  time.Time
	JobID int
}

// Manager renders the live multi-job display for the CLI. All writers go
// through the mutex; the display goroutine is the only reader that prints.
type Manager struct {
	mu          sync.RWMutex
	jobs        map[int]*JobOutput
	errors      []ErrorReport
	jobCount    int
	numLines    int
	maxStreams  int
	displayTick time.Duration
	doneCh      chan struct{}
	displayWg   sync.WaitGroup
}

func NewManager() *Manager {
	return &Manager{
		jobs:        make(map[int]*JobOutput),
		maxStreams:  8,
		displayTick: 300 * time.Millisecond,
		doneCh:      make(chan struct{}),
	}
}

func (m *Manager) RegisterJob(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobCount++
	m.jobs[m.jobCount] = &JobOutput{
		ID:          m.jobCount,
		Name:        name,
		Status:      "pending",
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
	}
	return m.jobCount
}

func (m *Manager) SetMessage(id int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if info, ok := m.jobs[id]; ok {
		info.Message = message
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) SetStatus(id int, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if info, ok := m.jobs[id]; ok {
		info.Status = status
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) Complete(id int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if info, ok := m.jobs[id]; ok {
		info.StreamLines = nil
		if message == "" {
			message = fmt.Sprintf("Completed %s", info.Name)
		}
		info.Message = message
		info.Done = true
		info.Status = "success"
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if info, ok := m.jobs[id]; ok {
		info.Done = true
		info.Status = "error"
		info.Err = err
		info.Message = fmt.Sprintf("Failed: %v", err)
		info.StreamLines = nil
		info.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{Name: info.Name, Err: err, Time: time.Now(), JobID: id})
	}
}

func (m *Manager) AddStreamLine(id int, line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if info, ok := m.jobs[id]; ok {
		info.StreamLines = append(info.StreamLines, wrapText(line, 6)...)
		if len(info.StreamLines) > m.maxStreams {
			info.StreamLines = info.StreamLines[len(info.StreamLines)-m.maxStreams:]
		}
		info.LastUpdated = time.Now()
	}
}

// SetProgressLine replaces the stream area with a single progress bar line.
func (m *Manager) SetProgressLine(id int, outof, final int64, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if info, ok := m.jobs[id]; ok {
		bar := PrintProgressBar(max(0, outof), final, 30)
		if text == "" {
			elapsed := time.Since(info.StartTime).Round(time.Second).Seconds()
			text = utils.FormatSpeed(outof, elapsed)
		}
		display := fmt.Sprintf("%s %s", bar, debugStyle.Render(text))
		info.StreamLines = []string{display}
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) HasErrors() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.errors) > 0
}

func (m *Manager) statusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "warning":
		return warningStyle.Render(StyleSymbols["warning"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func (m *Manager) styledMessage(info *JobOutput) string {
	switch info.Status {
	case "success":
		return successStyle.Render(info.Message)
	case "error":
		return errorStyle.Render(info.Message)
	case "warning":
		return warningStyle.Render(info.Message)
	default:
		return pendingStyle.Render(info.Message)
	}
}

func (m *Manager) updateDisplay() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	availableLines := getTerminalHeight() - 3
	if m.numLines > 0 {
		fmt.Printf("\033[%dA\033[J", m.numLines)
	}

	ordered := make([]*JobOutput, 0, len(m.jobs))
	for _, info := range m.jobs {
		ordered = append(ordered, info)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	lineCount := 0
	for _, info := range ordered {
		if lineCount >= availableLines {
			break
		}
		elapsed := time.Since(info.StartTime).Round(time.Second)
		if info.Done {
			elapsed = info.LastUpdated.Sub(info.StartTime).Round(time.Second)
		}
		message := info.Message
		if message == "" {
			message = "Waiting..."
		}
		fmt.Printf("  %s %s %s\n", m.statusIndicator(info.Status), debugStyle.Render(elapsed.String()), m.styledMessage(info))
		lineCount++
		for _, line := range info.StreamLines {
			if lineCount >= availableLines {
				break
			}
			fmt.Printf("      %s\n", streamStyle.Render(line))
			lineCount++
		}
	}
	m.numLines = lineCount
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.mu.Lock()
				for _, info := range m.jobs {
					info.StreamLines = nil
				}
				m.mu.Unlock()
				m.updateDisplay()
				m.showSummary()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
}

func (m *Manager) showSummary() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fmt.Println()
	var success, failures int
	for _, info := range m.jobs {
		switch info.Status {
		case "success":
			success++
		case "error":
			failures++
		}
	}
	fmt.Println("  " + success2Style.Render(fmt.Sprintf("Completed %d of %d", success, len(m.jobs))))
	if failures > 0 {
		fmt.Println("  " + errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, len(m.jobs))))
	}
	if len(m.errors) > 0 {
		fmt.Println()
		fmt.Println("  " + errorStyle.Bold(true).Render("Errors:"))
		for i, report := range m.errors {
			fmt.Printf("    %s %s %s\n",
				errorStyle.Render(fmt.Sprintf("%d.", i+1)),
				debugStyle.Render(fmt.Sprintf("[%s]", report.Time.Format("15:04:05"))),
				errorStyle.Render(report.Name))
			fmt.Printf("      %s\n", errorStyle.Render(fmt.Sprintf("Error: %v", report.Err)))
		}
	}
	fmt.Println()
}
