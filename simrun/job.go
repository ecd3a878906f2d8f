// Package simrun drives the external simulation engine binary across
// a bounded worker pool, one run per (building, variant) pair, with
// per-run timeout/kill and a persisted run store (spec.md §4.6).
package simrun

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a SimJob.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusComplete  Status = "complete"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
)

// SimJob is one request to run the engine against a single composed
// deck file and collect its result file(s).
type SimJob struct {
	ID         string
	BuildingID string
	VariantID  int
	EnginePath string
	DeckPath   string
	WorkDir    string
	ResultFile string
	Timeout    time.Duration

	Status    Status
	Stdout    string
	Stderr    string
	Submitted time.Time
	Started   time.Time
	Finished  time.Time
}

// NewSimJob allocates a job with a fresh id and StatusQueued.
func NewSimJob(buildingID string, variantID int, enginePath, deckPath, workDir, resultFile string, timeout time.Duration) *SimJob {
	return &SimJob{
		ID:         uuid.NewString(),
		BuildingID: buildingID,
		VariantID:  variantID,
		EnginePath: enginePath,
		DeckPath:   deckPath,
		WorkDir:    workDir,
		ResultFile: resultFile,
		Timeout:    timeout,
		Status:     StatusQueued,
		Submitted:  time.Now(),
	}
}

// Done reports whether the job reached a terminal state.
func (j *SimJob) Done() bool {
	return j.Status == StatusComplete || j.Status == StatusFailed || j.Status == StatusTimedOut
}

// Execute runs the engine binary against DeckPath inside WorkDir,
// killing the whole process group on timeout or on an external kill
// signal, mirroring the teacher's Job.Execute timeout/kill select.
func (j *SimJob) Execute(kill <-chan bool) {
	timeout := j.Timeout
	if timeout == 0 {
		timeout = 1 * time.Hour
	}
	j.Started = time.Now()
	defer func() { j.Finished = time.Now() }()

	if err := os.MkdirAll(j.WorkDir, 0o755); err != nil {
		j.Status = StatusFailed
		j.Stderr = err.Error()
		return
	}

	cmd := exec.Command(j.EnginePath, j.DeckPath)
	cmd.Dir = j.WorkDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		j.Status = StatusFailed
		j.Stderr = err.Error()
		return
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-time.After(timeout):
		killGroup(cmd)
		j.Status = StatusTimedOut
		j.Stderr = stderr.String() + fmt.Sprintf("\nkilled after timeout %s", timeout)
		<-done
	case <-kill:
		killGroup(cmd)
		j.Status = StatusFailed
		j.Stderr = stderr.String() + "\nkilled by dispatcher"
		<-done
	case err := <-done:
		j.Stdout = stdout.String()
		j.Stderr = stderr.String()
		if err != nil {
			j.Status = StatusFailed
			j.Stderr += "\n" + err.Error()
		} else if _, statErr := os.Stat(filepath.Join(j.WorkDir, j.ResultFile)); statErr != nil {
			j.Status = StatusFailed
			j.Stderr += "\nmissing expected result file " + j.ResultFile
		} else {
			j.Status = StatusComplete
		}
	}
}

func killGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
