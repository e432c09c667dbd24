package jobs

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/journal-viewer/internal/client"
	"github.com/raphaelgruber/journal-viewer/internal/models"
)

// Sentinel errors for job outcomes.
var (
	// ErrNoFilesFound means generate/list found nothing to index.
	ErrNoFilesFound = errors.New("no data files found")

	// ErrFinaliseFailed means the backend did not report a successful finalise.
	ErrFinaliseFailed = errors.New("index finalise did not succeed")

	// ErrCancelled means the user stopped the job.
	ErrCancelled = errors.New("job cancelled")

	// ErrNotGenerated means generation was requested for a source that is not
	// indexed by generation.
	ErrNotGenerated = errors.New("source is not a generated source")
)

// ConflictError rejects a job because another job holds the slot it needs.
type ConflictError struct {
	Kind     Kind
	Blocking string // name of the source holding the slot
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already in progress for source %q", e.Kind, e.Blocking)
}

// Describe maps any error produced by a job or the backend to the title and
// message shown to the user.
func Describe(err error) models.ErrorInfo {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		return models.ErrorInfo{
			Title:   "Job In Progress",
			Message: fmt.Sprintf("Journal %s is already in progress for %q. Wait for it to finish or stop it first.", conflict.Kind, conflict.Blocking),
		}
	case errors.Is(err, ErrNoFilesFound):
		return models.ErrorInfo{
			Title:   "No Data Files Found",
			Message: "No data files were found under the source's run-data root. Check the run-data location and data organisation.",
		}
	case errors.Is(err, ErrFinaliseFailed):
		return models.ErrorInfo{
			Title:   "Generation Failed",
			Message: "The backend could not write the generated journal index.",
		}
	case errors.Is(err, ErrCancelled):
		return models.ErrorInfo{
			Title:   "Job Cancelled",
			Message: "The job was stopped before it completed.",
		}
	case errors.Is(err, client.ErrNotRunning):
		return models.ErrorInfo{
			Title:   "Job Stopped Unexpectedly",
			Message: "The backend is no longer running the job.",
		}
	case errors.Is(err, ErrNotGenerated):
		return models.ErrorInfo{
			Title:   "Cannot Generate",
			Message: "Only generated sources can have their index regenerated.",
		}
	}
	return client.Describe(err)
}
