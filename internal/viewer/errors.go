package viewer

import (
	"errors"

	"github.com/raphaelgruber/journal-viewer/internal/jobs"
	"github.com/raphaelgruber/journal-viewer/internal/models"
	"github.com/raphaelgruber/journal-viewer/internal/rundata"
	"github.com/raphaelgruber/journal-viewer/internal/source"
)

// Describe maps any error to the title and message shown to the user.
func Describe(err error) models.ErrorInfo {
	switch {
	case errors.Is(err, source.ErrUnavailable):
		return models.ErrorInfo{Title: "Source Unavailable", Message: "This source is marked unavailable."}
	case errors.Is(err, source.ErrUnknownSource):
		return models.ErrorInfo{Title: "Unknown Source", Message: err.Error()}
	case errors.Is(err, source.ErrUnknownJournal):
		return models.ErrorInfo{Title: "Unknown Journal", Message: "The journal is not in this source's index. Refresh the source and try again."}
	case errors.Is(err, source.ErrBusy):
		return models.ErrorInfo{Title: "Source Busy", Message: "A job is running for this source."}
	case errors.Is(err, source.ErrInvalidTransition):
		return models.ErrorInfo{Title: "Source Busy", Message: err.Error()}
	case errors.Is(err, rundata.ErrNotLoaded), errors.Is(err, ErrNoJournal):
		return models.ErrorInfo{Title: "No Journal Loaded", Message: "Open a journal first."}
	case errors.Is(err, ErrRunNotFound):
		return models.ErrorInfo{Title: "Run Not Found", Message: err.Error()}
	case errors.Is(err, ErrNoSource):
		return models.ErrorInfo{Title: "No Source Selected", Message: "Select a source first."}
	}
	return jobs.Describe(err)
}
