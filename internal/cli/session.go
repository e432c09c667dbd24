package cli

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/raphaelgruber/journal-viewer/internal/eventloop"
	"github.com/raphaelgruber/journal-viewer/internal/jobs"
	"github.com/raphaelgruber/journal-viewer/internal/models"
	"github.com/raphaelgruber/journal-viewer/internal/viewer"
)

// session drives a viewer without a terminal UI, one operation at a time.
type session struct {
	ctx     context.Context
	m       *viewer.Model
	msgs    []tea.Msg
	observe func(tea.Msg)
}

func newSession(ctx context.Context) *session {
	return &session{ctx: ctx, m: newViewer(false)}
}

// run takes the (cmd, err) pair of a viewer operation and drives it until
// the model settles. The first failure the model reports is returned.
func (s *session) run(cmd tea.Cmd, err error) error {
	if err != nil {
		return explain(err)
	}

	var failure error
	s.msgs = s.msgs[:0]
	_, err = eventloop.RunWithOptions(s.ctx, s.m, eventloop.Options{
		Observe: func(msg tea.Msg) {
			s.msgs = append(s.msgs, msg)
			if s.observe != nil {
				s.observe(msg)
			}
			if failure != nil {
				return
			}
			switch msg := msg.(type) {
			case viewer.FailedMsg:
				failure = explainInfo(msg.Info, msg.Err)
			case jobs.FinishedMsg:
				if msg.Err != nil {
					failure = explain(msg.Err)
				}
			}
		},
	}, cmd)
	if err != nil {
		return err
	}
	return failure
}

// acquisitionRequired returns the acquisition request from the last run.
func (s *session) acquisitionRequired() (viewer.AcquisitionRequiredMsg, bool) {
	for _, msg := range s.msgs {
		if req, ok := msg.(viewer.AcquisitionRequiredMsg); ok {
			return req, true
		}
	}
	return viewer.AcquisitionRequiredMsg{}, false
}

// open selects a source and, optionally, one of its journals.
func (s *session) open(sourceRef, journal string) error {
	if err := s.run(s.m.SelectSource(sourceRef)); err != nil {
		return err
	}
	if journal == "" {
		return nil
	}
	return s.run(s.m.SelectJournal(journal))
}

func explain(err error) error {
	return explainInfo(viewer.Describe(err), err)
}

func explainInfo(info models.ErrorInfo, err error) error {
	return fmt.Errorf("%s: %s (%w)", info.Title, info.Message, err)
}
