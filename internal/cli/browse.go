package cli

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/raphaelgruber/journal-viewer/internal/viewer"
)

var browseCmd = &cobra.Command{
	Use:   "browse [source]",
	Short: "Browse journals interactively",
	Long: `Open the full-screen journal browser. Without a source argument the
first available source is opened. Logs go to the log file only.

Keys:
  tab / shift+tab   next / previous source
  ] / [             next / previous journal
  j / k             move selection
  /                 filter rows          f   find text
  n / N             next / previous match
  #                 jump to run          c   toggle case sensitivity
  g                 toggle grouping      u   check for new runs
  G / U             generate full / update index
  a                 acquire journals     A   acquire and resume search
  s                 stop job             r   return from search
  q                 quit

Examples:
  jv browse
  jv browse "ISIS Journal Archive" --instrument MARI`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ref := ""
	if len(args) == 1 {
		ref = args[0]
	} else {
		for _, src := range registry.Sources() {
			if src.Available() {
				ref = src.ID()
				break
			}
		}
	}
	if ref == "" {
		return fmt.Errorf("no available sources")
	}

	if _, err := lookupSource(ref); err != nil {
		return err
	}

	p := tea.NewProgram(newViewer(true, viewer.WithInitialSource(ref)))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser error: %w", err)
	}
	return nil
}
