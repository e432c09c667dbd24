package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raphaelgruber/journal-viewer/internal/viewer"
)

var (
	searchFields        []string
	searchCaseSensitive bool
	searchAcquire       bool
)

var searchCmd = &cobra.Command{
	Use:   "search <source>",
	Short: "Search run data across all journals of a source",
	Long: `Search every journal of a source for runs matching all given fields.
Network sources must have their journals cached by the backend; pass
--acquire to fetch any missing journals before searching.

Examples:
  jv search "ISIS Journal Archive" --field title=vanadium
  jv search local --field user_name=Smith --field run_number=451 --case-sensitive
  jv search "ISIS Journal Archive" --field title=empty --acquire`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringArrayVarP(&searchFields, "field", "f", nil, "field to match as key=value (repeatable)")
	searchCmd.Flags().BoolVarP(&searchCaseSensitive, "case-sensitive", "c", false, "match values case-sensitively")
	searchCmd.Flags().BoolVarP(&searchAcquire, "acquire", "a", false, "acquire uncached journals before searching")
}

func parseFields(pairs []string) (map[string]string, error) {
	fields := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, expected key=value", pair)
		}
		fields[key] = value
	}
	return fields, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	fields, err := parseFields(searchFields)
	if err != nil {
		return err
	}

	s := newSession(context.Background())
	if err := s.run(s.m.SelectSource(args[0])); err != nil {
		return err
	}

	req := viewer.SearchRequest{Fields: fields, CaseSensitive: searchCaseSensitive}
	if err := s.run(s.m.Search(req)); err != nil {
		return err
	}

	if pending, ok := s.acquisitionRequired(); ok {
		if !searchAcquire {
			return fmt.Errorf("%s journals are not cached yet, rerun with --acquire", humanize.Comma(int64(pending.Uncached)))
		}
		fmt.Printf("Acquiring %s journals...\n", humanize.Comma(int64(pending.Uncached)))
		s.observe = progressPrinter(os.Stderr)
		if err := s.run(s.m.AcquireForSearch()); err != nil {
			return err
		}
	}

	return printView(s.m, "")
}
