package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List journal sources",
	Long: `List the built-in and user-defined journal sources.

Examples:
  jv sources
  jv sources --verbose`,
	Args: cobra.NoArgs,
	RunE: runSources,
}

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "List instruments and their run-data columns",
	Args:  cobra.NoArgs,
	RunE:  runInstruments,
}

var journalsCmd = &cobra.Command{
	Use:   "journals <source>",
	Short: "Print a source's journal index",
	Long: `Fetch and print the journal index of a source for the active instrument.

Examples:
  jv journals "ISIS Journal Archive"
  jv journals local --instrument LET`,
	Args: cobra.ExactArgs(1),
	RunE: runJournals,
}

func runSources(cmd *cobra.Command, args []string) error {
	sources := registry.Sources()
	fmt.Printf("Sources (%d):\n\n", len(sources))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tAVAILABLE\tORIGIN\tLOCATION")
	for _, src := range sources {
		origin := "built-in"
		if src.UserDefined() {
			origin = "user"
		}
		desc := src.Descriptor(instrument)
		location := desc.JournalRootURL
		if location == "" {
			location = desc.RunDataRoot
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n", src.ID(), src.Name(), src.Indexing(), src.Available(), origin, location)
	}
	w.Flush()

	if verbose {
		for _, src := range sources {
			def := src.Definition()
			if def.RunDataRoot != "" {
				fmt.Printf("\n%s: organisation %s, root selector %s\n", src.Name(), def.Organisation, src.RootSelector())
			}
		}
	}
	return nil
}

func runInstruments(cmd *cobra.Command, args []string) error {
	fmt.Printf("Instruments (%d):\n\n", len(instruments))
	for _, inst := range instruments {
		mark := " "
		if inst.Name() == instrument.Name() {
			mark = ">"
		}
		fmt.Printf("%s %s [%s]", mark, inst.Name(), inst.Type())
		if alt := inst.AlternativeName(); alt != "" {
			fmt.Printf(" (%s)", alt)
		}
		if inst.UserDefined() {
			fmt.Print(" [user]")
		}
		fmt.Println()
		if verbose {
			for _, c := range inst.Columns() {
				fmt.Printf("    %s -> %s\n", c.Title, c.Key)
			}
		}
	}
	return nil
}

func runJournals(cmd *cobra.Command, args []string) error {
	s := newSession(context.Background())
	if err := s.open(args[0], ""); err != nil {
		return err
	}

	src, _ := s.m.Registry().Selected()
	journals := src.Journals()
	if len(journals) == 0 {
		fmt.Println("No journals found.")
		return nil
	}

	current := ""
	if j, ok := src.CurrentJournal(); ok {
		current = j.Filename
	}
	fmt.Printf("Journals of %s for %s (%d):\n\n", src.Name(), instrument.Name(), len(journals))
	printJournals(os.Stdout, journals, current)
	return nil
}
