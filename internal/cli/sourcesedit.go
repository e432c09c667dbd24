package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/journal-viewer/internal/source"
)

var addSource source.SourceEntry
var addUnavailable bool

var sourcesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a user-defined source",
	Long: `Add a user-defined source and save it to JV_SOURCES_FILE.

Examples:
  jv sources add local --type Generated --root /data/{instrument} --organisation RBNumber
  jv sources add mirror --type Network --url http://mirror.example/{instrument} --index-file journal_main.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runSourcesAdd,
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove <source>",
	Short: "Remove a user-defined source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesRemove,
}

var sourcesRenameCmd = &cobra.Command{
	Use:   "rename <source> <name>",
	Short: "Rename a user-defined source",
	Args:  cobra.ExactArgs(2),
	RunE:  runSourcesRename,
}

func init() {
	f := sourcesAddCmd.Flags()
	f.StringVar(&addSource.Type, "type", "Generated", "indexing type (Network or Generated)")
	f.StringVar(&addSource.JournalRootURL, "url", "", "journal root URL of a network source")
	f.StringVar(&addSource.IndexFile, "index-file", "journal_main.xml", "index file of a network source")
	f.StringVar(&addSource.RunDataRoot, "root", "", "run-data root of a generated source")
	f.StringVar(&addSource.Organisation, "organisation", "RBNumber", "run-data layout (Directory or RBNumber)")
	f.StringVar(&addSource.RootSelector, "root-selector", "", "regular expression selecting top-level directories")
	f.StringVar(&addSource.InstrumentPath, "instrument-path", "", "instrument directory template with {name}")
	f.BoolVar(&addUnavailable, "unavailable", false, "add the source disabled")

	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)
	sourcesCmd.AddCommand(sourcesRenameCmd)
}

func runSourcesAdd(cmd *cobra.Command, args []string) error {
	entry := addSource
	entry.Name = args[0]
	if entry.Type != "Network" {
		entry.JournalRootURL, entry.IndexFile = "", ""
	}
	if addUnavailable {
		entry.Available = new(bool)
	}

	src, err := entry.Build()
	if err != nil {
		return err
	}
	if err := registry.Add(src); err != nil {
		return err
	}
	if err := saveSources(); err != nil {
		return err
	}
	fmt.Printf("Added %s source %q\n", src.Indexing(), src.Name())
	return nil
}

func runSourcesRemove(cmd *cobra.Command, args []string) error {
	src, err := lookupSource(args[0])
	if err != nil {
		return err
	}
	if err := registry.Remove(src.ID()); err != nil {
		return err
	}
	if err := saveSources(); err != nil {
		return err
	}
	fmt.Printf("Removed source %q\n", src.Name())
	return nil
}

func runSourcesRename(cmd *cobra.Command, args []string) error {
	src, err := lookupSource(args[0])
	if err != nil {
		return err
	}
	old := src.Name()
	if err := registry.Rename(src.ID(), args[1]); err != nil {
		return err
	}
	if err := saveSources(); err != nil {
		return err
	}
	fmt.Printf("Renamed source %q to %q\n", old, src.Name())
	return nil
}

func saveSources() error {
	if err := source.SaveUserSources(cfg.SourcesFile, registry.Sources()); err != nil {
		return fmt.Errorf("save user sources: %w", err)
	}
	logger.Info("user sources saved", "path", cfg.SourcesFile)
	return nil
}
