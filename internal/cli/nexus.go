package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	nexusField         string
	nexusSpectrum      int
	nexusSpectrumRange bool
)

var nexusCmd = &cobra.Command{
	Use:   "nexus <source> <run>...",
	Short: "Print NeXus data of runs as returned by the backend",
	Long: `Query the backend for NeXus data of one or more runs and print the reply.
Without flags the available log fields are listed.

Examples:
  jv nexus "ISIS Journal Archive" 45121
  jv nexus "ISIS Journal Archive" 45121 45122 --field temperature
  jv nexus local 1002 --spectrum-range
  jv nexus local 1002 --spectrum 3`,
	Args: cobra.MinimumNArgs(2),
	RunE: runNexus,
}

func init() {
	nexusCmd.Flags().StringVar(&nexusField, "field", "", "print the time series of this log field")
	nexusCmd.Flags().IntVar(&nexusSpectrum, "spectrum", -1, "print this spectrum")
	nexusCmd.Flags().BoolVar(&nexusSpectrumRange, "spectrum-range", false, "print the number of spectra")
	nexusCmd.MarkFlagsMutuallyExclusive("field", "spectrum", "spectrum-range")
}

func runNexus(cmd *cobra.Command, args []string) error {
	src, err := lookupSource(args[0])
	if err != nil {
		return err
	}
	desc, runs := src.Descriptor(instrument), args[1:]

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ClientTimeout)
	defer cancel()

	var reply json.RawMessage
	switch {
	case nexusField != "":
		reply, err = backend.GetNexusLogValueData(ctx, desc, runs, nexusField)
	case nexusSpectrumRange:
		reply, err = backend.GetNexusSpectrumRange(ctx, desc, runs)
	case nexusSpectrum >= 0:
		reply, err = backend.GetNexusSpectrum(ctx, desc, runs, nexusSpectrum)
	default:
		reply, err = backend.GetNexusFields(ctx, desc, runs)
	}
	if err != nil {
		return explain(err)
	}
	return printRaw(os.Stdout, reply)
}

// printRaw writes a JSON reply indented, or as-is when it is not JSON.
func printRaw(out io.Writer, reply []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, reply, "", "  "); err != nil {
		buf.Reset()
		buf.Write(bytes.TrimSpace(reply))
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(out)
	return err
}
