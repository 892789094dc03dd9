package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aretw0/switchboard/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Output formats for ListControllers.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ListControllers prints the loaded controllers in the requested format.
func ListControllers(app *App, format string, w io.Writer) error {
	return writeDescriptors(app.Engine.Descriptors(), format, w)
}

func writeDescriptors(descs []domain.Descriptor, format string, w io.Writer) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(descs)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(descs); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable, "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CONTROLLER\tENTRY TOOL\tSAFE\tSENSITIVE")
		for _, d := range descs {
			entry := d.EntryTool
			if entry == "" {
				entry = "(primary)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", d.Name, entry, len(d.SafeTools), len(d.SensitiveTools))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (expected table, json or yaml)", format)
	}
}
