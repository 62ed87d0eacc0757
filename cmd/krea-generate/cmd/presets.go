package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go-krea-generate/internal/presets"
)

// presetsCmd represents the presets command
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the upscale presets",
	Long: `Lists the preset catalog for the upscale command. Each preset tunes the
engine parameters for a class of source image and recommends an engine.`,
	Args: cobra.NoArgs,
	RunE: runPresets,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tENGINE\tDESCRIPTION")
	for _, tag := range presets.Tags {
		preset, err := presets.Lookup(tag)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", tag, preset.Engine, preset.Description)
	}
	return w.Flush()
}
