package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-krea-generate/internal/history"
	"go-krea-generate/internal/operations"
)

var (
	generateModel       string
	generateCount       int
	generateAspectRatio string
	generateResolution  string
	generateEditSource  string
	generateStrength    float64
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate \"prompt\"",
	Short: "Generate an image from a text prompt (or edit an existing one)",
	Long: `Generates images with the Nano Banana models. With --edit the prompt is
applied to an existing image instead: pass a URL, a local file (uploaded via
FTP first), or "last" to chain on the most recent result.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateModel, "model", "m", "nano", "Generation model: nano or pro")
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 1, "Number of images to generate sequentially")
	generateCmd.Flags().StringVarP(&generateAspectRatio, "aspect-ratio", "a", "", "Aspect ratio, e.g. 1:1, 16:9 (default 1:1)")
	generateCmd.Flags().StringVarP(&generateResolution, "resolution", "r", "", "Resolution for the pro model: 1K, 2K, 4K")
	generateCmd.Flags().StringVarP(&generateEditSource, "edit", "e", "", "Edit source: URL, local file, or \"last\"")
	generateCmd.Flags().Float64VarP(&generateStrength, "strength", "s", 0.8, "Edit strength (0..1)")

	viper.BindPFlag("generate.model", generateCmd.Flags().Lookup("model"))
	viper.BindPFlag("generate.aspect_ratio", generateCmd.Flags().Lookup("aspect-ratio"))
}

func runGenerate(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(args[0])
	if prompt == "" {
		return errors.New("prompt must not be empty")
	}

	// Bound keys let config.toml supply defaults; an explicit flag still wins
	// through viper's precedence.
	if v := viper.GetString("generate.model"); v != "" {
		generateModel = v
	}
	if v := viper.GetString("generate.aspect_ratio"); v != "" && !cmd.Flags().Changed("aspect-ratio") {
		generateAspectRatio = v
	}

	if generateModel != "nano" && generateModel != "pro" {
		return fmt.Errorf("unknown model %q (expected nano or pro)", generateModel)
	}
	if generateResolution != "" {
		switch generateResolution {
		case "1K", "2K", "4K":
			if generateModel != "pro" {
				return errors.New("--resolution requires --model pro")
			}
		default:
			return fmt.Errorf("unknown resolution %q (expected 1K, 2K, or 4K)", generateResolution)
		}
	}
	if generateCount < 1 {
		generateCount = 1
	}

	runner, store, err := newRunner()
	if err != nil {
		return err
	}
	defer store.Close()

	params := operations.GenerateParams{
		Prompt:       prompt,
		Model:        generateModel,
		AspectRatio:  generateAspectRatio,
		Resolution:   generateResolution,
		EditStrength: generateStrength,
	}

	if generateEditSource != "" {
		resolved, err := runner.ResolveSource(generateEditSource)
		if err != nil {
			if errors.Is(err, history.ErrNoHistory) {
				return errors.New("no previous image to edit; generate one first")
			}
			return err
		}
		params.SourceURL = resolved.URL

		// Editing the last image inherits its aspect ratio unless overridden.
		if generateEditSource == operations.SourceLast && !cmd.Flags().Changed("aspect-ratio") {
			if latest, err := store.Latest(); err == nil && latest.AspectRatio != "" {
				params.AspectRatio = latest.AspectRatio
				log.Debugf("Inheriting aspect ratio %s from last image", latest.AspectRatio)
			}
		}
	}

	progress, stop := startProgress("Generating")
	runner.Progress = progress
	defer stop()

	var totalCost float64
	var lastFolder string
	for i := 0; i < generateCount; i++ {
		if generateCount > 1 {
			log.Infof("Image %d of %d", i+1, generateCount)
		}
		rec, err := runner.Generate(params)
		if err != nil {
			return err
		}
		totalCost += rec.Cost
		lastFolder = filepath.Dir(rec.LocalPath)
		log.Infof("Saved: %s", rec.LocalPath)
	}
	stop()

	fmt.Printf("Done. %d image(s) in %s (estimated cost $%.2f)\n", generateCount, lastFolder, totalCost)
	return nil
}
