package cmd

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-krea-generate/internal/history"
	"go-krea-generate/internal/models"
	"go-krea-generate/internal/operations"
	"go-krea-generate/internal/presets"
)

var (
	upscaleEngine       string
	upscalePreset       string
	upscaleScale        int
	upscaleOutputFormat string
	upscaleWidth        int
	upscaleHeight       int
	upscaleInteractive  bool

	upscaleModel          string
	upscaleSharpen        float64
	upscaleDenoise        float64
	upscaleFixCompression float64
	upscaleFaceEnhance    bool

	upscaleCreativity    int
	upscaleFacePreserve  bool
	upscaleColorPreserve bool
	upscaleGuidance      string
)

// upscaleCmd represents the upscale command
var upscaleCmd = &cobra.Command{
	Use:   "upscale [source]",
	Short: "Upscale an image with the Topaz or Bloom engine",
	Long: `Upscales an image through one of two engines: Topaz for faithful
precision enhancement, Bloom for creative reimagining at high factors.
The source is a URL, a local file (uploaded via FTP first), or "last"
(the default) to chain on the most recent result.

A --preset tunes the engine parameters for a class of source image and
recommends an engine; an explicit --engine always wins over the preset.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpscale,
}

func init() {
	rootCmd.AddCommand(upscaleCmd)

	upscaleCmd.Flags().StringVar(&upscaleEngine, "engine", "", "Engine: topaz or bloom (overrides preset recommendation)")
	upscaleCmd.Flags().StringVarP(&upscalePreset, "preset", "p", "", "Preset tag (see 'krea-generate presets')")
	upscaleCmd.Flags().IntVarP(&upscaleScale, "scale", "x", 2, "Scale factor")
	upscaleCmd.Flags().StringVar(&upscaleOutputFormat, "output-format", "png", "Output format: png, jpg, webp")
	upscaleCmd.Flags().IntVar(&upscaleWidth, "width", 0, "Source image width in pixels (default 1024)")
	upscaleCmd.Flags().IntVar(&upscaleHeight, "height", 0, "Source image height in pixels (default 1024)")
	upscaleCmd.Flags().BoolVarP(&upscaleInteractive, "interactive", "i", false, "Prompt for engine and parameters")

	upscaleCmd.Flags().StringVar(&upscaleModel, "upscale-model", "Standard V2", "Topaz model name")
	upscaleCmd.Flags().Float64Var(&upscaleSharpen, "sharpen", 0.5, "Topaz sharpen amount (0..1)")
	upscaleCmd.Flags().Float64Var(&upscaleDenoise, "denoise", 0.3, "Topaz denoise amount (0..1)")
	upscaleCmd.Flags().Float64Var(&upscaleFixCompression, "fix-compression", 0.5, "Topaz compression fix amount (0..1)")
	upscaleCmd.Flags().BoolVar(&upscaleFaceEnhance, "face-enhancement", false, "Topaz face enhancement")

	upscaleCmd.Flags().IntVar(&upscaleCreativity, "creativity", 3, "Bloom creativity (1..9)")
	upscaleCmd.Flags().BoolVar(&upscaleFacePreserve, "face-preservation", false, "Bloom face preservation")
	upscaleCmd.Flags().BoolVar(&upscaleColorPreserve, "color-preservation", false, "Bloom color preservation")
	upscaleCmd.Flags().StringVar(&upscaleGuidance, "guidance", "", "Bloom guidance prompt")

	viper.BindPFlag("upscale.engine", upscaleCmd.Flags().Lookup("engine"))
	viper.BindPFlag("upscale.output_format", upscaleCmd.Flags().Lookup("output-format"))
}

// buildUpscaleParams merges preset defaults with explicit flag overrides.
// Flag values only replace preset values when the flag was actually set.
func buildUpscaleParams(cmd *cobra.Command) (operations.UpscaleParams, error) {
	params := operations.UpscaleParams{
		Scale:        upscaleScale,
		OutputFormat: upscaleOutputFormat,
		SourceWidth:  upscaleWidth,
		SourceHeight: upscaleHeight,
		Guidance:     upscaleGuidance,
		Topaz: models.TopazParams{
			Model:           upscaleModel,
			Sharpen:         upscaleSharpen,
			Denoise:         upscaleDenoise,
			FixCompression:  upscaleFixCompression,
			FaceEnhancement: upscaleFaceEnhance,
		},
		Bloom: models.BloomParams{
			Creativity:        upscaleCreativity,
			FacePreservation:  upscaleFacePreserve,
			ColorPreservation: upscaleColorPreserve,
		},
	}

	var engineOverride models.Engine
	if cmd.Flags().Changed("engine") {
		switch upscaleEngine {
		case string(models.EngineTopaz), string(models.EngineBloom):
			engineOverride = models.Engine(upscaleEngine)
		default:
			return params, fmt.Errorf("unknown engine %q (expected topaz or bloom)", upscaleEngine)
		}
	}

	if upscalePreset != "" {
		preset, err := presets.Lookup(upscalePreset)
		if err != nil {
			return params, err
		}
		log.Infof("Preset %s: %s", upscalePreset, preset.Description)

		params.Engine = presets.ChooseEngine(preset, engineOverride)
		params.Topaz = preset.Topaz
		params.Bloom = preset.Bloom

		// Explicit knobs still win over the preset bundle.
		if cmd.Flags().Changed("upscale-model") {
			params.Topaz.Model = upscaleModel
		}
		if cmd.Flags().Changed("sharpen") {
			params.Topaz.Sharpen = upscaleSharpen
		}
		if cmd.Flags().Changed("denoise") {
			params.Topaz.Denoise = upscaleDenoise
		}
		if cmd.Flags().Changed("fix-compression") {
			params.Topaz.FixCompression = upscaleFixCompression
		}
		if cmd.Flags().Changed("face-enhancement") {
			params.Topaz.FaceEnhancement = upscaleFaceEnhance
		}
		if cmd.Flags().Changed("creativity") {
			params.Bloom.Creativity = upscaleCreativity
		}
		if cmd.Flags().Changed("face-preservation") {
			params.Bloom.FacePreservation = upscaleFacePreserve
		}
		if cmd.Flags().Changed("color-preservation") {
			params.Bloom.ColorPreservation = upscaleColorPreserve
		}
	} else {
		params.Engine = models.EngineTopaz
		if engineOverride != "" {
			params.Engine = engineOverride
		} else {
			// No preset and no explicit flag: config.toml may name an engine.
			switch viper.GetString("upscale.engine") {
			case string(models.EngineBloom):
				params.Engine = models.EngineBloom
			case string(models.EngineTopaz), "":
			default:
				return params, fmt.Errorf("unknown engine %q in config (expected topaz or bloom)", viper.GetString("upscale.engine"))
			}
		}
	}

	if !cmd.Flags().Changed("output-format") {
		if v := viper.GetString("upscale.output_format"); v != "" {
			params.OutputFormat = v
		}
	}

	if params.Bloom.Creativity < 1 || params.Bloom.Creativity > 9 {
		return params, fmt.Errorf("creativity %d out of range (1..9)", params.Bloom.Creativity)
	}
	return params, nil
}

func runUpscale(cmd *cobra.Command, args []string) error {
	source := operations.SourceLast
	if len(args) == 1 && args[0] != "" {
		source = args[0]
	}

	var params operations.UpscaleParams
	var err error
	if upscaleInteractive {
		params, err = promptUpscaleParams(cmd)
	} else {
		params, err = buildUpscaleParams(cmd)
	}
	if err != nil {
		return err
	}

	runner, store, err := newRunner()
	if err != nil {
		return err
	}
	defer store.Close()

	resolved, err := runner.ResolveSource(source)
	if err != nil {
		if errors.Is(err, history.ErrNoHistory) {
			return errors.New("no previous image to upscale; generate one first")
		}
		return err
	}
	if resolved.Uploaded {
		log.Infof("Uploaded source image: %s", resolved.URL)
	}

	progress, stop := startProgress("Upscaling")
	runner.Progress = progress
	defer stop()

	rec, err := runner.Upscale(resolved.URL, params)
	if err != nil {
		return err
	}
	stop()

	fmt.Printf("Saved %s (%s, estimated cost $%.2f)\n", rec.LocalPath, rec.TargetDimensions, rec.Cost)
	return nil
}
