package cmd

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"go-krea-generate/internal/models"
	"go-krea-generate/internal/operations"
	"go-krea-generate/internal/presets"
)

// prompter reads one answer per question from an input stream. It exists so
// the interactive flow stays testable with a scripted reader.
type prompter struct {
	in  *bufio.Scanner
	out func(format string, a ...interface{})
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{
		in: bufio.NewScanner(cmd.InOrStdin()),
		out: func(format string, a ...interface{}) {
			fmt.Fprintf(cmd.OutOrStdout(), format, a...)
		},
	}
}

func (p *prompter) ask(question, def string) string {
	if def != "" {
		p.out("%s [%s]: ", question, def)
	} else {
		p.out("%s: ", question)
	}
	if !p.in.Scan() {
		return def
	}
	answer := strings.TrimSpace(p.in.Text())
	if answer == "" {
		return def
	}
	return answer
}

func (p *prompter) askInt(question string, def int) int {
	answer := p.ask(question, strconv.Itoa(def))
	n, err := strconv.Atoi(answer)
	if err != nil {
		p.out("Not a number, using %d\n", def)
		return def
	}
	return n
}

func (p *prompter) askBool(question string, def bool) bool {
	defStr := "n"
	if def {
		defStr = "y"
	}
	answer := strings.ToLower(p.ask(question+" (y/n)", defStr))
	return answer == "y" || answer == "yes"
}

func (p *prompter) askFloat(question string, def float64) float64 {
	answer := p.ask(question, strconv.FormatFloat(def, 'g', -1, 64))
	f, err := strconv.ParseFloat(answer, 64)
	if err != nil {
		p.out("Not a number, using %g\n", def)
		return def
	}
	return f
}

// promptUpscaleParams walks the user through engine selection and the knobs
// of the chosen engine. It is the interactive counterpart of
// buildUpscaleParams and produces the identical parameter bundle.
func promptUpscaleParams(cmd *cobra.Command) (operations.UpscaleParams, error) {
	p := newPrompter(cmd)

	var params operations.UpscaleParams
	params.Topaz = models.TopazParams{Model: "Standard V2", Sharpen: 0.5, Denoise: 0.3, FixCompression: 0.5}
	params.Bloom = models.BloomParams{Creativity: 3}

	tag := p.ask("Preset ("+strings.Join(presets.Tags, ", ")+", or empty)", "")
	if tag != "" {
		preset, err := presets.Lookup(tag)
		if err != nil {
			return params, err
		}
		p.out("%s\n", preset.Description)
		params.Engine = preset.Engine
		params.Topaz = preset.Topaz
		params.Bloom = preset.Bloom
	}

	defEngine := string(models.EngineTopaz)
	if params.Engine != "" {
		defEngine = string(params.Engine)
	}
	switch p.ask("Engine (topaz or bloom)", defEngine) {
	case string(models.EngineBloom):
		params.Engine = models.EngineBloom
	case string(models.EngineTopaz):
		params.Engine = models.EngineTopaz
	default:
		return params, fmt.Errorf("unknown engine")
	}

	params.Scale = p.askInt("Scale factor", 2)
	params.OutputFormat = p.ask("Output format (png, jpg, webp)", "png")

	if params.Engine == models.EngineBloom {
		params.Bloom.Creativity = p.askInt("Creativity (1..9)", params.Bloom.Creativity)
		if params.Bloom.Creativity < 1 || params.Bloom.Creativity > 9 {
			return params, fmt.Errorf("creativity %d out of range (1..9)", params.Bloom.Creativity)
		}
		params.Bloom.FacePreservation = p.askBool("Face preservation", params.Bloom.FacePreservation)
		params.Bloom.ColorPreservation = p.askBool("Color preservation", params.Bloom.ColorPreservation)
		params.Guidance = p.ask("Guidance prompt (optional)", "")
	} else {
		params.Topaz.Model = p.ask("Topaz model", params.Topaz.Model)
		params.Topaz.Sharpen = p.askFloat("Sharpen (0..1)", params.Topaz.Sharpen)
		params.Topaz.Denoise = p.askFloat("Denoise (0..1)", params.Topaz.Denoise)
		params.Topaz.FixCompression = p.askFloat("Fix compression (0..1)", params.Topaz.FixCompression)
		params.Topaz.FaceEnhancement = p.askBool("Face enhancement", params.Topaz.FaceEnhancement)
	}

	return params, nil
}
