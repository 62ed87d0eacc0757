package presets

import (
	"errors"
	"fmt"

	"go-krea-generate/internal/models"
)

var ErrUnknownPreset = errors.New("unknown preset")

// Maximum output dimensions per engine.
const (
	TopazMaxDimension = 22000
	BloomMaxDimension = 10000
)

// Topaz model names accepted by the precision engine.
var TopazModels = []string{"Standard V2", "High Fidelity V2", "Low Resolution V2", "CGI", "Text Refine"}

// BloomModel is the only model the creative engine accepts.
const BloomModel = "Reimagine"

// Tags lists the catalog keys in menu order.
var Tags = []string{"portrait", "photo", "artwork", "cgi", "lowres", "text", "creative"}

var catalog = map[string]models.Preset{
	"portrait": {
		Description: "Portrait photograph (face preservation enabled)",
		Engine:      models.EngineTopaz,
		Topaz: models.TopazParams{
			Model: "High Fidelity V2", Sharpen: 0.4, Denoise: 0.3, FixCompression: 0.4,
			FaceEnhancement: true,
		},
		Bloom: models.BloomParams{Creativity: 2, FacePreservation: true, ColorPreservation: true},
	},
	"photo": {
		Description: "General photograph (realistic, preserve details)",
		Engine:      models.EngineTopaz,
		Topaz: models.TopazParams{
			Model: "High Fidelity V2", Sharpen: 0.5, Denoise: 0.3, FixCompression: 0.5,
		},
		Bloom: models.BloomParams{Creativity: 2, ColorPreservation: true},
	},
	"artwork": {
		Description: "Digital art, illustration, or AI-generated image",
		Engine:      models.EngineTopaz,
		Topaz: models.TopazParams{
			Model: "Standard V2", Sharpen: 0.6, Denoise: 0.2, FixCompression: 0.3,
		},
		Bloom: models.BloomParams{Creativity: 4},
	},
	"cgi": {
		Description: "3D render or CGI content",
		Engine:      models.EngineTopaz,
		Topaz: models.TopazParams{
			Model: "CGI", Sharpen: 0.5, Denoise: 0.1, FixCompression: 0.2,
		},
		Bloom: models.BloomParams{Creativity: 3, ColorPreservation: true},
	},
	"lowres": {
		Description: "Low resolution or heavily compressed source",
		Engine:      models.EngineBloom,
		Topaz: models.TopazParams{
			Model: "Low Resolution V2", Sharpen: 0.3, Denoise: 0.7, FixCompression: 0.8,
		},
		Bloom: models.BloomParams{Creativity: 5},
	},
	"text": {
		Description: "Image with important text/typography",
		Engine:      models.EngineTopaz,
		Topaz: models.TopazParams{
			Model: "Text Refine", Sharpen: 0.7, Denoise: 0.2, FixCompression: 0.5,
		},
		Bloom: models.BloomParams{Creativity: 1, ColorPreservation: true},
	},
	"creative": {
		Description: "Creative reimagining (adds details, more artistic)",
		Engine:      models.EngineBloom,
		Topaz: models.TopazParams{
			Model: "Standard V2", Sharpen: 0.5, Denoise: 0.3, FixCompression: 0.5,
		},
		Bloom: models.BloomParams{Creativity: 6},
	},
}

// Lookup returns the preset for an image-type tag.
func Lookup(tag string) (models.Preset, error) {
	p, ok := catalog[tag]
	if !ok {
		return models.Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, tag)
	}
	return p, nil
}

// ChooseEngine applies the engine-selection policy: an explicit override
// wins, otherwise the preset's recommendation is used.
func ChooseEngine(p models.Preset, override models.Engine) models.Engine {
	if override != "" {
		return override
	}
	return p.Engine
}

// EngineCap returns the maximum output dimension for an engine.
func EngineCap(engine models.Engine) int {
	if engine == models.EngineBloom {
		return BloomMaxDimension
	}
	return TopazMaxDimension
}

// TargetDimensions scales the source dimensions by the requested factor,
// clamped at the engine's maximum.
func TargetDimensions(srcWidth, srcHeight, scale int, engine models.Engine) (int, int) {
	limit := EngineCap(engine)
	w := srcWidth * scale
	h := srcHeight * scale
	if w > limit {
		w = limit
	}
	if h > limit {
		h = limit
	}
	return w, h
}
