package operations

import (
	"fmt"
	"time"

	"go-krea-generate/internal/models"
	"go-krea-generate/internal/presets"

	log "github.com/sirupsen/logrus"
)

// UpscaleParams describes one enhancement request. Exactly the bundle for
// the selected Engine is used; the other bundle is ignored.
type UpscaleParams struct {
	Engine       models.Engine
	Scale        int
	OutputFormat string
	Topaz        models.TopazParams
	Bloom        models.BloomParams
	Guidance     string // bloom only: optional prompt steering the enhancement
	SourceWidth  int
	SourceHeight int
}

func (p *UpscaleParams) applyDefaults() {
	if p.Engine == "" {
		p.Engine = models.EngineTopaz
	}
	if p.Scale <= 0 {
		p.Scale = 2
	}
	if p.OutputFormat == "" {
		p.OutputFormat = "png"
	}
	// Dimensions of service-generated images when the caller knows no better.
	if p.SourceWidth <= 0 {
		p.SourceWidth = 1024
	}
	if p.SourceHeight <= 0 {
		p.SourceHeight = 1024
	}
}

// Upscale submits an enhancement job for imageUrl, waits for completion,
// materializes the result, and records provenance.
func (r *Runner) Upscale(imageUrl string, p UpscaleParams) (models.GenerationRecord, error) {
	p.applyDefaults()

	width, height := presets.TargetDimensions(p.SourceWidth, p.SourceHeight, p.Scale, p.Engine)
	log.Infof("Target dimensions: %dx%d", width, height)

	var job *models.Job
	var err error
	if p.Engine == models.EngineBloom {
		log.Infof("Upscaling image with Bloom (%dx, creativity=%d)...", p.Scale, p.Bloom.Creativity)
		payload := models.BloomPayload{
			ImageURL:           imageUrl,
			Width:              width,
			Height:             height,
			Model:              presets.BloomModel,
			Creativity:         p.Bloom.Creativity,
			FacePreservation:   p.Bloom.FacePreservation,
			ColorPreservation:  p.Bloom.ColorPreservation,
			UpscalingActivated: true,
			ImageScalingFactor: p.Scale,
			OutputFormat:       p.OutputFormat,
			Prompt:             p.Guidance,
		}
		job, err = r.Client.SubmitBloom(payload)
	} else {
		log.Infof("Upscaling image with Topaz %s (%dx)...", p.Topaz.Model, p.Scale)
		payload := models.TopazPayload{
			ImageURL:           imageUrl,
			Width:              width,
			Height:             height,
			Model:              p.Topaz.Model,
			UpscalingActivated: true,
			ImageScalingFactor: p.Scale,
			OutputFormat:       p.OutputFormat,
			Sharpen:            p.Topaz.Sharpen,
			Denoise:            p.Topaz.Denoise,
			FixCompression:     p.Topaz.FixCompression,
			FaceEnhancement:    p.Topaz.FaceEnhancement,
		}
		if p.Topaz.FaceEnhancement {
			half := 0.5
			payload.FaceEnhancementCreativity = &half
			payload.FaceEnhancementStrength = &half
		}
		job, err = r.Client.SubmitTopaz(payload)
	}
	if err != nil {
		return models.GenerationRecord{}, err
	}

	job, err = r.Client.AwaitCompletion(job, r.Progress)
	if err != nil {
		return models.GenerationRecord{}, err
	}

	upscaledUrl := job.ResultURLs[0]
	nameTag := fmt.Sprintf("upscale-%dx", p.Scale)
	if p.Engine == models.EngineBloom {
		nameTag = fmt.Sprintf("bloom-%dx", p.Scale)
	}
	saved, err := r.Materializer.Save(upscaledUrl, nameTag, normalizeExt(p.OutputFormat))
	if err != nil {
		return models.GenerationRecord{}, err
	}

	rec := models.GenerationRecord{
		Timestamp:        time.Now().Format(time.RFC3339),
		LocalPath:        saved.LocalPath,
		RemoteURL:        upscaledUrl,
		SourceURL:        imageUrl,
		Engine:           string(p.Engine),
		ScaleFactor:      p.Scale,
		TargetDimensions: models.Dimensions(width, height),
		Cost:             models.EngineCost(p.Engine),
		Checksum:         saved.Checksum,
	}
	if p.Engine == models.EngineBloom {
		rec.Operation = models.OpUpscaleBloom
		rec.Creativity = p.Bloom.Creativity
		rec.Prompt = p.Guidance
	} else {
		rec.Operation = models.OpUpscaleTopaz
		rec.UpscaleModel = p.Topaz.Model
	}

	if err := r.Store.Append(rec); err != nil {
		return models.GenerationRecord{}, err
	}
	return rec, nil
}
