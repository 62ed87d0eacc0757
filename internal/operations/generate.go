package operations

import (
	"time"

	"go-krea-generate/internal/helpers"
	"go-krea-generate/internal/models"

	log "github.com/sirupsen/logrus"
)

// GenerateParams describes one text-to-image or edit request. A non-empty
// SourceURL switches the job into edit mode.
type GenerateParams struct {
	Prompt       string
	Model        string // "nano" or "pro"
	AspectRatio  string
	Resolution   string // pro only: 1K, 2K, 4K
	SourceURL    string
	EditStrength float64
}

// Generate submits a generation (or edit) job, waits for completion,
// materializes the first artifact, and records provenance.
func (r *Runner) Generate(p GenerateParams) (models.GenerationRecord, error) {
	if p.Model == "" {
		p.Model = "nano"
	}
	if p.AspectRatio == "" {
		p.AspectRatio = "1:1"
	}

	payload := models.GeneratePayload{
		Prompt:      p.Prompt,
		AspectRatio: p.AspectRatio,
		NumImages:   1,
	}
	if p.Model == "pro" {
		payload.Resolution = p.Resolution
	}
	if p.SourceURL != "" {
		strength := p.EditStrength
		if strength == 0 {
			strength = 0.8
		}
		p.EditStrength = strength
		payload.StyleImages = []models.StyleImage{{URL: p.SourceURL, Strength: strength}}
		log.Infof("Editing image with %s (strength %.2f)", models.GenerationModelName(p.Model), strength)
	} else {
		log.Infof("Generating image with %s", models.GenerationModelName(p.Model))
	}
	log.Infof("Prompt: %s", helpers.Truncate(p.Prompt, 100))

	job, err := r.Client.SubmitGeneration(p.Model, payload)
	if err != nil {
		return models.GenerationRecord{}, err
	}
	job, err = r.Client.AwaitCompletion(job, r.Progress)
	if err != nil {
		return models.GenerationRecord{}, err
	}

	imageUrl := job.ResultURLs[0]
	slug := helpers.Slugify(p.Prompt, helpers.DefaultSlugLength)
	saved, err := r.Materializer.Save(imageUrl, p.Model+"-"+slug, "")
	if err != nil {
		return models.GenerationRecord{}, err
	}

	rec := models.GenerationRecord{
		Timestamp:   time.Now().Format(time.RFC3339),
		LocalPath:   saved.LocalPath,
		RemoteURL:   imageUrl,
		Operation:   models.OpGenerate,
		Prompt:      p.Prompt,
		Model:       p.Model,
		AspectRatio: p.AspectRatio,
		Cost:        models.GenerationCost(p.Model),
		Checksum:    saved.Checksum,
	}
	if p.Model == "pro" {
		rec.Resolution = p.Resolution
	}
	if p.SourceURL != "" {
		rec.Operation = models.OpEdit
		rec.IsEdit = true
		rec.SourceURL = p.SourceURL
		rec.EditStrength = p.EditStrength
	}

	if err := r.Store.Append(rec); err != nil {
		return models.GenerationRecord{}, err
	}
	return rec, nil
}
