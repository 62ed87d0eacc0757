package models

import "fmt"

type (
	Config struct {
		// Connection/Auth
		ApiKey  string `toml:"ApiKey"`
		BaseUrl string `toml:"BaseUrl"`

		// Paths
		OutputPath  string `toml:"OutputPath"`
		HistoryPath string `toml:"HistoryPath"`
		IndexPath   string `toml:"IndexPath"`

		// FTP upload destination for local source images
		FtpHost       string `toml:"FtpHost"`
		FtpPort       int    `toml:"FtpPort"`
		FtpUser       string `toml:"FtpUser"`
		FtpPass       string `toml:"FtpPass"`
		FtpRemotePath string `toml:"FtpRemotePath"`
		FtpPublicUrl  string `toml:"FtpPublicUrl"`

		// Behavior
		ApiClientTimeoutSec int  `toml:"ApiClientTimeoutSec"`
		DownloadTimeoutSec  int  `toml:"DownloadTimeoutSec"`
		LogApiRequests      bool `toml:"LogApiRequests"`
	}

	// JobKind identifies which remote compute endpoint a job was submitted to.
	JobKind string

	// JobStatus tracks a job through its lifecycle. Transitions only move
	// forward: Submitted -> Polling -> one of the terminal states.
	JobStatus string

	// Job is one in-flight or completed remote operation. ResultURLs is
	// populated only when Status is StatusCompleted.
	Job struct {
		ID         string
		Kind       JobKind
		Status     JobStatus
		ResultURLs []string
	}

	// Engine selects one of the two enhancement backends.
	Engine string

	// TopazParams is the parameter bundle for the precision enhancement engine.
	TopazParams struct {
		Model           string
		Sharpen         float64
		Denoise         float64
		FixCompression  float64
		FaceEnhancement bool
	}

	// BloomParams is the parameter bundle for the creative enhancement engine.
	BloomParams struct {
		Creativity        int
		FacePreservation  bool
		ColorPreservation bool
	}

	// Preset bundles recommended enhancement settings for a class of source
	// image. Presets are static and never mutated at runtime.
	Preset struct {
		Description string
		Engine      Engine
		Topaz       TopazParams
		Bloom       BloomParams
	}

	// Api request payloads

	StyleImage struct {
		URL      string  `json:"url"`
		Strength float64 `json:"strength"`
	}

	GeneratePayload struct {
		Prompt      string       `json:"prompt"`
		AspectRatio string       `json:"aspectRatio"`
		NumImages   int          `json:"numImages"`
		Resolution  string       `json:"resolution,omitempty"`
		StyleImages []StyleImage `json:"styleImages,omitempty"`
	}

	TopazPayload struct {
		ImageURL                  string   `json:"image_url"`
		Width                     int      `json:"width"`
		Height                    int      `json:"height"`
		Model                     string   `json:"model"`
		UpscalingActivated        bool     `json:"upscaling_activated"`
		ImageScalingFactor        int      `json:"image_scaling_factor"`
		OutputFormat              string   `json:"output_format"`
		Sharpen                   float64  `json:"sharpen"`
		Denoise                   float64  `json:"denoise"`
		FixCompression            float64  `json:"fix_compression"`
		FaceEnhancement           bool     `json:"face_enhancement"`
		FaceEnhancementCreativity *float64 `json:"face_enhancement_creativity,omitempty"`
		FaceEnhancementStrength   *float64 `json:"face_enhancement_strength,omitempty"`
	}

	BloomPayload struct {
		ImageURL           string `json:"image_url"`
		Width              int    `json:"width"`
		Height             int    `json:"height"`
		Model              string `json:"model"`
		Creativity         int    `json:"creativity"`
		FacePreservation   bool   `json:"face_preservation"`
		ColorPreservation  bool   `json:"color_preservation"`
		UpscalingActivated bool   `json:"upscaling_activated"`
		ImageScalingFactor int    `json:"image_scaling_factor"`
		OutputFormat       string `json:"output_format"`
		Prompt             string `json:"prompt,omitempty"`
	}

	// Api responses

	SubmitResponse struct {
		JobID string `json:"job_id"`
	}

	JobResult struct {
		URLs []string `json:"urls"`
	}

	JobStatusResponse struct {
		Status string     `json:"status"`
		Result *JobResult `json:"result,omitempty"`
	}

	// GenerationRecord is one entry in the provenance history. The most
	// recent record doubles as the "latest" pointer that chained operations
	// (edit last, upscale last) read.
	GenerationRecord struct {
		Timestamp        string  `json:"timestamp"`
		LocalPath        string  `json:"local_path"`
		RemoteURL        string  `json:"krea_url"`
		Operation        string  `json:"operation"`
		Prompt           string  `json:"prompt,omitempty"`
		Model            string  `json:"model,omitempty"`
		AspectRatio      string  `json:"aspect_ratio,omitempty"`
		Resolution       string  `json:"resolution,omitempty"`
		IsEdit           bool    `json:"is_edit,omitempty"`
		SourceURL        string  `json:"source_url,omitempty"`
		EditStrength     float64 `json:"edit_strength,omitempty"`
		Engine           string  `json:"engine,omitempty"`
		ScaleFactor      int     `json:"scale_factor,omitempty"`
		UpscaleModel     string  `json:"upscale_model,omitempty"`
		Creativity       int     `json:"creativity,omitempty"`
		TargetDimensions string  `json:"target_dimensions,omitempty"`
		Cost             float64 `json:"cost"`
		Checksum         string  `json:"blake3,omitempty"`
	}
)

const (
	KindGenerate     JobKind = "generate"
	KindEnhanceTopaz JobKind = "topaz"
	KindEnhanceBloom JobKind = "bloom"
)

const (
	StatusSubmitted JobStatus = "submitted"
	StatusPolling   JobStatus = "polling"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
	StatusTimedOut  JobStatus = "timed_out"
)

const (
	EngineTopaz Engine = "topaz"
	EngineBloom Engine = "bloom"
)

// Operation tags recorded in provenance entries.
const (
	OpGenerate     = "generate"
	OpEdit         = "edit"
	OpUpscaleTopaz = "upscale_topaz"
	OpUpscaleBloom = "upscale_bloom"
)

// Per-image cost estimates in USD.
const (
	CostNano  = 0.08
	CostPro   = 0.30
	CostTopaz = 0.15
	CostBloom = 0.75
)

// Terminal reports whether the status ends the job lifecycle.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusTimedOut:
		return true
	}
	return false
}

// GenerationModelName returns the display name for a generation model tag.
func GenerationModelName(model string) string {
	switch model {
	case "pro":
		return "Nano Banana Pro"
	default:
		return "Nano Banana"
	}
}

// GenerationCost returns the per-image cost estimate for a generation model tag.
func GenerationCost(model string) float64 {
	if model == "pro" {
		return CostPro
	}
	return CostNano
}

// EngineCost returns the per-job cost estimate for an enhancement engine.
func EngineCost(engine Engine) float64 {
	if engine == EngineBloom {
		return CostBloom
	}
	return CostTopaz
}

// Dimensions formats a width/height pair the way records store it.
func Dimensions(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}
