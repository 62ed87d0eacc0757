package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-krea-generate/internal/models"

	log "github.com/sirupsen/logrus"
)

const DefaultBaseUrl = "https://api.krea.ai"

// Generation endpoints by model tag.
const (
	nanoBananaPath    = "/generate/image/google/nano-banana"
	nanoBananaProPath = "/generate/image/google/nano-banana-pro"
	topazEnhancePath  = "/generate/enhance/topaz/standard-enhance"
	bloomEnhancePath  = "/generate/enhance/topaz/bloom-enhance"
	jobsPath          = "/jobs"
)

// Clock abstracts time for the poll loop so tests can simulate elapsed time
// without real delays.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// PollPolicy is the fixed-interval polling budget for a job kind.
type PollPolicy struct {
	Interval time.Duration
	MaxWait  time.Duration
}

// PolicyFor returns the polling policy for a job kind. Bloom jobs take
// roughly two minutes, so they poll less often with a larger budget.
func PolicyFor(kind models.JobKind) PollPolicy {
	if kind == models.KindEnhanceBloom {
		return PollPolicy{Interval: 5 * time.Second, MaxWait: 300 * time.Second}
	}
	return PollPolicy{Interval: 2 * time.Second, MaxWait: 120 * time.Second}
}

// ProgressFunc receives the raw remote status and elapsed time at each poll
// tick. Progress display is advisory; a nil func disables it.
type ProgressFunc func(status string, elapsed time.Duration)

// Client submits jobs to the remote image service and polls them to a
// terminal state. It performs no retries: any non-2xx answer is fatal.
type Client struct {
	BaseUrl    string
	ApiKey     string
	HttpClient *http.Client // Use a shared client
	Clock      Clock
}

// NewClient creates a new API client. A nil httpClient gets a default with
// the control-call timeout from config.
func NewClient(cfg models.Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := time.Duration(cfg.ApiClientTimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseUrl := strings.TrimRight(cfg.BaseUrl, "/")
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	return &Client{
		BaseUrl:    baseUrl,
		ApiKey:     cfg.ApiKey,
		HttpClient: httpClient,
		Clock:      realClock{},
	}
}

// SubmitGeneration submits a text-to-image (or edit) job for the given model
// tag ("nano" or "pro").
func (c *Client) SubmitGeneration(model string, payload models.GeneratePayload) (*models.Job, error) {
	path := nanoBananaPath
	if model == "pro" {
		path = nanoBananaProPath
	}
	return c.submit(models.KindGenerate, path, payload)
}

// SubmitTopaz submits a precision enhancement job.
func (c *Client) SubmitTopaz(payload models.TopazPayload) (*models.Job, error) {
	return c.submit(models.KindEnhanceTopaz, topazEnhancePath, payload)
}

// SubmitBloom submits a creative enhancement job.
func (c *Client) SubmitBloom(payload models.BloomPayload) (*models.Job, error) {
	return c.submit(models.KindEnhanceBloom, bloomEnhancePath, payload)
}

func (c *Client) submit(kind models.JobKind, path string, payload interface{}) (*models.Job, error) {
	if c.ApiKey == "" {
		return nil, ErrMissingApiKey
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling %s payload: %w", kind, err)
	}

	reqUrl := c.BaseUrl + path
	req, err := http.NewRequest("POST", reqUrl, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request for %s: %w", reqUrl, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.ApiKey)

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error submitting %s job: %w", kind, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading submission response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// Fall through to decode.
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%w (check KREA_API_KEY)", ErrAuth)
	case http.StatusPaymentRequired:
		return nil, fmt.Errorf("%w (top up at krea.ai)", ErrBilling)
	default:
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var submitted models.SubmitResponse
	if err := json.Unmarshal(respBody, &submitted); err != nil {
		return nil, fmt.Errorf("error unmarshalling submission response: %w", err)
	}
	if submitted.JobID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoJobID, string(respBody))
	}

	log.Infof("Job submitted: %s", submitted.JobID)
	return &models.Job{ID: submitted.JobID, Kind: kind, Status: models.StatusSubmitted}, nil
}

// GetJob fetches the current status of a job. The raw response body is
// returned alongside the decoded status so failures can surface it verbatim.
func (c *Client) GetJob(id string) (models.JobStatusResponse, []byte, error) {
	reqUrl := fmt.Sprintf("%s%s/%s", c.BaseUrl, jobsPath, id)
	req, err := http.NewRequest("GET", reqUrl, nil)
	if err != nil {
		return models.JobStatusResponse{}, nil, fmt.Errorf("error creating request for %s: %w", reqUrl, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.ApiKey)

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return models.JobStatusResponse{}, nil, fmt.Errorf("error fetching job %s: %w", id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.JobStatusResponse{}, nil, fmt.Errorf("error reading job status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.JobStatusResponse{}, nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var status models.JobStatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return models.JobStatusResponse{}, nil, fmt.Errorf("error unmarshalling job status: %w", err)
	}
	return status, body, nil
}

// AwaitCompletion polls the job at its kind's fixed interval until a terminal
// status is observed or the budget is exhausted. The job's status advances
// monotonically; on success ResultURLs is populated.
func (c *Client) AwaitCompletion(job *models.Job, progress ProgressFunc) (*models.Job, error) {
	clock := c.Clock
	if clock == nil {
		clock = realClock{}
	}
	policy := PolicyFor(job.Kind)
	start := clock.Now()
	job.Status = models.StatusPolling

	for {
		status, raw, err := c.GetJob(job.ID)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case "completed":
			job.Status = models.StatusCompleted
			if status.Result != nil {
				job.ResultURLs = status.Result.URLs
			}
			if len(job.ResultURLs) == 0 {
				return nil, &JobFailedError{Payload: fmt.Sprintf("no result urls in completed job: %s", raw)}
			}
			return job, nil
		case "failed":
			job.Status = models.StatusFailed
			return nil, &JobFailedError{Payload: string(raw)}
		case "cancelled":
			job.Status = models.StatusCancelled
			return nil, &JobCancelledError{Payload: string(raw)}
		}

		elapsed := clock.Now().Sub(start)
		if elapsed >= policy.MaxWait {
			job.Status = models.StatusTimedOut
			return nil, &TimeoutError{Kind: job.Kind, Elapsed: elapsed}
		}
		if progress != nil {
			progress(status.Status, elapsed)
		}
		clock.Sleep(policy.Interval)
	}
}
