package operations

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-krea-generate/internal/api"
	"go-krea-generate/internal/downloader"
	"go-krea-generate/internal/history"
	"go-krea-generate/internal/models"
	"go-krea-generate/internal/uploader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type instantClock struct{ now time.Time }

func (c *instantClock) Now() time.Time        { return c.now }
func (c *instantClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

// fakeService simulates the remote API: submission, two polls to completion,
// and artifact download.
type fakeService struct {
	t           *testing.T
	submissions []string // raw submit request bodies
	submitPath  string
	polls       int
	artifact    []byte
	contentType string
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/generate/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.submissions = append(f.submissions, string(body))
		f.submitPath = r.URL.Path
		fmt.Fprint(w, `{"job_id":"job-1"}`)
	})
	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		f.polls++
		if f.polls < 2 {
			fmt.Fprint(w, `{"status":"processing"}`)
			return
		}
		fmt.Fprintf(w, `{"status":"completed","result":{"urls":["%s"]}}`, "http://"+r.Host+"/artifact")
	})
	mux.HandleFunc("/artifact", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", f.contentType)
		w.Write(f.artifact)
	})
	return mux
}

func newTestRunner(t *testing.T, svc *fakeService) (*Runner, string) {
	t.Helper()
	srv := httptest.NewServer(svc.handler())
	t.Cleanup(srv.Close)

	outputRoot := t.TempDir()
	historyDir := t.TempDir()

	client := api.NewClient(models.Config{ApiKey: "test-key", BaseUrl: srv.URL}, srv.Client())
	client.Clock = &instantClock{now: time.Unix(1700000000, 0)}

	m := downloader.NewMaterializer(srv.Client(), outputRoot)
	m.SetNow(func() time.Time { return time.Date(2026, 8, 25, 10, 20, 30, 0, time.UTC) })

	store, err := history.Open(historyDir, "")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &Runner{
		Client:       client,
		Materializer: m,
		Store:        store,
		Resolver:     &uploader.Resolver{Uploader: uploader.NewUploader(models.Config{})},
	}, outputRoot
}

func TestGenerateEndToEnd(t *testing.T) {
	svc := &fakeService{t: t, artifact: []byte("png-bytes"), contentType: "image/png"}
	runner, outputRoot := newTestRunner(t, svc)

	rec, err := runner.Generate(GenerateParams{Prompt: "A red bicycle"})
	require.NoError(t, err)

	assert.Equal(t, "/generate/image/google/nano-banana", svc.submitPath)
	wantPath := filepath.Join(outputRoot, "2026-08-25", "10-20-30-nano-a-red-bicycle.png")
	assert.Equal(t, wantPath, rec.LocalPath)
	assert.Equal(t, models.OpGenerate, rec.Operation)
	assert.Equal(t, models.CostNano, rec.Cost)
	assert.NotEmpty(t, rec.Checksum)

	// The latest pointer matches the appended record.
	latest, err := runner.Store.Latest()
	require.NoError(t, err)
	assert.Equal(t, rec, latest)

	// Default payload fields.
	var payload models.GeneratePayload
	require.NoError(t, json.Unmarshal([]byte(svc.submissions[0]), &payload))
	assert.Equal(t, "A red bicycle", payload.Prompt)
	assert.Equal(t, "1:1", payload.AspectRatio)
	assert.Equal(t, 1, payload.NumImages)
	assert.Empty(t, payload.StyleImages)
}

func TestGenerateEditMode(t *testing.T) {
	svc := &fakeService{t: t, artifact: []byte("png"), contentType: "image/png"}
	runner, _ := newTestRunner(t, svc)

	rec, err := runner.Generate(GenerateParams{
		Prompt:    "make it night",
		SourceURL: "https://cdn.krea.ai/prev.png",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OpEdit, rec.Operation)
	assert.True(t, rec.IsEdit)
	assert.Equal(t, 0.8, rec.EditStrength)

	var payload models.GeneratePayload
	require.NoError(t, json.Unmarshal([]byte(svc.submissions[0]), &payload))
	require.Len(t, payload.StyleImages, 1)
	assert.Equal(t, "https://cdn.krea.ai/prev.png", payload.StyleImages[0].URL)
	assert.Equal(t, 0.8, payload.StyleImages[0].Strength)
}

func TestGenerateProResolution(t *testing.T) {
	svc := &fakeService{t: t, artifact: []byte("png"), contentType: "image/png"}
	runner, _ := newTestRunner(t, svc)

	rec, err := runner.Generate(GenerateParams{Prompt: "x", Model: "pro", Resolution: "2K"})
	require.NoError(t, err)
	assert.Equal(t, "/generate/image/google/nano-banana-pro", svc.submitPath)
	assert.Equal(t, "2K", rec.Resolution)
	assert.Equal(t, models.CostPro, rec.Cost)
	assert.Contains(t, svc.submissions[0], `"resolution":"2K"`)
}

func TestUpscaleTopazPayload(t *testing.T) {
	svc := &fakeService{t: t, artifact: []byte("upscaled"), contentType: "image/png"}
	runner, _ := newTestRunner(t, svc)

	rec, err := runner.Upscale("https://cdn.krea.ai/src.png", UpscaleParams{
		Engine: models.EngineTopaz,
		Scale:  2,
		Topaz: models.TopazParams{
			Model: "High Fidelity V2", Sharpen: 0.4, Denoise: 0.3, FixCompression: 0.4,
			FaceEnhancement: true,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/generate/enhance/topaz/standard-enhance", svc.submitPath)
	assert.Equal(t, models.OpUpscaleTopaz, rec.Operation)
	assert.Equal(t, "2048x2048", rec.TargetDimensions)
	assert.Equal(t, models.CostTopaz, rec.Cost)
	assert.True(t, strings.HasSuffix(rec.LocalPath, "-upscale-2x.png"))

	var payload models.TopazPayload
	require.NoError(t, json.Unmarshal([]byte(svc.submissions[0]), &payload))
	assert.True(t, payload.UpscalingActivated)
	assert.Equal(t, 2, payload.ImageScalingFactor)
	assert.True(t, payload.FaceEnhancement)
	require.NotNil(t, payload.FaceEnhancementCreativity)
	assert.Equal(t, 0.5, *payload.FaceEnhancementCreativity)
}

func TestUpscaleBloomClampsDimensions(t *testing.T) {
	svc := &fakeService{t: t, artifact: []byte("upscaled"), contentType: "image/png"}
	runner, _ := newTestRunner(t, svc)

	rec, err := runner.Upscale("https://cdn.krea.ai/src.png", UpscaleParams{
		Engine: models.EngineBloom,
		Scale:  32,
		Bloom:  models.BloomParams{Creativity: 6},
	})
	require.NoError(t, err)
	assert.Equal(t, "/generate/enhance/topaz/bloom-enhance", svc.submitPath)
	assert.Equal(t, models.OpUpscaleBloom, rec.Operation)
	assert.Equal(t, "10000x10000", rec.TargetDimensions)
	assert.Equal(t, models.CostBloom, rec.Cost)
	assert.True(t, strings.HasSuffix(rec.LocalPath, "-bloom-32x.png"))

	var payload models.BloomPayload
	require.NoError(t, json.Unmarshal([]byte(svc.submissions[0]), &payload))
	assert.Equal(t, "Reimagine", payload.Model)
	assert.Equal(t, 10000, payload.Width)
	assert.Equal(t, 6, payload.Creativity)
}

func TestResolveSourceLastWithoutHistory(t *testing.T) {
	svc := &fakeService{t: t}
	runner, _ := newTestRunner(t, svc)

	_, err := runner.ResolveSource(SourceLast)
	assert.ErrorIs(t, err, history.ErrNoHistory)
	// Failure happens before any network call.
	assert.Empty(t, svc.submissions)
	assert.Zero(t, svc.polls)
}

func TestResolveSourceLastUsesLatestRecord(t *testing.T) {
	svc := &fakeService{t: t}
	runner, _ := newTestRunner(t, svc)

	require.NoError(t, runner.Store.Append(models.GenerationRecord{
		Timestamp: "2026-08-25T10:00:00Z",
		RemoteURL: "https://cdn.krea.ai/last.png",
		Operation: models.OpGenerate,
	}))

	resolved, err := runner.ResolveSource(SourceLast)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.krea.ai/last.png", resolved.URL)
	assert.False(t, resolved.Uploaded)
}

func TestResolveSourceUrlPassthrough(t *testing.T) {
	svc := &fakeService{t: t}
	runner, _ := newTestRunner(t, svc)

	resolved, err := runner.ResolveSource("https://example.com/pic.webp")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/pic.webp", resolved.URL)
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, ".jpg", normalizeExt("jpg"))
	assert.Equal(t, ".jpg", normalizeExt("jpeg"))
	assert.Equal(t, ".jpg", normalizeExt(""))
	assert.Equal(t, ".png", normalizeExt("png"))
	assert.Equal(t, ".webp", normalizeExt("webp"))
}
