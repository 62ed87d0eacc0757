package presets

import (
	"testing"

	"go-krea-generate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupAllTags(t *testing.T) {
	for _, tag := range Tags {
		p, err := Lookup(tag)
		require.NoError(t, err, "tag %s", tag)
		assert.NotEmpty(t, p.Description)
		assert.NotEmpty(t, p.Engine)
		assert.NotEmpty(t, p.Topaz.Model)
		assert.GreaterOrEqual(t, p.Bloom.Creativity, 1)
		assert.LessOrEqual(t, p.Bloom.Creativity, 9)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("hologram")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestPortraitDefaultsToFaceEnhancement(t *testing.T) {
	p, err := Lookup("portrait")
	require.NoError(t, err)
	assert.Equal(t, models.EngineTopaz, ChooseEngine(p, ""))
	assert.True(t, p.Topaz.FaceEnhancement)
	assert.Equal(t, "High Fidelity V2", p.Topaz.Model)
}

func TestRecommendedEngines(t *testing.T) {
	bloomTags := map[string]bool{"lowres": true, "creative": true}
	for _, tag := range Tags {
		p, err := Lookup(tag)
		require.NoError(t, err)
		want := models.EngineTopaz
		if bloomTags[tag] {
			want = models.EngineBloom
		}
		assert.Equal(t, want, p.Engine, "tag %s", tag)
	}
}

func TestChooseEngineOverride(t *testing.T) {
	p, err := Lookup("portrait")
	require.NoError(t, err)
	assert.Equal(t, models.EngineBloom, ChooseEngine(p, models.EngineBloom))
	assert.Equal(t, models.EngineTopaz, ChooseEngine(p, models.EngineTopaz))
}

func TestTargetDimensions(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		scale  int
		engine models.Engine
		wantW  int
		wantH  int
	}{
		{"2x within cap", 1024, 1024, 2, models.EngineTopaz, 2048, 2048},
		{"Topaz clamped at 22000", 1024, 1024, 32, models.EngineTopaz, 22000, 22000},
		{"Bloom clamped at 10000", 1024, 1024, 32, models.EngineBloom, 10000, 10000},
		{"Bloom partial clamp", 2000, 1000, 8, models.EngineBloom, 10000, 8000},
		{"Identity scale", 800, 600, 1, models.EngineTopaz, 800, 600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := TargetDimensions(tt.w, tt.h, tt.scale, tt.engine)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestTargetDimensionsMonotonic(t *testing.T) {
	prevW := 0
	for scale := 1; scale <= 32; scale++ {
		w, _ := TargetDimensions(1024, 1024, scale, models.EngineTopaz)
		assert.GreaterOrEqual(t, w, prevW, "scale %d", scale)
		assert.LessOrEqual(t, w, TopazMaxDimension)
		prevW = w
	}
}
