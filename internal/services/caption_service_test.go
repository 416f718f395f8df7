package services

import (
	"context"
	"errors"
	"testing"

	"github.com/memorylane/recall-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestComposeCaption(t *testing.T) {
	tests := []struct {
		name   string
		memory models.Memory
		want   string
	}{
		{
			name: "title with all clauses",
			memory: models.Memory{
				Title:      "Summer picnic",
				PersonName: stringPtr("Grandpa Joe"),
				EventName:  stringPtr("the family reunion"),
				PlaceName:  stringPtr("Lake Tahoe"),
			},
			want: "Summer picnic - with Grandpa Joe at the family reunion in Lake Tahoe",
		},
		{
			name:   "title only",
			memory: models.Memory{Title: "Summer picnic"},
			want:   "Summer picnic",
		},
		{
			name:   "clauses only",
			memory: models.Memory{PlaceName: stringPtr("Lake Tahoe")},
			want:   "in Lake Tahoe",
		},
		{
			name:   "nothing to go on",
			memory: models.Memory{Title: "  ", PersonName: stringPtr(" ")},
			want:   genericCaption,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComposeCaption(&tt.memory))
		})
	}
}

func TestAcceptPolished(t *testing.T) {
	draft := "Summer picnic - with Grandpa Joe"

	assert.Equal(t, "A sunny picnic with Grandpa Joe.", acceptPolished("  A sunny picnic with Grandpa Joe.\n", draft))
	assert.Equal(t, draft, acceptPolished("", draft))
	assert.Equal(t, draft, acceptPolished(`{"caption":"x"}`, draft))
	assert.Equal(t, draft, acceptPolished("```text```", draft))
	assert.Equal(t, draft, acceptPolished("one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty twentyone twentytwo twentythree", draft))
}

func TestParseCaptionLines(t *testing.T) {
	caption, tags := ParseCaptionLines("1) Caption: Two people smiling on a beach.\n2) Tags: Beach, #Sunset, family, beach, , ocean")

	assert.Equal(t, "Two people smiling on a beach.", caption)
	assert.Equal(t, []string{"beach", "sunset", "family", "ocean"}, tags)

	caption, tags = ParseCaptionLines("- Just a caption")
	assert.Equal(t, "Just a caption", caption)
	assert.Nil(t, tags)

	caption, tags = ParseCaptionLines("\n \n")
	assert.Empty(t, caption)
	assert.Nil(t, tags)
}

func TestNormalizeTagsCapsLength(t *testing.T) {
	tags := NormalizeTags([]string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"})
	assert.Len(t, tags, maxTags)
}

func TestCaptionService_EnsureCaption(t *testing.T) {
	t.Run("stored caption is reused", func(t *testing.T) {
		repo := newMockRepository()
		model := &MockGenerativeModel{ready: true}
		svc := NewCaptionService(repo, model, testLogger())

		m := &models.Memory{ID: "m1", CaptionAI: stringPtr("Already here")}
		assert.Equal(t, "Already here", svc.EnsureCaption(context.Background(), m))
		model.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("polish failure keeps the draft and persists it", func(t *testing.T) {
		repo := newMockRepository()
		model := &MockGenerativeModel{ready: true}
		svc := NewCaptionService(repo, model, testLogger())

		m := &models.Memory{ID: "m1", Title: "Garden", PersonName: stringPtr("Mum")}
		model.On("Generate", mock.Anything, mock.Anything, (*ImageInput)(nil), mock.Anything).Return("", errors.New("boom"))
		repo.memories.On("UpdateFields", mock.Anything, (*gorm.DB)(nil), "m1",
			map[string]interface{}{"caption_ai": "Garden - with Mum"}).Return(nil)

		caption := svc.EnsureCaption(context.Background(), m)

		assert.Equal(t, "Garden - with Mum", caption)
		assert.Equal(t, "Garden - with Mum", deref(m.CaptionAI))
		repo.AssertExpectations(t)
	})

	t.Run("polished caption within bounds is used", func(t *testing.T) {
		repo := newMockRepository()
		model := &MockGenerativeModel{ready: true}
		svc := NewCaptionService(repo, model, testLogger())

		m := &models.Memory{ID: "m1", Title: "Garden", PersonName: stringPtr("Mum")}
		model.On("Generate", mock.Anything, mock.Anything, (*ImageInput)(nil), mock.Anything).Return("Tending the garden with Mum.", nil)
		repo.memories.On("UpdateFields", mock.Anything, (*gorm.DB)(nil), "m1", mock.Anything).Return(nil)

		assert.Equal(t, "Tending the garden with Mum.", svc.EnsureCaption(context.Background(), m))
	})
}

func TestCaptionService_CaptionMemory(t *testing.T) {
	caller := &models.Identity{Sub: "cg-1", Role: models.RoleCaregiver}

	t.Run("requires both fields", func(t *testing.T) {
		svc := NewCaptionService(newMockRepository(), &MockGenerativeModel{}, testLogger())
		_, err := svc.CaptionMemory(context.Background(), caller, &CaptionRequest{MemoryID: "m1"})
		assert.ErrorIs(t, err, ErrCaptionInputRequired)
		assert.Equal(t, "memoryId and imageUrl are required", err.Error())
	})

	t.Run("foreign memory is not found", func(t *testing.T) {
		repo := newMockRepository()
		repo.memories.On("GetByID", mock.Anything, (*gorm.DB)(nil), "m1").
			Return(&models.Memory{ID: "m1", CaregiverSub: "cg-2"}, nil)
		svc := NewCaptionService(repo, &MockGenerativeModel{}, testLogger())

		_, err := svc.CaptionMemory(context.Background(), caller, &CaptionRequest{MemoryID: "m1", ImageURL: testImage})
		assert.ErrorIs(t, err, ErrMemoryNotFound)
	})

	t.Run("vision answer is stored with embedding", func(t *testing.T) {
		repo := newMockRepository()
		model := &MockGenerativeModel{ready: true}
		repo.memories.On("GetByID", mock.Anything, (*gorm.DB)(nil), "m1").
			Return(&models.Memory{ID: "m1", CaregiverSub: "cg-1", ImageURL: testImage}, nil)
		model.On("Generate", mock.Anything, visionCaptionPrompt, mock.AnythingOfType("*services.ImageInput"), mock.Anything).
			Return("A dog on a porch.\ndog, porch, summer", nil)
		model.On("Embed", mock.Anything, "A dog on a porch.").Return([]float32{0.1, 0.2}, nil)
		repo.memories.On("UpdateFields", mock.Anything, (*gorm.DB)(nil), "m1", mock.MatchedBy(func(f map[string]interface{}) bool {
			_, hasEmbedding := f["embedding"]
			return f["caption_ai"] == "A dog on a porch." && hasEmbedding
		})).Return(nil)

		svc := NewCaptionService(repo, model, testLogger())
		resp, err := svc.CaptionMemory(context.Background(), caller, &CaptionRequest{MemoryID: "m1", ImageURL: "https://example.com/x.jpg"})

		require.NoError(t, err)
		assert.True(t, resp.OK)
		assert.Equal(t, []string{"dog", "porch", "summer"}, resp.Tags)
		repo.AssertExpectations(t)
	})

	t.Run("without a model the field caption is used", func(t *testing.T) {
		repo := newMockRepository()
		repo.memories.On("GetByID", mock.Anything, (*gorm.DB)(nil), "m1").Return(&models.Memory{
			ID: "m1", CaregiverSub: "cg-1", Title: "Porch", PlaceName: stringPtr("Maine"),
		}, nil)
		repo.memories.On("UpdateFields", mock.Anything, (*gorm.DB)(nil), "m1", mock.Anything).Return(nil)

		svc := NewCaptionService(repo, &MockGenerativeModel{}, testLogger())
		resp, err := svc.CaptionMemory(context.Background(), caller, &CaptionRequest{MemoryID: "m1", ImageURL: testImage})

		require.NoError(t, err)
		assert.Equal(t, "Porch - in Maine", resp.Caption)
		assert.Equal(t, []string{"maine", "porch"}, resp.Tags)
	})
}

func TestCaptionService_RecallPrompts(t *testing.T) {
	t.Run("fallback without model", func(t *testing.T) {
		svc := NewCaptionService(newMockRepository(), &MockGenerativeModel{}, testLogger())
		resp, err := svc.RecallPrompts(context.Background(), &PromptsRequest{Caption: "A day at the lake."})
		require.NoError(t, err)
		require.Len(t, resp.Prompts, 3)
		assert.Equal(t, "Take a breath and picture A day at the lake.", resp.Prompts[0])
	})

	t.Run("model prompts are trimmed to three", func(t *testing.T) {
		model := &MockGenerativeModel{ready: true}
		model.On("Generate", mock.Anything, mock.Anything, (*ImageInput)(nil), mock.Anything).
			Return(`{"prompts":["one","two"," three ","four"]}`, nil)
		svc := NewCaptionService(newMockRepository(), model, testLogger())

		resp, err := svc.RecallPrompts(context.Background(), &PromptsRequest{Caption: "x", Tags: []string{"a"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two", "three"}, resp.Prompts)
	})
}
