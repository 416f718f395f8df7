package services

import (
	"testing"

	"github.com/memorylane/recall-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelQuestion(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		q, err := ParseModelQuestion(`{"question":"Who is this?","options":["Ann","Bob","Cid","Dee"],"correctIndex":1,"hint":"Their initials are B."}`)
		require.NoError(t, err)
		assert.Equal(t, "Who is this?", q.Question)
		assert.Equal(t, []string{"Ann", "Bob", "Cid", "Dee"}, q.Options)
		assert.Equal(t, 1, q.CorrectIndex)
		assert.Equal(t, "Their initials are B.", q.Hint)
	})

	t.Run("code fenced output", func(t *testing.T) {
		out := "```json\n{\"question\":\"Where?\",\"options\":[\"a\",\"b\",\"c\",\"d\"],\"correctIndex\":3,\"hint\":\"h\"}\n```"
		q, err := ParseModelQuestion(out)
		require.NoError(t, err)
		assert.Equal(t, 3, q.CorrectIndex)
	})

	t.Run("truncates options and clamps index", func(t *testing.T) {
		q, err := ParseModelQuestion(`{"question":"Q","options":["1","2","3","4","5","6"],"correctIndex":9}`)
		require.NoError(t, err)
		assert.Len(t, q.Options, 4)
		assert.Equal(t, 3, q.CorrectIndex)

		q, err = ParseModelQuestion(`{"question":"Q","options":["1","2","3","4"],"correctIndex":-2}`)
		require.NoError(t, err)
		assert.Equal(t, 0, q.CorrectIndex)
	})

	t.Run("missing question text falls back", func(t *testing.T) {
		q, err := ParseModelQuestion(`{"options":["1","2","3","4"],"correctIndex":0}`)
		require.NoError(t, err)
		assert.Equal(t, defaultQuestionPrompt, q.Question)
	})

	t.Run("rejects unusable output", func(t *testing.T) {
		for _, out := range []string{
			"",
			"not json",
			`{"question":"Q","correctIndex":0}`,
			`{"question":"Q","options":["a","b","c","d"]}`,
			`{"question":"Q","options":["a","b","c","d"],"correctIndex":"2"}`,
			`{"question":"Q","options":[],"correctIndex":0}`,
			`{"question":"Q","options":["Ann","Bob"],"correctIndex":3}`,
			`{"question":"Q","options":["a","b"," ","d"],"correctIndex":0}`,
		} {
			_, err := ParseModelQuestion(out)
			assert.ErrorIs(t, err, ErrInvalidModelResponse, out)
		}
	})
}

func TestIsDeflectionHint(t *testing.T) {
	assert.True(t, IsDeflectionHint(""))
	assert.True(t, IsDeflectionHint("Check the caption for clues"))
	assert.True(t, IsDeflectionHint("LOOK closely at the photo"))
	assert.True(t, IsDeflectionHint("see the caption"))
	assert.False(t, IsDeflectionHint("Their initials are M.J."))
}

func TestFallbackHint(t *testing.T) {
	assert.Equal(t, "The place starts with 'P' and has 5 letters.", FallbackHint("Mary Jones", "Birthday party", "Paris"))
	assert.Equal(t, "Their initials are MJ.", FallbackHint("mary jones", "Birthday party", ""))
	assert.Equal(t, "Think about the Birthday we celebrated.", FallbackHint("", "Birthday party", ""))
	assert.Equal(t, genericHint, FallbackHint("", "", ""))
	assert.Equal(t, genericHint, FallbackHint("", "   ", ""))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("  {\"a\":1} "))
}

func TestSupportiveFeedback(t *testing.T) {
	q := &models.Question{
		Options:      []string{"Grandma", "Aunt Sue", "Uncle Bob", "Cousin Al"},
		CorrectIndex: 0,
		Context: models.QuestionContext{
			PersonName: stringPtr("Grandma"),
			EventName:  stringPtr("her 80th birthday"),
		},
	}

	assert.Equal(t, "Great job! Yes, this is Grandma.", supportiveFeedback(q, true))
	assert.Equal(t, `Good try! The correct answer is "Grandma". This was her 80th birthday.`, supportiveFeedback(q, false))

	bare := &models.Question{Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2}
	assert.Equal(t, "Great job! Correct answer.", supportiveFeedback(bare, true))
	assert.Equal(t, `Good try! The correct answer is "c".`, supportiveFeedback(bare, false))
}

func TestBuildQuestionPromptUsesOnlyMemoryFields(t *testing.T) {
	m := &models.Memory{
		Title:      "Beach day",
		PersonName: stringPtr("Ann Lee"),
		PlaceName:  stringPtr("Brighton"),
	}
	prompt := buildQuestionPrompt(m, "Beach day - with Ann Lee in Brighton")

	assert.Contains(t, prompt, "- Title: Beach day")
	assert.Contains(t, prompt, "- Person: Ann Lee")
	assert.Contains(t, prompt, "- Place: Brighton")
	assert.Contains(t, prompt, "Their initials are AL.")
	assert.Contains(t, prompt, "starts with 'B' and has 8 letters")
}
