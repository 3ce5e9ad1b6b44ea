package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestions(t *testing.T) {
	qs := Questions()

	require.Len(t, qs, 5)
	for _, q := range qs {
		assert.NotEmpty(t, q.Q)
		assert.Len(t, q.Opts, 4)
	}
}

func TestFlowerMatch_Passionate(t *testing.T) {
	m := FlowerMatch([]string{
		"Through passionate gestures and bold declarations",
		"Excitement and adventure together",
		"Dancing under the stars",
	})

	assert.Equal(t, "Cosmic Rose 🌹", m.Flower)
}

func TestFlowerMatch_Peaceful(t *testing.T) {
	m := FlowerMatch([]string{
		"The peaceful silence and gentle breeze",
		"Comfort and emotional safety",
		"Peaceful twilight with gentle shadows",
	})

	assert.Equal(t, "Moonlight Lily 🌙", m.Flower)
}

func TestFlowerMatch_Thoughtful(t *testing.T) {
	m := FlowerMatch([]string{
		"Through deep conversations and understanding",
		"Intellectual connection and growth",
		"Reading by candlelight",
	})

	assert.Equal(t, "Wisdom Lotus 🪷", m.Flower)
}

// При ничьей побеждает более ранний архетип.
func TestFlowerMatch_TieGoesToEarlierArchetype(t *testing.T) {
	m := FlowerMatch([]string{
		"Dancing under the stars",
		"Reading by candlelight",
	})

	assert.Equal(t, "Cosmic Rose 🌹", m.Flower)
}

func TestFlowerMatch_NoAnswersDefaults(t *testing.T) {
	m := FlowerMatch(nil)

	assert.Equal(t, "Cosmic Rose 🌹", m.Flower)
}

func TestRenderHTML(t *testing.T) {
	m := Match{Flower: "Wisdom Lotus 🪷", Description: "desc"}

	html := RenderHTML(m)

	assert.Contains(t, html, "<h3>Wisdom Lotus 🪷</h3>")
	assert.Contains(t, html, "<p>desc</p>")
	assert.Contains(t, html, "wisdom lotus 🪷")
}
