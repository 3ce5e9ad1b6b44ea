package quiz

import (
	"fmt"
	"strings"
)

type Question struct {
	Q    string   `json:"q"`
	Opts []string `json:"opts"`
}

type Match struct {
	Flower      string `json:"flower"`
	Description string `json:"description"`
}

// Questions возвращает вопросы цветочного теста личности.
func Questions() []Question {
	return []Question{
		{
			Q: "What draws you most to a garden?",
			Opts: []string{
				"The vibrant colors that dance in sunlight",
				"The peaceful silence and gentle breeze",
				"The sweet fragrance that fills the air",
				"The intricate patterns of petals and leaves",
			},
		},
		{
			Q: "How do you express love?",
			Opts: []string{
				"Through passionate gestures and bold declarations",
				"With quiet acts of care and devotion",
				"By creating beautiful moments and memories",
				"Through deep conversations and understanding",
			},
		},
		{
			Q: "What time of day speaks to your soul?",
			Opts: []string{
				"Golden sunrise full of new possibilities",
				"Peaceful twilight with gentle shadows",
				"Starlit midnight with cosmic mysteries",
				"Bright noon with clear, focused energy",
			},
		},
		{
			Q: "In relationships, you value most:",
			Opts: []string{
				"Excitement and adventure together",
				"Comfort and emotional safety",
				"Beauty and romantic gestures",
				"Intellectual connection and growth",
			},
		},
		{
			Q: "Your ideal way to spend a quiet evening:",
			Opts: []string{
				"Dancing under the stars",
				"Reading by candlelight",
				"Creating art or music",
				"Deep conversation with someone special",
			},
		},
	}
}

type archetype struct {
	name     string
	keywords []string
	match    Match
}

// Порядок задает разрешение ничьих: passionate > peaceful > creative > thoughtful.
var archetypes = []archetype{
	{
		name:     "passionate",
		keywords: []string{"passionate", "bold", "dance", "adventure"},
		match: Match{
			Flower:      "Cosmic Rose 🌹",
			Description: "Like a rose that blooms boldly in the cosmic garden, you radiate passion and intensity. Your love burns bright like a supernova, drawing others into your gravitational pull. You express emotions with the fierce beauty of stellar fire, creating moments that echo through eternity.",
		},
	},
	{
		name:     "peaceful",
		keywords: []string{"peaceful", "quiet", "gentle", "safety"},
		match: Match{
			Flower:      "Moonlight Lily 🌙",
			Description: "Gentle as moonbeams dancing on still water, you embody serene beauty and quiet strength. Like a lily that blooms in the soft glow of starlight, you bring peace to turbulent hearts. Your love is a sanctuary, a cosmic haven where souls find rest.",
		},
	},
	{
		name:     "creative",
		keywords: []string{"beautiful", "art", "romantic", "creating"},
		match: Match{
			Flower:      "Nebula Orchid 🌺",
			Description: "Rare and exquisite like an orchid born from cosmic dust, you see beauty in the extraordinary. Your creative spirit paints love in colors that don't exist on Earth. You transform ordinary moments into masterpieces that sparkle across the universe.",
		},
	},
	{
		name:     "thoughtful",
		keywords: []string{"conversation", "understanding", "intellectual", "reading"},
		match: Match{
			Flower:      "Wisdom Lotus 🪷",
			Description: "Rising from cosmic waters with profound grace, you embody the lotus of enlightenment. Your love grows from deep understanding and spiritual connection. Like ancient starlight, your wisdom illuminates the path for others seeking truth in the vast cosmos.",
		},
	},
}

// FlowerMatch подбирает цветок по ключевым словам в ответах теста.
func FlowerMatch(answers []string) Match {
	best := archetypes[0]
	bestScore := -1

	for _, a := range archetypes {
		score := 0

		for _, answer := range answers {
			lower := strings.ToLower(answer)

			for _, kw := range a.keywords {
				if strings.Contains(lower, kw) {
					score++
					break
				}
			}
		}

		if score > bestScore {
			best = a
			bestScore = score
		}
	}

	return best.match
}

// RenderHTML собирает ответ в формате, который ожидает фронтенд.
func RenderHTML(m Match) string {
	return fmt.Sprintf(
		"<h3>%s</h3><p>%s</p><br><p><em>Your cosmic essence resonates with the frequency of %s, a rare bloom in the infinite garden of the universe.</em></p>",
		m.Flower, m.Description, strings.ToLower(m.Flower),
	)
}
