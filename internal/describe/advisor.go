package describe

import "summitclips-server/internal/models"

const (
	IntroSuggestion   = "このシーンは動画の導入部分として重要です。簡潔にカットして、登山の目標や場所を紹介するテキストオーバーレイを追加するとよいでしょう。"
	ClosingSuggestion = "このシーンは動画の締めくくりとして重要です。登山の達成感を強調するために、スローモーションや音楽の盛り上がりを使うとよいでしょう。"
)

var middleSuggestions = [4]string{
	"このシーンの美しい風景にフォーカスし、風景の広がりを表現するためにワイドアングルのショットを強調するとよいでしょう。",
	"登山の進行状況を示すため、トランジションエフェクトやマップのオーバーレイを追加するとよいでしょう。",
	"自然の音を強調し、没入感を高めるとよいでしょう。場合によっては軽快なBGMも効果的です。",
	"シーンの長さを短くし、ハイライトとなる瞬間だけを残すとテンポよく仕上がります。",
}

// Suggest returns one editing suggestion per scene based on its position.
// The first scene wins over the last when there is only one.
//
// descriptions is not consulted yet; content-aware advice would read it.
func Suggest(scenes []models.Scene, descriptions []models.Description) []models.EditingSuggestion {
	suggestions := make([]models.EditingSuggestion, 0, len(scenes))
	for i, scene := range scenes {
		suggestions = append(suggestions, models.EditingSuggestion{
			SceneID: scene.SceneID,
			Text:    SuggestionAt(i, len(scenes)),
		})
	}
	return suggestions
}

// SuggestionAt returns the suggestion for position i of n scenes
func SuggestionAt(i, n int) string {
	switch {
	case i == 0:
		return IntroSuggestion
	case i == n-1:
		return ClosingSuggestion
	default:
		return middleSuggestions[i%len(middleSuggestions)]
	}
}
