package describe

import (
	"summitclips-server/internal/models"
	"summitclips-server/internal/scenedetect"
)

var fallbackDescriptions = [3]string{
	"登山の準備をしている様子です。登山者は必要な装備を確認し、バックパックに詰めています。天気は晴れで、朝早い時間帯のようです。",
	"登山口から山道を登り始めています。周囲は緑豊かな森林で、鳥のさえずりが聞こえます。登山者は適度なペースで歩いています。",
	"標高が上がり、景色が開けてきました。遠くに山々の稜線が見え、雲海が広がっています。登山者は休憩を取りながら景色を楽しんでいます。",
}

var fallbackSuggestions = [3]string{
	"この準備シーンは短くカットし、重要な装備の確認部分のみにフォーカスするとよいでしょう。BGMを追加すると雰囲気が出ます。",
	"登山道の美しさを強調するために、いくつかのスローモーションショットを入れると効果的です。鳥の鳴き声を強調すると没入感が増します。",
	"このシーンは登山のハイライトなので長めに残し、パノラマビューで景色の壮大さを表現するとよいでしょう。感動的な音楽を追加することをお勧めします。",
}

// Fallback returns the canned three-scene dataset used when a run fails outright
func Fallback() ([]models.Scene, []models.Description, []models.EditingSuggestion) {
	scenes := scenedetect.FallbackScenes()
	descriptions := make([]models.Description, len(scenes))
	suggestions := make([]models.EditingSuggestion, len(scenes))
	for i, s := range scenes {
		descriptions[i] = models.Description{SceneID: s.SceneID, Text: fallbackDescriptions[i]}
		suggestions[i] = models.EditingSuggestion{SceneID: s.SceneID, Text: fallbackSuggestions[i]}
	}
	return scenes, descriptions, suggestions
}
