package vision

import "math"

// Canned analyses stand in for the model when it fails or no frame was extracted.
var cannedAnalyses = [3]string{
	`{
  "場所の特徴": "中腹の山道、落葉樹林に囲まれた登山道、推定標高800m程度",
  "活動内容": "登山中、適度なペースで上り坂を進んでいる",
  "天候状況": "晴れ、わずかに雲がある",
  "時間帯": "午前中、明るい日差し",
  "風景や自然の特徴": "紅葉した樹木、落ち葉が積もった山道、遠くに山頂が見える",
  "登山者の状況や装備": "登山靴、バックパック、トレッキングポールを使用、快適に歩いている"
}`,
	`{
  "場所の特徴": "山頂付近の開けた場所、岩が多い地形、推定標高1200m以上",
  "活動内容": "休憩、景色の鑑賞",
  "天候状況": "晴れ、青空が広がっている",
  "時間帯": "昼頃、太陽が高い位置にある",
  "風景や自然の特徴": "360度のパノラマビュー、遠くに連なる山々、雲海が見える",
  "登山者の状況や装備": "休憩中、水分補給、軽装で汗をかいている"
}`,
	`{
  "場所の特徴": "尾根道、低い植生、推定標高1000m程度",
  "活動内容": "トレッキング、緩やかな起伏の道を進んでいる",
  "天候状況": "薄曇り、霧が出ている",
  "時間帯": "夕方、やや暗くなり始めている",
  "風景や自然の特徴": "霧に包まれた神秘的な景色、苔むした岩、低木",
  "登山者の状況や装備": "軽めの上着を着用、ヘッドライトの準備、慎重に歩いている"
}`,
}

// CannedIndex picks the canned analysis for timestamp: floor(ts/100) mod 3,
// taken in 0..2 for negative timestamps too
func CannedIndex(timestamp float64) int {
	n := int(math.Floor(timestamp / 100))
	return ((n % 3) + 3) % 3
}

// CannedAnalysis returns the deterministic fallback analysis for timestamp
func CannedAnalysis(timestamp float64) string {
	return cannedAnalyses[CannedIndex(timestamp)]
}
