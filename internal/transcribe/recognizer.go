package transcribe

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Recognizer turns an extracted audio file into text
type Recognizer interface {
	Recognize(ctx context.Context, audioPath string) (string, error)
}

// bytesPerSentence is how much audio unlocks one more placeholder sentence
const bytesPerSentence = 100000

var placeholderSentences = []string{
	"山の頂上に向かって登っています。景色が素晴らしいです。",
	"鳥のさえずりが聞こえます。自然の中にいる感じがします。",
	"ここから見える景色は最高です。頑張って登ってきた甲斐がありました。",
	"小さな小川を渡ります。水がとても冷たくて気持ちいいです。",
	"休憩を取って水分補給します。体力を回復させましょう。",
}

// PlaceholderRecognizer stands in for a speech model. It emits canned sentences
// in proportion to the audio file size: at least one, at most five.
type PlaceholderRecognizer struct{}

// Recognize implements Recognizer
func (PlaceholderRecognizer) Recognize(ctx context.Context, audioPath string) (string, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat audio file: %w", err)
	}
	return PlaceholderText(info.Size()), nil
}

// PlaceholderText returns the canned transcript for an audio file of size bytes
func PlaceholderText(size int64) string {
	n := int(size / bytesPerSentence)
	if n < 1 {
		n = 1
	}
	if n > len(placeholderSentences) {
		n = len(placeholderSentences)
	}
	return strings.Join(placeholderSentences[:n], " ")
}
