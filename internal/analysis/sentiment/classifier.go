package sentiment

import (
	"fmt"

	"github.com/havenlabs/haven/backend/internal/model/mood"
)

// Classifier 将文本极性映射为四档情绪标签。
type Classifier struct {
	scorer Scorer
}

// NewClassifier bootstraps a classifier; a nil scorer falls back to the
// built-in lexicon scorer.
func NewClassifier(scorer Scorer) *Classifier {
	if scorer == nil {
		scorer = NewLexiconScorer()
	}
	return &Classifier{scorer: scorer}
}

// Classify 打分并映射标签。打分失败向上传递,由调用方决定降级策略。
func (c *Classifier) Classify(text string) (mood.Label, float64, error) {
	polarity, err := c.scorer.Score(text)
	if err != nil {
		return "", 0, fmt.Errorf("score text: %w", err)
	}
	return ClassifyPolarity(polarity), polarity, nil
}

// ClassifyPolarity 按从左到右的半开区间映射极性。
// 边界值归属:p == -0.5 为 sad,p == 0 为 calm,p == 0.5 为 happy。
func ClassifyPolarity(p float64) mood.Label {
	switch {
	case p < -0.5:
		return mood.Stressed
	case p < 0:
		return mood.Sad
	case p < 0.5:
		return mood.Calm
	default:
		return mood.Happy
	}
}
