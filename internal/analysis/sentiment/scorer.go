package sentiment

import (
	"strings"
	"unicode"
)

// Scorer 将自由文本映射为 [-1, 1] 区间的极性得分。
type Scorer interface {
	Score(text string) (float64, error)
}

// LexiconScorer 基于内置词表的极性打分器:逐词取极性并平均,
// 支持否定词翻转与程度副词加权。空文本与未命中词表的文本均视为中性。
type LexiconScorer struct{}

// NewLexiconScorer returns the default lexicon-backed scorer.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{}
}

// negationWindow 否定词最多影响其后多少个词。
const negationWindow = 3

var lexicon = map[string]float64{
	// positive
	"happy": 0.8, "happiness": 0.8, "joy": 0.8, "joyful": 0.8, "glad": 0.6,
	"good": 0.7, "great": 0.8, "wonderful": 1.0, "amazing": 0.9, "awesome": 0.9,
	"excellent": 1.0, "fantastic": 0.9, "perfect": 1.0, "beautiful": 0.85,
	"love": 0.6, "loved": 0.6, "nice": 0.6, "better": 0.5, "best": 1.0,
	"calm": 0.3, "peaceful": 0.6, "relaxed": 0.5, "relaxing": 0.5, "rested": 0.4,
	"okay": 0.3, "ok": 0.3, "fine": 0.4, "alright": 0.3, "content": 0.5,
	"hopeful": 0.6, "hope": 0.4, "grateful": 0.7, "thankful": 0.7, "thanks": 0.5,
	"excited": 0.7, "proud": 0.7, "safe": 0.4, "supported": 0.5, "comforted": 0.5,
	"energized": 0.6, "refreshed": 0.5, "motivated": 0.6, "confident": 0.6,

	// negative
	"sad": -0.5, "unhappy": -0.6, "depressed": -0.7, "depressing": -0.6,
	"miserable": -0.8, "terrible": -1.0, "horrible": -1.0, "awful": -0.8,
	"bad": -0.7, "worse": -0.6, "worst": -1.0, "stressed": -0.7, "stress": -0.6,
	"stressful": -0.6, "anxious": -0.6, "anxiety": -0.6, "worried": -0.5,
	"worry": -0.4, "afraid": -0.6, "scared": -0.6, "fear": -0.6, "panic": -0.8,
	"angry": -0.7, "mad": -0.6, "upset": -0.5, "frustrated": -0.6,
	"hopeless": -0.9, "helpless": -0.7, "lonely": -0.6, "alone": -0.3,
	"tired": -0.4, "exhausted": -0.6, "overwhelmed": -0.7, "cry": -0.5,
	"crying": -0.5, "hurt": -0.6, "pain": -0.6, "painful": -0.7, "hate": -0.8,
	"lost": -0.4, "empty": -0.5, "numb": -0.4, "broken": -0.6, "dread": -0.7,
	"nervous": -0.5, "gloomy": -0.6, "down": -0.3, "hard": -0.3, "tough": -0.3,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "cannot": true, "cant": true,
	"can't": true, "dont": true, "don't": true, "doesnt": true, "doesn't": true,
	"didnt": true, "didn't": true, "isnt": true, "isn't": true, "wasnt": true,
	"wasn't": true, "wont": true, "won't": true, "couldnt": true,
	"couldn't": true, "aint": true, "ain't": true, "hardly": true,
	"barely": true, "without": true,
}

var intensifiers = map[string]float64{
	"very": 1.3, "really": 1.3, "so": 1.35, "extremely": 1.5,
	"incredibly": 1.5, "totally": 1.3, "completely": 1.4, "absolutely": 1.5,
	"deeply": 1.4, "utterly": 1.5, "quite": 1.1,
	"slightly": 0.5, "somewhat": 0.6, "little": 0.6, "bit": 0.6, "kinda": 0.7,
	"fairly": 0.8,
}

// Score 对文本逐词打分并取均值;感叹号按程度放大,结果裁剪到 [-1, 1]。
func (s *LexiconScorer) Score(text string) (float64, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0, nil
	}

	var sum float64
	hits := 0
	negated := 0
	boost := 1.0
	for _, token := range tokens {
		if negations[token] {
			negated = negationWindow
			continue
		}
		if factor, ok := intensifiers[token]; ok {
			boost *= factor
			continue
		}

		polarity, ok := lexicon[token]
		if !ok {
			if negated > 0 {
				negated--
			}
			continue
		}
		if negated > 0 {
			// 否定翻转并削弱,镜像主流词法打分器的处理方式。
			polarity *= -0.5
			negated = 0
		}
		sum += clampPolarity(polarity * boost)
		hits++
		boost = 1.0
	}

	if hits == 0 {
		return 0, nil
	}

	avg := sum / float64(hits)
	if exclamations := strings.Count(text, "!"); exclamations > 0 {
		factor := 1 + 0.1*float64(min(exclamations, 3))
		avg *= factor
	}
	return clampPolarity(avg), nil
}

func tokenize(text string) []string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return nil
	}
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func clampPolarity(p float64) float64 {
	if p > 1 {
		return 1
	}
	if p < -1 {
		return -1
	}
	return p
}
