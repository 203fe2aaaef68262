package mood

import "strings"

// Label 表示会话使用的四档情绪标签。
type Label string

const (
	Stressed Label = "stressed"
	Sad      Label = "sad"
	Calm     Label = "calm"
	Happy    Label = "happy"
)

// Source 标识情绪条目的记录来源。
type Source string

const (
	SourceInferred Source = "inferred" // 由情感分析推断
	SourceManual   Source = "manual"   // 用户手动选择
)

var displayNames = map[Label]string{
	Stressed: "😔 Stressed",
	Sad:      "😟 Sad",
	Calm:     "😊 Calm",
	Happy:    "😄 Happy",
}

// Display returns the emoji form rendered by the widget's mood selector.
func (l Label) Display() string {
	if name, ok := displayNames[l]; ok {
		return name
	}
	return string(l)
}

// Valid reports whether l is one of the four supported labels.
func (l Label) Valid() bool {
	_, ok := displayNames[l]
	return ok
}

// All lists the labels ordered from most negative to most positive.
func All() []Label {
	return []Label{Stressed, Sad, Calm, Happy}
}

// ParseLabel 同时接受裸标签("happy")与前端选择器的带表情形式("😄 Happy")。
func ParseLabel(raw string) (Label, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	for label, display := range displayNames {
		if trimmed == display || strings.EqualFold(trimmed, string(label)) {
			return label, true
		}
	}
	fields := strings.Fields(trimmed)
	last := fields[len(fields)-1]
	for label := range displayNames {
		if strings.EqualFold(last, string(label)) {
			return label, true
		}
	}
	return "", false
}
