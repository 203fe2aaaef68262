package mood

import "time"

// Entry 记录一次情绪观察,追加后不再修改。
type Entry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Label     Label     `json:"label"`
	Display   string    `json:"display"`
	Source    Source    `json:"source"`
	Polarity  float64   `json:"polarity,omitempty"` // 推断时的极性得分,手动记录为零值
	CreatedAt time.Time `json:"createdAt"`
}

// Summary aggregates the mood log for chart rendering.
type Summary struct {
	Total   int           `json:"total"`
	Counts  map[Label]int `json:"counts"`
	Current Label         `json:"current"`
}
