package model

// Exercise 自助练习（呼吸、冥想、日记、CBT 等）
type Exercise struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category"`   // breathing, meditation, journaling, cbt
	Difficulty      string `json:"difficulty"` // beginner, intermediate, advanced
	DurationMinutes int    `json:"duration_minutes"`
	Instructions    string `json:"instructions"`
	Benefits        string `json:"benefits,omitempty"`
	IsActive        bool   `json:"is_active"`
}
