package selfcare

// Kind classifies the self-care content shown in the widget sidebar.
type Kind string

const (
	KindBreathing Kind = "breathing" // 呼吸练习
	KindResources Kind = "resources" // 求助资源目录
)

// Item captures one piece of static self-care content.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  Kind   `json:"kind"`
	Body  string `json:"body"`
}

// Seed provides the default self-care content shown to every session.
func Seed() []Item {
	return []Item{
		{
			ID:    "breathing-478",
			Title: "4-7-8 Breathing Technique",
			Kind:  KindBreathing,
			Body: `🌬️ 4-7-8 Breathing Technique:
1. Empty your lungs completely
2. Breathe in quietly through nose for 4 seconds
3. Hold breath for 7 seconds
4. Exhale completely through mouth for 8 seconds
5. Repeat 4 times`,
		},
		{
			ID:    "help-resources",
			Title: "Helpful Resources",
			Kind:  KindResources,
			Body: `📚 Helpful Resources:
• Crisis Hotline: 1-800-273-TALK (8255)
• Anxiety & Depression Association of America: adaa.org
• National Suicide Prevention Lifeline: 988lifeline.org
• Calm Meditation App: calm.com
• Headspace Meditation: headspace.com`,
		},
	}
}
