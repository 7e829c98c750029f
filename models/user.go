package models

// User is a mock, local-only identity
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of the analysis history
type ChatMessage struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Data      *AnalysisResult `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}
