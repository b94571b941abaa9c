package chat

import (
	"time"

	"github.com/google/uuid"

	"triage-assistant/internal/report"
)

// ProfileEntry is one question/answer pair from the patient's profile.
type ProfileEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SessionReport wraps a generated report stored with the session. At most
// one report is the "main" report: the active conversational topic. The
// rest are historical context only.
type SessionReport struct {
	IsMain      bool          `json:"is_main"`
	GeneratedAt string        `json:"generated_at"`
	ReportData  report.Report `json:"report_data"`
}

// Session is the persisted chat state. The LLM holds no memory between
// calls, so everything needed to rebuild the system prompt lives here.
type Session struct {
	ID          uuid.UUID       `json:"id"`
	ProfileData []ProfileEntry  `json:"profile_data"`
	Reports     []SessionReport `json:"reports"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Turn is one message of the client-held conversation history.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
