package call

import (
	"time"

	"github.com/calldeck-team/calldeck/internal/domain/entities"
)

// Caller is the nested caller object on the wire
type Caller struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Response is the wire shape of a CallRecord, shared by the history query
// and the realtime newCall event.
type Response struct {
	ID              string             `json:"id"`
	Timestamp       time.Time          `json:"timestamp"`
	Transcript      string             `json:"transcript"`
	Caller          Caller             `json:"caller"`
	Sentiment       entities.Sentiment `json:"sentiment"`
	Summary         string             `json:"summary"`
	AgentAssessment *string            `json:"agentAssessment"`
	RecordingURL    string             `json:"recordingUrl"`
}

// FromEntity maps a stored record to its wire shape
func FromEntity(r *entities.CallRecord) Response {
	return Response{
		ID:              r.ID,
		Timestamp:       r.Timestamp,
		Transcript:      r.Transcript,
		Caller:          Caller{Name: r.CallerName, Phone: r.CallerPhone},
		Sentiment:       r.Sentiment,
		Summary:         r.Summary,
		AgentAssessment: r.AgentAssessment,
		RecordingURL:    r.RecordingURL,
	}
}

// FromEntities maps a record list, preserving order
func FromEntities(records []*entities.CallRecord) []Response {
	out := make([]Response, 0, len(records))
	for _, r := range records {
		out = append(out, FromEntity(r))
	}
	return out
}
