package entities

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Sentiment is the coarse three-way classification of conversational tone
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// CoerceSentiment folds arbitrary model output into one of the three
// enumerated sentiment values. Anything unrecognized becomes neutral.
func CoerceSentiment(raw string) Sentiment {
	switch Sentiment(raw) {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return Sentiment(raw)
	default:
		return SentimentNeutral
	}
}

// Defaults applied when the upstream payload or enrichment gives us nothing
const (
	UnknownCallerName  = "Unknown Caller"
	UnknownPhoneNumber = "Unknown Number"
	DefaultSummary     = "Call transcript"

	TranscriptUnavailable = "No transcript available"
	TranscriptFetchError  = "Error fetching transcript"
)

// ErrDuplicateCall is returned by the store when a record with the same call
// id already exists.
var ErrDuplicateCall = errors.New("call record already exists")

// CallRecord is the unit of persistence and broadcast: one finalized,
// enriched call. Records are immutable after creation and never deleted.
// The wire shape lives in adapter/dto; this is the storage model.
type CallRecord struct {
	ID              string                                     `gorm:"type:varchar(255);primaryKey"`
	Timestamp       time.Time                                  `gorm:"type:timestamptz;not null;index:idx_call_records_timestamp,sort:desc"`
	Transcript      string                                     `gorm:"type:text"`
	CallerName      string                                     `gorm:"type:varchar(255);not null;default:'Unknown Caller'"`
	CallerPhone     string                                     `gorm:"type:varchar(64);not null;default:'Unknown Number'"`
	Sentiment       Sentiment                                  `gorm:"type:varchar(8);not null;default:'neutral'"`
	Summary         string                                     `gorm:"type:text"`
	AgentAssessment *string                                    `gorm:"type:text"`
	RecordingURL    string                                     `gorm:"type:text"`
	RawEvent        datatypes.JSONType[map[string]interface{}] `gorm:"type:jsonb"`
	CreatedAt       time.Time                                  `gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (CallRecord) TableName() string {
	return "call_records"
}

// NewCallRecord creates a record with every field at its documented default.
// The pipeline overwrites fields as enrichment stages succeed.
func NewCallRecord(callID string, now time.Time) *CallRecord {
	return &CallRecord{
		ID:          callID,
		Timestamp:   now.UTC(),
		Transcript:  TranscriptUnavailable,
		CallerName:  UnknownCallerName,
		CallerPhone: UnknownPhoneNumber,
		Sentiment:   SentimentNeutral,
		Summary:     DefaultSummary,
	}
}

// FallbackCallID builds a deterministic id for events that arrive without
// one. Nanosecond resolution keeps two id-less events arriving close
// together from collapsing into the same dedup bucket.
func FallbackCallID(now time.Time) string {
	return fmt.Sprintf("call_%d", now.UnixNano())
}

// Validate checks the record invariants before persistence
func (r *CallRecord) Validate() error {
	if r.ID == "" {
		return errors.New("call record id is required")
	}
	if r.Timestamp.IsZero() {
		return errors.New("call record timestamp is required")
	}
	switch r.Sentiment {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
	default:
		return fmt.Errorf("invalid sentiment %q", r.Sentiment)
	}
	return nil
}
