package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	apperrors "github.com/calldeck-team/calldeck/errors"
	"github.com/calldeck-team/calldeck/internal/domain/entities"
	"github.com/calldeck-team/calldeck/internal/domain/repositories"
	"github.com/calldeck-team/calldeck/internal/usecase/enrich"
	"github.com/calldeck-team/calldeck/pkg/voice"
)

// EventCallEnded is the only webhook event kind that triggers the pipeline
const EventCallEnded = "call.ended"

// Event is a parsed inbound webhook notification
type Event struct {
	Kind         string
	CallID       string
	PhoneNumber  string
	ShortSummary string
	Raw          map[string]interface{}
}

// TranscriptFetcher retrieves the joined conversation text for a call.
// Satisfied by voice.Client.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, callID string) voice.TranscriptResult
}

// Enricher runs the text-analysis sub-operations. Satisfied by
// enrich.Service.
type Enricher interface {
	Enrich(ctx context.Context, transcript string) enrich.Result
}

// Publisher announces a finalized record to live subscribers. Satisfied by
// realtime.Hub. The pipeline depends on publish only, never on connection
// internals.
type Publisher interface {
	PublishNewCall(record *entities.CallRecord)
}

// Outcome reports what one pipeline run did with an event
type Outcome struct {
	Record    *entities.CallRecord
	Duplicate bool
}

// Service drives one pipeline run per call-ended event: gate, transcript
// fetch, enrichment, record assembly, persistence, broadcast. Multiple
// events may run concurrently; the gate and the store serialize per call id.
type Service struct {
	gate          *Gate
	transcripts   TranscriptFetcher
	enricher      Enricher
	repo          repositories.CallRepository
	publisher     Publisher
	publicBaseURL string
	logger        *zap.Logger
	now           func() time.Time
}

// NewService constructs the ingestion pipeline
func NewService(
	gate *Gate,
	transcripts TranscriptFetcher,
	enricher Enricher,
	repo repositories.CallRepository,
	publisher Publisher,
	publicBaseURL string,
	logger *zap.Logger,
) *Service {
	return &Service{
		gate:          gate,
		transcripts:   transcripts,
		enricher:      enricher,
		repo:          repo,
		publisher:     publisher,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
		now:           time.Now,
	}
}

// HandleCallEnded processes one call-ended event end to end. Only a storage
// failure is returned as an error; every upstream or enrichment failure
// degrades to the documented fallback values and the record is still
// persisted and broadcast.
func (s *Service) HandleCallEnded(ctx context.Context, ev Event) (*Outcome, error) {
	callID := ev.CallID
	if callID == "" {
		// Assign the generated id before the gate check so id-less events
		// do not all collapse into one dedup bucket key.
		callID = entities.FallbackCallID(s.now())
		if s.logger != nil {
			s.logger.Warn("event arrived without call id, generated fallback",
				zap.String("call_id", callID))
		}
	}

	if first := s.gate.CheckAndMark(ctx, callID); !first {
		if s.logger != nil {
			s.logger.Info("duplicate call-ended delivery short-circuited",
				zap.String("call_id", callID))
		}
		return &Outcome{Duplicate: true}, nil
	}

	record := entities.NewCallRecord(callID, s.now())
	if ev.PhoneNumber != "" {
		record.CallerPhone = ev.PhoneNumber
	}
	if ev.ShortSummary != "" {
		record.Summary = ev.ShortSummary
	}
	if ev.Raw != nil {
		record.RawEvent = datatypes.NewJSONType(ev.Raw)
	}

	result := s.transcripts.FetchTranscript(ctx, callID)
	record.Transcript = result.Text
	if result.OK {
		enriched := s.enricher.Enrich(ctx, result.Text)
		record.CallerName = enriched.CallerName
		record.Sentiment = enriched.Sentiment
		record.AgentAssessment = enriched.Assessment
	} else if s.logger != nil {
		s.logger.Warn("transcript unavailable, skipping enrichment",
			zap.String("call_id", callID),
			zap.String("sentinel", result.Text))
	}

	record.RecordingURL = s.recordingURL(callID)

	if err := s.repo.Append(ctx, record); err != nil {
		if err == entities.ErrDuplicateCall {
			// The gate lost its history (restart) but the record is already
			// durable. Acknowledge instead of making the upstream retry.
			if s.logger != nil {
				s.logger.Info("store rejected duplicate call record",
					zap.String("call_id", callID))
			}
			return &Outcome{Duplicate: true}, nil
		}
		if s.logger != nil {
			s.logger.Error("failed to persist call record",
				zap.String("call_id", callID),
				zap.Error(err))
		}
		// Nothing was stored, so the gate must not keep claiming this id:
		// release it or the upstream's retry would be swallowed as a
		// duplicate of a record that never existed.
		s.gate.Unmark(ctx, callID)
		return nil, apperrors.ErrStorageFailure(err).WithDetail("call_id", callID)
	}

	// Broadcast strictly after the write: subscribers must never see a
	// record that is not durably recorded.
	s.publisher.PublishNewCall(record)

	if s.logger != nil {
		s.logger.Info("call record ingested",
			zap.String("call_id", callID),
			zap.String("sentiment", string(record.Sentiment)),
			zap.Bool("enriched", result.OK))
	}
	return &Outcome{Record: record}, nil
}

func (s *Service) recordingURL(callID string) string {
	return fmt.Sprintf("%s/calls/%s/recording", s.publicBaseURL, url.PathEscape(callID))
}
