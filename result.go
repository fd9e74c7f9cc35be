package loglens

import (
	"encoding/json"
	"fmt"
)

// PollResult is one segment of a query job's result: the events delivered by
// a poll together with the metadata the server attached to them.
//
// For a non-aggregate (streaming or filter) query, Events holds the next
// slice of matching events and successive polls advance through the result.
// For an aggregate query, Events holds the complete aggregate snapshot and
// successive polls return fresher snapshots.
type PollResult struct {
	// Events are the raw events of this segment. Each event is the server's
	// JSON object, undecoded beyond generic maps; field layout depends
	// entirely on the query.
	Events []map[string]any

	// Metadata describes the segment and the job's progress.
	Metadata PollMetadata
}

// PollMetadata is the server's description of a poll response. The commonly
// needed fields are typed; the full metadata object is preserved verbatim in
// Fields for anything beyond them.
type PollMetadata struct {
	// IsAggregate reports whether the query computes an aggregate result
	// (a snapshot recomputed per poll) rather than a stream of events.
	IsAggregate bool

	// WorkDone is the number of work units the server has processed so far.
	WorkDone int

	// TotalWork is the number of work units the full query requires. A
	// segment with WorkDone == TotalWork reflects the complete input.
	TotalWork int

	// PollAfter is the server-requested minimum delay before the next poll,
	// in milliseconds. The client enforces it automatically.
	PollAfter int

	// Done reports whether the server considers the job complete.
	Done bool

	// Cancelled reports whether the job was cancelled server-side.
	Cancelled bool

	// Fields is the metadata object exactly as the server sent it,
	// including keys this library does not interpret.
	Fields map[string]any
}

// Progress reports the fraction of the query's work the server has
// completed, in [0, 1]. It returns 0 while TotalWork is unknown.
func (m PollMetadata) Progress() float64 {
	if m.TotalWork <= 0 {
		return 0
	}
	return float64(m.WorkDone) / float64(m.TotalWork)
}

// pollResponse is the wire envelope of a poll.
type pollResponse struct {
	Events    []map[string]any `json:"events"`
	Done      bool             `json:"done"`
	Cancelled bool             `json:"cancelled"`
	MetaData  json.RawMessage  `json:"metaData"`
}

// pollMetaData is the typed view of the envelope's metaData object.
type pollMetaData struct {
	IsAggregate bool `json:"isAggregate"`
	WorkDone    int  `json:"workDone"`
	TotalWork   int  `json:"totalWork"`
	PollAfter   int  `json:"pollAfter"`
}

// decodePollResponse parses a poll response body into a [PollResult].
//
// The metadata object is decoded twice: once into the typed fields and once
// into the verbatim Fields map. Done and Cancelled live on the envelope, not
// inside metaData, and are folded into the metadata here so callers have a
// single place to look.
func decodePollResponse(body []byte) (PollResult, error) {
	var envelope pollResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return PollResult{}, fmt.Errorf("failed to decode poll response: %w", err)
	}

	var typed pollMetaData
	var fields map[string]any
	if len(envelope.MetaData) > 0 {
		if err := json.Unmarshal(envelope.MetaData, &typed); err != nil {
			return PollResult{}, fmt.Errorf("failed to decode poll metadata: %w", err)
		}
		if err := json.Unmarshal(envelope.MetaData, &fields); err != nil {
			return PollResult{}, fmt.Errorf("failed to decode poll metadata: %w", err)
		}
	}

	return PollResult{
		Events: envelope.Events,
		Metadata: PollMetadata{
			IsAggregate: typed.IsAggregate,
			WorkDone:    typed.WorkDone,
			TotalWork:   typed.TotalWork,
			PollAfter:   typed.PollAfter,
			Done:        envelope.Done,
			Cancelled:   envelope.Cancelled,
			Fields:      fields,
		},
	}, nil
}
