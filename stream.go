package loglens

import (
	"context"
	"errors"
	"iter"
)

// resultSequence adapts a poll function into a lazy result sequence.
//
// Polls happen one pull at a time, so pacing is preserved and breaking out
// of the range stops all network activity. The sequence ends silently on
// exhaustion or context cancellation; any other error is yielded once as the
// final element.
func resultSequence(ctx context.Context, poll func(context.Context) (PollResult, error)) iter.Seq2[PollResult, error] {
	return func(yield func(PollResult, error) bool) {
		for {
			result, err := poll(ctx)
			switch {
			case err == nil:
				if !yield(result, nil) {
					return
				}
			case errors.Is(err, ErrQueryJobExhausted) || ctx.Err() != nil:
				return
			default:
				yield(PollResult{}, err)
				return
			}
		}
	}
}

// Results returns the job's segments as a lazy sequence, polling on demand
// until the result is exhausted.
//
// Each pull performs at most one [StaticQueryJob.Poll], so the sequence
// honours the server's pacing, and breaking out of the loop early simply
// stops polling. After the job completes the sequence ends; a sequence over
// an already-exhausted job yields nothing.
//
// Errors end the sequence: cancellation of ctx ends it silently, any other
// error is yielded once, paired with a zero [PollResult]:
//
//	for result, err := range job.Results(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    for _, event := range result.Events {
//	        fmt.Println(event["@rawstring"])
//	    }
//	}
func (s *StaticQueryJob) Results(ctx context.Context) iter.Seq2[PollResult, error] {
	return resultSequence(ctx, func(ctx context.Context) (PollResult, error) {
		return s.Poll(ctx)
	})
}

// Results returns the live window's states as a lazy sequence, polling on
// demand for as long as it is consumed.
//
// A live job never completes, so the sequence does not end on its own: stop
// it by breaking out of the loop or cancelling ctx, and call
// [LiveQueryJob.Close] when the job is no longer needed. Error handling
// matches [StaticQueryJob.Results].
func (l *LiveQueryJob) Results(ctx context.Context) iter.Seq2[PollResult, error] {
	return resultSequence(ctx, func(ctx context.Context) (PollResult, error) {
		return l.Poll(ctx)
	})
}
