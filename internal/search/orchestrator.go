package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"infinity-mcp/internal/constants"
	"infinity-mcp/internal/models"
	"infinity-mcp/internal/query"
)

// Orchestrator drives one query through submit, poll, and drain. Each Run
// call owns its task exclusively; the only state shared with concurrent
// runs is the client's token source and rate limiter.
type Orchestrator struct {
	Client *Client
	Log    zerolog.Logger

	PollInterval time.Duration
	MaxPolls     int

	// sleep suspends between polls; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(client *Client, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		Client:       client,
		Log:          log,
		PollInterval: constants.PollInterval,
		MaxPolls:     constants.MaxPollAttempts,
		sleep:        sleepContext,
	}
}

// Run executes the full lifecycle for one query and returns the aggregated
// result. Submission and top-level page failures abort the whole run;
// failures on chained pages truncate only that shard.
func (o *Orchestrator) Run(ctx context.Context, translation query.Translation, accounts []string) (*models.QueryResult, error) {
	taskID, err := o.Client.Submit(ctx, translation.Filter, translation.Window, accounts)
	if err != nil {
		return nil, err
	}
	o.Log.Debug().Str("task_id", taskID).Str("filter", translation.Filter).Msg("search task submitted")

	pageTokens, err := o.PollUntilReady(ctx, taskID)
	if err != nil {
		return nil, err
	}

	records, total, err := o.DrainPages(ctx, taskID, pageTokens)
	if err != nil {
		return nil, err
	}

	o.Log.Info().Str("task_id", taskID).Int("total_records", total).Msg("search complete")
	return &models.QueryResult{
		Records:      records,
		TotalRecords: total,
		FilterUsed:   translation.Filter,
		Timeframe:    translation.Window,
		Product:      translation.Product,
	}, nil
}

// PollUntilReady polls the task at a fixed interval until it reaches a
// terminal state, returning its page tokens. The loop is bounded at
// MaxPolls iterations; exceeding the bound is a Timeout. Unrecognized
// states abort immediately.
func (o *Orchestrator) PollUntilReady(ctx context.Context, taskID string) ([]string, error) {
	for attempt := 0; attempt < o.MaxPolls; attempt++ {
		status, err := o.Client.Status(ctx, taskID)
		if err != nil {
			return nil, err
		}

		switch {
		case status.State.Terminal():
			return status.PageTokens, nil
		case status.State == models.TaskFailed:
			return nil, &models.APIError{
				Kind:    models.ErrTaskFailed,
				Message: "search task failed",
				Remote:  status.Errors,
			}
		case status.State == models.TaskPending, status.State == models.TaskProcessing:
			o.Log.Debug().Str("task_id", taskID).Int("attempt", attempt+1).Str("state", string(status.State)).Msg("task not ready")
			if err := o.sleep(ctx, o.PollInterval); err != nil {
				return nil, &models.APIError{Kind: models.ErrTransport, Message: "poll wait aborted", Err: err}
			}
		default:
			return nil, &models.APIError{
				Kind:    models.ErrUnknownTaskState,
				Message: "unknown task state: " + string(status.State),
			}
		}
	}

	return nil, &models.APIError{
		Kind:    models.ErrTimeout,
		Message: "search task did not complete in time",
	}
}

// DrainPages retrieves every shard and its chained continuations, appending
// records in encounter order. The total is the sum of the API's own batch
// counts. A failed chained retrieval stops that shard but keeps what was
// already accumulated; a failed top-level retrieval aborts the drain.
func (o *Orchestrator) DrainPages(ctx context.Context, taskID string, pageTokens []string) ([]json.RawMessage, int, error) {
	// non-nil so an empty result serializes as [] rather than null
	records := []json.RawMessage{}
	total := 0

	for _, token := range pageTokens {
		batch, err := o.Client.Retrieve(ctx, taskID, token)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, batch.Records...)
		total += batch.RecordsCount

		for next := batch.NextPageToken; next != ""; next = batch.NextPageToken {
			batch, err = o.Client.Retrieve(ctx, taskID, next)
			if err != nil {
				o.Log.Warn().Err(err).Str("task_id", taskID).Msg("chained page retrieval failed, keeping partial shard")
				break
			}
			records = append(records, batch.Records...)
			total += batch.RecordsCount
		}
	}

	return records, total, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
