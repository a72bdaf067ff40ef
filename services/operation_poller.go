package services

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/warden-io/warden-panel/models"
)

// OperationFetcher is the slice of the API client needed to read operation
// state.
type OperationFetcher interface {
	Get(ctx context.Context, path string, useCache bool) (models.Response, error)
}

type OperationPoller struct {
	fetcher OperationFetcher
	retryer Retryer
}

func NewOperationPoller(fetcher OperationFetcher, retryer Retryer) *OperationPoller {
	return &OperationPoller{fetcher: fetcher, retryer: retryer}
}

// Poll fetches the operation until it completes or the retry budget is
// spent. The boolean is false when the budget ran out.
func (p *OperationPoller) Poll(ctx context.Context, endpoint string) (models.OperationOutcome, bool, error) {
	for attempt := 0; ; attempt++ {
		outcome, err := p.FetchOperationState(ctx, endpoint)
		if err != nil {
			return models.OperationOutcome{}, false, err
		}
		if outcome.Completed {
			return outcome, true, nil
		}

		delay, ok := p.retryer.NextDelay(attempt)
		if !ok {
			log.Warn().Str("endpoint", endpoint).Int("attempts", attempt+1).Msg("operation has not completed")
			return models.OperationOutcome{}, false, nil
		}
		log.Debug().Str("endpoint", endpoint).Int("attempt", attempt+1).Dur("delay", delay).Msg("operation has not completed, retrying")

		if err := sleepContext(ctx, delay); err != nil {
			return models.OperationOutcome{}, false, err
		}
	}
}

// FetchOperationState reads the operation once. A 404 or the created state
// both mean the backend has not finished with it yet.
func (p *OperationPoller) FetchOperationState(ctx context.Context, endpoint string) (models.OperationOutcome, error) {
	response, err := p.fetcher.Get(ctx, endpoint, false)
	if err != nil {
		if IsNotFound(err) {
			return models.OperationOutcome{Completed: false}, nil
		}
		return models.OperationOutcome{}, err
	}
	if response.StatusCode() == http.StatusNotFound {
		return models.OperationOutcome{Completed: false}, nil
	}

	var state models.OperationState
	if err := response.Decode(&state); err != nil {
		return models.OperationOutcome{}, err
	}
	if state.State == models.OperationStateCreated {
		return models.OperationOutcome{Completed: false}, nil
	}

	return models.OperationOutcome{
		Completed: true,
		Name:      state.Name,
		Success:   state.Success,
		Code:      state.Code,
		Message:   state.Message,
		Resource:  state.Resource,
	}, nil
}
