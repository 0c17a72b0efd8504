package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/inboxshot/pkg/binder"
	"github.com/dmitrymomot/inboxshot/pkg/handler"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
	"github.com/dmitrymomot/inboxshot/svc/runs"
	"github.com/dmitrymomot/inboxshot/svc/store"
)

// StatusReader reports run progress. runs.Aggregator satisfies it.
type StatusReader interface {
	Status(ctx context.Context, runID uuid.UUID) (runs.Summary, error)
}

// API serves run creation and status over HTTP.
type API struct {
	runs     RunStore
	status   StatusReader
	enqueuer Enqueuer
	log      *slog.Logger
}

func NewAPI(runStore RunStore, status StatusReader, enqueuer Enqueuer, log *slog.Logger) *API {
	if log == nil {
		log = slog.Default()
	}
	return &API{runs: runStore, status: status, enqueuer: enqueuer, log: log}
}

type createRunRequest struct {
	Clients      []string `json:"clients"`
	Engines      []string `json:"engines"`
	SubjectToken string   `json:"subject_token"`
}

type getRunRequest struct {
	ID uuid.UUID `path:"id"`
}

// RunResponse is the JSON view of a run.
type RunResponse struct {
	ID            uuid.UUID       `json:"id"`
	Status        store.RunStatus `json:"status"`
	ExpectedShots int             `json:"expected_shots"`
	Screenshots   int             `json:"screenshots"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Routes mounts POST /v1/runs and GET /v1/runs/{id} on r.
func (a *API) Routes(r chi.Router) {
	onError := handler.NewErrorHandler(a.log)
	r.Post("/v1/runs", handler.Wrap(a.createRun,
		handler.WithBinders[createRunRequest](binder.JSON()),
		handler.WithErrorHandler[createRunRequest](onError),
	))
	r.Get("/v1/runs/{id}", handler.Wrap(a.getRun,
		handler.WithBinders[getRunRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[getRunRequest](onError),
	))
}

func (a *API) createRun(ctx handler.Context, req createRunRequest) handler.Response {
	runReq, verr := req.validate()
	if !verr.IsEmpty() {
		return handler.JSONError(verr)
	}

	run, err := EnqueueRun(ctx, a.runs, a.enqueuer, runReq)
	if err != nil {
		a.log.ErrorContext(ctx, "failed to create run", logger.Error(err))
		if errors.Is(err, ErrEnqueue) {
			return handler.JSONError(errors.Join(handler.ErrServiceUnavailable, err))
		}
		return handler.JSONError(err)
	}
	return handler.JSON(RunResponse{
		ID:            run.ID,
		Status:        run.Status,
		ExpectedShots: run.ExpectedShots,
		CreatedAt:     run.CreatedAt,
	}, handler.WithJSONStatus(http.StatusCreated))
}

func (a *API) getRun(ctx handler.Context, req getRunRequest) handler.Response {
	if req.ID == uuid.Nil {
		return handler.JSONError(handler.ErrNotFound)
	}
	summary, err := a.status.Status(ctx, req.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return handler.JSONError(errors.Join(handler.ErrNotFound, err))
		}
		return handler.JSONError(err)
	}
	return handler.JSON(RunResponse{
		ID:            summary.Run.ID,
		Status:        summary.Run.Status,
		ExpectedShots: summary.Run.ExpectedShots,
		Screenshots:   summary.Screenshots,
		CreatedAt:     summary.Run.CreatedAt,
	})
}

func (r createRunRequest) validate() (RunRequest, handler.ValidationError) {
	verr := handler.NewValidationError()
	out := RunRequest{SubjectToken: r.SubjectToken}

	if r.SubjectToken == "" {
		verr.Add("subject_token", "is required")
	}
	for _, s := range r.Clients {
		c, err := mailbox.ParseClient(s)
		if err != nil {
			verr.Add("clients", "unknown client "+s)
			continue
		}
		out.Clients = append(out.Clients, c)
	}
	for _, s := range r.Engines {
		e, err := mailbox.ParseEngine(s)
		if err != nil {
			verr.Add("engines", "unknown engine "+s)
			continue
		}
		out.Engines = append(out.Engines, e)
	}
	return out, verr
}
