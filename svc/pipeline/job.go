package pipeline

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/inboxshot/svc/capture"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

// Job is the queue payload of one screenshot job.
type Job struct {
	RunID        uuid.UUID      `json:"run_id"`
	Client       mailbox.Client `json:"client"`
	Engine       mailbox.Engine `json:"engine"`
	SubjectToken string         `json:"subject_token"`
}

// Shots is how many screenshots the job produces.
func (j Job) Shots() int { return capture.ShotsPerJob }

func (j Job) Validate() error {
	var errs []error
	if j.RunID == uuid.Nil {
		errs = append(errs, errors.New("run id is required"))
	}
	if _, err := mailbox.ParseClient(string(j.Client)); err != nil {
		errs = append(errs, err)
	}
	if _, err := mailbox.ParseEngine(string(j.Engine)); err != nil {
		errs = append(errs, err)
	}
	if j.SubjectToken == "" {
		errs = append(errs, errors.New("subject token is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidJob, errors.Join(errs...))
	}
	return nil
}
