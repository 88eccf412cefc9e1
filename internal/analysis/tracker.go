// Package analysis runs AI case analyses in the background and tracks their outcome per case.
package analysis

import (
	"context"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/models"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrInProgress is returned when an analysis of the same case is still pending.
	ErrInProgress = errors.NewSentinel("analysis already in progress")
	// ErrStopped is returned after the tracker has stopped.
	ErrStopped = errors.NewSentinel("analysis tracker stopped")
)

type State string

const (
	// StateNone means no analysis has been started for the case since the tracker started.
	StateNone      State = "none"
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Status is the outcome of the latest analysis of one case.
type Status struct {
	State      State            `json:"state"`
	Report     *models.AIReport `json:"report,omitempty"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	err        error
}

// Err returns the failure of a failed analysis.
func (s Status) Err() error {
	return s.err
}

// Job produces the analysis of one case.
type Job func(ctx context.Context) (models.AIReport, error)

type startRequest struct {
	id    string
	job   Job
	reply chan error
}

type finishEvent struct {
	id     string
	report models.AIReport
	err    error
}

type statusRequest struct {
	id    string
	wait  bool
	reply chan Status
}

// Tracker allows one pending analysis per case. A single goroutine started with Run owns all state; the other
// methods communicate with it over channels.
//
// Callers that wait for a pending analysis are unblocked when it finishes, so a second request for the same
// case resolves to the outcome of the first instead of starting another external call.
type Tracker struct {
	logger        *slog.Logger
	stopChannel   chan struct{}
	doneChannel   chan struct{}
	startChannel  chan startRequest
	finishChannel chan finishEvent
	statusChannel chan statusRequest
	stopOnce      sync.Once
	jobs          sync.WaitGroup
	now           func() time.Time
}

func NewTracker(logger *slog.Logger) *Tracker {
	return &Tracker{
		logger:        logger.With("source", "analysis.Tracker"),
		stopChannel:   make(chan struct{}),
		doneChannel:   make(chan struct{}),
		startChannel:  make(chan startRequest),
		finishChannel: make(chan finishEvent),
		statusChannel: make(chan statusRequest),
		now:           time.Now,
	}
}

// Run processes requests until ctx is done or Stop is called. Jobs receive a context derived from ctx.
// It should be called in a goroutine.
func (t *Tracker) Run(ctx context.Context) {
	defer close(t.doneChannel)
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	statuses := map[string]Status{}
	waiters := map[string][]chan Status{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopChannel:
			return

		case req := <-t.startChannel:
			if statuses[req.id].State == StatePending {
				req.reply <- errors.Wrap(ErrInProgress, "start analysis", slog.String("id", req.id))
				break
			}
			statuses[req.id] = Status{State: StatePending, StartedAt: t.now()} //nolint:exhaustruct // pending
			t.jobs.Add(1)
			go t.execute(jobCtx, req.id, req.job)
			req.reply <- nil

		case event := <-t.finishChannel:
			status := statuses[event.id]
			status.FinishedAt = t.now()
			if event.err != nil {
				status.State = StateFailed
				status.Error = event.err.Error()
				status.err = event.err
				t.logger.LogAttrs(ctx, slog.LevelError, "analysis failed",
					slog.String("id", event.id), errors.SlogError(event.err))
			} else {
				report := event.report
				status.State = StateSucceeded
				status.Report = &report
				t.logger.LogAttrs(ctx, slog.LevelInfo, "analysis succeeded", slog.String("id", event.id),
					slog.Duration("elapsed", status.FinishedAt.Sub(status.StartedAt)))
			}
			statuses[event.id] = status
			for _, w := range waiters[event.id] {
				w <- status
			}
			delete(waiters, event.id)

		case req := <-t.statusChannel:
			status, ok := statuses[req.id]
			if !ok {
				status = Status{State: StateNone} //nolint:exhaustruct // nothing known
			}
			if req.wait && status.State == StatePending {
				waiters[req.id] = append(waiters[req.id], req.reply)
				break
			}
			req.reply <- status
		}
	}
}

func (t *Tracker) execute(ctx context.Context, id string, job Job) {
	defer t.jobs.Done()
	var event finishEvent
	event.id = id
	func() {
		defer func() {
			if r := recover(); r != nil {
				event.err = errors.New("analysis panicked", slog.Any("panic", r))
			}
		}()
		event.report, event.err = job(ctx)
	}()
	select {
	case t.finishChannel <- event:
	case <-t.doneChannel:
	}
}

// Stop the goroutine started with Run. It returns once Run has returned and the jobs, whose context is cancelled
// when Run returns, have finished. Run must have been started.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopChannel)
	})
	<-t.doneChannel
	t.jobs.Wait()
}

// Start runs job in the background for case id. It returns ErrInProgress while an earlier job for id is pending.
func (t *Tracker) Start(id string, job Job) error {
	reply := make(chan error, 1)
	select {
	case t.startChannel <- startRequest{id: id, job: job, reply: reply}:
		return <-reply
	case <-t.doneChannel:
		return errors.Wrap(ErrStopped, "start analysis")
	}
}

// Status returns the latest outcome for case id without blocking on a pending job.
func (t *Tracker) Status(id string) Status {
	status, err := t.request(context.Background(), id, false)
	if err != nil {
		return Status{State: StateNone, err: err} //nolint:exhaustruct // tracker gone
	}
	return status
}

// Wait blocks until the pending analysis of case id finishes and returns its outcome. It returns immediately when
// nothing is pending.
func (t *Tracker) Wait(ctx context.Context, id string) (Status, error) {
	return t.request(ctx, id, true)
}

func (t *Tracker) request(ctx context.Context, id string, wait bool) (Status, error) {
	reply := make(chan Status, 1)
	select {
	case t.statusChannel <- statusRequest{id: id, wait: wait, reply: reply}:
	case <-t.doneChannel:
		return Status{}, errors.Wrap(ErrStopped, "analysis status") //nolint:exhaustruct // no status
	case <-ctx.Done():
		return Status{}, errors.Wrap(ctx.Err(), "analysis status") //nolint:exhaustruct // no status
	}
	select {
	case status := <-reply:
		return status, nil
	case <-t.doneChannel:
		return Status{}, errors.Wrap(ErrStopped, "analysis status") //nolint:exhaustruct // no status
	case <-ctx.Done():
		return Status{}, errors.Wrap(ctx.Err(), "analysis status") //nolint:exhaustruct // no status
	}
}
