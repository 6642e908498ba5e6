// Package service implements the enrollment/identification orchestrator: the
// one state machine binding capture, template storage, and the remote matcher
// into the two user-facing workflows.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novenantes/internal/biometric"
	biometrics "novenantes/internal/biometric/metrics"
	"novenantes/pkg/platform/audit"
	"novenantes/pkg/platform/sentinel"
	"novenantes/pkg/requestcontext"
)

// WorkflowState is the orchestrator's externally visible state.
type WorkflowState string

const (
	StateAwaitingCapture WorkflowState = "awaiting_capture"
	StateSampleReady     WorkflowState = "sample_ready"
	StateEnrolling       WorkflowState = "enrolling"
	StateIdentifying     WorkflowState = "identifying"
)

// SampleSource is the slice of the capture session the orchestrator needs.
type SampleSource interface {
	Sample() (biometric.Sample, error)
	Clear()
}

// TemplateStore persists member templates. See internal/biometric/store.
type TemplateStore interface {
	Upsert(ctx context.Context, memberID int64, template biometric.Template) error
	Remove(ctx context.Context, memberID int64) error
	Get(ctx context.Context, memberID int64) (biometric.Template, bool, error)
	ListAll(ctx context.Context) ([]biometric.Candidate, error)
}

// Matcher is the remote matching service client.
type Matcher interface {
	Enroll(ctx context.Context, sample biometric.Sample) (biometric.Template, error)
	Identify(ctx context.Context, sample biometric.Sample, candidates []biometric.Candidate) (biometric.Verdict, error)
}

// StatusListener receives each terminal workflow status. Optional; wired to
// whatever surface the UI listens on.
type StatusListener func(biometric.Status)

// Orchestrator runs at most one workflow against the session's current
// sample. A second start while one is in flight is rejected with ErrBusy
// before any matcher call is made.
type Orchestrator struct {
	session SampleSource
	store   TemplateStore
	matcher Matcher
	logger  *slog.Logger
	metrics *biometrics.Metrics
	audit   audit.Publisher
	tracer  trace.Tracer
	notify  StatusListener

	mu    sync.Mutex
	state WorkflowState
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

func WithMetrics(m *biometrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(o *Orchestrator) { o.audit = p }
}

func WithStatusListener(fn StatusListener) Option {
	return func(o *Orchestrator) { o.notify = fn }
}

func New(session SampleSource, store TemplateStore, matcher Matcher, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		session: session,
		store:   store,
		matcher: matcher,
		logger:  logger,
		audit:   audit.NopPublisher{},
		tracer:  otel.Tracer("novenantes/biometric/orchestrator"),
		state:   StateAwaitingCapture,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State reports the orchestrator's current workflow state.
func (o *Orchestrator) State() WorkflowState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// begin claims the workflow slot. It fails with ErrBusy while another
// workflow holds it.
func (o *Orchestrator) begin(next WorkflowState) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateEnrolling || o.state == StateIdentifying {
		return biometric.ErrBusy
	}
	o.state = next
	return nil
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateAwaitingCapture
}

func (o *Orchestrator) emit(status biometric.Status) biometric.Status {
	if o.notify != nil {
		o.notify(status)
	}
	return status
}

// Enroll associates the session's current sample with the given member. On
// any failure the member's prior template is left untouched: the store write
// only happens after a complete, successful extraction response.
func (o *Orchestrator) Enroll(ctx context.Context, memberID int64) (biometric.Status, error) {
	if err := o.begin(StateEnrolling); err != nil {
		return o.emit(biometric.ErrorStatus("another workflow is in progress")), err
	}
	defer o.finish()

	ctx, span := o.tracer.Start(ctx, "orchestrator.Enroll",
		trace.WithAttributes(attribute.Int64("member.id", memberID)),
	)
	defer span.End()

	sample, err := o.session.Sample()
	if err != nil {
		return o.fail("enroll", err, "capture a fingerprint first"), err
	}

	// Existence check up front so a bad member id never costs a matcher call.
	_, hadPrior, err := o.store.Get(ctx, memberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return o.fail("enroll", err, "member not found"), err
		}
		return o.fail("enroll", err, "could not read stored template"), err
	}

	start := time.Now()
	template, err := o.matcher.Enroll(ctx, sample)
	o.observeMatcher(start)
	if err != nil {
		return o.fail("enroll", err, enrollFailureMessage(err)), err
	}

	if err := o.store.Upsert(ctx, memberID, template); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return o.fail("enroll", err, "member not found"), err
		}
		return o.fail("enroll", err, "could not store template"), err
	}

	action := audit.ActionTemplateEnrolled
	status := biometric.Registered(memberID)
	if hadPrior {
		action = audit.ActionTemplateUpdated
		status = biometric.Updated(memberID)
	}
	o.audit.Emit(ctx, audit.Event{
		Action:    action,
		ActorID:   requestcontext.UserID(ctx),
		MemberID:  memberID,
		RequestID: requestcontext.RequestID(ctx),
	})
	if o.metrics != nil {
		o.metrics.RecordEnrollment(string(status.Kind))
	}
	o.logger.InfoContext(ctx, "fingerprint enrolled",
		"member_id", memberID,
		"replaced", hadPrior,
		"request_id", requestcontext.RequestID(ctx),
	)
	return o.emit(status), nil
}

// Identify finds which member, if any, the session's current sample belongs
// to. The candidate set is read from the store only after the sample exists,
// so a concurrent enrollment completed before this call is always visible.
func (o *Orchestrator) Identify(ctx context.Context) (biometric.Status, error) {
	if err := o.begin(StateIdentifying); err != nil {
		return o.emit(biometric.ErrorStatus("another workflow is in progress")), err
	}
	defer o.finish()

	ctx, span := o.tracer.Start(ctx, "orchestrator.Identify")
	defer span.End()

	sample, err := o.session.Sample()
	if err != nil {
		return o.fail("identify", err, "capture a fingerprint first"), err
	}

	candidates, err := o.store.ListAll(ctx)
	if err != nil {
		return o.fail("identify", err, "could not load enrolled templates"), err
	}
	if len(candidates) == 0 {
		o.logger.WarnContext(ctx, "identification with empty candidate set")
		if o.metrics != nil {
			o.metrics.RecordIdentification(string(biometric.StatusNotIdentified))
		}
		return o.emit(biometric.NotIdentified()), nil
	}

	start := time.Now()
	verdict, err := o.matcher.Identify(ctx, sample, candidates)
	o.observeMatcher(start)
	if err != nil {
		// A transport failure is a failed workflow, never a no-match verdict.
		return o.fail("identify", err, "matching service unavailable"), err
	}

	if !verdict.Matched {
		o.audit.Emit(ctx, audit.Event{
			Action:    audit.ActionIdentificationMiss,
			ActorID:   requestcontext.UserID(ctx),
			RequestID: requestcontext.RequestID(ctx),
		})
		if o.metrics != nil {
			o.metrics.RecordIdentification(string(biometric.StatusNotIdentified))
		}
		return o.emit(biometric.NotIdentified()), nil
	}

	o.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionMemberIdentified,
		ActorID:   requestcontext.UserID(ctx),
		MemberID:  verdict.MemberID,
		RequestID: requestcontext.RequestID(ctx),
	})
	if o.metrics != nil {
		o.metrics.RecordIdentification(string(biometric.StatusIdentified))
	}
	o.logger.InfoContext(ctx, "member identified",
		"member_id", verdict.MemberID,
		"score", verdict.Score,
		"candidates", len(candidates),
	)
	return o.emit(biometric.Identified(verdict.MemberID, verdict.Score)), nil
}

// RemoveTemplate clears the member's stored template.
func (o *Orchestrator) RemoveTemplate(ctx context.Context, memberID int64) (biometric.Status, error) {
	if err := o.store.Remove(ctx, memberID); err != nil {
		return o.fail("remove", err, "could not remove template"), err
	}
	o.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionTemplateRemoved,
		ActorID:   requestcontext.UserID(ctx),
		MemberID:  memberID,
		RequestID: requestcontext.RequestID(ctx),
	})
	return o.emit(biometric.Removed(memberID)), nil
}

func (o *Orchestrator) observeMatcher(start time.Time) {
	if o.metrics != nil {
		o.metrics.ObserveMatcher(start)
	}
}

func (o *Orchestrator) fail(workflow string, err error, msg string) biometric.Status {
	o.logger.ErrorContext(context.Background(), "biometric workflow failed",
		"workflow", workflow,
		"error", err,
	)
	if o.metrics != nil {
		switch workflow {
		case "enroll":
			o.metrics.RecordEnrollment(string(biometric.StatusError))
		case "identify":
			o.metrics.RecordIdentification(string(biometric.StatusError))
		}
	}
	return o.emit(biometric.ErrorStatus(msg))
}

func enrollFailureMessage(err error) string {
	switch {
	case errors.Is(err, biometric.ErrExtractionFailed):
		return "sample quality rejected, recapture and try again"
	case errors.Is(err, biometric.ErrServiceUnavailable):
		return "matching service unavailable"
	default:
		return "enrollment failed"
	}
}
