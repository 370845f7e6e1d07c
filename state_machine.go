package crm

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const textCodeInvalidTransition = "INVALID_CLIENT_STATE_TRANSITION"

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid client state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor  ActorRef
	Client *Client
	From   ClientStatus
	To     ClientStatus
	Meta   TransitionMetadata
}

// TransitionHook is executed before or after a transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

// ClientStatusStore persists client status changes.
type ClientStatusStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status ClientStatus) (*Client, error)
}

// OpenProjectCounter reports how many open projects a client has.
// Pending and in-progress projects block deactivation.
type OpenProjectCounter interface {
	CountOpenForClient(ctx context.Context, clientID uuid.UUID) (int, error)
}

// ClientStateMachine defines lifecycle operations for clients.
type ClientStateMachine interface {
	Transition(ctx context.Context, actor ActorRef, client *Client, target ClientStatus, opts ...TransitionOption) (*Client, error)
	CurrentStatus(client *Client) ClientStatus
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*clientStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *clientStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *clientStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *clientStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithOpenProjectCounter wires the guard that blocks deactivating a
// client that still has pending or in-progress projects.
func WithOpenProjectCounter(counter OpenProjectCounter) StateMachineOption {
	return func(sm *clientStateMachine) {
		sm.projects = counter
	}
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

// WithForceTransition bypasses validation rules (use sparingly).
func WithForceTransition() TransitionOption {
	return func(opts *transitionOptions) {
		opts.force = true
	}
}

// WithBeforeTransitionHook adds a hook executed before the status update.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the status update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// NewClientStateMachine returns the default implementation backed by the provided store.
func NewClientStateMachine(store ClientStatusStore, opts ...StateMachineOption) ClientStateMachine {
	sm := &clientStateMachine{
		store: store,
		transitions: map[ClientStatus]map[ClientStatus]struct{}{
			ClientStatusActive: {
				ClientStatusInactive: {},
			},
			ClientStatusInactive: {
				ClientStatusActive: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type clientStateMachine struct {
	store        ClientStatusStore
	projects     OpenProjectCounter
	transitions  map[ClientStatus]map[ClientStatus]struct{}
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
}

type transitionOptions struct {
	metadata    TransitionMetadata
	force       bool
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
}

func (o *transitionOptions) cloneMetadata() TransitionMetadata {
	var cloned map[string]any
	if len(o.metadata.Metadata) > 0 {
		cloned = make(map[string]any, len(o.metadata.Metadata))
		for k, v := range o.metadata.Metadata {
			cloned[k] = v
		}
	}

	return TransitionMetadata{
		Reason:   o.metadata.Reason,
		Metadata: cloned,
	}
}

func (sm *clientStateMachine) Transition(ctx context.Context, actor ActorRef, client *Client, target ClientStatus, opts ...TransitionOption) (*Client, error) {
	if client == nil {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"target": target,
			"reason": "client is nil",
		})
	}

	client.EnsureStatus()
	from := client.Status
	if target == "" {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"reason": "target status is empty",
		})
	}

	if from == target {
		return client, nil
	}

	options := sm.buildTransitionOptions(opts...)

	if !options.force && !sm.canTransition(from, target) {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	if target == ClientStatusInactive && !options.force {
		if err := sm.guardDeactivation(ctx, client); err != nil {
			return nil, err
		}
	}

	ctxData := TransitionContext{
		Actor:  actor,
		Client: client,
		From:   from,
		To:     target,
		Meta:   options.cloneMetadata(),
	}

	if err := sm.runHooks(ctx, options.beforeHooks, ctxData); err != nil {
		return nil, err
	}

	updated, err := sm.store.UpdateStatus(ctx, client.ID, target)
	if err != nil {
		return nil, err
	}

	if updated != nil && updated.Status != "" {
		client.Status = updated.Status
	} else {
		client.Status = target
	}

	if err := sm.runHooks(ctx, options.afterHooks, ctxData); err != nil {
		return nil, err
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventClientStatusChanged,
		Actor:      actor,
		EntityID:   client.ID.String(),
		FromStatus: from,
		ToStatus:   target,
		Metadata:   sm.transitionMetadata(ctxData.Meta),
	})

	return client, nil
}

func (sm *clientStateMachine) CurrentStatus(client *Client) ClientStatus {
	if client == nil {
		return ""
	}
	client.EnsureStatus()
	return client.Status
}

// guardDeactivation blocks the inactive transition while the client
// still has pending or in-progress projects.
func (sm *clientStateMachine) guardDeactivation(ctx context.Context, client *Client) error {
	if sm.projects == nil {
		return nil
	}

	count, err := sm.projects.CountOpenForClient(ctx, client.ID)
	if err != nil {
		return err
	}

	if count > 0 {
		return NewClientHasOpenProjects(count)
	}

	return nil
}

func (sm *clientStateMachine) runHooks(ctx context.Context, hooks []TransitionHook, data TransitionContext) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, data); err != nil {
			return err
		}
	}
	return nil
}

func (sm *clientStateMachine) canTransition(from, to ClientStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *clientStateMachine) buildTransitionOptions(opts ...TransitionOption) *transitionOptions {
	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

func (sm *clientStateMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Error("state machine activity sink error: %v", err)
	}
}

func (sm *clientStateMachine) transitionMetadata(meta TransitionMetadata) map[string]any {
	if meta.Reason == "" && len(meta.Metadata) == 0 {
		return nil
	}

	result := map[string]any{}
	if meta.Reason != "" {
		result["reason"] = meta.Reason
	}
	for k, v := range meta.Metadata {
		result[k] = v
	}
	return result
}
