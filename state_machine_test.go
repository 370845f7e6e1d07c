package crm_test

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	crm "github.com/goliatone/go-crm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStatusStore records the requested status change.
type stubStatusStore struct {
	updated *crm.Client
	err     error
	calls   []crm.ClientStatus
}

func (s *stubStatusStore) UpdateStatus(ctx context.Context, id uuid.UUID, status crm.ClientStatus) (*crm.Client, error) {
	s.calls = append(s.calls, status)
	if s.err != nil {
		return nil, s.err
	}
	if s.updated != nil {
		return s.updated, nil
	}
	return &crm.Client{ID: id, Status: status}, nil
}

// stubProjectCounter reports a fixed open project count.
type stubProjectCounter struct {
	count int
	err   error
}

func (s stubProjectCounter) CountOpenForClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	return s.count, s.err
}

func TestClientStateMachineTransition(t *testing.T) {
	ctx := context.Background()
	actor := crm.ActorRef{ID: "admin-1", Type: "user", Role: crm.RoleAdmin}

	t.Run("deactivates a client without open projects", func(t *testing.T) {
		store := &stubStatusStore{}
		sink := &capturingSink{}
		sm := crm.NewClientStateMachine(store,
			crm.WithStateMachineActivitySink(sink),
			crm.WithOpenProjectCounter(stubProjectCounter{count: 0}),
		)

		client := &crm.Client{ID: uuid.New(), Status: crm.ClientStatusActive}
		updated, err := sm.Transition(ctx, actor, client, crm.ClientStatusInactive,
			crm.WithTransitionReason("engagement ended"),
		)

		require.NoError(t, err)
		assert.Equal(t, crm.ClientStatusInactive, updated.Status)
		require.Equal(t, []crm.ClientStatus{crm.ClientStatusInactive}, store.calls)

		events := sink.byType(crm.ActivityEventClientStatusChanged)
		require.Len(t, events, 1)
		assert.Equal(t, crm.ClientStatusActive, events[0].FromStatus)
		assert.Equal(t, crm.ClientStatusInactive, events[0].ToStatus)
		assert.Equal(t, "engagement ended", events[0].Metadata["reason"])
		assert.Equal(t, actor, events[0].Actor)
	})

	t.Run("blocks deactivation while projects are open", func(t *testing.T) {
		store := &stubStatusStore{}
		sm := crm.NewClientStateMachine(store,
			crm.WithOpenProjectCounter(stubProjectCounter{count: 3}),
		)

		client := &crm.Client{ID: uuid.New(), Status: crm.ClientStatusActive}
		_, err := sm.Transition(ctx, actor, client, crm.ClientStatusInactive)

		require.Error(t, err)
		assert.Empty(t, store.calls)

		var rich *goerrors.Error
		require.ErrorAs(t, err, &rich)
		assert.Equal(t, goerrors.CategoryConflict, rich.Category)
		assert.Equal(t, 3, rich.Metadata["open_projects"])
	})

	t.Run("force bypasses the open project guard", func(t *testing.T) {
		store := &stubStatusStore{}
		sm := crm.NewClientStateMachine(store,
			crm.WithOpenProjectCounter(stubProjectCounter{count: 3}),
		)

		client := &crm.Client{ID: uuid.New(), Status: crm.ClientStatusActive}
		updated, err := sm.Transition(ctx, actor, client, crm.ClientStatusInactive,
			crm.WithForceTransition(),
		)

		require.NoError(t, err)
		assert.Equal(t, crm.ClientStatusInactive, updated.Status)
	})

	t.Run("reactivates an inactive client", func(t *testing.T) {
		store := &stubStatusStore{}
		sm := crm.NewClientStateMachine(store)

		client := &crm.Client{ID: uuid.New(), Status: crm.ClientStatusInactive}
		updated, err := sm.Transition(ctx, actor, client, crm.ClientStatusActive)

		require.NoError(t, err)
		assert.Equal(t, crm.ClientStatusActive, updated.Status)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		store := &stubStatusStore{}
		sm := crm.NewClientStateMachine(store)

		client := &crm.Client{ID: uuid.New(), Status: crm.ClientStatusActive}
		updated, err := sm.Transition(ctx, actor, client, crm.ClientStatusActive)

		require.NoError(t, err)
		assert.Equal(t, crm.ClientStatusActive, updated.Status)
		assert.Empty(t, store.calls)
	})

	t.Run("rejects unknown targets", func(t *testing.T) {
		sm := crm.NewClientStateMachine(&stubStatusStore{})

		client := &crm.Client{ID: uuid.New(), Status: crm.ClientStatusActive}
		_, err := sm.Transition(ctx, actor, client, "archived")

		require.Error(t, err)
		var rich *goerrors.Error
		require.ErrorAs(t, err, &rich)
		assert.Equal(t, goerrors.CategoryValidation, rich.Category)
	})

	t.Run("rejects nil client and empty target", func(t *testing.T) {
		sm := crm.NewClientStateMachine(&stubStatusStore{})

		_, err := sm.Transition(ctx, actor, nil, crm.ClientStatusInactive)
		assert.Error(t, err)

		_, err = sm.Transition(ctx, actor, &crm.Client{ID: uuid.New()}, "")
		assert.Error(t, err)
	})
}

func TestClientStateMachineHooks(t *testing.T) {
	ctx := context.Background()
	store := &stubStatusStore{}
	sm := crm.NewClientStateMachine(store)

	var order []string
	client := &crm.Client{ID: uuid.New(), Status: crm.ClientStatusActive}

	_, err := sm.Transition(ctx, crm.ActorRef{ID: "sys"}, client, crm.ClientStatusInactive,
		crm.WithBeforeTransitionHook(func(ctx context.Context, tc crm.TransitionContext) error {
			order = append(order, "before")
			assert.Equal(t, crm.ClientStatusActive, tc.From)
			assert.Equal(t, crm.ClientStatusInactive, tc.To)
			return nil
		}),
		crm.WithAfterTransitionHook(func(ctx context.Context, tc crm.TransitionContext) error {
			order = append(order, "after")
			return nil
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"before", "after"}, order)
}

func TestClientStateMachineClock(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	sink := &capturingSink{}

	sm := crm.NewClientStateMachine(&stubStatusStore{},
		crm.WithStateMachineClock(func() time.Time { return frozen }),
		crm.WithStateMachineActivitySink(sink),
	)

	client := &crm.Client{ID: uuid.New(), Status: crm.ClientStatusActive}
	_, err := sm.Transition(ctx, crm.ActorRef{ID: "sys"}, client, crm.ClientStatusInactive)
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	assert.Equal(t, frozen, sink.events[0].OccurredAt)
}

func TestClientStateMachineCurrentStatus(t *testing.T) {
	sm := crm.NewClientStateMachine(&stubStatusStore{})

	assert.Equal(t, crm.ClientStatus(""), sm.CurrentStatus(nil))
	assert.Equal(t, crm.ClientStatusActive, sm.CurrentStatus(&crm.Client{}))
	assert.Equal(t, crm.ClientStatusInactive, sm.CurrentStatus(&crm.Client{Status: crm.ClientStatusInactive}))
}
