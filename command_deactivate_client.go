package crm

import (
	"context"
	"time"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type DeactivateClientMessage struct {
	ClientID uuid.UUID `json:"client_id"`
	Actor    ActorRef  `json:"actor"`
	Reason   string    `json:"reason"`

	// OnResponse receives the updated record when the transition succeeds.
	OnResponse func(*Client) `json:"-"`
}

func (e DeactivateClientMessage) Type() string { return "client.deactivate" }

// DeactivateClientHandler moves a client to inactive. The transition is
// refused while the client still has open projects.
type DeactivateClientHandler struct {
	repo RepositoryManager
}

var _ command.Commander[DeactivateClientMessage] = (*DeactivateClientHandler)(nil)

func NewDeactivateClientHandler(repo RepositoryManager) *DeactivateClientHandler {
	return &DeactivateClientHandler{repo: repo}
}

func (h *DeactivateClientHandler) Execute(ctx context.Context, event DeactivateClientMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during client deactivation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *DeactivateClientHandler) execute(ctx context.Context, event DeactivateClientMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	client, err := h.repo.Clients().GetClient(ctx, event.ClientID)
	if err != nil {
		return err
	}

	opts := []TransitionOption{}
	if event.Reason != "" {
		opts = append(opts, WithTransitionReason(event.Reason))
	}

	updated, err := h.repo.Clients().Deactivate(ctx, event.Actor, client, opts...)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "client deactivation failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(updated)
	}

	return nil
}
