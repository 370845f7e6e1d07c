package crm

import (
	"context"
	"time"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterClientMessage struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Address   string `json:"address"`
	Status    string `json:"status"`
	UseHashid bool

	// OnResponse receives the stored record when registration succeeds.
	OnResponse func(*Client) `json:"-"`
}

func (e RegisterClientMessage) Type() string { return "client.register" }

type RegisterClientHandler struct {
	repo RepositoryManager
}

var _ command.Commander[RegisterClientMessage] = (*RegisterClientHandler)(nil)

func NewRegisterClientHandler(repo RepositoryManager) *RegisterClientHandler {
	return &RegisterClientHandler{repo: repo}
}

func (h *RegisterClientHandler) Execute(ctx context.Context, event RegisterClientMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during client registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterClientHandler) execute(ctx context.Context, event RegisterClientMessage) error {
	client := &Client{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		client.Name = event.Name
		client.Email = event.Email
		client.Phone = event.Phone
		client.Company = event.Company
		client.Address = event.Address
		client.Status = event.Status
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				client.ID = id
			}
		}

		var err error
		if client, err = h.repo.Clients().RegisterTx(ctx, tx, client); err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create client")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "client registration transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(client)
	}

	return nil
}
