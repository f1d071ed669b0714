package kyc

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"livonto/internal/app/commands"
	"livonto/internal/app/policies"
	"livonto/internal/app/uow"
	domainkyc "livonto/internal/domain/kyc"
	"livonto/internal/domain/shared/clock"
)

const submitKycKey = "kyc.submit"

// SubmitKycCommand stores an identity document for the user. Submission is
// verification: no review queue exists, the booking gate only asks whether a
// record is on file.
type SubmitKycCommand struct {
	UserID      string
	DocType     string
	DocNumber   string
	Document    io.Reader
	ContentType string
}

func (c SubmitKycCommand) Key() string { return submitKycKey }

type SubmitKycResult struct {
	KycID string `json:"kyc_id"`
}

type SubmitKycHandler struct {
	UoWFactory uow.UoWFactory
	Documents  policies.DocumentStore
	Clock      clock.Clock
}

func (h *SubmitKycHandler) Handle(ctx context.Context, cmd SubmitKycCommand) (*SubmitKycResult, error) {
	id := domainkyc.KycID(uuid.NewString())

	var docURL string
	if cmd.Document != nil && h.Documents != nil {
		key := fmt.Sprintf("kyc/%s/%s", cmd.UserID, id)
		url, err := h.Documents.Upload(ctx, key, cmd.Document, cmd.ContentType)
		if err != nil {
			return nil, err
		}
		docURL = url
	}

	rec, err := domainkyc.NewRecord(domainkyc.SubmitParams{
		ID:          id,
		UserID:      cmd.UserID,
		DocType:     cmd.DocType,
		DocNumber:   cmd.DocNumber,
		DocumentURL: docURL,
		Now:         h.now(),
	})
	if err != nil {
		return nil, err
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
		}
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.Bind(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	if err := unit.Kyc().Save(ctx, rec); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &SubmitKycResult{KycID: string(rec.ID)}, nil
}

func (h *SubmitKycHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return clock.System{}.Now()
}

var _ commands.Handler[SubmitKycCommand, *SubmitKycResult] = (*SubmitKycHandler)(nil)
