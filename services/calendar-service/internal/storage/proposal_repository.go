package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/timely-app/timely-backend/libs/db"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/apperr"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/events"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/outbox"
)

type ProposalRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewProposalRepository(pool *db.Pool, outboxRepo *outbox.Repository) *ProposalRepository {
	return &ProposalRepository{pool: pool, outbox: outboxRepo}
}

// Insert stores a pending proposal and queues the created notification in the
// same transaction.
func (r *ProposalRepository) Insert(ctx context.Context, p model.Proposal) (model.Proposal, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Status = model.ProposalPending

	payload, err := json.Marshal(events.ProposalCreated{
		ProposalID:   p.ID,
		ProposerID:   p.ProposerID,
		ProposerName: p.ProposerName,
		RecipientID:  p.RecipientID,
		Title:        p.Title,
		Start:        p.Start,
		End:          p.End,
	})
	if err != nil {
		return model.Proposal{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Proposal{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO event_proposals
			(id, proposer_id, proposer_name, recipient_id, title, location, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.ProposerID, p.ProposerName, p.RecipientID, p.Title, p.Location, p.Start, p.End, p.Status)
	if err != nil {
		return model.Proposal{}, err
	}

	if err := r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "proposal",
		AggregateID:   p.ID,
		EventType:     events.TopicProposalCreated,
		Payload:       payload,
	}); err != nil {
		return model.Proposal{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Proposal{}, err
	}
	return p, nil
}

// Respond settles a pending proposal in one transaction. The row is locked
// for the duration, so two concurrent responses serialize and the loser sees
// a non-pending status. Accepting writes one mirrored event per participant
// and queues the accepted notification before commit.
func (r *ProposalRepository) Respond(ctx context.Context, proposalID, callerID string, status model.ProposalStatus) (model.Proposal, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Proposal{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := getProposalForUpdate(ctx, tx, proposalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Proposal{}, apperr.New(apperr.NotFound, "proposal not found")
		}
		return model.Proposal{}, err
	}
	if p.RecipientID != callerID {
		return model.Proposal{}, apperr.New(apperr.PermissionDenied, "only the recipient can respond to a proposal")
	}
	if p.Status != model.ProposalPending {
		return model.Proposal{}, apperr.Newf(apperr.FailedPrecondition, "proposal already %s", p.Status)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE event_proposals
		SET status = $2, responded_at = now()
		WHERE id = $1
	`, p.ID, status); err != nil {
		return model.Proposal{}, err
	}
	p.Status = status

	if status == model.ProposalAccepted {
		color := model.ColorForTitle(p.Title)
		for _, userID := range []string{p.ProposerID, p.RecipientID} {
			ev := model.Event{
				UserID:     userID,
				Title:      p.Title,
				Location:   p.Location,
				Start:      p.Start,
				End:        p.End,
				Color:      color,
				RepeatRule: model.RepeatNever,
				Importance: "medium",
			}
			if err := insertEventTx(ctx, tx, ev); err != nil {
				return model.Proposal{}, err
			}
		}

		payload, err := json.Marshal(events.ProposalAccepted{
			ProposalID:  p.ID,
			ProposerID:  p.ProposerID,
			RecipientID: p.RecipientID,
			Title:       p.Title,
			Start:       p.Start,
			End:         p.End,
		})
		if err != nil {
			return model.Proposal{}, err
		}
		if err := r.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "proposal",
			AggregateID:   p.ID,
			EventType:     events.TopicProposalAccepted,
			Payload:       payload,
		}); err != nil {
			return model.Proposal{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Proposal{}, err
	}
	return p, nil
}

func getProposalForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Proposal, error) {
	var p model.Proposal
	err := tx.QueryRow(ctx, `
		SELECT id, proposer_id, COALESCE(proposer_name, ''), recipient_id,
		       title, COALESCE(location, ''), start_time, end_time, status, created_at
		FROM event_proposals
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&p.ID, &p.ProposerID, &p.ProposerName, &p.RecipientID,
		&p.Title, &p.Location, &p.Start, &p.End, &p.Status, &p.CreatedAt)
	return p, err
}
