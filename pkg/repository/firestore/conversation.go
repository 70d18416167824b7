package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type sessionDocument struct {
	ID        string    `firestore:"id"`
	CompanyID string    `firestore:"company_id"`
	StartedAt time.Time `firestore:"started_at"`
	TurnCount int64     `firestore:"turn_count"`
}

type activeSessionDocument struct {
	SessionID string `firestore:"session_id"`
}

type turnDocument struct {
	Seq     int64  `firestore:"seq"`
	Role    string `firestore:"role"`
	Content string `firestore:"content"`
}

type conversationRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newConversationRepository(client *firestore.Client) *conversationRepository {
	return &conversationRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *conversationRepository) sessionsCollection() string {
	return CollectionName(r.collectionPrefix, "sessions")
}

func (r *conversationRepository) activeSessionsCollection() string {
	return CollectionName(r.collectionPrefix, "active_sessions")
}

func (r *conversationRepository) sessionRef(id types.SessionID) *firestore.DocumentRef {
	return r.client.Collection(r.sessionsCollection()).Doc(id.String())
}

// turnDocID keeps document IDs in append order
func turnDocID(seq int64) string {
	return fmt.Sprintf("%010d", seq)
}

func (r *conversationRepository) CreateSession(ctx context.Context, session *model.Session) error {
	if err := session.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid session ID")
	}
	if err := session.CompanyID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid company ID", goerr.V("session_id", session.ID))
	}

	sessionRef := r.sessionRef(session.ID)
	activeRef := r.client.Collection(r.activeSessionsCollection()).Doc(session.CompanyID.String())

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(sessionRef, &sessionDocument{
			ID:        session.ID.String(),
			CompanyID: session.CompanyID.String(),
			StartedAt: session.StartedAt,
		}); err != nil {
			return goerr.Wrap(err, "failed to create session")
		}
		return tx.Set(activeRef, &activeSessionDocument{SessionID: session.ID.String()})
	})
	if err != nil {
		return goerr.Wrap(err, "failed to store session", goerr.V("session_id", session.ID))
	}

	return nil
}

func (r *conversationRepository) GetSession(ctx context.Context, id types.SessionID) (*model.Session, error) {
	doc, err := r.sessionRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "session not found", goerr.V("session_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get session", goerr.V("session_id", id))
	}

	var sessionDoc sessionDocument
	if err := doc.DataTo(&sessionDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal session", goerr.V("session_id", id))
	}

	return &model.Session{
		ID:        types.SessionID(sessionDoc.ID),
		CompanyID: types.CompanyID(sessionDoc.CompanyID),
		StartedAt: sessionDoc.StartedAt,
	}, nil
}

func (r *conversationRepository) GetActiveSession(ctx context.Context, companyID types.CompanyID) (*model.Session, error) {
	doc, err := r.client.Collection(r.activeSessionsCollection()).Doc(companyID.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "no active session", goerr.V("company_id", companyID))
		}
		return nil, goerr.Wrap(err, "failed to get active session", goerr.V("company_id", companyID))
	}

	var activeDoc activeSessionDocument
	if err := doc.DataTo(&activeDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal active session", goerr.V("company_id", companyID))
	}

	return r.GetSession(ctx, types.SessionID(activeDoc.SessionID))
}

func (r *conversationRepository) AppendTurns(ctx context.Context, sessionID types.SessionID, turns ...model.Turn) error {
	for _, turn := range turns {
		if !turn.Role.IsValid() {
			return goerr.New("invalid turn role", goerr.V("session_id", sessionID), goerr.V("role", turn.Role))
		}
	}
	if len(turns) == 0 {
		return nil
	}

	sessionRef := r.sessionRef(sessionID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(sessionRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "session not found", goerr.V("session_id", sessionID))
			}
			return goerr.Wrap(err, "failed to get session", goerr.V("session_id", sessionID))
		}

		var sessionDoc sessionDocument
		if err := doc.DataTo(&sessionDoc); err != nil {
			return goerr.Wrap(err, "failed to unmarshal session", goerr.V("session_id", sessionID))
		}

		seq := sessionDoc.TurnCount
		for _, turn := range turns {
			seq++
			turnRef := sessionRef.Collection("turns").Doc(turnDocID(seq))
			if err := tx.Create(turnRef, &turnDocument{
				Seq:     seq,
				Role:    turn.Role.String(),
				Content: turn.Content,
			}); err != nil {
				return goerr.Wrap(err, "failed to create turn", goerr.V("seq", seq))
			}
		}

		return tx.Update(sessionRef, []firestore.Update{
			{Path: "turn_count", Value: seq},
		})
	})
	if err != nil {
		return goerr.Wrap(err, "failed to append turns", goerr.V("session_id", sessionID))
	}

	return nil
}

func (r *conversationRepository) ListTurns(ctx context.Context, sessionID types.SessionID) ([]model.Turn, error) {
	if _, err := r.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	iter := r.sessionRef(sessionID).Collection("turns").OrderBy("seq", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	turns := make([]model.Turn, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate turns", goerr.V("session_id", sessionID))
		}

		var turnDoc turnDocument
		if err := doc.DataTo(&turnDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal turn", goerr.V("session_id", sessionID))
		}
		turns = append(turns, model.Turn{
			Role:    types.Role(turnDoc.Role),
			Content: turnDoc.Content,
		})
	}

	return turns, nil
}
