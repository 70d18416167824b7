package redis

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

type conversationRepository struct {
	client *redis.Client
	keys   keySpace
}

func (r *conversationRepository) CreateSession(ctx context.Context, session *model.Session) error {
	if err := session.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid session ID")
	}
	if err := session.CompanyID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid company ID", goerr.V("session_id", session.ID))
	}

	data, err := encodeJSON(session)
	if err != nil {
		return err
	}

	sessionKey := r.keys.session(session.ID.String())
	return watch(ctx, r.client, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, sessionKey).Result()
		if err != nil {
			return goerr.Wrap(err, "failed to check session key")
		}
		if n > 0 {
			return goerr.New("session already exists", goerr.V("session_id", session.ID))
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, sessionKey, data, 0)
			pipe.Set(ctx, r.keys.activeSession(session.CompanyID.String()), session.ID.String(), 0)
			return nil
		})
		return err
	}, sessionKey)
}

func (r *conversationRepository) GetSession(ctx context.Context, id types.SessionID) (*model.Session, error) {
	var session model.Session
	if err := getJSON(ctx, r.client, r.keys.session(id.String()), &session); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "session not found", goerr.V("session_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get session", goerr.V("session_id", id))
	}
	return &session, nil
}

func (r *conversationRepository) GetActiveSession(ctx context.Context, companyID types.CompanyID) (*model.Session, error) {
	id, err := r.client.Get(ctx, r.keys.activeSession(companyID.String())).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, goerr.Wrap(ErrNotFound, "no active session", goerr.V("company_id", companyID))
		}
		return nil, goerr.Wrap(err, "failed to get active session", goerr.V("company_id", companyID))
	}

	return r.GetSession(ctx, types.SessionID(id))
}

func (r *conversationRepository) AppendTurns(ctx context.Context, sessionID types.SessionID, turns ...model.Turn) error {
	values := make([]any, 0, len(turns))
	for _, turn := range turns {
		if !turn.Role.IsValid() {
			return goerr.New("invalid turn role", goerr.V("session_id", sessionID), goerr.V("role", turn.Role))
		}
		data, err := encodeJSON(turn)
		if err != nil {
			return err
		}
		values = append(values, data)
	}
	if len(values) == 0 {
		return nil
	}

	n, err := r.client.Exists(ctx, r.keys.session(sessionID.String())).Result()
	if err != nil {
		return goerr.Wrap(err, "failed to check session", goerr.V("session_id", sessionID))
	}
	if n == 0 {
		return goerr.Wrap(ErrNotFound, "session not found", goerr.V("session_id", sessionID))
	}

	// A single RPUSH appends all values atomically and in order
	if err := r.client.RPush(ctx, r.keys.sessionTurns(sessionID.String()), values...).Err(); err != nil {
		return goerr.Wrap(err, "failed to append turns", goerr.V("session_id", sessionID))
	}
	return nil
}

func (r *conversationRepository) ListTurns(ctx context.Context, sessionID types.SessionID) ([]model.Turn, error) {
	if _, err := r.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	values, err := r.client.LRange(ctx, r.keys.sessionTurns(sessionID.String()), 0, -1).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list turns", goerr.V("session_id", sessionID))
	}

	turns := make([]model.Turn, 0, len(values))
	for _, v := range values {
		var turn model.Turn
		if err := unmarshalString(v, &turn); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal turn", goerr.V("session_id", sessionID))
		}
		turns = append(turns, turn)
	}
	return turns, nil
}
