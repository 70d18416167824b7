package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
)

var (
	ErrNotFound        = interfaces.ErrNotFound
	ErrDuplicateAPIKey = interfaces.ErrDuplicateAPIKey
)

// maxTxRetries bounds optimistic transaction attempts on WATCH conflicts
const maxTxRetries = 10

// Redis stores all entities as JSON values with list-based ordering indexes
type Redis struct {
	client       *redis.Client
	keys         keySpace
	company      *companyRepository
	ticket       *ticketRepository
	conversation *conversationRepository
}

var _ interfaces.Repository = &Redis{}

type Option func(*Redis)

// WithKeyPrefix namespaces every key, so several deployments can share one server
func WithKeyPrefix(prefix string) Option {
	return func(r *Redis) {
		r.keys = keySpace{prefix: prefix}
	}
}

// New connects to the server at redisURL (redis://[user:pass@]host:port/db)
func New(ctx context.Context, redisURL string, opts ...Option) (*Redis, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse redis URL")
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", options.Addr))
	}

	r := &Redis{client: client}
	for _, opt := range opts {
		opt(r)
	}

	r.company = &companyRepository{client: client, keys: r.keys}
	r.ticket = &ticketRepository{client: client, keys: r.keys}
	r.conversation = &conversationRepository{client: client, keys: r.keys}

	return r, nil
}

func (r *Redis) Company() interfaces.CompanyRepository {
	return r.company
}

func (r *Redis) Ticket() interfaces.TicketRepository {
	return r.ticket
}

func (r *Redis) Conversation() interfaces.ConversationRepository {
	return r.conversation
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// keySpace builds every key used by the backend
type keySpace struct {
	prefix string
}

func (k keySpace) key(parts ...string) string {
	if k.prefix != "" {
		parts = append([]string{k.prefix}, parts...)
	}
	return strings.Join(parts, ":")
}

func (k keySpace) company(id string) string { return k.key("company", id) }

func (k keySpace) companyAPIKey(key string) string { return k.key("company_api_key", key) }

func (k keySpace) companies() string { return k.key("companies") }

func (k keySpace) ticket(id string) string { return k.key("ticket", id) }

func (k keySpace) tickets() string { return k.key("tickets") }

func (k keySpace) companyTickets(id string) string { return k.key("company_tickets", id) }

func (k keySpace) session(id string) string { return k.key("session", id) }

func (k keySpace) sessionTurns(id string) string { return k.key("session_turns", id) }

func (k keySpace) activeSession(id string) string { return k.key("active_session", id) }

func (k keySpace) token(id string) string { return k.key("auth_token", id) }

// watch runs fn as an optimistic transaction over keys, retrying when a
// watched key changes before EXEC
func watch(ctx context.Context, client *redis.Client, fn func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return goerr.New("redis transaction kept conflicting", goerr.V("keys", keys))
}

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getJSON(ctx context.Context, cmd getter, key string, v any) error {
	data, err := cmd.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return goerr.Wrap(ErrNotFound, "key not found", goerr.V("key", key))
		}
		return goerr.Wrap(err, "failed to get key", goerr.V("key", key))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return goerr.Wrap(err, "failed to unmarshal value", goerr.V("key", key))
	}
	return nil
}

func encodeJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal value")
	}
	return data, nil
}

func unmarshalString(data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return goerr.Wrap(err, "failed to unmarshal value")
	}
	return nil
}
