package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"acredita/internal/checkin/models"
	id "acredita/pkg/domain"
	dErrors "acredita/pkg/domain-errors"
	"acredita/pkg/platform/sentinel"
)

const (
	// Redis key prefixes for seat counters
	availableKeyPrefix = "seats:avail:"
	totalKeyPrefix     = "seats:total:"
)

// reserveScript atomically checks and decrements an available-seats key.
// Returns -1 when the key is missing, 0 when the session is full, 1 when a
// seat was taken.
var reserveScript = redis.NewScript(`
local avail = redis.call('GET', KEYS[1])
if not avail then
  return -1
end
if tonumber(avail) <= 0 then
  return 0
end
redis.call('DECR', KEYS[1])
return 1
`)

// releaseScript increments an available-seats key, clamped at the total.
var releaseScript = redis.NewScript(`
local avail = redis.call('GET', KEYS[1])
local total = redis.call('GET', KEYS[2])
if not avail or not total then
  return -1
end
if tonumber(avail) < tonumber(total) then
  redis.call('INCR', KEYS[1])
end
return 1
`)

// RedisLedger keeps seat counters in Redis so several gateway instances
// share one authoritative count. Atomicity comes from Lua scripts executing
// single-threaded on the server.
type RedisLedger struct {
	client   *redis.Client
	sessions []id.SessionID
}

// NewRedis builds a Redis-backed ledger for the given sessions and seeds
// any counters not already present. Existing counters are left untouched so
// a gateway restart does not reset seat counts mid-event.
func NewRedis(ctx context.Context, client *redis.Client, sessions []*models.Session) (*RedisLedger, error) {
	l := &RedisLedger{client: client, sessions: make([]id.SessionID, 0, len(sessions))}
	for _, s := range sessions {
		l.sessions = append(l.sessions, s.ID)
		if err := client.SetNX(ctx, availableKeyPrefix+s.ID.String(), s.CapacityTotal, 0).Err(); err != nil {
			return nil, fmt.Errorf("seed available counter for %s: %w", s.ID, err)
		}
		if err := client.Set(ctx, totalKeyPrefix+s.ID.String(), s.CapacityTotal, 0).Err(); err != nil {
			return nil, fmt.Errorf("seed total counter for %s: %w", s.ID, err)
		}
	}
	return l, nil
}

// TryReserve atomically takes one seat if any is available.
func (l *RedisLedger) TryReserve(ctx context.Context, sessionID id.SessionID) (bool, error) {
	res, err := reserveScript.Run(ctx, l.client, []string{availableKeyPrefix + sessionID.String()}).Int()
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "reserve seat")
	}
	switch res {
	case -1:
		return false, sentinel.ErrNotFound
	case 0:
		return false, nil
	default:
		return true, nil
	}
}

// Release returns one seat, clamped at the session total.
func (l *RedisLedger) Release(ctx context.Context, sessionID id.SessionID) error {
	res, err := releaseScript.Run(ctx, l.client, []string{
		availableKeyPrefix + sessionID.String(),
		totalKeyPrefix + sessionID.String(),
	}).Int()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "release seat")
	}
	if res == -1 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Seats returns a point-in-time count for every session.
func (l *RedisLedger) Seats(ctx context.Context) (map[id.SessionID]models.Seats, error) {
	out := make(map[id.SessionID]models.Seats, len(l.sessions))
	for _, sid := range l.sessions {
		vals, err := l.client.MGet(ctx, availableKeyPrefix+sid.String(), totalKeyPrefix+sid.String()).Result()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "read seat counters")
		}
		seats, err := parseSeats(sid, vals)
		if err != nil {
			return nil, err
		}
		out[sid] = seats
	}
	return out, nil
}

func parseSeats(sid id.SessionID, vals []any) (models.Seats, error) {
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return models.Seats{}, dErrors.Newf(dErrors.CodeInternal, "seat counters missing for session %s", sid)
	}
	avail, err := strconv.Atoi(fmt.Sprint(vals[0]))
	if err != nil {
		return models.Seats{}, dErrors.Wrap(err, dErrors.CodeInternal, "parse available counter")
	}
	total, err := strconv.Atoi(fmt.Sprint(vals[1]))
	if err != nil {
		return models.Seats{}, dErrors.Wrap(err, dErrors.CodeInternal, "parse total counter")
	}
	if avail < 0 || avail > total {
		return models.Seats{}, dErrors.Newf(dErrors.CodeInvariantViolation,
			"seat counter for session %s out of range: %d/%d", sid, avail, total)
	}
	return models.Seats{Available: avail, Total: total}, nil
}
