package steps

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
)

type MemberFetcher interface {
	GetMember(ctx context.Context, id int) (*debates.Member, error)
}

// MemberCache holds members looked up during one run. Entries are never
// invalidated; a failed or empty lookup is not cached so a later debate can
// retry it.
type MemberCache struct {
	log     *logger.Logger
	fetcher MemberFetcher

	mu      sync.RWMutex
	members map[int]debates.Member
	group   singleflight.Group
}

func NewMemberCache(log *logger.Logger, fetcher MemberFetcher) *MemberCache {
	return &MemberCache{
		log:     log.With("service", "MemberCache"),
		fetcher: fetcher,
		members: map[int]debates.Member{},
	}
}

func (c *MemberCache) Get(id int) (debates.Member, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.members[id]
	return m, ok
}

func (c *MemberCache) Put(m debates.Member) {
	if m.ID <= 0 {
		return
	}
	c.mu.Lock()
	c.members[m.ID] = m
	c.mu.Unlock()
}

func (c *MemberCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// Load fetches every id not yet cached, at most four at a time. Lookup
// failures are logged and skipped; speakers then fall back to their
// attributed name.
func (c *MemberCache) Load(ctx context.Context, ids []int) {
	if c == nil || c.fetcher == nil {
		return
	}
	missing := make([]int, 0, len(ids))
	seen := map[int]bool{}
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := c.Get(id); !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return
	}
	sort.Ints(missing)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range missing {
		id := id
		g.Go(func() error {
			_, err, _ := c.group.Do(strconv.Itoa(id), func() (interface{}, error) {
				if m, ok := c.Get(id); ok {
					return m, nil
				}
				m, err := c.fetcher.GetMember(gctx, id)
				if err != nil {
					return nil, err
				}
				if m != nil {
					c.Put(*m)
				}
				return m, nil
			})
			if err != nil {
				c.log.Warn("Member lookup failed", "member_id", id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
