// Package memory keeps the whole ledger in process memory. It backs the
// service in dev mode and the usecase tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

type state struct {
	nextID      domain.CampaignID
	campaigns   map[domain.CampaignID]*domain.Campaign
	slugs       map[string]domain.CampaignID
	supporters  map[domain.AccountID]*domain.Supporter
	settlements map[string]*domain.Settlement
}

func newState() *state {
	return &state{
		campaigns:   make(map[domain.CampaignID]*domain.Campaign),
		slugs:       make(map[string]domain.CampaignID),
		supporters:  make(map[domain.AccountID]*domain.Supporter),
		settlements: make(map[string]*domain.Settlement),
	}
}

// fork copies the indexes. Stored records are never mutated in place, so
// sharing the pointers is safe.
func (s *state) fork() *state {
	out := &state{
		nextID:      s.nextID,
		campaigns:   make(map[domain.CampaignID]*domain.Campaign, len(s.campaigns)),
		slugs:       make(map[string]domain.CampaignID, len(s.slugs)),
		supporters:  make(map[domain.AccountID]*domain.Supporter, len(s.supporters)),
		settlements: make(map[string]*domain.Settlement, len(s.settlements)),
	}
	for k, v := range s.campaigns {
		out.campaigns[k] = v
	}
	for k, v := range s.slugs {
		out.slugs[k] = v
	}
	for k, v := range s.supporters {
		out.supporters[k] = v
	}
	for k, v := range s.settlements {
		out.settlements[k] = v
	}
	return out
}

// Store implements domain.Store. Transactions are serialised and applied by
// swapping in a forked state on success.
type Store struct {
	mu sync.Mutex
	st *state
	// inTx is set on the view handed to Atomic callbacks; it already holds mu.
	inTx bool
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) read(fn func(st *state) error) error {
	if s.inTx {
		return fn(s.st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) write(fn func(st *state) error) error {
	if s.inTx {
		return fn(s.st)
	}
	return s.Atomic(context.Background(), func(tx domain.Store) error {
		return fn(tx.(*Store).st)
	})
}

func (s *Store) Atomic(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{st: s.st.fork(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

func (s *Store) Campaigns() domain.CampaignRepository     { return campaignRepo{s} }
func (s *Store) Supporters() domain.SupporterRepository   { return supporterRepo{s} }
func (s *Store) Settlements() domain.SettlementRepository { return settlementRepo{s} }

type campaignRepo struct{ s *Store }

func (r campaignRepo) NextCampaignID(_ context.Context) (domain.CampaignID, error) {
	var id domain.CampaignID
	err := r.s.write(func(st *state) error {
		id = st.nextID
		st.nextID++
		return nil
	})
	return id, err
}

func (r campaignRepo) CreateCampaign(_ context.Context, c *domain.Campaign) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.campaigns[c.ID]; ok {
			return fmt.Errorf("campaign %d already exists", c.ID)
		}
		if _, ok := st.slugs[c.Slug]; ok {
			return fmt.Errorf("%w: %s", domain.ErrSlugTaken, c.Slug)
		}
		st.campaigns[c.ID] = c.Clone()
		st.slugs[c.Slug] = c.ID
		return nil
	})
}

func (r campaignRepo) GetCampaign(_ context.Context, id domain.CampaignID) (*domain.Campaign, error) {
	var out *domain.Campaign
	err := r.s.read(func(st *state) error {
		c, ok := st.campaigns[id]
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrCampaignNotFound, id)
		}
		out = c.Clone()
		return nil
	})
	return out, err
}

func (r campaignRepo) GetCampaignBySlug(ctx context.Context, slug string) (*domain.Campaign, error) {
	var id domain.CampaignID
	err := r.s.read(func(st *state) error {
		var ok bool
		if id, ok = st.slugs[slug]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrCampaignNotFound, slug)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetCampaign(ctx, id)
}

func (r campaignRepo) SaveCampaign(_ context.Context, c *domain.Campaign) error {
	return r.s.write(func(st *state) error {
		prev, ok := st.campaigns[c.ID]
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrCampaignNotFound, c.ID)
		}
		if prev.Slug != c.Slug {
			if _, taken := st.slugs[c.Slug]; taken {
				return fmt.Errorf("%w: %s", domain.ErrSlugTaken, c.Slug)
			}
			delete(st.slugs, prev.Slug)
			st.slugs[c.Slug] = c.ID
		}
		st.campaigns[c.ID] = c.Clone()
		return nil
	})
}

func (r campaignRepo) sorted(st *state, keep func(c *domain.Campaign) bool) []*domain.Campaign {
	out := make([]*domain.Campaign, 0, len(st.campaigns))
	for _, c := range st.campaigns {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r campaignRepo) ListCampaigns(_ context.Context, offset, limit int) ([]*domain.Campaign, int64, error) {
	var (
		page  []*domain.Campaign
		total int64
	)
	err := r.s.read(func(st *state) error {
		all := r.sorted(st, func(*domain.Campaign) bool { return true })
		total = int64(len(all))
		if offset > len(all) {
			offset = len(all)
		}
		end := len(all)
		if limit > 0 && offset+limit < end {
			end = offset + limit
		}
		for _, c := range all[offset:end] {
			page = append(page, c.Clone())
		}
		return nil
	})
	return page, total, err
}

func (r campaignRepo) ids(keep func(c *domain.Campaign) bool, limit int) ([]domain.CampaignID, error) {
	var out []domain.CampaignID
	err := r.s.read(func(st *state) error {
		for _, c := range r.sorted(st, keep) {
			if limit > 0 && len(out) == limit {
				break
			}
			out = append(out, c.ID)
		}
		return nil
	})
	return out, err
}

func (r campaignRepo) ListCampaignsToEvaluate(_ context.Context, now time.Time, limit int) ([]domain.CampaignID, error) {
	return r.ids(func(c *domain.Campaign) bool { return c.NeedsEvaluation(now) }, limit)
}

func (r campaignRepo) ListCampaignsToUnfreeze(_ context.Context, now time.Time, limit int) ([]domain.CampaignID, error) {
	return r.ids(func(c *domain.Campaign) bool { return c.NeedsUnfreeze(now) }, limit)
}

type supporterRepo struct{ s *Store }

func (r supporterRepo) GetSupporter(_ context.Context, id domain.AccountID) (*domain.Supporter, error) {
	var out *domain.Supporter
	err := r.s.read(func(st *state) error {
		sup, ok := st.supporters[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrSupporterNotFound, id)
		}
		out = sup.Clone()
		return nil
	})
	return out, err
}

func (r supporterRepo) SaveSupporter(_ context.Context, sup *domain.Supporter) error {
	return r.s.write(func(st *state) error {
		st.supporters[sup.ID] = sup.Clone()
		return nil
	})
}

func (r supporterRepo) DeleteSupporter(_ context.Context, id domain.AccountID) error {
	return r.s.write(func(st *state) error {
		delete(st.supporters, id)
		return nil
	})
}

type settlementRepo struct{ s *Store }

func cloneSettlement(s *domain.Settlement) *domain.Settlement {
	out := *s
	if s.ResolvedAt != nil {
		t := *s.ResolvedAt
		out.ResolvedAt = &t
	}
	return &out
}

func (r settlementRepo) CreateSettlement(_ context.Context, s *domain.Settlement) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.settlements[s.ID]; ok {
			return fmt.Errorf("settlement %s already exists", s.ID)
		}
		st.settlements[s.ID] = cloneSettlement(s)
		return nil
	})
}

func (r settlementRepo) GetSettlement(_ context.Context, id string) (*domain.Settlement, error) {
	var out *domain.Settlement
	err := r.s.read(func(st *state) error {
		s, ok := st.settlements[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrSettlementNotFound, id)
		}
		out = cloneSettlement(s)
		return nil
	})
	return out, err
}

func (r settlementRepo) UpdateSettlement(_ context.Context, s *domain.Settlement) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.settlements[s.ID]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrSettlementNotFound, s.ID)
		}
		st.settlements[s.ID] = cloneSettlement(s)
		return nil
	})
}

func (r settlementRepo) HasPendingSettlement(_ context.Context, campaignID domain.CampaignID, beneficiary domain.WithdrawalOwner) (bool, error) {
	found := false
	err := r.s.read(func(st *state) error {
		for _, s := range st.settlements {
			if s.IsPending() && s.CampaignID == campaignID && s.Beneficiary == beneficiary {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r settlementRepo) HasPendingTotalAdjustment(_ context.Context, campaignID domain.CampaignID) (bool, error) {
	found := false
	err := r.s.read(func(st *state) error {
		for _, s := range st.settlements {
			if s.IsPending() && s.CampaignID == campaignID && s.Kind == domain.KindDepositRefund && s.AdjustedTotal {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r settlementRepo) ListPendingSettlements(_ context.Context, createdBefore time.Time, limit int) ([]*domain.Settlement, error) {
	var out []*domain.Settlement
	err := r.s.read(func(st *state) error {
		for _, s := range st.settlements {
			if s.IsPending() && s.CreatedAt.Before(createdBefore) {
				out = append(out, cloneSettlement(s))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}
