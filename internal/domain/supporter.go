package domain

import "sort"

// Supporter indexes the campaigns in which an account still holds a position.
// The record is deleted once Campaigns is empty and its last transfer
// committed.
type Supporter struct {
	ID        AccountID
	Campaigns []CampaignID
}

func NewSupporter(id AccountID) *Supporter {
	return &Supporter{ID: id}
}

func (s *Supporter) Has(id CampaignID) bool {
	i := sort.Search(len(s.Campaigns), func(i int) bool { return s.Campaigns[i] >= id })
	return i < len(s.Campaigns) && s.Campaigns[i] == id
}

// Add inserts id keeping the set sorted. It reports whether the set changed.
func (s *Supporter) Add(id CampaignID) bool {
	i := sort.Search(len(s.Campaigns), func(i int) bool { return s.Campaigns[i] >= id })
	if i < len(s.Campaigns) && s.Campaigns[i] == id {
		return false
	}
	s.Campaigns = append(s.Campaigns, 0)
	copy(s.Campaigns[i+1:], s.Campaigns[i:])
	s.Campaigns[i] = id
	return true
}

func (s *Supporter) Remove(id CampaignID) bool {
	i := sort.Search(len(s.Campaigns), func(i int) bool { return s.Campaigns[i] >= id })
	if i == len(s.Campaigns) || s.Campaigns[i] != id {
		return false
	}
	s.Campaigns = append(s.Campaigns[:i], s.Campaigns[i+1:]...)
	return true
}

func (s *Supporter) IsEmpty() bool { return len(s.Campaigns) == 0 }

func (s *Supporter) Clone() *Supporter {
	return &Supporter{ID: s.ID, Campaigns: append([]CampaignID(nil), s.Campaigns...)}
}
