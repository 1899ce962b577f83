package mappers

import (
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/postgres/models"
)

func ToGORMSettlement(s *domain.Settlement) *models.SettlementModel {
	return &models.SettlementModel{
		ID:              s.ID,
		CampaignID:      uint32(s.CampaignID),
		Kind:            string(s.Kind),
		Beneficiary:     s.Beneficiary.String(),
		Receiver:        string(s.Receiver),
		Token:           string(s.Token),
		Amount:          s.Amount,
		AdjustedTotal:   s.AdjustedTotal,
		RemovedPosition: s.RemovedPosition,
		Memo:            s.Memo,
		Status:          string(s.Status),
		FailureReason:   s.FailureReason,
		CreatedAt:       s.CreatedAt,
		ResolvedAt:      s.ResolvedAt,
	}
}

func ToDomainSettlement(m *models.SettlementModel) (*domain.Settlement, error) {
	beneficiary, err := domain.ParseWithdrawalOwner(m.Beneficiary)
	if err != nil {
		return nil, err
	}
	return &domain.Settlement{
		ID:              m.ID,
		CampaignID:      domain.CampaignID(m.CampaignID),
		Kind:            domain.SettlementKind(m.Kind),
		Beneficiary:     beneficiary,
		Receiver:        domain.AccountID(m.Receiver),
		Token:           domain.AccountID(m.Token),
		Amount:          m.Amount,
		AdjustedTotal:   m.AdjustedTotal,
		RemovedPosition: m.RemovedPosition,
		Memo:            m.Memo,
		Status:          domain.SettlementStatus(m.Status),
		FailureReason:   m.FailureReason,
		CreatedAt:       m.CreatedAt,
		ResolvedAt:      m.ResolvedAt,
	}, nil
}

func ToGORMSupporter(s *domain.Supporter) *models.SupporterModel {
	m := &models.SupporterModel{ID: string(s.ID), Positions: make([]models.SupporterPositionModel, 0, len(s.Campaigns))}
	for _, id := range s.Campaigns {
		m.Positions = append(m.Positions, models.SupporterPositionModel{SupporterID: m.ID, CampaignID: uint32(id)})
	}
	return m
}

func ToDomainSupporter(m *models.SupporterModel) *domain.Supporter {
	s := domain.NewSupporter(domain.AccountID(m.ID))
	for _, p := range m.Positions {
		s.Add(domain.CampaignID(p.CampaignID))
	}
	return s
}
