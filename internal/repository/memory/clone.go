package memory

import (
	"time"

	"github.com/segyhp/fund-ledger/internal/domain"
)

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneLoan(l *domain.LoanApplication) domain.LoanApplication {
	c := *l
	c.ApprovedAt = cloneTime(l.ApprovedAt)
	c.DisbursedAt = cloneTime(l.DisbursedAt)
	c.LastPaymentDate = cloneTime(l.LastPaymentDate)
	c.NextPaymentDate = cloneTime(l.NextPaymentDate)
	if l.CoSigners != nil {
		c.CoSigners = make(domain.CoSigners, len(l.CoSigners))
		for i, cs := range l.CoSigners {
			cs.RespondedAt = cloneTime(cs.RespondedAt)
			c.CoSigners[i] = cs
		}
	}
	return c
}

func clonePayment(p *domain.LoanPayment) domain.LoanPayment {
	c := *p
	c.PaidAt = cloneTime(p.PaidAt)
	return c
}
