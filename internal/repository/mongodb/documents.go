package mongodb

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/fund-ledger/internal/domain"
)

// Documents are stored with plain string statuses and decoded back through the
// domain parsers, so an unknown value read from the database is an error.

type accountDoc struct {
	ID                     string    `bson:"_id"`
	MemberID               string    `bson:"member_id"`
	Balance                int64     `bson:"balance"`
	TotalDeposits          int64     `bson:"total_deposits"`
	TotalWithdrawals       int64     `bson:"total_withdrawals"`
	MonthlyContribution    int64     `bson:"monthly_contribution"`
	MinMonthlyContribution int64     `bson:"min_monthly_contribution"`
	ConsecutiveMonthsMet   int       `bson:"consecutive_months_met"`
	WithdrawalsThisMonth   int       `bson:"withdrawals_this_month"`
	MaxWithdrawalsPerMonth int       `bson:"max_withdrawals_per_month"`
	TotalFines             int64     `bson:"total_fines"`
	FinesPending           int64     `bson:"fines_pending"`
	Status                 string    `bson:"status"`
	Version                int64     `bson:"version"`
	CreatedAt              time.Time `bson:"created_at"`
	UpdatedAt              time.Time `bson:"updated_at"`
}

type postingDoc struct {
	ID         string    `bson:"_id"`
	AccountID  string    `bson:"account_id"`
	Seq        int64     `bson:"seq"`
	Type       string    `bson:"type"`
	Amount     int64     `bson:"amount"`
	Balance    int64     `bson:"balance"`
	Concept    string    `bson:"concept"`
	Fee        int64     `bson:"fee,omitempty"`
	ApprovedBy string    `bson:"approved_by,omitempty"`
	ReceiptRef string    `bson:"receipt_ref,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
	CreatedBy  string    `bson:"created_by"`
}

type coSignerDoc struct {
	MemberID    string     `bson:"member_id"`
	Name        string     `bson:"name"`
	Phone       string     `bson:"phone,omitempty"`
	Email       string     `bson:"email,omitempty"`
	Status      string     `bson:"status"`
	RespondedAt *time.Time `bson:"responded_at,omitempty"`
}

type loanDoc struct {
	ID                  string        `bson:"_id"`
	MemberID            string        `bson:"member_id"`
	MemberName          string        `bson:"member_name"`
	Amount              int64         `bson:"amount"`
	TermMonths          int           `bson:"term_months"`
	Purpose             string        `bson:"purpose"`
	InterestRate        string        `bson:"interest_rate"`
	MonthlyPayment      int64         `bson:"monthly_payment"`
	TotalInterest       int64         `bson:"total_interest"`
	TotalAmount         int64         `bson:"total_amount"`
	CoSigners           []coSignerDoc `bson:"co_signers"`
	Status              string        `bson:"status"`
	ApprovedBy          string        `bson:"approved_by,omitempty"`
	ApprovedAt          *time.Time    `bson:"approved_at,omitempty"`
	RejectionReason     string        `bson:"rejection_reason,omitempty"`
	DisbursementMethod  string        `bson:"disbursement_method,omitempty"`
	DisbursementAccount string        `bson:"disbursement_account,omitempty"`
	DisbursedAt         *time.Time    `bson:"disbursed_at,omitempty"`
	PaidPayments        int           `bson:"paid_payments"`
	TotalPayments       int           `bson:"total_payments"`
	RemainingBalance    int64         `bson:"remaining_balance"`
	LastPaymentDate     *time.Time    `bson:"last_payment_date,omitempty"`
	NextPaymentDate     *time.Time    `bson:"next_payment_date,omitempty"`
	OverduePayments     int           `bson:"overdue_payments"`
	TotalOverdueDays    int           `bson:"total_overdue_days"`
	TotalLateFees       int64         `bson:"total_late_fees"`
	Version             int64         `bson:"version"`
	CreatedAt           time.Time     `bson:"created_at"`
	UpdatedAt           time.Time     `bson:"updated_at"`
}

type installmentDoc struct {
	ID               string     `bson:"_id"`
	LoanID           string     `bson:"loan_id"`
	MemberID         string     `bson:"member_id"`
	Number           int        `bson:"number"`
	DueDate          time.Time  `bson:"due_date"`
	Amount           int64      `bson:"amount"`
	Principal        int64      `bson:"principal"`
	Interest         int64      `bson:"interest"`
	RemainingBalance int64      `bson:"remaining_balance"`
	Status           string     `bson:"status"`
	PaidAt           *time.Time `bson:"paid_at,omitempty"`
	PaidAmount       int64      `bson:"paid_amount"`
	LateDays         int        `bson:"late_days"`
	LateFee          int64      `bson:"late_fee"`
	Method           string     `bson:"method,omitempty"`
	ReceiptRef       string     `bson:"receipt_ref,omitempty"`
	Notes            string     `bson:"notes,omitempty"`
	CreatedAt        time.Time  `bson:"created_at"`
}

func toAccountDoc(a *domain.SavingsAccount) accountDoc {
	return accountDoc{
		ID:                     a.ID,
		MemberID:               a.MemberID,
		Balance:                a.Balance,
		TotalDeposits:          a.TotalDeposits,
		TotalWithdrawals:       a.TotalWithdrawals,
		MonthlyContribution:    a.MonthlyContribution,
		MinMonthlyContribution: a.MinMonthlyContribution,
		ConsecutiveMonthsMet:   a.ConsecutiveMonthsMet,
		WithdrawalsThisMonth:   a.WithdrawalsThisMonth,
		MaxWithdrawalsPerMonth: a.MaxWithdrawalsPerMonth,
		TotalFines:             a.TotalFines,
		FinesPending:           a.FinesPending,
		Status:                 string(a.Status),
		Version:                a.Version,
		CreatedAt:              a.CreatedAt,
		UpdatedAt:              a.UpdatedAt,
	}
}

func (d accountDoc) toDomain() (*domain.SavingsAccount, error) {
	status, err := domain.ParseAccountStatus(d.Status)
	if err != nil {
		return nil, err
	}
	return &domain.SavingsAccount{
		ID:                     d.ID,
		MemberID:               d.MemberID,
		Balance:                d.Balance,
		TotalDeposits:          d.TotalDeposits,
		TotalWithdrawals:       d.TotalWithdrawals,
		MonthlyContribution:    d.MonthlyContribution,
		MinMonthlyContribution: d.MinMonthlyContribution,
		ConsecutiveMonthsMet:   d.ConsecutiveMonthsMet,
		WithdrawalsThisMonth:   d.WithdrawalsThisMonth,
		MaxWithdrawalsPerMonth: d.MaxWithdrawalsPerMonth,
		TotalFines:             d.TotalFines,
		FinesPending:           d.FinesPending,
		Status:                 status,
		Version:                d.Version,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}, nil
}

func toPostingDoc(t *domain.SavingsTransaction, seq int64) postingDoc {
	return postingDoc{
		ID:         t.ID,
		AccountID:  t.AccountID,
		Seq:        seq,
		Type:       string(t.Type),
		Amount:     t.Amount,
		Balance:    t.Balance,
		Concept:    t.Concept,
		Fee:        t.Metadata.Fee,
		ApprovedBy: t.Metadata.ApprovedBy,
		ReceiptRef: t.Metadata.ReceiptRef,
		CreatedAt:  t.CreatedAt,
		CreatedBy:  t.CreatedBy,
	}
}

func (d postingDoc) toDomain() (*domain.SavingsTransaction, error) {
	typ, err := domain.ParseTransactionType(d.Type)
	if err != nil {
		return nil, err
	}
	return &domain.SavingsTransaction{
		ID:        d.ID,
		AccountID: d.AccountID,
		Type:      typ,
		Amount:    d.Amount,
		Balance:   d.Balance,
		Concept:   d.Concept,
		Metadata: domain.TransactionMetadata{
			Fee:        d.Fee,
			ApprovedBy: d.ApprovedBy,
			ReceiptRef: d.ReceiptRef,
		},
		CreatedAt: d.CreatedAt,
		CreatedBy: d.CreatedBy,
	}, nil
}

func toLoanDoc(l *domain.LoanApplication) loanDoc {
	coSigners := make([]coSignerDoc, len(l.CoSigners))
	for i, cs := range l.CoSigners {
		coSigners[i] = coSignerDoc{
			MemberID:    cs.MemberID,
			Name:        cs.Name,
			Phone:       cs.Phone,
			Email:       cs.Email,
			Status:      string(cs.Status),
			RespondedAt: cs.RespondedAt,
		}
	}

	return loanDoc{
		ID:                  l.ID,
		MemberID:            l.MemberID,
		MemberName:          l.MemberName,
		Amount:              l.Amount,
		TermMonths:          l.TermMonths,
		Purpose:             l.Purpose,
		InterestRate:        l.InterestRate.String(),
		MonthlyPayment:      l.MonthlyPayment,
		TotalInterest:       l.TotalInterest,
		TotalAmount:         l.TotalAmount,
		CoSigners:           coSigners,
		Status:              string(l.Status),
		ApprovedBy:          l.ApprovedBy,
		ApprovedAt:          l.ApprovedAt,
		RejectionReason:     l.RejectionReason,
		DisbursementMethod:  l.Disbursement.Method,
		DisbursementAccount: l.Disbursement.Account,
		DisbursedAt:         l.DisbursedAt,
		PaidPayments:        l.PaidPayments,
		TotalPayments:       l.TotalPayments,
		RemainingBalance:    l.RemainingBalance,
		LastPaymentDate:     l.LastPaymentDate,
		NextPaymentDate:     l.NextPaymentDate,
		OverduePayments:     l.OverduePayments,
		TotalOverdueDays:    l.TotalOverdueDays,
		TotalLateFees:       l.TotalLateFees,
		Version:             l.Version,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
}

func (d loanDoc) toDomain() (*domain.LoanApplication, error) {
	status, err := domain.ParseLoanStatus(d.Status)
	if err != nil {
		return nil, err
	}
	rate, err := decimal.NewFromString(d.InterestRate)
	if err != nil {
		return nil, err
	}

	coSigners := make(domain.CoSigners, len(d.CoSigners))
	for i, cs := range d.CoSigners {
		csStatus, err := domain.ParseCoSignerStatus(cs.Status)
		if err != nil {
			return nil, err
		}
		coSigners[i] = domain.CoSigner{
			MemberID:    cs.MemberID,
			Name:        cs.Name,
			Phone:       cs.Phone,
			Email:       cs.Email,
			Status:      csStatus,
			RespondedAt: cs.RespondedAt,
		}
	}

	return &domain.LoanApplication{
		ID:               d.ID,
		MemberID:         d.MemberID,
		MemberName:       d.MemberName,
		Amount:           d.Amount,
		TermMonths:       d.TermMonths,
		Purpose:          d.Purpose,
		InterestRate:     rate,
		MonthlyPayment:   d.MonthlyPayment,
		TotalInterest:    d.TotalInterest,
		TotalAmount:      d.TotalAmount,
		CoSigners:        coSigners,
		Status:           status,
		ApprovedBy:       d.ApprovedBy,
		ApprovedAt:       d.ApprovedAt,
		RejectionReason:  d.RejectionReason,
		Disbursement:     domain.Disbursement{Method: d.DisbursementMethod, Account: d.DisbursementAccount},
		DisbursedAt:      d.DisbursedAt,
		PaidPayments:     d.PaidPayments,
		TotalPayments:    d.TotalPayments,
		RemainingBalance: d.RemainingBalance,
		LastPaymentDate:  d.LastPaymentDate,
		NextPaymentDate:  d.NextPaymentDate,
		OverduePayments:  d.OverduePayments,
		TotalOverdueDays: d.TotalOverdueDays,
		TotalLateFees:    d.TotalLateFees,
		Version:          d.Version,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}, nil
}

func (d installmentDoc) toDomain() (*domain.LoanPayment, error) {
	status, err := domain.ParsePaymentStatus(d.Status)
	if err != nil {
		return nil, err
	}
	return &domain.LoanPayment{
		ID:               d.ID,
		LoanID:           d.LoanID,
		MemberID:         d.MemberID,
		Number:           d.Number,
		DueDate:          d.DueDate,
		Amount:           d.Amount,
		Principal:        d.Principal,
		Interest:         d.Interest,
		RemainingBalance: d.RemainingBalance,
		Status:           status,
		PaidAt:           d.PaidAt,
		PaidAmount:       d.PaidAmount,
		LateDays:         d.LateDays,
		LateFee:          d.LateFee,
		Method:           d.Method,
		ReceiptRef:       d.ReceiptRef,
		Notes:            d.Notes,
		CreatedAt:        d.CreatedAt,
	}, nil
}
