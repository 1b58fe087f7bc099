package domain

// Eligibility is the verdict on whether a member may apply for a new loan.
type Eligibility struct {
	MemberID       string   `json:"member_id"`
	IsEligible     bool     `json:"is_eligible"`
	Reasons        []string `json:"reasons"`
	MaxLoanAmount  int64    `json:"max_loan_amount"`
	CreditScore    int      `json:"credit_score"`
	SavingsBalance int64    `json:"savings_balance"`
}

// LoanStats summarizes a member's borrowing history.
type LoanStats struct {
	MemberID         string             `json:"member_id"`
	TotalLoans       int                `json:"total_loans"`
	LoansByStatus    map[LoanStatus]int `json:"loans_by_status"`
	TotalBorrowed    int64              `json:"total_borrowed"`
	TotalPaid        int64              `json:"total_paid"`
	TotalOutstanding int64              `json:"total_outstanding"`
	TotalLateFees    int64              `json:"total_late_fees"`
	PaymentsMade     int                `json:"payments_made"`
	OnTimePayments   int                `json:"on_time_payments"`
	LatePayments     int                `json:"late_payments"`
	OverdueAmount    int64              `json:"overdue_amount"`
	AverageLateDays  float64            `json:"average_late_days"`
	CreditScore      int                `json:"credit_score"`
}
