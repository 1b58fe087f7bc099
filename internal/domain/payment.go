package domain

// RecordPaymentRequest is a payment against one installment.
type RecordPaymentRequest struct {
	LoanID            string `json:"-"`
	InstallmentNumber int    `json:"installment_number" validate:"required,gt=0"`
	Amount            int64  `json:"amount" validate:"required,gt=0"`
	Method            string `json:"method" validate:"required"`
	ReceiptRef        string `json:"receipt_ref"`
	Notes             string `json:"notes" validate:"max=500"`
}
