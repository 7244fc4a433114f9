package domain

const (
	RoleCustomer = "CUSTOMER"
	RoleExecutor = "EXECUTOR"
	RoleAdmin    = "ADMIN"
)

const (
	OrderStatusPending    = "PENDING"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

const (
	ExecutionStatusPending       = "PENDING"
	ExecutionStatusUploaded      = "UPLOADED"
	ExecutionStatusPendingReview = "PENDING_REVIEW"
	ExecutionStatusApproved      = "APPROVED"
	ExecutionStatusRejected      = "REJECTED"
	ExecutionStatusCompleted     = "COMPLETED"
)

const (
	PaymentTypeDeposit         = "DEPOSIT"
	PaymentTypeWithdrawal      = "WITHDRAWAL"
	PaymentTypeExecutorPayment = "EXECUTOR_PAYMENT"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusCancelled = "CANCELLED"
	PaymentStatusFailed    = "FAILED"
)

const (
	PayoutStatusPending    = "PENDING"
	PayoutStatusProcessing = "PROCESSING"
	PayoutStatusCompleted  = "COMPLETED"
	PayoutStatusFailed     = "FAILED"
	PayoutStatusCancelled  = "CANCELLED"
	PayoutStatusRejected   = "REJECTED"
)

const (
	PayoutMethodBank   = "BANK"
	PayoutMethodWallet = "WALLET"
)

const (
	RefundStatusPending   = "PENDING"
	RefundStatusCompleted = "COMPLETED"
	RefundStatusCancelled = "CANCELLED"
)

// ExecutionTerminal reports whether an execution status is terminal
// (REJECTED or COMPLETED). APPROVED is transient: approval moves straight
// on to COMPLETED within the same transaction.
func ExecutionTerminal(status string) bool {
	return status == ExecutionStatusRejected || status == ExecutionStatusCompleted
}

// PayoutTerminal reports whether a payout status can no longer change.
func PayoutTerminal(status string) bool {
	switch status {
	case PayoutStatusCompleted, PayoutStatusFailed, PayoutStatusCancelled, PayoutStatusRejected:
		return true
	}
	return false
}
