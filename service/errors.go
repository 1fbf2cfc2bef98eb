package service

import "errors"

// Caller-facing settlement errors. None are retried by the engine.
var (
	ErrNotEligible         = errors.New("account has no ticket balance")
	ErrInsufficientTickets = errors.New("insufficient tickets")
	ErrInvalidPayment      = errors.New("payment must be exactly the ticket price in the ticket currency")
	ErrNoEntries           = errors.New("no rolls were placed this period")
	ErrNoWinners           = errors.New("no roll matched the winning outcome")
	ErrShareTooSmall       = errors.New("payable pot is too small to pay every winning roll")
	ErrNotFound            = errors.New("payout not found")
	ErrAlreadyProcessed    = errors.New("payout already processed")
	ErrUnauthorized        = errors.New("caller is not authorized for this operation")
	ErrRollingClosed       = errors.New("rolling is closed while the period is being tallied")
	ErrPeriodClosed        = errors.New("period has already been closed")
)
