package sale

import "errors"

// Validation failures. Each is surfaced synchronously, leaves no partial
// mutation, and is safe to retry.
var (
	// ErrInvalidParameter is returned when a phase or parameter value
	// violates a creation constraint.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrOverlappingPhase is returned when a phase window intersects an
	// existing phase.
	ErrOverlappingPhase = errors.New("overlapping phase window")

	// ErrPhaseStarted is returned when updating a phase whose window has
	// already opened.
	ErrPhaseStarted = errors.New("phase already started")

	// ErrNoActivePhase is returned when no phase can serve a purchase now.
	ErrNoActivePhase = errors.New("no active phase")

	// ErrBelowMinimum is returned when a contribution is below minBuy.
	ErrBelowMinimum = errors.New("contribution below minimum")

	// ErrZeroTokens is returned when a contribution is too small to buy a
	// single token unit at the current phase price.
	ErrZeroTokens = errors.New("contribution buys zero tokens")

	// ErrWalletCapExceeded is returned when a purchase would push an
	// account past maxPerWallet.
	ErrWalletCapExceeded = errors.New("wallet contribution cap exceeded")

	// ErrZeroAmount is returned when queueing a zero escrow amount.
	ErrZeroAmount = errors.New("zero amount")

	// ErrZeroDestination is returned when queueing escrow for the zero
	// address.
	ErrZeroDestination = errors.New("zero destination address")

	// ErrNoPayments is returned when withdrawing an empty escrow balance.
	ErrNoPayments = errors.New("no queued payments")

	// ErrSaleEnded is returned when buying after the sale has ended.
	ErrSaleEnded = errors.New("sale already ended")

	// ErrAlreadyEnded is returned when ending an already-ended sale.
	ErrAlreadyEnded = errors.New("sale already ended")

	// ErrSaleNotEnded is returned when claiming or refunding before the
	// sale has ended.
	ErrSaleNotEnded = errors.New("sale not ended")

	// ErrSoftCapNotReached is returned when claiming after a failed sale.
	ErrSoftCapNotReached = errors.New("soft cap not reached")

	// ErrSoftCapReached is returned when refunding after a successful
	// sale, or lowering the soft cap after it latched.
	ErrSoftCapReached = errors.New("soft cap already reached")

	// ErrNothingToClaim is returned when claiming with no pending tokens.
	ErrNothingToClaim = errors.New("nothing to claim")

	// ErrNothingToRefund is returned when refunding with no contribution.
	ErrNothingToRefund = errors.New("nothing to refund")

	// ErrPaused is returned by mutating operations while the sale is
	// paused.
	ErrPaused = errors.New("sale paused")

	// ErrInsufficientProceeds is returned when a proceeds withdrawal
	// would touch reserved escrow.
	ErrInsufficientProceeds = errors.New("insufficient withdrawable proceeds")
)

// ErrUnauthorized is the authorization failure for admin-gated mutations.
var ErrUnauthorized = errors.New("unauthorized")
