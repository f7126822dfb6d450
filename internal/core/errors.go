package core

import "errors"

var (
	ErrBusinessNotFound     = errors.New("business not found")
	ErrSlugUnavailable      = errors.New("could not allocate a unique slug")
	ErrBranchNotFound       = errors.New("branch not found")
	ErrBranchLimitReached   = errors.New("branch limit reached for current plan")
	ErrLastBranch           = errors.New("a business must keep at least one branch")
	ErrShareLinkNotFound    = errors.New("share link not found")
	ErrReviewNotFound       = errors.New("review not found")
	ErrReviewLimitReached   = errors.New("review limit reached and no add-on review credits left")
	ErrSubscriptionInactive = errors.New("no active subscription or trial")
	ErrFeatureNotInPlan     = errors.New("feature not included in current plan")
	ErrInsufficientCredits  = errors.New("insufficient add-on credits")
	ErrInvalidCreditKind    = errors.New("invalid credit kind")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrOrderNotFound        = errors.New("payment order not found")
	ErrInvalidOrder         = errors.New("invalid payment order")
	ErrInvalidSignature     = errors.New("payment signature verification failed")
	ErrFulfilmentFailed     = errors.New("payment captured but could not be applied")
	ErrCurrencyUnavailable  = errors.New("currency conversion unavailable")
	ErrSupportNotFound      = errors.New("support request not found")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrChatDisabled         = errors.New("chat is disabled")
	ErrChatSessionNotFound  = errors.New("chat session not found")
	ErrInvalidInput         = errors.New("invalid input")
)
