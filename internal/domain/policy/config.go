package policy

import (
	"github.com/shopspring/decimal"

	"github.com/returnsdesk/backend/internal/domain/returns"
)

// Config is the static per-deployment policy. It never changes during the
// lifetime of a process.
type Config struct {
	// ReturnWindowDays is the number of days after purchase during which a
	// return is ordinarily eligible.
	ReturnWindowDays int

	// AllowedReasons is the whitelist of accepted return reasons
	AllowedReasons []returns.ReturnReason

	// RestockingFeePercent is deducted from the refund unless the reason is
	// merchant fault or the item arrived damaged.
	RestockingFeePercent decimal.Decimal

	// AutoApproveVIP lets VIP customers override a return-window failure
	AutoApproveVIP bool

	// AutoApproveDamagedOnArrival lets a damaged-on-arrival flag override a
	// return-window failure. Takes precedence over the VIP override.
	AutoApproveDamagedOnArrival bool
}

// DefaultConfig returns the baseline policy
func DefaultConfig() Config {
	return Config{
		ReturnWindowDays:            30,
		AllowedReasons:              returns.KnownReasons,
		RestockingFeePercent:        decimal.Zero,
		AutoApproveVIP:              true,
		AutoApproveDamagedOnArrival: true,
	}
}

// AllowsReason reports whether the reason is in the configured whitelist
func (c Config) AllowsReason(reason returns.ReturnReason) bool {
	for _, allowed := range c.AllowedReasons {
		if reason == allowed {
			return true
		}
	}
	return false
}
