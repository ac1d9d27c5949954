package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Verdict uint8

const (
	Allow Verdict = iota
	Deny
)

func (v Verdict) String() string {
	if v == Deny {
		return "deny"
	}
	return "allow"
}

// Throttler decides whether a client may keep creating unsigned orders on a
// gateway. Implementations must be safe for concurrent use.
type Throttler interface {
	Decide(ctx context.Context, gatewayId uint64, client string) (verdict Verdict, err error)
}

var ErrInvalidPolicy = errors.New("invalid throttle policy")

// Policy lets Limit requests through per Period for every (gateway, client)
// pair. Going over bans the pair for BanDuration, whatever the window says
type Policy struct {
	Limit       int           `yaml:"limit"`
	Period      time.Duration `yaml:"period"`
	BanDuration time.Duration `yaml:"ban-duration"`
}

// Normalize validates the policy. A zero BanDuration becomes Period so a deny
// always outlives the request that triggered it
func (p Policy) Normalize() (policy Policy, err error) {
	if p.Limit <= 0 {
		return p, fmt.Errorf("%w: limit must be positive", ErrInvalidPolicy)
	}
	if p.Period <= 0 {
		return p, fmt.Errorf("%w: period must be positive", ErrInvalidPolicy)
	}
	if p.BanDuration < 0 {
		return p, fmt.Errorf("%w: ban duration cannot be negative", ErrInvalidPolicy)
	}
	if p.BanDuration == 0 {
		p.BanDuration = p.Period
	}
	return p, nil
}

func Key(gatewayId uint64, client string) (key string) {
	return fmt.Sprintf("throttle:%d:%s", gatewayId, client)
}
