// AngelaMos | 2026
// plan.go

package plan

import (
	"fmt"
)

type Plan string

const (
	Starter      Plan = "starter"
	Professional Plan = "professional"
	Enterprise   Plan = "enterprise"
)

func (p Plan) Valid() bool {
	_, ok := defaults[p]
	return ok
}

type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusInactive  SubscriptionStatus = "inactive"
	StatusSuspended SubscriptionStatus = "suspended"
	StatusCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusCancelled:
		return true
	}
	return false
}

// Resource names a capped, countable entity kind.
type Resource string

const (
	Users         Resource = "users"
	Medicines     Resource = "medicines"
	Prescriptions Resource = "prescriptions"
)

type Limits struct {
	Users         int `json:"users"`
	Medicines     int `json:"medicines"`
	Prescriptions int `json:"prescriptions"`
	StorageMB     int `json:"storage_mb"`
}

func (l Limits) For(r Resource) int {
	switch r {
	case Users:
		return l.Users
	case Medicines:
		return l.Medicines
	case Prescriptions:
		return l.Prescriptions
	}
	return 0
}

var defaults = map[Plan]Limits{
	Starter: {
		Users:         5,
		Medicines:     500,
		Prescriptions: 1000,
		StorageMB:     1024,
	},
	Professional: {
		Users:         25,
		Medicines:     5000,
		Prescriptions: 10000,
		StorageMB:     10240,
	},
	Enterprise: {
		Users:         100,
		Medicines:     50000,
		Prescriptions: 100000,
		StorageMB:     102400,
	},
}

func DefaultLimits(p Plan) (Limits, error) {
	l, ok := defaults[p]
	if !ok {
		return Limits{}, fmt.Errorf("unknown subscription plan %q", p)
	}
	return l, nil
}

// Usage is one resource's position against its cap. Exceeded is true once
// Current has reached Limit, since creating one more would pass it.
type Usage struct {
	Current  int  `json:"current"`
	Limit    int  `json:"limit"`
	Exceeded bool `json:"exceeded"`
}

func NewUsage(current, limit int) Usage {
	return Usage{
		Current:  current,
		Limit:    limit,
		Exceeded: current >= limit,
	}
}
