// Package access derives the API key and usage plan topology from a list of
// client credentials.
//
// Every credential becomes one API key, and every key is attached to a single
// shared usage plan. An empty credential list is refused: the stack is never
// provisioned without key protection.
package access

import (
	"fmt"
)

// Credential is an opaque client secret used as an API key value.
type Credential string

// KeyNamePrefix prefixes the index of every generated key.
const KeyNamePrefix = "DevApiKey-"

// PlanName is the name of the shared usage plan.
const PlanName = "UsagePlan"

// Fixed plan limits.
const (
	QuotaLimit  = 1000
	QuotaPeriod = PeriodDay
	BurstLimit  = 10
	RateLimit   = 5.0
)

// Period is the quota window of a usage plan.
type Period string

const (
	PeriodDay   Period = "DAY"
	PeriodWeek  Period = "WEEK"
	PeriodMonth Period = "MONTH"
)

// Quota caps the number of requests per period.
type Quota struct {
	Limit  int
	Period Period
}

// Throttle is the token bucket applied to each key.
type Throttle struct {
	BurstLimit int
	// RateLimit is the sustained rate in requests per second.
	RateLimit float64
}

// UsagePlan is the shared quota and throttle policy.
type UsagePlan struct {
	Name     string
	Quota    Quota
	Throttle Throttle
	// Keys are the names of the attached access keys. The plan references
	// them; the Policy owns them.
	Keys []string
}

// AccessKey wraps exactly one credential.
type AccessKey struct {
	// Index is the position of the credential in the input. It is stable only
	// within one build.
	Index      int
	Name       string
	Credential Credential
}

// Policy is the result of Build.
type Policy struct {
	Plan               UsagePlan
	Keys               []AccessKey
	RequireKeyOnRoutes bool
}

// KeyName returns the deterministic name of the key at index i.
func KeyName(i int) string {
	return fmt.Sprintf("%s%d", KeyNamePrefix, i)
}

// Build creates one key per credential, in input order, and attaches all of
// them to one usage plan. Duplicate credentials produce distinct keys.
// An empty input returns a *NoCredentialsError and no policy.
func Build(creds []Credential) (*Policy, error) {
	if len(creds) == 0 {
		return nil, &NoCredentialsError{}
	}

	plan := UsagePlan{
		Name:     PlanName,
		Quota:    Quota{Limit: QuotaLimit, Period: QuotaPeriod},
		Throttle: Throttle{BurstLimit: BurstLimit, RateLimit: RateLimit},
		Keys:     make([]string, 0, len(creds)),
	}

	keys := make([]AccessKey, 0, len(creds))
	for i, c := range creds {
		key := AccessKey{Index: i, Name: KeyName(i), Credential: c}
		keys = append(keys, key)
		plan.Keys = append(plan.Keys, key.Name)
	}

	return &Policy{
		Plan:               plan,
		Keys:               keys,
		RequireKeyOnRoutes: true,
	}, nil
}

// PlanFor returns the usage plan the named key is attached to.
func (p *Policy) PlanFor(keyName string) (UsagePlan, bool) {
	for _, k := range p.Plan.Keys {
		if k == keyName {
			return p.Plan, true
		}
	}
	return UsagePlan{}, false
}
