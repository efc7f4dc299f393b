package internaldefs

import (
	rentalAuth "github.com/MrEthical07/rentalAuth"
)

// Series is one engine counter inside a Family. Value is the label value and
// is empty for unlabelled families.
type Series struct {
	ID    rentalAuth.MetricID
	Value string
}

// Family is one exported counter name. Labelled families fold related engine
// counters into a single name keyed by Label.
type Family struct {
	Name   string
	Help   string
	Label  string
	Series []Series
}

// HistogramDef maps one engine histogram to its exported name.
type HistogramDef struct {
	ID   rentalAuth.MetricID
	Name string
	Help string
}

// Label names. Authenticate outcomes mirror the filter's rejection reasons.
const (
	OutcomeLabel = "outcome"
	EventLabel   = "event"
)

var Families = []Family{
	{
		Name:  "rentalauth_authenticate_total",
		Help:  "Authentication filter decisions by outcome.",
		Label: OutcomeLabel,
		Series: []Series{
			{rentalAuth.MetricAuthenticateSuccess, "success"},
			{rentalAuth.MetricAuthenticateNoCredential, "no_credential"},
			{rentalAuth.MetricAuthenticateMalformed, "malformed"},
			{rentalAuth.MetricAuthenticateRevoked, "revoked"},
			{rentalAuth.MetricAuthenticateRejected, "rejected"},
			{rentalAuth.MetricAuthenticateSignature, "signature_invalid"},
			{rentalAuth.MetricAuthenticateExpired, "expired"},
		},
	},
	{
		Name:  "rentalauth_login_total",
		Help:  "Login attempts by outcome.",
		Label: OutcomeLabel,
		Series: []Series{
			{rentalAuth.MetricLoginSuccess, "success"},
			{rentalAuth.MetricLoginFailure, "failure"},
			{rentalAuth.MetricLoginLocked, "locked"},
			{rentalAuth.MetricLoginThrottled, "throttled"},
		},
	},
	{
		Name:  "rentalauth_reissue_total",
		Help:  "Token reissues by outcome.",
		Label: OutcomeLabel,
		Series: []Series{
			{rentalAuth.MetricReissueSuccess, "success"},
			{rentalAuth.MetricReissueFailure, "failure"},
		},
	},
	{
		Name:   "rentalauth_registry_unavailable_total",
		Help:   "Force-expire registry calls that failed.",
		Series: []Series{{ID: rentalAuth.MetricRegistryUnavailable}},
	},
	{
		Name:   "rentalauth_logout_total",
		Help:   "Single-token logouts.",
		Series: []Series{{ID: rentalAuth.MetricLogout}},
	},
	{
		Name:   "rentalauth_expire_all_total",
		Help:   "Force-expire-all sweeps.",
		Series: []Series{{ID: rentalAuth.MetricExpireAll}},
	},
	{
		Name:   "rentalauth_tokens_force_expired_total",
		Help:   "Tokens written to the force-expire registry.",
		Series: []Series{{ID: rentalAuth.MetricTokensForceExpired}},
	},
	{
		Name:   "rentalauth_admin_secret_rejected_total",
		Help:   "Admin calls rejected for a wrong shared secret.",
		Series: []Series{{ID: rentalAuth.MetricAdminSecretRejected}},
	},
}

// EventsDroppedName is the counter of lifecycle events that never reached the
// sink, labelled by EventLabel.
const (
	EventsDroppedName = "rentalauth_events_dropped_total"
	EventsDroppedHelp = "Lifecycle events dropped before reaching the sink."
)

var HistogramDefs = []HistogramDef{
	{ID: rentalAuth.MetricAuthenticateLatency, Name: "rentalauth_authenticate_latency_seconds", Help: "Authentication filter latency."},
}

// HistogramBounds are the upper bounds in seconds, matching the engine buckets.
var HistogramBounds = []string{"0.0005", "0.001", "0.0025", "0.005", "0.01", "0.025", "0.05", "+Inf"}

// CumulativeBuckets turns the engine's per-bucket counts into running totals.
// Missing trailing buckets count as zero.
func CumulativeBuckets(raw []uint64) []uint64 {
	out := make([]uint64, len(HistogramBounds))
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
