// Package confidence computes a business's verification confidence from the
// verdicts its verifiers have already written into raw. Pure function: same
// raw map always yields the same label.
package confidence

import "github.com/5n10/domain-lead-pipeline/internal/store"

// Level is the bucketized confidence label.
type Level string

const (
	LevelHigh       Level = "high"
	LevelMedium     Level = "medium"
	LevelLow        Level = "low"
	LevelUnverified Level = "unverified"
)

// weights is the fixed (source, verdict) -> weight table. Unlisted
// combinations for a source that HAS run fall back to defaultWeight rather
// than being ignored, since an unmodeled verdict is still evidence.
var weights = map[string]map[string]float64{
	"domain_guess": {
		"has_website":   1.0,
		"no_match":      0.7,
		"no_candidates": 0.3,
		"error":         0.0,
		"blocked":       0.0,
	},
	"searxng": {
		"has_website": 0.9,
		"no_website":  0.9,
		"no_results":  0.5,
	},
	"llm": {
		"has_website": 0.8,
		"no_website":  0.8,
		"not_sure":    0.2,
		"error":       0.0,
	},
	"ddg": {
		"has_website": 0.7,
		"no_website":  0.6,
		"no_results":  0.05,
	},
	"google_search": {
		"has_website": 0.7,
		"no_website":  0.6,
		"no_results":  0.05,
	},
	"google_places": {
		"has_website": 0.9,
		"no_website":  0.9,
		"poor_match":  0.2,
		"no_match":    0.3,
	},
	"foursquare": {
		"has_website": 0.8,
		"no_website":  0.8,
		"poor_match":  0.2,
		"no_match":    0.3,
	},
}

const defaultWeight = 0.1

// verifiedSources is every source key the confidence model looks for in raw,
// matched against "<source>_verified" and "<source>_result".
var verifiedSources = []string{"domain_guess", "searxng", "llm", "ddg", "google_search", "google_places", "foursquare"}

// Compute sums the per-(source, verdict) weight of every verifier that has
// run, and bucketizes the total. Returns (0, LevelUnverified) when no
// verifier has touched the business yet.
func Compute(raw store.JSONMap) (float64, Level) {
	total := 0.0
	anyRan := false
	for _, source := range verifiedSources {
		verifiedKey := source + "_verified"
		verified, _ := raw[verifiedKey].(bool)
		if !verified {
			continue
		}
		anyRan = true
		verdict, _ := raw[source+"_result"].(string)
		w, ok := weights[source][verdict]
		if !ok {
			w = defaultWeight
		}
		total += w
	}
	if !anyRan {
		return 0, LevelUnverified
	}
	return total, bucketize(total)
}

func bucketize(total float64) Level {
	switch {
	case total >= 1.5:
		return LevelHigh
	case total >= 0.7:
		return LevelMedium
	case total > 0:
		return LevelLow
	default:
		return LevelUnverified
	}
}
