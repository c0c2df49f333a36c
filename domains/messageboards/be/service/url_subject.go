package service

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/friendlyurl"
)

const (
	// MaxURLSubjectLength bounds a derived URL subject, suffix included.
	MaxURLSubjectLength = 254
	// reservedURLSubject is routed to the message-board feed.
	reservedURLSubject = "rss"
)

// Derivation is the URL subject derived for one message.
type Derivation struct {
	Value string
	// Fallback is set when Value is the decimal message id because the subject
	// was absent or unusable.
	Fallback bool
}

// DeriveURLSubject turns a message subject into its canonical URL subject.
// Absent, blank, purely numeric and reserved subjects fall back to the decimal
// id, as does any subject the normalizer reduces to nothing usable.
func DeriveURLSubject(id int64, subject *string) Derivation {
	fallback := Derivation{Value: strconv.FormatInt(id, 10), Fallback: true}
	if subject == nil {
		return fallback
	}

	value := strings.ToLower(strings.TrimSpace(*subject))
	if unusable(value) {
		return fallback
	}

	value = friendlyurl.NormalizeWithPeriodsAndSlashes(value)
	value = truncate(value, MaxURLSubjectLength)
	if unusable(value) {
		return fallback
	}

	return Derivation{Value: value}
}

func unusable(value string) bool {
	return value == "" || value == reservedURLSubject || isNumber(value)
}

func isNumber(value string) bool {
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return value != ""
}

// truncate cuts value to at most limit bytes; normalized values are ASCII.
func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}

// AssignStats counts what an Assigner did over a run.
type AssignStats struct {
	Rows       int
	Fallbacks  int
	Duplicates int
	// Collisions counts final URL subjects equal to one already emitted, e.g. a
	// literal "foo-1" arriving after the second "foo". They are reported, not fixed.
	Collisions int
}

// Assigner hands out URL subjects for one backfill run, suffixing repeated
// candidates with "-1", "-2", ... in encounter order. It is not safe for
// concurrent use and is discarded when the run ends.
type Assigner struct {
	counts  map[string]int
	emitted map[string]struct{}
	stats   AssignStats
}

// NewAssigner returns an empty Assigner.
func NewAssigner() *Assigner {
	return &Assigner{
		counts:  make(map[string]int),
		emitted: make(map[string]struct{}),
	}
}

// Assign returns the final URL subject for the message.
func (a *Assigner) Assign(id int64, subject *string) string {
	d := DeriveURLSubject(id, subject)

	a.stats.Rows++
	if d.Fallback {
		a.stats.Fallbacks++
	}

	final := d.Value
	if n, seen := a.counts[d.Value]; seen {
		n++
		a.counts[d.Value] = n
		final = withSuffix(d.Value, n)
		a.stats.Duplicates++
	} else {
		a.counts[d.Value] = 0
	}

	if _, dup := a.emitted[final]; dup {
		a.stats.Collisions++
	}
	a.emitted[final] = struct{}{}

	return final
}

// Stats returns the counters accumulated so far.
func (a *Assigner) Stats() AssignStats {
	return a.stats
}

// withSuffix appends "-n", shortening base so the result stays within
// MaxURLSubjectLength.
func withSuffix(base string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	return truncate(base, MaxURLSubjectLength-len(suffix)) + suffix
}
