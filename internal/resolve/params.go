package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"hidream/pkg/types"
)

// ResolutionDelimiter separates height and width. Matching is case-sensitive.
const ResolutionDelimiter = "x"

// DefaultResolution is used by front ends when the user picks nothing.
var DefaultResolution = types.Resolution{Height: 1024, Width: 1024}

var supported = []struct {
	res   types.Resolution
	label string
}{
	{types.Resolution{Height: 1024, Width: 1024}, "1024 × 1024 (Square)"},
	{types.Resolution{Height: 768, Width: 1360}, "768 × 1360 (Portrait)"},
	{types.Resolution{Height: 1360, Width: 768}, "1360 × 768 (Landscape)"},
	{types.Resolution{Height: 880, Width: 1168}, "880 × 1168 (Portrait)"},
	{types.Resolution{Height: 1168, Width: 880}, "1168 × 880 (Landscape)"},
	{types.Resolution{Height: 1248, Width: 832}, "1248 × 832 (Landscape)"},
	{types.Resolution{Height: 832, Width: 1248}, "832 × 1248 (Portrait)"},
}

// SupportedResolutions returns the accepted pairs in display order.
func SupportedResolutions() []types.Resolution {
	out := make([]types.Resolution, len(supported))
	for i, s := range supported {
		out[i] = s.res
	}
	return out
}

// IsSupported reports whether r is one of the enumerated resolutions.
func IsSupported(r types.Resolution) bool {
	for _, s := range supported {
		if s.res == r {
			return true
		}
	}
	return false
}

// Label returns the web form caption for r, or its canonical string when r
// is not a supported pair.
func Label(r types.Resolution) string {
	for _, s := range supported {
		if s.res == r {
			return s.label
		}
	}
	return r.String()
}

// ParseResolution parses "HxW" and checks it against the supported set.
func ParseResolution(s string) (types.Resolution, error) {
	fail := func() (types.Resolution, error) {
		return types.Resolution{}, &ValidationError{
			Code:    CodeUnsupportedResolution,
			Field:   "resolution",
			Value:   s,
			Message: fmt.Sprintf("unsupported resolution %q", s),
		}
	}
	parts := strings.Split(strings.TrimSpace(s), ResolutionDelimiter)
	if len(parts) != 2 {
		return fail()
	}
	h, ok := positiveInt(parts[0])
	if !ok {
		return fail()
	}
	w, ok := positiveInt(parts[1])
	if !ok {
		return fail()
	}
	r := types.Resolution{Height: h, Width: w}
	if !IsSupported(r) {
		return fail()
	}
	return r, nil
}

func positiveInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// RandomSeedSentinel is the user-facing value meaning "pick a seed for me".
const RandomSeedSentinel = -1

// ParseSeed parses a user-supplied seed. Empty input and -1 mean unspecified;
// other negative values and non-integers are rejected.
func ParseSeed(s string) (types.Seed, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.UnspecifiedSeed(), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return types.Seed{}, &ValidationError{Code: CodeInvalidSeed, Field: "seed", Value: s, Message: fmt.Sprintf("seed %q is not an integer", s)}
	}
	return SeedFromInt(n)
}

// SeedFromInt applies the sentinel rule to an already-parsed integer.
func SeedFromInt(n int64) (types.Seed, error) {
	switch {
	case n == RandomSeedSentinel:
		return types.UnspecifiedSeed(), nil
	case n < 0:
		return types.Seed{}, &ValidationError{
			Code:    CodeInvalidSeed,
			Field:   "seed",
			Value:   strconv.FormatInt(n, 10),
			Message: fmt.Sprintf("seed %d is negative (use %d for random)", n, RandomSeedSentinel),
		}
	}
	return types.SpecifiedSeed(n), nil
}
