package flair

import "strings"

const (
	InvolvementBadge = "involvement"
	ribbonMarker     = "ribbon"
)

// Composer merges earned badges into a style-class string of at most two
// groups: a tier group and a ribbon group, in whatever order they already had.
type Composer struct {
	involvementSubject string
}

// NewComposer returns a composer that resolves the involvement badge only on
// involvementSubject.
func NewComposer(involvementSubject string) *Composer {
	return &Composer{involvementSubject: involvementSubject}
}

func (c *Composer) MergeBadge(existing, badge, subject string) string {
	groups := strings.Fields(existing)
	if len(groups) > 2 {
		groups = groups[:2]
	}
	primary := ""
	if len(groups) > 0 {
		primary = groups[0]
	}

	if badge == InvolvementBadge {
		if primary == "" || !strings.EqualFold(subject, c.involvementSubject) {
			return strings.Join(groups, " ")
		}
		badge = withSuffix(primary, '1')
	} else if hasSuffixDigit(primary, '1') {
		badge = withSuffix(badge, '1')
	}
	if hasSuffixDigit(primary, '2') {
		badge = withSuffix(badge, '2')
	}

	switch len(groups) {
	case 0:
		return badge
	case 1:
		cur := groups[0]
		switch {
		case hasRibbon(badge) && !hasRibbon(cur):
			return join(cur, badge)
		case !hasRibbon(badge) && hasRibbon(cur):
			return join(badge, cur)
		default:
			return badge
		}
	default:
		ribbonIdx := 1
		if hasRibbon(groups[0]) && !hasRibbon(groups[1]) {
			ribbonIdx = 0
		}
		if hasRibbon(badge) {
			groups[ribbonIdx] = badge
		} else {
			groups[1-ribbonIdx] = badge
		}
		return join(groups[0], groups[1])
	}
}

func hasRibbon(token string) bool {
	return strings.Contains(token, ribbonMarker)
}

func join(first, second string) string {
	if first == second {
		return first
	}
	return first + " " + second
}

// trailingDigits returns the run of digits that ends token.
func trailingDigits(token string) string {
	i := len(token)
	for i > 0 && token[i-1] >= '0' && token[i-1] <= '9' {
		i--
	}
	return token[i:]
}

func hasSuffixDigit(token string, d byte) bool {
	return strings.IndexByte(trailingDigits(token), d) >= 0
}

// withSuffix appends d unless the token's tier suffix already carries it.
func withSuffix(token string, d byte) string {
	if hasSuffixDigit(token, d) {
		return token
	}
	return token + string(d)
}
