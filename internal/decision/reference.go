package decision

import (
	"strings"
	"time"
)

const (
	referencePrefix = "VRF-"
	referenceDigits = 14
)

// ReferenceID derives the human-facing case reference from the decision
// timestamp: "VRF-" followed by the first 14 digit characters of the
// timestamp. It is a display-only correlation token, not a security boundary;
// occasional collisions are acceptable.
func ReferenceID(t time.Time) string {
	var b strings.Builder
	b.WriteString(referencePrefix)
	for _, r := range t.UTC().Format(time.RFC3339Nano) {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == len(referencePrefix)+referenceDigits {
			break
		}
	}
	return b.String()
}
