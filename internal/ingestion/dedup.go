package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Nikhil-Doal/tracker/internal/models"
)

// Fingerprint identifies an event by what the browser observed: type,
// millisecond timestamp, tab, window and URL. Two events with the same
// fingerprint are the same observation uploaded twice.
func Fingerprint(e models.Event) string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	fmt.Fprintf(&b, "|%d", e.Timestamp.UnixMilli())
	writeOptInt(&b, e.TabID)
	writeOptInt(&b, e.WindowID)
	b.WriteByte('|')
	if e.URL != nil {
		b.WriteString(*e.URL)
	}

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

func writeOptInt(b *strings.Builder, v *int64) {
	if v == nil {
		b.WriteString("|-")
		return
	}
	fmt.Fprintf(b, "|%d", *v)
}

// Dedupe drops repeated observations from a batch, keeping the first
// occurrence, and returns how many were dropped. Input order is preserved.
func Dedupe(events []models.Event) ([]models.Event, int) {
	seen := make(map[string]struct{}, len(events))
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		fp := Fingerprint(e)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, e)
	}
	return out, len(events) - len(out)
}
