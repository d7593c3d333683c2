// Package ordernum generates the public identifiers handed to buyers
// and to the payment gateway as receipts.
package ordernum

import (
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v3"
)

const (
	// PrefixBooking is used for event booking order ids
	PrefixBooking = "BKG"
	// PrefixOrder is used for product order ids
	PrefixOrder = "ORD"
)

// NewOrderID returns a prefixed, URL-safe unique order id, e.g.
// "BKG-4W6kT9pQzXvR2sYfN8mHbL".
func NewOrderID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, shortuuid.New())
}

// NewOrderNumber returns a short human-readable order number for
// receipts and support lookups, e.g. "BKG-20260828-K7MQ2F".
func NewOrderNumber(prefix string, now time.Time) string {
	suffix := strings.ToUpper(shortuuid.New()[:6])
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), suffix)
}

// HasPrefix reports whether the id carries the given prefix
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"-")
}
