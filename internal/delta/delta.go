// Package delta computes which filtered registrations are new.
package delta

import "github.com/sreeprasad/luma-notifier/internal/model"

// SeenSet is the membership view of the notified-set the delta consults.
type SeenSet interface {
	Contains(uid string) bool
}

// New returns the registrations whose UID is absent from seen, preserving
// input order. Pure set difference; no I/O.
func New(regs []model.Registration, seen SeenSet) []model.Registration {
	out := make([]model.Registration, 0, len(regs))
	for _, reg := range regs {
		if seen.Contains(reg.UID) {
			continue
		}
		out = append(out, reg)
	}
	return out
}
