package detection

import "github.com/orderwatch/dupguard/internal/domain"

// Classify labels a duplicate relationship ALTA when it spans both
// fulfillment states, MEDIA otherwise.
func Classify(statuses ...domain.Status) domain.Priority {
	var ret, prc bool
	for _, s := range statuses {
		switch s {
		case domain.StatusRET:
			ret = true
		case domain.StatusPRC:
			prc = true
		}
	}
	if ret && prc {
		return domain.PriorityAlta
	}
	return domain.PriorityMedia
}
