package detection

import (
	"sort"
	"strings"
	"unicode"

	"github.com/orderwatch/dupguard/internal/domain"
)

// NormalizeClient keeps only the digits of a customer id. Ids without any
// digit are returned trimmed but otherwise unchanged.
func NormalizeClient(id string) string {
	id = strings.TrimSpace(id)
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, id)
	if digits == "" {
		return id
	}
	return digits
}

// SummarizeClients builds the one-row-per-customer list an operator uses to
// block deliveries: every similar pair counts as a case, and exact rows too
// when includeExact is set.
func SummarizeClients(res *domain.Result, includeExact bool) []domain.ClientSummary {
	byClient := make(map[string]*domain.ClientSummary)
	var order []string

	add := func(customer, name string, prio domain.Priority) {
		id := NormalizeClient(customer)
		cs, ok := byClient[id]
		if !ok {
			cs = &domain.ClientSummary{CustomerID: id, MaxPriority: domain.PriorityMedia}
			byClient[id] = cs
			order = append(order, id)
		}
		cs.Cases++
		firstNonEmpty(&cs.DisplayName, strings.TrimSpace(name))
		if prio.Rank() > cs.MaxPriority.Rank() {
			cs.MaxPriority = prio
		}
	}

	for _, p := range res.Similar {
		add(p.CustomerID, p.DisplayName, p.Priority)
	}
	if includeExact {
		for _, e := range res.Exact {
			add(e.CustomerID, e.DisplayName, e.Priority)
		}
	}

	out := make([]domain.ClientSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byClient[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MaxPriority.Rank() != b.MaxPriority.Rank() {
			return a.MaxPriority.Rank() > b.MaxPriority.Rank()
		}
		if a.Cases != b.Cases {
			return a.Cases > b.Cases
		}
		return a.CustomerID < b.CustomerID
	})
	return out
}

type MessageFormat string

const (
	MessageLines     MessageFormat = "lines"
	MessageComma     MessageFormat = "comma"
	MessageSemicolon MessageFormat = "semicolon"
)

// PreventiveMessage renders the customer ids of a summary for the
// preventive-call team.
func PreventiveMessage(summary []domain.ClientSummary, format MessageFormat, onlyAlta bool) string {
	ids := make([]string, 0, len(summary))
	for _, cs := range summary {
		if onlyAlta && cs.MaxPriority != domain.PriorityAlta {
			continue
		}
		ids = append(ids, cs.CustomerID)
	}

	switch format {
	case MessageComma:
		return strings.Join(ids, ", ")
	case MessageSemicolon:
		return strings.Join(ids, "; ")
	default:
		return strings.Join(ids, "\n")
	}
}
