package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderwatch/dupguard/internal/domain"
)

const (
	ExactFileName   = "duplicados_exactos.csv"
	SimilarFileName = "duplicados_similares.csv"
)

var (
	ExactHeader = []string{
		"Client", "Razon social", "Sts", "Pedido", "Entrega", "Importe",
		"prioridad", "n_productos", "firma_productos",
	}
	SimilarHeader = []string{
		"Client", "Razon social", "Sts_1", "Sts_2", "Pedido_1", "Pedido_2",
		"Entrega_1", "Entrega_2", "Importe_1", "Importe_2",
		"sim_importe", "sim_productos", "prioridad",
	}
	ClientsHeader  = []string{"Client", "razon_social", "casos", "prioridad_max"}
	DispatchHeader = []string{"Client", "Razon social", "Pedido", "Sts", "Entrega", "Importe", "n_productos"}
)

// WriteExact writes the exact-duplicates table. The header is written even
// when there are no rows.
func WriteExact(w io.Writer, rows []domain.ExactDuplicateRow) error {
	return write(w, ExactHeader, len(rows), func(i int) []string {
		e := rows[i]
		return []string{
			e.CustomerID, e.DisplayName, string(e.Status), e.OrderID,
			FormatDate(e.Delivery), FormatAmount(e.Amount), string(e.Priority),
			strconv.Itoa(e.ProductCount), FormatSignature(e.Signature),
		}
	})
}

// WriteSimilar writes the similar-pairs table. The header is written even
// when there are no rows.
func WriteSimilar(w io.Writer, rows []domain.SimilarPairRow) error {
	return write(w, SimilarHeader, len(rows), func(i int) []string {
		p := rows[i]
		return []string{
			p.CustomerID, p.DisplayName, string(p.Status1), string(p.Status2),
			p.OrderID1, p.OrderID2, FormatDate(p.Delivery1), FormatDate(p.Delivery2),
			FormatAmount(p.Amount1), FormatAmount(p.Amount2),
			formatFloat(p.AmountSimilarity), formatFloat(p.ProductSimilarity),
			string(p.Priority),
		}
	})
}

func WriteClients(w io.Writer, rows []domain.ClientSummary) error {
	return write(w, ClientsHeader, len(rows), func(i int) []string {
		c := rows[i]
		return []string{c.CustomerID, c.DisplayName, strconv.Itoa(c.Cases), string(c.MaxPriority)}
	})
}

func WriteDispatch(w io.Writer, list domain.DispatchList) error {
	return write(w, DispatchHeader, len(list.Orders), func(i int) []string {
		o := list.Orders[i]
		return []string{
			o.CustomerID, o.DisplayName, o.OrderID, string(o.Status),
			FormatDate(o.Delivery), FormatAmount(o.Amount), strconv.Itoa(len(o.Products)),
		}
	})
}

func write(w io.Writer, header []string, n int, row func(int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatDate renders an ISO-8601 date; a missing date renders empty.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// FormatAmount renders an amount without trailing zeros; a missing amount
// renders empty.
func FormatAmount(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatSignature renders a product signature as [(P1, 5), (P2, 1.5)].
func FormatSignature(sig []domain.ProductQty) string {
	parts := make([]string, len(sig))
	for i, p := range sig {
		parts[i] = "(" + p.Code + ", " + p.Quantity.String() + ")"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
