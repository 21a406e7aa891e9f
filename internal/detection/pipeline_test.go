package detection

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderwatch/dupguard/internal/config"
	"github.com/orderwatch/dupguard/internal/domain"
	"github.com/orderwatch/dupguard/internal/export"
	"github.com/orderwatch/dupguard/internal/ingestion"
)

const reportPreamble = "REPORTE DE PEDIDOS\r\nGenerado: 01/05/24\r\n"

const reportHeader = "F.Pedido,Client,Pedido,Entrega,Importe Total,C.Prd,Cant,Razon social,Sts"

var reportRows = []string{
	"30/04/24,123,A1,01/05/24,100.00,P1,2,Almacen Uno,RET",
	"30/04/24,123,A1,01/05/24,100.00,P1,3,Almacen Uno,RET",
	"30/04/24,123,A2,01/05/24,100.00,P1,5,Almacen Uno,PRC",
	"30/04/24,123,A3,02/05/24,99.00,P1,5,Almacen Uno,PRC",
	"30/04/24,55,B1,01/05/24,50.00,P9,1,Kiosco,RET",
	"30/04/24,55,B2,04/05/24,50.00,P9,1,Kiosco,PRC",
	"30/04/24,77,C1,01/05/24,10.00,P1,1,Otro,ANU",
	"30/04/24,,C2,01/05/24,10.00,P1,1,Otro,RET",
}

func report(rows []string) []byte {
	return []byte(reportPreamble + reportHeader + "\r\n" + strings.Join(rows, "\r\n") + "\r\n")
}

func newTestDetector(t *testing.T, mutate func(*config.Settings)) *Detector {
	t.Helper()
	s := config.DefaultSettings()
	if mutate != nil {
		mutate(&s)
	}
	det, err := NewDetector(s, nil)
	require.NoError(t, err)
	return det
}

func TestDetector_Run(t *testing.T) {
	res, err := newTestDetector(t, nil).Run(report(reportRows))
	require.NoError(t, err)

	assert.Equal(t, domain.RunStats{
		RowsRead: 8,
		Skipped: map[domain.SkipReason]int{
			domain.SkipInvalidStatus: 1,
			domain.SkipMissingKey:    1,
		},
		Orders:       5,
		ExactGroups:  1,
		ExactRows:    2,
		SimilarPairs: 3,
	}, res.Stats)

	require.Len(t, res.Exact, 2)
	assert.Equal(t, "A1", res.Exact[0].OrderID)
	assert.Equal(t, "A2", res.Exact[1].OrderID)
	assert.Equal(t, domain.PriorityAlta, res.Exact[0].Priority)

	require.Len(t, res.Similar, 3)
	assert.Equal(t, []string{"A1", "A2"}, []string{res.Similar[0].OrderID1, res.Similar[0].OrderID2})
	assert.Equal(t, []string{"A1", "A3"}, []string{res.Similar[1].OrderID1, res.Similar[1].OrderID2})
	assert.Equal(t, []string{"A2", "A3"}, []string{res.Similar[2].OrderID1, res.Similar[2].OrderID2})
	assert.Equal(t, 0.99, res.Similar[1].AmountSimilarity)
	assert.Equal(t, domain.PriorityMedia, res.Similar[2].Priority)

	var exact, similar bytes.Buffer
	require.NoError(t, export.WriteExact(&exact, res.Exact))
	require.NoError(t, export.WriteSimilar(&similar, res.Similar))
	assert.Equal(t,
		"Client,Razon social,Sts,Pedido,Entrega,Importe,prioridad,n_productos,firma_productos\n"+
			"123,Almacen Uno,RET,A1,2024-05-01,100,ALTA,1,\"[(P1, 5)]\"\n"+
			"123,Almacen Uno,PRC,A2,2024-05-01,100,ALTA,1,\"[(P1, 5)]\"\n",
		exact.String())
	assert.Equal(t,
		"Client,Razon social,Sts_1,Sts_2,Pedido_1,Pedido_2,Entrega_1,Entrega_2,Importe_1,Importe_2,sim_importe,sim_productos,prioridad\n"+
			"123,Almacen Uno,RET,PRC,A1,A2,2024-05-01,2024-05-01,100,100,1,1,ALTA\n"+
			"123,Almacen Uno,RET,PRC,A1,A3,2024-05-01,2024-05-02,100,99,0.99,1,ALTA\n"+
			"123,Almacen Uno,PRC,PRC,A2,A3,2024-05-01,2024-05-02,100,99,0.99,1,MEDIA\n",
		similar.String())
}

func TestDetector_WiderWindowPairsAcrossDays(t *testing.T) {
	det := newTestDetector(t, func(s *config.Settings) { s.MaxDays = 3 })
	res, err := det.Run(report(reportRows))
	require.NoError(t, err)

	require.Len(t, res.Similar, 4)
	last := res.Similar[3]
	assert.Equal(t, "55", last.CustomerID)
	assert.Equal(t, domain.PriorityAlta, last.Priority)
}

func TestDetector_ExactStatusRestriction(t *testing.T) {
	det := newTestDetector(t, func(s *config.Settings) { s.ExactStatus = domain.StatusRET })
	res, err := det.Run(report(reportRows))
	require.NoError(t, err)

	assert.Empty(t, res.Exact)
	assert.Zero(t, res.Stats.ExactGroups)
	assert.Len(t, res.Similar, 3)
}

func TestDetector_HeaderNotFound(t *testing.T) {
	_, err := newTestDetector(t, nil).Run([]byte("REPORTE\nClient,Pedido\n1,A\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ingestion.ErrHeaderNotFound)
	assert.True(t, IsReportError(err))
	assert.Contains(t, err.Error(), "F.Pedido")
}

func TestDetector_HeaderOnly(t *testing.T) {
	res, err := newTestDetector(t, nil).Run([]byte(reportHeader + "\n"))
	require.NoError(t, err)
	assert.Empty(t, res.Exact)
	assert.Empty(t, res.Similar)
	assert.Zero(t, res.Stats.RowsRead)
}

func TestDetector_SemicolonReport(t *testing.T) {
	rows := make([]string, len(reportRows))
	for i, r := range reportRows {
		rows[i] = strings.ReplaceAll(r, ",", ";")
	}
	data := []byte(strings.ReplaceAll(reportHeader, ",", ";") + "\n" + strings.Join(rows, "\n") + "\n")

	res, err := newTestDetector(t, nil).Run(data)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.ExactRows)
	assert.Equal(t, 3, res.Stats.SimilarPairs)
}

func TestNewDetector_RejectsInvalidSettings(t *testing.T) {
	s := config.DefaultSettings()
	s.MinAmountSimilarity = 1.5
	_, err := NewDetector(s, nil)
	assert.Error(t, err)
}

func TestDetector_Deterministic(t *testing.T) {
	det := newTestDetector(t, nil)
	render := func() string {
		res, err := det.Run(report(reportRows))
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, export.WriteExact(&buf, res.Exact))
		require.NoError(t, export.WriteSimilar(&buf, res.Similar))
		return buf.String()
	}

	first := render()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, render())
	}
}

// exactLines and similarLines compare rows as rendered, since equal
// decimals need not share a representation.
func exactLines(t *testing.T, res *domain.Result) []string {
	var buf bytes.Buffer
	require.NoError(t, export.WriteExact(&buf, res.Exact))
	return strings.Split(strings.TrimSpace(buf.String()), "\n")[1:]
}

func similarLines(t *testing.T, res *domain.Result) []string {
	var buf bytes.Buffer
	require.NoError(t, export.WriteSimilar(&buf, res.Similar))
	return strings.Split(strings.TrimSpace(buf.String()), "\n")[1:]
}

func TestDetector_RowOrderDoesNotChangeFindings(t *testing.T) {
	det := newTestDetector(t, nil)
	base, err := det.Run(report(reportRows))
	require.NoError(t, err)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("shuffling rows keeps the same rows in both tables", prop.ForAll(
		func(seed int64) bool {
			rows := append([]string(nil), reportRows...)
			rand.New(rand.NewSource(seed)).Shuffle(len(rows), func(i, j int) {
				rows[i], rows[j] = rows[j], rows[i]
			})

			res, err := det.Run(report(rows))
			if err != nil {
				return false
			}
			return assert.ElementsMatch(t, exactLines(t, base), exactLines(t, res)) &&
				assert.ElementsMatch(t, similarLines(t, base), similarLines(t, res)) &&
				assert.Equal(t, base.Stats, res.Stats)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
