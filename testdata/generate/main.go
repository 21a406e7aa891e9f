package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

type line struct {
	orderDate string
	customer  string
	order     string
	delivery  string
	amount    string
	product   string
	qty       string
	name      string
	status    string
}

type order struct {
	customer string
	name     string
	id       string
	status   string
	delivery time.Time
	items    map[string]float64
}

var preamble = []string{
	"DISTRIBUIDORA - REPORTE DE PEDIDOS PENDIENTES",
	"Emitido por sistema comercial. Uso interno. Prohibida su distribucion.",
	"Filtros: Estados RET/PRC; Zona: todas",
	"",
}

var header = []string{"F.Pedido", "Client", "Pedido", "Entrega", "Importe Total", "C.Prd", "Cant", "Razon social", "Sts"}

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	products := []string{"CRV-1000", "CRV-0355", "AGU-0500", "GAS-1500", "JUG-1000", "CRV-0660"}
	prices := map[string]float64{
		"CRV-1000": 12.5, "CRV-0355": 6.2, "AGU-0500": 2.1,
		"GAS-1500": 8.75, "JUG-1000": 9.4, "CRV-0660": 10.3,
	}
	statuses := []string{"RET", "PRC"}

	var orders []order
	seq := 1
	for c := 1; c <= 40; c++ {
		customer := fmt.Sprintf("%06d", 100000+c)
		name := fmt.Sprintf("Almacen %03d S.A.", c)
		for k := 0; k < 1+rng.Intn(3); k++ {
			o := order{
				customer: customer,
				name:     name,
				id:       fmt.Sprintf("%08d", seq),
				status:   statuses[rng.Intn(2)],
				delivery: start.AddDate(0, 0, rng.Intn(10)),
				items:    map[string]float64{},
			}
			seq++
			for n := 0; n < 1+rng.Intn(4); n++ {
				o.items[products[rng.Intn(len(products))]] += float64(1 + rng.Intn(20))
			}
			orders = append(orders, o)
		}
	}

	// Exact duplicates across fulfillment states and same-state copies.
	for i := 0; i < 6; i++ {
		src := orders[rng.Intn(len(orders))]
		dup := src
		dup.id = fmt.Sprintf("%08d", seq)
		seq++
		if i%2 == 0 {
			dup.status = other(src.status)
		}
		orders = append(orders, dup)
	}

	// Near duplicates: one extra unit a day later.
	for i := 0; i < 6; i++ {
		src := orders[rng.Intn(len(orders))]
		near := src
		near.id = fmt.Sprintf("%08d", seq)
		seq++
		near.delivery = src.delivery.AddDate(0, 0, rng.Intn(2))
		near.items = map[string]float64{}
		for p, q := range src.items {
			near.items[p] = q
		}
		for _, p := range products {
			if _, ok := near.items[p]; ok {
				near.items[p]++
				break
			}
		}
		orders = append(orders, near)
	}

	var lines []line
	for _, o := range orders {
		total := 0.0
		for _, p := range products {
			total += prices[p] * o.items[p]
		}
		for _, p := range products {
			q, ok := o.items[p]
			if !ok {
				continue
			}
			lines = append(lines, line{
				orderDate: o.delivery.AddDate(0, 0, -1).Format("02/01/06"),
				customer:  o.customer,
				order:     o.id,
				delivery:  o.delivery.Format("02/01/06"),
				amount:    fmt.Sprintf("%.2f", total),
				product:   p,
				qty:       fmt.Sprintf("%g", q),
				name:      o.name,
				status:    o.status,
			})
		}
	}

	// Report noise: cancelled orders, rows without customer, subtotal lines.
	lines = append(lines,
		line{orderDate: "30/04/24", customer: "100001", order: "99999901", delivery: "02/05/24", amount: "50.00", product: "AGU-0500", qty: "10", name: "Almacen 001 S.A.", status: "ANU"},
		line{orderDate: "30/04/24", order: "99999902", delivery: "02/05/24", amount: "12.00", product: "AGU-0500", qty: "4", status: "RET"},
		line{customer: "TOTAL", amount: "n/a"},
	)

	write(filepath.Join(baseDir, "pedidos_sample.csv"), lines, ',')
	write(filepath.Join(baseDir, "pedidos_sample_semicolon.csv"), lines, ';')
	fmt.Printf("Generated %d orders (%d lines) -> pedidos_sample.csv, pedidos_sample_semicolon.csv\n",
		len(orders), len(lines))
}

func other(status string) string {
	if status == "RET" {
		return "PRC"
	}
	return "RET"
}

func write(path string, lines []line, delim rune) {
	var buf bytes.Buffer
	for _, p := range preamble {
		buf.WriteString(p + "\r\n")
	}

	w := csv.NewWriter(&buf)
	w.Comma = delim
	w.UseCRLF = true
	w.Write(header)
	for _, l := range lines {
		w.Write([]string{l.orderDate, l.customer, l.order, l.delivery, l.amount, l.product, l.qty, l.name, l.status})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
		os.Exit(1)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
		os.Exit(1)
	}
}

func findTestdataDir() string {
	// Look for the testdata directory relative to common locations.
	candidates := []string{
		"testdata",
		"./testdata",
		filepath.Join("..", "testdata"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	// Fallback.
	return "testdata"
}
