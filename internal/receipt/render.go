package receipt

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"unicode/utf8"
)

// Width is the number of monospaced columns of the printed ticket.
const Width = 40

// nameWidth is the product column of the item table; longer names are cut.
const nameWidth = 16

//go:embed receipt.html
var htmlSource string

var htmlTemplate = template.Must(template.New("receipt").Parse(htmlSource))

// RenderHTML renders the ticket as a standalone HTML fragment.
func RenderHTML(r Record) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render receipt html: %w", err)
	}
	return buf.String(), nil
}

// TextLines renders the ticket as fixed-width lines: header, ticket data,
// optional customer block, item table, total and footer.
func TextLines(r Record) []string {
	sep := strings.Repeat("-", Width)
	var out []string

	out = append(out, center(strings.ToUpper(r.StoreName)))
	if r.StoreAddress != "" {
		out = append(out, center(r.StoreAddress))
	}
	if r.StorePhone != "" {
		out = append(out, center("Tel: "+r.StorePhone))
	}
	out = append(out, sep,
		fmt.Sprintf("Ticket: #%06d", r.OrderID),
		"Fecha:  "+r.Timestamp,
		"Cajero: "+r.Cashier,
	)

	if c := r.Customer; c != nil {
		out = append(out, sep, clip("Cliente: "+c.Name, Width))
		if c.Document != "" {
			out = append(out, clip("Doc.:    "+c.Document, Width))
		}
		if c.Phone != "" {
			out = append(out, clip("Tel.:    "+c.Phone, Width))
		}
	}

	out = append(out, sep, itemRow("Producto", "Cant", "P.Unit", "Subt."), sep)
	for _, l := range r.Lines {
		out = append(out, itemRow(l.Name, l.Qty, amount(l.UnitPrice), amount(l.Subtotal)))
	}
	out = append(out, sep,
		fmt.Sprintf("%-*s%*s", Width/2, "TOTAL:", Width/2, r.Total),
		sep,
	)
	if r.Footer != "" {
		out = append(out, center(r.Footer))
	}
	return out
}

// RenderText joins TextLines with newlines.
func RenderText(r Record) string {
	return strings.Join(TextLines(r), "\n") + "\n"
}

func itemRow(name, qty, unit, subtotal string) string {
	return fmt.Sprintf("%-*s %5s %8s %8s", nameWidth, clip(name, nameWidth), qty, unit, subtotal)
}

// amount drops the currency prefix inside the narrow item columns.
func amount(s string) string {
	return strings.TrimPrefix(s, CurrencyPrefix)
}

// clip truncates s to at most n runes.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func center(s string) string {
	s = clip(s, Width)
	pad := (Width - utf8.RuneCountInString(s)) / 2
	return strings.Repeat(" ", pad) + s
}
