// Package receipt formats a single order into a print-ready document: an
// isolated HTML page for the console's print dialog and a fixed-width text
// form for thermal printers.
package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	apttemplate "github.com/appetiteclub/apt/template"
	"github.com/shopspring/decimal"

	"github.com/expeditehq/expedite/internal/expo"
)

// textWidth is the character width of the thermal printer form.
const textWidth = 32

// Line is one printed item row.
type Line struct {
	Name         string
	Quantity     int
	Options      []string
	Subtotal     decimal.Decimal
	SubtotalText string
}

// Receipt is the print-ready view of an order.
type Receipt struct {
	Identity   string // fixed restaurant identity header line
	Reference  string // order reference trimmed from the id
	CreatedAt  time.Time
	TableLabel string
	Note       string
	Lines      []Line
	Total      decimal.Decimal
	TotalText  string
}

// Build derives a receipt from an order. The reference is the first id block,
// uppercased, which is what staff read out loud.
func Build(order *expo.Order, identity string) Receipt {
	r := Receipt{
		Identity:  identity,
		Reference: reference(order.ID.String()),
		CreatedAt: order.CreatedAt,
		Note:      order.Note,
		Total:     order.TotalAmount,
		TotalText: order.TotalAmount.StringFixed(2),
	}

	if order.IsTakeaway() {
		r.TableLabel = "Takeaway"
	} else {
		r.TableLabel = "Table " + *order.TableID
	}

	for _, item := range order.Items {
		subtotal := item.Subtotal()
		r.Lines = append(r.Lines, Line{
			Name:         item.Name,
			Quantity:     item.Quantity,
			Options:      item.Options,
			Subtotal:     subtotal,
			SubtotalText: subtotal.StringFixed(2),
		})
	}

	return r
}

func reference(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		id = id[:i]
	}
	return strings.ToUpper(id)
}

// RenderText renders the thermal-printer form.
func RenderText(r Receipt) string {
	var b strings.Builder

	center(&b, r.Identity)
	fmt.Fprintf(&b, "Order #%s\n", r.Reference)
	fmt.Fprintf(&b, "%s\n", r.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "%s\n", r.TableLabel)
	rule(&b)

	for _, line := range r.Lines {
		label := fmt.Sprintf("%d x %s", line.Quantity, line.Name)
		row(&b, label, line.SubtotalText)
		for _, opt := range line.Options {
			fmt.Fprintf(&b, "    + %s\n", opt)
		}
	}

	rule(&b)
	row(&b, "TOTAL", r.TotalText)

	if r.Note != "" {
		rule(&b)
		fmt.Fprintf(&b, "Note: %s\n", r.Note)
	}

	return b.String()
}

func center(b *strings.Builder, s string) {
	pad := (textWidth - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(b, "%s%s\n", strings.Repeat(" ", pad), s)
}

func rule(b *strings.Builder) {
	b.WriteString(strings.Repeat("-", textWidth))
	b.WriteByte('\n')
}

// row prints a label left and an amount right, truncating long labels so the
// amount column stays aligned.
func row(b *strings.Builder, label, amount string) {
	space := textWidth - len(amount) - 1
	if space < 0 {
		space = 0
	}
	if len(label) > space {
		label = label[:space]
	}
	fmt.Fprintf(b, "%-*s %s\n", space, label, amount)
}

// Renderer produces the isolated HTML print document.
type Renderer struct {
	tmplMgr *apttemplate.Manager
}

func NewRenderer(tmplMgr *apttemplate.Manager) *Renderer {
	return &Renderer{tmplMgr: tmplMgr}
}

// RenderHTML renders the receipt as a self-contained page that triggers the
// print dialog on load, so no console chrome ends up on paper.
func (rd *Renderer) RenderHTML(r Receipt) (string, error) {
	if rd == nil || rd.tmplMgr == nil {
		return "", fmt.Errorf("receipt template manager not configured")
	}

	tmpl, err := rd.tmplMgr.Get("receipt_print.html")
	if err != nil {
		return "", fmt.Errorf("cannot load receipt template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "receipt_print", r); err != nil {
		return "", fmt.Errorf("cannot render receipt: %w", err)
	}

	return buf.String(), nil
}
