package receipt

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Ticket printer geometry, in millimetres.
const (
	pageWidth  = 80.0
	margin     = 4.0
	lineHeight = 3.5
	fontSize   = 8.0
)

// Document bundles every rendering of a ticket. PDF is never empty; when the
// ticket could not be produced it holds a diagnostic page and Warning says why.
type Document struct {
	HTML    string
	Text    string
	PDF     []byte
	Warning string
}

// Degraded reports whether the document is a diagnostic stand-in.
func (d Document) Degraded() bool { return d.Warning != "" }

// Generate renders every format of the ticket. It never fails: an incomplete
// record or a rendering error yields a diagnostic PDF and a Warning, and the
// sale itself is unaffected.
func Generate(r Record) Document {
	if err := r.Validate(); err != nil {
		return diagnostic(r, err)
	}
	doc := Document{Text: RenderText(r)}
	html, err := RenderHTML(r)
	if err != nil {
		doc.Warning = err.Error()
	}
	doc.HTML = html

	pdf, err := renderPDF(TextLines(r))
	if err != nil {
		d := diagnostic(r, err)
		d.HTML, d.Text = doc.HTML, doc.Text
		return d
	}
	doc.PDF = pdf
	return doc
}

func diagnostic(r Record, cause error) Document {
	lines := []string{
		center("RECIBO NO DISPONIBLE"),
		"",
		clip(fmt.Sprintf("Pedido: #%06d", r.OrderID), Width),
		"La venta fue registrada correctamente.",
		"No se pudo generar el comprobante:",
	}
	msg := []rune(cause.Error())
	for len(msg) > 0 {
		n := min(len(msg), Width)
		lines = append(lines, string(msg[:n]))
		msg = msg[n:]
	}
	text := joinLines(lines)
	pdf, err := renderPDF(lines)
	if err != nil {
		// Last resort so callers always have bytes to hand out.
		pdf = []byte(text)
	}
	return Document{Text: text, PDF: pdf, Warning: cause.Error()}
}

// renderPDF prints monospaced lines on an 80 mm roll page sized to fit.
func renderPDF(lines []string) ([]byte, error) {
	height := 2*margin + float64(len(lines)+1)*lineHeight
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: pageWidth, Ht: height},
	})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetCompression(false)
	pdf.SetTitle("Recibo", true)
	pdf.AddPage()
	pdf.SetFont("Courier", "", fontSize)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, l := range lines {
		pdf.CellFormat(pageWidth-2*margin, lineHeight, tr(l), "", 1, "L", false, 0, "")
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func joinLines(lines []string) string {
	var b bytes.Buffer
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// Filename is the download name of the ticket of order id.
func Filename(orderID uint) string {
	return fmt.Sprintf("recibo_%06d.pdf", orderID)
}
