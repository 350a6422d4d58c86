package pdf

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Direction - кто кому передаёт технику по акту.
type Direction string

const (
	// DirectionIssue - склад ИТ передаёт технику сотруднику.
	DirectionIssue Direction = "issue"
	// DirectionReturn - сотрудник возвращает технику на склад ИТ.
	DirectionReturn Direction = "return"
)

type Item struct {
	Name            string
	InventoryNumber string
	SerialNumber    string
}

type Party struct {
	FullName  string
	ShortName string
	Position  string
}

// Certificate - данные акта приема-передачи.
type Certificate struct {
	Date         time.Time
	Direction    Direction
	Organization string
	Department   string
	Division     string
	Passport     string
	Issuer       Party
	Employee     Party
	Items        []Item
}

type Renderer interface {
	Render(w io.Writer, c Certificate) error
}

const (
	timesFamily     = "times"
	regularFontFile = "timesnewromanpsmt.ttf"
	boldFontFile    = "TimesNewRomanPS-BoldMT.ttf"

	dejavuFamily = "dejavu"
)

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	dejavuRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	dejavuBold []byte
)

type FpdfRenderer struct {
	family   string
	regular  []byte
	bold     []byte
	compress bool
}

// NewRenderer читает Times New Roman из fontDir. Пустой fontDir означает
// встроенный DejaVu Sans: акт всегда печатается UTF-8 шрифтом с кириллицей.
func NewRenderer(fontDir string) (*FpdfRenderer, error) {
	r := &FpdfRenderer{family: dejavuFamily, regular: dejavuRegular, bold: dejavuBold, compress: true}
	if fontDir == "" {
		return r, nil
	}

	regular, err := os.ReadFile(filepath.Join(fontDir, regularFontFile))
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать шрифт: %w", err)
	}
	bold, err := os.ReadFile(filepath.Join(fontDir, boldFontFile))
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать шрифт: %w", err)
	}
	r.family, r.regular, r.bold = timesFamily, regular, bold
	return r, nil
}

var monthsGenitive = [...]string{
	"Января", "Февраля", "Марта", "Апреля", "Мая", "Июня",
	"Июля", "Августа", "Сентября", "Октября", "Ноября", "Декабря",
}

// FormatDate печатает дату в виде «05» Мая 2024 г.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("«%02d» %s %d г.", t.Day(), monthsGenitive[t.Month()-1], t.Year())
}

func (r *FpdfRenderer) Render(w io.Writer, c Certificate) error {
	if len(c.Items) == 0 {
		return fmt.Errorf("акт без техники")
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(15, 15, 15)
	doc.SetAutoPageBreak(true, 15)

	doc.SetCompression(r.compress)
	doc.AddUTF8FontFromBytes(r.family, "", r.regular)
	doc.AddUTF8FontFromBytes(r.family, "B", r.bold)
	doc.AddPage()

	pageW, _ := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	width := pageW - left - right

	doc.SetFont(r.family, "B", 12)
	doc.CellFormat(width, 6, FormatDate(c.Date), "", 1, "R", false, 0, "")
	doc.Ln(20)
	doc.CellFormat(width, 6, "АКТ ПРИЕМА-ПЕРЕДАЧИ", "", 1, "C", false, 0, "")
	doc.Ln(5)

	doc.SetFont(r.family, "", 12)
	doc.MultiCell(width, 6, body(c), "", "J", false)
	doc.Ln(8)

	widths := []float64{0.1 * width, 0.45 * width, 0.2 * width, 0.25 * width}
	doc.SetFont(r.family, "B", 11)
	for i, h := range []string{"№", "Наименование техники", "Инвент. номер", "Серийный номер"} {
		doc.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	doc.Ln(-1)
	doc.SetFont(r.family, "", 11)
	for n, item := range c.Items {
		cells := []string{fmt.Sprint(n + 1), item.Name, item.InventoryNumber, item.SerialNumber}
		for i, cell := range cells {
			doc.CellFormat(widths[i], 8, cell, "1", 0, "C", false, 0, "")
		}
		doc.Ln(-1)
	}
	doc.Ln(25)

	from, to := c.Issuer, c.Employee
	if c.Direction == DirectionReturn {
		from, to = c.Employee, c.Issuer
	}
	signature(doc, r.family, width, "Передал:", from)
	doc.Ln(20)
	signature(doc, r.family, width, "Принял(а):", to)

	return doc.Output(w)
}

func body(c Certificate) string {
	employee := c.Employee.FullName
	if c.Passport != "" {
		employee += " (паспорт: " + c.Passport + ")"
	}
	subject := c.Department
	if c.Division != "" {
		subject = strings.TrimSpace(c.Division + ", " + c.Department)
	}

	var sb strings.Builder
	switch c.Direction {
	case DirectionReturn:
		fmt.Fprintf(&sb, "Настоящий акт составлен о том, что сотрудник подразделения %s %s возвращает в распоряжение %s нижеуказанную технику.",
			subject, employee, c.Organization)
		fmt.Fprintf(&sb, "\nПрием техники на склад провел %s %s.", strings.ToLower(c.Issuer.Position), c.Issuer.FullName)
	default:
		fmt.Fprintf(&sb, "Настоящий акт составлен о том, что %s передает в распоряжение подразделения %s нижеуказанную технику. %s получает указанное ниже оборудование.",
			c.Organization, subject, employee)
		fmt.Fprintf(&sb, "\nПрием-передачу техники осуществил %s %s.", strings.ToLower(c.Issuer.Position), c.Issuer.FullName)
	}
	return sb.String()
}

func signature(doc *fpdf.Fpdf, family string, width float64, label string, p Party) {
	doc.SetFont(family, "B", 12)
	doc.CellFormat(width, 6, label, "", 1, "L", false, 0, "")
	doc.CellFormat(width*0.6, 6, p.Position, "", 0, "L", false, 0, "")
	doc.CellFormat(width*0.4, 6, "_________ "+p.ShortName, "", 1, "R", false, 0, "")
}
