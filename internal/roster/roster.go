// Package roster loads the customer list from the Excel workbook handed to the
// bot at startup and answers phone-number lookups against it.
package roster

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"agenda-whatsapp/internal/models"
)

// Column headers expected on the first sheet.
const (
	colPhone   = "Telefono"
	colAccount = "Cuenta"
	colName    = "Nombre"
)

type Roster struct {
	customers []models.Customer
	byPhone   map[string]*models.Customer
}

// Load reads the first sheet of the workbook at path. The first row must be a
// header naming the Telefono, Cuenta and Nombre columns; every following row
// becomes one customer. Phone values are kept as digit strings regardless of
// how the cell is typed in Excel.
func Load(path string) (*Roster, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("roster sheet %q is empty", sheet)
	}

	idx := map[string]int{}
	for i, h := range rows[0] {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range []string{colPhone, colAccount, colName} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("roster sheet %q is missing column %q", sheet, col)
		}
	}

	r := &Roster{byPhone: make(map[string]*models.Customer)}
	for _, row := range rows[1:] {
		phone := normalizePhone(cell(row, idx[colPhone]))
		if phone == "" {
			continue
		}
		r.customers = append(r.customers, models.Customer{
			Phone:     phone,
			AccountID: cell(row, idx[colAccount]),
			Name:      cell(row, idx[colName]),
		})
	}
	for i := range r.customers {
		c := &r.customers[i]
		r.byPhone[c.Phone] = c
	}
	return r, nil
}

// FindByPhone matches the normalized phone exactly.
func (r *Roster) FindByPhone(phone string) (*models.Customer, bool) {
	c, ok := r.byPhone[normalizePhone(phone)]
	return c, ok
}

func (r *Roster) Len() int {
	return len(r.customers)
}

// normalizePhone strips the formatting characters that sneak into Excel cells
// so the stored key matches the digits WhatsApp reports as the sender.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	for _, ch := range []string{"+", " ", "-", "(", ")"} {
		phone = strings.ReplaceAll(phone, ch, "")
	}
	// Excel sometimes renders numeric cells as floats ("5213312345678.0").
	if i := strings.IndexByte(phone, '.'); i >= 0 {
		phone = phone[:i]
	}
	return phone
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
