// Package ledger appends finalized appointments to the Google Sheets ledger.
package ledger

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"agenda-whatsapp/internal/models"
)

type Config struct {
	CredentialsPath string
	SpreadsheetID   string
	// Tab is the sheet name receiving the rows, e.g. "Hoja 2".
	Tab string
	// Loc is the zone used to format the row timestamp.
	Loc *time.Location
}

type SheetsClient struct {
	svc *sheets.Service
	cfg Config
}

// NewSheetsClient authenticates with the service-account credentials file and
// prepares the append target.
func NewSheetsClient(ctx context.Context, cfg Config) (*SheetsClient, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &SheetsClient{svc: svc, cfg: cfg}, nil
}

// Append writes one appointment row: timestamp, user id, account id, date
// label, slot label. USER_ENTERED so the sheet interprets the values the same
// way a person typing them would.
func (c *SheetsClient) Append(ctx context.Context, appt models.Appointment) error {
	row := []interface{}{
		appt.CreatedAt.In(c.cfg.Loc).Format("2/1/2006, 15:04:05"),
		appt.UserID,
		appt.AccountID,
		appt.DateLabel,
		appt.SlotLabel,
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}

	_, err := c.svc.Spreadsheets.Values.
		Append(c.cfg.SpreadsheetID, fmt.Sprintf("%s!A:E", c.cfg.Tab), vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append appointment row: %w", err)
	}
	return nil
}
