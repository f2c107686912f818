package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"outreach-engine-go/internal/model"
)

// parseContactsCSV reads an uploaded contact list. The first row may be
// a header naming the columns (address/email, name, company); without
// one the columns are taken positionally in that order.
func parseContactsCSV(r io.Reader) ([]model.Contact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	addrCol, nameCol, companyCol := 0, 1, 2
	start := 0
	if isHeaderRow(records[0]) {
		addrCol, nameCol, companyCol = -1, -1, -1
		for i, col := range records[0] {
			switch strings.ToLower(strings.TrimSpace(col)) {
			case "address", "email":
				addrCol = i
			case "name":
				nameCol = i
			case "company":
				companyCol = i
			}
		}
		if addrCol < 0 {
			return nil, fmt.Errorf("CSV header has no address or email column")
		}
		start = 1
	}

	contacts := make([]model.Contact, 0, len(records)-start)
	for _, row := range records[start:] {
		contact := model.Contact{Address: field(row, addrCol)}
		contact.Name = field(row, nameCol)
		contact.Company = field(row, companyCol)
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

func isHeaderRow(row []string) bool {
	for _, col := range row {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "address", "email":
			return true
		}
	}
	return false
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
