// backend/src/parsers/revolut/parser.go
package revolut

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/parsers"
)

// stateCompleted is the only state an importable row may carry.
const stateCompleted = "COMPLETED"

// headerRenames maps known source column names to internal field names.
// Columns not listed here pass through unchanged into CanonicalTransaction.Extra.
var headerRenames = map[string]string{
	"Type":           "type",
	"Product":        "product",
	"Started Date":   "started_date",
	"Completed Date": "completed_date",
	"Description":    "description",
	"Amount":         "amount",
	"Fee":            "fee",
	"Currency":       "currency",
	"State":          "state",
	"Balance":        "balance",
}

// RevolutParser implements the parsers.Parser interface for Revolut
// account-statement CSV exports.
type RevolutParser struct {
	ids parsers.IDGenerator
}

// NewParser creates a RevolutParser that assigns row identifiers with the
// given generator.
func NewParser(ids parsers.IDGenerator) *RevolutParser {
	return &RevolutParser{ids: ids}
}

// normalizeDecimalString prepares a raw numeric cell for parsing: trims
// whitespace and quotes and strips thousands separators ("1,234.56" -> 1234.56).
func normalizeDecimalString(s string) string {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.Trim(cleaned, "\"")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return cleaned
}

// parseDecimal coerces a raw cell into a nullable decimal. A value that fails
// to parse becomes null for that field; it is not a row rejection by itself.
func parseDecimal(s string) decimal.NullDecimal {
	cleaned := normalizeDecimalString(s)
	if cleaned == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Parse reads a Revolut CSV export and converts its rows into canonical
// transactions. The file is read once, row by row; each row is processed
// independently and dropped silently when it fails the acceptance rule
// (state COMPLETED and both dates parseable). The returned int counts
// dropped rows.
func (p *RevolutParser) Parse(file io.Reader) ([]models.CanonicalTransaction, int, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields per record

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("revolut parser: failed to read CSV header: %w", err)
	}

	// Resolve each column once: internal name for known headers, the source
	// name itself for unknown ones.
	columns := make([]string, len(header))
	known := make([]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if internal, ok := headerRenames[name]; ok {
			columns[i] = internal
			known[i] = true
		} else {
			columns[i] = name
		}
	}

	var accepted []models.CanonicalTransaction
	rejected := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed line drops that row only, never the whole file.
			logger.L.Debug("Revolut Parser: skipping malformed CSV line", "error", err)
			rejected++
			continue
		}

		fields := make(map[string]string, len(record))
		var extra map[string]string
		for i, value := range record {
			if i >= len(columns) {
				break
			}
			fields[columns[i]] = value
			if !known[i] {
				if extra == nil {
					extra = make(map[string]string)
				}
				extra[columns[i]] = value
			}
		}

		state := strings.TrimSpace(fields["state"])
		completedAt, completedOK := parsers.ParseTimestamp(fields["completed_date"])
		startedAt, startedOK := parsers.ParseTimestamp(fields["started_date"])

		// Row acceptance rule: only settled rows with both dates survive.
		if state != stateCompleted || !completedOK || !startedOK {
			rejected++
			continue
		}

		accepted = append(accepted, models.CanonicalTransaction{
			ID:          p.ids.NewID(),
			Type:        strings.TrimSpace(fields["type"]),
			Product:     strings.TrimSpace(fields["product"]),
			StartedAt:   startedAt,
			CompletedAt: completedAt,
			Description: strings.TrimSpace(fields["description"]),
			Currency:    strings.TrimSpace(fields["currency"]),
			State:       state,
			Amount:      parseDecimal(fields["amount"]),
			Fee:         parseDecimal(fields["fee"]),
			Balance:     parseDecimal(fields["balance"]),
			Extra:       extra,
		})
	}

	return accepted, rejected, nil
}
