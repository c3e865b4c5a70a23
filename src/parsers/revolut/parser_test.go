package revolut

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/username/ledgerview/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// seqIDGenerator hands out predictable ids so tests can address rows.
type seqIDGenerator struct{ n int }

func (g *seqIDGenerator) NewID() string {
	g.n++
	return fmt.Sprintf("tx-%d", g.n)
}

const sampleHeader = "Type,Product,Started Date,Completed Date,Description,Amount,Fee,Currency,State,Balance\n"

func TestParse_AcceptsCompletedRows(t *testing.T) {
	csvData := sampleHeader +
		"CARD_PAYMENT,Current,2024-01-15 09:30:00,2024-01-15 09:31:12,Coffee Shop,-3.50,0.00,EUR,COMPLETED,996.50\n"

	p := NewParser(&seqIDGenerator{})
	accepted, rejected, err := p.Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Equal(t, 0, rejected)
	require.Len(t, accepted, 1)

	row := accepted[0]
	require.Equal(t, "tx-1", row.ID)
	require.Equal(t, "CARD_PAYMENT", row.Type)
	require.Equal(t, "Current", row.Product)
	require.Equal(t, "Coffee Shop", row.Description)
	require.Equal(t, "EUR", row.Currency)
	require.Equal(t, "COMPLETED", row.State)
	require.True(t, row.Amount.Valid)
	require.True(t, row.Amount.Decimal.Equal(decimal.RequireFromString("-3.50")))
	require.True(t, row.Fee.Valid)
	require.True(t, row.Fee.Decimal.IsZero())
	require.True(t, row.Balance.Valid)
	require.True(t, row.Balance.Decimal.Equal(decimal.RequireFromString("996.50")))
	require.Equal(t, "2024-01-15 09:31:12", row.CompletedAt.Format("2006-01-02 15:04:05"))
}

func TestParse_RejectsNonCompletedAndBadDates(t *testing.T) {
	csvData := sampleHeader +
		"CARD_PAYMENT,Current,2024-01-15 09:30:00,2024-01-15 09:31:12,Coffee Shop,-3.50,0.00,EUR,COMPLETED,996.50\n" +
		"CARD_PAYMENT,Current,2024-01-16 10:00:00,2024-01-16 10:00:30,Pending Thing,-9.99,0.00,EUR,PENDING,986.51\n" +
		"TRANSFER,Current,2024-01-17 08:00:00,,No Completed Date,-50.00,0.00,EUR,COMPLETED,936.51\n" +
		"TRANSFER,Current,not-a-date,2024-01-18 08:00:00,Bad Started Date,-50.00,0.00,EUR,COMPLETED,886.51\n" +
		"CARD_PAYMENT,Current,2024-01-19 12:00:00,2024-01-19 12:00:05,Groceries,-42.10,0.00,EUR,COMPLETED,844.41\n"

	p := NewParser(&seqIDGenerator{})
	accepted, rejected, err := p.Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Equal(t, 3, rejected)
	require.Len(t, accepted, 2)
	require.Equal(t, "Coffee Shop", accepted[0].Description)
	require.Equal(t, "Groceries", accepted[1].Description)
}

func TestParse_ThousandsSeparatorsInAmounts(t *testing.T) {
	csvData := sampleHeader +
		`TRANSFER,Current,2024-02-01 12:00:00,2024-02-01 12:00:01,Salary,"1,234.56",0.00,EUR,COMPLETED,"2,231.06"` + "\n"

	p := NewParser(&seqIDGenerator{})
	accepted, rejected, err := p.Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Equal(t, 0, rejected)
	require.Len(t, accepted, 1)
	require.True(t, accepted[0].Amount.Decimal.Equal(decimal.RequireFromString("1234.56")))
	require.True(t, accepted[0].Balance.Decimal.Equal(decimal.RequireFromString("2231.06")))
}

func TestParse_UnparseableAmountBecomesNull(t *testing.T) {
	// A bad numeric cell nulls that field without rejecting the row.
	csvData := sampleHeader +
		"CARD_PAYMENT,Current,2024-01-15 09:30:00,2024-01-15 09:31:12,Weird Amount,abc,0.00,EUR,COMPLETED,996.50\n"

	p := NewParser(&seqIDGenerator{})
	accepted, rejected, err := p.Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Equal(t, 0, rejected)
	require.Len(t, accepted, 1)
	require.False(t, accepted[0].Amount.Valid)
}

func TestParse_UnknownColumnsPassThrough(t *testing.T) {
	csvData := "Type,Product,Started Date,Completed Date,Description,Amount,Fee,Currency,State,Balance,Merchant Code\n" +
		"CARD_PAYMENT,Current,2024-01-15 09:30:00,2024-01-15 09:31:12,Coffee Shop,-3.50,0.00,EUR,COMPLETED,996.50,5411\n"

	p := NewParser(&seqIDGenerator{})
	accepted, _, err := p.Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	require.Equal(t, "5411", accepted[0].Extra["Merchant Code"])
}

func TestParse_EmptyFileFailsOnHeader(t *testing.T) {
	p := NewParser(&seqIDGenerator{})
	_, _, err := p.Parse(strings.NewReader(""))
	require.Error(t, err)
}

func TestParse_HeaderOnlyYieldsNothing(t *testing.T) {
	p := NewParser(&seqIDGenerator{})
	accepted, rejected, err := p.Parse(strings.NewReader(sampleHeader))
	require.NoError(t, err)
	require.Equal(t, 0, rejected)
	require.Empty(t, accepted)
}
