package validation

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/username/ledgerview/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestValidateClientContentType(t *testing.T) {
	require.NoError(t, ValidateClientContentType("text/csv"))
	require.NoError(t, ValidateClientContentType("TEXT/CSV"))
	require.NoError(t, ValidateClientContentType("text/plain"))
	require.Error(t, ValidateClientContentType("application/pdf"))
	require.Error(t, ValidateClientContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	require.Error(t, ValidateClientContentType(""))
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	csvContent := bytes.NewReader([]byte("Type,Amount\nCARD_PAYMENT,-3.50\n"))
	detected, err := ValidateFileContentByMagicBytes(csvContent)
	require.NoError(t, err)
	require.Equal(t, "text/plain", detected)

	// The read pointer is reset for the parser.
	pos, err := csvContent.Seek(0, 1)
	require.NoError(t, err)
	require.Zero(t, pos)

	_, err = ValidateFileContentByMagicBytes(bytes.NewReader([]byte{0x00, 0x01, 0x02, 0xFF}))
	require.Error(t, err)

	_, err = ValidateFileContentByMagicBytes(bytes.NewReader(nil))
	require.Error(t, err)
}

func TestSanitizeText(t *testing.T) {
	require.Equal(t, "hello", SanitizeText("<script>alert(1)</script>hello"))
	require.Equal(t, "plain note", SanitizeText("plain note"))
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	require.Equal(t, "'=SUM(A1)", SanitizeForFormulaInjection("=SUM(A1)"))
	require.Equal(t, "'-2200", SanitizeForFormulaInjection("-2200"))
	require.Equal(t, "Coffee Shop", SanitizeForFormulaInjection("Coffee Shop"))
	require.Equal(t, "", SanitizeForFormulaInjection(""))
}

func TestStripUnprintable(t *testing.T) {
	require.Equal(t, "abc\tdef", StripUnprintable("abc\tdef\x00"))
	require.Equal(t, "line\nbreak", StripUnprintable("line\nbreak\x1b"))
}
