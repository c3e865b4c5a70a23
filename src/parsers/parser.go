// backend/src/parsers/parser.go
package parsers

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/username/ledgerview/backend/src/models"
)

// Parser converts a raw statement export into canonical transactions.
// It returns the accepted rows and the count of rows it dropped. Malformed
// rows are never fatal; an unreadable file (e.g. missing header) is.
type Parser interface {
	Parse(file io.Reader) ([]models.CanonicalTransaction, int, error)
}

// IDGenerator produces opaque identifiers for accepted rows. Pluggable so
// tests can inject deterministic ids.
type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }

// NewUUIDGenerator returns the production IDGenerator, backed by random UUIDs.
func NewUUIDGenerator() IDGenerator { return uuidGenerator{} }

var registry = map[string]Parser{}

// Register makes a parser available under the given source name.
// Called from main during wiring.
func Register(source string, p Parser) {
	registry[strings.ToLower(source)] = p
}

// GetParser returns the parser registered for the given statement source.
func GetParser(source string) (Parser, error) {
	p, ok := registry[strings.ToLower(source)]
	if !ok {
		return nil, fmt.Errorf("unsupported statement source: %q", source)
	}
	return p, nil
}
