package coupon

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultCodeLength = 8
	MinCodeLength     = 4
	MaxCodeLength     = 32
)

// CodeAlphabet is the set of characters a generated code can contain.
const CodeAlphabet = "0123456789ABCDEF"

type CodeGenerator interface {
	Generate() (Code, error)
}

// UUIDCodeGenerator cuts the hex digits of a random (v4) UUID. Calls share no
// state, so uniqueness is probabilistic and enforced by the ledger on append.
type UUIDCodeGenerator struct {
	length int
}

func NewUUIDCodeGenerator(length int) (*UUIDCodeGenerator, error) {
	if length == 0 {
		length = DefaultCodeLength
	}
	if length < MinCodeLength || length > MaxCodeLength {
		return nil, fmt.Errorf("code length must be between %d and %d, got %d", MinCodeLength, MaxCodeLength, length)
	}
	return &UUIDCodeGenerator{length: length}, nil
}

func (g *UUIDCodeGenerator) Generate() (Code, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to read entropy for coupon code: %w", err)
	}
	hex := strings.ReplaceAll(id.String(), "-", "")
	return Code(strings.ToUpper(hex[:g.length])), nil
}

func (g *UUIDCodeGenerator) Length() int {
	return g.length
}
