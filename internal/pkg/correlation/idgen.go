package correlation

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/xid"
)

// Supported identifier formats
const (
	FormatUUID   = "uuid"
	FormatUUIDv7 = "uuidv7"
	FormatXID    = "xid"
)

// Generator produces a new unique identifier on every call
type Generator interface {
	Generate() string
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func() string

func (f GeneratorFunc) Generate() string {
	return f()
}

// UUIDGenerator generates random (version 4) UUID strings
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// UUIDv7Generator generates time-ordered (version 7) UUID strings
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// XIDGenerator generates 20 character xid strings
type XIDGenerator struct{}

func (XIDGenerator) Generate() string {
	return xid.New().String()
}

// NewGenerator returns the generator for format
func NewGenerator(format string) (Generator, error) {
	switch format {
	case "", FormatUUID:
		return UUIDGenerator{}, nil
	case FormatUUIDv7:
		return UUIDv7Generator{}, nil
	case FormatXID:
		return XIDGenerator{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIDFormat, format)
	}
}
