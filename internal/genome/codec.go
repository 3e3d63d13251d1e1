package genome

import (
	"encoding/json"
	"fmt"
)

const (
	KindBits   = "bits"
	KindInts   = "ints"
	KindFloats = "floats"
)

// Encode renders a vector genome as its kind and a JSON array.
func Encode(g Genome) (kind, data string, err error) {
	switch g.(type) {
	case Bits:
		kind = KindBits
	case Ints:
		kind = KindInts
	case Floats:
		kind = KindFloats
	default:
		return "", "", fmt.Errorf("%w: cannot encode %T", ErrGenomeMismatch, g)
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return "", "", err
	}
	return kind, string(raw), nil
}

func Decode(kind, data string) (Genome, error) {
	switch kind {
	case KindBits:
		return decodeInto[Bits](data)
	case KindInts:
		return decodeInto[Ints](data)
	case KindFloats:
		return decodeInto[Floats](data)
	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", ErrGenomeMismatch, kind)
	}
}

func decodeInto[V interface {
	Bits | Ints | Floats
	Genome
}](data string) (Genome, error) {
	var v V
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, fmt.Errorf("decode genome: %w", err)
	}
	return v, nil
}
