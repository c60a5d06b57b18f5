package embed

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

const DefaultHashingDim = 512

// Hashing is an offline embedder: word unigrams and character trigrams are
// hashed into a fixed number of buckets. It needs no model and is fully
// deterministic, which makes it the default for tests and air-gapped runs.
type Hashing struct {
	dim int
}

func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = DefaultHashingDim
	}
	return &Hashing{dim: dim}
}

func (h *Hashing) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *Hashing) vector(text string) []float32 {
	v := make([]float32, h.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		v[h.bucket("w:"+w)] += 2
		padded := []rune(" " + w + " ")
		for j := 0; j+3 <= len(padded); j++ {
			v[h.bucket("c:"+string(padded[j:j+3]))]++
		}
	}
	return v
}

func (h *Hashing) bucket(feature string) int {
	f := fnv.New32a()
	_, _ = f.Write([]byte(feature))
	return int(f.Sum32() % uint32(h.dim))
}
