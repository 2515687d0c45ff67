package stub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/skncr-ai/scanner/internal/providers"
	"github.com/skncr-ai/scanner/internal/schema"
)

// Stub is a deterministic, no-network provider for CI and offline runs.
// It returns a document satisfying the request's contract, derived from a hash
// of the prompt and image so repeated runs over the same still agree.
type Stub struct{}

// New returns a new stub provider
func New() *Stub { return &Stub{} }

// Name returns the provider label
func (s *Stub) Name() string { return "stub" }

// Generate builds a contract-valid JSON reply
func (s *Stub) Generate(ctx context.Context, req providers.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.Schema == nil {
		return "", fmt.Errorf("stub provider requires a response schema")
	}

	sum := sha256.Sum256(append([]byte(req.Prompt), req.Image...))
	g := &generator{seed: sum[:], tag: hex.EncodeToString(sum[:4])}

	b, err := json.Marshal(g.object(req.Schema.Fields))
	if err != nil {
		return "", fmt.Errorf("failed to marshal stub reply: %w", err)
	}
	return string(b), nil
}

type generator struct {
	seed []byte
	tag  string
	n    int
}

// next returns the next byte of the seed, cycling
func (g *generator) next() int {
	b := g.seed[g.n%len(g.seed)]
	g.n++
	return int(b)
}

func (g *generator) object(fields []schema.Field) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Name] = g.value(f)
	}
	return out
}

func (g *generator) value(f schema.Field) any {
	switch f.Kind {
	case schema.KindString:
		if len(f.Enum) > 0 {
			return f.Enum[g.next()%len(f.Enum)]
		}
		if f.Name == "" {
			return fmt.Sprintf("stub %s", g.tag)
		}
		return fmt.Sprintf("stub %s (%s)", f.Name, g.tag)
	case schema.KindNumber:
		return g.number(f.Name)
	case schema.KindBoolean:
		return g.next()%2 == 0
	case schema.KindArray:
		count := 1 + g.next()%3
		items := make([]any, 0, count)
		for i := 0; i < count; i++ {
			if f.Items == nil {
				items = append(items, fmt.Sprintf("stub %s", g.tag))
				continue
			}
			items = append(items, g.value(*f.Items))
		}
		return items
	case schema.KindObject:
		return g.object(f.Fields)
	default:
		return nil
	}
}

// number keeps well-known fields within the ranges the models are asked for
func (g *generator) number(name string) float64 {
	switch name {
	case "severity":
		return float64(1 + g.next()%10)
	case "matchScore":
		return float64(g.next() % 101)
	default:
		return float64(g.next())
	}
}
