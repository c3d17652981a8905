package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

const (
	probeText    = "dimension probe"
	probeTimeout = 30 * time.Second
)

// Negotiator wraps an embedder and learns its output dimension from a single
// probe embedding. Every later vector must match that dimension.
type Negotiator struct {
	embedder ports.Embedder
	logger   arbor.ILogger

	once      sync.Once
	dimension int
	err       error
}

var _ ports.EmbeddingProvider = (*Negotiator)(nil)

// NewNegotiator wraps embedder.
func NewNegotiator(embedder ports.Embedder, logger arbor.ILogger) *Negotiator {
	return &Negotiator{embedder: embedder, logger: logger}
}

// Dimension returns the negotiated vector length, probing on first use.
// A failed probe is remembered and returned to every caller.
func (n *Negotiator) Dimension(ctx context.Context) (int, error) {
	n.once.Do(func() { n.probe(ctx) })
	return n.dimension, n.err
}

// Ready negotiates the dimension and reports only the error.
func (n *Negotiator) Ready(ctx context.Context) error {
	_, err := n.Dimension(ctx)
	return err
}

// Embed embeds text and rejects vectors whose length differs from the
// negotiated dimension.
func (n *Negotiator) Embed(ctx context.Context, text string) ([]float32, error) {
	dim, err := n.Dimension(ctx)
	if err != nil {
		return nil, err
	}
	vector, err := n.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", dim, len(vector))
	}
	return vector, nil
}

// probe runs detached from the first caller's cancellation so a cancelled
// request cannot fail negotiation for everyone else.
func (n *Negotiator) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), probeTimeout)
	defer cancel()

	vector, err := n.embedder.Embed(ctx, probeText)
	if err != nil {
		n.err = fmt.Errorf("negotiating embedding dimension: %w", err)
		n.logger.Error().Err(err).Msg("Embedding dimension probe failed")
		return
	}
	if len(vector) == 0 {
		n.err = fmt.Errorf("negotiating embedding dimension: provider returned an empty vector")
		return
	}
	n.dimension = len(vector)
	n.logger.Info().Int("dimension", n.dimension).Msg("Embedding dimension negotiated")
}
