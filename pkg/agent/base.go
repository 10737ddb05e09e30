package agent

import (
	"context"

	"github.com/LeKyks/pyassist/pkg/llm"
	"github.com/rs/zerolog"
)

// base carries what every agent shares: the bound connector and the
// static metadata. Embedding it gives the variants CheckStatus and Info.
type base struct {
	connector llm.Connector
	logger    zerolog.Logger
	info      Info
}

// CheckStatus delegates to the bound connector
func (b *base) CheckStatus(ctx context.Context) bool {
	if b.connector == nil {
		return false
	}
	return b.connector.CheckStatus(ctx)
}

// Info returns the agent metadata
func (b *base) Info() Info {
	return b.info
}
