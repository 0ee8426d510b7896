package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/davarch/ci-pulse/internal/domain"
)

// jsonPresenter emits each dashboard as one JSON document.
type jsonPresenter struct {
	enc *json.Encoder
}

func newJSONPresenter(w io.Writer) *jsonPresenter {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &jsonPresenter{enc: enc}
}

func (p *jsonPresenter) Render(_ context.Context, d domain.Dashboard) error {
	return p.enc.Encode(d)
}

func (p *jsonPresenter) Connection(context.Context, domain.ConnectionState, error) {}
