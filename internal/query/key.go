package query

import (
	"encoding/json"
	"fmt"
)

// Params are the arguments of one query. Values must be JSON-encodable;
// their Go types matter, so 7 and "7" are different parameters.
type Params map[string]any

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Key returns the canonical cache key for endpoint and params. Objects are
// serialized with sorted keys at every depth, so structurally equal params
// map to the same key regardless of insertion order.
func Key(endpoint string, params Params) (string, error) {
	if params == nil {
		params = Params{}
	}
	b, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode params for %s: %w", endpoint, err)
	}
	return endpoint + "(" + string(b) + ")", nil
}
