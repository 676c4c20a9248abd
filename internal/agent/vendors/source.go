package vendors

import (
	"context"
	"fmt"

	"github.com/cartpilot/server/internal/agent/model"
	"github.com/cartpilot/server/internal/agent/retryx"
)

// OfferSource is one vendor endpoint queried for product offers.
type OfferSource interface {
	Name() string
	Search(ctx context.Context, productKey string) (*model.SourceResponse, error)
}

// validateResponse checks a source response before its offers are accepted.
// A source-declared error status is transient (the vendor may recover); a
// malformed response or invalid offer data is permanent and never retried.
func validateResponse(resp *model.SourceResponse, source string) error {
	if resp == nil {
		return retryx.Permanent(source, fmt.Errorf("nil response"))
	}

	switch resp.Status {
	case model.StatusSuccess, model.StatusNoResults:
	case model.StatusError:
		return retryx.Transient(source, fmt.Errorf("source reported error: %s", resp.ErrorMessage))
	default:
		return retryx.Permanent(source, fmt.Errorf("invalid status %q", resp.Status))
	}

	for i := range resp.Offers {
		o := &resp.Offers[i]
		if o.Source == "" || o.Brand == "" || o.PackUnit == "" {
			return retryx.Permanent(source, fmt.Errorf("offer %d missing required fields", i))
		}
		if o.Price <= 0 {
			return retryx.Permanent(source, fmt.Errorf("offer %d has non-positive price", i))
		}
		if o.PackSize <= 0 {
			return retryx.Permanent(source, fmt.Errorf("offer %d has non-positive pack size", i))
		}
	}

	return nil
}
