package provision

import (
	"context"
	"fmt"

	"github.com/tailorbase/storesmith/pkg/shopify"
)

// manualCollections are curated groupings; membership is assigned by hand
// in the admin.
var manualCollections = []map[string]any{
	{"title": "New Arrivals", "body_html": "<p>The latest pieces from our atelier.</p>"},
	{"title": "Best Sellers", "body_html": "<p>Customer favorites, season after season.</p>"},
	{"title": "Occasion Wear", "body_html": "<p>Gowns and dresses for special evenings.</p>"},
}

// smartCollections carry membership rules the platform evaluates itself.
// Relation operators and the disjunctive flag pass through verbatim.
var smartCollections = []map[string]any{
	{
		"title":       "Premium",
		"disjunctive": false,
		"rules": []map[string]any{
			{"column": "variant_price", "relation": "greater_than", "condition": "150"},
		},
	},
	{
		"title":       "Under $100",
		"disjunctive": false,
		"rules": []map[string]any{
			{"column": "variant_price", "relation": "less_than", "condition": "100"},
		},
	},
	{
		"title":       "Dresses & Gowns",
		"disjunctive": true,
		"rules": []map[string]any{
			{"column": "type", "relation": "equals", "condition": "dress"},
			{"column": "type", "relation": "equals", "condition": "gown"},
		},
	},
}

// createCollections creates the fixed manual and rule-based collections.
// Individual pre-existing collections are skipped; the step only surfaces
// as a conflict when every collection already existed.
func (o *Orchestrator) createCollections(ctx context.Context) error {
	var created, existing int

	for _, collection := range manualCollections {
		err := o.createOne(ctx, "custom_collections", map[string]any{"custom_collection": collection})

		switch {
		case err == nil:
			created++
		case shopify.IsConflict(err):
			existing++
		default:
			return fmt.Errorf("failed to create collection %v: %w", collection["title"], err)
		}
	}

	for _, collection := range smartCollections {
		err := o.createOne(ctx, "smart_collections", map[string]any{"smart_collection": collection})

		switch {
		case err == nil:
			created++
		case shopify.IsConflict(err):
			existing++
		default:
			return fmt.Errorf("failed to create smart collection %v: %w", collection["title"], err)
		}
	}

	o.logger.Info("Created collections", "created", created, "already_existing", existing)

	if created == 0 && existing > 0 {
		return fmt.Errorf("collections: %w", shopify.ErrConflict)
	}

	return nil
}

func (o *Orchestrator) createOne(ctx context.Context, path string, payload map[string]any) error {
	_, err := o.client.Post(ctx, path, payload)

	return err
}
