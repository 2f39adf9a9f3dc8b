package provision

import (
	"context"
	"fmt"

	"github.com/tailorbase/storesmith/pkg/shopify"
)

// seedProducts creates the fixed seed catalog. Each product gets a
// generated description, the shared size axis, and one variant per size.
func (o *Orchestrator) seedProducts(ctx context.Context) error {
	var created, existing int

	for _, seed := range SeedCatalog() {
		payload := map[string]any{
			"product": map[string]any{
				"title":        seed.Title,
				"body_html":    Describe(seed.Fabric, seed.Color, seed.Type, seed.Occasion),
				"vendor":       seed.Vendor,
				"product_type": seed.Type,
				"tags":         seed.Tags,
				"options":      []map[string]any{{"name": "Size"}},
				"variants":     BuildVariants(seed.BaseSKU, seed.Price, SizeOptions),
			},
		}

		err := o.createOne(ctx, "products", payload)

		switch {
		case err == nil:
			created++
		case shopify.IsConflict(err):
			existing++

			o.logger.Info("Product already exists, skipping", "title", seed.Title)
		default:
			return fmt.Errorf("failed to create product %s: %w", seed.Title, err)
		}
	}

	o.logger.Info("Seeded product catalog", "created", created, "already_existing", existing)

	if created == 0 && existing > 0 {
		return fmt.Errorf("products: %w", shopify.ErrConflict)
	}

	return nil
}
