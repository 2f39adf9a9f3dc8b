package provision

import (
	"context"
	"fmt"

	"github.com/tailorbase/storesmith/pkg/shopify"
)

// staticPages is the fixed set of informational pages every store starts
// with. Bodies are literal content.
var staticPages = []map[string]any{
	{
		"title":     "About Us",
		"handle":    "about-us",
		"body_html": "<h2>Our Atelier</h2><p>We craft made-to-order garments in small batches, cut and sewn to your measurements.</p>",
	},
	{
		"title":     "Contact",
		"handle":    "contact",
		"body_html": "<h2>Get in Touch</h2><p>Email us any time and we will reply within one business day.</p>",
	},
	{
		"title":     "Shipping Policy",
		"handle":    "shipping-policy",
		"body_html": "<h2>Shipping</h2><p>Made-to-order pieces ship within 10 business days. Standard sizes ship within 2.</p>",
	},
	{
		"title":     "Size Guide",
		"handle":    "size-guide",
		"body_html": "<h2>Find Your Fit</h2><p>Our sizes run XS through XL. Choose Custom for made-to-measure and we will contact you for measurements.</p>",
	},
	{
		"title":     "FAQ",
		"handle":    "faq",
		"body_html": "<h2>Frequently Asked Questions</h2><p>Returns are accepted within 30 days on standard sizes. Custom pieces are final sale.</p>",
	},
}

// createPages creates the static informational pages, skipping any that
// already exist.
func (o *Orchestrator) createPages(ctx context.Context) error {
	var created, existing int

	for _, page := range staticPages {
		err := o.createOne(ctx, "pages", map[string]any{"page": page})

		switch {
		case err == nil:
			created++
		case shopify.IsConflict(err):
			existing++
		default:
			return fmt.Errorf("failed to create page %v: %w", page["title"], err)
		}
	}

	o.logger.Info("Created pages", "created", created, "already_existing", existing)

	if created == 0 && existing > 0 {
		return fmt.Errorf("pages: %w", shopify.ErrConflict)
	}

	return nil
}
