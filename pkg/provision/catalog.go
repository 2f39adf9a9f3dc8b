package provision

import "fmt"

// Size axis shared by every seed product. "Custom" is the made-to-measure
// placeholder and carries a larger inventory pool than the standard sizes.
var SizeOptions = []string{"XS", "S", "M", "L", "XL", "Custom"}

const (
	customSize = "Custom"

	standardSizeInventory = 10
	customSizeInventory   = 100

	variantWeight     = 0.5
	variantWeightUnit = "kg"
)

// ProductSeed describes one catalog entry. Description text is generated,
// not stored, so identical attribute sets always render identically.
type ProductSeed struct {
	Title    string
	BaseSKU  string
	Fabric   string
	Color    string
	Type     string
	Occasion string
	Price    string
	Vendor   string
	Tags     string
}

// SeedCatalog returns the fixed products every new store starts with.
func SeedCatalog() []ProductSeed {
	return []ProductSeed{
		{
			Title:    "Silk Evening Gown",
			BaseSKU:  "SILK-GOWN-001",
			Fabric:   "silk",
			Color:    "midnight blue",
			Type:     "gown",
			Occasion: "evening",
			Price:    "249.00",
			Vendor:   "Tailorbase",
			Tags:     "gown, silk, evening",
		},
		{
			Title:    "Linen Summer Dress",
			BaseSKU:  "LINEN-DRESS-002",
			Fabric:   "linen",
			Color:    "ivory",
			Type:     "dress",
			Occasion: "casual",
			Price:    "89.00",
			Vendor:   "Tailorbase",
			Tags:     "dress, linen, summer",
		},
		{
			Title:    "Velvet Cocktail Dress",
			BaseSKU:  "VELVET-DRESS-003",
			Fabric:   "velvet",
			Color:    "burgundy",
			Type:     "cocktail dress",
			Occasion: "cocktail",
			Price:    "159.00",
			Vendor:   "Tailorbase",
			Tags:     "dress, velvet, cocktail",
		},
		{
			Title:    "Cotton Wrap Blouse",
			BaseSKU:  "COTTON-BLOUSE-004",
			Fabric:   "cotton",
			Color:    "white",
			Type:     "blouse",
			Occasion: "office",
			Price:    "49.00",
			Vendor:   "Tailorbase",
			Tags:     "blouse, cotton, office",
		},
		{
			Title:    "Chiffon Maxi Skirt",
			BaseSKU:  "CHIFFON-SKIRT-005",
			Fabric:   "chiffon",
			Color:    "blush pink",
			Type:     "maxi skirt",
			Occasion: "garden party",
			Price:    "119.00",
			Vendor:   "Tailorbase",
			Tags:     "skirt, chiffon, party",
		},
	}
}

// Describe renders the product description. Pure function of its inputs:
// the same fabric, color, type, and occasion always produce byte-identical
// output.
func Describe(fabric, color, productType, occasion string) string {
	return fmt.Sprintf(
		"<p>A %s %s cut from premium %s. Tailored for %s wear, it pairs a "+
			"flattering silhouette with everyday comfort.</p>"+
			"<p>Every piece is made to order in your size, including fully "+
			"custom measurements. Care: gentle wash, hang dry.</p>",
		color, productType, fabric, occasion,
	)
}

// BuildVariants produces one variant per size with deterministic SKUs and
// the fixed inventory policy. Price and weight are identical across sizes.
func BuildVariants(baseSKU, price string, sizes []string) []map[string]any {
	variants := make([]map[string]any, 0, len(sizes))

	for _, size := range sizes {
		quantity := standardSizeInventory
		if size == customSize {
			quantity = customSizeInventory
		}

		variants = append(variants, map[string]any{
			"option1":              size,
			"sku":                  fmt.Sprintf("%s_%s", baseSKU, size),
			"price":                price,
			"weight":               variantWeight,
			"weight_unit":          variantWeightUnit,
			"inventory_management": "shopify",
			"inventory_quantity":   quantity,
		})
	}

	return variants
}
