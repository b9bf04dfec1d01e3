package catalog

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdantrow/storefront-backend/pkg/enums"
	pkgerrors "github.com/verdantrow/storefront-backend/pkg/errors"
	"github.com/verdantrow/storefront-backend/pkg/money"
)

// ProductRow is the stored product record.
type ProductRow struct {
	ID       string `gorm:"primaryKey"`
	Handle   string `gorm:"index"`
	Title    string
	Subtitle string
	ImageURL string
}

// TableName implements gorm's table naming.
func (ProductRow) TableName() string { return "products" }

// VariantRow is the stored variant record.
type VariantRow struct {
	ID                string `gorm:"primaryKey"`
	ProductID         string `gorm:"index"`
	Title             string
	ImageURL          string
	CurrencyCode      string
	Price             decimal.Decimal     `gorm:"type:numeric"`
	SubscriptionPrice decimal.NullDecimal `gorm:"type:numeric"`
	CompareAtPrice    decimal.NullDecimal `gorm:"type:numeric"`
}

// TableName implements gorm's table naming.
func (VariantRow) TableName() string { return "variants" }

// ContainerOptionRow is one container offer attached to a variant, priced for
// a single purchase mode and tier.
type ContainerOptionRow struct {
	ID                 uint   `gorm:"primaryKey;autoIncrement"`
	OwnerVariantID     string `gorm:"index"`
	Mode               string
	Tier               string
	ContainerVariantID string
	ContainerProductID string
	ImageURL           string
	CurrencyCode       string
	Price              decimal.Decimal     `gorm:"type:numeric"`
	CompareAtPrice     decimal.NullDecimal `gorm:"type:numeric"`
}

// TableName implements gorm's table naming.
func (ContainerOptionRow) TableName() string { return "container_options" }

// Repository resolves canonical variant data from the catalog database.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AutoMigrate creates the catalog tables. Dev-only, gated by config.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ProductRow{}, &VariantRow{}, &ContainerOptionRow{})
}

// ResolveVariants loads canonical variant + product records for the given
// variant ids. Ids with no matching variant are absent from the result, which
// leaves the corresponding cart lines unresolved rather than failing the
// whole batch.
func (r *Repository) ResolveVariants(ctx context.Context, variantIDs []string) (map[string]ResolvedVariant, error) {
	resolved := make(map[string]ResolvedVariant, len(variantIDs))
	if len(variantIDs) == 0 {
		return resolved, nil
	}

	var variants []VariantRow
	if err := r.db.WithContext(ctx).Where("id IN ?", variantIDs).Find(&variants).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variants")
	}
	if len(variants) == 0 {
		return resolved, nil
	}

	productIDs := make([]string, 0, len(variants))
	for _, row := range variants {
		productIDs = append(productIDs, row.ProductID)
	}

	var products []ProductRow
	if err := r.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	productByID := make(map[string]ProductRow, len(products))
	for _, row := range products {
		productByID[row.ID] = row
	}

	var options []ContainerOptionRow
	if err := r.db.WithContext(ctx).Where("owner_variant_id IN ?", variantIDs).Find(&options).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load container options")
	}
	optionsByVariant := make(map[string][]ContainerOptionRow)
	for _, row := range options {
		optionsByVariant[row.OwnerVariantID] = append(optionsByVariant[row.OwnerVariantID], row)
	}

	for _, row := range variants {
		product, ok := productByID[row.ProductID]
		if !ok {
			// Variant without a product is a catalog integrity problem;
			// leave the line unresolved instead of serving half a record.
			continue
		}
		variant, err := mapVariant(row, optionsByVariant[row.ID])
		if err != nil {
			return nil, err
		}
		resolved[row.ID] = ResolvedVariant{
			Variant: variant,
			Product: Product{
				ID:       product.ID,
				Handle:   product.Handle,
				Title:    product.Title,
				Subtitle: product.Subtitle,
				ImageURL: product.ImageURL,
			},
		}
	}

	return resolved, nil
}

func mapVariant(row VariantRow, options []ContainerOptionRow) (Variant, error) {
	price := money.Money{Amount: row.Price, CurrencyCode: row.CurrencyCode}

	variant := Variant{
		ID:                row.ID,
		ProductID:         row.ProductID,
		Title:             row.Title,
		ImageURL:          row.ImageURL,
		Price:             price,
		SubscriptionPrice: nullableMoney(row.SubscriptionPrice, row.CurrencyCode),
		CompareAtPrice:    nullableMoney(row.CompareAtPrice, row.CurrencyCode),
	}

	if len(options) == 0 {
		return variant, nil
	}

	table := ContainerPriceTable{}
	for _, option := range options {
		mode, err := enums.ParseContainerType(option.Mode)
		if err != nil {
			return Variant{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "container option for variant "+option.OwnerVariantID)
		}
		tier, err := enums.ParseContainerTier(option.Tier)
		if err != nil {
			return Variant{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "container option for variant "+option.OwnerVariantID)
		}
		if table[mode] == nil {
			table[mode] = map[enums.ContainerTier]Container{}
		}
		table[mode][tier] = Container{
			VariantID:      option.ContainerVariantID,
			ProductID:      option.ContainerProductID,
			ImageURL:       option.ImageURL,
			Price:          money.Money{Amount: option.Price, CurrencyCode: option.CurrencyCode},
			CompareAtPrice: nullableMoney(option.CompareAtPrice, option.CurrencyCode),
		}
	}
	variant.Containers = table

	return variant, nil
}

func nullableMoney(value decimal.NullDecimal, currencyCode string) *money.Money {
	if !value.Valid {
		return nil
	}
	return &money.Money{Amount: value.Decimal, CurrencyCode: currencyCode}
}
