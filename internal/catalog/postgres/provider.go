// Package postgres reads indexable products from the shop's PostgreSQL
// catalog.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/resilience"
)

const listColumns = `
	p.id, p.name, p.sku, p.description, p.short_description, p.price,
	p.stock_status, p.created_at,
	COALESCE((SELECT array_agg(b.name ORDER BY b.priority) FROM product_brands b WHERE b.product_id = p.id), '{}'),
	COALESCE((SELECT array_agg(c.name ORDER BY c.position) FROM product_categories c WHERE c.product_id = p.id), '{}'),
	COALESCE((SELECT array_agg(t.name ORDER BY t.name) FROM product_tags t WHERE t.product_id = p.id), '{}')`

const attributesQuery = `
	SELECT product_id, name, visible, taxonomy, terms, options
	FROM product_attributes
	WHERE product_id = ANY($1)
	ORDER BY product_id, position`

// Provider implements catalog.Provider over a *sql.DB opened with lib/pq.
type Provider struct {
	db     *sql.DB
	retry  resilience.RetryConfig
	logger *slog.Logger
}

var _ catalog.Provider = (*Provider)(nil)

func NewProvider(db *sql.DB) *Provider {
	return &Provider{
		db: db,
		retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
		},
		logger: slog.Default().With("component", "catalog-postgres"),
	}
}

// buildListQuery returns the product listing statement and its arguments.
func buildListQuery(limit int, inStockOnly bool) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT")
	b.WriteString(listColumns)
	b.WriteString("\n\tFROM products p\n\tWHERE p.status = 'publish'")
	if inStockOnly {
		b.WriteString(" AND p.stock_status = 'instock'")
	}
	b.WriteString("\n\tORDER BY p.created_at DESC, p.id DESC")
	var args []any
	if limit > 0 {
		b.WriteString("\n\tLIMIT $1")
		args = append(args, limit)
	}
	return b.String(), args
}

func (p *Provider) ListIndexableItems(ctx context.Context, limit int, inStockOnly bool) ([]catalog.Item, error) {
	var items []catalog.Item
	err := resilience.Retry(ctx, "list-indexable-items", p.retry, func() error {
		var err error
		items, err = p.list(ctx, limit, inStockOnly)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing catalog items: %w", err)
	}
	p.logger.Debug("catalog listed", "count", len(items), "limit", limit, "in_stock_only", inStockOnly)
	return items, nil
}

func (p *Provider) list(ctx context.Context, limit int, inStockOnly bool) ([]catalog.Item, error) {
	query, args := buildListQuery(limit, inStockOnly)
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	products, err := p.scanProducts(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*product, len(products))
	for _, pr := range products {
		byID[pr.id] = pr
	}
	if len(products) == 0 {
		return nil, nil
	}
	if err := p.loadAttributes(ctx, byID); err != nil {
		return nil, err
	}

	items := make([]catalog.Item, len(products))
	for i, pr := range products {
		items[i] = pr
	}
	return items, nil
}

// rowScanner is the part of *sql.Rows the listing reads.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanProducts decodes every product row. A row that cannot be decoded is
// logged and skipped so one bad record never fails the whole listing.
func (p *Provider) scanProducts(rows rowScanner) ([]*product, error) {
	var products []*product
	skipped := 0
	for rows.Next() {
		pr, err := scanProduct(rows)
		if err != nil {
			skipped++
			p.logger.Warn("skipping unreadable product row", "error", err)
			continue
		}
		products = append(products, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	if skipped > 0 {
		p.logger.Warn("product rows skipped", "skipped", skipped, "listed", len(products))
	}
	return products, nil
}

// scanProduct reads one listing row. Nullable columns become zero values.
func scanProduct(row interface{ Scan(dest ...any) error }) (*product, error) {
	pr := &product{}
	var (
		name, sku, desc, short, stock sql.NullString
		price                         sql.NullFloat64
		createdAt                     sql.NullTime
	)
	if err := row.Scan(
		&pr.id, &name, &sku, &desc, &short, &price,
		&stock, &createdAt,
		pq.Array(&pr.brands), pq.Array(&pr.categories), pq.Array(&pr.tags),
	); err != nil {
		return nil, fmt.Errorf("scanning product: %w", err)
	}
	pr.name = name.String
	pr.sku = sku.String
	pr.description = desc.String
	pr.shortDescription = short.String
	pr.price = price.Float64
	pr.stock = stock.String
	pr.createdAt = createdAt.Time
	return pr, nil
}

func (p *Provider) loadAttributes(ctx context.Context, byID map[int64]*product) error {
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	rows, err := p.db.QueryContext(ctx, attributesQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("querying product attributes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var productID int64
		var attr catalog.Attribute
		var name sql.NullString
		var visible, taxonomy sql.NullBool
		if err := rows.Scan(&productID, &name, &visible, &taxonomy,
			pq.Array(&attr.Terms), pq.Array(&attr.Options)); err != nil {
			p.logger.Warn("skipping unreadable product attribute", "error", err)
			continue
		}
		attr.Name, attr.Visible, attr.Taxonomy = name.String, visible.Bool, taxonomy.Bool
		if pr, ok := byID[productID]; ok {
			pr.attributes = append(pr.attributes, attr)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating product attributes: %w", err)
	}
	return nil
}

// product is a fully loaded row; its lookups never fail.
type product struct {
	id               int64
	name             string
	sku              string
	description      string
	shortDescription string
	price            float64
	stock            string
	createdAt        time.Time
	brands           []string
	categories       []string
	tags             []string
	attributes       []catalog.Attribute
}

func (p *product) ID() int64                { return p.id }
func (p *product) Name() string             { return p.name }
func (p *product) SKU() string              { return p.sku }
func (p *product) Description() string      { return p.description }
func (p *product) ShortDescription() string { return p.shortDescription }
func (p *product) Price() float64           { return p.price }
func (p *product) CreatedAt() time.Time     { return p.createdAt }

func (p *product) StockStatus() catalog.StockStatus {
	return catalog.StockStatus(p.stock)
}

func (p *product) BrandCandidates() ([]string, error)       { return p.brands, nil }
func (p *product) Categories() ([]string, error)            { return p.categories, nil }
func (p *product) Tags() ([]string, error)                  { return p.tags, nil }
func (p *product) Attributes() ([]catalog.Attribute, error) { return p.attributes, nil }
