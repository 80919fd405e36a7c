package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flicky/storefront-api/internal/cache"
	"github.com/flicky/storefront-api/internal/logging"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

const (
	productsPerPage = 8
	newArrivalLimit = 8
)

type ProductInput struct {
	Name         string
	Description  string
	Price        decimal.Decimal
	CountInStock int
	Category     model.Category
	Images       []string
	IsNewArrival bool
	IsFeatured   bool
}

// ProductPatch carries the fields an admin update may change; nil means
// keep the stored value.
type ProductPatch struct {
	Name           *string
	Description    *string
	Price          *decimal.Decimal
	CountInStock   *int
	Category       *model.Category
	IsNewArrival   *bool
	IsFeatured     *bool
	AddImages      []string
	ImagesToRemove []string
}

type ProductService struct {
	products repository.ProductRepository
	cache    Cache
}

func NewProductService(products repository.ProductRepository, cache Cache) *ProductService {
	return &ProductService{products: products, cache: cache}
}

// List returns one page of the catalog, newest first.
func (s *ProductService) List(ctx context.Context, page int) ([]model.Product, error) {
	if page < 1 {
		page = 1
	}
	return s.list(ctx, repository.ProductQuery{
		Skip:  int64(page-1) * productsPerPage,
		Limit: productsPerPage,
	})
}

// Search matches products whose name or description contains every word of q.
func (s *ProductService) Search(ctx context.Context, q string) ([]model.Product, error) {
	words := searchWords(q)
	if len(words) == 0 {
		return []model.Product{}, nil
	}
	return s.list(ctx, repository.ProductQuery{Words: words})
}

func searchWords(q string) []string {
	q = strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(q))
	return strings.Fields(q)
}

func (s *ProductService) NewArrivals(ctx context.Context) ([]model.Product, error) {
	return s.list(ctx, repository.ProductQuery{NewArrivals: true, Limit: newArrivalLimit})
}

func (s *ProductService) ByCategory(ctx context.Context, category string) ([]model.Product, error) {
	c := model.Category(strings.ToLower(strings.TrimSpace(category)))
	if !c.Valid() {
		return nil, ErrInvalidCategory
	}
	return s.list(ctx, repository.ProductQuery{Category: c})
}

// ListAll is the unpaginated admin listing.
func (s *ProductService) ListAll(ctx context.Context) ([]model.Product, error) {
	return s.list(ctx, repository.ProductQuery{})
}

func (s *ProductService) list(ctx context.Context, q repository.ProductQuery) ([]model.Product, error) {
	products, err := s.products.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Get reads through the product cache.
func (s *ProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	key := cache.ProductKey(oid.Hex())
	log := logging.FromContext(ctx)

	if s.cache != nil {
		var cached model.Product
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			log.Warn("read product cache", "error", err, "product_id", oid.Hex())
		}
		if ok {
			return &cached, nil
		}
	}

	product, err := s.load(ctx, oid)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, product); err != nil {
			log.Warn("write product cache", "error", err, "product_id", oid.Hex())
		}
	}
	return product, nil
}

func (s *ProductService) load(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetUncached is the admin read; it always goes to the store.
func (s *ProductService) GetUncached(ctx context.Context, id string) (*model.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	return s.load(ctx, oid)
}

func validateProduct(p *model.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return validationError("name is required")
	}
	if !p.Price.IsPositive() {
		return validationError("price must be greater than zero")
	}
	if p.CountInStock < 0 {
		return validationError("countInStock must not be negative")
	}
	if !p.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	product := &model.Product{
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Price:        in.Price,
		CountInStock: in.CountInStock,
		Category:     model.Category(strings.ToLower(string(in.Category))),
		Images:       in.Images,
		IsNewArrival: in.IsNewArrival,
		IsFeatured:   in.IsFeatured,
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	product.Slug = slug.Make(product.Name)
	product.Keywords = keywords(product)

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id string, patch ProductPatch) (*model.Product, error) {
	product, err := s.GetUncached(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		product.Name = strings.TrimSpace(*patch.Name)
		product.Slug = slug.Make(product.Name)
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.CountInStock != nil {
		product.CountInStock = *patch.CountInStock
	}
	if patch.Category != nil {
		product.Category = model.Category(strings.ToLower(string(*patch.Category)))
	}
	if patch.IsNewArrival != nil {
		product.IsNewArrival = *patch.IsNewArrival
	}
	if patch.IsFeatured != nil {
		product.IsFeatured = *patch.IsFeatured
	}
	product.Images = removeImages(product.Images, patch.ImagesToRemove)
	product.Images = append(product.Images, patch.AddImages...)

	if err := validateProduct(product); err != nil {
		return nil, err
	}
	product.Keywords = keywords(product)

	matched, err := s.products.Update(ctx, product, patch.CountInStock != nil)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	if !matched {
		return nil, ErrProductNotFound
	}
	s.invalidate(ctx, product.ID)
	// Stock may have moved since the read above.
	return s.load(ctx, product.ID)
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	deleted, err := s.products.Delete(ctx, oid)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if !deleted {
		return ErrProductNotFound
	}
	s.invalidate(ctx, oid)
	return nil
}

func (s *ProductService) invalidate(ctx context.Context, id primitive.ObjectID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.ProductKey(id.Hex())); err != nil {
		logging.FromContext(ctx).Warn("invalidate product cache", "error", err, "product_id", id.Hex())
	}
}

func removeImages(images, remove []string) []string {
	if len(remove) == 0 {
		return images
	}
	drop := make(map[string]struct{}, len(remove))
	for _, img := range remove {
		drop[img] = struct{}{}
	}
	kept := make([]string, 0, len(images))
	for _, img := range images {
		if _, ok := drop[img]; !ok {
			kept = append(kept, img)
		}
	}
	return kept
}

// keywords indexes the lowercase alphanumeric words of the name, the
// description and the category, without duplicates.
func keywords(p *model.Product) []string {
	words := strings.Fields(strings.ToLower(p.Name))
	words = append(words, strings.Fields(strings.ToLower(p.Description))...)
	words = append(words, string(p.Category))

	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, w)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
