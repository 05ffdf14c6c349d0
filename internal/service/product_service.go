package service

import (
	"context"
	"strings"

	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	productSKUMaxChars  = 64
	productNameMaxChars = 200
)

// ProductService 商品业务服务
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// CreateProductInput 创建/更新商品输入
type CreateProductInput struct {
	SKU         string
	Name        string
	Description string
	PriceAmount decimal.Decimal
	Image       string
	IsActive    *bool
	SortOrder   int
}

// ListPublic 获取公开商品列表
func (s *ProductService) ListPublic(ctx context.Context, search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(ctx, repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     search,
		OnlyActive: true,
	})
}

// GetPublicByID 获取公开商品详情，下架商品视为不存在
func (s *ProductService) GetPublicByID(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.GetAdminByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListAdmin 获取后台商品列表
func (s *ProductService) ListAdmin(ctx context.Context, search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(ctx, repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   search,
	})
}

// GetAdminByID 获取后台商品详情
func (s *ProductService) GetAdminByID(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	product := &models.Product{IsActive: true}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrProductSKUExists
		}
		return nil, err
	}
	logger.Ctx(ctx).Infow("product_created", "product_id", product.ID, "sku", product.SKU)
	return product, nil
}

// Update 更新商品；已下单的快照不受影响
func (s *ProductService) Update(ctx context.Context, id uint, input CreateProductInput) (*models.Product, error) {
	product, err := s.GetAdminByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrProductSKUExists
		}
		return nil, err
	}
	return product, nil
}

// SetActive 上下架商品
func (s *ProductService) SetActive(ctx context.Context, id uint, active bool) (*models.Product, error) {
	product, err := s.GetAdminByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.IsActive == active {
		return product, nil
	}
	product.IsActive = active
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Infow("product_active_changed", "product_id", product.ID, "is_active", active)
	return product, nil
}

func applyProductInput(product *models.Product, input CreateProductInput) error {
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	if sku == "" || name == "" {
		return ErrProductInvalid
	}
	if len([]rune(sku)) > productSKUMaxChars {
		return ErrProductInvalid
	}
	price := input.PriceAmount.Round(2)
	if price.LessThanOrEqual(decimal.Zero) {
		return ErrProductPriceInvalid
	}

	product.SKU = sku
	product.Name = truncateRunes(name, productNameMaxChars)
	product.Description = strings.TrimSpace(input.Description)
	product.PriceAmount = models.NewMoneyFromDecimal(price)
	product.Image = strings.TrimSpace(input.Image)
	product.SortOrder = input.SortOrder
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	return nil
}
