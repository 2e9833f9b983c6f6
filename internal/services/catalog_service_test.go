package services_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"canteen/internal/models"
	"canteen/internal/repositories"
	"canteen/internal/services"
	"canteen/internal/storage"
)

// MockDishRepository is a mock implementation of repositories.DishRepository
type MockDishRepository struct {
	mock.Mock
}

func (m *MockDishRepository) GetByID(ctx context.Context, id uint) (*models.Dish, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dish), args.Error(1)
}

func (m *MockDishRepository) ListByMerchant(ctx context.Context, merchantID uint, onlyListed bool) ([]models.Dish, error) {
	args := m.Called(merchantID, onlyListed)
	return args.Get(0).([]models.Dish), args.Error(1)
}

func (m *MockDishRepository) Create(ctx context.Context, dish *models.Dish) error {
	return m.Called(dish).Error(0)
}

func (m *MockDishRepository) Update(ctx context.Context, dish *models.Dish) error {
	return m.Called(dish).Error(0)
}

func (m *MockDishRepository) SetStatus(ctx context.Context, merchantID, dishID uint, status models.DishStatus) error {
	return m.Called(merchantID, dishID, status).Error(0)
}

func (m *MockDishRepository) SetImage(ctx context.Context, merchantID, dishID uint, image string) error {
	return m.Called(merchantID, dishID, image).Error(0)
}

func (m *MockDishRepository) Delete(ctx context.Context, merchantID, dishID uint) error {
	return m.Called(merchantID, dishID).Error(0)
}

func (m *MockDishRepository) DecrementStock(ctx context.Context, dishID uint, quantity int) (bool, error) {
	args := m.Called(dishID, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *MockDishRepository) RestoreStock(ctx context.Context, dishID uint, quantity int) error {
	return m.Called(dishID, quantity).Error(0)
}

// MockImageStore is a mock implementation of services.ImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	args := m.Called(filename)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Remove(name string) error {
	return m.Called(name).Error(0)
}

func TestCatalogService_CreateDish(t *testing.T) {
	mockRepo := new(MockDishRepository)
	service := services.NewCatalogService(nil, mockRepo, nil)
	ctx := context.Background()

	// Test successful creation
	mockRepo.On("Create", mock.MatchedBy(func(d *models.Dish) bool {
		return d.MerchantID == 3 && d.Name == "Ramen" && d.Status == models.DishListed && d.Price.Equal(dec("12.50"))
	})).Return(nil).Once()
	dish, err := service.CreateDish(ctx, 3, services.DishInput{Name: "Ramen", Price: dec("12.50"), Stock: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, dish.Stock)

	// Test delisted on creation
	delisted := models.DishDelisted
	mockRepo.On("Create", mock.MatchedBy(func(d *models.Dish) bool { return d.Status == models.DishDelisted })).Return(nil).Once()
	_, err = service.CreateDish(ctx, 3, services.DishInput{Name: "Udon", Price: dec("9"), Status: &delisted})
	require.NoError(t, err)

	// Test creation failure (e.g., database error)
	mockRepo.On("Create", mock.Anything).Return(fmt.Errorf("database error")).Once()
	_, err = service.CreateDish(ctx, 3, services.DishInput{Name: "Soba", Price: dec("9")})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	mockRepo.AssertExpectations(t)
}

func TestCatalogService_DishValidation(t *testing.T) {
	service := services.NewCatalogService(nil, new(MockDishRepository), nil)
	ctx := context.Background()
	bad := models.DishStatus(5)

	tests := map[string]services.DishInput{
		"missing name":    {Price: dec("1")},
		"zero price":      {Name: "x", Price: dec("0")},
		"negative price":  {Name: "x", Price: dec("-1")},
		"price too large": {Name: "x", Price: dec("10000")},
		"three decimals":  {Name: "x", Price: dec("1.005")},
		"negative stock":  {Name: "x", Price: dec("1"), Stock: -1},
		"unknown status":  {Name: "x", Price: dec("1"), Status: &bad},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := service.CreateDish(ctx, 1, in)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}

}

func TestCatalogService_UpdateDishChecksOwnership(t *testing.T) {
	mockRepo := new(MockDishRepository)
	service := services.NewCatalogService(nil, mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("GetByID", uint(1)).Return(&models.Dish{ID: 1, MerchantID: 3, Name: "Ramen", Status: models.DishListed}, nil)
	mockRepo.On("GetByID", uint(99)).Return(nil, fmt.Errorf("dish with ID 99: %w", repositories.ErrNotFound))

	mockRepo.On("Update", mock.MatchedBy(func(d *models.Dish) bool {
		return d.ID == 1 && d.Name == "Ramen XL" && d.Stock == 4 && d.Status == models.DishListed
	})).Return(nil).Once()
	dish, err := service.UpdateDish(ctx, 3, 1, services.DishInput{Name: "Ramen XL", Price: dec("14"), Stock: 4})
	require.NoError(t, err)
	assert.True(t, dec("14").Equal(dish.Price))

	_, err = service.UpdateDish(ctx, 4, 1, services.DishInput{Name: "Stolen", Price: dec("1")})
	assert.ErrorIs(t, err, services.ErrDishNotFound)

	_, err = service.UpdateDish(ctx, 3, 99, services.DishInput{Name: "Ghost", Price: dec("1")})
	assert.ErrorIs(t, err, services.ErrDishNotFound)
	mockRepo.AssertExpectations(t)
}

func TestCatalogService_StatusAndDelete(t *testing.T) {
	mockRepo := new(MockDishRepository)
	service := services.NewCatalogService(nil, mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("SetStatus", uint(3), uint(1), models.DishDelisted).Return(nil).Once()
	assert.NoError(t, service.SetDishStatus(ctx, 3, 1, models.DishDelisted))
	assert.ErrorIs(t, service.SetDishStatus(ctx, 3, 1, models.DishStatus(7)), services.ErrValidation)

	mockRepo.On("Delete", uint(3), uint(1)).Return(nil).Once()
	assert.NoError(t, service.DeleteDish(ctx, 3, 1))

	// Test deletion of a dish the merchant does not own
	mockRepo.On("Delete", uint(4), uint(1)).Return(repositories.ErrNotFound).Once()
	assert.ErrorIs(t, service.DeleteDish(ctx, 4, 1), services.ErrDishNotFound)
	mockRepo.AssertExpectations(t)
}

func TestCatalogService_UploadDishImage(t *testing.T) {
	mockRepo := new(MockDishRepository)
	images := new(MockImageStore)
	service := services.NewCatalogService(nil, mockRepo, images)
	ctx := context.Background()

	mockRepo.On("GetByID", uint(1)).Return(&models.Dish{ID: 1, MerchantID: 3, Image: "old.png"}, nil)
	images.On("Save", "ramen.jpg").Return("new.jpg", nil).Once()
	mockRepo.On("SetImage", uint(3), uint(1), "new.jpg").Return(nil).Once()
	images.On("Remove", "old.png").Return(nil).Once()

	name, err := service.UploadDishImage(ctx, 3, 1, "ramen.jpg", strings.NewReader("jpg"))
	require.NoError(t, err)
	assert.Equal(t, "new.jpg", name)

	images.On("Save", "menu.pdf").Return("", storage.ErrUnsupportedType).Once()
	_, err = service.UploadDishImage(ctx, 3, 1, "menu.pdf", strings.NewReader("pdf"))
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = service.UploadDishImage(ctx, 4, 1, "ramen.jpg", strings.NewReader("jpg"))
	assert.ErrorIs(t, err, services.ErrDishNotFound)

	mockRepo.AssertExpectations(t)
	images.AssertExpectations(t)
}

func TestCatalogService_Browse(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	open := d.merchant(t, "noodle-bar", models.MerchantApproved)
	d.merchant(t, "Dumpling House", models.MerchantApproved)
	pending := d.merchant(t, "noodle-pending", models.MerchantPending)
	d.dish(t, open.ID, "Ramen", "12.00", 1)
	hidden := d.dish(t, open.ID, "Udon", "11.00", 1)
	require.NoError(t, d.store.Dishes().SetStatus(ctx, open.ID, hidden.ID, models.DishDelisted))

	service := services.NewCatalogService(d.store.Merchants(), d.store.Dishes(), nil)

	all, err := service.ListMerchants(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := service.ListMerchants(ctx, "NOODLE")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, open.ID, found[0].ID)

	none, err := service.ListMerchants(ctx, "100%")
	require.NoError(t, err)
	assert.Empty(t, none)

	merchant, menu, err := service.MenuOf(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, "noodle-bar", merchant.Name)
	require.Len(t, menu, 1)
	assert.Equal(t, "Ramen", menu[0].Name)

	own, err := service.OwnDishes(ctx, open.ID)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	_, _, err = service.MenuOf(ctx, pending.ID)
	assert.ErrorIs(t, err, services.ErrMerchantUnavailable)
	_, _, err = service.MenuOf(ctx, 999)
	assert.ErrorIs(t, err, services.ErrMerchantUnavailable)
}
