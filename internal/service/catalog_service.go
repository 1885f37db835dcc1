package service

import "tableside/internal/domain"

type RestaurantService struct {
	repo RestaurantRepository
}

func NewRestaurantService(repo RestaurantRepository) *RestaurantService {
	return &RestaurantService{repo: repo}
}

func (s *RestaurantService) Create(rest *domain.Restaurant) error {
	return s.repo.CreateRestaurant(rest)
}

func (s *RestaurantService) List() ([]domain.Restaurant, error) {
	return s.repo.ListRestaurants()
}

func (s *RestaurantService) Get(id int) (*domain.Restaurant, error) {
	return s.repo.GetRestaurant(id)
}

func (s *RestaurantService) Update(rest *domain.Restaurant) error {
	return s.repo.UpdateRestaurant(rest)
}

func (s *RestaurantService) Delete(id int) (int64, error) {
	return s.repo.DeleteRestaurant(id)
}

func (s *RestaurantService) UpdateImage(id int, imageURL string) error {
	return s.repo.UpdateRestaurantImage(id, imageURL)
}

var _ RestaurantServiceInterface = (*RestaurantService)(nil)

type ProductService struct {
	repo ProductRepository
}

func NewProductService(repo ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) Create(product *domain.Product) error {
	return s.repo.CreateProduct(product)
}

func (s *ProductService) List(restaurantID int) ([]domain.Product, error) {
	return s.repo.ListProducts(restaurantID)
}

func (s *ProductService) Get(restaurantID, productID int) (*domain.Product, error) {
	return s.repo.GetProduct(restaurantID, productID)
}

func (s *ProductService) Update(product *domain.Product) error {
	return s.repo.UpdateProduct(product)
}

func (s *ProductService) Delete(restaurantID, productID int) (int64, error) {
	return s.repo.DeleteProduct(restaurantID, productID)
}

func (s *ProductService) UpdateImage(restaurantID, productID int, imageURL string) error {
	return s.repo.UpdateProductImage(restaurantID, productID, imageURL)
}

var _ ProductServiceInterface = (*ProductService)(nil)
