package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"tableside/internal/domain"
	"tableside/internal/service"
)

type Handler struct {
	Identity    service.IdentityRepository
	Restaurants service.RestaurantServiceInterface
	Products    service.ProductServiceInterface
	Carts       service.CartServiceInterface
	Orders      service.OrderServiceInterface
	Stats       service.StatsServiceInterface
}

func NewHandler(
	identity service.IdentityRepository,
	restSvc service.RestaurantServiceInterface,
	productSvc service.ProductServiceInterface,
	cartSvc service.CartServiceInterface,
	orderSvc service.OrderServiceInterface,
	statsSvc service.StatsServiceInterface,
) *Handler {
	return &Handler{
		Identity:    identity,
		Restaurants: restSvc,
		Products:    productSvc,
		Carts:       cartSvc,
		Orders:      orderSvc,
		Stats:       statsSvc,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/api/accounts", h.createAccount).Methods("POST")
	r.HandleFunc("/api/accounts/{accountId}/cart", h.getCart).Methods("GET")
	r.HandleFunc("/api/accounts/{accountId}/cart", h.clearCart).Methods("DELETE")
	r.HandleFunc("/api/accounts/{accountId}/cart/items", h.addCartItem).Methods("POST")
	r.HandleFunc("/api/accounts/{accountId}/cart/items/{productId}", h.updateCartItem).Methods("PUT")
	r.HandleFunc("/api/accounts/{accountId}/cart/items/{productId}", h.removeCartItem).Methods("DELETE")
	r.HandleFunc("/api/accounts/{accountId}/checkout", h.checkout).Methods("POST")

	r.HandleFunc("/api/orders", h.createOrder).Methods("POST")
	r.HandleFunc("/api/orders", h.getOrders).Methods("GET")
	r.HandleFunc("/api/orders/{id}", h.getOrder).Methods("GET")
	r.HandleFunc("/api/orders/{id}/status", h.setOrderStatus).Methods("PUT")
	r.HandleFunc("/api/orders/{id}/qrcode", h.getOrderQRCode).Methods("GET")

	r.HandleFunc("/api/statistics", h.getStatistics).Methods("GET")

	r.HandleFunc("/api/restaurants", h.createRestaurant).Methods("POST")
	r.HandleFunc("/api/restaurants", h.getRestaurants).Methods("GET")
	r.HandleFunc("/api/restaurants/{id}", h.getRestaurant).Methods("GET")
	r.HandleFunc("/api/restaurants/{id}", h.updateRestaurant).Methods("PUT")
	r.HandleFunc("/api/restaurants/{id}", h.deleteRestaurant).Methods("DELETE")
	r.HandleFunc("/api/restaurants/{id}/image", h.uploadRestaurantImage).Methods("POST")

	r.HandleFunc("/api/restaurants/{restaurantId}/products", h.createProduct).Methods("POST")
	r.HandleFunc("/api/restaurants/{restaurantId}/products", h.getRestaurantProducts).Methods("GET")
	r.HandleFunc("/api/restaurants/{restaurantId}/products/{productId}", h.getProduct).Methods("GET")
	r.HandleFunc("/api/restaurants/{restaurantId}/products/{productId}", h.updateProduct).Methods("PUT")
	r.HandleFunc("/api/restaurants/{restaurantId}/products/{productId}", h.deleteProduct).Methods("DELETE")
	r.HandleFunc("/api/restaurants/{restaurantId}/products/{productId}/image", h.uploadProductImage).Methods("POST")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "tableside",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// writeBusinessError maps the service sentinels onto HTTP statuses and emits
// the error kind plus message as the whole caller-visible payload.
func writeBusinessError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := "internal"

	switch {
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrRestaurantNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrItemNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrInvalidQuantity):
		status, kind = http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, service.ErrInvalidTransition):
		status, kind = http.StatusConflict, "invalid_transition"
	case errors.Is(err, service.ErrConflict):
		status, kind = http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrInconsistentCart):
		status, kind = http.StatusInternalServerError, "inconsistent"
	}

	message := err.Error()
	if status == http.StatusInternalServerError && kind == "internal" {
		// Do not leak driver internals to the caller.
		message = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var account domain.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Identity.CreateAccount(&account); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	accountID, _ := strconv.Atoi(mux.Vars(r)["accountId"])
	cart, err := h.Carts.Get(accountID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	accountID, _ := strconv.Atoi(mux.Vars(r)["accountId"])

	var req struct {
		ProductID int `json:"product_id"`
		Quantity  int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}

	cart, err := h.Carts.AddItem(accountID, req.ProductID, req.Quantity)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	accountID, _ := strconv.Atoi(vars["accountId"])
	productID, _ := strconv.Atoi(vars["productId"])

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}

	cart, err := h.Carts.UpdateItem(accountID, productID, req.Quantity)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	accountID, _ := strconv.Atoi(vars["accountId"])
	productID, _ := strconv.Atoi(vars["productId"])

	cart, err := h.Carts.RemoveItem(accountID, productID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	accountID, _ := strconv.Atoi(mux.Vars(r)["accountId"])
	if err := h.Carts.Clear(accountID); err != nil {
		writeBusinessError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID    int                      `json:"account_id"`
		RestaurantID int                      `json:"restaurant_id"`
		Items        []domain.OrderLineInput  `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}

	order, err := h.Orders.Place(req.AccountID, req.RestaurantID, req.Items)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	accountID, _ := strconv.Atoi(mux.Vars(r)["accountId"])

	var req struct {
		RestaurantID int `json:"restaurant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}

	order, err := h.Orders.PlaceFromCart(accountID, req.RestaurantID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) getOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, _ := strconv.Atoi(mux.Vars(r)["id"])
	order, err := h.Orders.Get(orderID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}

	status, ok := domain.ParseStatus(req.Status)
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown status %q", req.Status), http.StatusBadRequest)
		return
	}

	order, err := h.Orders.SetStatus(orderID, status)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) getOrderQRCode(w http.ResponseWriter, r *http.Request) {
	orderID, _ := strconv.Atoi(mux.Vars(r)["id"])

	qr, err := h.Orders.QRCodePNG(orderID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(qr)
}

func (h *Handler) getStatistics(w http.ResponseWriter, r *http.Request) {
	restaurantID := 0
	if raw := r.URL.Query().Get("restaurant_id"); raw != "" {
		restaurantID, _ = strconv.Atoi(raw)
	}

	stats, err := h.Stats.Statistics(restaurantID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var rest domain.Restaurant
	if err := json.NewDecoder(r.Body).Decode(&rest); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Restaurants.Create(&rest); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rest)
}

func (h *Handler) getRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.Restaurants.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, restaurants)
}

func (h *Handler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	rest, err := h.Restaurants.Get(id)
	if err != nil {
		http.Error(w, "Restaurant not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rest)
}

func (h *Handler) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var rest domain.Restaurant
	if err := json.NewDecoder(r.Body).Decode(&rest); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rest.ID = id
	if err := h.Restaurants.Update(&rest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Restaurant not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rest)
}

func (h *Handler) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	rows, err := h.Restaurants.Delete(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rows == 0 {
		http.Error(w, "Restaurant not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) uploadRestaurantImage(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	imageURL, ok := h.saveUpload(w, r, fmt.Sprintf("restaurant_%d", id))
	if !ok {
		return
	}
	if err := h.Restaurants.UpdateImage(id, imageURL); err != nil {
		http.Error(w, "Failed to update restaurant", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"image_url": imageURL})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	restaurantID, _ := strconv.Atoi(mux.Vars(r)["restaurantId"])

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	product.RestaurantID = restaurantID

	if err := h.Products.Create(&product); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) getRestaurantProducts(w http.ResponseWriter, r *http.Request) {
	restaurantID, _ := strconv.Atoi(mux.Vars(r)["restaurantId"])
	products, err := h.Products.List(restaurantID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	restaurantID, _ := strconv.Atoi(vars["restaurantId"])
	productID, _ := strconv.Atoi(vars["productId"])

	product, err := h.Products.Get(restaurantID, productID)
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	restaurantID, _ := strconv.Atoi(vars["restaurantId"])
	productID, _ := strconv.Atoi(vars["productId"])

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	product.ID = productID
	product.RestaurantID = restaurantID

	if err := h.Products.Update(&product); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	restaurantID, _ := strconv.Atoi(vars["restaurantId"])
	productID, _ := strconv.Atoi(vars["productId"])

	rows, err := h.Products.Delete(restaurantID, productID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rows == 0 {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) uploadProductImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	restaurantID, _ := strconv.Atoi(vars["restaurantId"])
	productID, _ := strconv.Atoi(vars["productId"])

	imageURL, ok := h.saveUpload(w, r, fmt.Sprintf("product_%d_%d", restaurantID, productID))
	if !ok {
		return
	}
	if err := h.Products.UpdateImage(restaurantID, productID, imageURL); err != nil {
		http.Error(w, "Failed to update product", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Image uploaded successfully",
		"image_url": imageURL,
	})
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// saveUpload stores a multipart image under ./uploads and returns its public
// URL. It writes the HTTP error response itself on failure.
func (h *Handler) saveUpload(w http.ResponseWriter, r *http.Request, prefix string) (string, bool) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "File too large", http.StatusBadRequest)
		return "", false
	}

	file, handler, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "Error retrieving the file", http.StatusBadRequest)
		return "", false
	}
	defer file.Close()

	if !allowedImageTypes[handler.Header.Get("Content-Type")] {
		http.Error(w, "Invalid file type. Only JPEG, PNG, GIF, WebP allowed", http.StatusBadRequest)
		return "", false
	}

	uploadDir := "./uploads"
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		http.Error(w, "Failed to create upload directory", http.StatusInternalServerError)
		return "", false
	}

	filename := fmt.Sprintf("%s_%s", prefix, handler.Filename)
	dst, err := os.Create(uploadDir + "/" + filename)
	if err != nil {
		http.Error(w, "Failed to create file", http.StatusInternalServerError)
		return "", false
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return "", false
	}

	return "/uploads/" + filename, true
}
