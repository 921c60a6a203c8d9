package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"food-ordering-api/config"
	"food-ordering-api/models"
	"food-ordering-api/routes"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	config.DB = db
	config.JWTSecret = []byte("test_secret")
	config.Cfg.TokenTTL = 1

	r := gin.New()
	routes.SetupRoutes(r)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return m
}

// register creates an account through the API and returns its token and id.
func register(t *testing.T, r *gin.Engine, username string, role models.UserRole) (string, uint) {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"password": "secret123",
		"role":     role,
		"name":     username,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", username, w.Code, w.Body.String())
	}
	resp := decode(t, w)
	token := resp["token"].(string)
	user := resp["user"].(map[string]any)
	return token, uint(user["id"].(float64))
}

func seedRestaurant(t *testing.T, ownerID uint, name string) models.Restaurant {
	t.Helper()
	rest := models.Restaurant{OwnerID: ownerID, Name: name}
	if err := config.DB.Create(&rest).Error; err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}
	return rest
}

func seedMenuItem(t *testing.T, restaurantID uint, name string, price float64) models.MenuItem {
	t.Helper()
	item := models.MenuItem{RestaurantID: restaurantID, Name: name, Price: price}
	if err := config.DB.Create(&item).Error; err != nil {
		t.Fatalf("seed menu item: %v", err)
	}
	return item
}

func TestRegisterAndLogin(t *testing.T) {
	r := setupRouter(t)

	token, _ := register(t, r, "alice", models.RoleCustomer)
	if token == "" {
		t.Fatal("registration returned no token")
	}

	// Duplicate username
	w := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice", "password": "secret123", "role": "customer", "name": "Alice Two",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", w.Code)
	}
	if decode(t, w)["code"] != "duplicate_username" {
		t.Errorf("duplicate register code = %v", decode(t, w)["code"])
	}

	// Role outside the enum
	w = do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "eve", "password": "secret123", "role": "superuser", "name": "Eve",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid role status = %d, want 400", w.Code)
	}

	// Login happy path and mismatch
	w = do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "secret123"})
	if w.Code != http.StatusOK {
		t.Errorf("login status = %d, want 200", w.Code)
	}
	w = do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong-pass"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", w.Code)
	}
	w = do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "nobody", "password": "secret123"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unknown user status = %d, want 401", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodGet, "/api/orders", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 401", w.Code)
	}
	w = do(t, r, http.MethodGet, "/api/orders", "not-a-jwt", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", w.Code)
	}
}

func TestPasswordsAreHashed(t *testing.T) {
	r := setupRouter(t)
	_, id := register(t, r, "alice", models.RoleCustomer)

	var user models.User
	if err := config.DB.First(&user, id).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.PasswordHash == "secret123" {
		t.Fatal("password stored in clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAdminCreateRestaurant(t *testing.T) {
	r := setupRouter(t)
	adminToken, _ := register(t, r, "root", models.RoleAdmin)
	custToken, custID := register(t, r, "alice", models.RoleCustomer)
	_, ownerID := register(t, r, "bob", models.RoleRestaurant)

	// Owner with the wrong role
	w := do(t, r, http.MethodPost, "/api/admin/restaurants", adminToken, gin.H{
		"name": "Bad Diner", "owner_id": custID,
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("invalid owner status = %d, want 403", w.Code)
	}
	if decode(t, w)["code"] != "invalid_owner" {
		t.Errorf("invalid owner code = %v", decode(t, w)["code"])
	}
	var n int64
	config.DB.Model(&models.Restaurant{}).Count(&n)
	if n != 0 {
		t.Errorf("catalog changed after rejected creation: %d restaurants", n)
	}

	// Non-admin caller
	w = do(t, r, http.MethodPost, "/api/admin/restaurants", custToken, gin.H{
		"name": "Sneaky Diner", "owner_id": ownerID,
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", w.Code)
	}

	// Happy path
	w = do(t, r, http.MethodPost, "/api/admin/restaurants", adminToken, gin.H{
		"name": "Elm Street Diner", "cuisine_type": "american", "owner_id": ownerID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create restaurant status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestAddMenuItemOwnership(t *testing.T) {
	r := setupRouter(t)
	ownerToken, ownerID := register(t, r, "bob", models.RoleRestaurant)
	_, otherID := register(t, r, "mallory", models.RoleRestaurant)
	mine := seedRestaurant(t, ownerID, "Elm Street Diner")
	theirs := seedRestaurant(t, otherID, "Rival Grill")

	// Not the caller's restaurant
	w := do(t, r, http.MethodPost, "/api/restaurant/menu", ownerToken, gin.H{
		"restaurant_id": theirs.ID, "name": "Burger", "price": 5.0,
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign restaurant status = %d, want 403", w.Code)
	}
	var n int64
	config.DB.Model(&models.MenuItem{}).Count(&n)
	if n != 0 {
		t.Errorf("menu item persisted after forbidden request")
	}

	// Negative price
	w = do(t, r, http.MethodPost, "/api/restaurant/menu", ownerToken, gin.H{
		"restaurant_id": mine.ID, "name": "Burger", "price": -1.0,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative price status = %d, want 400", w.Code)
	}

	// Happy path
	w = do(t, r, http.MethodPost, "/api/restaurant/menu", ownerToken, gin.H{
		"restaurant_id": mine.ID, "name": "Burger", "price": 5.0, "category": "mains",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add menu item status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestGetMenu(t *testing.T) {
	r := setupRouter(t)
	_, ownerID := register(t, r, "bob", models.RoleRestaurant)
	rest := seedRestaurant(t, ownerID, "Elm Street Diner")

	// Unknown restaurant
	w := do(t, r, http.MethodGet, "/api/restaurants/9999/menu", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown restaurant status = %d, want 404", w.Code)
	}

	// Empty menu is a valid result
	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/restaurants/%d/menu", rest.ID), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("empty menu status = %d, want 200", w.Code)
	}
	if resp := decode(t, w); resp["count"].(float64) != 0 {
		t.Errorf("empty menu count = %v, want 0", resp["count"])
	}
}

func TestOrderFlowOverHTTP(t *testing.T) {
	r := setupRouter(t)
	custToken, _ := register(t, r, "alice", models.RoleCustomer)
	ownerToken, ownerID := register(t, r, "bob", models.RoleRestaurant)
	courierToken, _ := register(t, r, "dave", models.RoleDelivery)
	rest := seedRestaurant(t, ownerID, "Elm Street Diner")
	burger := seedMenuItem(t, rest.ID, "Burger", 5.00)

	// Customer places the order
	w := do(t, r, http.MethodPost, "/api/orders", custToken, gin.H{
		"restaurant_id":    rest.ID,
		"delivery_address": "12 Elm St",
		"items":            []gin.H{{"menu_item_id": burger.ID, "quantity": 2}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create order status = %d, body %s", w.Code, w.Body.String())
	}
	order := decode(t, w)["order"].(map[string]any)
	if order["total_amount"].(float64) != 10.00 {
		t.Errorf("total_amount = %v, want 10.00", order["total_amount"])
	}
	if order["status"].(string) != "pending" {
		t.Errorf("status = %v, want pending", order["status"])
	}
	orderPath := fmt.Sprintf("/api/orders/%v/status", order["id"])

	// A courier cannot advance the order yet; the table has no pending→accepted
	w = do(t, r, http.MethodPut, orderPath, courierToken, gin.H{"status": "accepted"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("early claim status = %d, want 422", w.Code)
	}

	// Customer may not confirm their own order
	w = do(t, r, http.MethodPut, orderPath, custToken, gin.H{"status": "confirmed"})
	if w.Code != http.StatusForbidden {
		t.Errorf("customer confirm status = %d, want 403", w.Code)
	}

	// Restaurant walks it to ready
	for _, status := range []string{"confirmed", "preparing", "ready"} {
		w = do(t, r, http.MethodPut, orderPath, ownerToken, gin.H{"status": status})
		if w.Code != http.StatusOK {
			t.Fatalf("transition to %s status = %d, body %s", status, w.Code, w.Body.String())
		}
	}

	// The order shows up for couriers
	w = do(t, r, http.MethodGet, "/api/delivery/available", courierToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("available status = %d", w.Code)
	}
	if resp := decode(t, w); resp["count"].(float64) != 1 {
		t.Errorf("available count = %v, want 1", resp["count"])
	}

	// Claim and carry to delivered
	for _, status := range []string{"accepted", "picked_up", "delivered"} {
		w = do(t, r, http.MethodPut, orderPath, courierToken, gin.H{"status": status})
		if w.Code != http.StatusOK {
			t.Fatalf("transition to %s status = %d, body %s", status, w.Code, w.Body.String())
		}
	}

	// Role-scoped listings
	w = do(t, r, http.MethodGet, "/api/orders", custToken, nil)
	if resp := decode(t, w); resp["count"].(float64) != 1 {
		t.Errorf("customer order count = %v, want 1", resp["count"])
	}
	w = do(t, r, http.MethodGet, "/api/orders", ownerToken, nil)
	resp := decode(t, w)
	if resp["count"].(float64) != 1 {
		t.Errorf("restaurant order count = %v, want 1", resp["count"])
	}
	if resp["order_summary"].(map[string]any)["delivered"].(float64) != 1 {
		t.Errorf("order_summary = %v, want delivered:1", resp["order_summary"])
	}
}

func TestOrderCreationRoleAndScope(t *testing.T) {
	r := setupRouter(t)
	custToken, _ := register(t, r, "alice", models.RoleCustomer)
	otherToken, _ := register(t, r, "carol", models.RoleCustomer)
	ownerToken, ownerID := register(t, r, "bob", models.RoleRestaurant)
	rest := seedRestaurant(t, ownerID, "Elm Street Diner")
	burger := seedMenuItem(t, rest.ID, "Burger", 5.00)

	// Only customers place orders
	w := do(t, r, http.MethodPost, "/api/orders", ownerToken, gin.H{
		"restaurant_id":    rest.ID,
		"delivery_address": "12 Elm St",
		"items":            []gin.H{{"menu_item_id": burger.ID, "quantity": 1}},
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("owner create order status = %d, want 403", w.Code)
	}

	w = do(t, r, http.MethodPost, "/api/orders", custToken, gin.H{
		"restaurant_id":    rest.ID,
		"delivery_address": "12 Elm St",
		"items":            []gin.H{{"menu_item_id": burger.ID, "quantity": 1}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create order status = %d, body %s", w.Code, w.Body.String())
	}

	// Another customer's view is empty
	w = do(t, r, http.MethodGet, "/api/orders", otherToken, nil)
	if resp := decode(t, w); resp["count"].(float64) != 0 {
		t.Errorf("foreign customer order count = %v, want 0", resp["count"])
	}
}

func TestAdminListUsers(t *testing.T) {
	r := setupRouter(t)
	adminToken, _ := register(t, r, "root", models.RoleAdmin)
	custToken, _ := register(t, r, "alice", models.RoleCustomer)
	register(t, r, "dave", models.RoleDelivery)

	w := do(t, r, http.MethodGet, "/api/admin/users", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list users status = %d", w.Code)
	}
	if resp := decode(t, w); resp["count"].(float64) != 3 {
		t.Errorf("user count = %v, want 3", resp["count"])
	}

	w = do(t, r, http.MethodGet, "/api/admin/users?role=delivery", adminToken, nil)
	if resp := decode(t, w); resp["count"].(float64) != 1 {
		t.Errorf("filtered user count = %v, want 1", resp["count"])
	}

	w = do(t, r, http.MethodGet, "/api/admin/users", custToken, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("non-admin list users status = %d, want 403", w.Code)
	}
}
