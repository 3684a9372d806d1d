package httphandler

import (
	"time"

	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

type (
	SignUpRequest struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
	}

	SignInRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	ProfileUpdateRequest struct {
		Name    *string `json:"name"`
		Phone   *string `json:"phone"`
		Address *string `json:"address"`
	}

	User struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
		Avatar  string `json:"avatar"`
	}

	Session struct {
		Token     string    `json:"token"`
		UserID    string    `json:"user_id"`
		CreatedAt time.Time `json:"created_at"`
	}

	SignUpResponse struct {
		User    User    `json:"user"`
		Session Session `json:"session"`
	}
)

type (
	Category struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	MenuItem struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Price       string   `json:"price"`
		ImageRef    string   `json:"image_ref"`
		Category    string   `json:"category"`
		Rating      *float64 `json:"rating,omitempty"`
		Calories    *int     `json:"calories,omitempty"`
		Protein     *int     `json:"protein,omitempty"`
	}

	PopularMenuItem struct {
		MenuItem
		Added int64 `json:"added"`
	}
)

type (
	AddToCartRequest struct {
		ProductID        string   `json:"product_id"`
		CustomizationIDs []string `json:"customization_ids"`
		Quantity         int      `json:"quantity"`
	}

	CartItemRefRequest struct {
		ProductID        string   `json:"product_id"`
		CustomizationIDs []string `json:"customization_ids"`
	}

	Customization struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Price string `json:"price"`
		Kind  string `json:"kind"`
	}

	CartItem struct {
		ProductID      string          `json:"product_id"`
		Name           string          `json:"name"`
		Price          string          `json:"price"`
		ImageRef       string          `json:"image_ref"`
		Customizations []Customization `json:"customizations"`
		Quantity       int             `json:"quantity"`
		UnitPrice      string          `json:"unit_price"`
		LineTotal      string          `json:"line_total"`
	}

	Cart struct {
		Items      []CartItem `json:"items"`
		TotalItems int        `json:"total_items"`
		TotalPrice string     `json:"total_price"`
		Version    uint64     `json:"version"`
	}

	OrderSummary struct {
		Subtotal    string `json:"subtotal"`
		DeliveryFee string `json:"delivery_fee"`
		Discount    string `json:"discount"`
		Total       string `json:"total"`
	}

	CartSummaryResponse struct {
		Cart    Cart         `json:"cart"`
		Summary OrderSummary `json:"summary"`
	}

	// A CartMutationResponse reports whether the change was applied,
	// a change of a missing item is not an error.
	CartMutationResponse struct {
		Cart    Cart `json:"cart"`
		Applied bool `json:"applied"`
	}
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(moneyPlaces)
}

func fromUser(u domain.User) User {
	return User{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Phone:   u.Phone,
		Address: u.Address,
		Avatar:  u.Avatar,
	}
}

func fromSession(s domain.Session) Session {
	return Session{Token: s.Token, UserID: s.UserID, CreatedAt: s.CreatedAt}
}

func fromCategories(vs []domain.Category) []Category {
	res := make([]Category, len(vs))
	for i, v := range vs {
		res[i] = Category{ID: v.ID, Name: v.Name, Description: v.Description}
	}
	return res
}

func fromMenuItem(v domain.MenuItem) MenuItem {
	return MenuItem{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		Price:       money(v.Price),
		ImageRef:    v.ImageRef,
		Category:    v.Category,
		Rating:      v.Rating,
		Calories:    v.Calories,
		Protein:     v.Protein,
	}
}

func fromMenu(vs []domain.MenuItem) []MenuItem {
	res := make([]MenuItem, len(vs))
	for i, v := range vs {
		res[i] = fromMenuItem(v)
	}
	return res
}

func fromPopularMenu(vs []domain.PopularMenuItem) []PopularMenuItem {
	res := make([]PopularMenuItem, len(vs))
	for i, v := range vs {
		res[i] = PopularMenuItem{MenuItem: fromMenuItem(v.MenuItem), Added: v.Added}
	}
	return res
}

func fromCart(c domain.Cart) Cart {
	res := Cart{
		Items:      make([]CartItem, len(c.Items)),
		TotalItems: c.TotalItems,
		TotalPrice: money(c.TotalPrice),
		Version:    c.Version,
	}
	for i, v := range c.Items {
		item := CartItem{
			ProductID:      v.ProductID,
			Name:           v.Name,
			Price:          money(v.Price),
			ImageRef:       v.ImageRef,
			Customizations: make([]Customization, len(v.Customizations)),
			Quantity:       v.Quantity,
			UnitPrice:      money(v.UnitPrice()),
			LineTotal:      money(v.LineTotal()),
		}
		for j, c := range v.Customizations {
			item.Customizations[j] = Customization{
				ID:    c.ID,
				Name:  c.Name,
				Price: money(c.Price),
				Kind:  string(c.Kind),
			}
		}
		res.Items[i] = item
	}
	return res
}

func fromSummary(s domain.OrderSummary) OrderSummary {
	return OrderSummary{
		Subtotal:    money(s.Subtotal),
		DeliveryFee: money(s.DeliveryFee),
		Discount:    money(s.Discount),
		Total:       money(s.Total),
	}
}
