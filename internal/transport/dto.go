package transport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"nombre"`
	Phone    string `json:"telefono"`
	Address  string `json:"direccion"`
	UserType string `json:"tipo_usuario"`
}

type RegisterResponse struct {
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"nombre"`
}

type LoginResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	User         LoginUser `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type UpdateProfileRequest struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Phone    string `json:"telefono"`
	Address  string `json:"direccion"`
	ImageURL string `json:"imagen_url"`
}

type ProfileResponse struct {
	ID           uint       `json:"id"`
	Name         string     `json:"nombre"`
	Email        string     `json:"email"`
	Phone        string     `json:"telefono"`
	Address      string     `json:"direccion"`
	UserType     string     `json:"tipo_usuario"`
	ImageURL     *string    `json:"imagen_url"`
	RegisteredAt time.Time  `json:"fecha_registro"`
	Status       string     `json:"estado"`
	UpdatedAt    *time.Time `json:"fecha_actualizacion,omitempty"`
}

func NewProfileResponse(u *models.User) ProfileResponse {
	return ProfileResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Address:      u.Address,
		UserType:     u.Role,
		ImageURL:     u.ImageURL,
		RegisteredAt: u.RegisteredAt,
		Status:       u.Status,
		UpdatedAt:    u.UpdatedAt,
	}
}

type ProductRequest struct {
	Name        string           `json:"nombre_producto"`
	Description string           `json:"descripcion"`
	Price       *decimal.Decimal `json:"precio"`
	Stock       *int             `json:"stock"`
	Category    string           `json:"categoria"`
	Images      []string         `json:"imagenes"`
	Status      string           `json:"estado"`
}

// ProductsEnvelope wraps every product response.
type ProductsEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

func ProductList(items []models.Product) ProductsEnvelope {
	n := len(items)
	return ProductsEnvelope{Success: true, Data: items, Count: &n}
}

type AddToCartRequest struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

type UpdateCartRequest struct {
	Quantity int `json:"quantity"`
}

// CartLine is a cart row joined with the product it refers to.
type CartLine struct {
	UserID       uint             `json:"id_usuario"`
	ProductID    uint             `json:"id_producto"`
	Quantity     int              `json:"cantidad"`
	UnitPrice    decimal.Decimal  `json:"precio_unitario"`
	Total        decimal.Decimal  `json:"total"`
	CreatedAt    time.Time        `json:"fecha_agregado"`
	ProductName  string           `json:"nombre_producto,omitempty"`
	Description  string           `json:"descripcion,omitempty"`
	Images       models.ImageList `json:"imagenes,omitempty"`
	ProductPrice *decimal.Decimal `json:"precio_producto,omitempty"`
}

func NewCartLine(it models.CartItem) CartLine {
	line := CartLine{
		UserID:    it.UserID,
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		UnitPrice: it.UnitPrice,
		Total:     it.Total,
		CreatedAt: it.CreatedAt,
	}
	if it.Product != nil {
		price := it.Product.Price
		line.ProductName = it.Product.Name
		line.Description = it.Product.Description
		line.Images = it.Product.Images
		line.ProductPrice = &price
	}
	return line
}

func NewCartLines(items []models.CartItem) []CartLine {
	out := make([]CartLine, 0, len(items))
	for _, it := range items {
		out = append(out, NewCartLine(it))
	}
	return out
}

type DiscountRequest struct {
	Code    string           `json:"codigo"`
	Amount  *decimal.Decimal `json:"descuento"`
	Kind    string           `json:"tipo_descuento"`
	MaxUses *int             `json:"uso_maximo"`
}

type DiscountEnvelope struct {
	Success  bool                 `json:"success"`
	Discount *models.DiscountCode `json:"discount"`
	Message  string               `json:"message,omitempty"`
}

type DiscountListEnvelope struct {
	Success   bool                  `json:"success"`
	Discounts []models.DiscountCode `json:"discounts"`
}
