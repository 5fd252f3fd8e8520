package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	UserStatusActive = "active"

	ProductStatusAvailable = "available"

	DiscountStatusActive   = "active"
	DiscountStatusInactive = "inactive"

	DiscountKindPercentage = "%"
	DiscountKindFixed      = "CLP"
)

type User struct {
	ID                    uint       `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name                  string     `gorm:"not null"                  json:"nombre"`
	Email                 string     `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash          string     `gorm:"not null"                  json:"-"`
	Phone                 string     `gorm:"not null"                  json:"telefono"`
	Address               string     `gorm:"not null"                  json:"direccion"`
	Role                  string     `gorm:"not null"                  json:"tipo_usuario"`
	ImageURL              *string    `                                 json:"imagen_url"`
	Status                string     `gorm:"not null;default:active"   json:"estado"`
	RegisteredAt          time.Time  `gorm:"not null"                  json:"fecha_registro"`
	UpdatedAt             *time.Time `                                 json:"fecha_actualizacion,omitempty"`
	RefreshTokenHash      *string    `gorm:"index"                     json:"-"`
	RefreshTokenExpiresAt *time.Time `                                 json:"-"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"        json:"id_producto"`
	UserID      uint            `gorm:"index;not null"                  json:"id_usuario"`
	Name        string          `gorm:"not null"                        json:"nombre_producto"`
	Description string          `gorm:"not null;default:''"             json:"descripcion"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"     json:"precio"`
	Stock       int             `gorm:"not null;check:stock >= 0"       json:"stock"`
	Category    string          `gorm:"index;not null"                  json:"categoria"`
	Images      ImageList       `                                       json:"imagenes"`
	Status      string          `gorm:"not null;default:available"      json:"estado"`
}

type CartItem struct {
	UserID    uint            `gorm:"primaryKey;autoIncrement:false"            json:"id_usuario"`
	ProductID uint            `gorm:"primaryKey;autoIncrement:false"            json:"id_producto"`
	Quantity  int             `gorm:"not null;check:quantity > 0"               json:"cantidad"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"               json:"precio_unitario"`
	Total     decimal.Decimal `gorm:"-"                                         json:"total"`
	CreatedAt time.Time       `                                                 json:"created_at"`
	Product   *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"producto,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (c *CartItem) computeTotal() {
	c.Total = c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

func (c *CartItem) AfterFind(tx *gorm.DB) error {
	c.computeTotal()
	return nil
}

func (c *CartItem) AfterCreate(tx *gorm.DB) error {
	c.computeTotal()
	return nil
}

type DiscountCode struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"       json:"id"`
	UserID    uint            `gorm:"index;not null"                 json:"usuario_id"`
	Code      string          `gorm:"uniqueIndex;not null"           json:"codigo"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null"    json:"descuento"`
	Kind      string          `gorm:"not null"                       json:"tipo_descuento"`
	UseCount  int             `gorm:"not null;default:0"             json:"uso_actual"`
	MaxUses   int             `gorm:"not null"                       json:"uso_maximo"`
	Status    string          `gorm:"index;not null;default:active"  json:"estado"`
	ExpiresAt time.Time       `gorm:"not null"                       json:"fecha_expiracion"`
	CreatedAt time.Time       `                                      json:"created_at"`
}

// All returns every model in migration order.
func All() []any {
	return []any{&User{}, &Product{}, &CartItem{}, &DiscountCode{}}
}
