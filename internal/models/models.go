package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order status values. StatusOrderPlaced is the initial status; StatusCompleted
// is terminal. Cancellation removes the record instead of transitioning it.
const (
	StatusOrderPlaced = "order_placed"
	StatusCompleted   = "completed"
)

// Payment types accepted on an order.
const (
	PaymentCOD        = "COD"
	PaymentNetBanking = "net_banking"
)

// Roles a caller can act under. The role is derived from the route being
// called, never from client input.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

type Otp struct {
	Code     string    `bson:"code,omitempty"`
	Validity time.Time `bson:"validity,omitempty"`
}

type ResetToken struct {
	Hash     string    `bson:"hash,omitempty"`
	Validity time.Time `bson:"validity,omitempty"`
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone" json:"phone"`
	RollNo       string             `bson:"rollno" json:"rollno"`
	Hostel       string             `bson:"hostel" json:"hostel"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Verified     bool               `bson:"verified" json:"verified"`
	Otp          Otp                `bson:"otp,omitempty" json:"-"`
	ResetToken   ResetToken         `bson:"reset_token,omitempty" json:"-"`
	Picture      string             `bson:"picture,omitempty" json:"picture,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"desc" json:"desc"`
	Image       string             `bson:"img,omitempty" json:"img,omitempty"`
	Categories  []string           `bson:"categories,omitempty" json:"categories,omitempty"`
	Size        string             `bson:"size,omitempty" json:"size,omitempty"`
	Color       string             `bson:"color,omitempty" json:"color,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	Seller      primitive.ObjectID `bson:"seller" json:"seller"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}

// Order denormalizes the seller reference and snapshots the buyer contact
// details and price at placement time, so later product or profile edits
// (or a product deletion) do not change what was agreed at purchase.
type Order struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Item         primitive.ObjectID `bson:"item" json:"item"`
	Buyer        primitive.ObjectID `bson:"buyer" json:"buyer"`
	Seller       primitive.ObjectID `bson:"seller" json:"seller"`
	BuyerPhone   string             `bson:"buyer_phone" json:"buyerPhone"`
	BuyerAddress string             `bson:"buyer_address" json:"buyerAddress"`
	PaymentType  string             `bson:"payment_type" json:"paymentType"`
	Status       string             `bson:"status" json:"status"`
	TotalAmount  float64            `bson:"total_amount" json:"totalAmount"`
	PaymentRef   string             `bson:"payment_ref,omitempty" json:"paymentRef,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}
