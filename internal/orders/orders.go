// Package orders implements the order engine: placement with point-in-time
// snapshots, the buyer/seller authorization policy, the status state
// machine, and payment capture.
//
// Placement reads the product price and inserts the order as two separate
// store operations, so an order racing a price update may snapshot the old
// price. That window is accepted for this domain. No stock is reserved or
// decremented; concurrent orders against one product are all permitted.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/mac2503/e-tiet2/internal/models"
	"github.com/mac2503/e-tiet2/internal/payment"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository is the persistence contract for orders. List methods return a
// possibly-empty slice; no matches is not an error.
type Repository interface {
	Insert(ctx context.Context, order *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetAllByBuyer(ctx context.Context, buyerID primitive.ObjectID) ([]models.Order, error)
	GetAllBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Order, error)
	SetPaymentRef(ctx context.Context, id primitive.ObjectID, ref string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProductGetter resolves the listing being bought. Satisfied by
// catalog.Service.
type ProductGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

// UserGetter resolves the buyer profile for contact snapshots and gateway
// metadata. Satisfied by identity.Service.
type UserGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Charger captures a payment through the external gateway. Satisfied by
// payment.Client.
type Charger interface {
	Charge(ctx context.Context, p payment.ChargeParams) (*payment.Receipt, error)
}

type Service struct {
	repo     Repository
	products ProductGetter
	users    UserGetter
	charger  Charger
	errorLog *log.Logger
	now      func() time.Time
}

func NewService(repo Repository, products ProductGetter, users UserGetter, charger Charger, errorLog *log.Logger) *Service {
	return &Service{
		repo:     repo,
		products: products,
		users:    users,
		charger:  charger,
		errorLog: errorLog,
		now:      time.Now,
	}
}

// Place creates an order for the given product. The seller comes from the
// listing; buyer contact details and the price are snapshotted as of now.
// A seller cannot buy their own listing.
func (s *Service) Place(ctx context.Context, productID, buyerID primitive.ObjectID, paymentType string) (*models.Order, error) {
	switch paymentType {
	case "":
		paymentType = models.PaymentCOD
	case models.PaymentCOD, models.PaymentNetBanking:
	default:
		return nil, fmt.Errorf("%w: unknown payment type %q", models.ErrInvalidRequest, paymentType)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Seller == buyerID {
		return nil, fmt.Errorf("%w: cannot order your own product", models.ErrInvalidRequest)
	}

	buyer, err := s.users.GetByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		Item:         product.ID,
		Buyer:        buyer.ID,
		Seller:       product.Seller,
		BuyerPhone:   buyer.Phone,
		BuyerAddress: buyer.Hostel,
		PaymentType:  paymentType,
		Status:       models.StatusOrderPlaced,
		TotalAmount:  product.Price,
		CreatedAt:    s.now(),
	}
	return s.repo.Insert(ctx, order)
}

// Get returns the order if the actor is on the claimed side of it.
func (s *Service) Get(ctx context.Context, orderID, actorID primitive.ObjectID, role string) (*models.Order, error) {
	return s.authorise(ctx, orderID, actorID, role)
}

// List returns the actor's orders for the claimed role. A buyer or seller
// with no orders gets an empty slice, not an error.
func (s *Service) List(ctx context.Context, actorID primitive.ObjectID, role string) ([]models.Order, error) {
	switch role {
	case models.RoleBuyer:
		return s.repo.GetAllByBuyer(ctx, actorID)
	case models.RoleSeller:
		return s.repo.GetAllBySeller(ctx, actorID)
	default:
		return nil, models.ErrNotAuthorised
	}
}

// Cancel deletes the order outright; there is no cancelled status, so a
// repeated cancel fails with ErrNoRecord. Either side may cancel, each
// checked against its own field.
func (s *Service) Cancel(ctx context.Context, orderID, actorID primitive.ObjectID, role string) error {
	if _, err := s.authorise(ctx, orderID, actorID, role); err != nil {
		return err
	}
	return s.repo.Delete(ctx, orderID)
}

// UpdateStatus moves the order through the state machine. The status set is
// closed and the only legal transition is order_placed to completed, which
// the seller alone may perform.
func (s *Service) UpdateStatus(ctx context.Context, orderID, actorID primitive.ObjectID, status string) (*models.Order, error) {
	if status != models.StatusOrderPlaced && status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidRequest, status)
	}

	order, err := s.authorise(ctx, orderID, actorID, models.RoleSeller)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusOrderPlaced || status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", models.ErrInvalidRequest, order.Status, status)
	}
	return s.repo.UpdateStatus(ctx, orderID, status)
}

// CapturePayment charges the buyer for the order through the gateway and
// records the charge id. A gateway failure leaves the order untouched; in
// particular it never changes the status.
func (s *Service) CapturePayment(ctx context.Context, orderID, actorID primitive.ObjectID, sourceToken string) (*models.Order, error) {
	order, err := s.authorise(ctx, orderID, actorID, models.RoleBuyer)
	if err != nil {
		return nil, err
	}

	buyer, err := s.users.GetByID(ctx, order.Buyer)
	if err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, order.Item)
	if err != nil {
		return nil, err
	}

	receipt, err := s.charger.Charge(ctx, payment.ChargeParams{
		AmountMinor: int64(math.Round(order.TotalAmount * 100)),
		Description: product.Title,
		Email:       buyer.Email,
		Name:        buyer.Name,
		Address:     buyer.Hostel,
		SourceToken: sourceToken,
	})
	if err != nil {
		if errors.Is(err, models.ErrPaymentFailed) {
			s.errorLog.Printf("payment capture for order %s: %v", order.ID.Hex(), err)
			return nil, models.ErrPaymentFailed
		}
		return nil, err
	}

	if err := s.repo.SetPaymentRef(ctx, order.ID, receipt.ChargeID); err != nil {
		return nil, err
	}
	order.PaymentRef = receipt.ChargeID
	return order, nil
}

func (s *Service) authorise(ctx context.Context, orderID, actorID primitive.ObjectID, role string) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch role {
	case models.RoleBuyer:
		if order.Buyer != actorID {
			return nil, models.ErrNotAuthorised
		}
	case models.RoleSeller:
		if order.Seller != actorID {
			return nil, models.ErrNotAuthorised
		}
	default:
		return nil, models.ErrNotAuthorised
	}
	return order, nil
}
