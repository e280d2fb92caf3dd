package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/example/vapeshop/internal/models"
	"github.com/example/vapeshop/internal/repository"
)

const defaultCurrency = "UAH"

// maxOrderSubtotal bounds a single order so sums over orders stay in int64.
const maxOrderSubtotal int64 = 1_000_000_000

// CheckoutItem is one cart line.
type CheckoutItem struct {
	ProductName  string `json:"product_name"`
	VariantLabel string `json:"variant_label"`
	Quantity     int    `json:"quantity"`
	UnitPrice    int64  `json:"unit_price"`
}

// CheckoutRequest is a cart submitted for payment.
type CheckoutRequest struct {
	Items          []CheckoutItem `json:"items"`
	BonusToUse     int64          `json:"bonus_to_use"`
	PaymentMethod  string         `json:"payment_method"`
	DeliveryMethod string         `json:"delivery_method"`
	CardToken      string         `json:"card_token"`
	City           string         `json:"city"`
	Address        string         `json:"address"`
	Notes          string         `json:"notes"`
	Currency       string         `json:"currency"`
}

// CheckoutResult reports the placed order and the remaining balance.
type CheckoutResult struct {
	Order        *models.Order `json:"order"`
	BonusUsed    int64         `json:"bonus_used"`
	BonusBalance int64         `json:"bonus_balance"`
}

// CheckoutService places orders and drives their lifecycle side effects on
// the bonus ledger, referrals, achievements and levels.
type CheckoutService struct {
	store        repository.Store
	ledger       *Ledger
	referrals    *ReferralService
	achievements *AchievementService
	levels       *LevelService
	payments     PaymentGateway
	notifier     OrderNotifier
}

// NewCheckoutService constructs a CheckoutService. notifier may be nil.
func NewCheckoutService(store repository.Store, ledger *Ledger, referrals *ReferralService, achievements *AchievementService, levels *LevelService, payments PaymentGateway, notifier OrderNotifier) *CheckoutService {
	if payments == nil {
		payments = StubGateway{}
	}
	return &CheckoutService{
		store:        store,
		ledger:       ledger,
		referrals:    referrals,
		achievements: achievements,
		levels:       levels,
		payments:     payments,
		notifier:     notifier,
	}
}

// BonusLimit returns how much of total the user may pay with bonuses.
func (s *CheckoutService) BonusLimit(ctx context.Context, userID uuid.UUID, total int64) (int64, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.ledger.UsableBonus(total, user.BonusBalance), nil
}

// PlaceOrder creates the order, debits the bonus part before capturing the
// payment and refunds that debit if the capture fails.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if req.BonusToUse < 0 {
		return nil, ErrInvalidAmount
	}

	order := &models.Order{
		BaseModel:      models.BaseModel{ID: uuid.New()},
		UserID:         userID,
		Status:         models.OrderPending,
		Currency:       req.Currency,
		PaymentMethod:  strings.ToLower(req.PaymentMethod),
		DeliveryMethod: req.DeliveryMethod,
		City:           req.City,
		Address:        req.Address,
		Notes:          req.Notes,
	}
	if order.Currency == "" {
		order.Currency = defaultCurrency
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = PaymentCash
	}
	order.OrderNumber = orderNumber(order.ID)

	if order.PaymentMethod != PaymentCash && order.PaymentMethod != PaymentCard {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPayment, order.PaymentMethod)
	}

	for _, it := range req.Items {
		if it.Quantity <= 0 || it.UnitPrice < 0 || strings.TrimSpace(it.ProductName) == "" {
			return nil, ErrInvalidItem
		}
		if it.UnitPrice > maxOrderSubtotal/int64(it.Quantity) {
			return nil, fmt.Errorf("%w: line total too large", ErrInvalidItem)
		}
		line := it.UnitPrice * int64(it.Quantity)
		if order.Subtotal > maxOrderSubtotal-line {
			return nil, fmt.Errorf("%w: order total too large", ErrInvalidItem)
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductName:  it.ProductName,
			VariantLabel: it.VariantLabel,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			LineTotal:    line,
		})
		order.Subtotal += line
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	bonus := req.BonusToUse
	if usable := s.ledger.UsableBonus(order.Subtotal, user.BonusBalance); bonus > usable {
		bonus = usable
	}
	order.BonusUsed = bonus
	order.Total = order.Subtotal - bonus

	balance := user.BonusBalance
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		if bonus == 0 {
			return nil
		}
		var err error
		balance, err = s.ledger.debit(ctx, tx, models.KindOrderPayment, userID, bonus, "Оплата замовлення "+order.OrderNumber, &order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	txnID, payErr := s.payments.Capture(ctx, order, req.CardToken)
	if payErr != nil {
		log.Printf("[Checkout] payment for %s failed: %v", order.OrderNumber, payErr)
		if err := s.cancel(ctx, order, models.OrderPending); err != nil {
			log.Printf("[Checkout] compensation for %s failed: %v", order.OrderNumber, err)
			return nil, errors.Join(payErr, err)
		}
		return nil, payErr
	}

	if txnID != "" {
		err := s.store.Transaction(ctx, func(tx repository.Store) error {
			if err := tx.SetOrderTransactionID(ctx, order.ID, txnID); err != nil {
				return err
			}
			return tx.UpdateOrderStatus(ctx, order.ID, models.OrderPending, models.OrderPaid)
		})
		if err != nil {
			return nil, err
		}
		order.TransactionID = txnID
		order.Status = models.OrderPaid
	}

	s.savePreferences(ctx, userID, req)
	s.notifyNewOrder(user, order)

	return &CheckoutResult{Order: order, BonusUsed: bonus, BonusBalance: balance}, nil
}

// UpdateStatus moves an order through its lifecycle. Reaching a counted
// status settles the referral first-order bonus and re-evaluates
// achievements and the level; cancelling refunds the bonuses spent.
func (s *CheckoutService) UpdateStatus(ctx context.Context, orderID uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if err := CanTransition(from, to); err != nil {
		return nil, err
	}

	if to == models.OrderCancelled {
		if err := s.cancel(ctx, order, from); err != nil {
			return nil, err
		}
		s.notifyStatus(order.OrderNumber, from, to)
		return order, nil
	}

	var inviterID *uuid.UUID
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.UpdateOrderStatus(ctx, orderID, from, to); err != nil {
			return err
		}
		if !to.Counts() || from.Counts() {
			return nil
		}
		var err error
		_, inviterID, err = s.referrals.markFirstOrder(ctx, tx, order.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	order.Status = to
	log.Printf("[Checkout] order %s: %s -> %s", order.OrderNumber, from, to)

	if to.Counts() {
		if _, err := s.achievements.CheckAndUnlock(ctx, order.UserID); err != nil {
			log.Printf("[Checkout] achievement check for %s failed: %v", order.UserID, err)
		}
		if _, err := s.levels.RefreshLevel(ctx, order.UserID); err != nil {
			log.Printf("[Checkout] level refresh for %s failed: %v", order.UserID, err)
		}
	}
	if inviterID != nil {
		s.referrals.afterInviterCredit(ctx, *inviterID)
	}
	s.notifyStatus(order.OrderNumber, from, to)
	return order, nil
}

// cancel marks the order cancelled and returns its bonuses in one transaction.
func (s *CheckoutService) cancel(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.UpdateOrderStatus(ctx, order.ID, from, models.OrderCancelled); err != nil {
			return err
		}
		if order.BonusUsed == 0 {
			return nil
		}
		_, err := s.ledger.credit(ctx, tx, models.KindOrderRefund, order.UserID, order.BonusUsed, "Повернення бонусів за замовлення "+order.OrderNumber, &order.ID)
		return err
	})
	if err != nil {
		return err
	}
	order.Status = models.OrderCancelled
	log.Printf("[Checkout] order %s cancelled, %d bonuses returned", order.OrderNumber, order.BonusUsed)
	return nil
}

func (s *CheckoutService) savePreferences(ctx context.Context, userID uuid.UUID, req CheckoutRequest) {
	upd := UserUpdate{}
	if req.DeliveryMethod != "" {
		upd.DeliveryMethod = &req.DeliveryMethod
	}
	if req.PaymentMethod != "" {
		method := strings.ToLower(req.PaymentMethod)
		upd.PaymentMethod = &method
	}
	if req.City != "" {
		upd.City = &req.City
	}
	if req.Address != "" {
		upd.Address = &req.Address
	}
	fields := upd.fields()
	if len(fields) == 0 {
		return
	}
	if _, err := s.store.UpdateUserFields(ctx, userID, fields); err != nil {
		log.Printf("[Checkout] saving preferences for %s: %v", userID, err)
	}
}

func (s *CheckoutService) notifyNewOrder(user *models.User, order *models.Order) {
	if s.notifier == nil {
		return
	}
	n := OrderNotification{
		OrderNumber:   order.OrderNumber,
		TotalAmount:   order.Total,
		BonusUsed:     order.BonusUsed,
		Currency:      order.Currency,
		UserName:      user.Name,
		UserPhone:     user.Phone,
		PaymentMethod: order.PaymentMethod,
		Status:        string(order.Status),
	}
	for _, it := range order.Items {
		n.Items = append(n.Items, OrderItemNotification{
			Name:     strings.TrimSpace(it.ProductName + " " + it.VariantLabel),
			Quantity: it.Quantity,
			Price:    it.UnitPrice,
		})
	}
	go func() {
		if err := s.notifier.NotifyNewOrder(context.Background(), n); err != nil {
			log.Printf("[Checkout] Telegram notification failed: %v", err)
		}
	}()
}

func (s *CheckoutService) notifyStatus(number string, from, to models.OrderStatus) {
	if s.notifier == nil {
		return
	}
	go func() {
		if err := s.notifier.NotifyStatusChanged(context.Background(), number, string(from), string(to)); err != nil {
			log.Printf("[Checkout] Telegram notification failed: %v", err)
		}
	}()
}

func orderNumber(id uuid.UUID) string {
	return fmt.Sprintf("VS-%s", strings.ToUpper(id.String()[:8]))
}
