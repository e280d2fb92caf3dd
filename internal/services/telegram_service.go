package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// OrderNotifier delivers back-office notifications about orders.
type OrderNotifier interface {
	NotifyNewOrder(ctx context.Context, order OrderNotification) error
	NotifyStatusChanged(ctx context.Context, orderNumber string, from, to string) error
}

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	bot         *telego.Bot
	adminChatID int64
}

// NewTelegramService creates a new TelegramService. Without a token or an
// admin chat every send is a logged no-op.
func NewTelegramService(botToken, adminChatID string) (*TelegramService, error) {
	s := &TelegramService{}
	if adminChatID != "" {
		id, err := strconv.ParseInt(adminChatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin chat id %q: %w", adminChatID, err)
		}
		s.adminChatID = id
	}
	if botToken == "" {
		log.Println("[Telegram] Bot token not configured, notifications disabled")
		return s, nil
	}

	bot, err := telego.NewBot(botToken, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	s.bot = bot
	return s, nil
}

// Enabled reports whether messages will actually be sent.
func (s *TelegramService) Enabled() bool {
	return s.bot != nil && s.adminChatID != 0
}

// SendMessage sends an HTML message to the specified chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID int64, text string) error {
	if s.bot == nil {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	msg := tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML)
	if _, err := s.bot.SendMessage(ctx, msg); err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == 0 {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// OrderNotification contains order data for Telegram notification.
type OrderNotification struct {
	OrderNumber   string
	Items         []OrderItemNotification
	TotalAmount   int64
	BonusUsed     int64
	Currency      string
	UserName      string
	UserPhone     string
	PaymentMethod string
	Status        string
}

// OrderItemNotification contains order item data.
type OrderItemNotification struct {
	Name     string
	Quantity int
	Price    int64
}

// FormatPrice formats price with thousand separators and a currency suffix.
func FormatPrice(amount int64, currency string) string {
	if currency == "" || currency == defaultCurrency {
		currency = "грн"
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	str := strconv.FormatInt(amount, 10)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(" ")
		}
		result.WriteRune(digit)
	}

	return sign + result.String() + " " + currency
}

// NotifyNewOrder sends notification about a new order to the admin chat.
func (s *TelegramService) NotifyNewOrder(ctx context.Context, order OrderNotification) error {
	if !s.Enabled() {
		return nil
	}
	return s.SendToAdmin(ctx, formatNewOrder(order))
}

// NotifyStatusChanged reports an order lifecycle change to the admin chat.
func (s *TelegramService) NotifyStatusChanged(ctx context.Context, orderNumber string, from, to string) error {
	if !s.Enabled() {
		return nil
	}
	message := fmt.Sprintf("<b>🔄 Статус замовлення %s</b>\n%s → <b>%s</b>",
		html.EscapeString(orderNumber), statusLabel(from), statusLabel(to))
	return s.SendToAdmin(ctx, message)
}

func formatNewOrder(order OrderNotification) string {
	var itemsList strings.Builder
	for i, item := range order.Items {
		fmt.Fprintf(&itemsList, "%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			html.EscapeString(item.Name),
			item.Quantity,
			FormatPrice(item.Price, order.Currency),
			FormatPrice(item.Price*int64(item.Quantity), order.Currency),
		)
	}

	paymentMethodText := "Готівкою"
	if order.PaymentMethod == PaymentCard {
		paymentMethodText = "Карткою"
	}

	message := fmt.Sprintf(`<b>🛒 НОВЕ ЗАМОВЛЕННЯ!</b>
<b>📋 Замовлення:</b> %s
<b>👤 Клієнт:</b> %s
<b>📞 Телефон:</b> %s
<b>📦 Товари:</b>
%s
<b>🎁 Бонуси:</b> %s
<b>💰 До сплати:</b> %s
<b>💳 Оплата:</b> %s
<b>📍 Статус:</b> %s
━━━━━━━━━━━━━━━━━━`,
		html.EscapeString(order.OrderNumber),
		html.EscapeString(order.UserName),
		html.EscapeString(order.UserPhone),
		itemsList.String(),
		FormatPrice(order.BonusUsed, order.Currency),
		FormatPrice(order.TotalAmount, order.Currency),
		paymentMethodText,
		statusLabel(order.Status),
	)
	return strings.TrimSpace(message)
}

func statusLabel(status string) string {
	switch status {
	case "pending":
		return "⏳ Очікує"
	case "paid":
		return "✅ Оплачено"
	case "processing":
		return "📦 Збирається"
	case "shipped":
		return "🚚 Відправлено"
	case "delivered":
		return "📬 Доставлено"
	case "completed":
		return "🏁 Виконано"
	case "cancelled":
		return "❌ Скасовано"
	}
	return status
}
