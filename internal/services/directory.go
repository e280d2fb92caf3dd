package services

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/example/vapeshop/internal/models"
	"github.com/example/vapeshop/internal/repository"
)

const maxReferralCodeAttempts = 5

// NewUser carries registration input.
type NewUser struct {
	Email        string
	Name         string
	Phone        string
	ReferralCode string
	PasswordHash string
	IsAdmin      bool
}

// UserUpdate is a partial profile update; nil fields are left unchanged.
type UserUpdate struct {
	Name           *string
	Phone          *string
	City           *string
	Address        *string
	DeliveryMethod *string
	PaymentMethod  *string
}

func (u UserUpdate) fields() map[string]interface{} {
	fields := map[string]interface{}{}
	set := func(column string, value *string) {
		if value != nil {
			fields[column] = strings.TrimSpace(*value)
		}
	}
	set("name", u.Name)
	set("phone", u.Phone)
	set("city", u.City)
	set("address", u.Address)
	set("delivery_method", u.DeliveryMethod)
	set("payment_method", u.PaymentMethod)
	return fields
}

// Directory registers and resolves customers.
type Directory struct {
	store     repository.Store
	referrals *ReferralService
}

// NewDirectory constructs a Directory.
func NewDirectory(store repository.Store, referrals *ReferralService) *Directory {
	return &Directory{store: store, referrals: referrals}
}

// CreateUser registers a customer. When the email is already registered the
// existing record is returned with created=false. A referral code that
// resolves to another user links the new account to that inviter and pays
// the signup bonuses in the same transaction; an unknown code is ignored.
func (d *Directory) CreateUser(ctx context.Context, in NewUser) (*models.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, " <>") {
		return nil, false, ErrInvalidEmail
	}

	if existing, err := d.store.GetUserByEmail(ctx, email); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	var inviter *models.User
	if code := strings.TrimSpace(in.ReferralCode); code != "" {
		found, err := d.store.GetUserByReferralCode(ctx, code)
		switch {
		case err == nil:
			inviter = found
		case errors.Is(err, repository.ErrNotFound):
			log.Printf("[Directory] unknown referral code %q for %s", code, email)
		default:
			return nil, false, err
		}
	}

	user := &models.User{
		BaseModel:    models.BaseModel{ID: uuid.New()},
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: in.PasswordHash,
		IsAdmin:      in.IsAdmin,
	}
	if inviter != nil {
		user.ReferredBy = &inviter.ID
	}

	var err error
	for attempt := 0; attempt < maxReferralCodeAttempts; attempt++ {
		if user.ReferralCode, err = GenerateReferralCode(); err != nil {
			return nil, false, err
		}

		err = d.store.Transaction(ctx, func(tx repository.Store) error {
			if err := tx.CreateUser(ctx, user); err != nil {
				return err
			}
			if inviter != nil {
				return d.referrals.attribute(ctx, tx, user, inviter)
			}
			return nil
		})
		if !errors.Is(err, repository.ErrConflict) {
			break
		}

		// Either a concurrent registration took the email or the code collided.
		if existing, lookupErr := d.store.GetUserByEmail(ctx, email); lookupErr == nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return nil, false, err
	}

	log.Printf("[Directory] registered %s (%s)", user.ID, email)
	if inviter != nil {
		log.Printf("[Referral] %s invited by %s", user.ID, inviter.ID)
		d.referrals.afterInviterCredit(ctx, inviter.ID)
	}

	created, err := d.store.GetUserByID(ctx, user.ID)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (d *Directory) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return d.store.GetUserByID(ctx, id)
}

func (d *Directory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return d.store.GetUserByEmail(ctx, email)
}

func (d *Directory) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return d.store.GetUserByReferralCode(ctx, code)
}

// UpdateUser applies upd and reports whether the user exists.
func (d *Directory) UpdateUser(ctx context.Context, id uuid.UUID, upd UserUpdate) (bool, error) {
	fields := upd.fields()
	if len(fields) == 0 {
		_, err := d.store.GetUserByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}
	return d.store.UpdateUserFields(ctx, id, fields)
}

// ListUsers pages through customers, newest first.
func (d *Directory) ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, int64, error) {
	return d.store.ListUsers(ctx, search, limit, offset)
}
