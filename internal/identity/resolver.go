package identity

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/repository"
)

// ResolveInput carries everything a chat initiation knows about the
// visitor. All fields are optional except IPAddress.
type ResolveInput struct {
	Name      string
	Email     string
	Phone     string
	SessionID string
	IPAddress string
	UserAgent string
	Country   string
}

// Resolution is the outcome of a chat initiation: the materialized customer
// and a fresh open conversation.
type Resolution struct {
	Customer     *domain.Customer
	Conversation *domain.Conversation
	Returning    bool
}

// Resolver decides whether a chat initiation comes from a returning
// customer and always opens a new conversation for it.
type Resolver struct {
	customers     repository.CustomerRepository
	conversations repository.ConversationRepository
	logger        *zap.Logger
}

// NewResolver builds the resolver.
func NewResolver(customers repository.CustomerRepository, conversations repository.ConversationRepository, logger *zap.Logger) *Resolver {
	return &Resolver{customers: customers, conversations: conversations, logger: logger}
}

// Resolve finds or creates the customer (email first, origin address
// second), merges any newly supplied contact fields, and opens a fresh
// conversation. Re-identification never reuses a prior conversation.
func (r *Resolver) Resolve(ctx context.Context, input ResolveInput) (*Resolution, error) {
	customer, err := r.lookup(ctx, input)
	if err != nil {
		return nil, err
	}

	returning := customer != nil
	if returning {
		merge(customer, input)
		customer.LastSeenAt = time.Now()
		if err := r.customers.Update(ctx, customer); err != nil {
			return nil, err
		}
	} else {
		customer = newCustomer(input)
		if err := r.customers.Create(ctx, customer); err != nil {
			return nil, err
		}
		r.logger.Info("new customer",
			zap.Int64("customer_id", customer.ID),
			zap.Bool("identified", customer.Identified))
	}

	conversation := &domain.Conversation{
		CustomerID: customer.ID,
		Status:     domain.ConversationStatusOpen,
	}
	if err := r.conversations.Create(ctx, conversation); err != nil {
		return nil, err
	}

	return &Resolution{Customer: customer, Conversation: conversation, Returning: returning}, nil
}

func (r *Resolver) lookup(ctx context.Context, input ResolveInput) (*domain.Customer, error) {
	if email := strings.TrimSpace(input.Email); email != "" {
		customer, err := r.customers.GetByEmail(ctx, email)
		if err == nil {
			return customer, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, nil
	}

	if input.IPAddress != "" {
		customer, err := r.customers.GetLatestByIP(ctx, input.IPAddress)
		if err == nil {
			return customer, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}
	return nil, nil
}

// merge fills blanks only; supplied fields never erase known ones.
func merge(customer *domain.Customer, input ResolveInput) {
	if name := strings.TrimSpace(input.Name); name != "" {
		customer.Name = name
		customer.Identified = true
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		customer.Email = email
		customer.Identified = true
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		customer.Phone = phone
	}
	if input.IPAddress != "" {
		customer.IPAddress = input.IPAddress
	}
	if input.UserAgent != "" {
		customer.UserAgent = input.UserAgent
	}
	if input.Country != "" {
		customer.Country = input.Country
	}
}

func newCustomer(input ResolveInput) *domain.Customer {
	name := strings.TrimSpace(input.Name)
	identified := name != "" || strings.TrimSpace(input.Email) != ""
	if name == "" {
		name = friendlyName()
	}

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	return &domain.Customer{
		SessionID:  sessionID,
		Name:       name,
		Email:      strings.TrimSpace(input.Email),
		Phone:      strings.TrimSpace(input.Phone),
		IPAddress:  input.IPAddress,
		UserAgent:  input.UserAgent,
		Country:    input.Country,
		Identified: identified,
		LastSeenAt: time.Now(),
	}
}

func friendlyName() string {
	return fmt.Sprintf("Friendly Visitor %d", rand.Intn(9000)+1000)
}
