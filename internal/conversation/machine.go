// Package conversation implements the per-user dialogue of the shop bot:
// menu, product detail, cart and e-mail checkout.
//
// The machine is transport-agnostic. It consumes Events, returns Messages with
// Buttons and persists one Session per user through a state.Store.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/fishbot/core/logger"
	"github.com/m3rciful/fishbot/core/telegram/state"
	"github.com/m3rciful/fishbot/internal/orders"
	"github.com/m3rciful/fishbot/internal/shop"
)

// Conversation states.
const (
	StateMenu          state.State = "MENU"
	StateProductDetail state.State = "PRODUCT_DETAIL"
	StateCart          state.State = "CART"
	StateAwaitingEmail state.State = "AWAITING_EMAIL"
)

// States lists every state in display order.
var States = []state.State{StateMenu, StateProductDetail, StateCart, StateAwaitingEmail}

// Session is the persisted per-user record.
type Session struct {
	State state.State `json:"state"`
	// ProductID is the product shown in PRODUCT_DETAIL, 0 otherwise.
	ProductID int64     `json:"product_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventKind names a user action.
type EventKind string

// Events understood by the machine. Button kinds double as callback keys.
const (
	EventStart   EventKind = "start"
	EventMenu    EventKind = "menu"
	EventProduct EventKind = "product"
	EventAdd     EventKind = "add"
	EventCart    EventKind = "cart"
	EventRemove  EventKind = "remove"
	EventPay     EventKind = "pay"
	EventText    EventKind = "text"
)

// Event is one inbound user action.
type Event struct {
	Kind   EventKind
	UserID int64
	// ID carries the product id for product/add and the cart item id for remove.
	ID   int64
	Text string
}

// Button is an inline control that produces Event{Kind, ID} when pressed.
type Button struct {
	Text string
	Kind EventKind
	ID   int64
}

// Message is one outbound reply. Text uses legacy Markdown.
type Message struct {
	Text     string
	ImageURL string
	Buttons  [][]Button
	// Replace asks the transport to edit the message the event came from.
	Replace bool
}

// Result is the outcome of one dispatched event.
type Result struct {
	Messages []Message
	State    state.State
}

// Catalog resolves products.
type Catalog interface {
	ListProducts(ctx context.Context) ([]shop.Product, error)
	GetProduct(ctx context.Context, id int64) (shop.Product, error)
}

// Carts manages user carts.
type Carts interface {
	FindCart(ctx context.Context, userID int64) (shop.Cart, bool, error)
	GetOrCreateCart(ctx context.Context, userID int64) (shop.Cart, error)
	AddItem(ctx context.Context, c shop.Cart, productID int64, qty decimal.Decimal) (shop.CartItem, error)
	RemoveItem(ctx context.Context, c shop.Cart, itemID int64) error
	ListItems(ctx context.Context, c shop.Cart) ([]shop.CartItem, error)
}

// Clients stores checkout e-mails.
type Clients interface {
	UpsertClient(ctx context.Context, userID int64, email string) (shop.Client, error)
}

// Deps bundles the collaborators of a Machine.
type Deps struct {
	Catalog Catalog
	Carts   Carts
	Clients Clients
	// Orders is optional; nil means order requests are not published.
	Orders orders.Publisher
	Store  state.Store[Session]
	Now    func() time.Time
}

// Machine dispatches events per user. Events of one user never run concurrently.
type Machine struct {
	catalog Catalog
	carts   Carts
	clients Clients
	orders  orders.Publisher
	store   state.Store[Session]
	locks   *state.KeyedMutex
	now     func() time.Time
}

// New constructs a Machine. Store defaults to an in-memory store.
func New(deps Deps) *Machine {
	m := &Machine{
		catalog: deps.Catalog,
		carts:   deps.Carts,
		clients: deps.Clients,
		orders:  deps.Orders,
		store:   deps.Store,
		locks:   state.NewKeyedMutex(),
		now:     deps.Now,
	}
	if m.store == nil {
		m.store = state.NewMemoryStore[Session]()
	}
	if m.orders == nil {
		m.orders = orders.Noop{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Dispatch runs ev against the user's session and returns the replies.
// On error the session is left as it was and the replies explain the failure;
// the error itself is returned for logging only.
func (m *Machine) Dispatch(ctx context.Context, ev Event) (Result, error) {
	unlock := m.locks.Lock(ev.UserID)
	defer unlock()

	sess, err := m.load(ctx, ev.UserID)
	if err != nil {
		return Result{Messages: []Message{unavailableMessage()}}, fmt.Errorf("load session: %w", err)
	}
	from := sess.State

	res, next, err := m.handle(ctx, sess, ev)
	if err != nil {
		logger.Info(ctx, "fsm", "event.rejected",
			slog.String("event_kind", string(ev.Kind)),
			slog.String("state", string(from)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return Result{State: from, Messages: translateError(err)}, err
	}

	next.UpdatedAt = m.now().UTC()
	if err := m.store.Save(ctx, ev.UserID, next); err != nil {
		logger.Error(ctx, "fsm", "session.save_failed",
			slog.String("event_kind", string(ev.Kind)),
			slog.String("state", string(from)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return Result{State: from, Messages: []Message{unavailableMessage()}}, fmt.Errorf("save session: %w", err)
	}
	res.State = next.State
	logger.Info(ctx, "fsm", "transition",
		slog.String("event_kind", string(ev.Kind)),
		slog.String("from", string(from)),
		slog.String("to", string(next.State)),
	)
	return res, nil
}

func (m *Machine) load(ctx context.Context, userID int64) (Session, error) {
	sess, ok, err := m.store.Load(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	if !ok || !knownState(sess.State) {
		return Session{State: StateMenu}, nil
	}
	return sess, nil
}

func knownState(s state.State) bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// Current returns the stored state of a user, MENU when none is stored.
func (m *Machine) Current(ctx context.Context, userID int64) (state.State, error) {
	sess, err := m.load(ctx, userID)
	if err != nil {
		return "", err
	}
	return sess.State, nil
}

// InProgress reports whether the user is expected to type free text (the checkout e-mail).
func (m *Machine) InProgress(userID int64) bool {
	st, err := m.Current(context.Background(), userID)
	return err == nil && st == StateAwaitingEmail
}

// CountByState returns how many stored sessions sit in each state.
func (m *Machine) CountByState(ctx context.Context) (map[state.State]int, error) {
	counts := make(map[state.State]int, len(States))
	err := m.store.Each(ctx, func(_ int64, s Session) bool {
		counts[s.State]++
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	return counts, nil
}
