package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/fishbot/core/logger"
	"github.com/m3rciful/fishbot/internal/clients"
	"github.com/m3rciful/fishbot/internal/orders"
	"github.com/m3rciful/fishbot/internal/shop"
)

// handle routes ev by kind and current state. Events a state does not accept re-render its view.
func (m *Machine) handle(ctx context.Context, sess Session, ev Event) (Result, Session, error) {
	switch ev.Kind {
	case EventStart, EventMenu:
		return m.showMenu(ctx)
	case EventProduct:
		if sess.State == StateMenu {
			return m.showProduct(ctx, ev.ID)
		}
	case EventAdd:
		if sess.State == StateProductDetail {
			id := ev.ID
			if id == 0 {
				id = sess.ProductID
			}
			return m.addToCart(ctx, ev.UserID, id)
		}
	case EventCart:
		if sess.State != StateAwaitingEmail {
			return m.showCart(ctx, ev.UserID, false)
		}
	case EventRemove:
		if sess.State == StateCart {
			return m.removeItem(ctx, ev.UserID, ev.ID)
		}
	case EventPay:
		if sess.State == StateCart {
			return m.pay(ctx, ev.UserID)
		}
	case EventText:
		if sess.State == StateAwaitingEmail {
			return m.captureEmail(ctx, ev.UserID, ev.Text)
		}
	}
	return m.rerender(ctx, sess, ev.UserID)
}

func (m *Machine) rerender(ctx context.Context, sess Session, userID int64) (Result, Session, error) {
	switch sess.State {
	case StateProductDetail:
		if sess.ProductID != 0 {
			return m.showProduct(ctx, sess.ProductID)
		}
	case StateCart:
		return m.showCart(ctx, userID, false)
	case StateAwaitingEmail:
		return single(emailPromptMessage()), sess, nil
	}
	return m.showMenu(ctx)
}

func (m *Machine) showMenu(ctx context.Context) (Result, Session, error) {
	products, err := m.catalog.ListProducts(ctx)
	if err != nil {
		return Result{}, Session{}, err
	}
	return single(menuMessage(products)), Session{State: StateMenu}, nil
}

func (m *Machine) showProduct(ctx context.Context, productID int64) (Result, Session, error) {
	p, err := m.catalog.GetProduct(ctx, productID)
	if err != nil {
		return Result{}, Session{}, err
	}
	return single(productMessage(p)), Session{State: StateProductDetail, ProductID: p.ID}, nil
}

func (m *Machine) addToCart(ctx context.Context, userID, productID int64) (Result, Session, error) {
	p, err := m.catalog.GetProduct(ctx, productID)
	if err != nil {
		return Result{}, Session{}, err
	}
	c, err := m.carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		return Result{}, Session{}, err
	}
	if _, err := m.carts.AddItem(ctx, c, p.ID, p.EffectiveWeight()); err != nil {
		return Result{}, Session{}, err
	}
	return single(addedMessage(p)), Session{State: StateProductDetail, ProductID: p.ID}, nil
}

// cartItems lists the user's cart without creating one.
func (m *Machine) cartItems(ctx context.Context, userID int64) (shop.Cart, []shop.CartItem, bool, error) {
	c, ok, err := m.carts.FindCart(ctx, userID)
	if err != nil || !ok {
		return shop.Cart{}, nil, false, err
	}
	items, err := m.carts.ListItems(ctx, c)
	if err != nil {
		return shop.Cart{}, nil, false, err
	}
	return c, items, true, nil
}

func (m *Machine) showCart(ctx context.Context, userID int64, replace bool) (Result, Session, error) {
	_, items, _, err := m.cartItems(ctx, userID)
	if err != nil {
		return Result{}, Session{}, err
	}
	msg := cartMessage(items)
	msg.Replace = replace
	return single(msg), Session{State: StateCart}, nil
}

func (m *Machine) removeItem(ctx context.Context, userID, itemID int64) (Result, Session, error) {
	c, ok, err := m.carts.FindCart(ctx, userID)
	if err != nil {
		return Result{}, Session{}, err
	}
	if !ok {
		return Result{}, Session{}, &shop.NotFoundError{Kind: "cart item", ID: fmt.Sprint(itemID)}
	}
	if err := m.carts.RemoveItem(ctx, c, itemID); err != nil {
		return Result{}, Session{}, err
	}
	return m.showCart(ctx, userID, true)
}

func (m *Machine) pay(ctx context.Context, userID int64) (Result, Session, error) {
	_, items, _, err := m.cartItems(ctx, userID)
	if err != nil {
		return Result{}, Session{}, err
	}
	if len(items) == 0 {
		return Result{}, Session{}, &shop.ValidationError{Field: "cart", Reason: "is empty"}
	}
	return single(emailPromptMessage()), Session{State: StateAwaitingEmail}, nil
}

func (m *Machine) captureEmail(ctx context.Context, userID int64, text string) (Result, Session, error) {
	email := strings.TrimSpace(text)
	if !clients.ValidEmail(email) {
		return Result{}, Session{}, &shop.ValidationError{Field: "email", Reason: "not an e-mail address"}
	}
	if _, err := m.clients.UpsertClient(ctx, userID, email); err != nil {
		return Result{}, Session{}, err
	}
	m.publishOrder(ctx, userID, email)

	res, next, err := m.showMenu(ctx)
	if err != nil {
		// the e-mail is stored; a failed menu fetch must not hide that
		logger.Warn(ctx, "fsm", "menu.unavailable", slog.String("err", err.Error()))
		return single(thanksMessage(email)), Session{State: StateMenu}, nil
	}
	res.Messages = append([]Message{thanksMessage(email)}, res.Messages...)
	return res, next, nil
}

// publishOrder snapshots the cart into an order request. Failures are logged only.
func (m *Machine) publishOrder(ctx context.Context, userID int64, email string) {
	_, items, ok, err := m.cartItems(ctx, userID)
	if err != nil || !ok || len(items) == 0 {
		if err != nil {
			logger.Warn(ctx, "orders", "order.skipped", slog.String("err", err.Error()))
		}
		return
	}
	req := orders.BuildRequest(userID, email, items, m.now())
	if err := m.orders.Publish(ctx, req); err != nil {
		logger.Error(ctx, "orders", "order.publish_failed",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

func single(msg Message) Result {
	return Result{Messages: []Message{msg}}
}
