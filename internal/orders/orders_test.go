package orders

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/fishbot/internal/shop"
)

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	err       error
	closed    int
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	if exchange != "" {
		return errors.New("unexpected exchange " + exchange)
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed++
	return nil
}

func sampleRequest() shop.OrderRequest {
	salmon := shop.Product{ID: 1, Name: "Salmon", Price: decimal.NewFromInt(10), Weight: decimal.NewFromInt(1)}
	items := []shop.CartItem{{ID: 9, ProductID: 1, Quantity: decimal.RequireFromString("2.5"), Product: &salmon}}
	return BuildRequest(42, "user@example.com", items, time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("x", 3600)))
}

func TestBuildRequest(t *testing.T) {
	req := sampleRequest()
	if req.UserID != 42 || req.Email != "user@example.com" || len(req.Items) != 1 {
		t.Fatalf("request = %+v", req)
	}
	if !req.Total.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("total = %s", req.Total)
	}
	if line := req.Items[0]; line.Title != "Salmon" || !line.Price.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("line = %+v", line)
	}
	if req.CreatedAt.Location() != time.UTC {
		t.Fatal("timestamp must be UTC")
	}
}

func TestAMQPPublisherPublishesJSON(t *testing.T) {
	ch := &fakeChannel{}
	p := newAMQPPublisher(ch, "orders")
	if err := p.Publish(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(ch.published) != 1 || ch.keys[0] != "orders" {
		t.Fatalf("published %d messages to %v", len(ch.published), ch.keys)
	}
	msg := ch.published[0]
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("message props = %+v", msg)
	}
	var decoded struct {
		UserID int64  `json:"user_id"`
		Email  string `json:"email"`
		Total  string `json:"total"`
		Items  []struct {
			ProductID int64 `json:"product_id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.UserID != 42 || decoded.Email != "user@example.com" || decoded.Total != "25" || decoded.Items[0].ProductID != 1 {
		t.Fatalf("body = %s", msg.Body)
	}
}

func TestAMQPPublisherErrorsAndClose(t *testing.T) {
	cause := errors.New("channel closed")
	ch := &fakeChannel{err: cause}
	p := newAMQPPublisher(ch, "orders")
	if err := p.Publish(context.Background(), sampleRequest()); !errors.Is(err, cause) {
		t.Fatalf("err = %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if ch.closed != 1 {
		t.Fatalf("channel closed %d times", ch.closed)
	}
	if err := p.Publish(context.Background(), sampleRequest()); !errors.Is(err, ErrClosed) {
		t.Fatalf("publish after close = %v", err)
	}
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	if err := p.Publish(context.Background(), shop.OrderRequest{}); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

type fakeConn struct{ closed int }

func (c *fakeConn) Close() error { c.closed++; return nil }

func TestAMQPPublisherRedialsClosedChannel(t *testing.T) {
	dead := &fakeChannel{err: amqp.ErrClosed}
	oldConn := &fakeConn{}
	fresh := &fakeChannel{}
	dials := 0

	p := newAMQPPublisher(dead, "orders")
	p.conn = oldConn
	p.dial = func() (channel, io.Closer, error) {
		dials++
		return fresh, &fakeConn{}, nil
	}

	if err := p.Publish(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("publish after broker restart: %v", err)
	}
	if dials != 1 || len(fresh.published) != 1 {
		t.Fatalf("dials=%d published=%d", dials, len(fresh.published))
	}
	if dead.closed != 1 || oldConn.closed != 1 {
		t.Fatalf("old channel/conn not released: %d/%d", dead.closed, oldConn.closed)
	}
}

func TestAMQPPublisherRetriesDialOnNextPublish(t *testing.T) {
	down := errors.New("connection refused")
	fresh := &fakeChannel{}
	dialErr := down
	p := newAMQPPublisher(&fakeChannel{err: amqp.ErrClosed}, "orders")
	p.dial = func() (channel, io.Closer, error) {
		if dialErr != nil {
			return nil, nil, dialErr
		}
		return fresh, &fakeConn{}, nil
	}

	if err := p.Publish(context.Background(), sampleRequest()); !errors.Is(err, down) || !errors.Is(err, amqp.ErrClosed) {
		t.Fatalf("err = %v", err)
	}
	dialErr = nil
	if err := p.Publish(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("publish once broker is back: %v", err)
	}
	if len(fresh.published) != 1 {
		t.Fatalf("published = %d", len(fresh.published))
	}
}

func TestAMQPPublisherDoesNotRedialOtherErrors(t *testing.T) {
	ch := &fakeChannel{err: errors.New("precondition failed")}
	p := newAMQPPublisher(ch, "orders")
	p.dial = func() (channel, io.Closer, error) {
		t.Fatal("dial must not be called")
		return nil, nil, nil
	}
	if err := p.Publish(context.Background(), sampleRequest()); err == nil {
		t.Fatal("expected publish error")
	}
}
