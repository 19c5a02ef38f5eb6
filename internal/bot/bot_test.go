package bot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tg "github.com/m3rciful/fishbot/core/telegram"
	"github.com/m3rciful/fishbot/core/telegram/state"
	"github.com/m3rciful/fishbot/internal/cart"
	"github.com/m3rciful/fishbot/internal/catalog"
	"github.com/m3rciful/fishbot/internal/clients"
	"github.com/m3rciful/fishbot/internal/conversation"
	"github.com/m3rciful/fishbot/internal/strapi"

	tele "gopkg.in/telebot.v4"
)

type sentCall struct {
	method string
	text   string
	markup string
}

// telegramServer answers every Bot API call with a message and records what was sent.
type telegramServer struct {
	mu    sync.Mutex
	calls []sentCall
}

func (s *telegramServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	call := sentCall{method: method}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		call.text, _ = body["text"].(string)
		call.markup, _ = body["reply_markup"].(string)
	} else if err := r.ParseMultipartForm(1 << 20); err == nil {
		call.text = r.FormValue("caption")
		call.markup = r.FormValue("reply_markup")
	}
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`)
}

func (s *telegramServer) snapshot() []sentCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentCall(nil), s.calls...)
}

// cmsServer serves a one-product catalog and no carts.
func cmsServer(t *testing.T, withImage bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	product := `{"id":1,"documentId":"p1","title":"Salmon","description":"Fresh","price":10,"qty_kg":1,"picture":{"url":"/uploads/salmon.jpg"}}`
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":[`+product+`]}`)
	})
	mux.HandleFunc("/api/carts", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":[]}`)
	})
	mux.HandleFunc("/uploads/salmon.jpg", func(w http.ResponseWriter, _ *http.Request) {
		if !withImage {
			http.NotFound(w, nil)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff, 0xd9})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, withImage bool) (*App, *tele.Bot, *telegramServer) {
	t.Helper()
	tgSrv := &telegramServer{}
	api := httptest.NewServer(tgSrv)
	t.Cleanup(api.Close)
	b, err := tele.NewBot(tele.Settings{Token: "test", URL: api.URL, Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}

	srv := cmsServer(t, withImage)
	cms, err := strapi.New(srv.URL, strapi.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	a := &App{
		cfg:      &Config{},
		cms:      cms,
		media:    cms,
		registry: tg.NewRegistry(),
		store:    state.NewMemoryStore[conversation.Session](),
	}
	a.machine = conversation.New(conversation.Deps{
		Catalog: catalog.NewService(cms),
		Carts:   cart.NewService(cms),
		Clients: clients.NewRegistry(cms),
		Store:   a.store,
	})
	if err := a.register(); err != nil {
		t.Fatalf("register: %v", err)
	}
	return a, b, tgSrv
}

func commandCtx(b *tele.Bot, text string) tele.Context {
	return b.NewContext(tele.Update{
		ID:      1,
		Message: &tele.Message{ID: 3, Sender: &tele.User{ID: 42}, Chat: &tele.Chat{ID: 42}, Text: text},
	})
}

func callbackCtx(b *tele.Bot, data string) tele.Context {
	return b.NewContext(tele.Update{
		ID: 2,
		Callback: &tele.Callback{
			ID:      "cb",
			Sender:  &tele.User{ID: 42},
			Message: &tele.Message{ID: 5, Chat: &tele.Chat{ID: 42}},
			Data:    data,
		},
	})
}

func TestStartRendersMenuKeyboard(t *testing.T) {
	a, b, api := newTestApp(t, true)
	cmd, ok := a.registry.Commands()["/start"]
	if !ok {
		t.Fatal("/start not registered")
	}
	if err := cmd.Handler(commandCtx(b, "/start")); err != nil {
		t.Fatalf("start: %v", err)
	}
	calls := api.snapshot()
	if len(calls) != 1 || calls[0].method != "sendMessage" {
		t.Fatalf("calls = %+v", calls)
	}
	if !strings.Contains(calls[0].markup, `"text":"Salmon"`) || !strings.Contains(calls[0].markup, `product|1`) {
		t.Fatalf("markup = %s", calls[0].markup)
	}
}

func TestProductCallbackSendsPhoto(t *testing.T) {
	a, b, api := newTestApp(t, true)
	start := a.registry.Commands()["/start"]
	_ = start.Handler(commandCtx(b, "/start"))

	h, ok := a.registry.GetCallback("product")
	if !ok {
		t.Fatal("product callback not registered")
	}
	if err := h(callbackCtx(b, "\fproduct|1")); err != nil {
		t.Fatalf("product: %v", err)
	}
	calls := api.snapshot()
	last := calls[len(calls)-1]
	if last.method != "sendPhoto" || !strings.Contains(last.text, "Salmon") {
		t.Fatalf("last call = %+v", last)
	}
	if !strings.Contains(last.markup, `add|1`) {
		t.Fatalf("detail markup = %s", last.markup)
	}
}

func TestProductWithoutImageFallsBackToText(t *testing.T) {
	a, b, api := newTestApp(t, false)
	start := a.registry.Commands()["/start"]
	_ = start.Handler(commandCtx(b, "/start"))

	h, _ := a.registry.GetCallback("product")
	if err := h(callbackCtx(b, "\fproduct|1")); err != nil {
		t.Fatalf("product: %v", err)
	}
	calls := api.snapshot()
	last := calls[len(calls)-1]
	if last.method != "sendMessage" || !strings.Contains(last.text, "Salmon") {
		t.Fatalf("last call = %+v", last)
	}
}

func TestEmptyCartAndPayRejected(t *testing.T) {
	a, b, api := newTestApp(t, true)
	cartCmd := a.registry.Commands()["/cart"]
	if err := cartCmd.Handler(commandCtx(b, "/cart")); err != nil {
		t.Fatalf("cart: %v", err)
	}
	pay, _ := a.registry.GetCallback("pay")
	if err := pay(callbackCtx(b, "\fpay")); err != nil {
		t.Fatalf("pay must not surface user errors: %v", err)
	}
	calls := api.snapshot()
	if len(calls) != 2 || !strings.Contains(calls[0].text, "empty") || !strings.Contains(calls[1].text, "empty") {
		t.Fatalf("calls = %+v", calls)
	}
	if st, _ := a.machine.Current(context.Background(), 42); st != conversation.StateCart {
		t.Fatalf("state = %s", st)
	}
}

func TestSessionsCommandIsHiddenAdminOnly(t *testing.T) {
	a, _, _ := newTestApp(t, true)
	for _, c := range a.registry.ListCommands(true) {
		if c.Text == "sessions" {
			t.Fatal("/sessions must not be published")
		}
	}
	cmd := a.registry.Commands()["/sessions"]
	if !cmd.AdminOnly || !cmd.Hidden {
		t.Fatalf("sessions command = %+v", cmd)
	}
}

func TestFormatSessionCounts(t *testing.T) {
	got := formatSessionCounts(map[state.State]int{conversation.StateMenu: 2, conversation.StateCart: 1})
	if !strings.Contains(got, "MENU: 2") || !strings.Contains(got, "AWAITING_EMAIL: 0") || !strings.HasSuffix(got, "Total: 3") {
		t.Fatalf("text = %q", got)
	}
}

func TestPhotoCaption(t *testing.T) {
	short := strings.Repeat("я", captionLimit)
	if photoCaption(short) != short {
		t.Fatal("caption at the limit must be kept")
	}
	long := strings.Repeat("я", captionLimit+1)
	got := photoCaption(long)
	if got != strings.Repeat("я", captionKeep)+"…" {
		t.Fatalf("caption has %d bytes", len(got))
	}
}

func TestMarkupEncodesKindsAndIDs(t *testing.T) {
	m := markup([][]conversation.Button{
		{{Text: "Salmon", Kind: conversation.EventProduct, ID: 7}},
		{},
		{{Text: "Cart", Kind: conversation.EventCart}},
	})
	if m == nil || len(m.InlineKeyboard) != 2 {
		t.Fatalf("markup = %+v", m)
	}
	first := m.InlineKeyboard[0][0]
	if first.Unique != "product" || first.Data != "7" {
		t.Fatalf("first button = %+v", first)
	}
	if cartBtn := m.InlineKeyboard[1][0]; cartBtn.Unique != "cart" || cartBtn.Data != "" {
		t.Fatalf("cart button = %+v", cartBtn)
	}
	if markup(nil) != nil {
		t.Fatal("no buttons must yield no keyboard")
	}
}
