package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const statsKey = "reply_stats"

// ReplyStats counts what a handler sent back for one update.
// Replies may be delivered from the sender dispatcher, so counters are atomic.
type ReplyStats struct {
	messages atomic.Int32
	photos   atomic.Int32
	keyboard atomic.Bool
}

// Messages is the number of delivered sends and edits, photos included.
func (s *ReplyStats) Messages() int { return int(s.messages.Load()) }

// Photos is the number of delivered photos.
func (s *ReplyStats) Photos() int { return int(s.photos.Load()) }

// Keyboard reports whether any reply carried reply markup.
func (s *ReplyStats) Keyboard() bool { return s.keyboard.Load() }

func (s *ReplyStats) record(what any, opts []any) {
	s.messages.Add(1)
	if _, ok := what.(*tele.Photo); ok {
		s.photos.Add(1)
	}
	if hasKeyboard(opts) {
		s.keyboard.Store(true)
	}
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

type statsContext struct {
	tele.Context
	stats *ReplyStats
}

func (m statsContext) track(what any, opts []any, err error) error {
	if err == nil {
		m.stats.record(what, opts)
	}
	return err
}

func (m statsContext) Send(what any, opts ...any) error {
	return m.track(what, opts, m.Context.Send(what, opts...))
}

func (m statsContext) Reply(what any, opts ...any) error {
	return m.track(what, opts, m.Context.Reply(what, opts...))
}

func (m statsContext) Edit(what any, opts ...any) error {
	return m.track(what, opts, m.Context.Edit(what, opts...))
}

func (m statsContext) EditOrSend(what any, opts ...any) error {
	return m.track(what, opts, m.Context.EditOrSend(what, opts...))
}

func (m statsContext) EditOrReply(what any, opts ...any) error {
	return m.track(what, opts, m.Context.EditOrReply(what, opts...))
}

// MessageMetricsMiddleware attaches fresh ReplyStats to every update.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		stats := &ReplyStats{}
		c.Set(statsKey, stats)
		return next(statsContext{Context: c, stats: stats})
	}
}

// StatsFrom returns the counters attached by MessageMetricsMiddleware, or empty ones.
func StatsFrom(c tele.Context) *ReplyStats {
	if c != nil {
		if s, ok := c.Get(statsKey).(*ReplyStats); ok && s != nil {
			return s
		}
	}
	return &ReplyStats{}
}
