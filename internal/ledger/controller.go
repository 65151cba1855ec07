// Package ledger holds the behaviour of the locations/deliveries page:
// the cached location list, the selected location's delivery history with
// its totals, and the add/delete flows. It is UI-agnostic; the web handlers
// and the terminal UI both drive it.
package ledger

import (
	"log"
	"time"

	"github.com/diewo77/go-deliveries/internal/store"
)

// Prompt is a confirmation question as a message code plus arguments.
type Prompt struct {
	Code string
	Args []any
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(p Prompt) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(p Prompt) bool

func (f ConfirmFunc) Confirm(p Prompt) bool { return f(p) }

// Confirmed approves every prompt. Used when the confirmation already
// happened on the client.
var Confirmed Confirmer = ConfirmFunc(func(Prompt) bool { return true })

// Options configures a Controller.
type Options struct {
	Pricing  Pricing
	Location *time.Location
	Now      func() time.Time
	Logger   *log.Logger
}

// Controller wires one Session to the table store.
type Controller struct {
	Session    *Session
	Locations  *LocationPanel
	Deliveries *DeliveryPanel

	opts Options
}

// NewController creates a Controller with an empty session.
func NewController(st store.TableStore, opts Options) *Controller {
	if opts.Pricing.KgPerSack.IsZero() {
		opts.Pricing = DefaultPricing()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	s := newSession()
	c := &Controller{Session: s, opts: opts}
	c.Deliveries = &DeliveryPanel{store: st, session: s, opts: opts}
	c.Locations = &LocationPanel{store: st, session: s, opts: opts}
	s.panel.Form.Reset(c.Today())
	return c
}

// Pricing returns the pricing rule in use.
func (c *Controller) Pricing() Pricing { return c.opts.Pricing }

// Today returns the current local date as YYYY-MM-DD.
func (c *Controller) Today() string { return DateValue(c.opts.Now(), c.opts.Location) }

// Formatter returns a Formatter for lang in the controller's time zone.
func (c *Controller) Formatter(lang string) Formatter { return NewFormatter(lang, c.opts.Location) }

func logStoreError(l *log.Logger, op string, err error) {
	l.Printf("[ledger] %s: %v", op, err)
	if store.IsAuthError(err) {
		l.Printf("[ledger] %s: data service rejected the credentials; check the access key and row-level policies", op)
	}
}
