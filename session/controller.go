// Package session implements the session and analysis state machine that sits
// between the presentation surfaces and the analysis service.
//
// A Controller owns the signed-in identity and the current Snapshot. User
// intents (Login, Logout, SubmitAnalysis, SelectHolding) drive transitions
//
//	LoggedOut --Login--> Idle
//	Idle|Ready|Failed|Loading --SubmitAnalysis--> Loading
//	Loading --success--> Ready
//	Loading --failure--> Failed
//	any --Logout--> LoggedOut
//
// Every transition publishes a brand new Snapshot. Analyses run in their own
// goroutine and only the latest issued one may change the Snapshot when it
// resolves: a newer request makes every older one stale.
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/etnz/foresight"
	"github.com/etnz/foresight/date"
	"github.com/google/uuid"
)

var (
	// ErrNotLoggedIn is returned by intents that need an identity.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrAlreadyLoggedIn is returned by Login when a session is open.
	ErrAlreadyLoggedIn = errors.New("already logged in")
)

// Analyzer computes the forecast of a request, analysis.Client is the production one.
type Analyzer interface {
	Analyze(ctx context.Context, req foresight.AnalysisRequest) (foresight.AnalysisResult, error)
}

// Controller is the session view-model. It is safe for concurrent use.
type Controller struct {
	analyzer    Analyzer
	credentials *foresight.Credentials
	catalog     *foresight.Catalog
	today       func() date.Date

	mu        sync.Mutex
	snap      Snapshot
	seq       uint64 // last issued sequence number
	epoch     uint64 // incremented on every login and logout
	current   *Task
	observers []observer
	nextObs   int
}

type observer struct {
	id int
	fn func(Snapshot)
}

// New returns a logged out Controller.
func New(analyzer Analyzer, credentials *foresight.Credentials, catalog *foresight.Catalog) *Controller {
	return &Controller{
		analyzer:    analyzer,
		credentials: credentials,
		catalog:     catalog,
		today:       date.Today,
		snap:        loggedOut(),
	}
}

// WithClock replaces the source of the current date used by SelectHolding.
func (c *Controller) WithClock(today func() date.Date) *Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = today
	return c
}

// Snapshot returns the current snapshot.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.clone()
}

// Subscribe registers fn to receive every new snapshot, in order. fn is called
// while the Controller is locked and must not call back into it.
// The returned function unregisters fn.
func (c *Controller) Subscribe(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextObs++
	id := c.nextObs
	c.observers = append(c.observers, observer{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, o := range c.observers {
			if o.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// publish replaces the snapshot. c.mu must be held.
func (c *Controller) publish(s Snapshot) {
	c.snap = s
	for _, o := range c.observers {
		o.fn(s.clone())
	}
}

// Login opens a session for identity. On failure the snapshot is left unchanged
// and foresight.ErrInvalidCredentials is returned, the login surface owns that message.
func (c *Controller) Login(identity, secret string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap.LoggedIn() {
		return ErrAlreadyLoggedIn
	}
	id, err := c.credentials.Authenticate(identity, secret)
	if err != nil {
		log.Printf("login of %q refused: %v", identity, err)
		return err
	}
	c.epoch++
	next := Snapshot{
		Identity:  id,
		SessionID: uuid.NewString(),
		State:     Idle,
		Metrics:   foresight.NoMetrics(),
	}
	log.Printf("session %s opened for %q", next.SessionID, id)
	c.publish(next)
	return nil
}

// Logout closes the session. Nothing of it survives: identity, error, metrics
// and series are reset and an in-flight analysis is cancelled and discarded.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.snap.LoggedIn() {
		return
	}
	if c.current != nil {
		c.current.cancel()
		c.current = nil
	}
	c.epoch++
	log.Printf("session %s closed for %q", c.snap.SessionID, c.snap.Identity)
	c.publish(loggedOut())
}

// Holdings returns the portfolio of the signed-in identity, nil when logged out.
func (c *Controller) Holdings() []foresight.Holding {
	c.mu.Lock()
	id := c.snap.Identity
	c.mu.Unlock()
	if id.IsZero() {
		return nil
	}
	return c.catalog.HoldingsFor(id)
}

// SubmitAnalysis issues req. The snapshot switches to Loading before it returns,
// with the error cleared and the previous metrics and series kept until the
// task resolves. A previous task still in flight is cancelled and becomes stale.
//
// An invalid request fails with a *foresight.ValidationError and changes nothing.
func (c *Controller) SubmitAnalysis(ctx context.Context, req foresight.AnalysisRequest) (*Task, error) {
	req = foresight.NewAnalysisRequest(req.Ticker, req.Start, req.End)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.snap.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	if c.current != nil {
		c.current.cancel()
	}
	c.seq++
	tctx, cancel := context.WithCancel(ctx)
	t := &Task{
		seq:    c.seq,
		epoch:  c.epoch,
		req:    req,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.current = t

	next := c.snap
	next.State = Loading
	next.Loading = true
	next.Error = ""
	next.Request = req
	next.Seq = t.seq
	c.publish(next)

	go c.run(tctx, t)
	return t, nil
}

// SelectHolding analyses symbol over the year that ends today.
func (c *Controller) SelectHolding(ctx context.Context, symbol string) (*Task, error) {
	c.mu.Lock()
	today := c.today()
	c.mu.Unlock()
	return c.SubmitAnalysis(ctx, foresight.LastYearRequest(symbol, today))
}

func (c *Controller) run(ctx context.Context, t *Task) {
	defer t.cancel()
	res, err := c.analyzer.Analyze(ctx, t.req)
	c.resolve(t, res, err)
}

// resolve applies the outcome of t, unless t is no longer the latest request.
func (c *Controller) resolve(t *Task, res foresight.AnalysisResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(t.done)

	t.err = err
	if t.seq != c.seq || t.epoch != c.epoch {
		t.stale = true
		log.Printf("analysis #%d of %v discarded, superseded by #%d", t.seq, t.req, c.seq)
		return
	}
	c.current = nil

	next := c.snap
	next.Loading = false
	if err != nil {
		log.Printf("analysis #%d of %v failed: %v", t.seq, t.req, err)
		next.State = Failed
		next.Error = FailureMessage
		c.publish(next)
		return
	}
	next.State = Ready
	next.Error = ""
	next.Metrics = res.Metrics()
	next.Series = res.Series
	next.Result = res
	c.publish(next.clone())
}
