// Package portal drives a real browser session against the MyAADE portal:
// login, navigation to the messages page, and per-protocol state capture.
//
// The portal is a JavaScript-heavy government site behind bot detection, so
// checks run through Chrome with stealth patches rather than plain HTTP.
package portal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/kypria/zeus/config"
	"github.com/kypria/zeus/monitor"
)

// Login form selectors, first match wins. The portal has changed its markup
// before; the fallbacks cover the variants seen so far.
var (
	usernameSelectors = []string{"#username", `input[name="username"]`, `input[type="text"]`}
	passwordSelectors = []string{"#password", `input[name="password"]`, `input[type="password"]`}
	submitSelectors   = []string{`button[type="submit"]`, `input[type="submit"]`, "button.btn-primary"}
)

// Session is one authenticated browser session. Not safe for concurrent use;
// the monitor checks protocols sequentially through a single session.
type Session struct {
	cfg      config.PortalConfig
	logger   *slog.Logger
	browser  *rod.Browser
	lnch     *launcher.Launcher
	page     *rod.Page
	loggedIn bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a Session. Call Connect before Check.
func NewSession(cfg config.PortalConfig, opts ...Option) *Session {
	s := &Session{cfg: cfg, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Connect launches Chrome (or attaches to cfg.Remote) and opens a stealth
// page.
func (s *Session) Connect(ctx context.Context) error {
	var wsURL string
	if s.cfg.Remote != "" {
		wsURL = s.cfg.Remote
		s.logger.Info("attaching to remote chrome", "url", wsURL)
	} else {
		l := launcher.New().
			Headless(s.cfg.Headless).
			Set("disable-blink-features", "AutomationControlled").
			Set("lang", "el-GR")
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("portal: launch chrome: %w", err)
		}
		s.lnch = l
		wsURL = u
		s.logger.Info("launched chrome", "headless", s.cfg.Headless)
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("portal: connect chrome: %w", err)
	}
	s.browser = b

	page, err := stealth.Page(b)
	if err != nil {
		return fmt.Errorf("portal: open stealth page: %w", err)
	}
	s.page = page
	return nil
}

// Login authenticates against the portal. Idempotent: a session that is
// already logged in returns immediately.
func (s *Session) Login(ctx context.Context) error {
	if s.loggedIn {
		return nil
	}
	if s.page == nil {
		return fmt.Errorf("portal: not connected")
	}
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	page := s.page.Context(navCtx)

	if err := page.Navigate(s.cfg.BaseURL); err != nil {
		return fmt.Errorf("portal: navigate login: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("portal: login page load: %w", err)
	}

	user, err := firstElement(page, usernameSelectors)
	if err != nil {
		return fmt.Errorf("portal: username field: %w", err)
	}
	if err := user.Input(s.cfg.Username); err != nil {
		return fmt.Errorf("portal: type username: %w", err)
	}
	pass, err := firstElement(page, passwordSelectors)
	if err != nil {
		return fmt.Errorf("portal: password field: %w", err)
	}
	if err := pass.Input(s.cfg.Password); err != nil {
		return fmt.Errorf("portal: type password: %w", err)
	}
	submit, err := firstElement(page, submitSelectors)
	if err != nil {
		return fmt.Errorf("portal: submit button: %w", err)
	}
	if err := submit.Click("left", 1); err != nil {
		return fmt.Errorf("portal: submit login: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("portal: post-login load: %w", err)
	}

	// If the password field is still there, the credentials were rejected.
	if has, _, _ := page.Has(passwordSelectors[0]); has {
		return fmt.Errorf("portal: login rejected for %s", s.cfg.Username)
	}
	s.loggedIn = true
	s.logger.Info("portal login succeeded", "user", s.cfg.Username)
	return nil
}

// Check implements monitor.Driver: it loads the messages page and captures
// the state shown for one protocol. A session that expired mid-run is
// re-established once.
func (s *Session) Check(ctx context.Context, p config.ProtocolConfig) (*monitor.Observation, error) {
	if err := s.Login(ctx); err != nil {
		return nil, err
	}
	obs, err := s.fetch(ctx, p)
	if err == nil {
		return obs, nil
	}
	// One retry after re-login covers server-side session expiry.
	s.loggedIn = false
	if lerr := s.Login(ctx); lerr != nil {
		return nil, fmt.Errorf("portal: relogin after %v: %w", err, lerr)
	}
	return s.fetch(ctx, p)
}

func (s *Session) fetch(ctx context.Context, p config.ProtocolConfig) (*monitor.Observation, error) {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	page := s.page.Context(navCtx)

	if err := page.Navigate(s.cfg.MessagesURL); err != nil {
		return nil, fmt.Errorf("portal: navigate messages: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("portal: messages load: %w", err)
	}
	// Session expiry bounces back to the login form.
	if has, _, _ := page.Has(passwordSelectors[0]); has {
		s.loggedIn = false
		return nil, fmt.Errorf("portal: session expired")
	}

	raw, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("portal: read page source: %w", err)
	}

	// Scope the response text to the row mentioning the protocol when the
	// page structure allows it; the full page is still the fingerprint basis.
	var rowText string
	if el, err := page.Timeout(3 * time.Second).ElementR("tr, li, div", p.Number); err == nil && el != nil {
		if txt, err := el.Text(); err == nil {
			rowText = txt
		}
	}

	obs := BuildObservation([]byte(raw), rowText)
	if png, err := page.Screenshot(true, nil); err != nil {
		s.logger.Warn("screenshot failed", "protocol", p.Number, "error", err)
	} else {
		obs.Screenshot = png
	}
	return obs, nil
}

// Close shuts the browser down.
func (s *Session) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	s.loggedIn = false
	return err
}

// firstElement tries selectors in order with a short per-selector timeout.
func firstElement(page *rod.Page, selectors []string) (*rod.Element, error) {
	for _, sel := range selectors {
		el, err := page.Timeout(3 * time.Second).Element(sel)
		if err == nil && el != nil {
			return el, nil
		}
	}
	return nil, fmt.Errorf("none of %v found", selectors)
}
