// Package simulated provides a deterministic, in-memory Adapter used for
// every supported site and for automated testing: no real DOM exists, so
// sends are recorded and faults are injected per configuration instead of
// arising from real page failures.
package simulated

import (
	"context"
	"sync"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/log"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/siteadapter"
)

// FaultMode controls what Send reports, standing in for the real adapter
// outcomes a content script would observe when the page's editor or send
// button cannot be found or the site blocks automated input.
type FaultMode int

const (
	FaultNone FaultMode = iota
	FaultNotFound
	FaultBlocked
	FaultManual
)

// Adapter is a configurable, in-memory stand-in for a real per-site
// content-script adapter.
type Adapter struct {
	mu        sync.Mutex
	site      siteadapter.Site
	selectors siteadapter.SelectorDirectory
	fault     FaultMode
	sent      []string
}

// New creates an Adapter for site with the given selector directory.
func New(site siteadapter.Site, selectors siteadapter.SelectorDirectory) *Adapter {
	return &Adapter{site: site, selectors: selectors}
}

// Site returns this adapter's site identifier.
func (a *Adapter) Site() siteadapter.Site { return a.site }

// Selectors returns this site's selector directory.
func (a *Adapter) Selectors() siteadapter.SelectorDirectory { return a.selectors }

// SetFault configures the outcome the next Send calls report.
func (a *Adapter) SetFault(mode FaultMode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fault = mode
}

// Sent returns every text successfully sent, in order.
func (a *Adapter) Sent() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.sent))
	copy(out, a.sent)
	return out
}

// Send records text as sent unless a fault is configured, in which case it
// reports the configured outcome without recording anything.
func (a *Adapter) Send(ctx context.Context, text string, autoSend bool) (siteadapter.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	select {
	case <-ctx.Done():
		return siteadapter.Result{}, ctx.Err()
	default:
	}

	switch a.fault {
	case FaultNotFound:
		log.Warn(log.CatAdapter, "editor not found", "site", a.site)
		return siteadapter.Result{Status: siteadapter.StatusNotFound, Reason: "editor selector did not match"}, nil
	case FaultBlocked:
		log.Warn(log.CatAdapter, "site blocked automated send", "site", a.site)
		return siteadapter.Result{Status: siteadapter.StatusBlocked, Reason: "site rejected automated input"}, nil
	case FaultManual:
		log.Info(log.CatAdapter, "send requires manual confirmation", "site", a.site)
		return siteadapter.Result{Status: siteadapter.StatusManual, Reason: "manual confirmation required"}, nil
	}

	a.sent = append(a.sent, text)
	log.Debug(log.CatAdapter, "dispatched text", "site", a.site, "autoSend", autoSend, "len", len(text))
	return siteadapter.Result{Status: siteadapter.StatusSent}, nil
}
