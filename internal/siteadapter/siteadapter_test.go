package siteadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct{ site Site }

func (s stubAdapter) Site() Site { return s.site }
func (s stubAdapter) Send(ctx context.Context, text string, autoSend bool) (Result, error) {
	return Result{Status: StatusSent}, nil
}
func (s stubAdapter) Selectors() SelectorDirectory { return SelectorDirectory{} }

func TestRegisterAndNew(t *testing.T) {
	site := Site("test-site-register")
	Register(site, func() Adapter { return stubAdapter{site: site} })

	a, err := New(site)
	require.NoError(t, err)
	assert.Equal(t, site, a.Site())
	assert.True(t, IsRegistered(site))
}

func TestNew_UnknownSite(t *testing.T) {
	_, err := New(Site("does-not-exist"))
	assert.ErrorIs(t, err, ErrUnknownSite)
}

func TestRegisteredSites_IncludesRegistered(t *testing.T) {
	site := Site("test-site-listed")
	Register(site, func() Adapter { return stubAdapter{site: site} })

	assert.Contains(t, RegisteredSites(), site)
}
