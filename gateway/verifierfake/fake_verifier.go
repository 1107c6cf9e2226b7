package verifierfake

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-vault-server/gateway"
	"github.com/jrsteele09/go-vault-server/identity"
	"github.com/jrsteele09/go-vault-server/internal/apperr"
)

var _ gateway.IdentityVerifier = (*FakeVerifier)(nil)

// FakeVerifier maps assertion strings directly to identities. Unknown
// assertions fail with ErrInvalidAssertion.
type FakeVerifier struct {
	lock       sync.RWMutex
	identities map[string]identity.Identity
	err        error
}

func New() *FakeVerifier {
	return &FakeVerifier{identities: make(map[string]identity.Identity)}
}

// Accept registers an assertion string as valid for the given identity.
func (f *FakeVerifier) Accept(assertion string, id identity.Identity) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.identities[assertion] = id
}

// FailWith makes every Verify call return err, simulating provider trouble.
func (f *FakeVerifier) FailWith(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.err = err
}

func (f *FakeVerifier) Verify(_ context.Context, rawAssertion string) (*identity.Identity, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	if f.err != nil {
		return nil, f.err
	}
	id, ok := f.identities[rawAssertion]
	if !ok {
		return nil, errors.Wrap(apperr.ErrInvalidAssertion, "unknown assertion")
	}
	return &id, nil
}
