package suggestions

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// pendingImages holds the image chosen in /suggest until its modal is
// submitted. Entries expire so abandoned forms do not accumulate.
type pendingImages struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]pendingImage
}

type pendingImage struct {
	url     string
	expires time.Time
}

func newPendingImages(ttl time.Duration) *pendingImages {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &pendingImages{ttl: ttl, now: time.Now, entries: make(map[string]pendingImage)}
}

// put stores url (possibly empty) and returns the token for the modal id.
func (p *pendingImages) put(url string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweepLocked()
	token := uuid.NewString()
	p.entries[token] = pendingImage{url: url, expires: p.now().Add(p.ttl)}
	return token
}

// take consumes a token. ok is false for unknown or expired tokens.
func (p *pendingImages) take(token string) (url string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, found := p.entries[token]
	if !found {
		return "", false
	}
	delete(p.entries, token)
	if p.now().After(e.expires) {
		return "", false
	}
	return e.url, true
}

func (p *pendingImages) sweepLocked() {
	now := p.now()
	for k, e := range p.entries {
		if now.After(e.expires) {
			delete(p.entries, k)
		}
	}
}

func (p *pendingImages) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
