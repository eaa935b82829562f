package firebase

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// DefaultJWKSURL serves the keys that sign provider ID tokens.
const DefaultJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

var errUnknownKid = errors.New("kid not found in JWKS")

// keySet caches the provider's signing keys and refetches them once TTL passes
// or an unknown kid shows up.
type keySet struct {
	url  string
	ttl  time.Duration
	http *http.Client

	mu    sync.RWMutex
	keys  map[string]*rsa.PublicKey
	expAt time.Time
}

func newKeySet(url string, ttl time.Duration, hc *http.Client) *keySet {
	return &keySet{url: url, ttl: ttl, http: hc, keys: map[string]*rsa.PublicKey{}}
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (k *keySet) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return err
	}
	resp, err := k.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	var doc struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}
	tmp := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, j := range doc.Keys {
		if j.Kty != "RSA" {
			continue
		}
		nb, err := base64.RawURLEncoding.DecodeString(j.N)
		if err != nil {
			continue
		}
		eb, err := base64.RawURLEncoding.DecodeString(j.E)
		if err != nil || len(eb) == 0 {
			continue
		}
		tmp[j.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(nb),
			E: int(new(big.Int).SetBytes(eb).Int64()),
		}
	}

	k.mu.Lock()
	k.keys = tmp
	k.expAt = time.Now().Add(k.ttl)
	k.mu.Unlock()
	return nil
}

func (k *keySet) get(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	pk, ok := k.keys[kid]
	fresh := time.Now().Before(k.expAt)
	k.mu.RUnlock()
	if ok && fresh {
		return pk, nil
	}

	if err := k.refresh(ctx); err != nil {
		return nil, err
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.keys[kid]; ok {
		return pk, nil
	}
	return nil, errUnknownKid
}
