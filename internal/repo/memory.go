package repo

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/profile-service/internal/domain"
)

// Memory is a process-local store with the same uniqueness and versioning
// rules as Store. Documents are kept BSON-encoded so callers never share
// pointers with the stored state.
type Memory struct {
	mu    sync.RWMutex
	docs  map[primitive.ObjectID][]byte
	order []primitive.ObjectID
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[primitive.ObjectID][]byte)}
}

func (m *Memory) Ping(context.Context) error  { return nil }
func (m *Memory) Close(context.Context) error { return nil }

func (m *Memory) decode(raw []byte, withPassword bool) (*domain.Profile, error) {
	var p domain.Profile
	if err := bson.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if !withPassword {
		p.Password = ""
	}
	return &p, nil
}

// scan returns the first profile matching pred, or nil. Caller holds mu.
func (m *Memory) scan(withPassword bool, pred func(*domain.Profile) bool) (*domain.Profile, error) {
	for _, id := range m.order {
		p, err := m.decode(m.docs[id], withPassword)
		if err != nil {
			return nil, err
		}
		if pred(p) {
			return p, nil
		}
	}
	return nil, nil
}

func (m *Memory) FindByID(_ context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	return m.decode(raw, false)
}

func (m *Memory) FindByUsername(_ context.Context, username string) (*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scan(false, func(p *domain.Profile) bool { return p.Username == username })
}

func (m *Memory) FindByExternalID(_ context.Context, uid string) (*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scan(false, func(p *domain.Profile) bool { return p.ExternalAuthID == uid })
}

func (m *Memory) FindCredentials(_ context.Context, username string) (*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scan(true, func(p *domain.Profile) bool { return p.Username == username })
}

func (m *Memory) EmailInUse(_ context.Context, email string, except primitive.ObjectID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, err := m.scan(false, func(p *domain.Profile) bool {
		return p.ID != except && p.PersonalInfo != nil && strings.EqualFold(p.PersonalInfo.Email, email)
	})
	return p != nil, err
}

// conflict enforces the sparse unique indexes against every document but self.
func (m *Memory) conflict(candidate *domain.Profile) error {
	for _, id := range m.order {
		if id == candidate.ID {
			continue
		}
		p, err := m.decode(m.docs[id], false)
		if err != nil {
			return err
		}
		switch {
		case candidate.Username != "" && p.Username == candidate.Username:
			return ErrUsernameTaken
		case candidate.ExternalAuthID != "" && p.ExternalAuthID == candidate.ExternalAuthID:
			return ErrExternalIDTaken
		case candidate.PersonalInfo != nil && candidate.PersonalInfo.Email != "" &&
			p.PersonalInfo != nil && strings.EqualFold(p.PersonalInfo.Email, candidate.PersonalInfo.Email):
			return ErrEmailTaken
		}
	}
	return nil
}

func (m *Memory) Create(_ context.Context, p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, ok := m.docs[p.ID]; ok {
		return ErrDuplicate
	}
	if err := m.conflict(p); err != nil {
		return err
	}
	raw, err := bson.Marshal(p)
	if err != nil {
		return err
	}
	m.docs[p.ID] = raw
	m.order = append(m.order, p.ID)
	return nil
}

func (m *Memory) ReplaceSection(_ context.Context, id primitive.ObjectID, version int64, field string, value any) (*domain.Profile, error) {
	return m.update(id, version, func(raw bson.M) { raw[field] = value })
}

func (m *Memory) PatchSocials(_ context.Context, id primitive.ObjectID, version int64, patch domain.SocialsPatch) (*domain.Profile, error) {
	return m.update(id, version, func(raw bson.M) {
		var s domain.Socials
		if cur, ok := raw["socials"]; ok && cur != nil {
			b, _ := bson.Marshal(cur)
			_ = bson.Unmarshal(b, &s)
		}
		patch.Apply(&s)
		raw["socials"] = s
	})
}

// update applies mutate to the generic document form, so field names follow
// the bson tags exactly as a $set would.
func (m *Memory) update(id primitive.ObjectID, version int64, mutate func(bson.M)) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cur, err := m.decode(stored, true)
	if err != nil {
		return nil, err
	}
	if cur.Version != version {
		return nil, ErrVersionConflict
	}

	var doc bson.M
	if err := bson.Unmarshal(stored, &doc); err != nil {
		return nil, err
	}
	mutate(doc)
	doc["version"] = version + 1
	doc["updatedAt"] = time.Now().UTC()

	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	next, err := m.decode(raw, true)
	if err != nil {
		return nil, err
	}
	if err := m.conflict(next); err != nil {
		return nil, err
	}
	m.docs[id] = raw
	next.Password = ""
	return next, nil
}

func (m *Memory) List(context.Context) ([]domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Profile, 0, len(m.order))
	for _, id := range m.order {
		p, err := m.decode(m.docs[id], false)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}
