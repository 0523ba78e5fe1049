// internal/store/memory/store.memory.go
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Tanmoy095/pagos-api/internal/auth"
	"github.com/Tanmoy095/pagos-api/internal/payment"
	"github.com/Tanmoy095/pagos-api/internal/resolution"
)

var (
	_ payment.ClientStore        = (*Store)(nil)
	_ payment.PreferenceStore    = (*Store)(nil)
	_ payment.PaymentStore       = (*Store)(nil)
	_ payment.TransactionManager = (*Store)(nil)
	_ auth.UserStore             = (*Store)(nil)
	_ resolution.Store           = (*Store)(nil)
)

// Store keeps every table in process memory behind one mutex. It enforces
// the same uniqueness rules as the PostgreSQL schema.
type Store struct {
	mu   sync.Mutex
	data state
}

type state struct {
	clients     map[int64]payment.Client
	preferences map[int64]payment.Preference
	items       map[int64][]payment.Item
	payments    map[int64]payment.Payment
	users       map[int64]auth.User
	resolutions map[int64]resolution.Resolution

	nextClient, nextPreference, nextItem, nextPayment, nextUser, nextResolution int64
}

func New() *Store {
	return &Store{data: state{
		clients:     map[int64]payment.Client{},
		preferences: map[int64]payment.Preference{},
		items:       map[int64][]payment.Item{},
		payments:    map[int64]payment.Payment{},
		users:       map[int64]auth.User{},
		resolutions: map[int64]resolution.Resolution{},
	}}
}

// PaymentStores exposes the store through the payment ports.
func (s *Store) PaymentStores() payment.Stores {
	return payment.Stores{Clients: s, Preferences: s, Payments: s, Tx: s}
}

type txKey struct{}

// RunInTx holds the lock for the whole of fn and restores a snapshot when fn
// fails or panics. Store calls made with the ctx handed to fn skip locking.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			panic(p)
		} else if err != nil {
			s.data = snapshot
		}
	}()
	return fn(context.WithValue(ctx, txKey{}, s))
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// lock acquires the mutex unless ctx already runs inside this store's tx.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (st state) clone() state {
	out := st
	out.clients = make(map[int64]payment.Client, len(st.clients))
	for k, v := range st.clients {
		out.clients[k] = v
	}
	out.preferences = make(map[int64]payment.Preference, len(st.preferences))
	for k, v := range st.preferences {
		out.preferences[k] = v
	}
	out.items = make(map[int64][]payment.Item, len(st.items))
	for k, v := range st.items {
		out.items[k] = append([]payment.Item(nil), v...)
	}
	out.payments = make(map[int64]payment.Payment, len(st.payments))
	for k, v := range st.payments {
		out.payments[k] = v
	}
	out.users = make(map[int64]auth.User, len(st.users))
	for k, v := range st.users {
		out.users[k] = v
	}
	out.resolutions = make(map[int64]resolution.Resolution, len(st.resolutions))
	for k, v := range st.resolutions {
		out.resolutions[k] = v
	}
	return out
}

// --- clients ---

func (s *Store) CreateClient(ctx context.Context, c *payment.Client) error {
	defer s.lock(ctx)()
	for _, existing := range s.data.clients {
		if existing.Name == c.Name || existing.ProviderID == c.ProviderID {
			return payment.ErrClientExists
		}
	}
	s.data.nextClient++
	c.ID = s.data.nextClient
	s.data.clients[c.ID] = *c
	return nil
}

func (s *Store) GetClientByID(ctx context.Context, id int64) (*payment.Client, error) {
	defer s.lock(ctx)()
	c, ok := s.data.clients[id]
	if !ok {
		return nil, payment.ErrClientNotFound
	}
	return &c, nil
}

func (s *Store) GetClientByName(ctx context.Context, name string) (*payment.Client, error) {
	return s.findClient(ctx, func(c payment.Client) bool { return c.Name == name })
}

func (s *Store) GetClientByProviderID(ctx context.Context, providerID string) (*payment.Client, error) {
	return s.findClient(ctx, func(c payment.Client) bool { return c.ProviderID == providerID })
}

func (s *Store) findClient(ctx context.Context, match func(payment.Client) bool) (*payment.Client, error) {
	defer s.lock(ctx)()
	for _, c := range s.data.clients {
		if match(c) {
			return &c, nil
		}
	}
	return nil, payment.ErrClientNotFound
}

func (s *Store) ListClients(ctx context.Context) ([]payment.Client, error) {
	defer s.lock(ctx)()
	out := make([]payment.Client, 0, len(s.data.clients))
	for _, c := range s.data.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- preferences ---

func (s *Store) CreatePreference(ctx context.Context, p *payment.Preference) error {
	defer s.lock(ctx)()
	if _, ok := s.data.clients[p.ClientID]; !ok {
		return payment.ErrClientNotFound
	}
	if _, err := payment.ParsePreferenceStatus(string(p.Status)); err != nil {
		return err
	}
	s.data.nextPreference++
	p.ID = s.data.nextPreference
	stored := *p
	stored.Items, stored.Payment = nil, nil
	s.data.preferences[p.ID] = stored
	return nil
}

func (s *Store) CreateItems(ctx context.Context, preferenceID int64, items []payment.Item) error {
	defer s.lock(ctx)()
	if _, ok := s.data.preferences[preferenceID]; !ok {
		return payment.ErrPreferenceNotFound
	}
	for i := range items {
		s.data.nextItem++
		items[i].ID = s.data.nextItem
		items[i].PreferenceID = preferenceID
		s.data.items[preferenceID] = append(s.data.items[preferenceID], items[i])
	}
	return nil
}

func (s *Store) GetPreferenceByID(ctx context.Context, id int64) (*payment.Preference, error) {
	defer s.lock(ctx)()
	p, ok := s.data.preferences[id]
	if !ok {
		return nil, payment.ErrPreferenceNotFound
	}
	p.Items = append([]payment.Item{}, s.data.items[id]...)
	return &p, nil
}

func (s *Store) ListPreferencesByClient(ctx context.Context, clientID int64) ([]payment.Preference, error) {
	defer s.lock(ctx)()
	out := []payment.Preference{}
	for _, p := range s.data.preferences {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) MarkPreferencePaid(ctx context.Context, id int64) error {
	defer s.lock(ctx)()
	p, ok := s.data.preferences[id]
	if !ok {
		return payment.ErrPreferenceNotFound
	}
	if !p.Status.CanTransitionTo(payment.StatusPaid) {
		return payment.ErrPreferenceAlreadyPaid
	}
	p.Status = payment.StatusPaid
	s.data.preferences[id] = p
	return nil
}

func (s *Store) ListPendingPreferences(ctx context.Context, createdBefore time.Time, limit int) ([]payment.Preference, error) {
	defer s.lock(ctx)()
	out := []payment.Preference{}
	for _, p := range s.data.preferences {
		if p.Status == payment.StatusPending && p.CreatedAt.Before(createdBefore) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- payments ---

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	defer s.lock(ctx)()
	if _, ok := s.data.preferences[p.PreferenceID]; !ok {
		return payment.ErrPreferenceNotFound
	}
	for _, existing := range s.data.payments {
		if existing.ProviderPaymentID == p.ProviderPaymentID || existing.PreferenceID == p.PreferenceID {
			return payment.ErrPaymentExists
		}
	}
	s.data.nextPayment++
	p.ID = s.data.nextPayment
	s.data.payments[p.ID] = *p
	return nil
}

func (s *Store) GetPaymentByID(ctx context.Context, id int64) (*payment.Payment, error) {
	defer s.lock(ctx)()
	p, ok := s.data.payments[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	return &p, nil
}

func (s *Store) GetPaymentByProviderID(ctx context.Context, providerPaymentID string) (*payment.Payment, error) {
	return s.findPayment(ctx, func(p payment.Payment) bool { return p.ProviderPaymentID == providerPaymentID })
}

func (s *Store) GetPaymentByPreferenceID(ctx context.Context, preferenceID int64) (*payment.Payment, error) {
	return s.findPayment(ctx, func(p payment.Payment) bool { return p.PreferenceID == preferenceID })
}

func (s *Store) findPayment(ctx context.Context, match func(payment.Payment) bool) (*payment.Payment, error) {
	defer s.lock(ctx)()
	for _, p := range s.data.payments {
		if match(p) {
			return &p, nil
		}
	}
	return nil, payment.ErrPaymentNotFound
}

func (s *Store) ListPaymentsByClient(ctx context.Context, clientID int64) ([]payment.Payment, error) {
	defer s.lock(ctx)()
	out := []payment.Payment{}
	for _, p := range s.data.payments {
		if pref, ok := s.data.preferences[p.PreferenceID]; ok && pref.ClientID == clientID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaidAt.Equal(out[j].PaidAt) {
			return out[i].PaidAt.After(out[j].PaidAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// --- users ---

func (s *Store) FindOrCreate(ctx context.Context, u *auth.User) (*auth.User, error) {
	defer s.lock(ctx)()
	for _, existing := range s.data.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return &existing, nil
		}
	}
	s.data.nextUser++
	created := *u
	created.ID = s.data.nextUser
	s.data.users[created.ID] = created
	return &created, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*auth.User, error) {
	defer s.lock(ctx)()
	u, ok := s.data.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &u, nil
}

// SetUserActive flips the active flag. Administrative, used by tests.
func (s *Store) SetUserActive(ctx context.Context, id int64, active bool) error {
	defer s.lock(ctx)()
	u, ok := s.data.users[id]
	if !ok {
		return auth.ErrUserNotFound
	}
	u.Active = active
	s.data.users[id] = u
	return nil
}

// --- resolutions ---

func (s *Store) CreateResolution(ctx context.Context, r *resolution.Resolution) error {
	defer s.lock(ctx)()
	s.data.nextResolution++
	r.ID = s.data.nextResolution
	s.data.resolutions[r.ID] = *r
	return nil
}

func (s *Store) ListResolutionsByUser(ctx context.Context, userID int64) ([]resolution.Resolution, error) {
	defer s.lock(ctx)()
	out := []resolution.Resolution{}
	for _, r := range s.data.resolutions {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) GetResolutionByID(ctx context.Context, id int64) (*resolution.Resolution, error) {
	defer s.lock(ctx)()
	r, ok := s.data.resolutions[id]
	if !ok {
		return nil, resolution.ErrResolutionNotFound
	}
	return &r, nil
}
