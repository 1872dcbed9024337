package customer

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const lockStripes = 64

// Notifier receives committed customer changes.
type Notifier interface {
	Publish(ctx context.Context, change Change) error
}

// Service applies API requests to a Store.
type Service struct {
	store    Store
	notifier Notifier
	logger   *log.Entry
	now      func() time.Time

	// Mutations of the same id hold the same stripe, so an update that
	// races a delete cannot write the record back.
	locks [lockStripes]sync.Mutex
}

type Option func(*Service)

// WithNotifier publishes every committed change to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithLogger replaces the default component logger.
func WithLogger(l *log.Entry) Option {
	return func(s *Service) {
		s.logger = l
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: log.WithField("component", "customer"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) lock(id int64) func() {
	m := &s.locks[uint64(id)%lockStripes]
	m.Lock()
	return m.Unlock
}

func (s *Service) List(ctx context.Context) ([]Customer, error) {
	return s.store.FindAll(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, f Fields) (*Customer, error) {
	if err := f.validateCreate(); err != nil {
		return nil, err
	}

	c := &Customer{}
	f.Apply(c)

	created, err := s.store.Save(ctx, c)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, Created, created.ID, created)
	return created, nil
}

// Update overwrites the supplied fields of an existing customer.
func (s *Service) Update(ctx context.Context, id int64, f Fields) (*Customer, error) {
	if err := f.validateUpdate(); err != nil {
		return nil, err
	}

	unlock := s.lock(id)
	defer unlock()

	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f.Apply(c)

	updated, err := s.store.Save(ctx, c)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, Updated, updated.ID, updated)
	return updated, nil
}

// Delete removes an existing customer. It returns ErrNotFound, without
// touching the store, when the id is unknown.
func (s *Service) Delete(ctx context.Context, id int64) error {
	unlock := s.lock(id)
	defer unlock()

	if _, err := s.store.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.notify(ctx, Deleted, id, nil)
	return nil
}

func (s *Service) notify(ctx context.Context, kind ChangeKind, id int64, c *Customer) {
	if s.notifier == nil {
		return
	}

	change := Change{Kind: kind, ID: id, At: s.now()}
	if c != nil {
		cp := *c
		change.Customer = &cp
	}

	if err := s.notifier.Publish(ctx, change); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"change":      kind,
			"customer_id": id,
		}).Warn("failed to publish customer change")
	}
}
