package netted

import "context"

// Store abstracts the position persistence for the service and the
// sync job.
type Store interface {
	Replace(ctx context.Context, positions []Position) error
	List(ctx context.Context, nameFilter string, limit, offset int) ([]Position, int, error)
	LastRun(ctx context.Context) (RunInfo, error)
}

var _ Store = (*Repository)(nil)

// Service serves the netted report from the local store.
type Service struct {
	store Store
}

// NewService wires the store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns one page of netted positions plus the run they belong
// to. ErrNoSync surfaces untouched so the handler can say the store is
// empty rather than broken.
func (s *Service) List(ctx context.Context, nameFilter string, limit, offset int) ([]Position, int, RunInfo, error) {
	positions, total, err := s.store.List(ctx, nameFilter, limit, offset)
	if err != nil {
		return nil, 0, RunInfo{}, err
	}
	run, err := s.store.LastRun(ctx)
	if err != nil && err != ErrNoSync {
		return nil, 0, RunInfo{}, err
	}
	return positions, total, run, nil
}

// Replace stores a full sync run's positions.
func (s *Service) Replace(ctx context.Context, positions []Position) error {
	return s.store.Replace(ctx, positions)
}
