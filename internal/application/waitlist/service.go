package waitlist

type Service struct {
	store PartyStore
	jobs  JobBus
	bus   Broadcaster
	clock Clock

	maxSeats      int
	maxNameLength int
}

func New(
	store PartyStore,
	jobs JobBus,
	bus Broadcaster,
	clock Clock,
	maxSeats, maxNameLength int,
) *Service {
	// Defaults if 0
	if maxSeats == 0 {
		maxSeats = 10
	}
	if maxNameLength == 0 {
		maxNameLength = 30
	}

	return &Service{
		store:         store,
		jobs:          jobs,
		bus:           bus,
		clock:         clock,
		maxSeats:      maxSeats,
		maxNameLength: maxNameLength,
	}
}

// MaxSeats is exposed for request validation at the transport layer.
func (s *Service) MaxSeats() int { return s.maxSeats }

// MaxNameLength is exposed for request validation at the transport layer.
func (s *Service) MaxNameLength() int { return s.maxNameLength }
