package systems

import (
	"sort"

	"github.com/automoto/transformsync/components"
	"github.com/automoto/transformsync/config"
	"github.com/automoto/transformsync/network"
	"github.com/automoto/transformsync/shared/messages"
	"github.com/automoto/transformsync/tags"
	"github.com/go-logr/logr"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// AuthoritySystem runs one AuthoritySession per authority-tagged entity.
// Sessions are created lazily the first time an entity is seen and closed when
// the entity leaves the world. Update and Bootstrap must run on the same
// goroutine as the rest of the ECS.
type AuthoritySystem struct {
	cfg    config.SyncConfig
	out    network.Broadcaster
	opts   []network.Option
	logger logr.Logger

	sessions map[string]*authorityBinding
	skipped  map[donburi.Entity]bool
}

type authorityBinding struct {
	entity  donburi.Entity
	session *network.AuthoritySession
	seen    bool
}

func NewAuthoritySystem(cfg config.SyncConfig, out network.Broadcaster, logger logr.Logger, opts ...network.Option) *AuthoritySystem {
	logger = logger.WithName("authority")
	return &AuthoritySystem{
		cfg:      cfg,
		out:      out,
		opts:     append(opts, network.WithLogger(logger)),
		logger:   logger,
		sessions: make(map[string]*authorityBinding),
		skipped:  make(map[donburi.Entity]bool),
	}
}

// Update ticks every tracked object once.
func (s *AuthoritySystem) Update(e *ecs.ECS) {
	for _, b := range s.sessions {
		b.seen = false
	}

	tags.Authority.Each(e.World, func(entry *donburi.Entry) {
		b := s.bind(entry)
		if b == nil {
			return
		}
		b.seen = true
		b.session.Tick()
	})

	for id, b := range s.sessions {
		if !b.seen {
			s.logger.Info("Tracked object removed", "object", id)
			b.session.Close()
			delete(s.sessions, id)
		}
	}
}

func (s *AuthoritySystem) bind(entry *donburi.Entry) *authorityBinding {
	if !entry.HasComponent(components.Tracked) {
		return nil
	}
	id := components.Tracked.Get(entry).ID
	if b, ok := s.sessions[id]; ok && b.entity == entry.Entity() {
		return b
	}
	if s.skipped[entry.Entity()] {
		return nil
	}

	var n network.Node
	if node, ok := components.NodeOf(entry); ok {
		n = node
	}
	session, err := network.NewAuthoritySession(id, s.cfg, n, s.out, s.opts...)
	if err != nil {
		s.logger.Error(err, "Skipping tracked object", "object", id)
		s.skipped[entry.Entity()] = true
		return nil
	}
	if old, ok := s.sessions[id]; ok {
		old.session.Close()
	}

	b := &authorityBinding{entity: entry.Entity(), session: session}
	s.sessions[id] = b
	s.logger.Info("Tracking object", "object", id)
	return b
}

// Bootstrap answers a bootstrap request. An empty object ID returns every
// tracked object, ordered by ID.
func (s *AuthoritySystem) Bootstrap(req messages.BootstrapRequest) []messages.BootstrapResponse {
	if req.ObjectID != "" {
		b, ok := s.sessions[req.ObjectID]
		if !ok {
			s.logger.V(1).Info("Bootstrap for unknown object", "object", req.ObjectID)
			return nil
		}
		return []messages.BootstrapResponse{b.session.BootstrapState()}
	}

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]messages.BootstrapResponse, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.sessions[id].session.BootstrapState())
	}
	return out
}

// Objects returns the IDs of all tracked objects.
func (s *AuthoritySystem) Objects() []string {
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close releases every session.
func (s *AuthoritySystem) Close() {
	for id, b := range s.sessions {
		b.session.Close()
		delete(s.sessions, id)
	}
}
