package systems

import (
	"fmt"

	"github.com/automoto/transformsync/components"
	"github.com/automoto/transformsync/config"
	"github.com/automoto/transformsync/network"
	"github.com/automoto/transformsync/shared/messages"
	"github.com/automoto/transformsync/systems/factory"
	"github.com/go-logr/logr"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// Source yields what arrived from the authority since the last call.
type Source interface {
	DrainSnapshots() []messages.TransformSnapshot
	DrainBootstraps() []messages.BootstrapResponse
}

// ObserverSystem owns one ObserverSession per observed entity. In discover
// mode, entities are spawned for object IDs the first time they show up on the
// wire; otherwise only tracked IDs are rendered and the rest are ignored.
type ObserverSystem struct {
	cfg      config.SyncConfig
	src      Source
	req      network.Requester
	opts     []network.Option
	logger   logr.Logger
	discover bool

	sessions map[string]*observerBinding
}

type observerBinding struct {
	entry   *donburi.Entry
	session *network.ObserverSession
}

func NewObserverSystem(cfg config.SyncConfig, src Source, req network.Requester, discover bool, logger logr.Logger, opts ...network.Option) *ObserverSystem {
	logger = logger.WithName("observer")
	return &ObserverSystem{
		cfg:      cfg,
		src:      src,
		req:      req,
		opts:     append(opts, network.WithLogger(logger)),
		logger:   logger,
		discover: discover,
		sessions: make(map[string]*observerBinding),
	}
}

// Track spawns an observed entity for id and requests its bootstrap.
func (s *ObserverSystem) Track(e *ecs.ECS, id string) (*donburi.Entry, error) {
	if b, ok := s.sessions[id]; ok {
		return b.entry, nil
	}
	b, err := s.spawn(e, id, s.req)
	if err != nil {
		return nil, err
	}
	if err := b.session.Start(); err != nil {
		s.logger.Error(err, "Bootstrap request failed", "object", id)
	}
	return b.entry, nil
}

// spawn creates the entity and its session. req is nil for discovered
// objects, whose state was already requested by the catch-all bootstrap.
func (s *ObserverSystem) spawn(e *ecs.ECS, id string, req network.Requester) (*observerBinding, error) {
	entry := factory.CreateObservedObject(e, id)
	node, _ := components.NodeOf(entry)
	session, err := network.NewObserverSession(id, s.cfg, node, req, s.opts...)
	if err != nil {
		e.World.Remove(entry.Entity())
		return nil, fmt.Errorf("track %s: %w", id, err)
	}
	b := &observerBinding{entry: entry, session: session}
	s.sessions[id] = b
	s.logger.Info("Observing object", "object", id)
	return b, nil
}

func (s *ObserverSystem) lookup(e *ecs.ECS, id string) *observerBinding {
	if b, ok := s.sessions[id]; ok {
		return b
	}
	if !s.discover || id == "" {
		return nil
	}
	b, err := s.spawn(e, id, nil)
	if err != nil {
		s.logger.Error(err, "Cannot observe discovered object", "object", id)
		return nil
	}
	return b
}

// Update applies bootstraps, queues snapshots and renders every session.
func (s *ObserverSystem) Update(e *ecs.ECS) {
	s.prune()

	if s.src != nil {
		for _, resp := range s.src.DrainBootstraps() {
			if b := s.lookup(e, resp.ObjectID); b != nil {
				b.session.ApplyBootstrap(resp)
			}
		}
		for _, msg := range s.src.DrainSnapshots() {
			if b := s.lookup(e, msg.ObjectID); b != nil {
				b.session.Deliver(msg)
			}
		}
	}

	for _, b := range s.sessions {
		pose, ok := b.session.Render()
		components.NetInterp.SetValue(b.entry, components.NetInterpData{
			Rendered:  ok,
			Factor:    pose.Factor,
			Idle:      pose.Idle,
			OffsetMs:  b.session.OffsetMs(),
			BufferLen: b.session.BufferLen(),
		})
	}
}

// Session returns the session observing id.
func (s *ObserverSystem) Session(id string) (*network.ObserverSession, bool) {
	b, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return b.session, true
}

func (s *ObserverSystem) prune() {
	for id, b := range s.sessions {
		if !b.entry.Valid() {
			s.logger.Info("Observed object removed", "object", id)
			b.session.Close()
			delete(s.sessions, id)
		}
	}
}

// Close releases every session. Entities are left in the world.
func (s *ObserverSystem) Close() {
	for id, b := range s.sessions {
		b.session.Close()
		delete(s.sessions, id)
	}
}
