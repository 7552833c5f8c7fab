package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/automoto/transformsync/config"
	"github.com/automoto/transformsync/network"
	"github.com/automoto/transformsync/shared/messages"
	"github.com/automoto/transformsync/shared/netcomponents"
	"github.com/automoto/transformsync/systems"
	"github.com/automoto/transformsync/systems/factory"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	"k8s.io/utils/clock"
)

// Peer is a connected observer.
type Peer interface {
	Id() string
	SendMessage(msg any) error
}

type bootstrapCommand struct {
	peer Peer
	req  messages.BootstrapRequest
}

// Server owns the authoritative world and fans snapshots out to every
// connected observer. The world is only touched from the game loop; router
// callbacks hand requests over through the command queue.
type Server struct {
	ecs       *ecs.ECS
	loop      *GameLoop
	transport *transports.WsServerTransport
	authority *systems.AuthoritySystem
	motion    func(*ecs.ECS)
	cfg       config.ServerConfig
	motionCfg config.MotionConfig
	logger    logr.Logger

	peers    map[string]Peer
	mu       sync.RWMutex
	commands chan bootstrapCommand
}

// NewServer creates a server ticking on clk. Nothing is spawned until
// SpawnDemoObjects is called.
func NewServer(syncCfg config.SyncConfig, srvCfg config.ServerConfig, motion config.MotionConfig, clk clock.WithTicker, logger logr.Logger) *Server {
	logger = logger.WithName("server")
	s := &Server{
		ecs:       ecs.NewECS(donburi.NewWorld()),
		cfg:       srvCfg,
		motionCfg: motion,
		logger:    logger,
		peers:     make(map[string]Peer),
		commands:  make(chan bootstrapCommand, syncCfg.InboxSize),
	}
	s.authority = systems.NewAuthoritySystem(syncCfg, s, logger, network.WithClock(clk))
	s.motion = systems.NewMotionSystem(float32(syncCfg.TickInterval().Seconds()))
	s.loop = NewGameLoop(s, syncCfg.TickInterval(), clk, logger)
	return s
}

// SpawnDemoObjects adds n scripted objects, spaced along Z, and returns their IDs.
func (s *Server) SpawnDemoObjects(n int) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.NewString()
		origin := netcomponents.Vec3{Z: float64(i) * 2}
		factory.CreateAuthorityObject(s.ecs, id, origin, s.motionCfg)
		ids = append(ids, id)
		s.logger.Info("Spawned object", "object", id, "origin", origin)
	}
	return ids
}

// Start runs the game loop and blocks serving WebSocket connections.
func (s *Server) Start() error {
	s.setupRouterCallbacks()

	go s.loop.Run()

	s.transport = transports.NewWsServerTransport(s.cfg.Port, "", nil)
	if err := s.transport.Start(); err != nil {
		return fmt.Errorf("websocket transport: %w", err)
	}
	return nil
}

// Stop halts the game loop. The loop releases the sync sessions on its way out.
func (s *Server) Stop() {
	s.loop.Stop()
}

func (s *Server) setupRouterCallbacks() {
	router.OnConnect(func(client *router.NetworkClient) {
		s.addPeer(client)
	})

	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		if err != nil {
			s.logger.Info("Observer disconnected", "peer", client.Id(), "reason", err)
		}
		s.removePeer(client.Id())
	})

	router.On(func(client *router.NetworkClient, req messages.BootstrapRequest) {
		s.enqueueBootstrap(client, req)
	})

	router.OnError(func(client *router.NetworkClient, err error) {
		s.logger.Error(err, "Client error", "peer", client.Id())
	})
}

func (s *Server) addPeer(p Peer) {
	s.mu.Lock()
	s.peers[p.Id()] = p
	s.mu.Unlock()
	s.logger.Info("Observer connected", "peer", p.Id())
}

func (s *Server) removePeer(id string) {
	s.mu.Lock()
	delete(s.peers, id)
	s.mu.Unlock()
	s.logger.Info("Observer removed", "peer", id)
}

func (s *Server) enqueueBootstrap(p Peer, req messages.BootstrapRequest) {
	select {
	case s.commands <- bootstrapCommand{peer: p, req: req}:
	default:
		s.logger.Error(nil, "Command queue full, bootstrap request dropped", "peer", p.Id(), "object", req.ObjectID)
	}
}

// Broadcast implements network.Broadcaster. A failing peer does not stop
// delivery to the others.
func (s *Server) Broadcast(msg messages.TransformSnapshot) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var errs []error
	for id, p := range s.peers {
		if err := p.SendMessage(msg); err != nil {
			errs = append(errs, fmt.Errorf("peer %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// ProcessCommands answers queued bootstrap requests. It runs on the game loop.
func (s *Server) ProcessCommands() {
	for {
		select {
		case cmd := <-s.commands:
			s.answer(cmd)
		default:
			return
		}
	}
}

func (s *Server) answer(cmd bootstrapCommand) {
	responses := s.authority.Bootstrap(cmd.req)
	for _, resp := range responses {
		if err := cmd.peer.SendMessage(resp); err != nil {
			s.logger.Error(err, "Failed to send bootstrap", "peer", cmd.peer.Id(), "object", resp.ObjectID)
			return
		}
	}
	s.logger.V(1).Info("Answered bootstrap", "peer", cmd.peer.Id(), "object", cmd.req.ObjectID, "responses", len(responses))
}

func (s *Server) tick() {
	s.motion(s.ecs)
	s.authority.Update(s.ecs)
	s.ProcessCommands()
}

// ECS returns the authoritative world.
func (s *Server) ECS() *ecs.ECS {
	return s.ecs
}

// Objects returns the IDs of every tracked object.
func (s *Server) Objects() []string {
	return s.authority.Objects()
}

// PeerCount returns the number of connected observers.
func (s *Server) PeerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}
