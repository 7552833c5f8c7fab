package network

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/automoto/transformsync/config"
	"github.com/automoto/transformsync/shared/messages"
	"github.com/automoto/transformsync/shared/netcomponents"
	"github.com/automoto/transformsync/shared/netconfig"
	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
)

// ErrNoTarget is returned when a session is built without a tracked object.
var ErrNoTarget = errors.New("no tracked object")

// Node is the host object whose transform a session reads or writes.
type Node interface {
	Transform() netcomponents.TransformData
	SetTransform(netcomponents.TransformData)
}

// Broadcaster sends snapshots on the unreliable-ordered path.
type Broadcaster interface {
	Broadcast(msg messages.TransformSnapshot) error
}

// Requester sends bootstrap requests on the reliable path.
type Requester interface {
	RequestBootstrap(req messages.BootstrapRequest) error
}

// Option customizes a session.
type Option func(*sessionOptions)

type sessionOptions struct {
	clock  clock.PassiveClock
	logger logr.Logger
}

// WithClock sets the wall clock used for snapshot and render times.
func WithClock(c clock.PassiveClock) Option {
	return func(o *sessionOptions) {
		o.clock = c
	}
}

// WithLogger sets the session logger.
func WithLogger(l logr.Logger) Option {
	return func(o *sessionOptions) {
		o.logger = l
	}
}

func buildOptions(opts []Option) sessionOptions {
	o := sessionOptions{
		clock:  clock.RealClock{},
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func checkSession(cfg config.SyncConfig, node Node) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if node == nil {
		return ErrNoTarget
	}
	return nil
}

// AuthoritySession samples a tracked object every production tick and
// broadcasts it when it changes.
type AuthoritySession struct {
	id       string
	mask     netconfig.SyncMask
	node     Node
	out      Broadcaster
	detector *ChangeDetector
	clock    clock.PassiveClock
	logger   logr.Logger
}

// NewAuthoritySession binds node to out under the given object ID.
func NewAuthoritySession(id string, cfg config.SyncConfig, node Node, out Broadcaster, opts ...Option) (*AuthoritySession, error) {
	if err := checkSession(cfg, node); err != nil {
		return nil, fmt.Errorf("authority session %s: %w", id, err)
	}
	if out == nil {
		return nil, fmt.Errorf("authority session %s: nil broadcaster", id)
	}
	o := buildOptions(opts)
	return &AuthoritySession{
		id:       id,
		mask:     cfg.Mask(),
		node:     node,
		out:      out,
		detector: NewChangeDetector(cfg.Mask()),
		clock:    o.clock,
		logger:   o.logger.WithValues("object", id),
	}, nil
}

func (s *AuthoritySession) ID() string {
	return s.id
}

// Tick runs one production step. It reports whether a snapshot was handed to
// the broadcaster. Broadcast failures are logged and otherwise ignored; the
// path is lossy by contract.
func (s *AuthoritySession) Tick() bool {
	snap, send := s.detector.Sample(s.node.Transform(), NowMs(s.clock))
	if !send {
		recordSuppressed(s.id)
		return false
	}

	if snap.Idle {
		s.logger.V(1).Info("Object came to rest, sending idle snapshot")
	}
	if err := s.out.Broadcast(snap.Message(s.id)); err != nil {
		s.logger.V(1).Info("Broadcast failed", "error", err)
	}
	recordSent(s.id, snap.Idle)
	return true
}

// Idle reports whether the object was unchanged on the last tick.
func (s *AuthoritySession) Idle() bool {
	return s.detector.Idle()
}

// BootstrapState answers a bootstrap request with the object's current
// transform, unsynced components zeroed.
func (s *AuthoritySession) BootstrapState() messages.BootstrapResponse {
	t := s.mask.Masked(s.node.Transform())
	return messages.BootstrapResponse{
		ObjectID: s.id,
		Position: t.Position,
		Rotation: t.Rotation,
		Scale:    t.Scale,
	}
}

// Close releases the session's metrics.
func (s *AuthoritySession) Close() {
	forgetObject(s.id)
}

// ObserverSession reconstructs a smooth pose from received snapshots.
//
// Deliver may be called from any goroutine. Everything else belongs to the
// render tick: Render drains the inbox into the buffer before trimming, so the
// buffer itself is never shared.
type ObserverSession struct {
	id     string
	mask   netconfig.SyncMask
	node   Node
	req    Requester
	inbox  chan Snapshot
	buffer *SnapshotBuffer
	delay  *DelayController
	interp Interpolator
	clock  clock.PassiveClock
	logger logr.Logger

	closed       atomic.Bool
	requested    bool
	bootstrapped bool
}

// NewObserverSession binds node to snapshots for the given object ID. req may
// be nil when the bootstrap was already requested on the session's behalf.
func NewObserverSession(id string, cfg config.SyncConfig, node Node, req Requester, opts ...Option) (*ObserverSession, error) {
	if err := checkSession(cfg, node); err != nil {
		return nil, fmt.Errorf("observer session %s: %w", id, err)
	}
	o := buildOptions(opts)
	return &ObserverSession{
		id:     id,
		mask:   cfg.Mask(),
		node:   node,
		req:    req,
		inbox:  make(chan Snapshot, cfg.InboxSize),
		buffer: NewSnapshotBuffer(cfg.InboxSize),
		delay:  NewDelayController(cfg.OffsetMinMs, cfg.OffsetMaxMs, cfg.InitialOffsetMs),
		interp: Interpolator{Mask: cfg.Mask()},
		clock:  o.clock,
		logger: o.logger.WithValues("object", id),
	}, nil
}

func (s *ObserverSession) ID() string {
	return s.id
}

// Start asks the authority for the object's current transform. It sends at
// most one request per session.
func (s *ObserverSession) Start() error {
	if s.requested || s.req == nil {
		return nil
	}
	s.requested = true
	if err := s.req.RequestBootstrap(messages.BootstrapRequest{ObjectID: s.id}); err != nil {
		return fmt.Errorf("request bootstrap for %s: %w", s.id, err)
	}
	s.logger.V(1).Info("Requested bootstrap")
	return nil
}

// ApplyBootstrap writes an authoritative transform straight to the node,
// bypassing the buffer.
func (s *ObserverSession) ApplyBootstrap(resp messages.BootstrapResponse) {
	if resp.ObjectID != s.id || s.closed.Load() {
		return
	}
	s.requested = true
	s.bootstrapped = true
	s.node.SetTransform(s.mask.Apply(s.node.Transform(), netcomponents.TransformData{
		Position: resp.Position,
		Rotation: resp.Rotation,
		Scale:    resp.Scale,
	}))
	s.logger.V(1).Info("Applied bootstrap", "position", resp.Position)
}

// Bootstrapped reports whether a bootstrap response has been applied.
func (s *ObserverSession) Bootstrapped() bool {
	return s.bootstrapped
}

// Deliver queues a received snapshot for the next render tick. It never
// blocks; when the inbox is full the snapshot is dropped, which the lossy
// path already allows.
func (s *ObserverSession) Deliver(msg messages.TransformSnapshot) bool {
	if msg.ObjectID != s.id {
		return false
	}
	if s.closed.Load() {
		recordDropped(s.id)
		return false
	}
	select {
	case s.inbox <- SnapshotFromMessage(msg):
		recordReceived(s.id)
		return true
	default:
		recordDropped(s.id)
		s.logger.V(1).Info("Inbox full, dropping snapshot", "snapTimeMs", msg.SnapTimeMs)
		return false
	}
}

// Render runs one render tick: drain arrivals, trim, interpolate, apply the
// pose, then feed the delay controller. Idle holds do not feed the
// controller. ok is false during cold start, when the node is left alone.
func (s *ObserverSession) Render() (pose Pose, ok bool) {
	if s.closed.Load() {
		return Pose{}, false
	}
	s.drain()

	renderTime := NowMs(s.clock) - float64(s.delay.OffsetMs())
	pose, ok = s.interp.Interpolate(s.buffer, renderTime)
	if !ok {
		return Pose{}, false
	}

	s.node.SetTransform(pose.Apply(s.mask, s.node.Transform()))

	if !pose.Idle {
		if adj := s.delay.Observe(pose.Factor, s.buffer.Len()); adj != AdjustNone {
			s.logger.V(2).Info("Adjusted render delay", "adjustment", adj.String(),
				"offsetMs", s.delay.OffsetMs(), "factor", pose.Factor)
		}
	}
	recordRender(s.id, pose, s.buffer.Len(), s.delay.OffsetMs())
	return pose, true
}

func (s *ObserverSession) drain() {
	for {
		select {
		case snap := <-s.inbox:
			s.buffer.Append(snap)
		default:
			return
		}
	}
}

// OffsetMs returns the current render delay.
func (s *ObserverSession) OffsetMs() int {
	return s.delay.OffsetMs()
}

// BufferLen returns the buffered snapshot count as of the last render tick.
func (s *ObserverSession) BufferLen() int {
	return s.buffer.Len()
}

// Close stops accepting snapshots and drops the buffer.
func (s *ObserverSession) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.buffer.Reset()
	forgetObject(s.id)
}
