// Package natssink publishes package lifecycle states to NATS.
//
// A Sink is a dispatch.Handler. Each state is JSON encoded as
//
//	{"package":"com.example.app","state":"installed"}
//
// and published on "<prefix>.<state>", for example "pkgwatch.fully_removed".
// Publish failures are logged and never reach the dispatch worker.
package natssink

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/nats-io/nats.go"

	"github.com/bft-labs/pkgwatch/pkg/dispatch"
	"github.com/bft-labs/pkgwatch/pkg/log"
	"github.com/bft-labs/pkgwatch/pkg/state"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "pkgwatch"

// ErrNilPublisher is returned by New when no publisher is supplied.
var ErrNilPublisher = errors.New("pkgwatch: nats publisher is nil")

// Publisher is the subset of *nats.Conn the sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Sink forwards lifecycle states to a Publisher.
type Sink struct {
	pub    Publisher
	prefix string
	logger log.Logger
	conn   *nats.Conn // set when the sink dialed the connection itself

	published atomic.Uint64
	failed    atomic.Uint64
}

// New wraps an existing publisher. An empty prefix means DefaultPrefix.
func New(pub Publisher, prefix string, logger log.Logger) (*Sink, error) {
	if pub == nil {
		return nil, ErrNilPublisher
	}
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Sink{
		pub:    pub,
		prefix: prefix,
		logger: log.WithComponent(logger, "natssink"),
	}, nil
}

// Connect dials url and returns a sink that owns the connection.
func Connect(url, prefix string, logger log.Logger) (*Sink, error) {
	conn, err := nats.Connect(url, nats.Name("pkgwatch"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	s, err := New(conn, prefix, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.conn = conn
	s.logger.Info("connected to nats",
		log.String("url", conn.ConnectedUrlRedacted()),
		log.String("prefix", s.prefix),
	)
	return s, nil
}

// Subject returns the subject a state of the given kind is published on.
func (s *Sink) Subject(k state.Kind) string {
	return s.prefix + "." + k.Name()
}

// OnPackageStateChanged implements dispatch.Handler.
func (s *Sink) OnPackageStateChanged(ls state.LifecycleState) {
	data, err := json.Marshal(ls)
	if err != nil {
		s.failed.Add(1)
		s.logger.Error("encode state", log.Stringer("state", ls), log.Err(err))
		return
	}

	subject := s.Subject(ls.Kind())
	if err := s.pub.Publish(subject, data); err != nil {
		s.failed.Add(1)
		s.logger.Warn("publish failed",
			log.String("subject", subject),
			log.String("package", ls.Package()),
			log.Err(err),
		)
		return
	}
	s.published.Add(1)
	s.logger.Debug("state published", log.String("subject", subject), log.String("package", ls.Package()))
}

// Published returns the number of successful publishes.
func (s *Sink) Published() uint64 { return s.published.Load() }

// Failed returns the number of states that could not be published.
func (s *Sink) Failed() uint64 { return s.failed.Load() }

// Close drains the connection if the sink dialed it. Sinks built with New
// leave the publisher to its owner.
func (s *Sink) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
		return fmt.Errorf("drain nats connection: %w", err)
	}
	return nil
}

var _ dispatch.Handler = (*Sink)(nil)
