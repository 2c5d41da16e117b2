package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/aesprefs/internal/backend"
	"github.com/roach88/aesprefs/internal/clock"
	"github.com/roach88/aesprefs/internal/crypt"
)

// MasterIVKey is the plaintext record holding the namespace's master IV.
const MasterIVKey = "aes_iv"

var (
	// ErrNotInitialized is returned by operations on a Store before Init.
	ErrNotInitialized = errors.New("prefs: store not initialized")

	// ErrNotFound is returned by Lookup when the key has no record.
	ErrNotFound = errors.New("prefs: key not found")

	// ErrDecode is wrapped by Lookup errors for records that exist but do
	// not decrypt.
	ErrDecode = crypt.ErrDecode
)

// IDGenerator produces installation identifiers.
type IDGenerator interface {
	Generate() (string, error)
}

// uuidV7 generates time-sortable UUIDv7 installation identifiers.
type uuidV7 struct{}

func (uuidV7) Generate() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Store is an encrypted view over one backend namespace.
//
// A Store starts Uninitialized; Init binds a namespace and password and
// resolves the master IV. Calling Init again rebinds.
type Store struct {
	mu sync.Mutex

	// Listener deliveries raised while mu is held; drained by unlock.
	pendingMu sync.Mutex
	holding   bool
	pending   []pendingChange

	registry  backend.Registry
	logger    *slog.Logger
	logMode   LogMode
	clock     clock.Clock
	seeds     clock.Source
	ids       IDGenerator
	kdf       crypt.KDF
	normalize bool
	observer  Observer
	timer     Timer

	// Bound by Init.
	initialized bool
	namespace   string
	node        backend.Node
	codec       *crypt.Codec
	masterIV    int64
}

type pendingChange struct {
	fn     backend.Listener
	change backend.Change
}

func (s *Store) lock() {
	s.mu.Lock()
	s.pendingMu.Lock()
	s.holding = true
	s.pendingMu.Unlock()
}

// unlock releases mu, then delivers the changes queued while it was held.
func (s *Store) unlock() {
	s.pendingMu.Lock()
	s.holding = false
	queued := s.pending
	s.pending = nil
	s.pendingMu.Unlock()
	s.mu.Unlock()

	for _, p := range queued {
		p.fn(p.change)
	}
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithLogMode sets the initial log verbosity.
func WithLogMode(m LogMode) Option {
	return func(s *Store) { s.logMode = m }
}

// WithClock sets the wall clock used for installation dates and, unless
// WithSeedSource is given, for IV seeds.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithSeedSource sets where master and entry IV seeds come from. The default
// is a clock.TimeSource over the Store's clock.
func WithSeedSource(src clock.Source) Option {
	return func(s *Store) { s.seeds = src }
}

// WithIDGenerator sets the installation ID generator. The default generates
// UUIDv7 strings.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// WithKDF selects password key derivation. The namespace is the PBKDF2 salt.
func WithKDF(k crypt.KDF) Option {
	return func(s *Store) { s.kdf = k }
}

// WithNormalizedKeys makes key names Unicode NFC-normalized before they are
// encrypted, so canonically equivalent spellings find the same entry.
// Stores written without it only differ for non-NFC key names.
func WithNormalizedKeys(on bool) Option {
	return func(s *Store) { s.normalize = on }
}

// WithObserver registers an Observer for every public operation.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// New creates an uninitialized Store over registry.
func New(registry backend.Registry, opts ...Option) *Store {
	s := &Store{
		registry: registry,
		logMode:  LogDefault,
		kdf:      crypt.KDFSHA256,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.seeds == nil {
		s.seeds = clock.NewTimeSource(s.clock)
	}
	if s.ids == nil {
		s.ids = uuidV7{}
	}
	return s
}

// SetLogMode changes the log verbosity.
func (s *Store) SetLogMode(m LogMode) {
	s.lock()
	s.logMode = m
	s.unlock()
}

// LogMode returns the current log verbosity.
func (s *Store) LogMode() LogMode {
	s.lock()
	defer s.unlock()
	return s.logMode
}

// Initialized reports whether Init has succeeded.
func (s *Store) Initialized() bool {
	s.lock()
	defer s.unlock()
	return s.initialized
}

// Namespace returns the bound namespace, or "" before Init.
func (s *Store) Namespace() string {
	s.lock()
	defer s.unlock()
	return s.namespace
}

// MasterIV returns the resolved master IV seed, or 0 before Init.
func (s *Store) MasterIV() int64 {
	s.lock()
	defer s.unlock()
	return s.masterIV
}

// Init binds the Store to namespace and password.
//
// If the namespace already has a master IV record it is reused; otherwise a
// new seed is minted and persisted. A master IV record that is not an
// integer is reported as an error rather than replaced, since replacing it
// would orphan every existing entry.
func (s *Store) Init(ctx context.Context, namespace, password string) error {
	start := time.Now()
	s.lock()
	defer s.unlock()

	err := s.initLocked(ctx, namespace, password)
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	s.track("init", start, outcome)
	return err
}

// InitCompleteConfig runs Init, InitOrIncrementLaunchCounter and
// InitInstallationDate under one lock.
func (s *Store) InitCompleteConfig(ctx context.Context, namespace, password string) error {
	start := time.Now()
	s.lock()
	defer s.unlock()

	err := s.initLocked(ctx, namespace, password)
	if err == nil {
		_, err = s.incrementLaunchCounterLocked(ctx)
	}
	if err == nil {
		_, err = s.initInstallationLocked(ctx)
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	s.track("initCompleteConfig", start, outcome)
	return err
}

func (s *Store) initLocked(ctx context.Context, namespace, password string) error {
	if s.logMode.enabled() {
		s.logger.Info("initializing encrypted preferences", "namespace", namespace)
	}

	node, err := s.registry.Node(ctx, namespace)
	if err != nil {
		return fmt.Errorf("init %q: %w", namespace, err)
	}

	codec, err := crypt.NewFromPassword(password, s.kdf, namespace)
	if err != nil {
		return fmt.Errorf("init %q: %w", namespace, err)
	}

	raw, found, err := node.Get(ctx, MasterIVKey)
	if err != nil {
		return fmt.Errorf("init %q: read master IV: %w", namespace, err)
	}

	var iv int64
	if found {
		iv, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("init %q: master IV record %q is not an integer", namespace, raw)
		}
		if s.logMode.enabled() {
			s.logger.Info("master IV found", "namespace", namespace, "iv", iv)
		}
	} else {
		iv = s.seeds.Next()
		if err := backend.PutInt64(ctx, node, MasterIVKey, iv); err != nil {
			return fmt.Errorf("init %q: write master IV: %w", namespace, err)
		}
		if s.logMode.enabled() {
			s.logger.Warn("new master IV set", "namespace", namespace, "iv", iv)
		}
	}

	s.namespace = namespace
	s.node = node
	s.codec = codec
	s.masterIV = iv
	s.initialized = true
	return nil
}
