// Package websocket maintains the logsSubscribe stream against a
// Solana node and turns notifications into LogRecords.
package websocket

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/types"
)

// Manager manages a single WebSocket connection to a Solana node.
// One logsSubscribe subscription is held per configured program ID.
type Manager struct {
	url              string
	conn             *websocket.Conn
	logger           *zap.Logger
	reconnectMgr     *ReconnectManager
	config           Config
	recordChan       chan *types.LogRecord
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	mu               sync.RWMutex
	programs         []string          // programs to watch, fixed at Start
	pendingSubs      map[uint64]string // request id -> program id
	activeSubs       map[uint64]string // subscription id -> program id
	nextRequestID    atomic.Uint64
	connected        atomic.Bool
	lastPongTime     atomic.Int64
	disconnectedAt   atomic.Int64 // Unix millis of last disconnect, for gap accounting
	connectionStart  atomic.Int64
}

// Config holds WebSocket manager configuration.
type Config struct {
	URL                   string
	Commitment            types.Commitment
	ProgramIDs            []string
	DialTimeout           time.Duration
	PongTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	ReconnectJitterPct    float64
	RecordBufferSize      int
	Logger                *zap.Logger
}

// New creates a new WebSocket manager.
func New(cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	reconnectCfg := ReconnectConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: cfg.ReconnectBackoffMult,
		JitterPercent:     cfg.ReconnectJitterPct,
	}

	return &Manager{
		url:          cfg.URL,
		logger:       cfg.Logger,
		reconnectMgr: NewReconnectManager(reconnectCfg, cfg.Logger),
		config:       cfg,
		recordChan:   make(chan *types.LogRecord, cfg.RecordBufferSize),
		ctx:          ctx,
		cancel:       cancel,
		programs:     cfg.ProgramIDs,
		pendingSubs:  make(map[uint64]string),
		activeSubs:   make(map[uint64]string),
	}
}

// Start connects and subscribes. The stream is not restartable after
// Close; records missed while disconnected are counted, not replayed.
func (m *Manager) Start() error {
	m.logger.Info("log-stream-starting",
		zap.String("url", m.url),
		zap.Int("programs", len(m.programs)))

	err := m.connect(m.ctx)
	if err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	err = m.subscribeAll()
	if err != nil {
		return fmt.Errorf("initial subscribe: %w", err)
	}

	m.wg.Add(3)
	go m.readLoop()
	go m.pingLoop()
	go m.reconnectLoop()

	return nil
}

// connect establishes the WebSocket connection.
func (m *Manager) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: m.config.DialTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		m.lastPongTime.Store(time.Now().Unix())
		return nil
	})

	m.mu.Lock()
	m.conn = conn
	m.pendingSubs = make(map[uint64]string)
	m.activeSubs = make(map[uint64]string)
	m.mu.Unlock()

	now := time.Now()
	m.connected.Store(true)
	m.lastPongTime.Store(now.Unix())
	m.connectionStart.Store(now.Unix())
	ActiveConnections.Set(1)

	m.logger.Info("log-stream-connected")

	return nil
}

// subscribeAll issues one logsSubscribe per watched program.
func (m *Manager) subscribeAll() error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	for _, programID := range m.programs {
		reqID := m.nextRequestID.Add(1)

		req := map[string]any{
			"jsonrpc": "2.0",
			"id":      reqID,
			"method":  "logsSubscribe",
			"params": []any{
				map[string]any{"mentions": []string{programID}},
				map[string]any{"commitment": string(m.config.Commitment)},
			},
		}

		m.mu.Lock()
		m.pendingSubs[reqID] = programID
		err := conn.WriteJSON(req)
		m.mu.Unlock()

		if err != nil {
			return fmt.Errorf("write logsSubscribe for %s: %w", programID, err)
		}
	}

	m.logger.Info("log-subscriptions-requested", zap.Int("count", len(m.programs)))

	return nil
}

// wsMessage covers both subscription confirmations and notifications.
type wsMessage struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Method string          `json:"method"`
	Params *struct {
		Subscription uint64 `json:"subscription"`
		Result       struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Signature string   `json:"signature"`
				Err       any      `json:"err"`
				Logs      []string `json:"logs"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

// readLoop reads frames until the connection drops.
func (m *Manager) readLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		m.mu.RLock()
		conn := m.conn
		m.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if m.ctx.Err() != nil {
				return
			}
			m.logger.Warn("read-error", zap.Error(err))

			startTime := m.connectionStart.Load()
			if startTime > 0 {
				ConnectionDuration.Observe(time.Since(time.Unix(startTime, 0)).Seconds())
			}

			m.disconnectedAt.Store(time.Now().UnixMilli())
			m.connected.Store(false)
			ActiveConnections.Set(0)
			return
		}

		m.handleMessage(message)
	}
}

func (m *Manager) handleMessage(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		preview := string(message)
		if len(preview) > 100 {
			preview = preview[:100]
		}
		m.logger.Debug("unparseable-frame", zap.Error(err), zap.String("preview", preview))
		return
	}

	// Subscription confirmation: id matches a pending request and the
	// result is the numeric subscription id.
	if msg.Method == "" && msg.ID != 0 {
		m.confirmSubscription(msg.ID, msg.Result)
		return
	}

	if msg.Method != "logsNotification" || msg.Params == nil {
		m.logger.Debug("ignored-frame", zap.String("method", msg.Method))
		return
	}

	value := msg.Params.Result.Value
	record := &types.LogRecord{
		Signature:  value.Signature,
		Slot:       msg.Params.Result.Context.Slot,
		ProgramIDs: extractProgramIDs(value.Logs),
		Logs:       value.Logs,
		Failed:     value.Err != nil,
		ReceivedAt: time.Now(),
	}

	RecordsReceivedTotal.Inc()
	m.emit(record)
}

// emit delivers a record with drop-oldest backpressure: when the
// buffer is full the oldest buffered record is evicted so the stream
// always favors fresh data.
func (m *Manager) emit(record *types.LogRecord) {
	for {
		select {
		case m.recordChan <- record:
			return
		default:
		}

		select {
		case dropped := <-m.recordChan:
			RecordsDroppedTotal.WithLabelValues("buffer_full").Inc()
			m.logger.Warn("record-dropped-oldest",
				zap.String("dropped-signature", dropped.Signature))
		default:
			// A consumer drained the channel between the two selects;
			// loop and retry the send.
		}
	}
}

func (m *Manager) confirmSubscription(reqID uint64, result json.RawMessage) {
	var subID uint64
	if err := json.Unmarshal(result, &subID); err != nil {
		m.logger.Warn("bad-subscription-confirmation", zap.Uint64("request-id", reqID))
		return
	}

	m.mu.Lock()
	programID, ok := m.pendingSubs[reqID]
	if ok {
		delete(m.pendingSubs, reqID)
		m.activeSubs[subID] = programID
	}
	count := len(m.activeSubs)
	m.mu.Unlock()

	if !ok {
		m.logger.Warn("confirmation-for-unknown-request", zap.Uint64("request-id", reqID))
		return
	}

	SubscriptionCount.Set(float64(count))
	m.logger.Info("log-subscription-confirmed",
		zap.Uint64("subscription-id", subID),
		zap.String("program-id", programID))
}

// extractProgramIDs pulls invoked program ids out of log lines of the
// form "Program <id> invoke [n]".
func extractProgramIDs(logs []string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, line := range logs {
		rest, ok := strings.CutPrefix(line, "Program ")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) < 2 || fields[1] != "invoke" {
			continue
		}
		id := fields[0]
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// pingLoop sends periodic PING frames.
func (m *Manager) pingLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.connected.Load() {
				continue
			}

			m.mu.RLock()
			conn := m.conn
			m.mu.RUnlock()

			if conn == nil {
				continue
			}

			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
			if err != nil {
				m.logger.Warn("ping-error", zap.Error(err))
			}
		}
	}
}

// reconnectLoop re-establishes the connection and subscriptions after
// a drop. The downtime gap is recorded; missed records are not replayed.
func (m *Manager) reconnectLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		if m.connected.Load() {
			time.Sleep(time.Second)
			continue
		}

		m.logger.Warn("connection-lost-initiating-reconnect")

		err := m.reconnectMgr.Reconnect(m.ctx, m.connect)
		if err != nil {
			if m.ctx.Err() != nil {
				return
			}
			m.logger.Error("reconnection-failed", zap.Error(err))
			continue
		}

		if at := m.disconnectedAt.Load(); at > 0 {
			gap := time.Since(time.UnixMilli(at))
			ReconnectGapSeconds.Observe(gap.Seconds())
			m.logger.Info("stream-gap", zap.Duration("duration", gap))
		}

		err = m.subscribeAll()
		if err != nil {
			m.logger.Error("resubscribe-failed", zap.Error(err))
			m.connected.Store(false)
			continue
		}

		m.wg.Add(1)
		go m.readLoop()
	}
}

// Records returns the channel of incoming log records.
func (m *Manager) Records() <-chan *types.LogRecord {
	return m.recordChan
}

// Connected reports whether the stream is currently up.
func (m *Manager) Connected() bool {
	return m.connected.Load()
}

// Close shuts the stream down. The manager cannot be restarted.
func (m *Manager) Close() error {
	m.logger.Info("log-stream-closing")

	m.cancel()

	m.mu.RLock()
	if m.conn != nil {
		m.conn.Close()
	}
	m.mu.RUnlock()

	m.wg.Wait()

	close(m.recordChan)

	ActiveConnections.Set(0)

	m.logger.Info("log-stream-closed")

	return nil
}
