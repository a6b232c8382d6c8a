package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/webpilot-ai/webpilot/pkg/agent"
	"github.com/webpilot-ai/webpilot/pkg/agent/events"
	"github.com/webpilot-ai/webpilot/pkg/logging"
	"github.com/webpilot-ai/webpilot/pkg/tasks"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

// maxConnections bounds concurrent control clients. The engine is
// single-flight, so one client is all the protocol supports today.
const maxConnections = 1

// Server is the WebSocket control channel in front of the engine.
type Server struct {
	addr   string
	engine *agent.Engine
	store  *tasks.Store

	upgrader   websocket.Upgrader
	httpServer *http.Server

	mu   sync.Mutex
	conn *websocket.Conn

	writeMu sync.Mutex

	sub *events.Subscription
	log *logging.Logger
}

// New creates a server for the given engine and task store.
func New(host string, port int, engine *agent.Engine, store *tasks.Store) *Server {
	log, err := logging.NewLogger("server")
	if err != nil {
		log.Warnf("failed to initialize server logger, using stderr fallback: %v", err)
	}

	s := &Server{
		addr:   fmt.Sprintf("%s:%d", host, port),
		engine: engine,
		store:  store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The channel binds to loopback; origin checks add nothing.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start subscribes to execution state and serves until Shutdown. Blocks.
func (s *Server) Start() error {
	s.sub = s.engine.Bus().Subscribe(types.EventTypeExecution, s.handleExecutionEvent)

	s.log.Infof("control channel listening on ws://%s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("control server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting messages and closes the active connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.engine.Bus().Unsubscribe(s.sub)

	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()

	return s.httpServer.Shutdown(ctx)
}

// handleExecutionEvent records each event on the task store and forwards
// it to the connected client.
func (s *Server) handleExecutionEvent(ctx context.Context, event types.Event) error {
	if err := s.store.RecordEvent(event); err != nil {
		// Events for a task the store isn't tracking (e.g. a rejected
		// duplicate run) still get forwarded.
		s.log.Debugf("event not recorded: %v", err)
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return nil
	}

	msg, err := NewMessage(KindTaskState, TaskStateFromEvent(event))
	if err != nil {
		return err
	}
	if err := s.writeMessage(conn, msg); err != nil {
		s.log.Errorf("failed to forward event to client: %v", err)
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.conn != nil {
		s.mu.Unlock()
		s.log.Warnf("rejected connection from %s: connection limit reached", r.RemoteAddr)
		http.Error(w, "maximum connection limit reached", http.StatusServiceUnavailable)
		return
	}
	s.mu.Unlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	if s.conn != nil {
		// Lost the race to another upgrade.
		s.mu.Unlock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "maximum connection limit reached"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	s.log.Infof("client connected from %s", r.RemoteAddr)
	s.readLoop(r.Context(), conn)

	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	conn.Close()
	s.log.Infof("client disconnected from %s", r.RemoteAddr)
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Errorf("connection closed unexpectedly: %v", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.log.Errorf("failed to decode message: %v", err)
			continue
		}

		switch msg.Kind {
		case KindCreate:
			s.handleCreate(ctx, conn, msg.Data)
		case KindCancel:
			s.handleCancel(conn, msg.Data)
		case KindHeartbeat:
			s.writeMessage(conn, Message{Kind: KindAck, Data: msg.Data})
		case KindGetCurrentTask:
			s.handleGetCurrentTask(conn)
		default:
			s.log.Errorf("unknown message kind: %s", msg.Kind)
		}
	}
}

func (s *Server) handleCreate(ctx context.Context, conn *websocket.Conn, data json.RawMessage) {
	var payload CreateTaskPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.sendError(conn, "unknown", fmt.Sprintf("invalid create payload: %v", err))
		return
	}

	task, err := s.store.Create(payload.TaskID, payload.Intent, payload.Args)
	if err != nil {
		s.sendError(conn, payload.TaskID, err.Error())
		return
	}

	runOpts := runOptionsFromArgs(payload.Args)

	// Execution is long-running; the read loop must stay responsive for
	// heartbeats and cancellation.
	go func() {
		// The run outlives the originating HTTP request.
		runCtx := context.Background()
		if err := s.engine.Run(runCtx, task.ID, task.Intent, runOpts); err != nil {
			s.log.Errorf("task %s failed: %v", task.ID, err)
			s.sendError(conn, task.ID, err.Error())
		}
		if err := s.store.Close(); err != nil {
			s.log.Warnf("failed to close task record: %v", err)
		}
	}()
}

func (s *Server) handleCancel(conn *websocket.Conn, data json.RawMessage) {
	var payload CancelTaskPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.sendError(conn, "unknown", fmt.Sprintf("invalid cancel payload: %v", err))
		return
	}

	if !s.engine.Cancel(payload.TaskID) {
		s.sendError(conn, payload.TaskID, fmt.Sprintf("task %s is not running", payload.TaskID))
	}
}

func (s *Server) handleGetCurrentTask(conn *websocket.Conn) {
	msg, err := NewMessage(KindCurrentTask, CurrentTaskPayload{
		TaskID: s.engine.CurrentTaskID(),
		TabID:  s.engine.CurrentTabID(),
	})
	if err != nil {
		s.log.Errorf("failed to encode current task: %v", err)
		return
	}
	s.writeMessage(conn, msg)
}

func (s *Server) sendError(conn *websocket.Conn, taskID, message string) {
	msg, err := NewMessage(KindError, ErrorPayload{
		TaskID:    taskID,
		Message:   message,
		Timestamp: time.Now(),
	})
	if err != nil {
		s.log.Errorf("failed to encode error message: %v", err)
		return
	}
	s.writeMessage(conn, msg)
}

// writeMessage serializes writes; the reader goroutine and event
// subscribers share the connection.
func (s *Server) writeMessage(conn *websocket.Conn, msg Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

// runOptionsFromArgs extracts the per-run overrides a client may attach
// to a create message.
func runOptionsFromArgs(args map[string]interface{}) agent.RunOptions {
	var opts agent.RunOptions
	if v, ok := args["max_steps"].(float64); ok && v > 0 {
		opts.MaxSteps = int(v)
	}
	if v, ok := args["tab_id"].(string); ok {
		opts.TabID = v
	}
	return opts
}
