package printers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/logmerge/core"
	"github.com/creastat/logmerge/protocol"
	"github.com/gorilla/websocket"
)

// WebSocketPrinterConfig holds WebSocket printer configuration
type WebSocketPrinterConfig struct {
	Conn   *websocket.Conn
	RunID  string
	Logger telemetry.Logger
}

// WebSocketPrinter streams merged records to a WebSocket connection as
// log.record JSON messages, followed by one merge.done message.
type WebSocketPrinter struct {
	config  WebSocketPrinterConfig
	start   time.Time
	printed int
}

// NewWebSocketPrinter creates a new WebSocket printer
func NewWebSocketPrinter(config WebSocketPrinterConfig) *WebSocketPrinter {
	return &WebSocketPrinter{
		config: config,
		start:  time.Now(),
	}
}

// Name returns the printer name
func (ws *WebSocketPrinter) Name() string {
	return "websocket_printer"
}

// Print sends record as a log.record message
func (ws *WebSocketPrinter) Print(record core.Record) error {
	ws.printed++
	return ws.send(protocol.RecordToMessage(record, ws.config.RunID, ws.printed))
}

// Done sends the merge.done message
func (ws *WebSocketPrinter) Done() error {
	logger := ws.config.Logger.WithModule(ws.Name())
	logger.Info("Merge done, notifying client", telemetry.String("run_id", ws.config.RunID), telemetry.Int("printed", ws.printed))
	return ws.send(protocol.NewDoneMessage(ws.config.RunID, ws.printed, time.Since(ws.start)))
}

func (ws *WebSocketPrinter) send(msg *protocol.OutputMessage) error {
	logger := ws.config.Logger.WithModule(ws.Name())

	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to marshal message", telemetry.Err(err), telemetry.String("run_id", ws.config.RunID), telemetry.String("type", string(msg.Type)))
		return fmt.Errorf("marshal %s message: %w", msg.Type, err)
	}

	if err := ws.config.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logger.Error("Failed to send message to WebSocket", telemetry.Err(err), telemetry.String("run_id", ws.config.RunID), telemetry.String("type", string(msg.Type)))
		return fmt.Errorf("send %s message: %w", msg.Type, err)
	}

	logger.Debug("Sent message to WebSocket", telemetry.String("type", string(msg.Type)), telemetry.Int("seq", msg.Seq))
	return nil
}
