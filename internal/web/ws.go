package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Websocket message types.
const (
	msgSelectModel = "select_model"
	msgInput       = "input"
	msgPredict     = "predict"

	frameForm   = "form"
	frameResult = "result"
	frameError  = "error"
)

const (
	wsReadLimit    = 4096
	wsWriteTimeout = 5 * time.Second
)

// clientMessage is one browser event on the predict page.
type clientMessage struct {
	Type  string `json:"type"`
	Model string `json:"model,omitempty"`
	Slot  int    `json:"slot"`
	Value string `json:"value,omitempty"`
}

// serverFrame answers a clientMessage. Form frames carry the form state,
// result frames the prediction outcome.
type serverFrame struct {
	Type      string      `json:"type"`
	Model     string      `json:"model,omitempty"`
	Selected  bool        `json:"selected"`
	Ready     bool        `json:"ready"`
	CanSubmit bool        `json:"can_submit"`
	Fields    []fieldView `json:"fields,omitempty"`
	Result    *resultView `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func formFrame(sess *session) serverFrame {
	return serverFrame{
		Type:      frameForm,
		Model:     sess.form.Model,
		Selected:  sess.form.Selected,
		Ready:     sess.form.IsReady(),
		CanSubmit: sess.form.CanSubmit(),
		Fields:    sess.fields(),
	}
}

// handleWebSocket runs one predict session. Messages are handled in order,
// one at a time, and every message gets exactly one frame back.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	pongWait := s.opts.PongWait
	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s.clientsMu.Lock()
	s.clients[conn] = struct{}{}
	s.clientsMu.Unlock()
	s.opts.Recorder.WSClientsAdd(1)

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		s.opts.Recorder.WSClientsAdd(-1)
	}()

	done := make(chan struct{})
	defer close(done)
	go keepAlive(conn, pongWait*9/10, done)

	sess := newSession("")
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("WebSocket session ended")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		frame := s.handleMessage(sess, msg)
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(frame); err != nil {
			log.Error().Err(err).Msg("Failed to send message to WebSocket client")
			return
		}
	}
}

// keepAlive pings the client until done is closed or a ping fails. A client
// that stops answering runs into the read deadline.
func keepAlive(conn *websocket.Conn, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				log.Debug().Err(err).Msg("WebSocket ping failed")
				return
			}
		}
	}
}

func (s *Server) handleMessage(sess *session, msg clientMessage) serverFrame {
	switch msg.Type {
	case msgSelectModel:
		sess.selectModel(msg.Model)
		return formFrame(sess)

	case msgInput:
		if err := sess.setInput(msg.Slot, msg.Value); err != nil {
			return serverFrame{Type: frameError, Error: err.Error()}
		}
		return formFrame(sess)

	case msgPredict:
		res := s.runPrediction(sess.form.Model, sess.raw)
		frame := formFrame(sess)
		frame.Type = frameResult
		frame.Result = newResultView(res)
		return frame

	default:
		return serverFrame{Type: frameError, Error: "unknown message type " + msg.Type}
	}
}
