package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/miskar/quizdeck/internal/domain"
	"github.com/miskar/quizdeck/internal/quiz"
	"github.com/miskar/quizdeck/internal/service"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// Message is the WebSocket frame envelope, both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WebSocketHandler runs one interactive quiz session per connection: the
// client sends start and answer frames, the server pushes questions and
// results. One player per socket, no broadcast.
type WebSocketHandler struct {
	userService *service.UserService
	quizService *service.QuizService
	log         *slog.Logger
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(userService *service.UserService, quizService *service.QuizService, log *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		userService: userService,
		quizService: quizService,
		log:         log,
	}
}

// HandleQuiz upgrades the connection and drives the session loop.
func (h *WebSocketHandler) HandleQuiz(c echo.Context) error {
	user, err := h.userService.ResolveToken(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired token"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	h.runSession(c, conn, user)
	return nil
}

func (h *WebSocketHandler) runSession(c echo.Context, conn *websocket.Conn, user *domain.User) {
	ctx := c.Request().Context()
	var sessionID string
	// Closing the socket mid-session just discards it; the registry
	// cleanup job forgets abandoned sessions.
	defer func() {
		if sessionID != "" {
			h.quizService.Abandon(user.ID, sessionID)
		}
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", "user_id", user.ID, "error", err)
			}
			return
		}

		switch msg.Type {
		case "start":
			var req StartSessionRequest
			if len(msg.Payload) > 0 {
				if err := json.Unmarshal(msg.Payload, &req); err != nil {
					h.writeError(conn, "Invalid start payload")
					continue
				}
			}
			filter := domain.QuestionFilter{CategoryID: req.CategoryID, Difficulty: req.Difficulty}
			id, first, err := h.quizService.StartSession(ctx, user.ID, filter)
			if err != nil {
				switch {
				case errors.Is(err, quiz.ErrNoQuestions):
					h.writeError(conn, "No questions found for the selected filter")
				case errors.Is(err, quiz.ErrLoadFailed):
					h.writeError(conn, "Failed to load questions")
				default:
					h.writeError(conn, "Failed to start quiz")
				}
				continue
			}
			sessionID = id
			h.write(conn, "question", first)

		case "answer":
			if sessionID == "" {
				h.writeError(conn, "No session in progress")
				continue
			}
			var req AnswerRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				h.writeError(conn, "Invalid answer payload")
				continue
			}
			res, err := h.quizService.SubmitAnswer(ctx, user.ID, sessionID, req.OptionIndex)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrNoSelection):
					h.writeError(conn, "Please select an answer")
				case errors.Is(err, quiz.ErrInvalidOption):
					h.writeError(conn, "Selected option does not exist")
				default:
					h.writeError(conn, "Failed to submit answer")
				}
				continue
			}
			if res.Done {
				sessionID = ""
				h.write(conn, "finished", res)
				continue
			}
			h.write(conn, "result", res)

		default:
			h.writeError(conn, "Unknown message type: "+msg.Type)
		}
	}
}

func (h *WebSocketHandler) write(conn *websocket.Conn, msgType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to marshal websocket payload", "type", msgType, "error", err)
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Message{Type: msgType, Payload: data}); err != nil {
		h.log.Warn("websocket write failed", "type", msgType, "error", err)
	}
}

func (h *WebSocketHandler) writeError(conn *websocket.Conn, text string) {
	h.write(conn, "error", ErrorResponse{Error: text})
}
