package natsapi

import (
	"encoding/json"
	"errors"

	nats "github.com/nats-io/nats.go"

	"github.com/spec-kit/kaie-api/internal/auth"
	"github.com/spec-kit/kaie-api/internal/domain"
)

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	OK    bool        `json:"ok"`
	ID    string      `json:"id,omitempty"`
	Email string      `json:"email,omitempty"`
	Role  domain.Role `json:"role,omitempty"`
	Error string      `json:"error,omitempty"`
}

// VerifyResponder answers access-token verification requests.
type VerifyResponder struct {
	tokens    auth.AccessVerifier
	respondFn func(msg *nats.Msg, resp verifyResponse)
}

// NewVerifyResponder builds a responder around the token verifier.
func NewVerifyResponder(tokens auth.AccessVerifier) *VerifyResponder {
	return &VerifyResponder{tokens: tokens, respondFn: respond}
}

// Subscribe joins queue on subject so replicas share the load.
func (h *VerifyResponder) Subscribe(conn *nats.Conn, subject, queue string) (*nats.Subscription, error) {
	if conn == nil {
		return nil, errors.New("nats connection is nil")
	}
	return conn.QueueSubscribe(subject, queue, h.handle)
}

func (h *VerifyResponder) handle(msg *nats.Msg) {
	var req verifyRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.Token == "" {
		h.respondFn(msg, verifyResponse{Error: "invalid_payload"})
		return
	}

	payload, err := h.tokens.VerifyKind(req.Token, domain.TokenKindAccess)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			h.respondFn(msg, verifyResponse{Error: "expired"})
			return
		}
		h.respondFn(msg, verifyResponse{Error: "invalid_token"})
		return
	}
	h.respondFn(msg, verifyResponse{OK: true, ID: payload.Subject, Email: payload.Email, Role: payload.Role})
}

func respond(msg *nats.Msg, resp verifyResponse) {
	data, _ := json.Marshal(resp)
	_ = msg.Respond(data)
}
