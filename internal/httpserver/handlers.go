package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bot-call/internal/callflow"
	"bot-call/internal/orders"
)

type createOrderRequest struct {
	OrderText   string `json:"order_text"`
	PhoneManual string `json:"phone_manual"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	order, err := s.engine.CreateOrder(r.Context(), req.OrderText, req.PhoneManual)
	if err != nil {
		if errors.Is(err, callflow.ErrEmptyOrderText) {
			writeError(w, http.StatusBadRequest, "order_text is required")
			return
		}
		s.logger.Error("order creation failed", "error", err)
		writeError(w, http.StatusBadGateway, "could not parse order")
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"orders": s.engine.Store().List()})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, err := s.engine.Store().Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type overridePhoneRequest struct {
	Phone string `json:"phone"`
}

func (s *Server) handleOverridePhone(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req overridePhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	order, err := s.engine.OverridePhone(id, req.Phone)
	switch {
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, orders.ErrAlreadyResolved):
		writeError(w, http.StatusConflict, "phone can only be changed before a call")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "phone override failed")
	default:
		writeJSON(w, http.StatusOK, order)
	}
}

func (s *Server) handleStartCall(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	order, session, err := s.engine.StartCall(r.Context(), id)
	switch {
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, callflow.ErrInvalidPhone):
		writeError(w, http.StatusUnprocessableEntity, "invalid or missing phone number")
	case err != nil:
		s.logger.Error("call start failed", "order_id", id, "error", err)
		writeError(w, http.StatusBadGateway, "failed to start call")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"order": order, "call": session})
	}
}

func (s *Server) handleVoiceEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	doc, err := s.engine.VoiceEntry(id)
	if err != nil {
		s.logger.Error("voice entry failed", "order_id", id, "error", err)
		http.Error(w, "voice response unavailable", http.StatusInternalServerError)
		return
	}
	writeXML(w, doc)
}

func (s *Server) handleVoiceReply(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	speech := r.FormValue("SpeechResult")
	digits := r.FormValue("Digits")
	callSID := r.FormValue("CallSid")

	doc, err := s.engine.HandleReply(r.Context(), id, callSID, speech, digits)
	if err != nil {
		s.logger.Error("reply handling failed", "order_id", id, "error", err)
		http.Error(w, "voice response unavailable", http.StatusInternalServerError)
		return
	}
	writeXML(w, doc)
}

type interpretRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	var req interpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	decision, reply := s.engine.Interpret(req.Text)
	writeJSON(w, http.StatusOK, map[string]string{
		"decision": string(decision),
		"reply":    reply,
	})
}

func (s *Server) handleLocalWelcome(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.LocalWelcome(r.Context())
	if err != nil {
		s.logger.Error("welcome synthesis failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"reply":     result.Reply,
			"audio_url": nil,
			"error":     "speech synthesis failed",
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type localBotRequest struct {
	Messages []callflow.Turn `json:"messages"`
}

func (s *Server) handleLocalBot(w http.ResponseWriter, r *http.Request) {
	var req localBotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "messages must be a list")
		return
	}

	result, err := s.engine.LocalReply(r.Context(), req.Messages)
	if err != nil {
		s.logger.Error("local bot reply failed", "error", err)
		// Best-effort partial output: reply text survives a TTS failure.
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"reply":     result.Reply,
			"audio_url": nil,
			"error":     "local bot reply failed",
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}
