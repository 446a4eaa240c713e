package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/lawrencechen/folio/pkg/folio/assistant"
	"github.com/lawrencechen/folio/pkg/folio/extract"
)

// chatPayload is the JSON body of POST /api/chat.
type chatPayload struct {
	Message string           `json:"message"`
	History []assistant.Turn `json:"history"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat accepts JSON {message, history} or multipart form data
// {message, history (JSON string), files[]}.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := s.decodeChatRequest(r)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" && len(req.Files) == 0 {
		s.writeError(w, "message is required", http.StatusBadRequest)
		return
	}

	// Transport-boundary history cap; the token budgeter handles the rest.
	if len(req.History) > s.cfg.MaxHistoryTurns {
		req.History = req.History[len(req.History)-s.cfg.MaxHistoryTurns:]
	}

	reply, err := s.responder.Respond(r.Context(), req)
	if err != nil {
		if errors.Is(err, assistant.ErrUpstreamUnavailable) {
			s.writeError(w, "the assistant is temporarily unavailable, please try again in a moment", http.StatusBadGateway)
			return
		}
		s.logger.Error("chat request failed", "error", err)
		s.writeError(w, "something went wrong on our side, please try again", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, reply)
}

// decodeChatRequest dispatches on the request content type.
func (s *Server) decodeChatRequest(r *http.Request) (assistant.ChatRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return s.decodeMultipart(r)
	}

	var payload chatPayload
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&payload); err != nil {
		return assistant.ChatRequest{}, fmt.Errorf("invalid JSON body")
	}
	return assistant.ChatRequest{Message: payload.Message, History: payload.History}, nil
}

func (s *Server) decodeMultipart(r *http.Request) (assistant.ChatRequest, error) {
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		return assistant.ChatRequest{}, fmt.Errorf("invalid multipart form")
	}

	req := assistant.ChatRequest{Message: r.FormValue("message")}

	if raw := r.FormValue("history"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.History); err != nil {
			return assistant.ChatRequest{}, fmt.Errorf("invalid history JSON")
		}
	}

	if r.MultipartForm != nil {
		headers := r.MultipartForm.File["files"]
		headers = append(headers, r.MultipartForm.File["files[]"]...)
		for _, fh := range headers {
			if fh.Size > s.cfg.MaxUploadBytes {
				return assistant.ChatRequest{}, fmt.Errorf("file %s is too large", fh.Filename)
			}
			f, err := fh.Open()
			if err != nil {
				return assistant.ChatRequest{}, fmt.Errorf("reading file %s", fh.Filename)
			}
			data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes))
			f.Close()
			if err != nil {
				return assistant.ChatRequest{}, fmt.Errorf("reading file %s", fh.Filename)
			}
			req.Files = append(req.Files, extract.File{Name: fh.Filename, Data: data})
		}
	}

	return req, nil
}

func (s *Server) handleExperiences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	experiences := s.profile.Experiences
	if experiences == nil {
		experiences = []assistant.Experience{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"experiences": experiences})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	projects := s.profile.Projects
	if projects == nil {
		projects = []assistant.Project{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// handleAdminInbox returns recent activity events behind the single shared
// admin password, compared against a bcrypt hash.
func (s *Server) handleAdminInbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.cfg.AdminPasswordHash == "" {
		s.writeError(w, "admin view is not configured", http.StatusNotFound)
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&body); err != nil {
		s.writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(body.Password)); err != nil {
		s.writeError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if s.events == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"events": []struct{}{}})
		return
	}
	events, err := s.events.ListRecent(100)
	if err != nil {
		s.logger.Error("listing events failed", "error", err)
		s.writeError(w, "something went wrong on our side, please try again", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
