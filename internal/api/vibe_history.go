package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/vibetrace/internal/commits"
	"github.com/MikeSquared-Agency/vibetrace/internal/vibe"
)

const accountHeader = "X-Account-ID"

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// getVibeHistory handles GET /api/v1/repos/{owner}/{name}/vibe-history
func (s *Server) getVibeHistory(w http.ResponseWriter, r *http.Request) {
	accountID, repo, ok := s.target(w, r)
	if !ok {
		return
	}

	resp, err := s.analyzer.Cached(r.Context(), accountID, repo)
	if err != nil {
		s.logger.Error("read vibe history", "repo", repo.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "could not read vibe history", "")
		return
	}
	if resp == nil {
		writeError(w, http.StatusNotFound, "NOT_ANALYZED",
			"no vibe history for "+repo.String(),
			"Upload a chat export with POST to analyze this repository.")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// postVibeHistory handles POST /api/v1/repos/{owner}/{name}/vibe-history
func (s *Server) postVibeHistory(w http.ResponseWriter, r *http.Request) {
	accountID, repo, ok := s.target(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, string(vibe.CodeInvalidRequest),
				"chat file is too large",
				"Upload a file smaller than "+strconv.FormatInt(s.maxUploadBytes>>20, 10)+" MiB.")
			return
		}
		writeError(w, http.StatusBadRequest, string(vibe.CodeInvalidRequest), "expected a multipart form", "Send the chat export in a form field named chat.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("chat")
	if err != nil {
		writeError(w, http.StatusBadRequest, string(vibe.CodeInvalidRequest), "missing chat file", "Send the chat export in a form field named chat.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(vibe.CodeInvalidRequest), "could not read chat file", "")
		return
	}

	force := false
	if v := r.FormValue("force"); v != "" {
		force, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, string(vibe.CodeInvalidRequest), "invalid force value", "Use true or false.")
			return
		}
	}

	resp, err := s.analyzer.Analyze(r.Context(), vibe.Request{
		AccountID:       accountID,
		Repository:      repo,
		InstallationRef: r.FormValue("installation_id"),
		ChatFile:        data,
		ChatFileName:    header.Filename,
		ForceReanalyze:  force,
	})
	if err != nil {
		s.writeAnalyzeError(w, repo, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) target(w http.ResponseWriter, r *http.Request) (string, commits.Repository, bool) {
	accountID := strings.TrimSpace(r.Header.Get(accountHeader))
	if accountID == "" {
		writeError(w, http.StatusBadRequest, string(vibe.CodeInvalidRequest), "missing "+accountHeader+" header", "")
		return "", commits.Repository{}, false
	}
	repo := commits.Repository{Owner: chi.URLParam(r, "owner"), Name: chi.URLParam(r, "name")}
	return accountID, repo, true
}

func (s *Server) writeAnalyzeError(w http.ResponseWriter, repo commits.Repository, err error) {
	var vErr *vibe.Error
	if !errors.As(err, &vErr) {
		s.logger.Error("vibe history failed", "repo", repo.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "vibe history analysis failed", "Try again later.")
		return
	}
	writeError(w, statusFor(vErr.Code), string(vErr.Code), vErr.Message, vErr.Hint)
}

// statusClientClosedRequest is the nginx convention for a client that hung up.
const statusClientClosedRequest = 499

func statusFor(code vibe.Code) int {
	switch code {
	case vibe.CodeParseFailure, vibe.CodeInvalidRequest:
		return http.StatusBadRequest
	case vibe.CodeCommitFetchFailure:
		return http.StatusBadGateway
	case vibe.CodeNoCommitsInWindow:
		return http.StatusUnprocessableEntity
	case vibe.CodeTimeout:
		return http.StatusGatewayTimeout
	case vibe.CodeCanceled:
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, code, message, hint string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message, Hint: hint}})
}
