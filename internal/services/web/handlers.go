package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/temirov/promptctx/internal/project"
	"github.com/temirov/promptctx/internal/session"
)

const (
	rootPath      = "/"
	treePath      = "/api/tree"
	selectionPath = "/api/selection"
	resetPath     = "/api/reset"
	promptPath    = "/api/prompt"
	copyPath      = "/api/copy"

	pathQueryParameter     = "path"
	maximumRequestBodySize = 1 << 20
)

// ToggleRequest is the body of a selection change.
type ToggleRequest struct {
	Path    string `json:"path"`
	Checked bool   `json:"checked"`
}

func (server Server) allowMethod(writer http.ResponseWriter, request *http.Request, method string) bool {
	if request.Method == method {
		return true
	}
	writer.Header().Set(headerAllow, method)
	server.writeError(writer, NewRequestError(http.StatusMethodNotAllowed, errors.New(errorMethodNotAllowed)))
	return false
}

func (server Server) handleIndex(writer http.ResponseWriter, request *http.Request) {
	if request.URL.Path != rootPath {
		server.writeError(writer, NewRequestError(http.StatusNotFound, errors.New(errorRouteNotFound)))
		return
	}
	if !server.allowMethod(writer, request, http.MethodGet) {
		return
	}
	writer.Header().Set(headerContentType, mimeTypeHTML)
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(server.index)
}

func (server Server) handleTree(writer http.ResponseWriter, request *http.Request) {
	if !server.allowMethod(writer, request, http.MethodGet) {
		return
	}
	listing, expandErr := server.config.Session.Expand(request.URL.Query().Get(pathQueryParameter))
	if expandErr != nil {
		server.writeError(writer, classifySessionError(expandErr))
		return
	}
	server.writeJSON(writer, http.StatusOK, listing)
}

func (server Server) handleSelection(writer http.ResponseWriter, request *http.Request) {
	if !server.allowMethod(writer, request, http.MethodPost) {
		return
	}
	var toggleRequest ToggleRequest
	if decodeErr := decodeBody(request, &toggleRequest); decodeErr != nil {
		server.writeError(writer, decodeErr)
		return
	}
	state, toggleErr := server.config.Session.OnToggle(toggleRequest.Path, toggleRequest.Checked)
	if toggleErr != nil {
		server.writeError(writer, classifySessionError(toggleErr))
		return
	}
	server.writeJSON(writer, http.StatusOK, state)
}

func (server Server) handleReset(writer http.ResponseWriter, request *http.Request) {
	if !server.allowMethod(writer, request, http.MethodPost) {
		return
	}
	server.writeJSON(writer, http.StatusOK, server.config.Session.OnReset())
}

func (server Server) handlePrompt(writer http.ResponseWriter, request *http.Request) {
	if !server.allowMethod(writer, request, http.MethodGet) {
		return
	}
	server.writeJSON(writer, http.StatusOK, server.config.Session.State())
}

func (server Server) handleCopy(writer http.ResponseWriter, request *http.Request) {
	if !server.allowMethod(writer, request, http.MethodPost) {
		return
	}
	server.writeJSON(writer, http.StatusOK, server.config.Session.Copy())
}

func decodeBody(request *http.Request, target interface{}) error {
	body, readErr := io.ReadAll(io.LimitReader(request.Body, maximumRequestBodySize))
	if readErr != nil {
		return NewRequestError(http.StatusBadRequest, fmt.Errorf("read request body: %w", readErr))
	}
	if unmarshalErr := json.Unmarshal(body, target); unmarshalErr != nil {
		return NewRequestError(http.StatusBadRequest, fmt.Errorf("decode request body: %w", unmarshalErr))
	}
	return nil
}

func classifySessionError(err error) error {
	if errors.Is(err, session.ErrNotSelectable) || errors.Is(err, project.ErrPathOutsideRoot) {
		return NewRequestError(http.StatusBadRequest, err)
	}
	return err
}
