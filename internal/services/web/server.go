// Package web serves the browser UI and the JSON endpoints it calls.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/promptctx/internal/types"
)

const (
	defaultListenAddress    = "127.0.0.1:0"
	defaultShutdownDuration = 5 * time.Second
	headerContentType       = "Content-Type"
	headerAllow             = "Allow"
	mimeTypeJSON            = "application/json"
	mimeTypeHTML            = "text/html; charset=utf-8"
	indexAssetPath          = "assets/index.html"
	errorFieldName          = "error"
	errorRouteNotFound      = "route not found"
	errorMethodNotAllowed   = "method not allowed"
)

//go:embed assets/index.html
var assetFiles embed.FS

// PromptSession is the state the server drives. *session.Session implements it.
type PromptSession interface {
	RootPath() string
	Expand(relativePath string) (types.DirectoryListing, error)
	OnToggle(relativePath string, checked bool) (types.PromptState, error)
	OnReset() types.PromptState
	State() types.PromptState
	Copy() types.PromptState
}

// RequestError represents a failed request accompanied by an HTTP status code.
type RequestError struct {
	statusCode int
	err        error
}

// Error returns the error string.
func (requestError RequestError) Error() string {
	return requestError.err.Error()
}

// Unwrap exposes the wrapped error.
func (requestError RequestError) Unwrap() error {
	return requestError.err
}

// StatusCode reports the associated HTTP status code.
func (requestError RequestError) StatusCode() int {
	return requestError.statusCode
}

// NewRequestError creates a new RequestError.
func NewRequestError(statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return RequestError{statusCode: statusCode, err: err}
}

// Config defines runtime options for the web server.
type Config struct {
	Address         string
	ShutdownTimeout time.Duration
	Session         PromptSession
	Logger          *zap.Logger
}

// Server serves the prompt builder UI over HTTP.
type Server struct {
	config Config
	index  []byte
}

// NewServer creates a new Server with defaults applied.
func NewServer(config Config) (Server, error) {
	if config.Session == nil {
		return Server{}, errors.New("web server requires a session")
	}
	normalized := config
	if normalized.Address == "" {
		normalized.Address = defaultListenAddress
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = defaultShutdownDuration
	}
	if normalized.Logger == nil {
		normalized.Logger = zap.NewNop()
	}
	index, readErr := assetFiles.ReadFile(indexAssetPath)
	if readErr != nil {
		return Server{}, fmt.Errorf("read embedded page: %w", readErr)
	}
	return Server{config: normalized, index: index}, nil
}

// Handler returns the HTTP handler that serves the page and the JSON API.
func (server Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc(rootPath, server.handleIndex)
	router.HandleFunc(treePath, server.handleTree)
	router.HandleFunc(selectionPath, server.handleSelection)
	router.HandleFunc(resetPath, server.handleReset)
	router.HandleFunc(promptPath, server.handlePrompt)
	router.HandleFunc(copyPath, server.handleCopy)
	return server.logRequests(router)
}

// Run starts the web server and blocks until the provided context is canceled.
// The notify callback receives the bound address once the listener is active.
func (server Server) Run(ctx context.Context, notify func(string)) error {
	listener, listenErr := net.Listen("tcp", server.config.Address)
	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenErr)
	}
	actualAddress := listener.Addr().String()

	httpServer := &http.Server{Handler: server.Handler(), ReadHeaderTimeout: 10 * time.Second}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveErr := httpServer.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve UI: %w", serveErr)
		}
		return nil
	})

	server.config.Logger.Info("serving project",
		zap.String("address", actualAddress),
		zap.String("root", server.config.Session.RootPath()))
	if notify != nil {
		notify(actualAddress)
	}

	group.Go(func() error {
		<-groupCtx.Done()
		server.config.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) && !errors.Is(shutdownErr, http.ErrServerClosed) {
			return fmt.Errorf("shutdown UI: %w", shutdownErr)
		}
		return nil
	})

	return group.Wait()
}

func (server Server) writeJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	var buffer bytes.Buffer
	if encodeErr := json.NewEncoder(&buffer).Encode(payload); encodeErr != nil {
		fallback := map[string]string{errorFieldName: fmt.Sprintf("encode response: %v", encodeErr)}
		writer.Header().Set(headerContentType, mimeTypeJSON)
		writer.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(writer).Encode(fallback)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(buffer.Bytes())
}

func (server Server) writeError(writer http.ResponseWriter, err error) {
	server.writeJSON(writer, server.statusCodeFromError(err), map[string]string{errorFieldName: err.Error()})
}

func (server Server) statusCodeFromError(err error) int {
	var requestError RequestError
	if errors.As(err, &requestError) {
		return requestError.StatusCode()
	}
	return http.StatusInternalServerError
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (recorder *statusRecorder) WriteHeader(statusCode int) {
	recorder.statusCode = statusCode
	recorder.ResponseWriter.WriteHeader(statusCode)
}

func (server Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		startedAt := time.Now()
		recorder := &statusRecorder{ResponseWriter: writer, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, request)
		server.config.Logger.Debug("request",
			zap.String("method", request.Method),
			zap.String("path", request.URL.Path),
			zap.Int("status", recorder.statusCode),
			zap.Duration("elapsed", time.Since(startedAt)))
	})
}
