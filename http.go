package markzap

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// maxDocumentSize limits the body accepted by PUT /raw.
var maxDocumentSize int64 = 32 << 20

type DocumentServer struct {
	doc        *Document
	engine     PreviewRenderer
	ctx        context.Context
	httpServer *http.Server
	router     chi.Router
	wsUpgrader websocket.Upgrader

	connsLock       sync.Mutex
	livereloadConns map[*websocket.Conn]struct{}
	// writeLock serializes reload messages, a connection allows one writer.
	writeLock sync.Mutex
}

func NewDocumentServer(ctx context.Context, doc *Document, engine PreviewRenderer, addr string) *DocumentServer {
	p := &DocumentServer{
		ctx:             ctx,
		doc:             doc,
		engine:          engine,
		httpServer:      &http.Server{Addr: addr},
		wsUpgrader:      websocket.Upgrader{},
		livereloadConns: make(map[*websocket.Conn]struct{}),
	}
	p.setupRoutes()
	p.httpServer.Handler = p.router
	return p
}

func (p *DocumentServer) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))

	r.Get("/", p.serveIndex)
	r.Get("/present", p.servePresentation)
	r.Get("/raw", p.serveRaw)
	r.Put("/raw", p.updateRaw)
	r.Post("/mode", p.updateMode)
	r.Get("/status", p.serveStatus)
	r.Get("/livereload", p.livereloadHandler)

	p.router = r
}

func (p *DocumentServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.router.ServeHTTP(w, r)
}

func (p *DocumentServer) serveIndex(w http.ResponseWriter, r *http.Request) {
	out, err := RenderPage(p.doc.Snapshot(), PageOptions{Engine: p.engine, LiveReload: true})
	if err != nil {
		logger.WithError(err).Error("Rendering document page failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out)
}

func (p *DocumentServer) servePresentation(w http.ResponseWriter, r *http.Request) {
	content := p.doc.Content()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Markzap-Slides", strconv.Itoa(len(SplitSlides(content))))
	io.WriteString(w, GeneratePresentationHTML(content))
}

func (p *DocumentServer) serveRaw(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	io.WriteString(w, p.doc.Content())
}

func (p *DocumentServer) updateRaw(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	saveErr := p.doc.SetContent(string(body))
	p.Rerender()
	if saveErr != nil {
		http.Error(w, saveErr.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *DocumentServer) updateMode(w http.ResponseWriter, r *http.Request) {
	mode, err := ParseMode(r.FormValue("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.doc.SetMode(mode)
	logger.WithField("mode", mode).Debug("Mode switched")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type documentStatus struct {
	Path         string `json:"path"`
	Title        string `json:"title"`
	Mode         string `json:"mode"`
	Presentation bool   `json:"presentation"`
	Slides       int    `json:"slides"`
}

func (p *DocumentServer) serveStatus(w http.ResponseWriter, r *http.Request) {
	snap := p.doc.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(documentStatus{
		Path:         snap.Path,
		Title:        snap.Title,
		Mode:         snap.Mode.String(),
		Presentation: snap.HasPresentation,
		Slides:       len(snap.Slides()),
	})
}

func (p *DocumentServer) livereloadHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := p.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	p.connsLock.Lock()
	p.livereloadConns[ws] = struct{}{}
	p.connsLock.Unlock()

	ctx, cancel := context.WithCancel(p.ctx)
	go p.ping(ctx, cancel, ws)
	go p.readLoop(cancel, ws)
}

// readLoop drains the connection so close frames are processed and the
// connection is dropped once the browser goes away.
func (p *DocumentServer) readLoop(cancel context.CancelFunc, ws *websocket.Conn) {
	defer cancel()
	for {
		if _, _, err := ws.NextReader(); err != nil {
			p.dropConn(ws)
			return
		}
	}
}

func (p *DocumentServer) ping(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				logger.WithError(err).Debug("Livereload ping failed")
				p.dropConn(ws)
				return
			}
		}
	}
}

func (p *DocumentServer) dropConn(ws *websocket.Conn) {
	p.connsLock.Lock()
	delete(p.livereloadConns, ws)
	p.connsLock.Unlock()
	ws.Close()
}

// Rerender tells every connected preview to reload.
func (p *DocumentServer) Rerender() {
	p.connsLock.Lock()
	conns := make([]*websocket.Conn, 0, len(p.livereloadConns))
	for ws := range p.livereloadConns {
		conns = append(conns, ws)
	}
	p.connsLock.Unlock()

	go func() {
		p.writeLock.Lock()
		defer p.writeLock.Unlock()
		for _, ws := range conns {
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, []byte(`Reload`)); err != nil {
				p.dropConn(ws)
			}
		}
	}()
}

// Listen binds the server's address. Run serves on it afterwards.
func (p *DocumentServer) Listen() (net.Listener, error) {
	return net.Listen("tcp", p.httpServer.Addr)
}

func (p *DocumentServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	p.connsLock.Lock()
	for ws := range p.livereloadConns {
		ws.Close()
		delete(p.livereloadConns, ws)
	}
	p.connsLock.Unlock()
	return p.httpServer.Shutdown(ctx)
}

// Run serves in the background. Serve errors other than a regular shutdown
// are logged.
func (p *DocumentServer) Run(l net.Listener) {
	go func() {
		if err := p.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Document server stopped")
		}
	}()
}

// RequestLogger logs every request with its status and duration.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			}).Debug("request")
		})
	}
}
