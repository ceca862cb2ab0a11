// Package handler provides the HTTP handlers for the site API.
package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/stevemurr/vitrine/admin"
	"github.com/stevemurr/vitrine/catalog"
	"github.com/stevemurr/vitrine/metrics"
	"github.com/stevemurr/vitrine/quote"
	"github.com/stevemurr/vitrine/schema"
	"github.com/stevemurr/vitrine/waitlist"
)

// CookieName holds the administrator session token.
const CookieName = "admin_session"

const sessionTTL = 7 * 24 * time.Hour

// Services are the domain services the handlers call into.
type Services struct {
	Catalog  *catalog.Service
	Quotes   *quote.Service
	Waitlist *waitlist.Service
	Admins   *admin.Service
}

// Options configure cross-cutting behaviour.
type Options struct {
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	CookieSecure   bool
}

// Handler holds the server dependencies and registers routes.
type Handler struct {
	svc     Services
	log     *zap.Logger
	metrics *metrics.Metrics
	secure  bool

	mux  *http.ServeMux
	root http.Handler
}

// New creates a Handler and wires up all routes.
func New(svc Services, opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	h := &Handler{
		svc:     svc,
		log:     log.Named("http"),
		metrics: opts.Metrics,
		secure:  opts.CookieSecure,
		mux:     http.NewServeMux(),
	}
	h.routes()
	h.root = h.observe(cors(h.mux, origins))
	return h
}

// ServeHTTP makes Handler an http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.mux.HandleFunc("GET /health", h.health)
	if h.metrics != nil {
		h.mux.Handle("GET /metrics", h.metrics.Handler())
	}

	// Public API
	h.route("GET", "/api/quotes/", h.quoteGet)
	h.route("POST", "/api/quotes/", h.quoteSave)
	h.route("GET", "/api/products/", h.productsList)
	h.route("GET", "/api/products/read/", h.productRead)
	h.route("POST", "/api/waitlist/", h.waitlistAdd)

	// Session
	h.route("POST", "/admin/login/", h.adminLogin)
	h.route("POST", "/admin/logout/", h.requireAdmin(h.adminLogout))

	// Admin API
	h.route("GET", "/api/admin/session/", h.requireAdmin(h.adminSession))
	h.route("GET", "/api/admin/overview/", h.requireAdmin(h.adminOverview))
	h.route("GET", "/api/admin/products/", h.requireAdmin(h.adminProductsList))
	h.route("POST", "/api/admin/products/upsert/", h.requireAdmin(h.adminProductsUpsert))
	h.route("GET", "/api/admin/waitlist/", h.requireAdmin(h.adminWaitlistList))
}

// route registers path exactly, with and without its trailing slash.
func (h *Handler) route(method, path string, fn http.HandlerFunc) {
	h.mux.HandleFunc(method+" "+path+"{$}", fn)
	if trimmed := path[:len(path)-1]; trimmed != "" {
		h.mux.HandleFunc(method+" "+trimmed, fn)
	}
}

// ---------- status ----------

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ---------- quotes ----------

func (h *Handler) quoteGet(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Quotes.Get(r.URL.Query().Get("ref"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": q})
}

func (h *Handler) quoteSave(w http.ResponseWriter, r *http.Request) {
	var in quote.Input
	if err := decodeBody(r, schema.Quote, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := h.svc.Quotes.Save(in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "ref": q.Ref})
}

// ---------- products ----------

func (h *Handler) productsList(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Catalog.List()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "items": items})
}

func (h *Handler) productRead(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Catalog.Read(r.URL.Query().Get("slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "item": p})
}

// ---------- waitlist ----------

func (h *Handler) waitlistAdd(w http.ResponseWriter, r *http.Request) {
	var in waitlist.Input
	if err := decodeBody(r, schema.Waitlist, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.svc.Waitlist.Add(in); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ---------- session ----------

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, schema.Login, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	user, token, err := h.svc.Admins.Login(in.Username, in.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(sessionTTL),
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": admin.User{Username: user.Username, Name: user.Name},
	})
}

func (h *Handler) adminLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Admins.Logout(sessionToken(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ---------- admin ----------

func (h *Handler) adminSession(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": user})
}

func (h *Handler) adminOverview(w http.ResponseWriter, r *http.Request) {
	products, featured, err := h.svc.Catalog.Stats()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	quotes, err := h.svc.Quotes.Count()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	signups, err := h.svc.Waitlist.Count()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"stats": map[string]int{
			"products":         products,
			"featuredProducts": featured,
			"quotes":           quotes,
			"waitlist":         signups,
		},
	})
}

func (h *Handler) adminProductsList(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Catalog.All()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "items": items})
}

func (h *Handler) adminProductsUpsert(w http.ResponseWriter, r *http.Request) {
	var patch catalog.Patch
	if err := decodeBody(r, schema.ProductPatch, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.svc.Catalog.Upsert(patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "item": p})
}

func (h *Handler) adminWaitlistList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Waitlist.List()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "items": entries})
}
