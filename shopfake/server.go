package shopfake

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPISpec returns the OpenAPI document of the JSON API.
func OpenAPISpec() []byte { return append([]byte(nil), openAPISpec...) }

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html")) //nolint:gochecknoglobals

type pageData struct {
	Title    string
	Page     string
	Products []Product
	Product  Product
}

// Handler returns the router serving the API and the pages.
func (s *Shop) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api/ecom", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/product/get-all-products", s.handleProducts)
		r.Post("/user/add-to-cart", s.handleAddToCart)
		r.Get("/user/get-cart-products/{userId}", s.handleCart)
	})

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("opening embedded static files: %v", err))
	}
	r.Handle("/client/static/*", http.StripPrefix("/client/static/", http.FileServer(http.FS(static))))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/client", http.StatusFound)
	})
	r.Get("/client", s.render("login", pageData{Title: "Login", Page: "login"}))
	r.Get("/client/", s.render("login", pageData{Title: "Login", Page: "login"}))
	r.Get("/client/dashboard", s.handleDashboard)
	r.Get("/client/product/{id}", s.handleProduct)
	r.Get("/client/cart", s.render("cart", pageData{Title: "Cart", Page: "cart"}))

	return r
}

func (s *Shop) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debugf("shopfake:http", "%s %s status:%d took:%s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func (s *Shop) render(name string, data pageData) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.writePage(w, http.StatusOK, name, data)
	}
}

func (s *Shop) writePage(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Errorf("shopfake:render", "template %q: %v", name, err)
	}
}

func (s *Shop) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	s.writePage(w, http.StatusOK, "dashboard", pageData{Title: "Dashboard", Page: "dashboard", Products: s.Catalog()})
}

func (s *Shop) handleProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.product(chi.URLParam(r, "id"))
	if !ok {
		s.writePage(w, http.StatusNotFound, "notfound", pageData{Title: "Not Found", Page: "notfound"})
		return
	}
	s.writePage(w, http.StatusOK, "product", pageData{Title: p.Name, Page: "product", Product: p})
}

// Server runs a Shop on a TCP listener.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds addr and returns a server ready to Serve. Use "127.0.0.1:0"
// for a free port.
func (s *Shop) Listen(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %q: %w", addr, err)
	}
	return &Server{
		srv: &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second},
		ln:  ln,
	}, nil
}

// URL is the base URL of the server.
func (s *Server) URL() string { return "http://" + s.ln.Addr().String() }

// Serve serves until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- s.srv.Serve(s.ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down fake shop: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
