package uploads

import (
	"errors"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/wodlog/internal/telemetry/tracing"
)

type imageOpener interface {
	Open(name string) (*os.File, error)
}

type Handler struct {
	store imageOpener
}

func NewHandler(store imageOpener) *Handler {
	return &Handler{store: store}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/images/{name}", handler.handleGet).Methods("GET")
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.uploads.get")
	defer span.End()

	name := mux.Vars(r)["name"]
	f, err := handler.store.Open(name)
	if err != nil {
		if errors.Is(err, ErrInvalidName) || errors.Is(err, ErrImageNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Errorf("open image [%s]: %s", name, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		log.Errorf("stat image [%s]: %s", name, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeContent(w, r, name, stat.ModTime(), f)
}
