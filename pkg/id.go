package pkg

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

var (
	ErrInvalidID = errors.New("invalid id")
	// ErrUnknownID is a well-formed id past the range of the INTEGER id columns.
	ErrUnknownID = errors.New("unknown id")
)

// ParseID parses a positive row id.
func ParseID(s string) (int, error) {
	id, err := strconv.ParseInt(s, 10, 32)
	if errors.Is(err, strconv.ErrRange) && id > 0 {
		return 0, ErrUnknownID
	}
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return int(id), nil
}

// WriteIDError answers 404 for ids no row can have, 400 for malformed ones.
func WriteIDError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrUnknownID) {
		http.NotFound(w, r)
		return
	}
	http.Error(w, "error, id invalid", http.StatusBadRequest)
}

// PathID reads the id from the named route variable, writing the error response when it is not usable.
func PathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := ParseID(mux.Vars(r)[name])
	if err != nil {
		WriteIDError(w, r, err)
		return 0, false
	}
	return id, true
}
