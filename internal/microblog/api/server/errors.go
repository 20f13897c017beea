package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Leopold1975/microblog/internal/microblog/domain/errs"
)

type Error struct {
	StatusCode int               `json:"statusCode"`
	Err        string            `json:"error"`
	Fields     map[string]string `json:"fields,omitempty"`
}

func (se Error) ToJSON() []byte {
	b, err := json.Marshal(se)
	if err != nil {
		return []byte(`{"error":"marshal error"}`)
	}

	return b
}

var kinds = []struct {
	kind   error
	status int
	msg    string
}{
	{kind: errs.ErrValidation, status: http.StatusBadRequest, msg: "Validation failed"},
	{kind: errs.ErrConflict, status: http.StatusConflict, msg: "Conflict"},
	{kind: errs.ErrUnauthorized, status: http.StatusUnauthorized, msg: "Unauthorized"},
	{kind: errs.ErrForbidden, status: http.StatusForbidden, msg: "Forbidden"},
	{kind: errs.ErrNotFound, status: http.StatusNotFound, msg: "Not Found"},
}

// handleError maps service errors to a status code. Unclassified errors are
// logged and hidden behind a generic message.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	for _, k := range kinds {
		if !errors.Is(err, k.kind) {
			continue
		}

		e := Error{Err: k.msg} //nolint:exhaustruct

		var (
			ve     *errs.ValidationError
			public *errs.Error
		)

		if errors.As(err, &ve) {
			e.Fields = ve.Fields
		} else if errors.As(err, &public) {
			e.Err = public.Msg
		}

		writeError(w, k.status, e)

		return
	}

	s.lg.With("request_id", requestID(r)).Errorf("%s %s internal error: %+v", r.Method, r.URL.Path, err)

	writeError(w, http.StatusInternalServerError, Error{Err: "Internal server error"}) //nolint:exhaustruct
}

func writeError(w http.ResponseWriter, code int, e Error) {
	e.StatusCode = code

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(e.ToJSON()) //nolint:errcheck
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, Error{Err: "marshal error"}) //nolint:exhaustruct

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b) //nolint:errcheck
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errs.NewValidation("body", "must be a valid JSON object")
	}

	return nil
}
