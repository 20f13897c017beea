package server

import (
	"net/http"

	"github.com/Leopold1975/microblog/internal/microblog/domain/errs"
	"github.com/oapi-codegen/runtime"
)

// bindInt reads an optional integer query parameter; absent leaves dst nil.
func bindInt(r *http.Request, name string, dst **int) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dst); err != nil {
		return errs.NewValidation(name, "must be an integer")
	}

	return nil
}

// bindList reads an optional comma-separated list, dropping empty items.
func bindList(r *http.Request, name string) ([]string, error) {
	var list []string

	if err := runtime.BindQueryParameter("form", false, false, name, r.URL.Query(), &list); err != nil {
		return nil, errs.NewValidation(name, "must be a comma-separated list")
	}

	out := list[:0]
	for _, v := range list {
		if v != "" {
			out = append(out, v)
		}
	}

	if len(out) == 0 {
		return nil, nil
	}

	return out, nil
}
