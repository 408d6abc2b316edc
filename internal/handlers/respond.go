package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/middleware"
)

const maxBodyBytes = 1 << 20

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	middleware.WriteJSON(w, status, data)
}

// respondErr maps err onto the error taxonomy
func respondErr(w http.ResponseWriter, req *http.Request, err error) {
	middleware.WriteError(w, req, err)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it.
func (r *Router) decode(w http.ResponseWriter, req *http.Request, dst any) error {
	if err := readJSON(w, req, dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return err
	}
	return r.check(dst)
}

// decodeOptional is decode for action endpoints whose body may be empty.
func (r *Router) decodeOptional(w http.ResponseWriter, req *http.Request, dst any) error {
	if err := readJSON(w, req, dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return r.check(dst)
}

func readJSON(w http.ResponseWriter, req *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

func (r *Router) check(v any) error {
	err := r.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("%v", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fe.Namespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		fields[key] = fe.Tag()
	}
	return apperr.Validation("validation failed").WithDetail("fields", fields)
}

func pathID(req *http.Request, name string) (uint, error) {
	v, err := strconv.ParseUint(mux.Vars(req)[name], 10, 64)
	if err != nil || v == 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return uint(v), nil
}

// params parses optional query parameters, keeping the first error.
type params struct {
	values url.Values
	err    error
}

func queryParams(req *http.Request) *params {
	return &params{values: req.URL.Query()}
}

func (p *params) fail(key string) {
	if p.err == nil {
		p.err = apperr.Validation("invalid query parameter %s", key).WithDetail("parameter", key)
	}
}

func (p *params) str(key string) string {
	return strings.TrimSpace(p.values.Get(key))
}

func (p *params) uint(key string) *uint {
	raw := p.str(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		p.fail(key)
		return nil
	}
	u := uint(v)
	return &u
}

func (p *params) int(key string) *int {
	raw := p.str(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key)
		return nil
	}
	return &v
}

func (p *params) bool(key string) *bool {
	raw := p.str(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key)
		return nil
	}
	return &v
}

// time accepts RFC 3339 timestamps and plain dates.
func (p *params) time(key string) *time.Time {
	raw := p.str(key)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	p.fail(key)
	return nil
}

func (p *params) decimal(key string) *decimal.Decimal {
	raw := p.str(key)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.fail(key)
		return nil
	}
	return &d
}

// reply writes v with status, or err when it is set.
func reply(w http.ResponseWriter, req *http.Request, status int, v any, err error) {
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, status, v)
}

// noContent answers 204 unless err is set.
func noContent(w http.ResponseWriter, req *http.Request, err error) {
	if err != nil {
		respondErr(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withID parses the {id} path segment before calling h.
func withID(h func(w http.ResponseWriter, req *http.Request, id uint)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, err := pathID(req, "id")
		if err != nil {
			respondErr(w, req, err)
			return
		}
		h(w, req, id)
	}
}
