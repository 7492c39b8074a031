package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// envelope is the body of every API response.
type envelope struct {
	Success    bool              `json:"success"`
	Data       any               `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	Pagination *paging.Meta      `json:"pagination,omitempty"`
}

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func created(w http.ResponseWriter, data any, msg string) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: data, Message: msg})
}

func page(w http.ResponseWriter, data any, meta paging.Meta) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: &meta})
}

func message(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg})
}

func fail(w http.ResponseWriter, code int, msg string, fields map[string]string) {
	writeJSON(w, code, envelope{Success: false, Message: msg, Errors: fields})
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:   http.StatusBadRequest,
	apperr.KindBusiness:     http.StatusBadRequest,
	apperr.KindUnauthorized: http.StatusUnauthorized,
	apperr.KindForbidden:    http.StatusForbidden,
	apperr.KindNotFound:     http.StatusNotFound,
}

// writeError maps err onto the envelope. Internal errors are logged and replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if code, known := statusByKind[ae.Kind]; known {
			fail(w, code, ae.Message, ae.Fields)
			return
		}
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	fail(w, http.StatusInternalServerError, apperr.MsgInternal, nil)
}

// decode reads a JSON body into dst and runs struct validation.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	return check(dst)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation(apperr.MsgInvalidJSON, nil).Wrap(err)
	}
	return nil
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fieldMessage(fe)
	}
	return apperr.Validation(apperr.MsgInvalidInput, fields)
}

// fieldPath drops the root struct name from the namespace, e.g. PlaceInput.items[0].quantity.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "هذا الحقل مطلوب"
	case "email":
		return "البريد الإلكتروني غير صالح"
	case "min", "gte":
		return "القيمة أقل من الحد الأدنى " + fe.Param()
	case "max", "lte":
		return "القيمة أكبر من الحد الأقصى " + fe.Param()
	case "oneof":
		return "القيمة يجب أن تكون إحدى: " + fe.Param()
	case "datetime":
		return "صيغة التاريخ غير صالحة"
	}
	return "قيمة غير صالحة"
}
