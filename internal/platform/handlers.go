package platform

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"msgbridge/internal/idl"
	"msgbridge/internal/messages"
	"msgbridge/util"

	"github.com/go-chi/chi/v5"
)

// Publisher sends an application value as a message of typeName on topic.
type Publisher interface {
	Publish(ctx context.Context, typeName, topic string, value any) (string, error)
}

// Health returns 200 OK.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListTypes returns the names of every type resolved so far.
func ListTypes(reg *messages.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"types": reg.Registered()})
	}
}

type fieldInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type constantInfo struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

type typeInfo struct {
	Name      string             `json:"name"`
	Fields    []fieldInfo        `json:"fields"`
	Constants []constantInfo     `json:"constants,omitempty"`
	Default   *messages.Instance `json:"default"`
}

// TypeInfo describes the fields of a type together with its default instance.
func TypeInfo(reg *messages.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := routeTypeName(r)
		t, err := reg.Resolve(name)
		if err != nil {
			writeError(w, err)
			return
		}

		info := typeInfo{Name: t.Name(), Default: t.New()}
		for _, f := range t.Fields() {
			info.Fields = append(info.Fields, fieldInfo{Name: f.Name, Type: f.Type.String()})
		}
		for _, c := range t.Schema().Constants {
			info.Constants = append(info.Constants, constantInfo{Name: c.Name, Type: c.Type.String(), Value: c.Value})
		}
		writeJSON(w, http.StatusOK, info)
	}
}

// PublishHandler validates the request body against the routed type and
// publishes it on the topic given by the topic query parameter. The body uses
// the JSON form of instances, so float fields may carry "NaN", "Infinity" and
// "-Infinity". Bodies sent as application/merge-patch+json or
// application/json-patch+json are applied to the default instance of the type
// first.
func PublishHandler(reg *messages.Registry, pub Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := routeTypeName(r)
		topic := r.URL.Query().Get("topic")
		if topic == "" {
			http.Error(w, "missing topic", http.StatusBadRequest)
			return
		}

		doc, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		pt, isPatch := patchType(r.Header.Get("Content-Type"))
		if !isPatch && !json.Valid(doc) {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		t, err := reg.Resolve(name)
		if err != nil {
			writeError(w, err)
			return
		}
		var m *messages.Instance
		if isPatch {
			m, err = t.Patch(nil, pt, doc)
		} else {
			m, err = t.DecodeJSON(doc)
		}
		if err != nil {
			writeError(w, err)
			return
		}

		id, err := pub.Publish(r.Context(), name, topic, m)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "sent",
			"id":     id,
			"type":   name,
			"topic":  topic,
		})
	}
}

func patchType(contentType string) (messages.PatchType, bool) {
	mt, _, _ := mime.ParseMediaType(contentType)
	switch mt {
	case "application/merge-patch+json":
		return messages.PatchMerge, true
	case "application/json-patch+json":
		return messages.PatchJSONPatch, true
	}
	return "", false
}

func routeTypeName(r *http.Request) string {
	return idl.QualifiedName(chi.URLParam(r, "pkg"), chi.URLParam(r, "kind"), chi.URLParam(r, "name"))
}

// statusFor maps marshaling and registry errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		typeErr  *messages.FieldTypeError
		rangeErr *messages.FieldRangeError
		lenErr   *messages.FixedArrayLengthError
		boundErr *messages.SequenceBoundError
	)
	switch {
	// A type whose nested types are missing wraps both schema errors.
	case errors.Is(err, messages.ErrInvalidSchema), errors.Is(err, messages.ErrCyclicSchema):
		return http.StatusConflict
	case errors.Is(err, messages.ErrUnknownType):
		return http.StatusNotFound
	case errors.Is(err, util.ErrInvalidTopic), errors.Is(err, messages.ErrInvalidPatch):
		return http.StatusBadRequest
	case errors.As(err, &typeErr), errors.As(err, &rangeErr),
		errors.As(err, &lenErr), errors.As(err, &boundErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
