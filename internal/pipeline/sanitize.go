package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"html"
	"io"
	"mime"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	apperrors "codeberg.org/algorave/apikit/internal/errors"
)

// bound on strip/unescape rounds for entity-encoded markup
const maxSanitizePasses = 3

// strips markup and surrounding whitespace from untrusted strings
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// returns s with every HTML element removed and whitespace trimmed
// plain text such as "Tom & Jerry" is returned unchanged
func (s *Sanitizer) String(v string) string {
	cur := strings.TrimSpace(v)
	for i := 0; i < maxSanitizePasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(cur)))
		if next == cur {
			break
		}
		cur = next
	}

	return cur
}

// walks a decoded JSON value, cleaning every string leaf
func (s *Sanitizer) Value(v any) any {
	switch t := v.(type) {
	case string:
		return s.String(t)
	case map[string]any:
		for k, child := range t {
			t[k] = s.Value(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = s.Value(child)
		}
		return t
	default:
		return v
	}
}

// cleans query values and the JSON body
// a non-empty body that is not a single JSON value fails as a bad request
func Sanitize(s *Sanitizer) Stage {
	return Stage{
		Name:  "sanitize",
		State: StateSanitized,
		Run: func(req *Request) Outcome {
			for _, values := range req.Query {
				for i, v := range values {
					values[i] = s.String(v)
				}
			}

			raw := bytes.TrimSpace(req.RawBody)
			if len(raw) == 0 {
				req.Body = nil
				return Continue()
			}

			if !isJSONContentType(req.Header.Get("Content-Type")) {
				return Fail(apperrors.BadRequest("request body must be application/json"))
			}

			decoded, err := decodeJSON(raw)
			if err != nil {
				return Fail(err)
			}

			cleaned, err := json.Marshal(s.Value(decoded))
			if err != nil {
				return Fail(apperrors.Internal(err))
			}

			req.Body = cleaned
			return Continue()
		},
	}
}

// restores the named top-level body fields to their values as received
// for secrets such as passwords, which are hashed or compared and never rendered
func Verbatim(fields ...string) Stage {
	return Stage{
		Name: "verbatim",
		Run: func(req *Request) Outcome {
			if len(req.Body) == 0 {
				return Continue()
			}

			received, err := decodeJSON(bytes.TrimSpace(req.RawBody))
			if err != nil {
				return Fail(err)
			}

			original, ok := received.(map[string]any)
			if !ok {
				return Continue()
			}

			decoded, err := decodeJSON(req.Body)
			if err != nil {
				return Fail(apperrors.Internal(err))
			}

			cleaned := decoded.(map[string]any)
			for _, field := range fields {
				if v, ok := original[field]; ok {
					cleaned[field] = v
				}
			}

			body, err := json.Marshal(cleaned)
			if err != nil {
				return Fail(apperrors.Internal(err))
			}

			req.Body = body
			return Continue()
		},
	}
}

func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, apperrors.From(err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, apperrors.BadRequest("malformed JSON body: trailing data")
	}

	return v, nil
}

// an absent content type is accepted as JSON
func isJSONContentType(value string) bool {
	if value == "" {
		return true
	}

	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}

	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
