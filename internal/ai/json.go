package ai

import (
	"encoding/json"
	"errors"
	"strings"

	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/models"
)

const (
	previewLength = 500

	// maxDecodeAttempts bounds how many candidate objects are handed to the
	// decoder, keeping the scan linear in the length of the reply.
	maxDecodeAttempts = 256
)

// ExtractJSONObject returns the first complete JSON object embedded in text.
// Each '{' that can open an object is handed to a streaming decoder, so
// surrounding prose, code fences and braces inside string values are tolerated.
func ExtractJSONObject(text string) (json.RawMessage, error) {
	if !strings.Contains(text, "{") {
		return nil, domainErrors.ErrNoJSONObject
	}

	var lastErr error
	attempts := 0
	for i := 0; i < len(text); i++ {
		idx := strings.IndexByte(text[i:], '{')
		if idx == -1 {
			break
		}
		i += idx

		if !opensObject(text[i+1:]) {
			continue
		}
		if attempts == maxDecodeAttempts {
			return nil, domainErrors.ErrInvalidAIOutput.
				WithError(lastErr).
				WithContext("reason", "too many candidate objects in response")
		}
		attempts++

		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			lastErr = err
			continue
		}
		return raw, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no brace opens a JSON object")
	}
	return nil, domainErrors.ErrInvalidAIOutput.
		WithError(lastErr).
		WithContext("reason", "no valid JSON object in response")
}

// opensObject reports whether rest, the text after a '{', can continue a JSON
// object: the next non-space byte must start a key or close the object.
func opensObject(rest string) bool {
	trimmed := strings.TrimLeft(rest, " \t\r\n")
	return trimmed != "" && (trimmed[0] == '"' || trimmed[0] == '}')
}

// ParseDocUpdatePlan extracts and decodes the documentation plan from a model
// response. Shape rules are checked separately by the docs package.
func ParseDocUpdatePlan(text string) (*models.DocUpdatePlan, error) {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var plan models.DocUpdatePlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, domainErrors.ErrInvalidAIOutput.
			WithError(err).
			WithContext("reason", "failed to parse JSON").
			WithContext("preview", Preview(string(raw)))
	}

	return &plan, nil
}

// Preview truncates long model output for logs.
func Preview(text string) string {
	if len(text) <= previewLength {
		return text
	}
	return text[:previewLength] + "..."
}
