// Package request parses and validates incoming chat requests. Bodies may be
// JSON or multipart form data; numeric fields arrive as strings from form
// posts and as strings or numbers from JSON clients, so both are accepted.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// MaxMessageLen is the rune ceiling for one chat message.
	MaxMessageLen = 2000

	// MaxImageBytes caps uploaded image size at 5MB.
	MaxImageBytes = 5 << 20
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ChatRequest is a fully validated chat submission.
type ChatRequest struct {
	Message   string
	Name      string
	Age       int
	Weight    float64
	Height    int
	SessionID string
	Image     *Image
}

// Image is a validated inline upload.
type Image struct {
	MIMEType string
	Data     []byte
}

// flexString accepts a JSON string or number and keeps it as its textual
// form, so "34" and 34 validate identically.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type chatPayload struct {
	Message   string     `json:"message"`
	Name      string     `json:"name"`
	Age       flexString `json:"age"`
	Weight    flexString `json:"weight"`
	Height    flexString `json:"height"`
	SessionID string     `json:"sessionId"`
}

// ParseChat reads the request body according to its content type and returns
// the validated request. Failures are reported as a single *ValidationError
// naming every rejected field, or ErrUnsupportedContentType for bodies that
// are neither JSON nor multipart.
func ParseChat(c *gin.Context) (*ChatRequest, error) {
	switch c.ContentType() {
	case "application/json":
		return parseJSON(c)
	case "multipart/form-data":
		return parseMultipart(c)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, c.ContentType())
	}
}

func parseJSON(c *gin.Context) (*ChatRequest, error) {
	var payload chatPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		return nil, &ValidationError{Fields: []FieldError{
			{Field: "body", Reason: "must be valid JSON"},
		}}
	}

	return validateFields(rawFields{
		Message:   payload.Message,
		Name:      payload.Name,
		Age:       string(payload.Age),
		Weight:    string(payload.Weight),
		Height:    string(payload.Height),
		SessionID: payload.SessionID,
	}, nil)
}

func parseMultipart(c *gin.Context) (*ChatRequest, error) {
	raw := rawFields{
		Message:   c.PostForm("message"),
		Name:      c.PostForm("name"),
		Age:       c.PostForm("age"),
		Weight:    c.PostForm("weight"),
		Height:    c.PostForm("height"),
		SessionID: c.PostForm("sessionId"),
	}

	img, imgErr := readImage(c)
	return validateFields(raw, img, imgErr...)
}

// readImage extracts and checks the optional image part. The MIME type is
// sniffed from the content rather than trusted from the part header.
func readImage(c *gin.Context) (*Image, []FieldError) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, []FieldError{{Field: "image", Reason: "could not be read"}}
	}
	defer file.Close()

	if header.Size > MaxImageBytes {
		return nil, []FieldError{{Field: "image", Reason: "must be 5MB or smaller"}}
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		return nil, []FieldError{{Field: "image", Reason: "could not be read"}}
	}
	if len(data) > MaxImageBytes {
		return nil, []FieldError{{Field: "image", Reason: "must be 5MB or smaller"}}
	}
	if len(data) == 0 {
		return nil, []FieldError{{Field: "image", Reason: "is empty"}}
	}

	mimeType := http.DetectContentType(data)
	if !allowedImageTypes[mimeType] {
		return nil, []FieldError{{Field: "image", Reason: "must be a JPEG, PNG, or WebP image"}}
	}

	return &Image{MIMEType: mimeType, Data: data}, nil
}

// defaultSessionID returns a server-assigned identifier for requests that
// did not carry one.
func defaultSessionID() string {
	return uuid.NewString()
}

func trimAll(raw *rawFields) {
	raw.Message = strings.TrimSpace(raw.Message)
	raw.Name = strings.TrimSpace(raw.Name)
	raw.Age = strings.TrimSpace(raw.Age)
	raw.Weight = strings.TrimSpace(raw.Weight)
	raw.Height = strings.TrimSpace(raw.Height)
	raw.SessionID = strings.TrimSpace(raw.SessionID)
}
