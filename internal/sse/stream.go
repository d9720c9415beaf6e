package sse

import (
	"errors"
	"net/http"
)

// Stream writes events to a single response.
type Stream struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewStream sets the event-stream headers and flushes them.
func NewStream(w http.ResponseWriter) (*Stream, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming unsupported")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &Stream{w: w, f: f}, nil
}

// Send writes one event and flushes it.
func (s *Stream) Send(eventType string, data any) error {
	raw, err := Format(Event{Type: eventType, Data: data})
	if err != nil {
		return err
	}
	return s.WriteRaw(raw)
}

// WriteRaw writes an already formatted event.
func (s *Stream) WriteRaw(raw []byte) error {
	if _, err := s.w.Write(raw); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}
