// Package host 提供 plugin.Host 的一个实现：把回调写成 JSON 事件流，供 host 侧桥接进程读取。
package host

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/John-Robertt/progmeta/internal/plugin"
)

const (
	EventResolved       = "resolved"
	EventEndOfDirectory = "end_of_directory"
)

// Event 是写到输出流里的一行 JSON。
type Event struct {
	Event     string           `json:"event"`
	Handle    int              `json:"handle"`
	Succeeded *bool            `json:"succeeded,omitempty"`
	Item      *plugin.ListItem `json:"item,omitempty"`
}

// Stream 把每次回调编码为一行 JSON（JSON Lines）。
type Stream struct {
	mu  sync.Mutex
	enc *json.Encoder
}

var _ plugin.Host = (*Stream)(nil)

func NewStream(w io.Writer) *Stream {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Stream{enc: enc}
}

func (s *Stream) SetResolvedURL(handle int, succeeded bool, item *plugin.ListItem) error {
	return s.emit(Event{Event: EventResolved, Handle: handle, Succeeded: &succeeded, Item: item})
}

func (s *Stream) EndOfDirectory(handle int) error {
	return s.emit(Event{Event: EventEndOfDirectory, Handle: handle})
}

func (s *Stream) emit(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(ev)
}
