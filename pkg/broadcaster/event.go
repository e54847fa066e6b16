package broadcaster

import (
	"errors"
	"slices"
	"sync"
)

var ErrDuplicateChannel = errors.New("duplicate channel registration")

// Broadcaster is a small generic fan-out event broadcaster. Readers either register for specific keys or,
// when registered without keys, receive every event.
//
// Emit blocks until every matching reader has received the value, readers must keep draining their channel
// until they Unregister.
type Broadcaster[T comparable, V any] struct {
	readerMap    map[T][]chan<- V
	allReaders   []chan<- V
	readerMapMu  *sync.RWMutex
	allReadersMu *sync.RWMutex
}

func New[T comparable, V any]() *Broadcaster[T, V] {
	return &Broadcaster[T, V]{
		readerMap:    map[T][]chan<- V{},
		readerMapMu:  &sync.RWMutex{},
		allReadersMu: &sync.RWMutex{},
	}
}

// Consume registers a channel to receive events matching keys. If no keys are provided, all events will be sent.
func (eb *Broadcaster[k, v]) Consume(eventChan chan v, keys ...k) error {
	if len(keys) == 0 {
		eb.allReadersMu.Lock()
		defer eb.allReadersMu.Unlock()

		if slices.Contains(eb.allReaders, chan<- v(eventChan)) {
			return ErrDuplicateChannel
		}

		eb.allReaders = append(eb.allReaders, eventChan)

		return nil
	}

	eb.readerMapMu.Lock()
	defer eb.readerMapMu.Unlock()

	for _, key := range keys {
		if slices.Contains(eb.readerMap[key], chan<- v(eventChan)) {
			return ErrDuplicateChannel
		}

		eb.readerMap[key] = append(eb.readerMap[key], eventChan)
	}

	return nil
}

// Emit sends value to every reader registered for key and to every reader registered for all events.
func (eb *Broadcaster[k, v]) Emit(key k, value v) {
	eb.allReadersMu.RLock()
	defer eb.allReadersMu.RUnlock()

	eb.readerMapMu.RLock()
	defer eb.readerMapMu.RUnlock()

	for _, reader := range slices.Concat(eb.allReaders, eb.readerMap[key]) {
		reader <- value
	}
}

func (eb *Broadcaster[k, v]) removeChan(channels []chan<- v, eventChan chan<- v) []chan<- v {
	return slices.DeleteFunc(slices.Clone(channels), func(channel chan<- v) bool {
		return channel == eventChan
	})
}

// Unregister removes the channel from all readers.
func (eb *Broadcaster[k, v]) Unregister(eventChan chan v) error {
	eb.readerMapMu.Lock()

	for key, eventReaders := range eb.readerMap {
		eb.readerMap[key] = eb.removeChan(eventReaders, eventChan)
	}

	eb.readerMapMu.Unlock()

	eb.allReadersMu.Lock()
	eb.allReaders = eb.removeChan(eb.allReaders, eventChan)
	eb.allReadersMu.Unlock()

	return nil
}
