// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	EventQueueSize = 64
	AsyncQueueSize = 1000
)

type EventType string

type EventSubscriberId int

type EventHandlerFunc func(Event)

type Event struct {
	Timestamp time.Time
	Data      any
	Type      EventType
}

func NewEvent(eventType EventType, eventData any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      eventData,
	}
}

type subscriber struct {
	ch     chan Event
	mu     sync.RWMutex
	closed bool
}

// deliver sends the event without blocking. It reports false when the
// subscriber buffer is full and the event was dropped.
func (s *subscriber) deliver(evt Event) (delivered bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber deliver panic: %v", r)
		}
	}()
	select {
	case s.ch <- evt:
		return true, nil
	default:
		return false, nil
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// EventBus fans out governance events to in-process subscribers.
//
// Publish delivers synchronously, in call order. PublishAsync hands events to
// a single background worker, so async events are also delivered in the order
// they were queued.
type EventBus struct {
	subscribers map[EventType]map[EventSubscriberId]*subscriber
	metrics     *eventMetrics
	logger      *slog.Logger
	asyncQueue  chan Event
	stopCh      chan struct{}
	asyncWg     sync.WaitGroup
	lastSubId   EventSubscriberId
	mu          sync.RWMutex
	stopMu      sync.RWMutex
	stopped     bool
}

// NewEventBus creates a new EventBus and starts its async delivery worker
func NewEventBus(
	promRegistry prometheus.Registerer,
	logger *slog.Logger,
) *EventBus {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e := &EventBus{
		subscribers: make(map[EventType]map[EventSubscriberId]*subscriber),
		logger:      logger.With("component", "event"),
		asyncQueue:  make(chan Event, AsyncQueueSize),
		stopCh:      make(chan struct{}),
	}
	if promRegistry != nil {
		e.metrics = newEventMetrics(promRegistry)
	}
	e.asyncWg.Add(1)
	go e.asyncWorker()
	return e
}

func (e *EventBus) asyncWorker() {
	defer e.asyncWg.Done()
	for {
		select {
		case <-e.stopCh:
			return
		case evt := <-e.asyncQueue:
			e.Publish(evt.Type, evt)
		}
	}
}

// Subscribe returns a buffered channel receiving events of eventType
func (e *EventBus) Subscribe(
	eventType EventType,
) (EventSubscriberId, <-chan Event) {
	return e.SubscribeTypes(eventType)
}

// SubscribeTypes returns one channel receiving events of every listed type,
// in publish order. Release it with UnsubscribeAll.
func (e *EventBus) SubscribeTypes(
	eventTypes ...EventType,
) (EventSubscriberId, <-chan Event) {
	sub := &subscriber{
		ch: make(chan Event, EventQueueSize),
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSubId++
	subId := e.lastSubId
	for _, eventType := range eventTypes {
		typeSubs, ok := e.subscribers[eventType]
		if !ok {
			typeSubs = make(map[EventSubscriberId]*subscriber)
			e.subscribers[eventType] = typeSubs
		}
		if _, dup := typeSubs[subId]; dup {
			continue
		}
		typeSubs[subId] = sub
		if e.metrics != nil {
			e.metrics.subscribers.WithLabelValues(string(eventType)).Inc()
		}
	}
	return subId, sub.ch
}

// SubscribeFunc allows a consumer to receive events of a particular type via a callback function
func (e *EventBus) SubscribeFunc(
	eventType EventType,
	handlerFunc EventHandlerFunc,
) EventSubscriberId {
	subId, evtCh := e.Subscribe(eventType)
	go func() {
		for evt := range evtCh {
			e.handle(eventType, handlerFunc, evt)
		}
	}()
	return subId
}

// handle runs a callback subscriber, keeping its goroutine alive on panic
func (e *EventBus) handle(
	eventType EventType,
	handlerFunc EventHandlerFunc,
	evt Event,
) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(
				"event handler panic",
				"type", eventType,
				"panic", r,
			)
			if e.metrics != nil {
				e.metrics.deliveryErrors.WithLabelValues(string(eventType)).Inc()
			}
		}
	}()
	handlerFunc(evt)
}

// Unsubscribe stops delivery of eventType to subId. The channel is closed
// once the subscriber has no types left.
func (e *EventBus) Unsubscribe(eventType EventType, subId EventSubscriberId) {
	e.mu.Lock()
	sub := e.detachLocked(eventType, subId)
	if sub != nil && e.subscribedLocked(subId) {
		sub = nil
	}
	e.mu.Unlock()
	if sub != nil {
		sub.close()
	}
}

// UnsubscribeAll stops delivery of every type to subId and closes its channel
func (e *EventBus) UnsubscribeAll(subId EventSubscriberId) {
	e.mu.Lock()
	var sub *subscriber
	for eventType := range e.subscribers {
		if tmpSub := e.detachLocked(eventType, subId); tmpSub != nil {
			sub = tmpSub
		}
	}
	e.mu.Unlock()
	if sub != nil {
		sub.close()
	}
}

func (e *EventBus) detachLocked(
	eventType EventType,
	subId EventSubscriberId,
) *subscriber {
	typeSubs, ok := e.subscribers[eventType]
	if !ok {
		return nil
	}
	sub, ok := typeSubs[subId]
	if !ok {
		return nil
	}
	delete(typeSubs, subId)
	if len(typeSubs) == 0 {
		delete(e.subscribers, eventType)
	}
	if e.metrics != nil {
		e.metrics.subscribers.WithLabelValues(string(eventType)).Dec()
	}
	return sub
}

func (e *EventBus) subscribedLocked(subId EventSubscriberId) bool {
	for _, typeSubs := range e.subscribers {
		if _, ok := typeSubs[subId]; ok {
			return true
		}
	}
	return false
}

// Publish allows a producer to send an event of a particular type to all subscribers
func (e *EventBus) Publish(eventType EventType, evt Event) {
	e.mu.RLock()
	subs := make(map[EventSubscriberId]*subscriber, len(e.subscribers[eventType]))
	for id, sub := range e.subscribers[eventType] {
		subs[id] = sub
	}
	e.mu.RUnlock()
	for id, sub := range subs {
		delivered, err := sub.deliver(evt)
		if !delivered {
			if e.metrics != nil {
				e.metrics.eventsDropped.WithLabelValues(string(eventType)).Inc()
			}
			e.logger.Debug(
				"subscriber buffer full, dropping event",
				"type", eventType,
				"subscriber", id,
			)
		}
		if err != nil {
			e.UnsubscribeAll(id)
			if e.metrics != nil {
				e.metrics.deliveryErrors.WithLabelValues(string(eventType)).Inc()
			}
			e.logger.Debug(
				"event delivery error",
				"type", eventType,
				"error", err,
			)
		}
	}
	if e.metrics != nil {
		e.metrics.eventsTotal.WithLabelValues(string(eventType)).Inc()
	}
}

// PublishAsync enqueues an event for delivery by the background worker.
// Returns false if the EventBus is stopped or the async queue is full.
func (e *EventBus) PublishAsync(eventType EventType, evt Event) bool {
	e.stopMu.RLock()
	defer e.stopMu.RUnlock()
	if e.stopped {
		return false
	}
	evt.Type = eventType
	select {
	case e.asyncQueue <- evt:
		return true
	default:
		e.logger.Warn(
			"async event queue full, dropping event",
			"type", eventType,
		)
		if e.metrics != nil {
			e.metrics.deliveryErrors.WithLabelValues(string(eventType)).Inc()
		}
		return false
	}
}

// Stop halts the async worker and closes all subscriber channels, which
// makes SubscribeFunc goroutines exit. Stop is idempotent.
func (e *EventBus) Stop() {
	e.stopMu.Lock()
	if e.stopped {
		e.stopMu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.stopMu.Unlock()
	e.asyncWg.Wait()

	e.mu.Lock()
	subsCopy := e.subscribers
	e.subscribers = make(map[EventType]map[EventSubscriberId]*subscriber)
	e.mu.Unlock()
	for _, evtTypeSubs := range subsCopy {
		for _, sub := range evtTypeSubs {
			sub.close()
		}
	}
	if e.metrics != nil {
		e.metrics.subscribers.Reset()
	}
}
