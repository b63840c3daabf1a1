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

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/blinklabs-io/gargoyle/chain"
	"github.com/blinklabs-io/gargoyle/event"
	"github.com/blinklabs-io/gargoyle/governance"
	"github.com/blinklabs-io/gargoyle/ledger"
)

// StreamEventTypes lists the event types available on the event stream
var StreamEventTypes = []event.EventType{
	governance.ProposalCreatedEventType,
	governance.VoteCastEventType,
	governance.ProposalCanceledEventType,
	governance.ProposalExecutedEventType,
	ledger.DelegateChangedEventType,
	ledger.DelegateVotesChangedEventType,
	ledger.TransferEventType,
	chain.ChainUpdateEventType,
	chain.OpAppliedEventType,
}

type streamEvent struct {
	Type      event.EventType `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      any             `json:"data"`
}

// streamTypes parses the comma separated types query parameter. No
// parameter selects every stream type.
func streamTypes(r *http.Request) ([]event.EventType, error) {
	raw := r.URL.Query().Get("types")
	if raw == "" {
		return StreamEventTypes, nil
	}
	var ret []event.EventType
	for name := range strings.SplitSeq(raw, ",") {
		eventType := event.EventType(strings.TrimSpace(name))
		if !slices.Contains(StreamEventTypes, eventType) {
			return nil, fmt.Errorf("%w: unknown event type %q", errBadRequest, eventType)
		}
		ret = append(ret, eventType)
	}
	return ret, nil
}

// handleEvents streams engine events as server-sent events until the client
// goes away or the server stops
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.config.EventBus == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			StatusCode: http.StatusServiceUnavailable,
			Error:      http.StatusText(http.StatusServiceUnavailable),
			Message:    "event stream requires an event bus",
		})
		return
	}
	eventTypes, err := streamTypes(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Error:      http.StatusText(http.StatusInternalServerError),
			Message:    "streaming unsupported",
		})
		return
	}
	subId, evtCh := s.config.EventBus.SubscribeTypes(eventTypes...)
	defer s.config.EventBus.UnsubscribeAll(subId)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case evt, ok := <-evtCh:
			if !ok {
				return
			}
			data, err := json.Marshal(streamEvent{
				Type:      evt.Type,
				Timestamp: evt.Timestamp.UnixMilli(),
				Data:      evt.Data,
			})
			if err != nil {
				s.logger.Warn(
					"failed to encode stream event",
					"type", evt.Type,
					"error", err,
				)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
