package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultSauceURL is the local Sauce4Zwift web server
const DefaultSauceURL = "ws://127.0.0.1:1080"

const (
	eventsPath     = "/api/ws/events"
	subscribeEvent = "athlete/self"
)

// DefaultReconnectDelay is the wait between connection attempts
const DefaultReconnectDelay = 3 * time.Second

type sauceMessage struct {
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type sauceAthleteData struct {
	Athlete struct {
		FTP float64 `json:"ftp"`
	} `json:"athlete"`
	State *struct {
		Distance *float64 `json:"distance"`
		Time     *float64 `json:"time"`
		Power    *float64 `json:"power"`
	} `json:"state"`
}

type subscribeRequest struct {
	Type string `json:"type"`
	UID  string `json:"uid"`
	Data struct {
		Method string `json:"method"`
		Arg    struct {
			Event string `json:"event"`
			SubID string `json:"subId"`
		} `json:"arg"`
	} `json:"data"`
}

// EventsURL returns the websocket endpoint for a Sauce4Zwift base URL. An
// empty base selects DefaultSauceURL.
func EventsURL(base string) string {
	if base == "" {
		base = DefaultSauceURL
	}
	return strings.TrimRight(base, "/") + eventsPath
}

// SubscribeRequest encodes the athlete/self subscription
func SubscribeRequest(uid, subID string) ([]byte, error) {
	var req subscribeRequest
	req.Type = "request"
	req.UID = uid
	req.Data.Method = "subscribe"
	req.Data.Arg.Event = subscribeEvent
	req.Data.Arg.SubID = subID
	return json.Marshal(req)
}

// ParseMessage decodes one inbound message. ok is false for messages that
// carry no telemetry, such as a successful subscribe response.
func ParseMessage(raw []byte) (ev Event, ok bool, err error) {
	var msg sauceMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Event{}, false, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch msg.Type {
	case "response":
		if !msg.Success {
			return Event{}, false, ErrSubscribeFailed
		}
		return Event{}, false, nil
	case "event":
		if !msg.Success {
			return Event{}, false, nil
		}
	default:
		return Event{}, false, nil
	}

	var data sauceAthleteData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return Event{}, false, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	st := data.State
	switch {
	case st == nil:
		return Event{}, false, fmt.Errorf("%w: missing state", ErrMalformedEvent)
	case st.Distance == nil:
		return Event{}, false, fmt.Errorf("%w: missing state.distance", ErrMalformedEvent)
	case st.Time == nil:
		return Event{}, false, fmt.Errorf("%w: missing state.time", ErrMalformedEvent)
	case st.Power == nil:
		return Event{}, false, fmt.Errorf("%w: missing state.power", ErrMalformedEvent)
	}

	return Event{
		FTP:          data.Athlete.FTP,
		DistanceM:    *st.Distance,
		ElapsedTimeS: *st.Time,
		PowerW:       *st.Power,
	}, true, nil
}

// Sauce streams athlete/self events from a Sauce4Zwift websocket
type Sauce struct {
	url            string
	reconnectDelay time.Duration
	dialer         *websocket.Dialer
	logger         *log.Logger
}

// NewSauce creates a client for baseURL. A reconnectDelay of zero or less
// disables reconnecting: Run returns after the first connection ends.
func NewSauce(baseURL string, reconnectDelay time.Duration, logger *log.Logger) *Sauce {
	if logger == nil {
		panic("Sauce: logger cannot be nil")
	}
	return &Sauce{
		url:            EventsURL(baseURL),
		reconnectDelay: reconnectDelay,
		dialer:         &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		logger:         logger,
	}
}

// URL returns the websocket endpoint
func (s *Sauce) URL() string {
	return s.url
}

// Run connects, subscribes and forwards events until ctx is cancelled
func (s *Sauce) Run(ctx context.Context, out chan<- Event) error {
	for {
		err := s.runConnection(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Printf("Sauce: socket error: %v", err)
		if s.reconnectDelay <= 0 {
			return err
		}

		s.logger.Printf("Sauce: reconnecting in %v", s.reconnectDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *Sauce) runConnection(ctx context.Context, out chan<- Event) error {
	s.logger.Printf("Sauce: Connecting to: %s", s.url)
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	req, err := SubscribeRequest(strconv.FormatUint(rand.Uint64(), 10), strconv.FormatUint(rand.Uint64(), 10))
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, req); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}
	s.logger.Printf("Sauce: Connected.")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("socket closed: %w", err)
			}
			return err
		}

		ev, ok, err := ParseMessage(raw)
		if errors.Is(err, ErrSubscribeFailed) {
			return err
		}
		if err != nil {
			s.logger.Printf("Sauce: rejected message: %v", err)
			continue
		}
		if !ok {
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
