package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind selects the handler of a message.
type Kind string

const (
	KindEmail     Kind = "email"
	KindSubscribe Kind = "mailing_list_subscribe"
	KindGeolocate Kind = "geolocate"
)

// Message describes one best-effort side effect. Exactly one payload is
// set, matching Kind.
type Message struct {
	ID         string        `json:"id"`
	Kind       Kind          `json:"kind"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
	Email      *Email        `json:"email,omitempty"`
	Subscribe  *Subscription `json:"subscribe,omitempty"`
	Geolocate  *Geolocation  `json:"geolocate,omitempty"`
}

// Email is a rendered mail ready for delivery.
type Email struct {
	To       []string `json:"to"`
	ReplyTo  string   `json:"reply_to,omitempty"`
	Subject  string   `json:"subject"`
	HTMLBody string   `json:"html_body"`
}

// Subscription adds Address to a mailing list.
type Subscription struct {
	List    string `json:"list"`
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// Geolocation resolves the country of a visitor address.
type Geolocation struct {
	IP string `json:"ip"`
}

func newMessage(kind Kind) Message {
	return Message{ID: uuid.NewString(), Kind: kind, EnqueuedAt: time.Now().UTC()}
}

func NewEmailMessage(email Email) Message {
	msg := newMessage(KindEmail)
	msg.Email = &email
	return msg
}

func NewSubscribeMessage(sub Subscription) Message {
	msg := newMessage(KindSubscribe)
	msg.Subscribe = &sub
	return msg
}

func NewGeolocateMessage(ip string) Message {
	msg := newMessage(KindGeolocate)
	msg.Geolocate = &Geolocation{IP: strings.TrimSpace(ip)}
	return msg
}

// Validate checks that the payload matching Kind is present.
func (m Message) Validate() error {
	switch m.Kind {
	case KindEmail:
		if m.Email == nil || len(m.Email.To) == 0 {
			return fmt.Errorf("email message %s has no recipients", m.ID)
		}
	case KindSubscribe:
		if m.Subscribe == nil || m.Subscribe.Address == "" || m.Subscribe.List == "" {
			return fmt.Errorf("subscribe message %s is incomplete", m.ID)
		}
	case KindGeolocate:
		if m.Geolocate == nil || m.Geolocate.IP == "" {
			return fmt.Errorf("geolocate message %s has no address", m.ID)
		}
	default:
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}
	return nil
}
