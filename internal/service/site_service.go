package service

import (
	"context"
	"fmt"
	"net"
	"strings"

	"devforum/internal/authz"
	"devforum/internal/config"
	"devforum/internal/entity/dto"
	"devforum/internal/metrics"
	"devforum/internal/model"
	"devforum/internal/notify"
)

// SiteService covers the newsletter, the contact forms, visitor tracking and
// the admin dashboard counters. Everything it sends goes through the
// notification queue.
type SiteService struct {
	cfg        config.Config
	repo       model.Repository
	dispatcher notify.Dispatcher
	metrics    *metrics.Metrics
}

func NewSiteService(cfg config.Config, repo model.Repository, dispatcher notify.Dispatcher, m *metrics.Metrics) *SiteService {
	return &SiteService{cfg: cfg, repo: repo, dispatcher: dispatcher, metrics: m}
}

// Subscribe queues a newsletter subscription.
func (s *SiteService) Subscribe(ctx context.Context, req dto.SubscribeRequest) error {
	email := normalizeEmail(req.Email)
	if email == "" {
		return fieldError("email", "email is required")
	}
	notify.Submit(ctx, s.dispatcher, notify.NewSubscribeMessage(notify.Subscription{
		List:    s.cfg.MailingListNewsletter,
		Address: email,
	}))
	return nil
}

// Contact forwards a general enquiry to the contact mailbox.
func (s *SiteService) Contact(ctx context.Context, req dto.ContactRequest) error {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "New enquiry"
	}
	return s.forward(ctx, s.cfg.ContactRecipient, subject, req)
}

// Advertise forwards an advertising enquiry to the ads mailbox.
func (s *SiteService) Advertise(ctx context.Context, req dto.ContactRequest) error {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "Advertising enquiry"
	}
	return s.forward(ctx, s.cfg.AdsRecipient, subject, req)
}

func (s *SiteService) forward(ctx context.Context, recipient, subject string, req dto.ContactRequest) error {
	verr := &ValidationError{}
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	message := strings.TrimSpace(req.Message)
	if name == "" {
		verr.Add("name", "name is required")
	}
	if email == "" {
		verr.Add("email", "email is required")
	}
	if message == "" {
		verr.Add("message", "message is required")
	}
	if err := verr.Err(); err != nil {
		return err
	}

	body, err := notify.RenderContact(notify.ContactMail{Name: name, Email: email, Message: message})
	if err != nil {
		return fmt.Errorf("render contact mail: %w", err)
	}
	notify.Submit(ctx, s.dispatcher, notify.NewEmailMessage(notify.Email{
		To:       []string{recipient},
		ReplyTo:  email,
		Subject:  subject,
		HTMLBody: body,
	}))
	return nil
}

// TrackVisit queues a geolocation lookup for a routable client address.
func (s *SiteService) TrackVisit(ctx context.Context, clientIP string) {
	ip := net.ParseIP(strings.TrimSpace(clientIP))
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return
	}
	notify.Submit(ctx, s.dispatcher, notify.NewGeolocateMessage(ip.String()))
}

// Stats returns the admin dashboard counters.
func (s *SiteService) Stats(ctx context.Context, actor authz.Actor) (*dto.SiteStats, error) {
	if err := authz.CanAdminister(actor); err != nil {
		return nil, denied(s.metrics, err)
	}
	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.repo.CountPosts(ctx)
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.CountComments(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.SiteStats{Users: users, Posts: posts, Comments: comments}, nil
}
