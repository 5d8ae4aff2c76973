package notify

import (
	"context"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/park-ledger/internal/model"
	"github.com/iliyamo/park-ledger/internal/queue"
)

// Sender is the part of Client the dispatcher needs.
type Sender interface {
	Send(ctx context.Context, cfg model.NotificationConfig, msg Message) (Result, error)
}

// Dispatcher turns confirmed bookings into receipt messages.  Credentials
// are read from the current settings on every delivery so an admin save
// takes effect without a restart.
type Dispatcher struct {
	sender   Sender
	settings func() model.Settings
	log      *logrus.Entry
}

func NewDispatcher(sender Sender, settings func() model.Settings) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		settings: settings,
		log:      logrus.WithField("component", "notify"),
	}
}

// Deliver sends the receipt for ev.  Missing credentials or a missing
// recipient are logged and skipped; provider failures are returned so a
// queue consumer can reject the message.
func (d *Dispatcher) Deliver(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	log := d.log.WithField("booking_id", ev.BookingID)
	cfg := d.settings().Notification
	if !cfg.Configured() {
		log.Debug("notification credentials missing, receipt not sent")
		return nil
	}
	if strings.TrimSpace(ev.GuestContact) == "" {
		log.Info("booking has no contact, receipt not sent")
		return nil
	}

	msg := BuildMessage(cfg, ev)
	res, err := d.sender.Send(ctx, cfg, msg)
	if err != nil {
		log.WithError(err).Warn("receipt delivery failed")
		return err
	}
	log.WithField("message_id", res.MessageID).Info("receipt delivered")
	return nil
}

// BuildMessage assembles the template message for ev.  Parameters are
// truncated to cfg.ParamCount when it is positive.
func BuildMessage(cfg model.NotificationConfig, ev queue.BookingConfirmedEvent) Message {
	params := []string{
		ev.GuestName,
		ev.BookingID,
		ev.VisitDate,
		ev.SlotLabel,
		strconv.FormatInt(ev.Amount, 10),
		strconv.Itoa(ev.Adults + ev.Kids),
	}
	if cfg.ParamCount > 0 && cfg.ParamCount < len(params) {
		params = params[:cfg.ParamCount]
	}
	locale := cfg.LanguageCode
	if cfg.NormalizeLocale {
		locale = NormalizeLocale(locale)
	}
	return Message{
		Recipient: ev.GuestContact,
		Template:  cfg.TemplateName,
		Locale:    locale,
		Params:    params,
	}
}

// NormalizeLocale rewrites tags like "en-us" or "EN_us" into "en_US".
func NormalizeLocale(tag string) string {
	tag = strings.TrimSpace(tag)
	lang, region, ok := strings.Cut(strings.ReplaceAll(tag, "-", "_"), "_")
	if !ok {
		return strings.ToLower(lang)
	}
	return strings.ToLower(lang) + "_" + strings.ToUpper(region)
}
