package notify

import (
	"bytes"
	"fmt"
	"html"
	"image/png"
	"io"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/97Cweb/package-scraper/config"
)

// Mailer sends notification emails over SMTPS, optionally embedding a
// Code 128 barcode of the tracking number so it can be scanned at a
// pickup counter.
type Mailer struct {
	logger *zap.Logger
	cfg    *config.SMTPConfig
	to     string
}

func NewMailer(logger *zap.Logger, cfg *config.SMTPConfig, to string) *Mailer {
	return &Mailer{
		logger: logger,
		cfg:    cfg,
		to:     to,
	}
}

// Notify sends to the configured recipient, attaching a barcode when
// trackingNumber is non-empty.
func (m *Mailer) Notify(subject, body, trackingNumber string) error {
	return m.Send(subject, body, m.to, trackingNumber)
}

// Send delivers an HTML email. When trackingNumber is non-empty a
// barcode image is embedded inline; a barcode that fails to render is
// logged and the mail goes out without it.
func (m *Mailer) Send(subject, body, to, trackingNumber string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)

	barcodeHTML := ""
	if trackingNumber != "" {
		image, err := barcodePNG(trackingNumber)
		if err != nil {
			m.logger.Warn("Failed to generate barcode",
				zap.String("tracking_number", trackingNumber),
				zap.Error(err),
			)
		} else {
			msg.Embed("barcode.png", gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(image)
				return err
			}))
			barcodeHTML = `<p>Here is your tracking barcode:</p><img src="cid:barcode.png" alt="Barcode" /><br>`
		}
	}

	msg.SetBody("text/html", fmt.Sprintf(`<html><body><p>%s</p>%s</body></html>`,
		html.EscapeString(body), barcodeHTML))

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.From, m.cfg.Password)
	dialer.SSL = m.cfg.Port == 465

	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	m.logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func barcodePNG(trackingNumber string) ([]byte, error) {
	code, err := code128.Encode(trackingNumber)
	if err != nil {
		return nil, fmt.Errorf("encode barcode: %w", err)
	}
	scaled, err := barcode.Scale(code, 400, 120)
	if err != nil {
		return nil, fmt.Errorf("scale barcode: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("render barcode: %w", err)
	}
	return buf.Bytes(), nil
}
