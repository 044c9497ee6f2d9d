package mailer

import (
	logrus "github.com/sirupsen/logrus"
)

// Mailer delivers account-verification mail. Delivery itself is an
// external service; the interface is the contract the registration flow
// needs from it.
type Mailer interface {
	Send(subject, textBody, htmlBody string, to []string) error
}

// LogMailer writes outbound mail to the application log instead of
// sending it.
type LogMailer struct{}

func (LogMailer) Send(subject, textBody, htmlBody string, to []string) error {
	logrus.WithFields(logrus.Fields{
		"subject": subject,
		"to":      to,
		"text":    textBody,
		"html":    htmlBody,
	}).Info("outbound mail")
	return nil
}

// Default is the mailer used by the controllers; tests and deployments
// can swap it.
var Default Mailer = LogMailer{}
