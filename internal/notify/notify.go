// Package notify is the delivery port for out-of-band codes. Delivery is
// fire and forget; the transport (SMS, email) is an external collaborator.
package notify

import "log"

type Sender interface {
	Send(destination, code string) error
}

// LogSender writes deliveries to the process log. Used in development and
// as the default when no gateway is configured. It never logs the code.
type LogSender struct{}

func (LogSender) Send(destination, code string) error {
	log.Printf("otp dispatched to %s", destination)
	return nil
}
