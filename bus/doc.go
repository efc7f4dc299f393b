// Package bus connects the token lifecycle to RabbitMQ.
//
// [Publisher] is a rentalAuth.EventSink that publishes lifecycle events to a
// topic exchange. [Consumer] listens for member events raised by the account
// service (password change, role change, deletion) and force-expires every
// token of the affected member. Deliveries are acknowledged only after the
// sweep succeeds; the sweep is idempotent, so redelivery is harmless.
package bus
