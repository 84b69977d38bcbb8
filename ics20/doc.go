// Package ics20 converts ICS-20 fungible token packet data between its wire
// form and a validated in-memory form.
//
// Decoding is partial: the denom must satisfy the SDK denom grammar and the
// amount must be a non-negative decimal of the form digits[.digits]. Sender
// and receiver are never validated here. Encoding is total and renders the
// amount in its shortest canonical form.
package ics20
