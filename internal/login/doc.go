// Package login drives a complete SRP login against a provider: it owns the
// srp.Session for each attempt, sends the two exchanges through an Exchanger,
// maps every outcome to a protocol error and retries transport failures with
// a fresh session.
//
//go:generate go tool mockgen -destination=mock_exchanger.go -package=login github.com/leapcode/leapsrp/internal/login Exchanger
package login
