// Package convo provides the conversation data model shared by providers and
// the ask loop: roles, text messages and an ordered transcript with a
// retry-time trim policy.
package convo
