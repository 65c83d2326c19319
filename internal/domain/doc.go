// Package domain defines the core business entities of the extraction
// service: the extraction task, its lifecycle state machine, and the
// canonical extracted-information record produced by normalization.
package domain
