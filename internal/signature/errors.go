package signature

import "fmt"

type SyncErrorKind string

const (
	SyncUnknownSigner      SyncErrorKind = "unknown_signer"
	SyncUnmappedStatus     SyncErrorKind = "unmapped_status"
	SyncNoDocument         SyncErrorKind = "no_document"
	SyncDocumentMismatch   SyncErrorKind = "document_mismatch"
	SyncInconsistentStatus SyncErrorKind = "inconsistent_status"
	SyncMissingTimestamp   SyncErrorKind = "missing_timestamp"
)

// ProviderSyncError reports provider data the tracker cannot fold into the
// local document. It signals a synchronization fault and must not be dropped.
type ProviderSyncError struct {
	Kind       SyncErrorKind
	DocumentID string
	SignerID   string
	Status     string
	Message    string
}

func (e *ProviderSyncError) Error() string {
	if e.DocumentID != "" {
		return fmt.Sprintf("signature sync (%s) on document %s: %s", e.Kind, e.DocumentID, e.Message)
	}
	return fmt.Sprintf("signature sync (%s): %s", e.Kind, e.Message)
}
