package driven

import (
	"time"

	"github.com/custodia-labs/usermgr/internal/core/domain"
)

// UploadObserver receives upload notifications. Notifications carry only
// the place id; observers re-read state from the place.
// Calls may arrive from concurrent goroutines.
type UploadObserver interface {
	RowChanged(placeID string)
	TableChanged()
}

// UploadRecorder records upload outcomes.
type UploadRecorder interface {
	// PlaceFinished is called once per place reaching a terminal state.
	PlaceFinished(state domain.UploadState, elapsed time.Duration)

	// AccountRetry is called for each recoverable account rejection.
	AccountRetry(reason domain.RejectionReason)
}
