package driving

import (
	"context"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
)

// UploadManager drives staged places through remote creation.
type UploadManager interface {
	// DoUpload uploads every place that is not yet created and has no
	// validation errors. Per-place failures are recorded on the place;
	// only run-level failures are returned.
	DoUpload(ctx context.Context, places []*domain.Place, client driven.DirectoryClient) error

	// Subscribe registers an observer and returns a func that removes it.
	Subscribe(observer driven.UploadObserver) func()
}
