package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/issuetracker/internal/filestore"
)

type UploadCleanupJob struct {
	cleaner filestore.TempCleaner
	maxAge  time.Duration
	now     func() time.Time
}

func NewUploadCleanupJob(cleaner filestore.TempCleaner, maxAge time.Duration) *UploadCleanupJob {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &UploadCleanupJob{cleaner: cleaner, maxAge: maxAge, now: time.Now}
}

func (j *UploadCleanupJob) Name() string {
	return "upload_cleanup"
}

func (j *UploadCleanupJob) Run(ctx context.Context) error {
	removed, err := j.cleaner.CleanupTemp(ctx, j.now().Add(-j.maxAge))
	if removed > 0 {
		logutil.GetLogger(ctx).Info("removed stale partial uploads", zap.Int("count", removed))
	}
	return err
}
