package firesync

import (
	"net/http"
	"sync"
	"time"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"github.com/Mihary-Mandresy/cloud-s5-back/firestore"
	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
)

var (
	serviceOnce sync.Once
	service     *Service
	serviceErr  error
)

func getService() (*Service, error) {
	serviceOnce.Do(func() {
		client, err := firestore.NewClient()
		if err != nil {
			serviceErr = err
			return
		}
		service = NewService(NewStore(), client, config.GetLogger())
	})
	return service, serviceErr
}

const fullSyncLockKey = "lock:firesync:full"

// StatusHandler reports gateway health plus the synchronization status
// derived from a live comparison.
func StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := getService()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"connected":              false,
				"synchronisation_status": syncStatusError,
				"error":                  err.Error(),
			})
			return
		}
		if client, ok := s.gateway.(*firestore.Client); ok {
			if err := client.CheckConnection(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"connected":              false,
					"synchronisation_status": syncStatusError,
					"error":                  err.Error(),
				})
				return
			}
		}
		status, available := s.synchronisationStatus(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"connected":              true,
			"synchronisation_status": status,
			"comparison_available":   available,
		})
	}
}

func CompareHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := getService()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "report": emptyCompareReport()})
			return
		}
		report, err := s.BuildCompareReport(c.Request.Context())
		if err != nil {
			status := http.StatusInternalServerError
			if firestore.IsRemoteUnavailable(err) {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, gin.H{"error": err.Error(), "report": emptyCompareReport()})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func StatisticsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := getService()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "statistics": emptyStatisticsReport()})
			return
		}
		report, err := s.Statistics(c.Request.Context())
		if err != nil {
			status := http.StatusInternalServerError
			if firestore.IsRemoteUnavailable(err) {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, gin.H{"error": err.Error(), "statistics": emptyStatisticsReport()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"statistics": report})
	}
}

// FullSyncHandler serializes full syncs behind a redis lock: two overlapping
// invocations would race on the same diff sets.
func FullSyncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := getService()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}

		locker := config.GetRedisLock()
		var lock *redislock.Lock
		if locker != nil {
			lock, err = locker.Obtain(c.Request.Context(), fullSyncLockKey, 2*time.Minute, nil)
			if err == redislock.ErrNotObtained {
				c.JSON(http.StatusConflict, gin.H{"error": "une synchronisation est deja en cours"})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			defer lock.Release(c.Request.Context())
		}

		report, err := s.FullSync(c.Request.Context())
		if err != nil {
			status := http.StatusInternalServerError
			if firestore.IsRemoteUnavailable(err) {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, gin.H{"error": err.Error(), "report": report})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func ForceToFirebaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := getService()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		report, err := s.ForceSyncToFirebase(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "report": report})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func ForceFromFirebaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := getService()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		report, err := s.ForceSyncFromFirebase(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "report": report})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func ExportStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=statistiques_signalements.xlsx")
		if err := ExportStatsExcel(c.Request.Context(), c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}
