package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/siteforge/harvest/config"
	"github.com/siteforge/harvest/crawler"
	"github.com/siteforge/harvest/extractor"
	"github.com/siteforge/harvest/models"
	"github.com/siteforge/harvest/store"
	"github.com/siteforge/harvest/webhook"
)

// jobStore holds all in-flight and completed harvest jobs. jobMu guards the
// fields of the jobs it holds; GetHarvest and the background crawl both
// touch them.
var (
	jobStore sync.Map
	jobMu    sync.Mutex
)

func init() {
	// Expire harvest jobs older than 1 hour. Persisted pages outlive the
	// job record; only the polling handle goes away.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			jobStore.Range(func(key, value any) bool {
				job := value.(*models.HarvestJob)
				jobMu.Lock()
				expired := job.CreatedAt < cutoff
				jobMu.Unlock()
				if expired {
					jobStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// PostHarvest returns a handler for POST /api/v1/harvest.
// The crawl runs in the background; the response carries a job ID to poll.
func PostHarvest(ex *extractor.Extractor, policy crawler.PolicyChecker, st store.Store, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.HarvestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.HarvestResponse{
				Status: "failed",
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()
		if req.MaxPages > cfg.Harvest.MaxPages {
			req.MaxPages = cfg.Harvest.MaxPages
		}
		if req.MaxDepth > cfg.Harvest.MaxDepth {
			req.MaxDepth = cfg.Harvest.MaxDepth
		}

		jobID := "harvest-" + randomID()
		job := &models.HarvestJob{
			ID:            jobID,
			TemplateID:    req.TemplateID,
			Status:        "processing",
			CreatedAt:     time.Now().Unix(),
			WebhookURL:    req.WebhookURL,
			WebhookSecret: req.WebhookSecret,
		}
		jobStore.Store(jobID, job)

		go runHarvest(ex, policy, st, cfg, job, req)

		c.JSON(http.StatusOK, models.HarvestResponse{
			ID:     jobID,
			Status: "processing",
		})
	}
}

// GetHarvest returns a handler for GET /api/v1/harvest/:id.
func GetHarvest() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		val, ok := jobStore.Load(jobID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "harvest job not found",
				},
			})
			return
		}

		job := val.(*models.HarvestJob)
		jobMu.Lock()
		resp := models.HarvestStatusResponse{
			ID:           job.ID,
			Status:       job.Status,
			PagesScraped: job.PagesScraped,
			Errors:       append([]string(nil), job.Errors...),
			Pages:        append([]*models.PageRecord(nil), job.Pages...),
		}
		jobMu.Unlock()

		c.JSON(http.StatusOK, resp)
	}
}

// runHarvest drives one crawl session to completion and settles the job.
func runHarvest(ex *extractor.Extractor, policy crawler.PolicyChecker, st store.Store, cfg *config.Config, job *models.HarvestJob, req models.HarvestRequest) {
	notifier := webhook.NewNotifier(job.WebhookURL, job.WebhookSecret)

	opts := crawler.Options{
		StartURL:     req.StartURL,
		TemplateID:   req.TemplateID,
		MaxPages:     req.MaxPages,
		MaxDepth:     req.MaxDepth,
		PageTimeout:  cfg.Harvest.PageTimeout,
		PageDelay:    cfg.Harvest.PageDelay,
		LinksPerPage: cfg.Harvest.LinksPerPage,
		OnPage: func(rec *models.PageRecord) {
			jobMu.Lock()
			job.Pages = append(job.Pages, rec)
			job.PagesScraped = len(job.Pages)
			jobMu.Unlock()
			notifier.SendAsync(webhook.NewEvent(webhook.EventPage, job.ID, gin.H{
				"url":   rec.URL,
				"path":  rec.Path,
				"order": rec.Order,
			}))
		},
	}

	session, err := crawler.New(opts, ex, policy, st)
	if err != nil {
		settleFailed(job, notifier, err)
		return
	}

	summary, err := session.Run(context.Background())
	if err != nil {
		settleFailed(job, notifier, err)
		return
	}

	jobMu.Lock()
	job.PagesScraped = summary.PagesScraped
	job.Errors = summary.Errors
	switch {
	case summary.PagesScraped == 0 && len(summary.Errors) > 0:
		job.Status = "failed"
	case len(summary.Errors) > 0:
		job.Status = "partial"
	default:
		job.Status = "completed"
	}
	status := job.Status
	jobMu.Unlock()

	eventType := webhook.EventCompleted
	if status == "failed" {
		eventType = webhook.EventFailed
	}
	notifier.SendAsync(webhook.NewEvent(eventType, job.ID, summary))

	slog.Info("harvest job finished",
		"id", job.ID,
		"status", status,
		"pages", summary.PagesScraped,
		"errors", len(summary.Errors),
	)
}

func settleFailed(job *models.HarvestJob, notifier *webhook.Notifier, err error) {
	msg := err.Error()
	var he *models.HarvestError
	if errors.As(err, &he) {
		msg = he.Message
	}

	jobMu.Lock()
	job.Status = "failed"
	job.Errors = append(job.Errors, msg)
	jobMu.Unlock()

	notifier.SendAsync(webhook.NewEvent(webhook.EventFailed, job.ID, gin.H{"error": msg}))
	slog.Warn("harvest job failed", "id", job.ID, "error", msg)
}

func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
