package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"habitroom/internal/analytics"
	"habitroom/internal/attendance"
	"habitroom/internal/auth"
	"habitroom/internal/config"
	"habitroom/internal/proofstore"
	"habitroom/internal/queue"
	"habitroom/internal/room"
	"habitroom/internal/score"
	"habitroom/internal/status"
	"habitroom/internal/streak"
	"habitroom/internal/user"
	"habitroom/internal/window"
)

type api struct {
	cfg     config.App
	rooms   *room.Service
	att     *attendance.Service
	attRepo *attendance.Repository
	users   *user.Repository
	fetcher *status.Fetcher
	proofs  *proofstore.Client
	queue   queue.Queue
}

func (a *api) registerRoutes(r *gin.Engine) {
	r.POST("/v1/users/register", a.registerUser)

	g := r.Group("/v1", auth.UserAuth(a.cfg.JWTSigningKey, a.cfg.JWTIssuer))

	g.POST("/proofs", a.uploadProof)

	g.POST("/rooms", a.createRoom)
	g.GET("/rooms", a.listRooms)
	g.GET("/rooms/:id", a.getRoom)
	g.PATCH("/rooms/:id", a.updateRoom)
	g.DELETE("/rooms/:id", a.deleteRoom)
	g.POST("/rooms/:id/invite", a.inviteAdmin)
	g.POST("/invites/:code/accept", a.acceptInvite)

	g.POST("/rooms/:id/submissions", a.submitProof)
	g.POST("/rooms/:id/review", a.reviewSubmission)
	g.GET("/rooms/:id/history", a.roomHistory)
	g.GET("/rooms/:id/streak", a.roomStreak)

	g.GET("/users/me/score", a.userScore)
	g.GET("/users/me/analytics", a.userAnalytics)
	g.GET("/reviews/pending", a.pendingReviews)
	g.GET("/dashboard", a.dashboard)
}

// respondErr maps engine errors onto status codes. Validation outcomes are
// expected results and go out without logging; only unknown errors are
// server faults.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, attendance.ErrRoomPaused),
		errors.Is(err, attendance.ErrWindowClosed),
		errors.Is(err, attendance.ErrAlreadyApproved),
		errors.Is(err, attendance.ErrNoReviewer):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, attendance.ErrInvalidTransition),
		errors.Is(err, attendance.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, attendance.ErrNotFound), errors.Is(err, room.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, room.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (a *api) registerUser(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.users.Upsert(c.Request.Context(), req.UserID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := auth.Issue(req.UserID, a.cfg.JWTIssuer, a.cfg.JWTSigningKey, a.cfg.AccessTTL, a.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	_ = a.users.SaveRefreshToken(c.Request.Context(), req.UserID, tokens.RefreshToken, tokens.RefreshExp)

	c.JSON(http.StatusCreated, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// uploadProof stores the image and returns the URL the client passes back
// as proof_ref when submitting. The engine never looks inside it.
func (a *api) uploadProof(c *gin.Context) {
	if a.proofs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "proof storage not configured"})
		return
	}

	var result *proofstore.UploadResult
	var err error
	switch {
	case strings.Contains(c.ContentType(), "multipart/form-data"):
		file, header, ferr := c.Request.FormFile("file")
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
			return
		}
		defer file.Close()
		data, ferr := io.ReadAll(file)
		if ferr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
			return
		}
		result, err = a.proofs.UploadBytes(data, header.Filename)
	default:
		var body struct {
			Data string `json:"data" binding:"required"`
		}
		if berr := c.ShouldBindJSON(&body); berr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide {\"data\": \"<base64 data URL>\"}"})
			return
		}
		result, err = a.proofs.UploadBase64(body.Data)
	}
	if err != nil {
		log.Printf("proof upload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "proof upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"proof_ref": result.SecureURL,
		"public_id": result.PublicID,
		"bytes":     result.Bytes,
	})
}

func (a *api) createRoom(c *gin.Context) {
	var req struct {
		Name            string `json:"name" binding:"required"`
		TimeStart       string `json:"time_start" binding:"required"`
		TimeEnd         string `json:"time_end" binding:"required"`
		AllowLateUpload bool   `json:"allow_late_upload"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rm, err := a.rooms.Create(c.Request.Context(), auth.UserID(c), req.Name, req.TimeStart, req.TimeEnd, req.AllowLateUpload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rm)
}

func (a *api) listRooms(c *gin.Context) {
	rooms, err := a.rooms.ListForUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (a *api) getRoom(c *gin.Context) {
	rm, err := a.rooms.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rm)
}

func (a *api) updateRoom(c *gin.Context) {
	var req struct {
		Name            *string `json:"name"`
		TimeStart       *string `json:"time_start"`
		TimeEnd         *string `json:"time_end"`
		IsPaused        *bool   `json:"is_paused"`
		AllowLateUpload *bool   `json:"allow_late_upload"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rm, err := a.rooms.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), room.Settings{
		Name:            req.Name,
		TimeStart:       req.TimeStart,
		TimeEnd:         req.TimeEnd,
		IsPaused:        req.IsPaused,
		AllowLateUpload: req.AllowLateUpload,
	})
	if err != nil {
		if errors.Is(err, room.ErrNotFound) || errors.Is(err, room.ErrForbidden) {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rm)
}

// deleteRoom cascades record deletion in the database and hands proof refs
// to the worker; artifact cleanup is fire-and-forget.
func (a *api) deleteRoom(c *gin.Context) {
	roomID := c.Param("id")
	refs, err := a.rooms.Delete(c.Request.Context(), auth.UserID(c), roomID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if len(refs) > 0 {
		msg := queue.Message{Type: queue.TypeProofCleanup, RoomID: roomID, ProofRefs: refs}
		if err := a.queue.Publish(c.Request.Context(), msg); err != nil {
			log.Printf("queue publish failed: %v", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"deleted": roomID, "proofs_scheduled": len(refs)})
}

func (a *api) inviteAdmin(c *gin.Context) {
	code, err := a.rooms.Invite(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, room.ErrNotFound) || errors.Is(err, room.ErrForbidden) {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invite_code": code})
}

func (a *api) acceptInvite(c *gin.Context) {
	rm, err := a.rooms.AcceptInvite(c.Request.Context(), auth.UserID(c), c.Param("code"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rm)
}

func (a *api) submitProof(c *gin.Context) {
	var req struct {
		ProofRef string `json:"proof_ref" binding:"required"`
		Note     string `json:"note"`
		Date     string `json:"date"` // optional YYYY-MM-DD for late uploads
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	uid := auth.UserID(c)
	rm, err := a.rooms.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if rm.OwnerID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the room owner submits proof"})
		return
	}

	var day time.Time
	if req.Date != "" {
		day, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
	}

	rec, err := a.att.Submit(c.Request.Context(), rm, day, req.ProofRef, req.Note, time.Now().UTC())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (a *api) reviewSubmission(c *gin.Context) {
	var req struct {
		Action string `json:"action" binding:"required"` // approve | reject
		Date   string `json:"date"`                      // defaults to today
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	uid := auth.UserID(c)
	rm, err := a.rooms.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if rm.AdminID == nil || *rm.AdminID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the room admin reviews submissions"})
		return
	}

	now := time.Now().UTC()
	day := now
	if req.Date != "" {
		day, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
	}

	var rec attendance.Record
	switch req.Action {
	case "approve":
		rec, err = a.att.Approve(c.Request.Context(), rm, day, uid, now)
	case "reject":
		rec, err = a.att.Reject(c.Request.Context(), rm, day, uid, req.Reason, now)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be approve or reject"})
		return
	}
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (a *api) roomHistory(c *gin.Context) {
	rm, err := a.rooms.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now
	if v := c.Query("from"); v != "" {
		if parsed, perr := time.Parse("2006-01-02", v); perr == nil {
			from = parsed
		}
	}
	if v := c.Query("to"); v != "" {
		if parsed, perr := time.Parse("2006-01-02", v); perr == nil {
			to = parsed
		}
	}

	recs, err := a.att.History(c.Request.Context(), rm, from, to, now)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs})
}

func (a *api) roomStreak(c *gin.Context) {
	rm, err := a.rooms.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	now := time.Now().UTC()
	days, err := a.att.ApprovedDays(c.Request.Context(), rm, now)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, streak.Compute(days, now))
}

// userRecords reconciles every room the user owns, then returns the full
// joined history. Scores and analytics both read from here so they always
// see materialized missed days.
func (a *api) userRecords(c *gin.Context, uid string, now time.Time) ([]attendance.UserRecord, bool) {
	rooms, err := a.rooms.ListForUser(c.Request.Context(), uid)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	for _, rm := range rooms {
		if rm.OwnerID != uid {
			continue
		}
		if err := a.att.Reconcile(c.Request.Context(), rm, now); err != nil {
			respondErr(c, err)
			return nil, false
		}
	}
	from := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	recs, err := a.attRepo.ListForUser(c.Request.Context(), uid, from, attendance.DateOf(now))
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	return recs, true
}

func (a *api) userScore(c *gin.Context) {
	now := time.Now().UTC()
	recs, ok := a.userRecords(c, auth.UserID(c), now)
	if !ok {
		return
	}

	events := make([]score.Event, 0, len(recs))
	for _, r := range recs {
		e := score.Event{
			Day:        r.Day,
			Status:     r.Status,
			NoteLength: len(r.Note),
			WindowEnd:  window.EndOn(r.Day, r.RoomTimeStart, r.RoomTimeEnd),
		}
		if r.SubmittedAt != nil {
			e.SubmittedAt = *r.SubmittedAt
		}
		events = append(events, e)
	}
	c.JSON(http.StatusOK, score.Compute(events, score.DefaultWeights, a.cfg.ScoreMax))
}

func (a *api) userAnalytics(c *gin.Context) {
	now := time.Now().UTC()
	recs, ok := a.userRecords(c, auth.UserID(c), now)
	if !ok {
		return
	}

	points := make([]analytics.Record, 0, len(recs))
	for _, r := range recs {
		points = append(points, analytics.Record{
			Day:      r.Day,
			Approved: r.Status == attendance.StatusApproved,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"heatmap": analytics.Heatmap(points, now, a.cfg.HeatmapDays),
		"weekly":  analytics.Weekly(points),
		"monthly": analytics.Monthly(points),
	})
}

// pendingReviews exposes the admin's open queue as plain data; an external
// notifier polls this for badge counts.
func (a *api) pendingReviews(c *gin.Context) {
	recs, err := a.attRepo.ListPendingForAdmin(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(recs), "records": recs})
}

func (a *api) dashboard(c *gin.Context) {
	uid := auth.UserID(c)
	rooms, err := a.rooms.ListForUser(c.Request.Context(), uid)
	if err != nil {
		respondErr(c, err)
		return
	}
	statuses := a.fetcher.FetchAll(c.Request.Context(), rooms, time.Now().UTC())
	c.JSON(http.StatusOK, gin.H{"rooms": rooms, "statuses": statuses})
}
