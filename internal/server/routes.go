package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/roundhouse/internal/ledger"
	"github.com/zulandar/roundhouse/internal/proposer"
	"github.com/zulandar/roundhouse/internal/reconciler"
	"github.com/zulandar/roundhouse/internal/roster"
	"gorm.io/gorm"
)

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	db := opts.DB

	router.GET("/", handleRoot())

	api := router.Group("/api")
	api.GET("/developers", handleDevelopers(db))
	api.GET("/tickets", handleTickets(db))
	api.POST("/proposals", handleProposals(opts))
	api.POST("/assignments", handleCommit(opts))
	api.GET("/assignments", handleListAssignments(db))
	api.GET("/assignments/:id/history", handleHistory(db))
	api.POST("/assignments/reset", handleReset(opts))
	api.PUT("/tickets/:id/assignment", handleReassign(db))
	api.DELETE("/tickets/:id/assignment", handleRemove(db))
}

func handleRoot() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "roundhouse", "status": "running"})
	}
}

func handleDevelopers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		devs, err := roster.Developers(db)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"developers": devs, "total": len(devs)})
	}
}

func handleTickets(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("eligible") == "true" {
			filter := reconciler.EligibilityFilter{
				MinPoints: intQuery(c, "min_points"),
				MaxPoints: intQuery(c, "max_points"),
				Priority:  c.Query("priority"),
				Limit:     intQuery(c, "limit"),
			}
			tickets, err := reconciler.EligibleTickets(db, filter)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"tickets": tickets, "total": len(tickets)})
			return
		}

		tickets, err := roster.Tickets(db)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tickets": tickets, "total": len(tickets)})
	}
}

type proposalsRequest struct {
	TicketIDs []uint `json:"ticket_ids" binding:"required"`
}

func handleProposals(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req proposalsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
			return
		}
		if opts.Proposer == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no proposal generator configured", "kind": "upstream"})
			return
		}

		db := opts.DB
		tickets, err := roster.TicketsByIDs(db, req.TicketIDs)
		if err != nil {
			writeError(c, err)
			return
		}

		devViews, err := roster.Developers(db)
		if err != nil {
			writeError(c, err)
			return
		}
		snapshot := make([]proposer.Developer, len(devViews))
		for i, d := range devViews {
			snapshot[i] = proposer.Developer{
				Name:            d.Name,
				Title:           d.Title,
				ExperienceYears: d.ExperienceYears,
				Availability:    d.Availability,
				Skills:          d.Skills,
				Workload:        d.CurrentWorkload,
				Capacity:        d.Capacity,
			}
		}

		generated, genDropped, err := proposer.Batch(c.Request.Context(), opts.Proposer, tickets, snapshot, opts.Workers)
		if err != nil {
			writeError(c, err)
			return
		}

		candidates := make([]reconciler.Proposal, len(generated))
		for i, p := range generated {
			candidates[i] = reconciler.Proposal{TicketID: p.TicketID, AssignedTo: p.AssignedTo, Reason: p.Reason}
		}

		valid, dropped, err := reconciler.PrepareProposals(db, tickets, candidates)
		if err != nil {
			writeError(c, err)
			return
		}
		for _, d := range genDropped {
			dropped = append(dropped, reconciler.DroppedProposal{TicketID: d.TicketID, Cause: d.Cause})
		}

		c.JSON(http.StatusOK, gin.H{
			"proposals": valid,
			"dropped":   dropped,
			"generator": opts.Proposer.Name(),
			"total":     len(tickets),
		})
	}
}

type commitRequest struct {
	Approved []reconciler.Proposal `json:"approved"`
	Rejected []reconciler.Proposal `json:"rejected"`
}

func handleCommit(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req commitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
			return
		}
		if len(req.Approved) == 0 && len(req.Rejected) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty commit: no approved or rejected items", "kind": "validation"})
			return
		}

		result, err := reconciler.Commit(opts.DB, req.Approved, req.Rejected)
		if err != nil {
			writeError(c, err)
			return
		}

		opts.Notify.CommitSummary(len(result.Created), len(result.Rejected), len(result.Conflicts))
		c.JSON(http.StatusOK, gin.H{"status": "success", "result": result})
	}
}

func handleListAssignments(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := ledger.Filters{
			Developer: c.Query("developer"),
			TicketID:  uint(intQuery(c, "ticket_id")),
		}
		assignments, err := ledger.ListActive(db, filters)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"assignments": assignments, "total": len(assignments)})
	}
}

func handleHistory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad assignment id", "kind": "validation"})
			return
		}
		rows, err := ledger.History(db, uint(id))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": rows, "total": len(rows)})
	}
}

type reassignRequest struct {
	Developer string `json:"developer" binding:"required"`
	Reason    string `json:"reason"`
}

func handleReassign(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ticketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad ticket id", "kind": "validation"})
			return
		}
		var req reassignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
			return
		}

		a, err := reconciler.Reassign(db, uint(ticketID), req.Developer, req.Reason)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"assignment": a})
	}
}

type removeRequest struct {
	Reason string `json:"reason"`
}

func handleRemove(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ticketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad ticket id", "kind": "validation"})
			return
		}
		var req removeRequest
		c.ShouldBindJSON(&req) // body is optional

		if err := reconciler.Remove(db, uint(ticketID), req.Reason); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "removed", "ticket_id": ticketID})
	}
}

type resetRequest struct {
	Reason string `json:"reason"`
}

func handleReset(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req resetRequest
		c.ShouldBindJSON(&req) // body is optional
		if req.Reason == "" {
			req.Reason = "Reset all assignments"
		}

		count, err := reconciler.ResetAll(opts.DB, req.Reason)
		if err != nil {
			writeError(c, err)
			return
		}

		opts.Notify.ResetSummary(count, req.Reason)
		c.JSON(http.StatusOK, gin.H{"status": "success", "reset": count})
	}
}

// writeError maps domain errors to transport codes. Not-found and conflict
// stay distinguishable in both status code and body kind.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "kind": "not_found"})
	case errors.Is(err, ledger.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": "conflict"})
	case errors.Is(err, ledger.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
	case errors.Is(err, proposer.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "kind": "upstream"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "kind": "internal"})
	}
}

// intQuery parses an integer query parameter, returning 0 when absent or bad.
func intQuery(c *gin.Context, name string) int {
	v := c.Query(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
